package image

import (
	"sort"
	"strings"
)

// Service 食譜圖片服務，從精選 Unsplash 圖庫挑選對應的食物照片
// 不打外部 API，相同輸入永遠回同一張圖
type Service struct {
	dishKeywords     []string
	specificKeywords []string
}

// NewService 創建圖片服務
func NewService() *Service {
	// 關鍵字長的優先比對，"stuffed shells" 要贏過 "shells"
	dishKeywords := make([]string, 0, len(dishTypeImages))
	for k := range dishTypeImages {
		dishKeywords = append(dishKeywords, k)
	}
	sort.Slice(dishKeywords, func(i, j int) bool {
		if len(dishKeywords[i]) != len(dishKeywords[j]) {
			return len(dishKeywords[i]) > len(dishKeywords[j])
		}
		return dishKeywords[i] < dishKeywords[j]
	})

	specificKeywords := make([]string, 0, len(specificDishImages))
	for k := range specificDishImages {
		specificKeywords = append(specificKeywords, k)
	}
	sort.Slice(specificKeywords, func(i, j int) bool {
		if len(specificKeywords[i]) != len(specificKeywords[j]) {
			return len(specificKeywords[i]) > len(specificKeywords[j])
		}
		return specificKeywords[i] < specificKeywords[j]
	})

	return &Service{
		dishKeywords:     dishKeywords,
		specificKeywords: specificKeywords,
	}
}

// Resolve 依搜尋詞和菜系決定圖片網址
// 優先序：菜式 > 料理風格 > 蛋白質 > 菜系 > 通用備援
func (s *Service) Resolve(searchTerm, cuisine string) string {
	lower := strings.ToLower(searchTerm)

	for _, keyword := range s.dishKeywords {
		if strings.Contains(lower, keyword) {
			return pick(dishTypeImages[keyword], searchTerm)
		}
	}

	for _, keyword := range s.specificKeywords {
		if strings.Contains(lower, keyword) {
			return specificDishImages[keyword]
		}
	}

	for _, keyword := range proteinOrder {
		if strings.Contains(lower, keyword) {
			return pick(proteinImages[keyword], searchTerm)
		}
	}

	if images, ok := cuisineImages[cuisine]; ok {
		return pick(images, searchTerm)
	}

	return pick(fallbackImages, searchTerm)
}

// CuisineFallback 沒有搜尋詞時依菜系給一張圖
func (s *Service) CuisineFallback(cuisine string) string {
	if images, ok := cuisineImages[cuisine]; ok {
		return pick(images, cuisine)
	}
	return fallbackImages[0]
}

func pick(images []string, seed string) string {
	return images[hashString(seed)%len(images)]
}

// hashString 穩定雜湊，同一道菜永遠選到同一張圖
func hashString(s string) int {
	var hash int32
	for _, c := range s {
		hash = (hash << 5) - hash + c
	}
	if hash < 0 {
		return int(-hash)
	}
	return int(hash)
}

func unsplash(id string) string {
	return "https://images.unsplash.com/" + id + "?w=800&h=600&fit=crop"
}

// 高優先：具體菜式
var dishTypeImages = map[string][]string{
	"stuffed shells": {unsplash("photo-1574894709920-11b28e7367e3"), unsplash("photo-1595295333158-4742f28fbd85")},
	"shells":         {unsplash("photo-1574894709920-11b28e7367e3"), unsplash("photo-1595295333158-4742f28fbd85")},
	"lasagna":        {unsplash("photo-1574894709920-11b28e7367e3"), unsplash("photo-1619895092538-128341789043")},
	"pasta":          {unsplash("photo-1621996346565-e3dbc646d9a9"), unsplash("photo-1563379926898-05f4575a45d8"), unsplash("photo-1473093295043-cdd812d0e601")},
	"spaghetti":      {unsplash("photo-1622973536968-3ead9e780960"), unsplash("photo-1551892374-ecf8754cf8b0")},
	"penne":          {unsplash("photo-1563379926898-05f4575a45d8")},
	"macaroni":       {unsplash("photo-1543339494-b4cd4f7ba686")},
	"mac and cheese": {unsplash("photo-1543339494-b4cd4f7ba686")},
	"fettuccine":     {unsplash("photo-1645112411341-6c4fd023714a")},
	"alfredo":        {unsplash("photo-1645112411341-6c4fd023714a")},
	"carbonara":      {unsplash("photo-1612874742237-6526221588e3")},
	"ravioli":        {unsplash("photo-1587740908075-9e245070dfaa")},
	"tortellini":     {unsplash("photo-1587740908075-9e245070dfaa")},
	"risotto":        {unsplash("photo-1476124369491-e7addf5db371")},
	"gnocchi":        {unsplash("photo-1551183053-bf91a1d81141")},
	"stir fry":       {unsplash("photo-1603133872878-684f208fb84b"), unsplash("photo-1512058564366-18510be2db19")},
	"stir-fry":       {unsplash("photo-1603133872878-684f208fb84b")},
	"fried rice":     {unsplash("photo-1603133872878-684f208fb84b"), unsplash("photo-1512058564366-18510be2db19")},
	"noodles":        {unsplash("photo-1569718212165-3a8278d5f624"), unsplash("photo-1552611052-33e04de081de")},
	"lo mein":        {unsplash("photo-1569718212165-3a8278d5f624")},
	"chow mein":      {unsplash("photo-1569718212165-3a8278d5f624")},
	"ramen":          {unsplash("photo-1569718212165-3a8278d5f624"), unsplash("photo-1557872943-16a5ac26437e")},
	"pho":            {unsplash("photo-1582878826629-29b7ad1cdc43")},
	"sushi":          {unsplash("photo-1579871494447-9811cf80d66c"), unsplash("photo-1553621042-f6e147245754")},
	"teriyaki":       {unsplash("photo-1609183480237-ccfa070f3193")},
	"dumpling":       {unsplash("photo-1496116218417-1a781b1c416c")},
	"curry":          {unsplash("photo-1585937421612-70a008356fbe"), unsplash("photo-1631452180519-c014fe946bc7")},
	"tikka masala":   {unsplash("photo-1565557623262-b51c2513a641")},
	"pad thai":       {unsplash("photo-1559314809-0d155014e29e")},
	"kung pao":       {unsplash("photo-1525755662778-989d0524087e")},
	"orange chicken": {unsplash("photo-1525755662778-989d0524087e")},
	"general tso":    {unsplash("photo-1525755662778-989d0524087e")},
	"sweet and sour": {unsplash("photo-1525755662778-989d0524087e")},
	"tacos":          {unsplash("photo-1565299585323-38d6b0865b47"), unsplash("photo-1551504734-5ee1c4a1479b")},
	"taco":           {unsplash("photo-1565299585323-38d6b0865b47")},
	"burrito":        {unsplash("photo-1626700051175-6818013e1d4f")},
	"enchilada":      {unsplash("photo-1534352956036-cd81e27dd615")},
	"quesadilla":     {unsplash("photo-1618040996337-56904b7850b9")},
	"fajita":         {unsplash("photo-1534352956036-cd81e27dd615")},
	"nachos":         {unsplash("photo-1513456852971-30c0b8199d4d")},
	"burger":         {unsplash("photo-1568901346375-23c9450c58cd"), unsplash("photo-1550547660-d9450f859349")},
	"hamburger":      {unsplash("photo-1568901346375-23c9450c58cd")},
	"pizza":          {unsplash("photo-1565299624946-b28f40a0ae38"), unsplash("photo-1574071318508-1cdbab80d002")},
	"sandwich":       {unsplash("photo-1528735602780-2552fd46c7af"), unsplash("photo-1553909489-cd47e0907980")},
	"hot dog":        {unsplash("photo-1612392062631-94f87f2f4de9")},
	"casserole":      {unsplash("photo-1619895092538-128341789043")},
	"pot pie":        {unsplash("photo-1621996346565-e3dbc646d9a9")},
	"meatloaf":       {unsplash("photo-1544025162-d76694265947")},
	"meatball":       {unsplash("photo-1529042410759-befb1204b468")},
	"soup":           {unsplash("photo-1547592166-23ac45744acd"), unsplash("photo-1603105037880-880cd4edfb0d")},
	"stew":           {unsplash("photo-1547592166-23ac45744acd")},
	"chili":          {unsplash("photo-1455619452474-d2be8b1e70cd")},
	"salad":          {unsplash("photo-1512621776951-a57141f2eefd"), unsplash("photo-1546793665-c74683f339c1")},
	"grilled":        {unsplash("photo-1555939594-58d7cb561ad1")},
	"grill":          {unsplash("photo-1555939594-58d7cb561ad1")},
	"bbq":            {unsplash("photo-1529193591184-b1d58069ecdd")},
	"barbecue":       {unsplash("photo-1529193591184-b1d58069ecdd")},
	"kebab":          {unsplash("photo-1603360946369-dc9bb6258143")},
	"skewer":         {unsplash("photo-1603360946369-dc9bb6258143")},
	"roasted":        {unsplash("photo-1544025162-d76694265947")},
	"roast":          {unsplash("photo-1544025162-d76694265947")},
	"baked":          {unsplash("photo-1598515214211-89d3c73ae83b")},
	"wrap":           {unsplash("photo-1626700051175-6818013e1d4f")},
	"bowl":           {unsplash("photo-1546069901-ba9599a7e63c"), unsplash("photo-1540189549336-e6e99c3679fe")},
	"fried chicken":  {unsplash("photo-1626645738196-c2a7c87a8f58"), unsplash("photo-1598515214211-89d3c73ae83b")},
	"wings":          {unsplash("photo-1608039755401-742074f0548d")},
	"chicken breast": {unsplash("photo-1598515214211-89d3c73ae83b"), unsplash("photo-1604908176997-125f25cc6f3d")},
	"pork chop":      {unsplash("photo-1432139555190-58524dae6a55")},
	"tenderloin":     {unsplash("photo-1544025162-d76694265947"), unsplash("photo-1606728035253-49e8a23146de")},
	"ribs":           {unsplash("photo-1529193591184-b1d58069ecdd")},
	"pulled pork":    {unsplash("photo-1529193591184-b1d58069ecdd")},
	"paella":         {unsplash("photo-1534080564583-6be75777b70a")},
	"jambalaya":      {unsplash("photo-1534080564583-6be75777b70a")},
	"gumbo":          {unsplash("photo-1547592166-23ac45744acd")},
	"spring roll":    {unsplash("photo-1496116218417-1a781b1c416c")},
	"egg roll":       {unsplash("photo-1496116218417-1a781b1c416c")},
	"tempura":        {unsplash("photo-1581781870027-04212e231e96")},
	"udon":           {unsplash("photo-1569718212165-3a8278d5f624")},
	"soba":           {unsplash("photo-1569718212165-3a8278d5f624")},
	"vegetable":      {unsplash("photo-1512621776951-a57141f2eefd")},
	"vegetarian":     {unsplash("photo-1512621776951-a57141f2eefd")},
	"vegan":          {unsplash("photo-1512621776951-a57141f2eefd")},
	"quinoa":         {unsplash("photo-1546069901-ba9599a7e63c")},
	"lentil":         {unsplash("photo-1546069901-ba9599a7e63c")},
	"chickpea":       {unsplash("photo-1546069901-ba9599a7e63c")},
	"falafel":        {unsplash("photo-1540189549336-e6e99c3679fe")},
}

// 次優先：料理風格與常見修飾詞
var specificDishImages = map[string]string{
	"honey garlic":   unsplash("photo-1598515214211-89d3c73ae83b"),
	"lemon herb":     unsplash("photo-1598515214211-89d3c73ae83b"),
	"parmesan":       unsplash("photo-1595295333158-4742f28fbd85"),
	"creamy":         unsplash("photo-1645112411341-6c4fd023714a"),
	"crispy":         unsplash("photo-1598515214211-89d3c73ae83b"),
	"glazed":         unsplash("photo-1598515214211-89d3c73ae83b"),
	"braised":        unsplash("photo-1544025162-d76694265947"),
	"pan seared":     unsplash("photo-1467003909585-2f8a72700288"),
	"sheet pan":      unsplash("photo-1598515214211-89d3c73ae83b"),
	"one pot":        unsplash("photo-1547592166-23ac45744acd"),
	"slow cooker":    unsplash("photo-1547592166-23ac45744acd"),
	"air fryer":      unsplash("photo-1598515214211-89d3c73ae83b"),
	"balsamic":       unsplash("photo-1544025162-d76694265947"),
	"mediterranean":  unsplash("photo-1540189549336-e6e99c3679fe"),
	"greek":          unsplash("photo-1540189549336-e6e99c3679fe"),
	"tuscan":         unsplash("photo-1598515214211-89d3c73ae83b"),
	"cajun":          unsplash("photo-1529193591184-b1d58069ecdd"),
	"buffalo":        unsplash("photo-1598515214211-89d3c73ae83b"),
	"marinara":       unsplash("photo-1595295333158-4742f28fbd85"),
	"pesto":          unsplash("photo-1621996346565-e3dbc646d9a9"),
	"piccata":        unsplash("photo-1598515214211-89d3c73ae83b"),
	"marsala":        unsplash("photo-1598515214211-89d3c73ae83b"),
	"stroganoff":     unsplash("photo-1547592166-23ac45744acd"),
	"gyro":           unsplash("photo-1540189549336-e6e99c3679fe"),
	"shawarma":       unsplash("photo-1540189549336-e6e99c3679fe"),
	"biryani":        unsplash("photo-1585937421612-70a008356fbe"),
	"butter chicken": unsplash("photo-1565557623262-b51c2513a641"),
	"tandoori":       unsplash("photo-1565557623262-b51c2513a641"),
	"sesame":         unsplash("photo-1525755662778-989d0524087e"),
	"szechuan":       unsplash("photo-1525755662778-989d0524087e"),
	"katsu":          unsplash("photo-1598515214211-89d3c73ae83b"),
	"bulgogi":        unsplash("photo-1590301157890-4810ed352733"),
	"bibimbap":       unsplash("photo-1590301157890-4810ed352733"),
	"kimchi":         unsplash("photo-1590301157890-4810ed352733"),
	"carnitas":       unsplash("photo-1551504734-5ee1c4a1479b"),
	"al pastor":      unsplash("photo-1551504734-5ee1c4a1479b"),
	"carne":          unsplash("photo-1551504734-5ee1c4a1479b"),
	"mole":           unsplash("photo-1534352956036-cd81e27dd615"),
}

// 第三優先：主要蛋白質，依固定順序比對
var proteinOrder = []string{
	"chicken", "beef", "steak", "pork", "fish",
	"salmon", "shrimp", "turkey", "lamb", "tofu",
}

var proteinImages = map[string][]string{
	"chicken": {unsplash("photo-1598103442097-8b74394b95c6"), unsplash("photo-1604908176997-125f25cc6f3d"), unsplash("photo-1632778149955-e80f8ceca2e8")},
	"beef":    {unsplash("photo-1546833999-b9f581a1996d"), unsplash("photo-1588168333986-5078d3ae3976")},
	"steak":   {unsplash("photo-1600891964092-4316c288032e"), unsplash("photo-1558030006-450675393462")},
	"pork":    {unsplash("photo-1432139555190-58524dae6a55"), unsplash("photo-1529692236671-f1f6cf9683ba")},
	"fish":    {unsplash("photo-1467003909585-2f8a72700288"), unsplash("photo-1519708227418-c8fd9a32b7a2")},
	"salmon":  {unsplash("photo-1467003909585-2f8a72700288"), unsplash("photo-1485921325833-c519f76c4927")},
	"shrimp":  {unsplash("photo-1565680018434-b513d5e5fd47"), unsplash("photo-1633504581786-316c8002b1b9")},
	"turkey":  {unsplash("photo-1574672280600-4accfa5b6f98")},
	"lamb":    {unsplash("photo-1514516345957-556ca7c90a29")},
	"tofu":    {unsplash("photo-1546069901-ba9599a7e63c")},
}

// 第四優先：菜系備援
var cuisineImages = map[string][]string{
	"Italian":       {unsplash("photo-1498579150354-977475b7ea0b"), unsplash("photo-1621996346565-e3dbc646d9a9"), unsplash("photo-1595295333158-4742f28fbd85")},
	"Mexican":       {unsplash("photo-1565299585323-38d6b0865b47"), unsplash("photo-1551504734-5ee1c4a1479b"), unsplash("photo-1599974579688-8dbdd335c77f")},
	"Chinese":       {unsplash("photo-1585032226651-759b368d7246"), unsplash("photo-1603133872878-684f208fb84b"), unsplash("photo-1569718212165-3a8278d5f624")},
	"Japanese":      {unsplash("photo-1580822184713-fc5400e7fe10"), unsplash("photo-1579871494447-9811cf80d66c"), unsplash("photo-1617196034796-73dfa7b1fd56")},
	"Indian":        {unsplash("photo-1585937421612-70a008356fbe"), unsplash("photo-1631452180519-c014fe946bc7"), unsplash("photo-1596797038530-2c107229654b")},
	"Thai":          {unsplash("photo-1559314809-0d155014e29e"), unsplash("photo-1562565652-a0d8f0c59eb4")},
	"Mediterranean": {unsplash("photo-1544025162-d76694265947"), unsplash("photo-1540189549336-e6e99c3679fe")},
	"American":      {unsplash("photo-1550547660-d9450f859349"), unsplash("photo-1568901346375-23c9450c58cd"), unsplash("photo-1555939594-58d7cb561ad1")},
	"French":        {unsplash("photo-1414235077428-338989a2e8c0"), unsplash("photo-1600891964092-4316c288032e")},
	"Korean":        {unsplash("photo-1590301157890-4810ed352733"), unsplash("photo-1498654896293-37aacf113fd9")},
	"Greek":         {unsplash("photo-1540189549336-e6e99c3679fe")},
	"Asian":         {unsplash("photo-1603133872878-684f208fb84b"), unsplash("photo-1569718212165-3a8278d5f624")},
}

// 通用備援
var fallbackImages = []string{
	unsplash("photo-1546069901-ba9599a7e63c"),
	unsplash("photo-1540189549336-e6e99c3679fe"),
	unsplash("photo-1567620905732-2d1ec7ab7445"),
	unsplash("photo-1565299624946-b28f40a0ae38"),
	unsplash("photo-1504674900247-0877df9cc836"),
	unsplash("photo-1555939594-58d7cb561ad1"),
	unsplash("photo-1473093295043-cdd812d0e601"),
	unsplash("photo-1476124369491-e7addf5db371"),
	unsplash("photo-1547592166-23ac45744acd"),
	unsplash("photo-1512621776951-a57141f2eefd"),
}
