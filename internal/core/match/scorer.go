package match

import (
	"fmt"
	"strings"

	"meal-planner/internal/pkg/common"
)

// RecipeInput 評分所需的食譜文字欄位
type RecipeInput struct {
	Title       string
	Cuisine     string
	Description string
	Ingredients []string
}

// Result 單一成員的評分結果
type Result struct {
	Score  int
	Reason string
}

// 計分常數
const (
	baseScore         = 50
	cuisineBonus      = 30
	favoriteDishBonus = 25
	favoriteMeatBonus = 20
	favoriteVegBonus  = 15
	likedBonus        = 10
	likedBonusCap     = 3
	willingBonus      = 5

	violationBase = 15
	violationStep = 5

	neutralReason = "General match to preferences"
)

// dietRule 飲食限制對應的禁用食材關鍵字
type dietRule struct {
	name     string
	keywords []string
}

// 依序比對，第一條命中的規則生效；比對不到的飲食字串視為無法解析的自由文字，不產生任何限制
var dietRules = []dietRule{
	{"vegan", []string{
		"beef", "pork", "chicken", "turkey", "lamb", "fish", "salmon", "tuna",
		"shrimp", "bacon", "ham", "sausage", "meat", "steak", "anchovy",
		"egg", "eggs", "dairy", "cheese", "milk", "butter", "cream", "yogurt", "honey",
	}},
	{"vegetarian", []string{
		"beef", "pork", "chicken", "turkey", "lamb", "fish", "salmon", "tuna",
		"shrimp", "bacon", "ham", "sausage", "meat", "steak", "anchovy", "prosciutto",
	}},
	{"pescatarian", []string{
		"beef", "pork", "chicken", "turkey", "lamb", "bacon", "ham", "sausage", "steak",
	}},
	{"no red meat", []string{
		"beef", "pork", "lamb", "steak", "bacon", "ham", "sausage", "prosciutto",
	}},
	{"no pork", []string{
		"pork", "bacon", "ham", "sausage", "prosciutto",
	}},
	{"no chicken", []string{
		"chicken",
	}},
	{"gluten free", []string{
		"wheat", "flour", "bread", "breadcrumbs", "pasta", "noodles",
		"soy sauce", "tortilla", "couscous", "barley",
	}},
	{"dairy free", []string{
		"milk", "cheese", "butter", "cream", "yogurt", "parmesan", "mozzarella",
	}},
}

// Scorer 決定性的喜好評分器，對相同輸入永遠給出相同分數
type Scorer struct {
	matcher Matcher
}

// NewScorer 創建評分器，matcher 為 nil 時使用預設的整詞比對策略
func NewScorer(matcher Matcher) *Scorer {
	if matcher == nil {
		matcher = NewWordBoundaryMatcher()
	}
	return &Scorer{matcher: matcher}
}

// Score 計算 (食譜, 成員偏好) 的 0~100 相容分數與原因
// 過敏 > 飲食限制/不喜歡 > 加分項，前面的條件成立就不再往下看
func (s *Scorer) Score(recipe RecipeInput, member common.FamilyPreferences) Result {
	text := s.recipeText(recipe)

	// 過敏是絕對否決，直接 0 分
	for _, allergy := range member.Allergies {
		if s.matcher.Matches(allergy, text) {
			return Result{
				Score:  0,
				Reason: fmt.Sprintf("Contains allergen: %s", allergy),
			}
		}
	}

	var violationReasons []string

	// 飲食限制：每個被違反的限制算一個違規，重複填寫的同一條規則只算一次
	seenRules := make(map[string]struct{})
	for _, diet := range member.Diets {
		rule := lookupDietRule(diet)
		if rule == nil {
			continue
		}
		if _, ok := seenRules[rule.name]; ok {
			continue
		}
		seenRules[rule.name] = struct{}{}
		for _, keyword := range rule.keywords {
			if s.matcher.Matches(keyword, text) {
				violationReasons = append(violationReasons,
					fmt.Sprintf("Violates dietary restriction: %s", diet))
				break
			}
		}
	}

	// 不喜歡的食材：每個相異的命中算一個違規
	seenDislikes := make(map[string]struct{})
	for _, dislike := range member.Dislikes {
		key := strings.ToLower(strings.TrimSpace(dislike))
		if _, ok := seenDislikes[key]; ok {
			continue
		}
		seenDislikes[key] = struct{}{}
		if s.matcher.Matches(dislike, text) {
			violationReasons = append(violationReasons,
				fmt.Sprintf("Contains disliked: %s", dislike))
		}
	}

	positiveReasons := s.positiveReasons(recipe, member, text)

	if v := len(violationReasons); v >= 1 {
		score := violationBase - (v-1)*violationStep
		if score < 0 {
			score = 0
		}
		// 違規時加分項只留原因不加分
		reasons := violationReasons
		if len(positiveReasons) > 0 {
			reasons = append(reasons, positiveReasons[0])
		}
		return Result{Score: score, Reason: strings.Join(reasons, "; ")}
	}

	// 無違規：從基礎分開始累加，每個類別最多算一次
	score := baseScore
	score += s.positiveBonus(recipe, member, text)
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	reason := neutralReason
	if len(positiveReasons) > 0 {
		limit := 2
		if len(positiveReasons) < limit {
			limit = len(positiveReasons)
		}
		reason = strings.Join(positiveReasons[:limit], "; ")
	}

	return Result{Score: score, Reason: reason}
}

// recipeText 組出比對用的食譜全文
func (s *Scorer) recipeText(recipe RecipeInput) string {
	parts := []string{recipe.Title, recipe.Description, recipe.Cuisine}
	parts = append(parts, recipe.Ingredients...)
	return strings.ToLower(strings.Join(parts, " "))
}

// positiveBonus 累計加分，每類只算一次、喜歡的食材最多三筆
func (s *Scorer) positiveBonus(recipe RecipeInput, member common.FamilyPreferences, text string) int {
	bonus := 0

	if s.cuisineMatches(recipe.Cuisine, member.Cuisines) {
		bonus += cuisineBonus
	}
	if s.anyMatches(member.FavoriteDishes, text) {
		bonus += favoriteDishBonus
	}
	if s.anyMatches(member.FavoriteMeats, text) {
		bonus += favoriteMeatBonus
	}
	if s.anyMatches(member.FavoriteVeggies, text) {
		bonus += favoriteVegBonus
	}
	if liked := s.countMatches(member.Likes, text, likedBonusCap); liked > 0 {
		bonus += liked * likedBonus
	}
	if s.anyMatches(member.WillingToTry, text) {
		bonus += willingBonus
	}

	return bonus
}

// positiveReasons 依優先順序列出命中的加分原因
func (s *Scorer) positiveReasons(recipe RecipeInput, member common.FamilyPreferences, text string) []string {
	var reasons []string

	if s.cuisineMatches(recipe.Cuisine, member.Cuisines) {
		reasons = append(reasons, "matches favorite cuisine")
	}
	if s.anyMatches(member.FavoriteDishes, text) {
		reasons = append(reasons, "similar to favorite dish")
	}
	if s.anyMatches(member.FavoriteMeats, text) {
		reasons = append(reasons, "contains preferred protein")
	}
	if s.anyMatches(member.FavoriteVeggies, text) {
		reasons = append(reasons, "contains preferred vegetable")
	}
	if s.anyMatches(member.Likes, text) {
		reasons = append(reasons, "includes liked ingredient")
	}
	if s.anyMatches(member.WillingToTry, text) {
		reasons = append(reasons, "something new they're willing to try")
	}

	return reasons
}

// cuisineMatches 菜系走不分大小寫的完全比對，不做模糊比對
func (s *Scorer) cuisineMatches(cuisine string, preferred []string) bool {
	cuisine = strings.TrimSpace(cuisine)
	if cuisine == "" {
		return false
	}
	for _, c := range preferred {
		if strings.EqualFold(strings.TrimSpace(c), cuisine) {
			return true
		}
	}
	return false
}

func (s *Scorer) anyMatches(terms []string, text string) bool {
	for _, term := range terms {
		if s.matcher.Matches(term, text) {
			return true
		}
	}
	return false
}

func (s *Scorer) countMatches(terms []string, text string, limit int) int {
	count := 0
	for _, term := range terms {
		if s.matcher.Matches(term, text) {
			count++
			if count >= limit {
				break
			}
		}
	}
	return count
}

// lookupDietRule 以正規化後的子字串比對找出飲食限制規則
func lookupDietRule(diet string) *dietRule {
	normalized := strings.ToLower(strings.TrimSpace(diet))
	normalized = strings.ReplaceAll(normalized, "-", " ")
	for i := range dietRules {
		if strings.Contains(normalized, dietRules[i].name) {
			return &dietRules[i]
		}
	}
	return nil
}
