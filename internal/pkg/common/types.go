package common

// FamilyPreferences 單一家庭成員的結構化偏好
// 每次評分或組 prompt 前都從資料庫的偏好列重新組出，不做快取
type FamilyPreferences struct {
	MemberID   string `json:"member_id"`
	MemberName string `json:"member_name"`

	Likes           []string `json:"likes"`
	Dislikes        []string `json:"dislikes"`
	Allergies       []string `json:"allergies"`
	Diets           []string `json:"diets"`
	Cuisines        []string `json:"cuisines"`
	FavoriteDishes  []string `json:"favorite_dishes"`
	FavoriteMeats   []string `json:"favorite_meats"`
	FavoriteVeggies []string `json:"favorite_veggies"`
	WillingToTry    []string `json:"willing_to_try"`
	Notes           []string `json:"notes"`
}

// 偏好分類的標籤值，對應資料庫 Preference.Category
const (
	CategoryLike           = "like"
	CategoryDislike        = "dislike"
	CategoryAllergy        = "allergy"
	CategoryDiet           = "diet"
	CategoryCuisine        = "cuisine"
	CategoryFavoriteDish   = "favorite_dish"
	CategoryFavoriteMeat   = "favorite_meat"
	CategoryFavoriteVeggie = "favorite_veggie"
	CategoryWillingToTry   = "willing_to_try"
	CategoryNote           = "note"
)

// NutritionInfo 營養資訊，僅作展示用途不保證準確
type NutritionInfo struct {
	Calories int    `json:"calories"`
	Protein  string `json:"protein"`
	Carbs    string `json:"carbs"`
	Fat      string `json:"fat"`
}

// FamilyMatch 單一成員對某食譜的預估喜好
type FamilyMatch struct {
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// RecipeCandidate 解析模型回應後、尚未入庫的食譜
type RecipeCandidate struct {
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Cuisine         string        `json:"cuisine"`
	PrepTime        int           `json:"prepTime"`
	CookTime        int           `json:"cookTime"`
	Servings        int           `json:"servings"`
	Difficulty      string        `json:"difficulty"`
	Ingredients     []string      `json:"ingredients"`
	Instructions    []string      `json:"instructions"`
	Tips            []string      `json:"tips"`
	Nutrition       NutritionInfo `json:"nutrition"`
	ImageSearchTerm string        `json:"imageSearchTerm"`
	FamilyMatch     []FamilyMatch `json:"familyMatch"`
}

// RatingInfo 過往評分摘要，組 prompt 時的學習訊號
type RatingInfo struct {
	RecipeTitle  string  `json:"recipe_title"`
	AverageScore float64 `json:"average_score"`
	RatingCount  int     `json:"rating_count"`
}

// 難度等級
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// DefaultNutrition 解析時填補缺漏欄位用的中性預設值
func DefaultNutrition() NutritionInfo {
	return NutritionInfo{
		Calories: 400,
		Protein:  "25g",
		Carbs:    "35g",
		Fat:      "15g",
	}
}
