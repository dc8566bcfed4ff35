package store

import (
	"time"

	"meal-planner/internal/pkg/common"
)

// API 回應用的讀取視圖。JSON 文字欄位在這裡解開，
// 壞掉的欄位以空值呈現，不會讓整筆食譜消失

// MemberView 家庭成員與其偏好
type MemberView struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Preferences []PreferenceView `json:"preferences"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// PreferenceView 單筆偏好
type PreferenceView struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Value    string `json:"value"`
}

// RecipeView 食譜完整內容
type RecipeView struct {
	ID           string               `json:"id"`
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	Cuisine      string               `json:"cuisine"`
	PrepTime     int                  `json:"prepTime"`
	CookTime     int                  `json:"cookTime"`
	Servings     int                  `json:"servings"`
	Difficulty   string               `json:"difficulty"`
	Ingredients  []string             `json:"ingredients"`
	Instructions []string             `json:"instructions"`
	Tips         []string             `json:"tips"`
	Nutrition    common.NutritionInfo `json:"nutrition"`
	FamilyMatch  []common.FamilyMatch `json:"familyMatch"`
	ImageURL     string               `json:"imageUrl"`
	CreatedAt    time.Time            `json:"createdAt"`
}

// RatingView 單筆評分
type RatingView struct {
	ID             string    `json:"id"`
	RecipeID       string    `json:"recipeId"`
	FamilyMemberID string    `json:"familyMemberId"`
	Score          int       `json:"score"`
	Comment        string    `json:"comment,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// MealPlanEntryView 計畫內的一餐
type MealPlanEntryView struct {
	DayOfWeek int        `json:"dayOfWeek"`
	MealType  string     `json:"mealType"`
	Recipe    RecipeView `json:"recipe"`
}

// MealPlanView 一週晚餐計畫
type MealPlanView struct {
	ID        string              `json:"id"`
	WeekStart time.Time           `json:"weekStart"`
	Entries   []MealPlanEntryView `json:"entries"`
	CreatedAt time.Time           `json:"createdAt"`
}

func memberView(m FamilyMemberModel) MemberView {
	prefs := make([]PreferenceView, 0, len(m.Preferences))
	for _, p := range m.Preferences {
		prefs = append(prefs, PreferenceView{
			ID:       p.ID,
			Category: p.Category,
			Value:    p.Value,
		})
	}
	return MemberView{
		ID:          m.ID,
		Name:        m.Name,
		Preferences: prefs,
		CreatedAt:   m.CreatedAt,
	}
}

func recipeView(r RecipeModel) RecipeView {
	return RecipeView{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		Cuisine:      r.Cuisine,
		PrepTime:     r.PrepTime,
		CookTime:     r.CookTime,
		Servings:     r.Servings,
		Difficulty:   r.Difficulty,
		Ingredients:  decodeStrings(r.Ingredients),
		Instructions: decodeStrings(r.Instructions),
		Tips:         decodeStrings(r.Tips),
		Nutrition:    decodeNutrition(r.Nutrition),
		FamilyMatch:  decodeFamilyMatch(r.FamilyMatch),
		ImageURL:     r.ImageURL,
		CreatedAt:    r.CreatedAt,
	}
}

func ratingView(r RatingModel) RatingView {
	return RatingView{
		ID:             r.ID,
		RecipeID:       r.RecipeID,
		FamilyMemberID: r.FamilyMemberID,
		Score:          r.Score,
		Comment:        r.Comment,
		CreatedAt:      r.CreatedAt,
	}
}
