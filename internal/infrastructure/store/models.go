package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FamilyMemberModel 家庭成員
type FamilyMemberModel struct {
	ID        string `gorm:"type:char(36);primaryKey" json:"id"`
	Name      string `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Preferences []PreferenceModel `gorm:"foreignKey:FamilyMemberID;constraint:OnDelete:CASCADE" json:"preferences,omitempty"`
}

func (FamilyMemberModel) TableName() string { return "family_members" }

func (m *FamilyMemberModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// PreferenceModel 成員的單筆標籤偏好（Category + 自由文字 Value）
type PreferenceModel struct {
	ID             string `gorm:"type:char(36);primaryKey" json:"id"`
	FamilyMemberID string `gorm:"type:char(36);not null;index" json:"family_member_id"`
	Category       string `gorm:"type:varchar(50);not null" json:"category"`
	Value          string `gorm:"type:varchar(255);not null" json:"value"`
	CreatedAt      time.Time `json:"created_at"`
}

func (PreferenceModel) TableName() string { return "preferences" }

func (p *PreferenceModel) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// RecipeModel 食譜
// Ingredients/Instructions/Tips/Nutrition/FamilyMatch 皆以 JSON 文字存放，
// 讀出時用 blob.go 的寬鬆解碼，解不開一律視為空值
type RecipeModel struct {
	ID          string `gorm:"type:char(36);primaryKey" json:"id"`
	Title       string `gorm:"type:varchar(255);not null;index" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Cuisine     string `gorm:"type:varchar(100)" json:"cuisine"`
	PrepTime    int    `gorm:"default:0" json:"prep_time"`
	CookTime    int    `gorm:"default:0" json:"cook_time"`
	Servings    int    `gorm:"default:0" json:"servings"`
	Difficulty  string `gorm:"type:varchar(20)" json:"difficulty"`

	Ingredients  string `gorm:"type:text" json:"ingredients"`
	Instructions string `gorm:"type:text" json:"instructions"`
	Tips         string `gorm:"type:text" json:"tips"`
	Nutrition    string `gorm:"type:text" json:"nutrition"`
	FamilyMatch  string `gorm:"type:text" json:"family_match"`

	ImageURL     string `gorm:"type:text" json:"image_url"`
	AIPromptUsed string `gorm:"type:text" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Ratings []RatingModel `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"ratings,omitempty"`
}

func (RecipeModel) TableName() string { return "recipes" }

func (r *RecipeModel) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// RatingModel 成員對食譜的評分（1~5 星）
type RatingModel struct {
	ID             string `gorm:"type:char(36);primaryKey" json:"id"`
	RecipeID       string `gorm:"type:char(36);not null;index" json:"recipe_id"`
	FamilyMemberID string `gorm:"type:char(36);not null;index" json:"family_member_id"`
	Score          int    `gorm:"not null" json:"score"`
	Comment        string `gorm:"type:text" json:"comment"`
	CreatedAt      time.Time `json:"created_at"`
}

func (RatingModel) TableName() string { return "ratings" }

func (r *RatingModel) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// MealPlanModel 一週晚餐計畫
type MealPlanModel struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	WeekStart time.Time `gorm:"index" json:"week_start"`
	CreatedAt time.Time `json:"created_at"`

	Recipes []MealPlanRecipeModel `gorm:"foreignKey:MealPlanID;constraint:OnDelete:CASCADE" json:"recipes,omitempty"`
}

func (MealPlanModel) TableName() string { return "meal_plans" }

func (m *MealPlanModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// MealPlanRecipeModel 計畫內的一餐，DayOfWeek 0~6，MealType 固定 dinner
type MealPlanRecipeModel struct {
	ID         string `gorm:"type:char(36);primaryKey" json:"id"`
	MealPlanID string `gorm:"type:char(36);not null;index" json:"meal_plan_id"`
	RecipeID   string `gorm:"type:char(36);not null;index" json:"recipe_id"`
	DayOfWeek  int    `gorm:"not null" json:"day_of_week"`
	MealType   string `gorm:"type:varchar(20);default:'dinner'" json:"meal_type"`

	Recipe *RecipeModel `gorm:"foreignKey:RecipeID" json:"recipe,omitempty"`
}

func (MealPlanRecipeModel) TableName() string { return "meal_plan_recipes" }

func (m *MealPlanRecipeModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// GenerationJobModel 背景生成任務
type GenerationJobModel struct {
	ID          string `gorm:"type:char(36);primaryKey" json:"id"`
	Status      string `gorm:"type:varchar(20);not null;index" json:"status"`
	Step        int    `gorm:"default:0" json:"step"`
	StepMessage string `gorm:"type:text" json:"step_message"`
	TotalSteps  int    `gorm:"default:9" json:"total_steps"`
	Error       string `gorm:"type:text" json:"error"`
	MealPlanID  string `gorm:"type:char(36)" json:"meal_plan_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (GenerationJobModel) TableName() string { return "generation_jobs" }

func (j *GenerationJobModel) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	return nil
}
