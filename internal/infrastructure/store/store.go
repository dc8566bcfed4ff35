package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"meal-planner/internal/core/family"
	"meal-planner/internal/core/generation"
	"meal-planner/internal/core/match"
	"meal-planner/internal/pkg/common"
)

// Store SQLite 持久層，實作 generation.Store 與 match.Store
type Store struct {
	db *gorm.DB
}

// New 建立持久層
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// ---- 家庭成員 ----

// CreateMember 新增家庭成員
func (s *Store) CreateMember(ctx context.Context, name string) (*MemberView, error) {
	model := FamilyMemberModel{Name: name}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, err
	}
	view := memberView(model)
	return &view, nil
}

// ListMembers 列出所有成員與偏好，依建立時間排序
func (s *Store) ListMembers(ctx context.Context) ([]MemberView, error) {
	var models []FamilyMemberModel
	err := s.db.WithContext(ctx).
		Preload("Preferences", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	views := make([]MemberView, 0, len(models))
	for _, m := range models {
		views = append(views, memberView(m))
	}
	return views, nil
}

// GetMember 查單一成員
func (s *Store) GetMember(ctx context.Context, id string) (*MemberView, error) {
	var model FamilyMemberModel
	err := s.db.WithContext(ctx).
		Preload("Preferences", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	view := memberView(model)
	return &view, nil
}

// UpdateMemberName 改名
func (s *Store) UpdateMemberName(ctx context.Context, id, name string) (*MemberView, error) {
	result := s.db.WithContext(ctx).
		Model(&FamilyMemberModel{}).
		Where("id = ?", id).
		Update("name", name)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, common.ErrNotFound
	}
	return s.GetMember(ctx, id)
}

// DeleteMember 刪除成員，偏好跟著 CASCADE 掉
func (s *Store) DeleteMember(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&FamilyMemberModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return common.ErrNotFound
		}
		// SQLite 不一定開外鍵，手動清掉
		return tx.Delete(&PreferenceModel{}, "family_member_id = ?", id).Error
	})
}

// ---- 偏好 ----

// ReplacePreferences 整組換掉成員的偏好，單一交易內先刪後插
func (s *Store) ReplacePreferences(ctx context.Context, memberID string, rows []family.TaggedPreference) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&FamilyMemberModel{}).Where("id = ?", memberID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return common.ErrNotFound
		}

		if err := tx.Delete(&PreferenceModel{}, "family_member_id = ?", memberID).Error; err != nil {
			return err
		}

		// 逐筆插入，created_at 遞增確保讀回來的順序和送進來的一樣
		base := time.Now()
		for i, row := range rows {
			pref := PreferenceModel{
				FamilyMemberID: memberID,
				Category:       row.Category,
				Value:          row.Value,
				CreatedAt:      base.Add(time.Duration(i) * time.Microsecond),
			}
			if err := tx.Create(&pref).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListFamilyPreferences 所有成員的結構化偏好，組 prompt 與評分共用
func (s *Store) ListFamilyPreferences(ctx context.Context) ([]common.FamilyPreferences, error) {
	members, err := s.ListMembers(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]common.FamilyPreferences, 0, len(members))
	for _, m := range members {
		rows := make([]family.TaggedPreference, 0, len(m.Preferences))
		for _, p := range m.Preferences {
			rows = append(rows, family.TaggedPreference{Category: p.Category, Value: p.Value})
		}
		out = append(out, family.BuildPreferences(m.ID, m.Name, rows))
	}
	return out, nil
}

// ---- 食譜 ----

// ListRecipes 所有食譜，新的在前
func (s *Store) ListRecipes(ctx context.Context) ([]RecipeView, error) {
	var models []RecipeModel
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}

	views := make([]RecipeView, 0, len(models))
	for _, m := range models {
		views = append(views, recipeView(m))
	}
	return views, nil
}

// GetRecipe 查單一食譜
func (s *Store) GetRecipe(ctx context.Context, id string) (*RecipeView, error) {
	var model RecipeModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	view := recipeView(model)
	return &view, nil
}

// DeleteRecipe 刪除食譜與其評分、計畫連結
func (s *Store) DeleteRecipe(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&RecipeModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return common.ErrNotFound
		}
		if err := tx.Delete(&RatingModel{}, "recipe_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&MealPlanRecipeModel{}, "recipe_id = ?", id).Error
	})
}

// ClearHistory 清掉所有餐點計畫與其食譜連結，食譜和評分留著
func (s *Store) ClearHistory(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&MealPlanRecipeModel{}).Error; err != nil {
			return err
		}
		return tx.Where("1 = 1").Delete(&MealPlanModel{}).Error
	})
}

// ClearRecipes 清掉所有食譜、評分和餐點計畫，成員和偏好留著
func (s *Store) ClearRecipes(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&MealPlanRecipeModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&MealPlanModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&RatingModel{}).Error; err != nil {
			return err
		}
		return tx.Where("1 = 1").Delete(&RecipeModel{}).Error
	})
}

// SaveGeneratedRecipe 生成流程的食譜入庫
func (s *Store) SaveGeneratedRecipe(ctx context.Context, c common.RecipeCandidate, imageURL, promptUsed string) (string, error) {
	model := RecipeModel{
		Title:        c.Title,
		Description:  c.Description,
		Cuisine:      c.Cuisine,
		PrepTime:     c.PrepTime,
		CookTime:     c.CookTime,
		Servings:     c.Servings,
		Difficulty:   c.Difficulty,
		Ingredients:  encodeStrings(c.Ingredients),
		Instructions: encodeStrings(c.Instructions),
		Tips:         encodeStrings(c.Tips),
		Nutrition:    encodeNutrition(c.Nutrition),
		FamilyMatch:  encodeFamilyMatch(c.FamilyMatch),
		ImageURL:     imageURL,
		AIPromptUsed: promptUsed,
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return "", err
	}
	return model.ID, nil
}

// ---- 重算分數(match.Store) ----

// ListRecipesForScoring 重算分數用的精簡食譜
func (s *Store) ListRecipesForScoring(ctx context.Context) ([]match.StoredRecipe, error) {
	var models []RecipeModel
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]match.StoredRecipe, 0, len(models))
	for _, m := range models {
		out = append(out, storedRecipe(m))
	}
	return out, nil
}

// GetRecipeForScoring 查單一食譜的評分輸入
func (s *Store) GetRecipeForScoring(ctx context.Context, id string) (*match.StoredRecipe, error) {
	var model RecipeModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	r := storedRecipe(model)
	return &r, nil
}

// UpdateRecipeFamilyMatch 覆寫食譜的喜好評分
func (s *Store) UpdateRecipeFamilyMatch(ctx context.Context, id string, fm []common.FamilyMatch) error {
	result := s.db.WithContext(ctx).
		Model(&RecipeModel{}).
		Where("id = ?", id).
		Update("family_match", encodeFamilyMatch(fm))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func storedRecipe(m RecipeModel) match.StoredRecipe {
	return match.StoredRecipe{
		ID:          m.ID,
		Title:       m.Title,
		Cuisine:     m.Cuisine,
		Description: m.Description,
		Ingredients: decodeStrings(m.Ingredients),
	}
}

// ---- 評分 ----

// AddRating 新增評分
func (s *Store) AddRating(ctx context.Context, recipeID, memberID string, score int, comment string) (*RatingView, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&RecipeModel{}).Where("id = ?", recipeID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, common.ErrNotFound
	}

	model := RatingModel{
		RecipeID:       recipeID,
		FamilyMemberID: memberID,
		Score:          score,
		Comment:        comment,
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, err
	}
	view := ratingView(model)
	return &view, nil
}

// ListRatings 某食譜的所有評分
func (s *Store) ListRatings(ctx context.Context, recipeID string) ([]RatingView, error) {
	var models []RatingModel
	err := s.db.WithContext(ctx).
		Where("recipe_id = ?", recipeID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	views := make([]RatingView, 0, len(models))
	for _, m := range models {
		views = append(views, ratingView(m))
	}
	return views, nil
}

// RecipeRatingSummaries 每道食譜的平均分與評分數，沒被評過的不列
func (s *Store) RecipeRatingSummaries(ctx context.Context) ([]common.RatingInfo, error) {
	var rows []struct {
		Title        string
		AverageScore float64
		RatingCount  int
	}
	err := s.db.WithContext(ctx).
		Model(&RatingModel{}).
		Select("recipes.title AS title, AVG(ratings.score) AS average_score, COUNT(ratings.id) AS rating_count").
		Joins("JOIN recipes ON recipes.id = ratings.recipe_id").
		Group("recipes.id, recipes.title").
		Order("recipes.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]common.RatingInfo, 0, len(rows))
	for _, row := range rows {
		out = append(out, common.RatingInfo{
			RecipeTitle:  row.Title,
			AverageScore: row.AverageScore,
			RatingCount:  row.RatingCount,
		})
	}
	return out, nil
}

// ---- 餐點計畫 ----

// CreateMealPlan 建立計畫，食譜依序排進一週的天數
func (s *Store) CreateMealPlan(ctx context.Context, weekStart time.Time, recipeIDs []string) (string, error) {
	plan := MealPlanModel{WeekStart: weekStart}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&plan).Error; err != nil {
			return err
		}
		for i, recipeID := range recipeIDs {
			entry := MealPlanRecipeModel{
				MealPlanID: plan.ID,
				RecipeID:   recipeID,
				DayOfWeek:  i,
				MealType:   "dinner",
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return plan.ID, nil
}

// ListMealPlans 所有計畫，新的在前
func (s *Store) ListMealPlans(ctx context.Context) ([]MealPlanView, error) {
	var models []MealPlanModel
	err := s.db.WithContext(ctx).
		Preload("Recipes", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_of_week ASC")
		}).
		Preload("Recipes.Recipe").
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	views := make([]MealPlanView, 0, len(models))
	for _, m := range models {
		views = append(views, mealPlanView(m))
	}
	return views, nil
}

// GetMealPlan 查單一計畫
func (s *Store) GetMealPlan(ctx context.Context, id string) (*MealPlanView, error) {
	var model MealPlanModel
	err := s.db.WithContext(ctx).
		Preload("Recipes", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_of_week ASC")
		}).
		Preload("Recipes.Recipe").
		First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	view := mealPlanView(model)
	return &view, nil
}

// LatestMealPlan 最新一份計畫，一份都沒有時回 ErrNotFound
func (s *Store) LatestMealPlan(ctx context.Context) (*MealPlanView, error) {
	var model MealPlanModel
	err := s.db.WithContext(ctx).
		Preload("Recipes", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_of_week ASC")
		}).
		Preload("Recipes.Recipe").
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	view := mealPlanView(model)
	return &view, nil
}

// DeleteMealPlan 刪除計畫與其食譜連結，食譜本身留著
func (s *Store) DeleteMealPlan(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&MealPlanModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return common.ErrNotFound
		}
		return tx.Delete(&MealPlanRecipeModel{}, "meal_plan_id = ?", id).Error
	})
}

// RecentPlanTitles 最近幾份計畫內的所有食譜標題，避免重複生成
func (s *Store) RecentPlanTitles(ctx context.Context, planCount int) ([]string, error) {
	var plans []MealPlanModel
	err := s.db.WithContext(ctx).
		Preload("Recipes", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_of_week ASC")
		}).
		Preload("Recipes.Recipe").
		Order("created_at DESC").
		Limit(planCount).
		Find(&plans).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	titles := []string{}
	for _, plan := range plans {
		for _, entry := range plan.Recipes {
			if entry.Recipe == nil {
				continue
			}
			if _, ok := seen[entry.Recipe.Title]; ok {
				continue
			}
			seen[entry.Recipe.Title] = struct{}{}
			titles = append(titles, entry.Recipe.Title)
		}
	}
	return titles, nil
}

func mealPlanView(m MealPlanModel) MealPlanView {
	entries := make([]MealPlanEntryView, 0, len(m.Recipes))
	for _, entry := range m.Recipes {
		view := MealPlanEntryView{
			DayOfWeek: entry.DayOfWeek,
			MealType:  entry.MealType,
		}
		if entry.Recipe != nil {
			view.Recipe = recipeView(*entry.Recipe)
		}
		entries = append(entries, view)
	}
	return MealPlanView{
		ID:        m.ID,
		WeekStart: m.WeekStart,
		Entries:   entries,
		CreatedAt: m.CreatedAt,
	}
}

// ---- 生成任務 ----

// ClaimJob 單一交易內檢查現役任務，有就回傳、沒有就建新的 pending
// 併發呼叫只會有一個拿到新任務
func (s *Store) ClaimJob(ctx context.Context, totalSteps int) (*generation.Job, bool, error) {
	var claimed GenerationJobModel
	var existing bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active GenerationJobModel
		err := tx.
			Where("status IN ?", []string{generation.StatusPending, generation.StatusRunning}).
			Order("created_at DESC").
			First(&active).Error
		if err == nil {
			claimed = active
			existing = true
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		claimed = GenerationJobModel{
			Status:     generation.StatusPending,
			TotalSteps: totalSteps,
		}
		return tx.Create(&claimed).Error
	})
	if err != nil {
		return nil, false, err
	}

	job := jobFromModel(claimed)
	return &job, existing, nil
}

// GetJob 查任務
func (s *Store) GetJob(ctx context.Context, id string) (*generation.Job, error) {
	var model GenerationJobModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrJobNotFound
		}
		return nil, err
	}
	job := jobFromModel(model)
	return &job, nil
}

// CurrentJob 最新一筆還需要關注的任務，完成的不再是現役
func (s *Store) CurrentJob(ctx context.Context) (*generation.Job, error) {
	var model GenerationJobModel
	err := s.db.WithContext(ctx).
		Where("status IN ?", []string{generation.StatusPending, generation.StatusRunning, generation.StatusFailed}).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrJobNotFound
		}
		return nil, err
	}
	job := jobFromModel(model)
	return &job, nil
}

// UpdateJob 局部更新任務欄位
func (s *Store) UpdateJob(ctx context.Context, id string, update generation.JobUpdate) error {
	fields := map[string]interface{}{}
	if update.Status != nil {
		fields["status"] = *update.Status
	}
	if update.Step != nil {
		fields["step"] = *update.Step
	}
	if update.StepMessage != nil {
		fields["step_message"] = *update.StepMessage
	}
	if update.Error != nil {
		fields["error"] = *update.Error
	}
	if update.MealPlanID != nil {
		fields["meal_plan_id"] = *update.MealPlanID
	}
	if len(fields) == 0 {
		return nil
	}

	result := s.db.WithContext(ctx).
		Model(&GenerationJobModel{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrJobNotFound
	}
	return nil
}

func jobFromModel(m GenerationJobModel) generation.Job {
	return generation.Job{
		ID:          m.ID,
		Status:      m.Status,
		Step:        m.Step,
		StepMessage: m.StepMessage,
		TotalSteps:  m.TotalSteps,
		Error:       m.Error,
		MealPlanID:  m.MealPlanID,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
