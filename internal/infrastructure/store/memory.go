package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"meal-planner/internal/core/family"
	"meal-planner/internal/core/generation"
	"meal-planner/internal/core/match"
	"meal-planner/internal/pkg/common"
)

// MemoryStore 記憶體版持久層，測試用
// 與 SQLite 版實作同一組介面，行為對齊
type MemoryStore struct {
	mu sync.Mutex

	members     []FamilyMemberModel
	preferences map[string][]PreferenceModel // memberID -> rows
	recipes     []RecipeModel
	ratings     []RatingModel
	plans       []MealPlanModel
	planEntries map[string][]MealPlanRecipeModel // planID -> entries
	jobs        []GenerationJobModel

	seq int
}

// NewMemoryStore 建立記憶體持久層
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		preferences: make(map[string][]PreferenceModel),
		planEntries: make(map[string][]MealPlanRecipeModel),
	}
}

func (s *MemoryStore) nextTime() time.Time {
	s.seq++
	return time.Now().Add(time.Duration(s.seq) * time.Microsecond)
}

// ---- 家庭成員 ----

func (s *MemoryStore) CreateMember(ctx context.Context, name string) (*MemberView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	model := FamilyMemberModel{
		ID:        common.GenerateUUID(),
		Name:      name,
		CreatedAt: s.nextTime(),
	}
	s.members = append(s.members, model)
	view := memberView(model)
	view.Preferences = []PreferenceView{}
	return &view, nil
}

func (s *MemoryStore) ListMembers(ctx context.Context) ([]MemberView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]MemberView, 0, len(s.members))
	for _, m := range s.members {
		m.Preferences = s.preferences[m.ID]
		views = append(views, memberView(m))
	}
	return views, nil
}

func (s *MemoryStore) GetMember(ctx context.Context, id string) (*MemberView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.members {
		if m.ID == id {
			m.Preferences = s.preferences[m.ID]
			view := memberView(m)
			return &view, nil
		}
	}
	return nil, common.ErrNotFound
}

func (s *MemoryStore) UpdateMemberName(ctx context.Context, id, name string) (*MemberView, error) {
	s.mu.Lock()
	for i := range s.members {
		if s.members[i].ID == id {
			s.members[i].Name = name
			s.mu.Unlock()
			return s.GetMember(ctx, id)
		}
	}
	s.mu.Unlock()
	return nil, common.ErrNotFound
}

func (s *MemoryStore) DeleteMember(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.members {
		if s.members[i].ID == id {
			s.members = append(s.members[:i], s.members[i+1:]...)
			delete(s.preferences, id)
			return nil
		}
	}
	return common.ErrNotFound
}

// ---- 偏好 ----

func (s *MemoryStore) ReplacePreferences(ctx context.Context, memberID string, rows []family.TaggedPreference) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for _, m := range s.members {
		if m.ID == memberID {
			found = true
			break
		}
	}
	if !found {
		return common.ErrNotFound
	}

	models := make([]PreferenceModel, 0, len(rows))
	for _, row := range rows {
		models = append(models, PreferenceModel{
			ID:             common.GenerateUUID(),
			FamilyMemberID: memberID,
			Category:       row.Category,
			Value:          row.Value,
			CreatedAt:      s.nextTime(),
		})
	}
	s.preferences[memberID] = models
	return nil
}

func (s *MemoryStore) ListFamilyPreferences(ctx context.Context) ([]common.FamilyPreferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]common.FamilyPreferences, 0, len(s.members))
	for _, m := range s.members {
		rows := make([]family.TaggedPreference, 0, len(s.preferences[m.ID]))
		for _, p := range s.preferences[m.ID] {
			rows = append(rows, family.TaggedPreference{Category: p.Category, Value: p.Value})
		}
		out = append(out, family.BuildPreferences(m.ID, m.Name, rows))
	}
	return out, nil
}

// ---- 食譜 ----

func (s *MemoryStore) ListRecipes(ctx context.Context) ([]RecipeView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	models := make([]RecipeModel, len(s.recipes))
	copy(models, s.recipes)
	sort.Slice(models, func(i, j int) bool {
		return models[i].CreatedAt.After(models[j].CreatedAt)
	})

	views := make([]RecipeView, 0, len(models))
	for _, m := range models {
		views = append(views, recipeView(m))
	}
	return views, nil
}

func (s *MemoryStore) GetRecipe(ctx context.Context, id string) (*RecipeView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.recipes {
		if m.ID == id {
			view := recipeView(m)
			return &view, nil
		}
	}
	return nil, common.ErrNotFound
}

func (s *MemoryStore) DeleteRecipe(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.recipes {
		if s.recipes[i].ID == id {
			s.recipes = append(s.recipes[:i], s.recipes[i+1:]...)
			kept := s.ratings[:0]
			for _, r := range s.ratings {
				if r.RecipeID != id {
					kept = append(kept, r)
				}
			}
			s.ratings = kept
			for planID, entries := range s.planEntries {
				filtered := entries[:0]
				for _, e := range entries {
					if e.RecipeID != id {
						filtered = append(filtered, e)
					}
				}
				s.planEntries[planID] = filtered
			}
			return nil
		}
	}
	return common.ErrNotFound
}

// ClearHistory 只清餐點計畫，食譜和評分留著
func (s *MemoryStore) ClearHistory(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.plans = nil
	s.planEntries = make(map[string][]MealPlanRecipeModel)
	return nil
}

// ClearRecipes 清掉所有食譜、評分和餐點計畫，成員和偏好留著
func (s *MemoryStore) ClearRecipes(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recipes = nil
	s.ratings = nil
	s.plans = nil
	s.planEntries = make(map[string][]MealPlanRecipeModel)
	return nil
}

func (s *MemoryStore) SaveGeneratedRecipe(ctx context.Context, c common.RecipeCandidate, imageURL, promptUsed string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	model := RecipeModel{
		ID:           common.GenerateUUID(),
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
		CreatedAt:    s.nextTime(),
	}
	s.recipes = append(s.recipes, model)
	return model.ID, nil
}

// ---- 重算分數(match.Store) ----

func (s *MemoryStore) ListRecipesForScoring(ctx context.Context) ([]match.StoredRecipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]match.StoredRecipe, 0, len(s.recipes))
	for _, m := range s.recipes {
		out = append(out, storedRecipe(m))
	}
	return out, nil
}

func (s *MemoryStore) GetRecipeForScoring(ctx context.Context, id string) (*match.StoredRecipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.recipes {
		if m.ID == id {
			r := storedRecipe(m)
			return &r, nil
		}
	}
	return nil, common.ErrNotFound
}

func (s *MemoryStore) UpdateRecipeFamilyMatch(ctx context.Context, id string, fm []common.FamilyMatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.recipes {
		if s.recipes[i].ID == id {
			s.recipes[i].FamilyMatch = encodeFamilyMatch(fm)
			return nil
		}
	}
	return common.ErrNotFound
}

// ---- 評分 ----

func (s *MemoryStore) AddRating(ctx context.Context, recipeID, memberID string, score int, comment string) (*RatingView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for _, r := range s.recipes {
		if r.ID == recipeID {
			found = true
			break
		}
	}
	if !found {
		return nil, common.ErrNotFound
	}

	model := RatingModel{
		ID:             common.GenerateUUID(),
		RecipeID:       recipeID,
		FamilyMemberID: memberID,
		Score:          score,
		Comment:        comment,
		CreatedAt:      s.nextTime(),
	}
	s.ratings = append(s.ratings, model)
	view := ratingView(model)
	return &view, nil
}

func (s *MemoryStore) ListRatings(ctx context.Context, recipeID string) ([]RatingView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := []RatingView{}
	for _, r := range s.ratings {
		if r.RecipeID == recipeID {
			views = append(views, ratingView(r))
		}
	}
	return views, nil
}

func (s *MemoryStore) RecipeRatingSummaries(ctx context.Context) ([]common.RatingInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type agg struct {
		title string
		sum   int
		count int
	}
	byRecipe := make(map[string]*agg)
	order := []string{}

	for _, recipe := range s.recipes {
		byRecipe[recipe.ID] = &agg{title: recipe.Title}
		order = append(order, recipe.ID)
	}
	for _, rating := range s.ratings {
		a, ok := byRecipe[rating.RecipeID]
		if !ok {
			continue
		}
		a.sum += rating.Score
		a.count++
	}

	out := []common.RatingInfo{}
	for _, id := range order {
		a := byRecipe[id]
		if a.count == 0 {
			continue
		}
		out = append(out, common.RatingInfo{
			RecipeTitle:  a.title,
			AverageScore: float64(a.sum) / float64(a.count),
			RatingCount:  a.count,
		})
	}
	return out, nil
}

// ---- 餐點計畫 ----

func (s *MemoryStore) CreateMealPlan(ctx context.Context, weekStart time.Time, recipeIDs []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan := MealPlanModel{
		ID:        common.GenerateUUID(),
		WeekStart: weekStart,
		CreatedAt: s.nextTime(),
	}
	s.plans = append(s.plans, plan)

	entries := make([]MealPlanRecipeModel, 0, len(recipeIDs))
	for i, recipeID := range recipeIDs {
		entries = append(entries, MealPlanRecipeModel{
			ID:         common.GenerateUUID(),
			MealPlanID: plan.ID,
			RecipeID:   recipeID,
			DayOfWeek:  i,
			MealType:   "dinner",
		})
	}
	s.planEntries[plan.ID] = entries
	return plan.ID, nil
}

func (s *MemoryStore) ListMealPlans(ctx context.Context) ([]MealPlanView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plans := make([]MealPlanModel, len(s.plans))
	copy(plans, s.plans)
	sort.Slice(plans, func(i, j int) bool {
		return plans[i].CreatedAt.After(plans[j].CreatedAt)
	})

	views := make([]MealPlanView, 0, len(plans))
	for _, p := range plans {
		views = append(views, s.mealPlanViewLocked(p))
	}
	return views, nil
}

func (s *MemoryStore) GetMealPlan(ctx context.Context, id string) (*MealPlanView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.plans {
		if p.ID == id {
			view := s.mealPlanViewLocked(p)
			return &view, nil
		}
	}
	return nil, common.ErrNotFound
}

func (s *MemoryStore) LatestMealPlan(ctx context.Context) (*MealPlanView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.plans) == 0 {
		return nil, common.ErrNotFound
	}
	latest := s.plans[0]
	for _, p := range s.plans[1:] {
		if p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	view := s.mealPlanViewLocked(latest)
	return &view, nil
}

func (s *MemoryStore) DeleteMealPlan(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.plans {
		if p.ID == id {
			s.plans = append(s.plans[:i], s.plans[i+1:]...)
			delete(s.planEntries, id)
			return nil
		}
	}
	return common.ErrNotFound
}

func (s *MemoryStore) RecentPlanTitles(ctx context.Context, planCount int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plans := make([]MealPlanModel, len(s.plans))
	copy(plans, s.plans)
	sort.Slice(plans, func(i, j int) bool {
		return plans[i].CreatedAt.After(plans[j].CreatedAt)
	})
	if len(plans) > planCount {
		plans = plans[:planCount]
	}

	seen := make(map[string]struct{})
	titles := []string{}
	for _, plan := range plans {
		for _, entry := range s.planEntries[plan.ID] {
			for _, recipe := range s.recipes {
				if recipe.ID != entry.RecipeID {
					continue
				}
				if _, ok := seen[recipe.Title]; !ok {
					seen[recipe.Title] = struct{}{}
					titles = append(titles, recipe.Title)
				}
			}
		}
	}
	return titles, nil
}

func (s *MemoryStore) mealPlanViewLocked(p MealPlanModel) MealPlanView {
	entries := []MealPlanEntryView{}
	for _, entry := range s.planEntries[p.ID] {
		view := MealPlanEntryView{
			DayOfWeek: entry.DayOfWeek,
			MealType:  entry.MealType,
		}
		for _, recipe := range s.recipes {
			if recipe.ID == entry.RecipeID {
				view.Recipe = recipeView(recipe)
				break
			}
		}
		entries = append(entries, view)
	}
	return MealPlanView{
		ID:        p.ID,
		WeekStart: p.WeekStart,
		Entries:   entries,
		CreatedAt: p.CreatedAt,
	}
}

// ---- 生成任務 ----

func (s *MemoryStore) ClaimJob(ctx context.Context, totalSteps int) (*generation.Job, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.jobs) - 1; i >= 0; i-- {
		if s.jobs[i].Status == generation.StatusPending || s.jobs[i].Status == generation.StatusRunning {
			job := jobFromModel(s.jobs[i])
			return &job, true, nil
		}
	}

	model := GenerationJobModel{
		ID:         common.GenerateUUID(),
		Status:     generation.StatusPending,
		TotalSteps: totalSteps,
		CreatedAt:  s.nextTime(),
		UpdatedAt:  time.Now(),
	}
	s.jobs = append(s.jobs, model)
	job := jobFromModel(model)
	return &job, false, nil
}

func (s *MemoryStore) GetJob(ctx context.Context, id string) (*generation.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.jobs {
		if m.ID == id {
			job := jobFromModel(m)
			return &job, nil
		}
	}
	return nil, common.ErrJobNotFound
}

// CurrentJob 最新一筆還需要關注的任務，完成的不再是現役
func (s *MemoryStore) CurrentJob(ctx context.Context) (*generation.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.jobs) - 1; i >= 0; i-- {
		switch s.jobs[i].Status {
		case generation.StatusPending, generation.StatusRunning, generation.StatusFailed:
			job := jobFromModel(s.jobs[i])
			return &job, nil
		}
	}
	return nil, common.ErrJobNotFound
}

func (s *MemoryStore) UpdateJob(ctx context.Context, id string, update generation.JobUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.jobs {
		if s.jobs[i].ID != id {
			continue
		}
		if update.Status != nil {
			s.jobs[i].Status = *update.Status
		}
		if update.Step != nil {
			s.jobs[i].Step = *update.Step
		}
		if update.StepMessage != nil {
			s.jobs[i].StepMessage = *update.StepMessage
		}
		if update.Error != nil {
			s.jobs[i].Error = *update.Error
		}
		if update.MealPlanID != nil {
			s.jobs[i].MealPlanID = *update.MealPlanID
		}
		s.jobs[i].UpdatedAt = time.Now()
		return nil
	}
	return common.ErrJobNotFound
}
