package generation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"meal-planner/internal/core/match"
	"meal-planner/internal/pkg/common"
)

func TestMain(m *testing.M) {
	common.Logger = zap.NewNop()
	os.Exit(m.Run())
}

// fakeStore 記錄流程對持久層的每一次呼叫
type fakeStore struct {
	mu sync.Mutex

	job     *Job
	members []common.FamilyPreferences
	ratings []common.RatingInfo
	recent  []string

	saveErr   error
	saveDelay time.Duration

	savedRecipes []common.RecipeCandidate
	savedImages  []string
	savedPrompts []string
	planRecipes  []string
	planWeek     time.Time
	messages     []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		members: []common.FamilyPreferences{
			{MemberName: "Amy", Cuisines: []string{"Italian"}},
		},
	}
}

func (s *fakeStore) ClaimJob(ctx context.Context, totalSteps int) (*Job, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job != nil && s.job.Active() {
		copied := *s.job
		return &copied, true, nil
	}
	now := time.Now()
	s.job = &Job{
		ID:         common.GenerateUUID(),
		Status:     StatusPending,
		TotalSteps: totalSteps,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	copied := *s.job
	return &copied, false, nil
}

func (s *fakeStore) GetJob(ctx context.Context, id string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil || s.job.ID != id {
		return nil, common.ErrJobNotFound
	}
	copied := *s.job
	return &copied, nil
}

func (s *fakeStore) CurrentJob(ctx context.Context) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil {
		return nil, common.ErrJobNotFound
	}
	copied := *s.job
	return &copied, nil
}

func (s *fakeStore) UpdateJob(ctx context.Context, id string, update JobUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil || s.job.ID != id {
		return common.ErrJobNotFound
	}
	if update.Status != nil {
		s.job.Status = *update.Status
	}
	if update.Step != nil {
		s.job.Step = *update.Step
	}
	if update.StepMessage != nil {
		s.job.StepMessage = *update.StepMessage
		s.messages = append(s.messages, *update.StepMessage)
	}
	if update.Error != nil {
		s.job.Error = *update.Error
	}
	if update.MealPlanID != nil {
		s.job.MealPlanID = *update.MealPlanID
	}
	s.job.UpdatedAt = time.Now()
	return nil
}

func (s *fakeStore) ListFamilyPreferences(ctx context.Context) ([]common.FamilyPreferences, error) {
	return s.members, nil
}

func (s *fakeStore) RecipeRatingSummaries(ctx context.Context) ([]common.RatingInfo, error) {
	return s.ratings, nil
}

func (s *fakeStore) RecentPlanTitles(ctx context.Context, planCount int) ([]string, error) {
	return s.recent, nil
}

func (s *fakeStore) SaveGeneratedRecipe(ctx context.Context, candidate common.RecipeCandidate, imageURL, promptUsed string) (string, error) {
	if s.saveDelay > 0 {
		time.Sleep(s.saveDelay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return "", s.saveErr
	}
	s.savedRecipes = append(s.savedRecipes, candidate)
	s.savedImages = append(s.savedImages, imageURL)
	s.savedPrompts = append(s.savedPrompts, promptUsed)
	return fmt.Sprintf("recipe-%d", len(s.savedRecipes)), nil
}

func (s *fakeStore) CreateMealPlan(ctx context.Context, weekStart time.Time, recipeIDs []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.planWeek = weekStart
	s.planRecipes = recipeIDs
	return "plan-1", nil
}

// fakeCompleter 回固定文字或錯誤
type fakeCompleter struct {
	response string
	err      error
	prompts  []string
}

func (c *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

type fakeImages struct{}

func (fakeImages) Resolve(searchTerm, cuisine string) string {
	return "https://images.example.com/" + searchTerm
}

func completionWith(titles ...string) string {
	out := "["
	for i, title := range titles {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"title": %q, "cuisine": "Italian", "ingredients": ["1 cup pasta"], "instructions": ["Boil."], "imageSearchTerm": %q}`, title, title)
	}
	return out + "]"
}

// startAndWait 啟動流程並等背景 goroutine 跑完
func startAndWait(t *testing.T, runner *Runner) *Job {
	t.Helper()

	done := make(chan string, 1)
	runner.SetDoneHook(func(jobID string) { done <- jobID })

	job, existing, err := runner.Start(context.Background())
	require.NoError(t, err)
	require.False(t, existing)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("generation run did not finish in time")
	}

	final, err := runner.Job(context.Background(), job.ID)
	require.NoError(t, err)
	return final
}

func TestRunnerHappyPath(t *testing.T) {
	st := newFakeStore()
	ai := &fakeCompleter{response: completionWith("Pasta Night", "Taco Tuesday", "Soup Supper")}
	runner := NewRunner(st, ai, fakeImages{}, match.NewScorer(nil), Options{MealCount: 3})

	final := startAndWait(t, runner)

	assert.Equal(t, StatusCompleted, final.Status)
	assert.Equal(t, TotalSteps, final.Step)
	assert.Equal(t, "Your meal plan is ready!", final.StepMessage)
	assert.Equal(t, "plan-1", final.MealPlanID)
	assert.Empty(t, final.Error)

	// 三道食譜全部入庫且掛上解析出的圖
	require.Len(t, st.savedRecipes, 3)
	assert.Equal(t, "Pasta Night", st.savedRecipes[0].Title)
	assert.Equal(t, "https://images.example.com/Pasta Night", st.savedImages[0])
	assert.Equal(t, []string{"recipe-1", "recipe-2", "recipe-3"}, st.planRecipes)

	// 週計畫起點必須是週日零點
	assert.Equal(t, time.Weekday(0), st.planWeek.Weekday())
	assert.Equal(t, 0, st.planWeek.Hour())

	// 入庫的食譜帶著決定性評分
	require.Len(t, st.savedRecipes[0].FamilyMatch, 1)
	assert.Equal(t, "Amy", st.savedRecipes[0].FamilyMatch[0].Name)
	assert.Equal(t, 80, st.savedRecipes[0].FamilyMatch[0].Score)
}

func TestRunnerStepMessages(t *testing.T) {
	st := newFakeStore()
	ai := &fakeCompleter{response: completionWith("Solo Dish")}
	runner := NewRunner(st, ai, fakeImages{}, match.NewScorer(nil), Options{MealCount: 1})

	startAndWait(t, runner)

	want := []string{
		"Analyzing family preferences...",
		"Reviewing your recipe ratings...",
		"Checking recent meal history...",
		"Crafting the perfect prompt...",
		"Asking the chef AI for recipe ideas...",
		"Reading the chef's suggestions...",
		"Scoring recipes for each family member...",
		"Saving recipes...",
		"Saving recipe 1 of 1...",
		"Assembling your meal plan...",
		"Your meal plan is ready!",
	}
	assert.Equal(t, want, st.messages)
}

func TestRunnerRatingsFeedIntoPrompt(t *testing.T) {
	st := newFakeStore()
	st.ratings = []common.RatingInfo{
		{RecipeTitle: "Winner", AverageScore: 4.5, RatingCount: 3},
		{RecipeTitle: "Middling", AverageScore: 3.0, RatingCount: 2},
		{RecipeTitle: "Loser", AverageScore: 1.5, RatingCount: 2},
	}
	st.recent = []string{"Last Week Stew"}

	ai := &fakeCompleter{response: completionWith("Fresh Idea")}
	runner := NewRunner(st, ai, fakeImages{}, match.NewScorer(nil), Options{MealCount: 1})

	startAndWait(t, runner)

	require.Len(t, ai.prompts, 1)
	prompt := ai.prompts[0]
	assert.Contains(t, prompt, `"Winner"`)
	assert.Contains(t, prompt, `"Loser"`)
	// 3 星上下落在中間帶，不當學習訊號
	assert.NotContains(t, prompt, `"Middling"`)
	assert.Contains(t, prompt, "Last Week Stew")
}

func TestRunnerExistingJobNotRestarted(t *testing.T) {
	st := newFakeStore()
	st.job = &Job{ID: "busy", Status: StatusRunning, TotalSteps: TotalSteps}

	ai := &fakeCompleter{response: completionWith("Should Not Run")}
	runner := NewRunner(st, ai, fakeImages{}, match.NewScorer(nil), Options{})

	job, existing, err := runner.Start(context.Background())
	require.NoError(t, err)
	assert.True(t, existing)
	assert.Equal(t, "busy", job.ID)

	// 背景流程不會啟動
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, ai.prompts)
	assert.Empty(t, st.savedRecipes)
}

func TestRunnerAIFailure(t *testing.T) {
	st := newFakeStore()
	ai := &fakeCompleter{err: errors.New("openrouter: status 502")}
	runner := NewRunner(st, ai, fakeImages{}, match.NewScorer(nil), Options{})

	final := startAndWait(t, runner)

	assert.Equal(t, StatusFailed, final.Status)
	assert.Equal(t, "openrouter: status 502", final.Error)
	assert.Empty(t, final.MealPlanID)
}

func TestRunnerParseFailure(t *testing.T) {
	st := newFakeStore()
	ai := &fakeCompleter{response: "no recipes today, sorry"}
	runner := NewRunner(st, ai, fakeImages{}, match.NewScorer(nil), Options{})

	final := startAndWait(t, runner)

	assert.Equal(t, StatusFailed, final.Status)
	assert.Equal(t, common.ErrParseError.Message, final.Error)
}

func TestRunnerRemapsMissingTableError(t *testing.T) {
	st := newFakeStore()
	st.saveErr = errors.New("no such table: recipes, table does not exist")

	ai := &fakeCompleter{response: completionWith("Doomed Dish")}
	runner := NewRunner(st, ai, fakeImages{}, match.NewScorer(nil), Options{})

	final := startAndWait(t, runner)

	assert.Equal(t, StatusFailed, final.Status)
	assert.Equal(t, "Database tables are missing. Run the database migration and try again.", final.Error)
}

func TestRunnerSaveTimeout(t *testing.T) {
	st := newFakeStore()
	st.saveDelay = 30 * time.Millisecond

	ai := &fakeCompleter{response: completionWith("One", "Two", "Three", "Four")}
	runner := NewRunner(st, ai, fakeImages{}, match.NewScorer(nil), Options{
		MealCount:   4,
		SaveTimeout: 50 * time.Millisecond,
	})

	final := startAndWait(t, runner)

	assert.Equal(t, StatusFailed, final.Status)
	assert.Equal(t, "Saving recipes timed out. Try again.", final.Error)
	// 預算內存進去的食譜保留，不回滾
	assert.NotEmpty(t, st.savedRecipes)
	assert.Less(t, len(st.savedRecipes), 4)
	assert.Empty(t, st.planRecipes)
}

func TestRunnerPlanCappedAtSevenRecipes(t *testing.T) {
	st := newFakeStore()
	titles := make([]string, 9)
	for i := range titles {
		titles[i] = fmt.Sprintf("Dish %d", i+1)
	}
	ai := &fakeCompleter{response: completionWith(titles...)}
	runner := NewRunner(st, ai, fakeImages{}, match.NewScorer(nil), Options{MealCount: 9})

	final := startAndWait(t, runner)

	assert.Equal(t, StatusCompleted, final.Status)
	// 九道全存，週計畫只排前七
	assert.Len(t, st.savedRecipes, 9)
	assert.Len(t, st.planRecipes, 7)
}

func TestRunnerMealCountOverride(t *testing.T) {
	st := newFakeStore()
	ai := &fakeCompleter{response: completionWith("Pasta Night")}
	runner := NewRunner(st, ai, fakeImages{}, match.NewScorer(nil), Options{MealCount: 7})

	done := make(chan string, 1)
	runner.SetDoneHook(func(jobID string) { done <- jobID })

	_, existing, err := runner.StartWith(context.Background(), 3)
	require.NoError(t, err)
	require.False(t, existing)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("generation run did not finish in time")
	}

	require.Len(t, ai.prompts, 1)
	assert.Contains(t, ai.prompts[0], "Generate 3 dinner recipes")
}

func TestRunnerMealCountDefault(t *testing.T) {
	st := newFakeStore()
	ai := &fakeCompleter{response: completionWith("Soup Supper")}
	runner := NewRunner(st, ai, fakeImages{}, match.NewScorer(nil), Options{MealCount: 5})

	startAndWait(t, runner)

	require.Len(t, ai.prompts, 1)
	assert.Contains(t, ai.prompts[0], "Generate 5 dinner recipes")
}

func TestRunnerNotifierReceivesTerminalState(t *testing.T) {
	st := newFakeStore()
	ai := &fakeCompleter{response: completionWith("Notified Dish")}

	var mu sync.Mutex
	var snapshots []Job
	notifier := NotifierFunc(func(job Job) {
		mu.Lock()
		snapshots = append(snapshots, job)
		mu.Unlock()
	})

	runner := NewRunner(st, ai, fakeImages{}, match.NewScorer(nil), Options{MealCount: 1}).WithNotifier(notifier)
	startAndWait(t, runner)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, snapshots)
	last := snapshots[len(snapshots)-1]
	assert.Equal(t, StatusCompleted, last.Status)
	assert.Equal(t, "plan-1", last.MealPlanID)

	// 步驟編號單調不回頭
	prev := 0
	for _, snap := range snapshots {
		assert.GreaterOrEqual(t, snap.Step, prev)
		prev = snap.Step
	}
}
