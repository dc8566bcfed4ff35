package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"meal-planner/internal/core/match"
	"meal-planner/internal/core/parse"
	"meal-planner/internal/core/prompt"
	"meal-planner/internal/pkg/common"
)

// 評分回饋的門檻：平均 4 星以上算命中、2 星以下算踩雷
const (
	highRatingThreshold = 4.0
	lowRatingThreshold  = 2.0
	// 避免重複查最近幾份計畫的標題
	recentPlanLookback = 2
	// 一份週計畫最多七天晚餐
	maxPlanSlots = 7
)

// Options 流程的可調參數，來自設定檔
type Options struct {
	MealCount   int
	SaveTimeout time.Duration
}

// Runner 驅動整個餐點計畫產生流程
// 同一組步驟同時服務輪詢端(落資料庫)和 SSE 端(掛 Notifier 推送)
type Runner struct {
	store    Store
	ai       Completer
	images   ImageResolver
	scorer   *match.Scorer
	opts     Options
	notifier Notifier
	// 背景流程結束時的回呼，測試用來同步
	done func(jobID string)
}

func NewRunner(store Store, ai Completer, images ImageResolver, scorer *match.Scorer, opts Options) *Runner {
	if opts.MealCount <= 0 {
		opts.MealCount = maxPlanSlots
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = 120 * time.Second
	}
	return &Runner{
		store:  store,
		ai:     ai,
		images: images,
		scorer: scorer,
		opts:   opts,
	}
}

// WithNotifier 回傳共用同一個 store 但掛上推播的 Runner 副本
func (r *Runner) WithNotifier(n Notifier) *Runner {
	clone := *r
	clone.notifier = n
	return &clone
}

// SetDoneHook 流程結束時呼叫，僅供測試等待背景 goroutine
func (r *Runner) SetDoneHook(fn func(jobID string)) { r.done = fn }

// Start 啟動產生流程。已有現役工作時回傳該工作且不重跑，
// 否則建立新工作並在背景執行，立刻回傳
func (r *Runner) Start(ctx context.Context) (*Job, bool, error) {
	return r.StartWith(ctx, 0)
}

// StartWith 指定這次要的食譜數量，0 以下用設定檔的預設值
func (r *Runner) StartWith(ctx context.Context, mealCount int) (*Job, bool, error) {
	if mealCount <= 0 {
		mealCount = r.opts.MealCount
	}

	job, existing, err := r.store.ClaimJob(ctx, TotalSteps)
	if err != nil {
		return nil, false, err
	}
	if existing {
		common.LogInfo("已有進行中的產生工作", zap.String("job_id", job.ID))
		return job, true, nil
	}

	common.LogInfo("啟動餐點計畫產生工作",
		zap.String("job_id", job.ID),
		zap.Int("meal_count", mealCount))
	// 流程壽命不綁 HTTP 請求，呼叫端斷線也要跑完
	go r.run(context.Background(), job.ID, mealCount)
	return job, false, nil
}

// Job 查指定工作
func (r *Runner) Job(ctx context.Context, id string) (*Job, error) {
	return r.store.GetJob(ctx, id)
}

// CurrentJob 查最新一筆工作
func (r *Runner) CurrentJob(ctx context.Context) (*Job, error) {
	return r.store.CurrentJob(ctx)
}

// run 依序執行九個步驟，任何一步失敗就收斂成 failed
func (r *Runner) run(ctx context.Context, jobID string, mealCount int) {
	if r.done != nil {
		defer r.done(jobID)
	}

	if err := r.execute(ctx, jobID, mealCount); err != nil {
		r.fail(ctx, jobID, err)
	}
}

func (r *Runner) execute(ctx context.Context, jobID string, mealCount int) error {
	r.advance(ctx, jobID, 1, "Analyzing family preferences...")
	members, err := r.store.ListFamilyPreferences(ctx)
	if err != nil {
		return err
	}

	r.advance(ctx, jobID, 2, "Reviewing your recipe ratings...")
	ratings, err := r.store.RecipeRatingSummaries(ctx)
	if err != nil {
		return err
	}
	var highRated, lowRated []common.RatingInfo
	for _, rating := range ratings {
		switch {
		case rating.AverageScore >= highRatingThreshold:
			highRated = append(highRated, rating)
		case rating.AverageScore <= lowRatingThreshold:
			lowRated = append(lowRated, rating)
		}
	}

	r.advance(ctx, jobID, 3, "Checking recent meal history...")
	recentTitles, err := r.store.RecentPlanTitles(ctx, recentPlanLookback)
	if err != nil {
		return err
	}

	r.advance(ctx, jobID, 4, "Crafting the perfect prompt...")
	promptText := prompt.Build(prompt.Input{
		Members:      members,
		HighRated:    highRated,
		LowRated:     lowRated,
		RecentTitles: recentTitles,
		MealCount:    mealCount,
	})

	r.advance(ctx, jobID, 5, "Asking the chef AI for recipe ideas...")
	completion, err := r.ai.Complete(ctx, promptText)
	if err != nil {
		return err
	}

	r.advance(ctx, jobID, 6, "Reading the chef's suggestions...")
	candidates, err := parse.Recipes(completion)
	if err != nil {
		return err
	}

	r.advance(ctx, jobID, 7, "Scoring recipes for each family member...")
	candidates = match.Reconcile(candidates, members, r.scorer)

	r.advance(ctx, jobID, 8, "Saving recipes...")
	recipeIDs, err := r.saveRecipes(ctx, jobID, candidates, promptText)
	if err != nil {
		return err
	}

	r.advance(ctx, jobID, 9, "Assembling your meal plan...")
	planID, err := r.createPlan(ctx, recipeIDs)
	if err != nil {
		return err
	}

	r.complete(ctx, jobID, planID)
	return nil
}

// saveRecipes 逐筆入庫並回報進度。總預算用完就放棄剩下的，
// 已存進去的食譜不回滾
func (r *Runner) saveRecipes(ctx context.Context, jobID string, candidates []common.RecipeCandidate, promptUsed string) ([]string, error) {
	deadline := time.Now().Add(r.opts.SaveTimeout)
	recipeIDs := make([]string, 0, len(candidates))

	for i, candidate := range candidates {
		if time.Now().After(deadline) {
			common.LogWarn("食譜入庫超出時間預算",
				zap.String("job_id", jobID),
				zap.Int("saved", len(recipeIDs)),
				zap.Int("total", len(candidates)))
			return nil, common.ErrGenerationTimeout
		}

		message := fmt.Sprintf("Saving recipe %d of %d...", i+1, len(candidates))
		r.advance(ctx, jobID, 8, message)

		imageURL := r.images.Resolve(candidate.ImageSearchTerm, candidate.Cuisine)
		id, err := r.store.SaveGeneratedRecipe(ctx, candidate, imageURL, promptUsed)
		if err != nil {
			return nil, err
		}
		recipeIDs = append(recipeIDs, id)
	}
	return recipeIDs, nil
}

// createPlan 以本週週日零點為起點組週計畫，最多排七天
func (r *Runner) createPlan(ctx context.Context, recipeIDs []string) (string, error) {
	if len(recipeIDs) > maxPlanSlots {
		recipeIDs = recipeIDs[:maxPlanSlots]
	}
	weekStart := common.WeekStart(time.Now())
	return r.store.CreateMealPlan(ctx, weekStart, recipeIDs)
}

func (r *Runner) advance(ctx context.Context, jobID string, step int, message string) {
	status := StatusRunning
	update := JobUpdate{
		Status:      &status,
		Step:        &step,
		StepMessage: &message,
	}
	if err := r.store.UpdateJob(ctx, jobID, update); err != nil {
		common.LogError("更新工作進度失敗", zap.String("job_id", jobID), zap.Error(err))
	}
	common.LogJobStep(jobID, step, message)
	r.notify(ctx, jobID)
}

func (r *Runner) complete(ctx context.Context, jobID, planID string) {
	status := StatusCompleted
	message := "Your meal plan is ready!"
	update := JobUpdate{
		Status:      &status,
		StepMessage: &message,
		MealPlanID:  &planID,
	}
	if err := r.store.UpdateJob(ctx, jobID, update); err != nil {
		common.LogError("標記工作完成失敗", zap.String("job_id", jobID), zap.Error(err))
	}
	common.LogInfo("餐點計畫產生完成",
		zap.String("job_id", jobID),
		zap.String("meal_plan_id", planID))
	r.notify(ctx, jobID)
}

func (r *Runner) fail(ctx context.Context, jobID string, cause error) {
	status := StatusFailed
	message := remapError(cause)
	update := JobUpdate{
		Status: &status,
		Error:  &message,
	}
	if err := r.store.UpdateJob(ctx, jobID, update); err != nil {
		common.LogError("標記工作失敗時出錯", zap.String("job_id", jobID), zap.Error(err))
	}
	common.LogError("餐點計畫產生失敗",
		zap.String("job_id", jobID),
		zap.Error(cause))
	r.notify(ctx, jobID)
}

func (r *Runner) notify(ctx context.Context, jobID string) {
	if r.notifier == nil {
		return
	}
	job, err := r.store.GetJob(ctx, jobID)
	if err != nil {
		return
	}
	r.notifier.Notify(*job)
}

// remapError 把底層錯誤換成使用者看得懂的訊息
// 資料表缺漏這類 schema 問題給明確的補救指引
func remapError(err error) string {
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "exist") || strings.Contains(lower, "migrate") {
		return "Database tables are missing. Run the database migration and try again."
	}
	return msg
}
