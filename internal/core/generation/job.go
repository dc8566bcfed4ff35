package generation

import (
	"context"
	"time"

	"meal-planner/internal/pkg/common"
)

// 產生工作的狀態機：pending -> running -> completed | failed
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// TotalSteps 一次產生流程的固定步驟數
const TotalSteps = 9

// Job 一次餐點計畫產生工作的快照
type Job struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	Step        int       `json:"step"`
	StepMessage string    `json:"stepMessage"`
	TotalSteps  int       `json:"totalSteps"`
	Error       string    `json:"error,omitempty"`
	MealPlanID  string    `json:"mealPlanId,omitempty"`
	// 時間戳隨狀態落庫，對外的任務快照不帶
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Active 是否還在進行中
func (j *Job) Active() bool {
	return j.Status == StatusPending || j.Status == StatusRunning
}

// JobUpdate 局部更新，nil 欄位不動
type JobUpdate struct {
	Status      *string
	Step        *int
	StepMessage *string
	Error       *string
	MealPlanID  *string
}

// Store 產生流程需要的持久層能力
// 由 infrastructure/store 實作；測試用記憶體版
type Store interface {
	// ClaimJob 單一交易內找現役工作或建新的 pending 工作
	// 回傳 existing=true 表示撿到別人已啟動的工作，呼叫端不得再跑流程
	ClaimJob(ctx context.Context, totalSteps int) (*Job, bool, error)
	GetJob(ctx context.Context, id string) (*Job, error)
	// CurrentJob 回傳最新的一筆工作，沒有任何工作時回 ErrJobNotFound
	CurrentJob(ctx context.Context) (*Job, error)
	UpdateJob(ctx context.Context, id string, update JobUpdate) error

	ListFamilyPreferences(ctx context.Context) ([]common.FamilyPreferences, error)
	RecipeRatingSummaries(ctx context.Context) ([]common.RatingInfo, error)
	// RecentPlanTitles 最近 planCount 份餐點計畫內所有食譜標題
	RecentPlanTitles(ctx context.Context, planCount int) ([]string, error)
	SaveGeneratedRecipe(ctx context.Context, candidate common.RecipeCandidate, imageURL, promptUsed string) (string, error)
	CreateMealPlan(ctx context.Context, weekStart time.Time, recipeIDs []string) (string, error)
}

// Completer 把組好的 prompt 丟給模型拿回原始文字
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ImageResolver 依搜尋詞和菜系決定食譜圖片網址
type ImageResolver interface {
	Resolve(searchTerm, cuisine string) string
}

// Notifier 每次工作狀態變動時收到快照。輪詢端靠資料庫就夠了，
// SSE 端掛一個 Notifier 即時推送
type Notifier interface {
	Notify(job Job)
}

// NotifierFunc 讓函數直接當 Notifier 用
type NotifierFunc func(job Job)

func (f NotifierFunc) Notify(job Job) { f(job) }
