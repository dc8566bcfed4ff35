package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	coregen "meal-planner/internal/core/generation"
	"meal-planner/internal/core/image"
	"meal-planner/internal/core/match"
	"meal-planner/internal/infrastructure/store"
	"meal-planner/internal/pkg/common"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	common.Logger = zap.NewNop()
	os.Exit(m.Run())
}

// gatedCompleter 卡在 release channel 上，讓測試控制流程何時前進
type gatedCompleter struct {
	release  chan struct{}
	response string
}

func (c *gatedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if c.release != nil {
		<-c.release
	}
	return c.response, nil
}

const oneRecipe = `[{"title": "Test Dish", "cuisine": "Italian", "ingredients": ["1 cup pasta"], "instructions": ["Boil."]}]`

func setup(ai coregen.Completer) (*gin.Engine, *coregen.Runner, chan string) {
	st := store.NewMemoryStore()
	hub := coregen.NewHub()
	runner := coregen.NewRunner(st, ai, image.NewService(), match.NewScorer(nil), coregen.Options{MealCount: 1}).WithNotifier(hub)

	done := make(chan string, 4)
	runner.SetDoneHook(func(jobID string) { done <- jobID })

	handler := NewHandler(runner, hub)
	r := gin.New()
	r.POST("/generation/start", handler.HandleStart)
	r.GET("/generation/job", handler.HandleJob)
	r.GET("/generation/stream", handler.HandleStream)
	return r, runner, done
}

func TestHandleStart(t *testing.T) {
	ai := &gatedCompleter{release: make(chan struct{}), response: oneRecipe}
	r, _, done := setup(ai)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/generation/start", nil))
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp struct {
		Job      coregen.Job `json:"job"`
		Existing bool        `json:"existing"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Existing)
	assert.Equal(t, coregen.TotalSteps, resp.Job.TotalSteps)

	// 流程還卡在 AI 呼叫，再啟動拿回同一筆任務
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/generation/start", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Existing)

	close(ai.release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("generation did not finish")
	}
}

func TestHandleStartMealCount(t *testing.T) {
	ai := &gatedCompleter{response: oneRecipe}
	r, _, done := setup(ai)

	// 超出範圍的數量直接擋下
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/generation/start", strings.NewReader(`{"mealCount": 8}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/generation/start", strings.NewReader(`{"mealCount": 3}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusAccepted, w.Code)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("generation did not finish")
	}
}

func TestHandleJob(t *testing.T) {
	ai := &gatedCompleter{release: make(chan struct{}), response: oneRecipe}
	r, _, done := setup(ai)

	// 還沒有任何任務
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/generation/job", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/generation/start", nil))
	require.Equal(t, http.StatusAccepted, w.Code)
	var started struct {
		Job coregen.Job `json:"job"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &started))

	// 進行中的任務就是現役任務，current=1 和不帶參數同義
	for _, path := range []string{"/generation/job", "/generation/job?current=1"} {
		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code, path)
		var job coregen.Job
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
		assert.Equal(t, started.Job.ID, job.ID, path)
	}

	close(ai.release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("generation did not finish")
	}

	// 完成的任務不再是現役任務
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/generation/job?current=1", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 帶 id 還是查得到
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/generation/job?id="+started.Job.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var job coregen.Job
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	assert.Equal(t, coregen.StatusCompleted, job.Status)
	assert.NotEmpty(t, job.MealPlanID)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/generation/job?id=missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// current 只接受 1
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/generation/job?current=yes", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// closeNotifyRecorder 讓 SSE handler 能在測試裡跑 c.Stream
type closeNotifyRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func newCloseNotifyRecorder() *closeNotifyRecorder {
	return &closeNotifyRecorder{httptest.NewRecorder(), make(chan bool, 1)}
}

func (r *closeNotifyRecorder) CloseNotify() <-chan bool {
	return r.closed
}

func TestHandleStream(t *testing.T) {
	ai := &gatedCompleter{response: oneRecipe}
	r, _, done := setup(ai)

	w := newCloseNotifyRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/generation/stream", nil))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("generation did not finish")
	}

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, "event:progress")
	// 串流以初始快照開場，以終態結束
	assert.Contains(t, body, `"status":"pending"`)
	assert.Contains(t, body, `"status":"completed"`)
	assert.Contains(t, body, "Your meal plan is ready!")

	// 收斂後串流必須自行關閉(ServeHTTP 已返回)
	firstIdx := strings.Index(body, "event:progress")
	require.GreaterOrEqual(t, firstIdx, 0)
}

func TestHandleStreamTerminalJobClosesImmediately(t *testing.T) {
	ai := &gatedCompleter{response: oneRecipe}
	r, _, done := setup(ai)

	// 先跑完一輪
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/generation/start", nil))
	require.Equal(t, http.StatusAccepted, w.Code)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("generation did not finish")
	}

	// 任務已收斂，串流會啟動新一輪；等它也跑完
	sw := newCloseNotifyRecorder()
	r.ServeHTTP(sw, httptest.NewRequest(http.MethodGet, "/generation/stream", nil))
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("second generation did not finish")
	}
	assert.Contains(t, sw.Body.String(), "event:progress")
}
