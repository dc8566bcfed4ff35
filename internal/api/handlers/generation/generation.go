package generation

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	coregen "meal-planner/internal/core/generation"
	"meal-planner/internal/pkg/common"
)

// SSE 推播斷線時退回輪詢資料庫的間隔
const streamPollInterval = 2 * time.Second

// Handler 生成任務處理程序
// 輪詢端和 SSE 端走同一個 Runner，步驟狀態一份
type Handler struct {
	runner *coregen.Runner
	hub    *coregen.Hub
}

// NewHandler 創建生成任務處理程序
func NewHandler(runner *coregen.Runner, hub *coregen.Hub) *Handler {
	return &Handler{runner: runner, hub: hub}
}

// StartRequest 啟動生成的可選參數，不帶 body 時全用預設值
type StartRequest struct {
	MealCount int `json:"mealCount"`
}

// HandleStart 啟動生成流程
// 已有現役任務時回傳該任務，不會重複啟動
func (h *Handler) HandleStart(c *gin.Context) {
	var req StartRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
			return
		}
		if req.MealCount < 0 || req.MealCount > 7 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "mealCount must be between 1 and 7"})
			return
		}
	}

	job, existing, err := h.runner.StartWith(c.Request.Context(), req.MealCount)
	if err != nil {
		common.LogError("啟動生成任務失敗", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start generation"})
		return
	}

	status := http.StatusAccepted
	if existing {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"job":      job,
		"existing": existing,
	})
}

// HandleJob 查任務狀態
// 帶 id 查指定任務；帶 current=1 或不帶參數查現役任務
// (最新一筆 pending/running/failed，完成的任務不算)
func (h *Handler) HandleJob(c *gin.Context) {
	var job *coregen.Job
	var err error

	switch {
	case c.Query("id") != "":
		job, err = h.runner.Job(c.Request.Context(), c.Query("id"))
	case c.Query("current") != "" && c.Query("current") != "1":
		c.JSON(http.StatusBadRequest, gin.H{"error": "current must be 1"})
		return
	default:
		job, err = h.runner.CurrentJob(c.Request.Context())
	}
	if err != nil {
		if errors.Is(err, common.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No generation job found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get job"})
		return
	}
	c.JSON(http.StatusOK, job)
}

// HandleStream SSE 即時推送任務進度
// 沒有現役任務時會先啟動一個，之後的步驟更新逐則送出，
// 任務收斂成 completed 或 failed 後關閉連線
func (h *Handler) HandleStream(c *gin.Context) {
	updates, cancel := h.hub.Subscribe()
	defer cancel()

	job, _, err := h.runner.Start(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start generation"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	// 先送目前快照，訂閱前發生的進度不會漏掉最終狀態
	c.SSEvent("progress", job)
	c.Writer.Flush()
	if !job.Active() {
		return
	}

	jobID := job.ID
	ticker := time.NewTicker(streamPollInterval)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false

		case update, ok := <-updates:
			if !ok {
				return false
			}
			if update.ID != jobID {
				return true
			}
			c.SSEvent("progress", update)
			return update.Active()

		case <-ticker.C:
			// 推播掉了也沒關係，定期補查資料庫
			current, err := h.runner.Job(c.Request.Context(), jobID)
			if err != nil {
				return false
			}
			c.SSEvent("progress", current)
			return current.Active()
		}
	})
}
