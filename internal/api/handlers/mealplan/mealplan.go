package mealplan

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"meal-planner/internal/infrastructure/store"
	"meal-planner/internal/pkg/common"
)

// Store 餐點計畫需要的持久層操作
type Store interface {
	ListMealPlans(ctx context.Context) ([]store.MealPlanView, error)
	GetMealPlan(ctx context.Context, id string) (*store.MealPlanView, error)
	LatestMealPlan(ctx context.Context) (*store.MealPlanView, error)
	DeleteMealPlan(ctx context.Context, id string) error
	ClearHistory(ctx context.Context) error
}

// Handler 餐點計畫處理程序
type Handler struct {
	store Store
}

// NewHandler 創建餐點計畫處理程序
func NewHandler(st Store) *Handler {
	return &Handler{store: st}
}

// HandleList 列出所有計畫，新的在前
func (h *Handler) HandleList(c *gin.Context) {
	plans, err := h.store.ListMealPlans(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list meal plans"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mealPlans": plans})
}

// HandleGet 查單一計畫，id 為 latest 時回最新一份
func (h *Handler) HandleGet(c *gin.Context) {
	id := c.Param("id")

	var plan *store.MealPlanView
	var err error
	if id == "latest" {
		plan, err = h.store.LatestMealPlan(c.Request.Context())
	} else {
		plan, err = h.store.GetMealPlan(c.Request.Context(), id)
	}
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Meal plan not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get meal plan"})
		return
	}
	c.JSON(http.StatusOK, plan)
}

// HandleDelete 刪除計畫，食譜本身不動
func (h *Handler) HandleDelete(c *gin.Context) {
	id := c.Param("id")

	if err := h.store.DeleteMealPlan(c.Request.Context(), id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Meal plan not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete meal plan"})
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleClearHistory 清掉所有餐點計畫，食譜和評分留著
func (h *Handler) HandleClearHistory(c *gin.Context) {
	if err := h.store.ClearHistory(c.Request.Context()); err != nil {
		common.LogError("清除餐點計畫歷史失敗", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear meal plan history"})
		return
	}
	common.LogInfo("餐點計畫歷史已清除")
	c.Status(http.StatusNoContent)
}
