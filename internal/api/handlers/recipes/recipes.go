package recipes

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"meal-planner/internal/core/match"
	"meal-planner/internal/core/variation"
	"meal-planner/internal/infrastructure/store"
	"meal-planner/internal/pkg/common"
)

// Store 食譜與評分需要的持久層操作
type Store interface {
	match.Store

	ListRecipes(ctx context.Context) ([]store.RecipeView, error)
	GetRecipe(ctx context.Context, id string) (*store.RecipeView, error)
	DeleteRecipe(ctx context.Context, id string) error
	ClearRecipes(ctx context.Context) error
	AddRating(ctx context.Context, recipeID, memberID string, score int, comment string) (*store.RatingView, error)
	ListRatings(ctx context.Context, recipeID string) ([]store.RatingView, error)
}

// Handler 食譜處理程序
type Handler struct {
	store      Store
	scorer     *match.Scorer
	variations *variation.Service
}

// NewHandler 創建食譜處理程序
func NewHandler(st Store, scorer *match.Scorer, variations *variation.Service) *Handler {
	return &Handler{store: st, scorer: scorer, variations: variations}
}

// RatingRequest 新增評分
type RatingRequest struct {
	FamilyMemberID string `json:"familyMemberId" binding:"required"`
	Score          int    `json:"score" binding:"required"`
	Comment        string `json:"comment"`
}

// HandleList 列出所有食譜
func (h *Handler) HandleList(c *gin.Context) {
	recipes, err := h.store.ListRecipes(c.Request.Context())
	if err != nil {
		common.LogError("查詢食譜失敗", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list recipes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

// HandleGet 查單一食譜
func (h *Handler) HandleGet(c *gin.Context) {
	recipe, err := h.store.GetRecipe(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get recipe"})
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// HandleDelete 刪除食譜
func (h *Handler) HandleDelete(c *gin.Context) {
	if err := h.store.DeleteRecipe(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete recipe"})
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleClearRecipes 清空食譜、評分與餐點計畫，成員和偏好留著
func (h *Handler) HandleClearRecipes(c *gin.Context) {
	if err := h.store.ClearRecipes(c.Request.Context()); err != nil {
		common.LogError("清除食譜失敗", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear recipes"})
		return
	}
	common.LogInfo("食譜、評分與餐點計畫已清除")
	c.Status(http.StatusNoContent)
}

// HandleVariations 用 AI 幫現有食譜產蛋白質替換版本
func (h *Handler) HandleVariations(c *gin.Context) {
	recipe, err := h.store.GetRecipe(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load recipe"})
		return
	}

	vars, err := h.variations.Generate(c.Request.Context(), variation.Input{
		Title:        recipe.Title,
		Description:  recipe.Description,
		Cuisine:      recipe.Cuisine,
		Ingredients:  recipe.Ingredients,
		Instructions: recipe.Instructions,
	})
	if err != nil {
		if errors.Is(err, common.ErrParseError) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse AI response. Please try again."})
			return
		}
		common.LogError("產生替換版本失敗", zap.Error(err), zap.String("recipe_id", recipe.ID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate recipe variations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"variations": vars})
}

// HandleAddRating 新增評分，1~5 星
func (h *Handler) HandleAddRating(c *gin.Context) {
	var req RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if req.Score < 1 || req.Score > 5 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Score must be between 1 and 5"})
		return
	}

	rating, err := h.store.AddRating(c.Request.Context(), c.Param("id"), req.FamilyMemberID, req.Score, req.Comment)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
			return
		}
		common.LogError("新增評分失敗", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add rating"})
		return
	}
	c.JSON(http.StatusCreated, rating)
}

// HandleListRatings 查某食譜的所有評分
func (h *Handler) HandleListRatings(c *gin.Context) {
	ratings, err := h.store.ListRatings(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list ratings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ratings": ratings})
}

// HandleRecalculate 用當前偏好重算所有食譜的喜好分數
func (h *Handler) HandleRecalculate(c *gin.Context) {
	updated, err := match.RecalculateAll(c.Request.Context(), h.store, h.scorer)
	if err != nil {
		common.LogError("重算分數失敗", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to recalculate scores"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
