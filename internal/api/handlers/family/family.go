package family

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	corefamily "meal-planner/internal/core/family"
	"meal-planner/internal/core/match"
	"meal-planner/internal/infrastructure/store"
	"meal-planner/internal/pkg/common"
)

// Store 成員管理需要的持久層操作
type Store interface {
	match.Store

	CreateMember(ctx context.Context, name string) (*store.MemberView, error)
	ListMembers(ctx context.Context) ([]store.MemberView, error)
	GetMember(ctx context.Context, id string) (*store.MemberView, error)
	UpdateMemberName(ctx context.Context, id, name string) (*store.MemberView, error)
	DeleteMember(ctx context.Context, id string) error
	ReplacePreferences(ctx context.Context, memberID string, rows []corefamily.TaggedPreference) error
}

// Handler 家庭成員處理程序
type Handler struct {
	store  Store
	scorer *match.Scorer
}

// NewHandler 創建家庭成員處理程序
func NewHandler(st Store, scorer *match.Scorer) *Handler {
	return &Handler{store: st, scorer: scorer}
}

// MemberRequest 新增或改名
type MemberRequest struct {
	Name string `json:"name" binding:"required"`
}

// PreferenceEntry 單筆偏好
type PreferenceEntry struct {
	Category string `json:"category" binding:"required"`
	Value    string `json:"value" binding:"required"`
}

// PreferencesRequest 整組替換成員偏好
type PreferencesRequest struct {
	Preferences []PreferenceEntry `json:"preferences"`
}

// HandleCreate 新增家庭成員
func (h *Handler) HandleCreate(c *gin.Context) {
	var req MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	member, err := h.store.CreateMember(c.Request.Context(), req.Name)
	if err != nil {
		common.LogError("新增成員失敗", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create member"})
		return
	}

	common.LogInfo("新增家庭成員", zap.String("member_id", member.ID), zap.String("name", member.Name))
	c.JSON(http.StatusCreated, member)
}

// HandleList 列出所有成員
func (h *Handler) HandleList(c *gin.Context) {
	members, err := h.store.ListMembers(c.Request.Context())
	if err != nil {
		common.LogError("查詢成員失敗", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list members"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

// HandleGet 查單一成員
func (h *Handler) HandleGet(c *gin.Context) {
	member, err := h.store.GetMember(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get member"})
		return
	}
	c.JSON(http.StatusOK, member)
}

// HandleUpdate 成員改名
func (h *Handler) HandleUpdate(c *gin.Context) {
	var req MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	member, err := h.store.UpdateMemberName(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update member"})
		return
	}
	c.JSON(http.StatusOK, member)
}

// HandleDelete 刪除成員與其偏好
func (h *Handler) HandleDelete(c *gin.Context) {
	if err := h.store.DeleteMember(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete member"})
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleReplacePreferences 整組替換偏好並重算所有食譜分數
func (h *Handler) HandleReplacePreferences(c *gin.Context) {
	var req PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	rows := make([]corefamily.TaggedPreference, 0, len(req.Preferences))
	for _, entry := range req.Preferences {
		if !corefamily.IsKnownCategory(entry.Category) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":      "Unknown preference category: " + entry.Category,
				"categories": corefamily.KnownCategories(),
			})
			return
		}
		rows = append(rows, corefamily.TaggedPreference{Category: entry.Category, Value: entry.Value})
	}

	memberID := c.Param("id")
	if err := h.store.ReplacePreferences(c.Request.Context(), memberID, rows); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
			return
		}
		common.LogError("更新偏好失敗", zap.Error(err), zap.String("member_id", memberID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update preferences"})
		return
	}

	// 偏好變了，既有食譜的分數立刻重算
	updated, err := match.RecalculateAll(c.Request.Context(), h.store, h.scorer)
	if err != nil {
		common.LogError("偏好更新後重算分數失敗", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Preferences saved but rescoring failed"})
		return
	}

	member, err := h.store.GetMember(c.Request.Context(), memberID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload member"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"member":          member,
		"recipesRescored": updated,
	})
}
