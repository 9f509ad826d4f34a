package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-todo-timer/backend/internal/models"
	"go-todo-timer/backend/internal/services"
)

// TagHandler はタグ関連のハンドラーを管理します。
type TagHandler struct {
	tagService *services.TagService
}

// NewTagHandler は新しいTagHandlerを作成します。
func NewTagHandler(tagService *services.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

// CreateTagHandler はタグを作成します。
func (h *TagHandler) CreateTagHandler(c *gin.Context) {
	var req models.CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	tag, err := h.tagService.CreateTag(c.Request.Context(), userID, req.Name)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

// GetTagsHandler はログインユーザーのタグ一覧を返します。
func (h *TagHandler) GetTagsHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	tags, err := h.tagService.ListTags(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

// AttachTagHandler はTodoにタグを付けます。
func (h *TagHandler) AttachTagHandler(c *gin.Context) {
	todoID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.AttachTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.tagService.AttachTag(c.Request.Context(), userID, todoID, req.TagID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DetachTagHandler はTodoからタグを外します。
func (h *TagHandler) DetachTagHandler(c *gin.Context) {
	todoID, ok := pathID(c, "id")
	if !ok {
		return
	}
	tagID, ok := pathID(c, "tagId")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.tagService.DetachTag(c.Request.Context(), userID, todoID, tagID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
