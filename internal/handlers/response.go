package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"go-todo-timer/backend/internal/models"
	"go-todo-timer/backend/internal/services"
)

// todoResponse はTodoのJSON表現です。タイマーの状態と表示用の経過時間を含みます。
type todoResponse struct {
	ID               int           `json:"id"`
	UserID           int           `json:"user_id"`
	Text             string        `json:"text"`
	Description      *string       `json:"description"`
	Completed        bool          `json:"completed"`
	State            string        `json:"state"`
	TotalTimeSeconds int64         `json:"total_time_seconds"`
	TimerStartedAt   *time.Time    `json:"timer_started_at"`
	ElapsedSeconds   int64         `json:"elapsed_seconds"`
	Tags             []*models.Tag `json:"tags,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

func newTodoResponse(todo *models.Todo, elapsed int64) todoResponse {
	resp := todoResponse{
		ID:               todo.ID,
		UserID:           todo.OwnerID,
		Text:             todo.Text,
		Description:      todo.Description,
		Completed:        todo.Completed(),
		State:            todo.Timer.State().String(),
		TotalTimeSeconds: todo.TotalTimeSeconds,
		ElapsedSeconds:   elapsed,
		CreatedAt:        todo.CreatedAt,
		UpdatedAt:        todo.UpdatedAt,
	}
	if at, ok := todo.Timer.StartedAt(); ok {
		resp.TimerStartedAt = &at
	}
	return resp
}

// currentUserID は認証ミドルウェアが設定したユーザーIDを取り出します。
// 取り出せなければレスポンスを書いて false を返します。
func currentUserID(c *gin.Context) (int, bool) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
		return 0, false
	}
	userID, ok := userIDVal.(int)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID type in context"})
		return 0, false
	}
	return userID, true
}

func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return 0, false
	}
	return id, true
}

// writeServiceError はサービス層のエラーをHTTPステータスに変換して書き込みます。
func writeServiceError(c *gin.Context, err error) {
	var conflict *services.ConflictingTimerError
	switch {
	case errors.As(err, &conflict):
		body := gin.H{"error": err.Error()}
		if conflict.RunningTodoID != 0 {
			body["running_todo_id"] = conflict.RunningTodoID
		}
		c.JSON(http.StatusConflict, body)
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotRunning), errors.Is(err, services.ErrTodoCompleted), errors.Is(err, services.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("Failed to handle %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
