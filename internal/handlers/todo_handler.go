package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-todo-timer/backend/internal/models"
	"go-todo-timer/backend/internal/services"
)

// TodoHandler はTodo関連のハンドラーを管理します。
type TodoHandler struct {
	todoService *services.TodoService
}

// NewTodoHandler は新しいTodoHandlerを作成します。
func NewTodoHandler(todoService *services.TodoService) *TodoHandler {
	return &TodoHandler{todoService: todoService}
}

func (h *TodoHandler) respond(c *gin.Context, status int, todo *models.Todo) {
	c.JSON(status, newTodoResponse(todo, h.todoService.ElapsedNow(todo)))
}

// CreateTodoHandler は新しいTodoを作成します。
func (h *TodoHandler) CreateTodoHandler(c *gin.Context) {
	var req models.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	created, err := h.todoService.CreateTodo(c.Request.Context(), userID, req.Text, req.Description)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	h.respond(c, http.StatusCreated, created)
}

// GetTodosHandler はログインユーザーのTodo一覧を返します。?filter=all|open|closed|active で絞り込めます。
func (h *TodoHandler) GetTodosHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	todos, err := h.todoService.ListTodos(c.Request.Context(), userID, c.Query("filter"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp := make([]todoResponse, 0, len(todos))
	for _, t := range todos {
		resp = append(resp, newTodoResponse(t, h.todoService.ElapsedNow(t)))
	}
	c.JSON(http.StatusOK, resp)
}

// GetTodoByIDHandler はタグ付きでTodoを1件返します。
func (h *TodoHandler) GetTodoByIDHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	todo, err := h.todoService.GetTodoWithTags(c.Request.Context(), userID, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp := newTodoResponse(todo.Todo, h.todoService.ElapsedNow(todo.Todo))
	resp.Tags = todo.Tags
	c.JSON(http.StatusOK, resp)
}

// UpdateTodoHandler はTodoのタイトルと説明を更新します。completed を含む場合は完了状態も切り替えます。
func (h *TodoHandler) UpdateTodoHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	updated, err := h.todoService.UpdateTodo(ctx, userID, id, req.Text, req.Description)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if req.Completed != nil && *req.Completed != updated.Completed() {
		if updated, err = h.todoService.ToggleCompletion(ctx, userID, id, *req.Completed); err != nil {
			writeServiceError(c, err)
			return
		}
	}
	h.respond(c, http.StatusOK, updated)
}

// ToggleCompletionHandler は完了状態を切り替えます。
func (h *TodoHandler) ToggleCompletionHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	todo, err := h.todoService.ToggleCompletion(c.Request.Context(), userID, id, *req.Completed)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	h.respond(c, http.StatusOK, todo)
}

// StartTimerHandler はタイマーを開始します。
// ?switch=true の場合、計測中の別Todoを一時停止してから開始します。
func (h *TodoHandler) StartTimerHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	todo, err := h.todoService.StartTimer(ctx, userID, id)
	var conflict *services.ConflictingTimerError
	if errors.As(err, &conflict) && conflict.RunningTodoID != 0 && c.Query("switch") == "true" {
		if _, err = h.todoService.PauseTimer(ctx, userID, conflict.RunningTodoID); err == nil || errors.Is(err, services.ErrNotRunning) {
			todo, err = h.todoService.StartTimer(ctx, userID, id)
		}
	}
	if err != nil {
		writeServiceError(c, err)
		return
	}
	h.respond(c, http.StatusOK, todo)
}

// PauseTimerHandler はタイマーを一時停止します。
func (h *TodoHandler) PauseTimerHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	todo, err := h.todoService.PauseTimer(c.Request.Context(), userID, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	h.respond(c, http.StatusOK, todo)
}

// AdjustTimeHandler は累計時間を手動で調整します。operation は add / subtract / set です。
func (h *TodoHandler) AdjustTimeHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.AdjustTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	total, err := h.todoService.AdjustTime(c.Request.Context(), userID, id, req.Operation, *req.Seconds)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "total_time_seconds": total})
}

// DeleteTodoHandler はTodoを削除します。
func (h *TodoHandler) DeleteTodoHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.todoService.DeleteTodo(c.Request.Context(), userID, id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetEventsHandler はTodoのイベント履歴を新しい順に返します。
func (h *TodoHandler) GetEventsHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	events, err := h.todoService.ListEvents(c.Request.Context(), userID, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}
