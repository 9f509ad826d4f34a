package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go-todo-timer/backend/internal/clock"
	"go-todo-timer/backend/internal/models"
	"go-todo-timer/backend/internal/repositories"
	"go-todo-timer/backend/internal/timer"
)

const maxTextLength = 255

// TodoService はTodo関連の操作をまとめます。状態遷移は timer.Engine に任せます。
type TodoService struct {
	engine    *timer.Engine
	todoRepo  *repositories.TodoRepository
	eventRepo *repositories.EventRepository
	tagRepo   *repositories.TagRepository
	clock     clock.Clock
}

// NewTodoService は新しいTodoServiceを作成します。
func NewTodoService(engine *timer.Engine, todoRepo *repositories.TodoRepository, eventRepo *repositories.EventRepository, tagRepo *repositories.TagRepository, clk clock.Clock) *TodoService {
	return &TodoService{
		engine:    engine,
		todoRepo:  todoRepo,
		eventRepo: eventRepo,
		tagRepo:   tagRepo,
		clock:     clk,
	}
}

func normalizeText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &ValidationError{Field: "text", Message: "text is required"}
	}
	if utf8.RuneCountInString(text) > maxTextLength {
		return "", &ValidationError{Field: "text", Message: "text is too long"}
	}
	return text, nil
}

// CreateTodo は新しいTodoを作成します。
func (s *TodoService) CreateTodo(ctx context.Context, ownerID int, text string, description *string) (*models.Todo, error) {
	text, err := normalizeText(text)
	if err != nil {
		return nil, err
	}
	if description != nil && *description == "" {
		description = nil
	}
	todo, err := s.engine.Create(ctx, ownerID, text, description)
	return todo, translate(err)
}

// GetTodoWithTags はTodoとそのタグを取得します。
func (s *TodoService) GetTodoWithTags(ctx context.Context, ownerID, todoID int) (*models.TodoWithTags, error) {
	todo, err := s.todoRepo.FindByID(ctx, todoID, ownerID)
	if err != nil {
		return nil, translate(err)
	}
	tags, err := s.tagRepo.ListByTodo(ctx, todoID, ownerID)
	if err != nil {
		return nil, translate(err)
	}
	return &models.TodoWithTags{Todo: todo, Tags: tags}, nil
}

// ListTodos はユーザーのTodoを取得します。filter は all / open / closed / active です。
func (s *TodoService) ListTodos(ctx context.Context, ownerID int, filter string) ([]*models.Todo, error) {
	f, ok := models.ParseListFilter(filter)
	if !ok {
		return nil, &ValidationError{Field: "filter", Message: "must be one of all, open, closed, active"}
	}
	todos, err := s.todoRepo.List(ctx, ownerID, f)
	return todos, translate(err)
}

// UpdateTodo はタイトルと説明を更新します。空の説明は削除として扱います。
func (s *TodoService) UpdateTodo(ctx context.Context, ownerID, todoID int, text, description *string) (*models.Todo, error) {
	upd := models.TodoUpdate{Description: description}
	if text != nil {
		t, err := normalizeText(*text)
		if err != nil {
			return nil, err
		}
		upd.Text = &t
	}
	if !upd.Empty() {
		if err := s.todoRepo.Update(ctx, todoID, ownerID, upd, s.clock.Now().UTC()); err != nil {
			return nil, translate(err)
		}
	}
	todo, err := s.todoRepo.FindByID(ctx, todoID, ownerID)
	return todo, translate(err)
}

// ToggleCompletion は完了状態を切り替えます。計測中に完了すると経過分を累計に加えます。
func (s *TodoService) ToggleCompletion(ctx context.Context, ownerID, todoID int, completed bool) (*models.Todo, error) {
	var (
		todo *models.Todo
		err  error
	)
	if completed {
		todo, err = s.engine.Complete(ctx, ownerID, todoID)
	} else {
		todo, err = s.engine.Reopen(ctx, ownerID, todoID)
	}
	return todo, translate(err)
}

// StartTimer はタイマーを開始します。既に計測中なら成功として現在のTodoを返します。
func (s *TodoService) StartTimer(ctx context.Context, ownerID, todoID int) (*models.Todo, error) {
	todo, err := s.engine.Start(ctx, ownerID, todoID)
	if errors.Is(err, timer.ErrAlreadyRunning) {
		todo, err = s.todoRepo.FindByID(ctx, todoID, ownerID)
	}
	return todo, translate(err)
}

// PauseTimer はタイマーを一時停止します。
func (s *TodoService) PauseTimer(ctx context.Context, ownerID, todoID int) (*models.Todo, error) {
	todo, err := s.engine.Pause(ctx, ownerID, todoID)
	return todo, translate(err)
}

// AdjustTime は累計時間を手動で調整し、新しい累計を返します。
func (s *TodoService) AdjustTime(ctx context.Context, ownerID, todoID int, operation string, seconds int64) (int64, error) {
	todo, err := s.engine.Adjust(ctx, ownerID, todoID, models.AdjustOperation(operation), seconds)
	if err != nil {
		return 0, translate(err)
	}
	return todo.TotalTimeSeconds, nil
}

// DeleteTodo はTodoを削除します。イベントとタグの関連も削除されます。
func (s *TodoService) DeleteTodo(ctx context.Context, ownerID, todoID int) error {
	return translate(s.todoRepo.Delete(ctx, todoID, ownerID))
}

// ListEvents はTodoのイベントを新しい順に返します。
func (s *TodoService) ListEvents(ctx context.Context, ownerID, todoID int) ([]*models.TimerEvent, error) {
	if _, err := s.todoRepo.FindByID(ctx, todoID, ownerID); err != nil {
		return nil, translate(err)
	}
	events, err := s.eventRepo.ListByTodo(ctx, todoID, ownerID)
	return events, translate(err)
}

// ElapsedNow は表示用の経過時間です。
func (s *TodoService) ElapsedNow(todo *models.Todo) int64 {
	return s.engine.ElapsedNow(todo)
}
