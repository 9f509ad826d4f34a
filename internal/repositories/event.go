package repositories

import (
	"context"
	"fmt"
	"log"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"go-todo-timer/backend/internal/models"
)

// EventRepository はタイマーイベントの追記と参照を行います。更新・削除はしません。
type EventRepository struct {
	db sqlx.ExtContext
}

// NewEventRepository は新しいEventRepositoryを作成します。
func NewEventRepository(db sqlx.ExtContext) *EventRepository {
	return &EventRepository{db: db}
}

// Append はイベントを一件追記します。
func (r *EventRepository) Append(ctx context.Context, e *models.TimerEvent) error {
	query, args, err := sq.Insert("timer_events").
		Columns("todo_id", "user_id", "event_type", "seconds_change", "created_at").
		Values(e.TodoID, e.OwnerID, string(e.EventType), e.SecondsChange, e.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("could not build insert: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Printf("Failed to insert timer event: %v", err)
		return fmt.Errorf("could not insert timer event: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("could not get last insert ID: %w", err)
	}
	e.ID = int(id)
	return nil
}

// ListByTodo はTodoのイベントを新しい順に返します。
func (r *EventRepository) ListByTodo(ctx context.Context, todoID, ownerID int) ([]*models.TimerEvent, error) {
	query, args, err := sq.Select("id", "todo_id", "user_id", "event_type", "seconds_change", "created_at").
		From("timer_events").
		Where(sq.Eq{"todo_id": todoID, "user_id": ownerID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("could not build query: %w", err)
	}

	events := []*models.TimerEvent{}
	if err := sqlx.SelectContext(ctx, r.db, &events, query, args...); err != nil {
		log.Printf("Failed to query timer events: %v", err)
		return nil, fmt.Errorf("could not query timer events: %w", err)
	}
	return events, nil
}
