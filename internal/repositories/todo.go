package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"go-todo-timer/backend/internal/models"
)

var (
	// ErrTodoNotFound はTODOが見つからない場合のエラーです。他ユーザーのTODOも同じ扱いです。
	ErrTodoNotFound = errors.New("todo not found")
	// ErrRunningTimerExists は所有者に計測中のTODOが既にある場合のエラーです。
	ErrRunningTimerExists = errors.New("another timer is already running for this owner")
)

var todoColumns = []string{
	"id", "user_id", "text", "description", "completed",
	"total_time_seconds", "timer_started_at", "created_at", "updated_at",
}

// todoRow は todos テーブルの一行です。
type todoRow struct {
	ID               int            `db:"id"`
	OwnerID          int            `db:"user_id"`
	Text             string         `db:"text"`
	Description      sql.NullString `db:"description"`
	Completed        bool           `db:"completed"`
	TotalTimeSeconds int64          `db:"total_time_seconds"`
	TimerStartedAt   sql.NullTime   `db:"timer_started_at"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (r *todoRow) toModel() *models.Todo {
	t := &models.Todo{
		ID:               r.ID,
		OwnerID:          r.OwnerID,
		Text:             r.Text,
		TotalTimeSeconds: r.TotalTimeSeconds,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if r.Description.Valid {
		d := r.Description.String
		t.Description = &d
	}
	switch {
	case r.Completed:
		t.Timer = models.DoneTimer()
	case r.TimerStartedAt.Valid:
		t.Timer = models.RunningTimer(r.TimerStartedAt.Time)
	default:
		t.Timer = models.IdleTimer()
	}
	return t
}

// timerColumns は Timer を completed / timer_started_at 列の値に変換します。
func timerColumns(timer models.Timer) (bool, sql.NullTime) {
	if at, ok := timer.StartedAt(); ok {
		return false, sql.NullTime{Time: at, Valid: true}
	}
	return timer.Completed(), sql.NullTime{}
}

func nullableString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// TodoRepository はTodoの永続化を行います。すべての操作は所有者で絞り込みます。
type TodoRepository struct {
	db sqlx.ExtContext
}

// NewTodoRepository は新しいTodoRepositoryを作成します。db には *sqlx.DB と *sqlx.Tx のどちらも渡せます。
func NewTodoRepository(db sqlx.ExtContext) *TodoRepository {
	return &TodoRepository{db: db}
}

// Create は新しいTodoを挿入し、IDを設定して返します。CreatedAt は呼び出し側が設定します。
func (r *TodoRepository) Create(ctx context.Context, t *models.Todo) (*models.Todo, error) {
	completed, startedAt := timerColumns(t.Timer)
	query, args, err := sq.Insert("todos").
		Columns("user_id", "text", "description", "completed", "total_time_seconds", "timer_started_at", "created_at", "updated_at").
		Values(t.OwnerID, t.Text, nullableString(t.Description), completed, t.TotalTimeSeconds, startedAt, t.CreatedAt, t.CreatedAt).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("could not build insert: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Printf("Failed to insert todo: %v", err)
		return nil, fmt.Errorf("could not insert todo: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("could not get last insert ID: %w", err)
	}
	t.ID = int(id)
	t.UpdatedAt = t.CreatedAt
	return t, nil
}

// FindByID は所有者のTodoを取得します。
func (r *TodoRepository) FindByID(ctx context.Context, id, ownerID int) (*models.Todo, error) {
	query, args, err := sq.Select(todoColumns...).
		From("todos").
		Where(sq.Eq{"id": id, "user_id": ownerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("could not build query: %w", err)
	}

	var row todoRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTodoNotFound
		}
		log.Printf("Failed to query todo by ID: %v", err)
		return nil, fmt.Errorf("could not query todo: %w", err)
	}
	return row.toModel(), nil
}

// FindRunningByOwner は所有者の計測中Todoを返します。無ければ nil を返します。
func (r *TodoRepository) FindRunningByOwner(ctx context.Context, ownerID int) (*models.Todo, error) {
	query, args, err := sq.Select(todoColumns...).
		From("todos").
		Where(sq.Eq{"user_id": ownerID}).
		Where(sq.NotEq{"timer_started_at": nil}).
		OrderBy("id").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("could not build query: %w", err)
	}

	var row todoRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		log.Printf("Failed to query running todo: %v", err)
		return nil, fmt.Errorf("could not query running todo: %w", err)
	}
	return row.toModel(), nil
}

// List は所有者のTodoを作成日時の新しい順に返します。
func (r *TodoRepository) List(ctx context.Context, ownerID int, filter models.ListFilter) ([]*models.Todo, error) {
	builder := sq.Select(todoColumns...).
		From("todos").
		Where(sq.Eq{"user_id": ownerID}).
		OrderBy("created_at DESC", "id DESC")

	switch filter {
	case models.FilterOpen:
		builder = builder.Where(sq.Eq{"completed": false})
	case models.FilterClosed:
		builder = builder.Where(sq.Eq{"completed": true})
	case models.FilterActive:
		builder = builder.Where(sq.NotEq{"timer_started_at": nil})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("could not build query: %w", err)
	}

	var rows []todoRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		log.Printf("Failed to query todos: %v", err)
		return nil, fmt.Errorf("could not query todos: %w", err)
	}

	todos := make([]*models.Todo, 0, len(rows))
	for i := range rows {
		todos = append(todos, rows[i].toModel())
	}
	return todos, nil
}

// Update は表示用フィールドを部分更新します。
func (r *TodoRepository) Update(ctx context.Context, id, ownerID int, upd models.TodoUpdate, now time.Time) error {
	builder := sq.Update("todos").
		Set("updated_at", now).
		Where(sq.Eq{"id": id, "user_id": ownerID})
	if upd.Text != nil {
		builder = builder.Set("text", *upd.Text)
	}
	if upd.Description != nil {
		builder = builder.Set("description", nullableString(upd.Description))
	}
	return r.exec(ctx, builder, "update todo")
}

// SaveTimer は累計時間とタイマー状態を書き込みます。
// 一意制約により所有者ごとの計測中は一件に制限され、違反時は ErrRunningTimerExists を返します。
func (r *TodoRepository) SaveTimer(ctx context.Context, id, ownerID int, totalSeconds int64, timer models.Timer, now time.Time) error {
	completed, startedAt := timerColumns(timer)
	builder := sq.Update("todos").
		Set("total_time_seconds", totalSeconds).
		Set("completed", completed).
		Set("timer_started_at", startedAt).
		Set("updated_at", now).
		Where(sq.Eq{"id": id, "user_id": ownerID})

	err := r.exec(ctx, builder, "save timer")
	if isUniqueViolation(err) {
		return ErrRunningTimerExists
	}
	return err
}

// Delete は所有者のTodoを削除します。イベントとタグの関連は外部キーで削除されます。
func (r *TodoRepository) Delete(ctx context.Context, id, ownerID int) error {
	builder := sq.Delete("todos").Where(sq.Eq{"id": id, "user_id": ownerID})
	return r.exec(ctx, builder, "delete todo")
}

func (r *TodoRepository) exec(ctx context.Context, builder sq.Sqlizer, op string) error {
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("could not build %s: %w", op, err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Printf("Failed to %s: %v", op, err)
		return fmt.Errorf("could not %s: %w", op, err)
	}

	// 更新された行数を確認
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTodoNotFound
	}
	return nil
}
