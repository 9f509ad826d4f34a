// Package timer はTodoのタイマー計測を扱います。
//
// 所有者ごとに計測中のTodoは一つまでです。状態を変える操作はすべて所有者単位の排他の中で
// 一つのトランザクションとして実行し、Todoの更新とイベントの追記は両方残るか両方残らないかのどちらかです。
// 経過時間はバックグラウンドで数えず、timer_started_at と現在時刻から都度計算します。
package timer

import (
	"context"
	"errors"
	"log"
	"time"

	"go-todo-timer/backend/internal/clock"
	"go-todo-timer/backend/internal/models"
	"go-todo-timer/backend/internal/repositories"
)

// Transactor はリポジトリ群をトランザクションで束ねて実行します。
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(uow *repositories.UnitOfWork) error) error
}

// Engine はタイマーの状態遷移を行います。timer_started_at と累計時間を変更するのは Engine だけです。
type Engine struct {
	store Transactor
	clock clock.Clock
	locks *ownerLocks
}

// NewEngine は新しいEngineを作成します。
func NewEngine(store Transactor, clk clock.Clock) *Engine {
	return &Engine{store: store, clock: clk, locks: newOwnerLocks()}
}

// ElapsedNow は現在時刻での表示用経過時間を返します。
func (e *Engine) ElapsedNow(todo *models.Todo) int64 {
	return ElapsedAt(todo, e.clock.Now())
}

// Create はTodoを作成し、create イベントを記録します。
func (e *Engine) Create(ctx context.Context, ownerID int, text string, description *string) (*models.Todo, error) {
	var created *models.Todo
	err := e.mutate(ctx, ownerID, func(uow *repositories.UnitOfWork, now time.Time) error {
		todo, err := uow.Todos.Create(ctx, &models.Todo{
			OwnerID:     ownerID,
			Text:        text,
			Description: description,
			Timer:       models.IdleTimer(),
			CreatedAt:   now,
		})
		if err != nil {
			return err
		}
		if err := appendEvent(ctx, uow, todo, models.EventCreate, nil, now); err != nil {
			return err
		}
		created = todo
		return nil
	})
	return created, err
}

// Start はタイマーを開始します。
// 計測中なら ErrAlreadyRunning、完了済みなら ErrTodoCompleted、
// 同じ所有者の別Todoが計測中なら *ConflictError を返します。
func (e *Engine) Start(ctx context.Context, ownerID, todoID int) (*models.Todo, error) {
	return e.transition(ctx, ownerID, todoID, func(uow *repositories.UnitOfWork, todo *models.Todo, now time.Time) error {
		var running *models.Todo
		if todo.Timer.State() == models.TimerIdle {
			var err error
			if running, err = uow.Todos.FindRunningByOwner(ctx, ownerID); err != nil {
				return err
			}
		}
		if err := checkStart(todo, running); err != nil {
			return err
		}

		timer := models.RunningTimer(now)
		if err := uow.Todos.SaveTimer(ctx, todo.ID, ownerID, todo.TotalTimeSeconds, timer, now); err != nil {
			if errors.Is(err, repositories.ErrRunningTimerExists) {
				return &ConflictError{}
			}
			return err
		}
		todo.Timer = timer
		return appendEvent(ctx, uow, todo, models.EventStart, nil, now)
	})
}

// Pause はタイマーを止め、経過秒数を累計に加えます。計測中でなければ ErrNotRunning です。
func (e *Engine) Pause(ctx context.Context, ownerID, todoID int) (*models.Todo, error) {
	return e.transition(ctx, ownerID, todoID, func(uow *repositories.UnitOfWork, todo *models.Todo, now time.Time) error {
		if !todo.Timer.Running() {
			return ErrNotRunning
		}
		total := stop(todo, now)
		if err := uow.Todos.SaveTimer(ctx, todo.ID, ownerID, total, models.IdleTimer(), now); err != nil {
			return err
		}
		todo.TotalTimeSeconds = total
		todo.Timer = models.IdleTimer()
		return appendEvent(ctx, uow, todo, models.EventPause, nil, now)
	})
}

// Complete はTodoを完了にします。計測中なら経過分を累計に加えてから止めます。
// 既に完了済みなら何もしません。
func (e *Engine) Complete(ctx context.Context, ownerID, todoID int) (*models.Todo, error) {
	return e.transition(ctx, ownerID, todoID, func(uow *repositories.UnitOfWork, todo *models.Todo, now time.Time) error {
		if todo.Completed() {
			return nil
		}
		total := stop(todo, now)
		if err := uow.Todos.SaveTimer(ctx, todo.ID, ownerID, total, models.DoneTimer(), now); err != nil {
			return err
		}
		todo.TotalTimeSeconds = total
		todo.Timer = models.DoneTimer()
		return appendEvent(ctx, uow, todo, models.EventComplete, nil, now)
	})
}

// Reopen は完了済みのTodoを未完了に戻します。完了済みでなければ何もしません。
func (e *Engine) Reopen(ctx context.Context, ownerID, todoID int) (*models.Todo, error) {
	return e.transition(ctx, ownerID, todoID, func(uow *repositories.UnitOfWork, todo *models.Todo, now time.Time) error {
		if !todo.Completed() {
			return nil
		}
		if err := uow.Todos.SaveTimer(ctx, todo.ID, ownerID, todo.TotalTimeSeconds, models.IdleTimer(), now); err != nil {
			return err
		}
		todo.Timer = models.IdleTimer()
		return appendEvent(ctx, uow, todo, models.EventReopen, nil, now)
	})
}

// Adjust は累計時間を手動で調整します。タイマーの状態は変えません。
func (e *Engine) Adjust(ctx context.Context, ownerID, todoID int, op models.AdjustOperation, seconds int64) (*models.Todo, error) {
	eventType, ok := op.EventType()
	if !ok {
		return nil, ErrUnknownOperation
	}
	if seconds < 0 {
		return nil, ErrInvalidAmount
	}
	return e.transition(ctx, ownerID, todoID, func(uow *repositories.UnitOfWork, todo *models.Todo, now time.Time) error {
		total, change, err := adjust(todo.TotalTimeSeconds, op, seconds)
		if err != nil {
			return err
		}
		if err := uow.Todos.SaveTimer(ctx, todo.ID, ownerID, total, todo.Timer, now); err != nil {
			return err
		}
		todo.TotalTimeSeconds = total
		return appendEvent(ctx, uow, todo, eventType, &change, now)
	})
}

// transition は所有者のTodoを読み込み、fn で状態を変えます。
// fn がエラーを返すとトランザクションはロールバックされます。
func (e *Engine) transition(ctx context.Context, ownerID, todoID int, fn func(uow *repositories.UnitOfWork, todo *models.Todo, now time.Time) error) (*models.Todo, error) {
	var result *models.Todo
	err := e.mutate(ctx, ownerID, func(uow *repositories.UnitOfWork, now time.Time) error {
		todo, err := uow.Todos.FindByID(ctx, todoID, ownerID)
		if err != nil {
			return err
		}
		if err := fn(uow, todo, now); err != nil {
			return err
		}
		result = todo
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) mutate(ctx context.Context, ownerID int, fn func(uow *repositories.UnitOfWork, now time.Time) error) error {
	unlock := e.locks.lock(ownerID)
	defer unlock()

	// DATETIME(6) に合わせてマイクロ秒で切り捨てる
	now := e.clock.Now().UTC().Truncate(time.Microsecond)
	return e.store.WithTransaction(ctx, func(uow *repositories.UnitOfWork) error {
		return fn(uow, now)
	})
}

func appendEvent(ctx context.Context, uow *repositories.UnitOfWork, todo *models.Todo, eventType models.EventType, change *int64, now time.Time) error {
	if err := uow.Events.Append(ctx, &models.TimerEvent{
		TodoID:        todo.ID,
		OwnerID:       todo.OwnerID,
		EventType:     eventType,
		SecondsChange: change,
		CreatedAt:     now,
	}); err != nil {
		return err
	}
	todo.UpdatedAt = now
	log.Printf("timer event %s: todo=%d owner=%d total=%ds", eventType, todo.ID, todo.OwnerID, todo.TotalTimeSeconds)
	return nil
}
