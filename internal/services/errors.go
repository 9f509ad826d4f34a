package services

import (
	"errors"
	"fmt"

	"go-todo-timer/backend/internal/repositories"
	"go-todo-timer/backend/internal/timer"
)

// 呼び出し側 (HTTP層) に見せるエラーです。errors.Is で判定します。
var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrConflictingTimer = errors.New("another todo's timer is running; pause it first")
	ErrNotRunning       = errors.New("timer is not running")
	ErrTodoCompleted    = errors.New("todo is completed; reopen it before starting the timer")
	ErrDuplicate        = errors.New("already exists")
)

// ValidationError は不正な入力です。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConflictingTimerError は計測中の別Todoを示します。RunningTodoID が 0 なら不明です。
type ConflictingTimerError struct {
	RunningTodoID int
}

func (e *ConflictingTimerError) Error() string { return ErrConflictingTimer.Error() }

func (e *ConflictingTimerError) Is(target error) bool { return target == ErrConflictingTimer }

// translate は下位層のエラーを呼び出し側のエラーに変換します。
func translate(err error) error {
	if err == nil {
		return nil
	}
	var conflict *timer.ConflictError
	switch {
	case errors.As(err, &conflict):
		return &ConflictingTimerError{RunningTodoID: conflict.RunningTodoID}
	case errors.Is(err, timer.ErrNotRunning):
		return ErrNotRunning
	case errors.Is(err, timer.ErrTodoCompleted):
		return ErrTodoCompleted
	case errors.Is(err, timer.ErrInvalidAmount):
		return &ValidationError{Field: "seconds", Message: err.Error()}
	case errors.Is(err, timer.ErrUnknownOperation):
		return &ValidationError{Field: "operation", Message: "must be one of add, subtract, set"}
	case errors.Is(err, repositories.ErrTodoNotFound), errors.Is(err, repositories.ErrTagNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, repositories.ErrDuplicateTag):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return fmt.Errorf("internal error: %w", err)
}
