package timer

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning は同じTodoのタイマーが既に計測中の場合です。状態は変わりません。
	ErrAlreadyRunning = errors.New("timer already running")
	// ErrNotRunning は計測中でないTodoを一時停止しようとした場合です。
	ErrNotRunning = errors.New("timer not running")
	// ErrTodoCompleted は完了済みのTodoでタイマーを開始しようとした場合です。
	ErrTodoCompleted = errors.New("todo is completed")
	// ErrInvalidAmount は手動調整の秒数が負の場合です。
	ErrInvalidAmount = errors.New("seconds must be a non-negative number")
	// ErrUnknownOperation は手動調整の種類が不明な場合です。
	ErrUnknownOperation = errors.New("unknown adjust operation")
	// ErrConflictingTimer は同じ所有者の別のTodoが計測中の場合です。*ConflictError で判定してください。
	ErrConflictingTimer = errors.New("another timer is running")
)

// ConflictError は計測中の別Todoを示します。
// RunningTodoID が 0 の場合は、データベースの一意制約で競合を検出したため相手が不明です。
type ConflictError struct {
	RunningTodoID int
}

func (e *ConflictError) Error() string {
	if e.RunningTodoID == 0 {
		return ErrConflictingTimer.Error()
	}
	return fmt.Sprintf("%s: todo %d", ErrConflictingTimer, e.RunningTodoID)
}

// Is で errors.Is(err, ErrConflictingTimer) を成立させます。
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflictingTimer
}
