package timer

import (
	"time"

	"go-todo-timer/backend/internal/models"
)

// elapsedSeconds は startedAt から now までの経過秒数です。時計が戻った場合は 0 です。
func elapsedSeconds(startedAt, now time.Time) int64 {
	d := now.Sub(startedAt)
	if d <= 0 {
		return 0
	}
	return int64(d / time.Second)
}

// ElapsedAt は now 時点の表示用経過時間です。計測中なら累計に経過分を足します。永続化はしません。
func ElapsedAt(todo *models.Todo, now time.Time) int64 {
	if at, ok := todo.Timer.StartedAt(); ok {
		return todo.TotalTimeSeconds + elapsedSeconds(at, now)
	}
	return todo.TotalTimeSeconds
}

// checkStart は開始できるかを判定します。running は同じ所有者の計測中Todo (無ければ nil) です。
func checkStart(todo, running *models.Todo) error {
	switch todo.Timer.State() {
	case models.TimerDone:
		return ErrTodoCompleted
	case models.TimerRunning:
		return ErrAlreadyRunning
	}
	if running != nil && running.ID != todo.ID {
		return &ConflictError{RunningTodoID: running.ID}
	}
	return nil
}

// stop は計測中なら経過分を累計に加えた値を返します。
func stop(todo *models.Todo, now time.Time) int64 {
	return ElapsedAt(todo, now)
}

// adjust は手動調整後の累計と記録する差分を計算します。
// subtract は 0 で止め、差分は実際に減った秒数です。
func adjust(total int64, op models.AdjustOperation, seconds int64) (newTotal, change int64, err error) {
	if seconds < 0 {
		return 0, 0, ErrInvalidAmount
	}
	switch op {
	case models.AdjustAdd:
		return total + seconds, seconds, nil
	case models.AdjustSubtract:
		removed := min(seconds, total)
		return total - removed, -removed, nil
	case models.AdjustSet:
		return seconds, seconds - total, nil
	}
	return 0, 0, ErrUnknownOperation
}
