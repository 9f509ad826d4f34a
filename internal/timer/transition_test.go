package timer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-todo-timer/backend/internal/models"
)

var t0 = time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)

func TestElapsedSeconds(t *testing.T) {
	assert.Equal(t, int64(30), elapsedSeconds(t0, t0.Add(30*time.Second)))
	// 秒未満は切り捨て
	assert.Equal(t, int64(1), elapsedSeconds(t0, t0.Add(1999*time.Millisecond)))
	// 時計が戻っても負にならない
	assert.Equal(t, int64(0), elapsedSeconds(t0, t0.Add(-time.Minute)))
}

func TestElapsedAt(t *testing.T) {
	idle := &models.Todo{TotalTimeSeconds: 40, Timer: models.IdleTimer()}
	assert.Equal(t, int64(40), ElapsedAt(idle, t0.Add(time.Hour)))

	running := &models.Todo{TotalTimeSeconds: 40, Timer: models.RunningTimer(t0)}
	assert.Equal(t, int64(45), ElapsedAt(running, t0.Add(5*time.Second)))

	done := &models.Todo{TotalTimeSeconds: 40, Timer: models.DoneTimer()}
	assert.Equal(t, int64(40), ElapsedAt(done, t0.Add(time.Hour)))
}

func TestCheckStart(t *testing.T) {
	idle := &models.Todo{ID: 1, Timer: models.IdleTimer()}
	other := &models.Todo{ID: 2, Timer: models.RunningTimer(t0)}

	assert.NoError(t, checkStart(idle, nil))
	assert.ErrorIs(t, checkStart(&models.Todo{ID: 1, Timer: models.RunningTimer(t0)}, nil), ErrAlreadyRunning)
	assert.ErrorIs(t, checkStart(&models.Todo{ID: 1, Timer: models.DoneTimer()}, nil), ErrTodoCompleted)

	err := checkStart(idle, other)
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, 2, conflict.RunningTodoID)
	assert.ErrorIs(t, err, ErrConflictingTimer)
}

func TestAdjust(t *testing.T) {
	tests := []struct {
		name       string
		total      int64
		op         models.AdjustOperation
		seconds    int64
		wantTotal  int64
		wantChange int64
		wantErr    error
	}{
		{name: "add", total: 10, op: models.AdjustAdd, seconds: 5, wantTotal: 15, wantChange: 5},
		{name: "subtract", total: 10, op: models.AdjustSubtract, seconds: 4, wantTotal: 6, wantChange: -4},
		{name: "subtract clamps at zero", total: 100, op: models.AdjustSubtract, seconds: 150, wantTotal: 0, wantChange: -100},
		{name: "subtract from zero", total: 0, op: models.AdjustSubtract, seconds: 5, wantTotal: 0, wantChange: 0},
		{name: "set lower", total: 50, op: models.AdjustSet, seconds: 20, wantTotal: 20, wantChange: -30},
		{name: "set higher", total: 50, op: models.AdjustSet, seconds: 80, wantTotal: 80, wantChange: 30},
		{name: "zero seconds", total: 50, op: models.AdjustAdd, seconds: 0, wantTotal: 50, wantChange: 0},
		{name: "negative seconds", total: 50, op: models.AdjustAdd, seconds: -1, wantErr: ErrInvalidAmount},
		{name: "unknown operation", total: 50, op: "multiply", seconds: 2, wantErr: ErrUnknownOperation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, change, err := adjust(tt.total, tt.op, tt.seconds)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)
			assert.Equal(t, tt.wantChange, change)
			assert.GreaterOrEqual(t, total, int64(0))
		})
	}
}
