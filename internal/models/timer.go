package models

import "time"

// TimerState はTodoのタイマー状態です。
type TimerState int

const (
	// TimerIdle は未完了でタイマー停止中の状態です。
	TimerIdle TimerState = iota
	// TimerRunning はタイマー計測中の状態です。
	TimerRunning
	// TimerDone は完了済みの状態です。タイマーは操作できません。
	TimerDone
)

// String は状態名を返します。
func (s TimerState) String() string {
	switch s {
	case TimerRunning:
		return "running"
	case TimerDone:
		return "done"
	default:
		return "idle"
	}
}

// Timer は completed と timer_started_at の組み合わせを一つの値で表します。
// 完了済みかつ計測中という組み合わせは作れません。ゼロ値は Idle です。
type Timer struct {
	state     TimerState
	startedAt time.Time
}

// IdleTimer は停止中のタイマーを返します。
func IdleTimer() Timer { return Timer{state: TimerIdle} }

// RunningTimer は at から計測中のタイマーを返します。
func RunningTimer(at time.Time) Timer { return Timer{state: TimerRunning, startedAt: at} }

// DoneTimer は完了済みを返します。
func DoneTimer() Timer { return Timer{state: TimerDone} }

// State は現在の状態を返します。
func (t Timer) State() TimerState { return t.state }

// StartedAt は計測開始時刻を返します。計測中でなければ ok は false です。
func (t Timer) StartedAt() (at time.Time, ok bool) {
	if t.state != TimerRunning {
		return time.Time{}, false
	}
	return t.startedAt, true
}

// Running は計測中かどうかを返します。
func (t Timer) Running() bool { return t.state == TimerRunning }

// Completed は完了済みかどうかを返します。
func (t Timer) Completed() bool { return t.state == TimerDone }
