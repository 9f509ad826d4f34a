package models

import "time"

// EventType はタイマーイベントの種類です。
type EventType string

const (
	EventCreate         EventType = "create"
	EventComplete       EventType = "complete"
	EventReopen         EventType = "reopen"
	EventStart          EventType = "start"
	EventPause          EventType = "pause"
	EventManualAdd      EventType = "manual_add"
	EventManualSubtract EventType = "manual_subtract"
	EventManualSet      EventType = "manual_set"
)

// TimerEvent は追記専用の監査ログです。
// SecondsChange は手動調整のときだけ設定されます。
type TimerEvent struct {
	ID            int       `json:"id" db:"id"`
	TodoID        int       `json:"todo_id" db:"todo_id"`
	OwnerID       int       `json:"user_id" db:"user_id"`
	EventType     EventType `json:"event_type" db:"event_type"`
	SecondsChange *int64    `json:"seconds_change" db:"seconds_change"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// AdjustOperation は手動調整の種類です。
type AdjustOperation string

const (
	AdjustAdd      AdjustOperation = "add"
	AdjustSubtract AdjustOperation = "subtract"
	AdjustSet      AdjustOperation = "set"
)

// EventType は調整に対応するイベント種別を返します。
func (op AdjustOperation) EventType() (EventType, bool) {
	switch op {
	case AdjustAdd:
		return EventManualAdd, true
	case AdjustSubtract:
		return EventManualSubtract, true
	case AdjustSet:
		return EventManualSet, true
	}
	return "", false
}
