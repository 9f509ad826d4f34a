// Package modelsはTodoとタイマーイベントを定義します。
package models

import (
	"time"
)

// Todo はユーザーが所有するタスクです。
// Timer はJSONに直接出さず、ハンドラーが state / timer_started_at に展開します。
type Todo struct {
	ID               int       `json:"id,omitempty"`
	OwnerID          int       `json:"user_id"`
	Text             string    `json:"text"`
	Description      *string   `json:"description"`
	TotalTimeSeconds int64     `json:"total_time_seconds"`
	Timer            Timer     `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Completed は完了済みかどうかを返します。
func (t *Todo) Completed() bool { return t.Timer.Completed() }

// TodoUpdate は部分更新で変更するフィールドです。nil のフィールドは変更しません。
// タイマー関連のフィールドは timer.Engine だけが変更します。
type TodoUpdate struct {
	Text        *string
	Description *string
}

// Empty は変更対象がないかどうかを返します。
func (u TodoUpdate) Empty() bool {
	return u.Text == nil && u.Description == nil
}

// ListFilter は一覧取得の絞り込み条件です。
type ListFilter string

const (
	FilterAll    ListFilter = "all"
	FilterOpen   ListFilter = "open"
	FilterClosed ListFilter = "closed"
	FilterActive ListFilter = "active"
)

// ParseListFilter は文字列を ListFilter に変換します。空文字は all です。
func ParseListFilter(s string) (ListFilter, bool) {
	switch ListFilter(s) {
	case "", FilterAll:
		return FilterAll, true
	case FilterOpen, FilterClosed, FilterActive:
		return ListFilter(s), true
	}
	return "", false
}

// TodoWithTags はタグ付きのTodoです。
type TodoWithTags struct {
	*Todo
	Tags []*Tag
}

// CreateTodoRequest はTodo作成リクエストです。
type CreateTodoRequest struct {
	Text        string  `json:"text" binding:"required"`
	Description *string `json:"description"`
}

// UpdateTodoRequest はTodo更新リクエストです。completed を含む場合は完了状態も切り替えます。
type UpdateTodoRequest struct {
	Text        *string `json:"text"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// CompletionRequest は完了状態の切り替えリクエストです。
type CompletionRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

// AdjustTimeRequest は手動での時間調整リクエストです。
type AdjustTimeRequest struct {
	Operation string `json:"operation" binding:"required"`
	Seconds   *int64 `json:"seconds" binding:"required"`
}
