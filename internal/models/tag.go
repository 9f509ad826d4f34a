package models

import "time"

// Tag はユーザーごとのラベルです。
type Tag struct {
	ID        int       `json:"id" db:"id"`
	OwnerID   int       `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateTagRequest はタグ作成リクエストです。
type CreateTagRequest struct {
	Name string `json:"name" binding:"required"`
}

// AttachTagRequest はTodoへのタグ付けリクエストです。
type AttachTagRequest struct {
	TagID int `json:"tag_id" binding:"required"`
}
