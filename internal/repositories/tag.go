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
	ErrTagNotFound  = errors.New("tag not found")
	ErrDuplicateTag = errors.New("duplicate tag")
)

// TagRepository はタグとTodoへのタグ付けを扱います。
type TagRepository struct {
	db sqlx.ExtContext
}

// NewTagRepository は新しいTagRepositoryを作成します。
func NewTagRepository(db sqlx.ExtContext) *TagRepository {
	return &TagRepository{db: db}
}

// Create は所有者のタグを作成します。同名のタグがあれば ErrDuplicateTag を返します。
func (r *TagRepository) Create(ctx context.Context, ownerID int, name string, now time.Time) (*models.Tag, error) {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO tags (user_id, name, created_at) VALUES (?, ?, ?)",
		ownerID, name, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateTag
		}
		log.Printf("Failed to insert tag: %v", err)
		return nil, fmt.Errorf("could not insert tag: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("could not get last insert ID: %w", err)
	}
	return &models.Tag{ID: int(id), OwnerID: ownerID, Name: name, CreatedAt: now}, nil
}

// FindByID は所有者のタグを取得します。
func (r *TagRepository) FindByID(ctx context.Context, id, ownerID int) (*models.Tag, error) {
	var tag models.Tag
	err := sqlx.GetContext(ctx, r.db, &tag,
		"SELECT id, user_id, name, created_at FROM tags WHERE id = ? AND user_id = ?",
		id, ownerID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTagNotFound
		}
		return nil, fmt.Errorf("could not query tag: %w", err)
	}
	return &tag, nil
}

// ListByOwner は所有者のタグを名前順に返します。
func (r *TagRepository) ListByOwner(ctx context.Context, ownerID int) ([]*models.Tag, error) {
	tags := []*models.Tag{}
	err := sqlx.SelectContext(ctx, r.db, &tags,
		"SELECT id, user_id, name, created_at FROM tags WHERE user_id = ? ORDER BY name",
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("could not query tags: %w", err)
	}
	return tags, nil
}

// ListByTodo はTodoに付いたタグを名前順に返します。
func (r *TagRepository) ListByTodo(ctx context.Context, todoID, ownerID int) ([]*models.Tag, error) {
	query, args, err := sq.Select("t.id", "t.user_id", "t.name", "t.created_at").
		From("tags t").
		Join("todo_tags tt ON tt.tag_id = t.id").
		Where(sq.Eq{"tt.todo_id": todoID, "t.user_id": ownerID}).
		OrderBy("t.name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("could not build query: %w", err)
	}

	tags := []*models.Tag{}
	if err := sqlx.SelectContext(ctx, r.db, &tags, query, args...); err != nil {
		return nil, fmt.Errorf("could not query todo tags: %w", err)
	}
	return tags, nil
}

// Attach はTodoにタグを付けます。既に付いていれば何もしません。
func (r *TagRepository) Attach(ctx context.Context, todoID, tagID int) error {
	_, err := r.db.ExecContext(ctx, "INSERT INTO todo_tags (todo_id, tag_id) VALUES (?, ?)", todoID, tagID)
	if err != nil && !isUniqueViolation(err) {
		log.Printf("Failed to attach tag: %v", err)
		return fmt.Errorf("could not attach tag: %w", err)
	}
	return nil
}

// Detach はTodoからタグを外します。
func (r *TagRepository) Detach(ctx context.Context, todoID, tagID int) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM todo_tags WHERE todo_id = ? AND tag_id = ?", todoID, tagID)
	if err != nil {
		return fmt.Errorf("could not detach tag: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if n == 0 {
		return ErrTagNotFound
	}
	return nil
}
