package services

import (
	"context"
	"strings"

	"go-todo-timer/backend/internal/clock"
	"go-todo-timer/backend/internal/models"
	"go-todo-timer/backend/internal/repositories"
)

// TagService はタグの作成とTodoへのタグ付けを扱います。
type TagService struct {
	tagRepo  *repositories.TagRepository
	todoRepo *repositories.TodoRepository
	clock    clock.Clock
}

// NewTagService は新しいTagServiceを作成します。
func NewTagService(tagRepo *repositories.TagRepository, todoRepo *repositories.TodoRepository, clk clock.Clock) *TagService {
	return &TagService{tagRepo: tagRepo, todoRepo: todoRepo, clock: clk}
}

// CreateTag はタグを作成します。
func (s *TagService) CreateTag(ctx context.Context, ownerID int, name string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return nil, &ValidationError{Field: "name", Message: "name must be 1 to 100 characters"}
	}
	tag, err := s.tagRepo.Create(ctx, ownerID, name, s.clock.Now().UTC())
	return tag, translate(err)
}

// ListTags はユーザーのタグを返します。
func (s *TagService) ListTags(ctx context.Context, ownerID int) ([]*models.Tag, error) {
	tags, err := s.tagRepo.ListByOwner(ctx, ownerID)
	return tags, translate(err)
}

// AttachTag はTodoにタグを付けます。Todoとタグはどちらも本人のものである必要があります。
func (s *TagService) AttachTag(ctx context.Context, ownerID, todoID, tagID int) error {
	if err := s.checkOwnership(ctx, ownerID, todoID, tagID); err != nil {
		return err
	}
	return translate(s.tagRepo.Attach(ctx, todoID, tagID))
}

// DetachTag はTodoからタグを外します。
func (s *TagService) DetachTag(ctx context.Context, ownerID, todoID, tagID int) error {
	if err := s.checkOwnership(ctx, ownerID, todoID, tagID); err != nil {
		return err
	}
	return translate(s.tagRepo.Detach(ctx, todoID, tagID))
}

func (s *TagService) checkOwnership(ctx context.Context, ownerID, todoID, tagID int) error {
	if _, err := s.todoRepo.FindByID(ctx, todoID, ownerID); err != nil {
		return translate(err)
	}
	if _, err := s.tagRepo.FindByID(ctx, tagID, ownerID); err != nil {
		return translate(err)
	}
	return nil
}
