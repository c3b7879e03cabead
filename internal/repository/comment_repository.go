package repository

import (
	"context"
	"fmt"
	"strings"

	"collab_web/internal/models"
	"collab_web/internal/policy"
	"collab_web/internal/storage"
)

type CommentPatch struct {
	TaskID uint // 只在建立時使用
	Text   string
}

type CommentRepository interface {
	Fetch(ctx context.Context, id uint) (*models.Comment, error)
	Apply(ctx context.Context, m Mutation) (interface{}, error)
	ListOwnedBy(ctx context.Context, ownerID uint) ([]uint, error)
	DeleteAll(ctx context.Context) (int64, error)
	ListByTask(ctx context.Context, taskID uint) ([]models.Comment, error)
	FindAll(ctx context.Context) ([]models.Comment, error)
	Count(ctx context.Context) (int64, error)
}

type commentRepository struct {
	ownedRepository[models.Comment]
}

func NewCommentRepository(db *storage.DB) CommentRepository {
	return &commentRepository{ownedRepository[models.Comment]{db: db}}
}

func (r *commentRepository) Fetch(ctx context.Context, id uint) (*models.Comment, error) {
	return r.find(ctx, id)
}

func (r *commentRepository) Apply(ctx context.Context, m Mutation) (interface{}, error) {
	switch m.Action {
	case policy.ActionCreate:
		p, ok := m.Patch.(CommentPatch)
		if !ok {
			return nil, patchError("CommentPatch", m.Patch)
		}
		text := strings.TrimSpace(p.Text)
		if text == "" {
			return nil, fmt.Errorf("%w: comment text is required", ErrInvalidPatch)
		}
		// 留言必須掛在存在的任務底下
		if _, err := (ownedRepository[models.Task]{db: r.db}).find(ctx, p.TaskID); err != nil {
			return nil, err
		}
		comment := models.Comment{TaskID: p.TaskID, Text: text, CreatedBy: m.ActorID}
		if err := r.db.WithContext(ctx).Create(&comment).Error; err != nil {
			return nil, translate(err)
		}
		return &comment, nil

	case policy.ActionRead:
		return r.find(ctx, m.ID)

	case policy.ActionUpdate:
		p, ok := m.Patch.(CommentPatch)
		if !ok {
			return nil, patchError("CommentPatch", m.Patch)
		}
		text := strings.TrimSpace(p.Text)
		if text == "" {
			return nil, fmt.Errorf("%w: comment text is required", ErrInvalidPatch)
		}
		comment, err := r.find(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		comment.Text = text
		if err := r.db.WithContext(ctx).Save(comment).Error; err != nil {
			return nil, translate(err)
		}
		return comment, nil

	case policy.ActionDelete:
		return nil, r.delete(ctx, m.ID)
	}
	return nil, fmt.Errorf("comment repository: unsupported action %q", m.Action)
}

func (r *commentRepository) ListByTask(ctx context.Context, taskID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).Where("task_id = ?", taskID).Order("created_at DESC").Find(&comments).Error
	return comments, err
}

func (r *commentRepository) FindAll(ctx context.Context) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&comments).Error
	return comments, err
}
