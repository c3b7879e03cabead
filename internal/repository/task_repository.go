package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"collab_web/internal/models"
	"collab_web/internal/policy"
	"collab_web/internal/storage"
)

// TaskPatch 是建立或更新任務時的欄位，nil 表示不修改
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus
	Priority    *models.TaskPriority
	DueDate     *time.Time
	AssignedTo  *uint
	ProjectID   *uint
	Progress    *int
}

func (p TaskPatch) applyTo(t *models.Task, now time.Time) error {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return fmt.Errorf("%w: unknown status %q", ErrInvalidPatch, *p.Status)
		}
		t.Status = *p.Status
	}
	if p.Priority != nil {
		if !p.Priority.Valid() {
			return fmt.Errorf("%w: unknown priority %q", ErrInvalidPatch, *p.Priority)
		}
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	if p.AssignedTo != nil {
		// 0 代表取消指派
		if *p.AssignedTo == 0 {
			t.AssignedTo = nil
		} else {
			t.AssignedTo = p.AssignedTo
		}
	}
	if p.ProjectID != nil {
		t.ProjectID = p.ProjectID
	}
	if p.Progress != nil {
		if *p.Progress < 0 || *p.Progress > 100 {
			return fmt.Errorf("%w: progress must be within 0-100", ErrInvalidPatch)
		}
		t.Progress = *p.Progress
		t.ProgressUpdatedAt = now
	}
	if t.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidPatch)
	}
	return nil
}

type TaskRepository interface {
	Fetch(ctx context.Context, id uint) (*models.Task, error)
	Apply(ctx context.Context, m Mutation) (interface{}, error)
	ListOwnedBy(ctx context.Context, ownerID uint) ([]uint, error)
	DeleteAll(ctx context.Context) (int64, error)
	List(ctx context.Context, scope policy.Scope) ([]models.Task, error)
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status models.TaskStatus) (int64, error)
	CountOverdue(ctx context.Context, now time.Time) (int64, error)
}

type taskRepository struct {
	ownedRepository[models.Task]
	now func() time.Time
}

func NewTaskRepository(db *storage.DB) TaskRepository {
	return &taskRepository{ownedRepository: ownedRepository[models.Task]{db: db}, now: time.Now}
}

func (r *taskRepository) Fetch(ctx context.Context, id uint) (*models.Task, error) {
	return r.find(ctx, id)
}

func (r *taskRepository) Apply(ctx context.Context, m Mutation) (interface{}, error) {
	switch m.Action {
	case policy.ActionCreate:
		p, ok := m.Patch.(TaskPatch)
		if !ok {
			return nil, patchError("TaskPatch", m.Patch)
		}
		now := r.now()
		task := models.Task{
			CreatedBy:         m.ActorID,
			Status:            models.TaskStatusTodo,
			Priority:          models.PriorityMedium,
			ProgressUpdatedAt: now,
		}
		if err := p.applyTo(&task, now); err != nil {
			return nil, err
		}
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&task).Error; err != nil {
				return err
			}
			return tx.Model(&models.User{}).Where("id = ?", m.ActorID).
				UpdateColumn("tasks_created", gorm.Expr("tasks_created + 1")).Error
		})
		if err != nil {
			return nil, translate(err)
		}
		return &task, nil

	case policy.ActionRead:
		return r.find(ctx, m.ID)

	case policy.ActionUpdate:
		p, ok := m.Patch.(TaskPatch)
		if !ok {
			return nil, patchError("TaskPatch", m.Patch)
		}
		task, err := r.find(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		if err := p.applyTo(task, r.now()); err != nil {
			return nil, err
		}
		if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
			return nil, translate(err)
		}
		return task, nil

	case policy.ActionDelete:
		return nil, r.delete(ctx, m.ID)
	}
	return nil, fmt.Errorf("task repository: unsupported action %q", m.Action)
}

// List 依照可見範圍列出任務，新的在前
func (r *taskRepository) List(ctx context.Context, scope policy.Scope) ([]models.Task, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if !scope.All {
		q = q.Where("created_by = ? OR assigned_to = ?", scope.UserID, scope.UserID)
	}
	var tasks []models.Task
	err := q.Find(&tasks).Error
	return tasks, err
}

func (r *taskRepository) CountByStatus(ctx context.Context, status models.TaskStatus) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Task{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

func (r *taskRepository) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("due_date < ? AND status <> ?", now, models.TaskStatusDone).
		Count(&n).Error
	return n, err
}
