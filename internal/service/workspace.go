package service

import (
	"context"

	"collab_web/internal/auth"
	"collab_web/internal/models"
	"collab_web/internal/policy"
	"collab_web/internal/repository"
)

// WorkspaceService 提供列表查詢，單一資源的操作都交給 Coordinator
type WorkspaceService struct {
	coord *Coordinator
	repos *repository.Repositories
}

func NewWorkspaceService(coord *Coordinator, repos *repository.Repositories) *WorkspaceService {
	return &WorkspaceService{coord: coord, repos: repos}
}

// ListTasks 只回傳 actor 看得到的任務
func (s *WorkspaceService) ListTasks(ctx context.Context, actor auth.Identity) ([]models.Task, error) {
	tasks, err := s.repos.Task.List(ctx, policy.ReadScope(actor))
	if err != nil {
		return nil, upstream("list tasks", err)
	}
	return tasks, nil
}

// ListComments 需要先能讀取該任務
func (s *WorkspaceService) ListComments(ctx context.Context, actor auth.Identity, taskID uint) ([]models.Comment, error) {
	out, err := s.coord.Mutate(ctx, actor, Request{Type: ResourceTask, Action: policy.ActionRead, ID: taskID})
	if err != nil {
		return nil, err
	}
	if err := out.Err(); err != nil {
		return nil, err
	}
	comments, err := s.repos.Comment.ListByTask(ctx, taskID)
	if err != nil {
		return nil, upstream("list comments", err)
	}
	return comments, nil
}

func (s *WorkspaceService) ListAllComments(ctx context.Context) ([]models.Comment, error) {
	comments, err := s.repos.Comment.FindAll(ctx)
	if err != nil {
		return nil, upstream("list comments", err)
	}
	return comments, nil
}

func (s *WorkspaceService) ListVersions(ctx context.Context, projectID uint) ([]models.Version, error) {
	var (
		versions []models.Version
		err      error
	)
	if projectID == 0 {
		versions, err = s.repos.Version.FindAll(ctx)
	} else {
		versions, err = s.repos.Version.FindByProject(ctx, projectID)
	}
	if err != nil {
		return nil, upstream("list versions", err)
	}
	return versions, nil
}
