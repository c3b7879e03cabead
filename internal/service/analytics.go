package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"collab_web/internal/models"
	"collab_web/internal/repository"
)

type TaskStats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Pending   int64 `json:"pending"`
	Overdue   int64 `json:"overdue"`
}

type Summary struct {
	TaskStats
	TotalUsers    int64 `json:"totalUsers"`
	TotalComments int64 `json:"totalComments"`
	TotalProjects int64 `json:"totalProjects"`
}

type AnalyticsService struct {
	repos *repository.Repositories
	now   func() time.Time
}

func NewAnalyticsService(repos *repository.Repositories) *AnalyticsService {
	return &AnalyticsService{repos: repos, now: time.Now}
}

// TaskStats 統計任務狀態，pending 指尚未開始的任務
func (s *AnalyticsService) TaskStats(ctx context.Context) (TaskStats, error) {
	var st TaskStats
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { st.Total, err = s.repos.Task.Count(ctx); return })
	g.Go(func() (err error) {
		st.Completed, err = s.repos.Task.CountByStatus(ctx, models.TaskStatusDone)
		return
	})
	g.Go(func() (err error) {
		st.Pending, err = s.repos.Task.CountByStatus(ctx, models.TaskStatusTodo)
		return
	})
	g.Go(func() (err error) { st.Overdue, err = s.repos.Task.CountOverdue(ctx, s.now()); return })
	if err := g.Wait(); err != nil {
		return TaskStats{}, upstream("task stats", err)
	}
	return st, nil
}

func (s *AnalyticsService) Summary(ctx context.Context) (Summary, error) {
	tasks, err := s.TaskStats(ctx)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{TaskStats: tasks}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { sum.TotalUsers, err = s.repos.User.Count(gctx); return })
	g.Go(func() (err error) { sum.TotalComments, err = s.repos.Comment.Count(gctx); return })
	g.Go(func() (err error) { sum.TotalProjects, err = s.repos.Project.Count(gctx); return })
	if err := g.Wait(); err != nil {
		return Summary{}, upstream("summary", err)
	}
	return sum, nil
}
