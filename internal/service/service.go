package service

import (
	"log/slog"

	"collab_web/internal/auth"
	"collab_web/internal/models"
	"collab_web/internal/policy"
	"collab_web/internal/repository"
)

type Services struct {
	Gate        *auth.Gate
	User        *UserService
	Project     *ProjectService
	Analytics   *AnalyticsService
	Coordinator *Coordinator
	Workspace   *WorkspaceService
}

func NewServices(repos *repository.Repositories, gate *auth.Gate, logger *slog.Logger) *Services {
	coord := NewCoordinator(gate, policy.Engine{}, map[ResourceType]Store{
		ResourceTask:    AdaptStore[*models.Task](repos.Task),
		ResourceComment: AdaptStore[*models.Comment](repos.Comment),
		ResourceVersion: AdaptStore[*models.Version](repos.Version),
	}, logger)

	return &Services{
		Gate:        gate,
		User:        NewUserService(repos.User, gate),
		Project:     NewProjectService(repos.Project),
		Analytics:   NewAnalyticsService(repos),
		Coordinator: coord,
		Workspace:   NewWorkspaceService(coord, repos),
	}
}
