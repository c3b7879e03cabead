package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"collab_web/internal/auth"
	"collab_web/internal/models"
	"collab_web/internal/repository"
)

type ProjectInput struct {
	Name        string
	Description string
	MemberIDs   []uint
}

type ProjectService struct {
	projectRepo repository.ProjectRepository
}

func NewProjectService(projectRepo repository.ProjectRepository) *ProjectService {
	return &ProjectService{projectRepo: projectRepo}
}

func (s *ProjectService) Create(ctx context.Context, actor auth.Identity, in ProjectInput) (*models.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", ErrInvalid)
	}
	project := &models.Project{
		Name:        name,
		Description: in.Description,
		CreatedBy:   actor.UserID,
	}
	for _, id := range in.MemberIDs {
		project.Members = append(project.Members, models.ProjectMember{UserID: id, Role: models.ProjectRoleMember})
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, upstream("create project", err)
	}
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, id uint) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, upstream("find project", err)
	}
	return project, nil
}

func (s *ProjectService) List(ctx context.Context) ([]models.Project, error) {
	projects, err := s.projectRepo.FindAll(ctx)
	if err != nil {
		return nil, upstream("list projects", err)
	}
	return projects, nil
}
