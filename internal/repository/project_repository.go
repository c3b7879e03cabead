package repository

import (
	"context"

	"gorm.io/gorm"

	"collab_web/internal/models"
	"collab_web/internal/storage"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, id uint) (*models.Project, error)
	FindAll(ctx context.Context) ([]models.Project, error)
	Count(ctx context.Context) (int64, error)
}

type projectRepository struct {
	db *storage.DB
}

func NewProjectRepository(db *storage.DB) ProjectRepository {
	return &projectRepository{db: db}
}

// Create 建立專案，建立者會成為 owner 成員
func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Members").Create(project).Error; err != nil {
			return err
		}
		members := []models.ProjectMember{{ProjectID: project.ID, UserID: project.CreatedBy, Role: models.ProjectRoleOwner}}
		seen := map[uint]bool{project.CreatedBy: true}
		for _, m := range project.Members {
			if seen[m.UserID] || m.UserID == 0 {
				continue
			}
			seen[m.UserID] = true
			if m.Role == "" {
				m.Role = models.ProjectRoleMember
			}
			members = append(members, models.ProjectMember{ProjectID: project.ID, UserID: m.UserID, Role: m.Role})
		}
		if err := tx.Create(&members).Error; err != nil {
			return err
		}
		project.Members = members
		return nil
	}))
}

func (r *projectRepository) FindByID(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).Preload("Members").First(&project, id).Error; err != nil {
		return nil, translate(err)
	}
	return &project, nil
}

func (r *projectRepository) FindAll(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.WithContext(ctx).Preload("Members").Order("created_at DESC").Find(&projects).Error
	return projects, err
}

func (r *projectRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Project{}).Count(&n).Error
	return n, err
}
