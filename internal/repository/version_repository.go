package repository

import (
	"context"
	"fmt"
	"strings"

	"collab_web/internal/models"
	"collab_web/internal/policy"
	"collab_web/internal/storage"
)

type VersionPatch struct {
	ProjectID uint // 只在建立時使用
	Text      string
}

type VersionRepository interface {
	Fetch(ctx context.Context, id uint) (*models.Version, error)
	Apply(ctx context.Context, m Mutation) (interface{}, error)
	ListOwnedBy(ctx context.Context, ownerID uint) ([]uint, error)
	DeleteAll(ctx context.Context) (int64, error)
	FindAll(ctx context.Context) ([]models.Version, error)
	FindByProject(ctx context.Context, projectID uint) ([]models.Version, error)
}

type versionRepository struct {
	ownedRepository[models.Version]
}

func NewVersionRepository(db *storage.DB) VersionRepository {
	return &versionRepository{ownedRepository[models.Version]{db: db}}
}

func (r *versionRepository) Fetch(ctx context.Context, id uint) (*models.Version, error) {
	return r.find(ctx, id)
}

func (r *versionRepository) Apply(ctx context.Context, m Mutation) (interface{}, error) {
	switch m.Action {
	case policy.ActionCreate:
		p, ok := m.Patch.(VersionPatch)
		if !ok {
			return nil, patchError("VersionPatch", m.Patch)
		}
		text := strings.TrimSpace(p.Text)
		if text == "" {
			return nil, fmt.Errorf("%w: version text is required", ErrInvalidPatch)
		}
		if _, err := (ownedRepository[models.Project]{db: r.db}).find(ctx, p.ProjectID); err != nil {
			return nil, err
		}
		version := models.Version{ProjectID: p.ProjectID, Text: text, CreatedBy: m.ActorID}
		if err := r.db.WithContext(ctx).Create(&version).Error; err != nil {
			return nil, translate(err)
		}
		return &version, nil

	case policy.ActionRead:
		return r.find(ctx, m.ID)

	case policy.ActionUpdate:
		p, ok := m.Patch.(VersionPatch)
		if !ok {
			return nil, patchError("VersionPatch", m.Patch)
		}
		text := strings.TrimSpace(p.Text)
		if text == "" {
			return nil, fmt.Errorf("%w: version text is required", ErrInvalidPatch)
		}
		version, err := r.find(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		version.Text = text
		if err := r.db.WithContext(ctx).Save(version).Error; err != nil {
			return nil, translate(err)
		}
		return version, nil

	case policy.ActionDelete:
		return nil, r.delete(ctx, m.ID)
	}
	return nil, fmt.Errorf("version repository: unsupported action %q", m.Action)
}

func (r *versionRepository) FindAll(ctx context.Context) ([]models.Version, error) {
	var versions []models.Version
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&versions).Error
	return versions, err
}

func (r *versionRepository) FindByProject(ctx context.Context, projectID uint) ([]models.Version, error) {
	var versions []models.Version
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at ASC").Find(&versions).Error
	return versions, err
}
