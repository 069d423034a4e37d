package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/site-studio/engine/internal/models"
	appErr "github.com/site-studio/engine/pkg/errors"
	"gorm.io/gorm"
)

type ProjectRepository interface {
	BaseRepository[models.Project]
	GetBySlug(ctx context.Context, slug string, dest *models.Project) error
	List(ctx context.Context) ([]models.Project, error)
	SetDefaultTheme(ctx context.Context, projectID, themeID uuid.UUID) error
}

type projectRepository struct {
	BaseRepository[models.Project]
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{BaseRepository: NewBaseRepository[models.Project](db), db: db}
}

func (r *projectRepository) GetBySlug(ctx context.Context, slug string, dest *models.Project) error {
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(dest).Error; err != nil {
		return notFound(err, "project", "get project by slug failed")
	}
	return nil
}

func (r *projectRepository) List(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list projects failed")
	}
	return out, nil
}

func (r *projectRepository) SetDefaultTheme(ctx context.Context, projectID, themeID uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", projectID).Update("default_theme_id", themeID)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "set default theme failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, "project not found")
	}
	return nil
}
