package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/site-studio/engine/internal/models"
	"gorm.io/gorm"
)

type ThemeRepository interface {
	BaseRepository[models.Theme]
	GetDefaultByProject(ctx context.Context, projectID uuid.UUID, dest *models.Theme) error
}

type themeRepository struct {
	BaseRepository[models.Theme]
	db *gorm.DB
}

func NewThemeRepository(db *gorm.DB) ThemeRepository {
	return &themeRepository{BaseRepository: NewBaseRepository[models.Theme](db), db: db}
}

func (r *themeRepository) GetDefaultByProject(ctx context.Context, projectID uuid.UUID, dest *models.Theme) error {
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND is_default = ?", projectID, true).
		Order("created_at ASC").
		First(dest).Error
	if err != nil {
		return notFound(err, "theme", "get default theme failed")
	}
	return nil
}
