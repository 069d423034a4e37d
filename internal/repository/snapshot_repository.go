package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/site-studio/engine/internal/models"
	appErr "github.com/site-studio/engine/pkg/errors"
	"gorm.io/gorm"
)

// SnapshotRepository is insert-and-read only.
type SnapshotRepository interface {
	Create(ctx context.Context, s *models.Snapshot) error
	ListByPage(ctx context.Context, pageID uuid.UUID, limit int) ([]models.Snapshot, error)
}

type snapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) Create(ctx context.Context, s *models.Snapshot) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return translate(err, "create snapshot failed")
	}
	return nil
}

func (r *snapshotRepository) ListByPage(ctx context.Context, pageID uuid.UUID, limit int) ([]models.Snapshot, error) {
	var out []models.Snapshot
	q := r.db.WithContext(ctx).Where("page_id = ?", pageID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list snapshots failed")
	}
	return out, nil
}
