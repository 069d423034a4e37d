package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/site-studio/engine/internal/models"
	appErr "github.com/site-studio/engine/pkg/errors"
	"gorm.io/gorm"
)

// RevisionRepository has no update or delete: revisions are append-only.
type RevisionRepository interface {
	Create(ctx context.Context, rev *models.Revision) error
	GetByID(ctx context.Context, id any, dest *models.Revision) error
	GetForPage(ctx context.Context, pageID, revisionID uuid.UUID, dest *models.Revision) error
	MaxNumber(ctx context.Context, pageID uuid.UUID) (int, error)
	ListByPage(ctx context.Context, pageID uuid.UUID, limit int) ([]models.Revision, error)
}

type revisionRepository struct {
	db *gorm.DB
}

func NewRevisionRepository(db *gorm.DB) RevisionRepository {
	return &revisionRepository{db: db}
}

func (r *revisionRepository) Create(ctx context.Context, rev *models.Revision) error {
	if err := r.db.WithContext(ctx).Create(rev).Error; err != nil {
		return translate(err, "create revision failed")
	}
	return nil
}

func (r *revisionRepository) GetByID(ctx context.Context, id any, dest *models.Revision) error {
	if err := r.db.WithContext(ctx).First(dest, "id = ?", id).Error; err != nil {
		return notFound(err, "revision", "get revision failed")
	}
	return nil
}

// GetForPage loads a revision only if it belongs to the page.
func (r *revisionRepository) GetForPage(ctx context.Context, pageID, revisionID uuid.UUID, dest *models.Revision) error {
	if err := r.db.WithContext(ctx).Where("id = ? AND page_id = ?", revisionID, pageID).First(dest).Error; err != nil {
		return notFound(err, "revision", "get page revision failed")
	}
	return nil
}

// MaxNumber returns the highest revision number of the page, 0 if it has none.
func (r *revisionRepository) MaxNumber(ctx context.Context, pageID uuid.UUID) (int, error) {
	var n int
	err := r.db.WithContext(ctx).Model(&models.Revision{}).
		Where("page_id = ?", pageID).
		Select("COALESCE(MAX(revision_number), 0)").
		Scan(&n).Error
	if err != nil {
		return 0, appErr.Wrap(err, appErr.CodeInternal, "compute revision number failed")
	}
	return n, nil
}

func (r *revisionRepository) ListByPage(ctx context.Context, pageID uuid.UUID, limit int) ([]models.Revision, error) {
	var out []models.Revision
	q := r.db.WithContext(ctx).Where("page_id = ?", pageID).Order("revision_number DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list revisions failed")
	}
	return out, nil
}
