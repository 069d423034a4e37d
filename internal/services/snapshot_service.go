package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/site-studio/engine/internal/dsl"
	"github.com/site-studio/engine/internal/models"
	"github.com/site-studio/engine/internal/repository"
	"github.com/site-studio/engine/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// SnapshotService writes the append-only snapshot trail. There is no update
// or delete path.
type SnapshotService interface {
	Capture(ctx context.Context, in CaptureInput) (*models.Snapshot, error)
	List(ctx context.Context, pageID uuid.UUID, limit int) ([]models.Snapshot, error)
	// Within returns the service bound to tx's repositories.
	Within(tx *repository.Repositories) SnapshotService
}

// CaptureInput carries the document already encoded as stored on the
// revision.
type CaptureInput struct {
	PageID     uuid.UUID
	RevisionID uuid.UUID
	Type       string
	Document   datatypes.JSON
	Theme      dsl.ThemeTokens
	ActorID    uuid.UUID
}

type snapshotService struct {
	snapshots repository.SnapshotRepository
}

func NewSnapshotService(snapshots repository.SnapshotRepository) SnapshotService {
	return &snapshotService{snapshots: snapshots}
}

var _ SnapshotService = (*snapshotService)(nil)

func (s *snapshotService) Within(tx *repository.Repositories) SnapshotService {
	return &snapshotService{snapshots: tx.Snapshots}
}

func (s *snapshotService) Capture(ctx context.Context, in CaptureInput) (*models.Snapshot, error) {
	switch in.Type {
	case models.SnapshotAuto, models.SnapshotManual, models.SnapshotPrePublish:
	default:
		in.Type = models.SnapshotAuto
	}
	snap := &models.Snapshot{
		PageID:       in.PageID,
		RevisionID:   in.RevisionID,
		SnapshotType: in.Type,
		DSLDocument:  in.Document,
		ThemeTokens:  datatypes.JSON(dsl.MarshalTheme(in.Theme)),
		CreatedBy:    in.ActorID,
	}
	if err := s.snapshots.Create(ctx, snap); err != nil {
		return nil, err
	}
	logger.L().Debug("snapshot captured",
		zap.String("page_id", in.PageID.String()),
		zap.String("revision_id", in.RevisionID.String()),
		zap.String("type", in.Type))
	return snap, nil
}

func (s *snapshotService) List(ctx context.Context, pageID uuid.UUID, limit int) ([]models.Snapshot, error) {
	return s.snapshots.ListByPage(ctx, pageID, limit)
}
