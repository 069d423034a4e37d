package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/site-studio/engine/internal/dsl"
	"github.com/site-studio/engine/internal/lock"
	"github.com/site-studio/engine/internal/models"
	"github.com/site-studio/engine/internal/repository"
	appErr "github.com/site-studio/engine/pkg/errors"
	"github.com/site-studio/engine/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// appendAttempts bounds retries when a concurrent writer took the number.
const appendAttempts = 3

// revisionDraft is one revision about to be appended, together with the
// snapshot that goes with it. The page status is not part of the draft: it is
// derived from the page row read under the lock.
type revisionDraft struct {
	Document       datatypes.JSON
	ThemeOverrides datatypes.JSON
	Summary        string
	Source         string
	BaseRevisionID *uuid.UUID
	ActorID        uuid.UUID
	SnapshotType   string
	Theme          dsl.ThemeTokens
}

// draftFunc builds the draft from the page as it stands once the lock is
// held. A nil draft skips the append.
type draftFunc func(ctx context.Context, tx *repository.Repositories, page *models.Page) (*revisionDraft, error)

// revisionWriter appends revisions one page at a time. The page lock orders
// writers in this deployment; the unique (page_id, revision_number) index
// and the retry loop cover writers the lock cannot see.
type revisionWriter struct {
	repos     *repository.Repositories
	locker    lock.Locker
	snapshots SnapshotService
}

func newRevisionWriter(repos *repository.Repositories, locker lock.Locker, snapshots SnapshotService) *revisionWriter {
	if locker == nil {
		locker = lock.NewMemory()
	}
	if snapshots == nil {
		snapshots = NewSnapshotService(repos.Snapshots)
	}
	return &revisionWriter{repos: repos, locker: locker, snapshots: snapshots}
}

// withPageLock runs fn while holding the page's write lock.
func withPageLock(ctx context.Context, locker lock.Locker, pageID uuid.UUID, fn func() error) error {
	release, err := locker.Lock(ctx, pageLockKey(pageID))
	if err != nil {
		return appErr.Wrap(err, appErr.CodeUnavailable, "acquire page lock failed")
	}
	defer release()
	return fn()
}

func pageLockKey(pageID uuid.UUID) string {
	return "page:" + pageID.String()
}

// append returns a nil revision when build declined to write.
func (w *revisionWriter) append(ctx context.Context, pageID uuid.UUID, build draftFunc) (*models.Revision, error) {
	var rev *models.Revision
	err := withPageLock(ctx, w.locker, pageID, func() error {
		var err error
		for attempt := 1; ; attempt++ {
			err = w.repos.Transaction(ctx, func(tx *repository.Repositories) error {
				var page models.Page
				if err := tx.Pages.GetByID(ctx, pageID, &page); err != nil {
					return appErr.NotFound(err, "Page not found.")
				}
				d, err := build(ctx, tx, &page)
				if err != nil || d == nil {
					return err
				}
				rev, err = w.appendRevision(ctx, tx, &page, *d)
				return err
			})
			if err == nil || !appErr.IsCode(err, appErr.CodeAlreadyExists) || attempt == appendAttempts {
				return err
			}
			rev = nil
			logger.L().Warn("revision number taken, retrying",
				zap.String("page_id", pageID.String()),
				zap.Int("attempt", attempt))
		}
	})
	if err != nil {
		return nil, err
	}
	return rev, nil
}

// appendRevision must run inside a transaction. page is the row read in that
// transaction.
func (w *revisionWriter) appendRevision(ctx context.Context, tx *repository.Repositories, page *models.Page, d revisionDraft) (*models.Revision, error) {
	last, err := tx.Revisions.MaxNumber(ctx, page.ID)
	if err != nil {
		return nil, err
	}
	overrides := d.ThemeOverrides
	if len(overrides) == 0 {
		overrides = datatypes.JSON("{}")
	}
	rev := &models.Revision{
		PageID:         page.ID,
		RevisionNumber: last + 1,
		DSLDocument:    d.Document,
		ThemeOverrides: overrides,
		ChangeSummary:  d.Summary,
		Source:         d.Source,
		BaseRevisionID: d.BaseRevisionID,
		CreatedBy:      d.ActorID,
	}
	if err := tx.Revisions.Create(ctx, rev); err != nil {
		return nil, err
	}
	status := page.StatusAfterEdit()
	if err := tx.Pages.SetState(ctx, page.ID, repository.PageState{
		Status:            status,
		CurrentRevisionID: rev.ID,
		UpdatedBy:         d.ActorID,
	}); err != nil {
		return nil, err
	}
	page.Status = status
	page.CurrentRevisionID = &rev.ID

	if _, err := w.snapshots.Within(tx).Capture(ctx, CaptureInput{
		PageID:     page.ID,
		RevisionID: rev.ID,
		Type:       d.SnapshotType,
		Document:   d.Document,
		Theme:      d.Theme,
		ActorID:    d.ActorID,
	}); err != nil {
		return nil, err
	}
	logger.L().Info("revision appended",
		zap.String("page_id", page.ID.String()),
		zap.Int("revision_number", rev.RevisionNumber),
		zap.String("source", d.Source))
	return rev, nil
}
