package repository

import (
	"context"

	appErr "github.com/site-studio/engine/pkg/errors"
	"gorm.io/gorm"
)

// Repositories bundles every repository over one connection or transaction.
type Repositories struct {
	db *gorm.DB

	Users     UserRepository
	Projects  ProjectRepository
	Themes    ThemeRepository
	Pages     PageRepository
	Revisions RevisionRepository
	Snapshots SnapshotRepository
	Runs      AssistantRunRepository
	Publishes PublishLogRepository
	Sessions  EditorSessionRepository
}

func New(db *gorm.DB) *Repositories {
	return &Repositories{
		db:        db,
		Users:     NewUserRepository(db),
		Projects:  NewProjectRepository(db),
		Themes:    NewThemeRepository(db),
		Pages:     NewPageRepository(db),
		Revisions: NewRevisionRepository(db),
		Snapshots: NewSnapshotRepository(db),
		Runs:      NewAssistantRunRepository(db),
		Publishes: NewPublishLogRepository(db),
		Sessions:  NewEditorSessionRepository(db),
	}
}

// Transaction runs fn with repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

// Ping checks the underlying connection.
func (r *Repositories) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return appErr.Wrap(err, appErr.CodeUnavailable, "database handle unavailable")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return appErr.Wrap(err, appErr.CodeUnavailable, "database ping failed")
	}
	return nil
}

// Close closes the underlying connection pool.
func (r *Repositories) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
