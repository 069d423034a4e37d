package main

import (
	"gorm.io/gorm"

	"github.com/site-studio/engine/internal/models"
)

// runMigrations executes all database migrations
func runMigrations(db *gorm.DB, driver string) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return err
	}
	if driver != "postgres" {
		return nil
	}

	// Run custom migrations
	return runCustomMigrations(db)
}

// runCustomMigrations handles schema changes AutoMigrate can't handle
func runCustomMigrations(db *gorm.DB) error {
	migrations := []func(*gorm.DB) error{
		addPublishedPageIndex,
		addRunningRunIndex,
	}

	for _, migration := range migrations {
		if err := migration(db); err != nil {
			return err
		}
	}

	return nil
}

// addPublishedPageIndex serves public page lookups and published counts.
func addPublishedPageIndex(db *gorm.DB) error {
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_pages_project_published
		ON pages(project_id)
		WHERE status = 'published' AND deleted_at IS NULL
	`).Error
}

// addRunningRunIndex keeps the stale-run sweep cheap: only running rows are indexed.
func addRunningRunIndex(db *gorm.DB) error {
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_assistant_runs_running
		ON assistant_runs(created_at)
		WHERE result_status = 'running'
	`).Error
}
