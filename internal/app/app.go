// Package app wires configuration into the repositories and services shared
// by the api, worker and mcp binaries.
package app

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/site-studio/engine/internal/artifact"
	"github.com/site-studio/engine/internal/assistant"
	"github.com/site-studio/engine/internal/lock"
	"github.com/site-studio/engine/internal/publisher"
	"github.com/site-studio/engine/internal/repository"
	"github.com/site-studio/engine/internal/services"
	"github.com/site-studio/engine/pkg/config"
	"github.com/site-studio/engine/pkg/database"
	"github.com/site-studio/engine/pkg/logger"
)

const pageLockTTL = 30 * time.Second

// App holds the long-lived collaborators of one process.
type App struct {
	Repos *repository.Repositories
	Redis *redis.Client

	Auth      services.AuthService
	Projects  services.ProjectService
	Themes    services.ThemeService
	Revisions services.RevisionService
	Snapshots services.SnapshotService
	Assistant services.AssistantService
	Publish   services.PublishService
	Renderer  *artifact.Renderer
}

// New opens the database and, when needed, redis, then builds the services.
// withRedis forces a redis connection even when the page lock is in memory.
func New(ctx context.Context, cfg *config.Config, withRedis bool) (*App, error) {
	db, err := database.Open(ctx, database.Options{
		Driver:  cfg.DatabaseDriver,
		DSN:     cfg.DatabaseURL,
		Verbose: cfg.LogLevel == "debug",
	})
	if err != nil {
		return nil, err
	}
	logger.L().Info("database connected", zap.String("driver", cfg.DatabaseDriver))

	a := &App{Repos: repository.New(db), Renderer: artifact.NewRenderer()}

	var locker lock.Locker = lock.NewMemory()
	if withRedis || cfg.PageLockBackend == "redis" {
		a.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, err
		}
		if cfg.PageLockBackend == "redis" {
			locker = lock.NewRedis(a.Redis, pageLockTTL)
		}
	}

	var client assistant.Client
	if cfg.AIAPIURL != "" {
		client = assistant.NewHTTPClient(assistant.Config{
			URL:      cfg.AIAPIURL,
			APIKey:   cfg.AIAPIKey,
			Model:    cfg.AIModel,
			Provider: cfg.AIProvider,
			Timeout:  cfg.AITimeout,
		})
	} else {
		logger.L().Warn("AI_API_URL not set, assistant runs use the fallback synthesizer")
	}
	if cfg.PublishWebhookURL == "" {
		logger.L().Warn("PUBLISH_WEBHOOK_URL not set, publishing will fail")
	}
	pub := publisher.NewWebhookPublisher(cfg.PublishWebhookURL, cfg.PublishWebhookToken, cfg.PublishTimeout)

	a.Auth = services.NewAuthService(a.Repos.Users, []byte(cfg.JWTSecret))
	a.Snapshots = services.NewSnapshotService(a.Repos.Snapshots)
	a.Themes = services.NewThemeService(a.Repos, locker, a.Snapshots)
	a.Projects = services.NewProjectService(a.Repos, a.Themes)
	a.Revisions = services.NewRevisionService(a.Repos, locker, a.Themes, a.Snapshots)
	a.Assistant = services.NewAssistantService(a.Repos, a.Revisions, client)
	a.Publish = services.NewPublishService(a.Repos, locker, a.Themes, a.Snapshots, pub, a.Renderer)
	return a, nil
}

// Close releases the database and redis connections.
func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.Repos != nil {
		if err := a.Repos.Close(); err != nil {
			logger.L().Warn("close database", zap.Error(err))
		}
	}
}

// ReloadLogLevel follows LOG_LEVEL edits in config.yaml.
func ReloadLogLevel() {
	config.Watch(func(c *config.Config) {
		if err := logger.SetLevel(c.LogLevel); err != nil {
			logger.L().Warn("log level reload failed", zap.Error(err))
			return
		}
		logger.L().Info("log level reloaded", zap.String("level", c.LogLevel))
	}, func(err error) {
		logger.L().Warn("config reload rejected", zap.Error(err))
	})
}
