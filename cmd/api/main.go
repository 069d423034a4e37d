package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/site-studio/engine/internal/api"
	"github.com/site-studio/engine/internal/api/handlers"
	mw "github.com/site-studio/engine/internal/api/middleware"
	"github.com/site-studio/engine/internal/app"
	"github.com/site-studio/engine/internal/queue/tasks"
	"github.com/site-studio/engine/pkg/config"
	"github.com/site-studio/engine/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.MustLoad()

	// Initialize logger
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	log.Info("Starting Site Studio API",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.HTTPAddr),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	a, err := app.New(ctx, cfg, false)
	if err != nil {
		log.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer a.Close()

	app.ReloadLogLevel()

	// Queued publishing goes through the worker.
	queue := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer queue.Close()

	limiter := mw.NewLimiter(10, 20)
	go limiter.Sweep(ctx, 5*time.Minute, 10*time.Minute)

	secret := []byte(cfg.JWTSecret)
	router := api.NewRouter(api.Dependencies{
		HMACSecret:       secret,
		Limiter:          limiter,
		HealthHandler:    handlers.NewHealthHandler(a.Repos),
		AuthHandler:      handlers.NewAuthHandler(a.Auth),
		ProjectsHandler:  handlers.NewProjectsHandler(a.Projects, a.Revisions, a.Themes),
		PagesHandler:     handlers.NewPagesHandler(a.Revisions),
		AssistantHandler: handlers.NewAssistantHandler(a.Assistant),
		PublishHandler:   handlers.NewPublishHandler(a.Publish, tasks.Enqueuer(queue)),
		PublicHandler:    handlers.NewPublicHandler(a.Projects, a.Renderer),
	})

	// Create HTTP server; the write timeout leaves room for a slow model.
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.AITimeout + 30*time.Second,
		IdleTimeout:       90 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	} else {
		log.Info("server exited gracefully")
	}
}
