package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/site-studio/engine/internal/app"
	"github.com/site-studio/engine/internal/queue/tasks"
	"github.com/site-studio/engine/pkg/config"
	"github.com/site-studio/engine/pkg/logger"
)

func main() {
	cfg := config.MustLoad()
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()
	// The worker always needs redis for asynq; app.New pings it.
	a, err := app.New(ctx, cfg, true)
	if err != nil {
		log.Fatal("failed to initialize services", zap.Error(err))
	}
	defer a.Close()

	app.ReloadLogLevel()

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		},
		asynq.Config{
			Concurrency: cfg.AsynqConcurrency,
		},
	)

	mux := asynq.NewServeMux()
	handler := tasks.NewPublishTaskHandler(a.Publish)
	mux.HandleFunc(tasks.TypePagePublish, handler.HandlePublish)

	sweeper := tasks.NewRunSweeper(a.Repos.Runs, cfg.AssistantRunStaleAfter)
	sched := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := sched.AddFunc("@every 1m", func() {
		sctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		sweeper.Sweep(sctx)
	}); err != nil {
		log.Fatal("failed to schedule run sweeper", zap.Error(err))
	}
	sched.Start()

	logger.L().Info("asynq worker starting", zap.Int("concurrency", cfg.AsynqConcurrency))
	if err := srv.Start(mux); err != nil {
		log.Fatal("worker failed to start", zap.Error(err))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.L().Info("shutdown signal received", zap.String("signal", sig.String()))

	// Wait for a sweep in progress, then let in-flight tasks finish.
	<-sched.Stop().Done()
	srv.Shutdown()
}
