package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/site-studio/engine/internal/app"
	"github.com/site-studio/engine/internal/mcpserver"
	"github.com/site-studio/engine/internal/models"
	"github.com/site-studio/engine/pkg/config"
	"github.com/site-studio/engine/pkg/logger"
)

func main() {
	// stdout carries the MCP protocol.
	_ = os.Setenv("LOG_STDERR", "true")

	cfg := config.MustLoad()
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	actorID, err := uuid.Parse(cfg.MCPActorID)
	if err != nil {
		log.Fatal("MCP_ACTOR_ID must be the id of an admin user", zap.Error(err))
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, false)
	if err != nil {
		log.Fatal("failed to initialize services", zap.Error(err))
	}
	defer a.Close()

	var actor models.User
	if err := a.Repos.Users.GetByID(ctx, actorID, &actor); err != nil {
		log.Fatal("MCP actor not found", zap.String("actor_id", actorID.String()), zap.Error(err))
	}
	if !actor.IsAdmin() {
		log.Fatal("MCP actor is not an admin", zap.String("actor_id", actorID.String()))
	}

	srv := mcpserver.New(mcpserver.Deps{
		ActorID:   actorID,
		Revisions: a.Revisions,
		Assistant: a.Assistant,
		Publish:   a.Publish,
	})
	log.Info("mcp server starting on stdio", zap.String("actor_id", actorID.String()))
	if err := srv.ServeStdio(); err != nil {
		log.Error("mcp server stopped", zap.Error(err))
	}
}
