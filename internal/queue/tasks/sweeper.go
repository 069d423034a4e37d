package tasks

import (
	"context"
	"time"

	"github.com/site-studio/engine/internal/repository"
	"github.com/site-studio/engine/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// abandonedReason is stored as the errors list of swept runs.
var abandonedReason = datatypes.JSON(`["run abandoned"]`)

// RunSweeper fails assistant runs whose process died before finishing them.
type RunSweeper struct {
	runs       repository.AssistantRunRepository
	staleAfter time.Duration
	now        func() time.Time
}

func NewRunSweeper(runs repository.AssistantRunRepository, staleAfter time.Duration) *RunSweeper {
	return &RunSweeper{runs: runs, staleAfter: staleAfter, now: time.Now}
}

// Sweep marks runs still running after staleAfter as failed and returns how
// many it touched.
func (s *RunSweeper) Sweep(ctx context.Context) int64 {
	n, err := s.runs.FailStale(ctx, s.now().Add(-s.staleAfter), abandonedReason)
	if err != nil {
		logger.L().Error("sweep stale assistant runs failed", zap.Error(err))
		return 0
	}
	if n > 0 {
		logger.L().Warn("stale assistant runs failed", zap.Int64("count", n))
	}
	return n
}
