package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Pruner is the subset of the nonce service the worker drives
type Pruner interface {
	Prune(ctx context.Context) (int64, error)
}

// PruneWorker periodically removes expired nonces
type PruneWorker struct {
	pruner   Pruner
	interval time.Duration
	logger   *zap.Logger
}

// NewPruneWorker creates a worker that prunes every interval.
// A non-positive interval disables Run.
func NewPruneWorker(pruner Pruner, interval time.Duration, logger *zap.Logger) *PruneWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PruneWorker{
		pruner:   pruner,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled, pruning on every tick.
// Failures are logged and the loop keeps going.
func (w *PruneWorker) Run(ctx context.Context) {
	if w.interval <= 0 {
		w.logger.Info("nonce prune worker disabled")
		return
	}

	w.logger.Info("nonce prune worker started", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("nonce prune worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single prune pass
func (w *PruneWorker) RunOnce(ctx context.Context) int64 {
	removed, err := w.pruner.Prune(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("nonce prune failed", zap.Error(err))
		}
		return 0
	}
	return removed
}
