package sched

import (
	"context"
	"time"

	"tenant-fanout-pipeline/internal/usecase"

	"github.com/rs/zerolog"
)

// EnqueueWorker fires the enqueue pass on a fixed cadence. The pass itself is
// idempotent (completion-record check), so a double fire after a restart is
// harmless.
type EnqueueWorker struct {
	interval time.Duration
	uc       usecase.EnqueueUseCase
	log      *zerolog.Logger
}

func NewEnqueueWorker(interval time.Duration, uc usecase.EnqueueUseCase, logger *zerolog.Logger) *EnqueueWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	compLog := logger.With().Str("component", "EnqueueWorker").Logger()
	return &EnqueueWorker{interval: interval, uc: uc, log: &compLog}
}

func (w *EnqueueWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting enqueue worker")
	// Run once on startup, then on every tick
	w.runPass(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping enqueue worker")
			return ctx.Err()
		case <-ticker.C:
			w.runPass(ctx)
		}
	}
}

func (w *EnqueueWorker) runPass(ctx context.Context) {
	if _, err := w.uc.RunPass(ctx, ""); err != nil {
		w.log.Error().Err(err).Msg("enqueue pass failed")
	}
}
