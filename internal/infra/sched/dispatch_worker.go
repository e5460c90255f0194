package sched

import (
	"context"
	"time"

	"tenant-fanout-pipeline/internal/usecase"

	"github.com/rs/zerolog"
)

// DispatchWorker drives the dispatch pass on a tight cadence, independent of
// the enqueue cadence, so backlog drains steadily regardless of how bursty
// the enqueue side is.
type DispatchWorker struct {
	interval time.Duration
	uc       usecase.DispatchUseCase
	log      *zerolog.Logger
}

func NewDispatchWorker(interval time.Duration, uc usecase.DispatchUseCase, logger *zerolog.Logger) *DispatchWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	compLog := logger.With().Str("component", "DispatchWorker").Logger()
	return &DispatchWorker{interval: interval, uc: uc, log: &compLog}
}

func (w *DispatchWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting dispatch worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping dispatch worker")
			return ctx.Err()
		case <-ticker.C:
			summary, err := w.uc.RunPass(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("dispatch pass failed")
				continue
			}
			if summary.Read > 0 {
				w.log.Debug().Int("read", summary.Read).Int("dispatched", summary.Dispatched).Msg("dispatch tick")
			}
		}
	}
}
