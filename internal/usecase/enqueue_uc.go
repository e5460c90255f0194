package usecase

import (
	"context"
	"time"

	"tenant-fanout-pipeline/internal/domain/model"
	"tenant-fanout-pipeline/internal/domain/ports/repository"
	"tenant-fanout-pipeline/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ EnqueueUseCase = (*enqueueUC)(nil)

// EnqueueUseCase fans the current period out into one queued message per
// tenant. It is the entry point the enqueue schedule invokes; the trigger is
// assumed at-least-once, so the pass must be safe to re-run.
type EnqueueUseCase interface {
	// RunPass enqueues one message per active tenant that has no completion
	// record for the job key. jobKeyOverride replaces the clock-derived key
	// when non-empty (manual backfills).
	RunPass(ctx context.Context, jobKeyOverride string) (*model.EnqueueSummary, error)
}

type enqueueUC struct {
	store       repository.JobStore
	jobLog      repository.JobLogRepository
	tenants     repository.TenantRepository
	completions repository.CompletionRepository
	granularity model.PeriodGranularity
	log         *zerolog.Logger
}

func NewEnqueueUseCase(
	store repository.JobStore,
	jobLog repository.JobLogRepository,
	tenants repository.TenantRepository,
	completions repository.CompletionRepository,
	granularity model.PeriodGranularity,
	logger *zerolog.Logger,
) *enqueueUC {
	ucLog := logger.With().Str("component", "EnqueueUseCase").Logger()
	return &enqueueUC{
		store:       store,
		jobLog:      jobLog,
		tenants:     tenants,
		completions: completions,
		granularity: granularity,
		log:         &ucLog,
	}
}

func (uc *enqueueUC) RunPass(ctx context.Context, jobKeyOverride string) (*model.EnqueueSummary, error) {
	jobKey := jobKeyOverride
	if jobKey == "" {
		jobKey = model.JobKeyFor(time.Now(), uc.granularity)
	}

	tenants, err := uc.tenants.ListActive(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}

	summary := &model.EnqueueSummary{JobKey: jobKey}
	for _, t := range tenants {
		// Per-tenant isolation: one tenant's failure never aborts the pass.
		if err := uc.enqueueOne(ctx, t.ID, jobKey, summary); err != nil {
			summary.Failed++
			uc.log.Error().Err(err).Str("tenant_id", t.ID).Str("job_key", jobKey).Msg("enqueue failed for tenant")
		}
	}

	metrics.ObserveEnqueuePass(summary.Enqueued, summary.Skipped)
	uc.log.Info().
		Str("job_key", jobKey).
		Int("enqueued", summary.Enqueued).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("enqueue pass finished")
	return summary, nil
}

func (uc *enqueueUC) enqueueOne(ctx context.Context, tenantID, jobKey string, summary *model.EnqueueSummary) error {
	done, err := uc.completions.Exists(ctx, repository.NoTX, tenantID, jobKey)
	if err != nil {
		return err
	}
	if done {
		summary.Skipped++
		return nil
	}

	msgID, err := uc.store.Enqueue(ctx, &model.Message{TenantID: tenantID, JobKey: jobKey})
	if err != nil {
		return err
	}
	summary.Enqueued++

	// A failed log write must not undo the enqueue; the message is already
	// durable and the worker logs every later transition anyway.
	entry := &model.JobLogEntry{
		TenantID:  tenantID,
		JobKey:    jobKey,
		Status:    model.JobStatusQueued,
		Attempt:   1,
		MessageID: msgID,
	}
	if err := uc.jobLog.Append(ctx, repository.NoTX, entry); err != nil {
		uc.log.Warn().Err(err).Str("message_id", msgID).Msg("could not append queued log entry")
	}
	return nil
}
