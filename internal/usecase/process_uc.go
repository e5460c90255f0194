package usecase

import (
	"context"
	"time"

	"tenant-fanout-pipeline/internal/domain/model"
	"tenant-fanout-pipeline/internal/domain/ports/adapter"
	"tenant-fanout-pipeline/internal/domain/ports/repository"
	"tenant-fanout-pipeline/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ ProcessUseCase = (*processUC)(nil)

// ProcessUseCase runs the domain operation for exactly one (tenant, job key)
// unit. It is invoked by the dispatch pass for queued messages and by the
// operational surface for direct, queue-bypassing runs.
type ProcessUseCase interface {
	// ProcessMessage handles one delivered message. On success the message is
	// acked; on failure it is left untouched so the visibility timeout
	// redelivers it as a fresh attempt.
	ProcessMessage(ctx context.Context, msg *model.Message) error

	// RunDirect executes the domain operation for one tenant immediately,
	// without going through the queue. Never returns an error for a domain
	// operation failure; the failure is reported inside the summary.
	RunDirect(ctx context.Context, tenantID, jobKey string) (*model.RunSummary, error)
}

type processUC struct {
	store       repository.JobStore
	jobLog      repository.JobLogRepository
	completions repository.CompletionRepository
	runner      adapter.JobRunner
	granularity model.PeriodGranularity
	log         *zerolog.Logger
}

func NewProcessUseCase(
	store repository.JobStore,
	jobLog repository.JobLogRepository,
	completions repository.CompletionRepository,
	runner adapter.JobRunner,
	granularity model.PeriodGranularity,
	logger *zerolog.Logger,
) *processUC {
	ucLog := logger.With().Str("component", "ProcessUseCase").Logger()
	return &processUC{
		store:       store,
		jobLog:      jobLog,
		completions: completions,
		runner:      runner,
		granularity: granularity,
		log:         &ucLog,
	}
}

func (uc *processUC) ProcessMessage(ctx context.Context, msg *model.Message) error {
	attempt := msg.DeliveryCount
	log := uc.log.With().
		Str("tenant_id", msg.TenantID).
		Str("job_key", msg.JobKey).
		Str("message_id", msg.ID).
		Int("attempt", attempt).
		Logger()

	// Idempotency guard: a completion record means a previous attempt (or a
	// duplicate message) already did the work. Ack and record the no-op.
	done, err := uc.completions.Exists(ctx, repository.NoTX, msg.TenantID, msg.JobKey)
	if err != nil {
		return err
	}
	if done {
		if err := uc.store.Ack(ctx, msg.ID); err != nil {
			return err
		}
		uc.appendLog(&log, &model.JobLogEntry{
			TenantID:     msg.TenantID,
			JobKey:       msg.JobKey,
			Status:       model.JobStatusCompleted,
			Attempt:      attempt,
			MessageID:    msg.ID,
			ErrorMessage: "no-op: completion record already present",
		})
		metrics.IncJobProcessed("skipped")
		log.Info().Msg("duplicate delivery skipped")
		return nil
	}

	uc.appendLog(&log, &model.JobLogEntry{
		TenantID:  msg.TenantID,
		JobKey:    msg.JobKey,
		Status:    model.JobStatusProcessing,
		Attempt:   attempt,
		MessageID: msg.ID,
	})

	start := time.Now()
	runErr := uc.runner.Execute(ctx, msg.TenantID, msg.JobKey)
	duration := time.Since(start)
	metrics.ObserveJobDuration(duration)

	if runErr != nil {
		// No ack: the message becomes visible again after the timeout and is
		// retried as a new attempt, bounded by the dispatcher's max-attempts
		// check.
		uc.appendLog(&log, &model.JobLogEntry{
			TenantID:     msg.TenantID,
			JobKey:       msg.JobKey,
			Status:       model.JobStatusFailed,
			Attempt:      attempt,
			MessageID:    msg.ID,
			ErrorMessage: runErr.Error(),
			Duration:     duration,
		})
		metrics.IncJobProcessed("failed")
		log.Error().Err(runErr).Dur("duration", duration).Msg("job attempt failed")
		return runErr
	}

	if err := uc.store.Ack(ctx, msg.ID); err != nil {
		// The work is done and the completion record is durable; if the ack
		// fails the redelivered message will hit the idempotency guard.
		log.Warn().Err(err).Msg("ack failed after successful run")
	}
	uc.appendLog(&log, &model.JobLogEntry{
		TenantID:  msg.TenantID,
		JobKey:    msg.JobKey,
		Status:    model.JobStatusCompleted,
		Attempt:   attempt,
		MessageID: msg.ID,
		Duration:  duration,
	})
	metrics.IncJobProcessed("completed")
	log.Info().Dur("duration", duration).Msg("job completed")
	return nil
}

func (uc *processUC) RunDirect(ctx context.Context, tenantID, jobKey string) (*model.RunSummary, error) {
	if jobKey == "" {
		jobKey = model.JobKeyFor(time.Now(), uc.granularity)
	}
	summary := &model.RunSummary{TenantID: tenantID, JobKey: jobKey}

	done, err := uc.completions.Exists(ctx, repository.NoTX, tenantID, jobKey)
	if err != nil {
		return nil, err
	}
	if done {
		summary.Status = model.JobStatusCompleted
		return summary, nil
	}

	log := uc.log.With().Str("tenant_id", tenantID).Str("job_key", jobKey).Logger()
	uc.appendLog(&log, &model.JobLogEntry{
		TenantID: tenantID,
		JobKey:   jobKey,
		Status:   model.JobStatusProcessing,
		Attempt:  1,
	})

	start := time.Now()
	runErr := uc.runner.Execute(ctx, tenantID, jobKey)
	summary.Duration = time.Since(start)

	if runErr != nil {
		summary.Status = model.JobStatusFailed
		summary.Error = runErr.Error()
		uc.appendLog(&log, &model.JobLogEntry{
			TenantID:     tenantID,
			JobKey:       jobKey,
			Status:       model.JobStatusFailed,
			Attempt:      1,
			ErrorMessage: runErr.Error(),
			Duration:     summary.Duration,
		})
		metrics.IncJobProcessed("failed")
		return summary, nil
	}

	summary.Status = model.JobStatusCompleted
	uc.appendLog(&log, &model.JobLogEntry{
		TenantID: tenantID,
		JobKey:   jobKey,
		Status:   model.JobStatusCompleted,
		Attempt:  1,
		Duration: summary.Duration,
	})
	metrics.IncJobProcessed("completed")
	return summary, nil
}

// appendLog writes a job log entry and swallows any error. A failure to record
// a transition must never mask or compound the transition itself.
func (uc *processUC) appendLog(log *zerolog.Logger, entry *model.JobLogEntry) {
	if err := uc.jobLog.Append(context.Background(), repository.NoTX, entry); err != nil {
		log.Warn().Err(err).Str("status", string(entry.Status)).Msg("could not append job log entry")
	}
}
