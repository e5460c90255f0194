package usecase

import (
	"context"
	"fmt"
	"time"

	"tenant-fanout-pipeline/internal/domain/model"
	"tenant-fanout-pipeline/internal/domain/ports/adapter"
	"tenant-fanout-pipeline/internal/domain/ports/repository"
	"tenant-fanout-pipeline/internal/infra/metrics"
	"tenant-fanout-pipeline/internal/infra/worker"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ DispatchUseCase = (*dispatchUC)(nil)

// DispatchUseCase drains the primary queue: each pass reads one bounded batch
// and fans the messages out to the worker pool without waiting for them to
// finish, so a pass's own latency stays O(batch) regardless of job duration.
type DispatchUseCase interface {
	RunPass(ctx context.Context) (*model.DispatchSummary, error)
}

// Submitter is the slice of the worker pool the dispatcher needs.
type Submitter interface {
	Submit(task worker.Task) error
}

// DispatchConfig carries the dispatch tunables.
type DispatchConfig struct {
	// BatchSize caps how much concurrent work one pass admits.
	BatchSize int
	// VisibilityTimeout must exceed the worst-case job duration plus margin,
	// or still-running jobs get spuriously redelivered.
	VisibilityTimeout time.Duration
	// MaxAttempts is the retry budget; a message read more than this many
	// times is dead-lettered instead of dispatched.
	MaxAttempts int
}

type dispatchUC struct {
	primary repository.JobStore
	dlq     repository.JobStore
	jobLog  repository.JobLogRepository
	proc    ProcessUseCase
	pool    Submitter
	alerts  adapter.AlertSink
	cfg     DispatchConfig
	log     *zerolog.Logger
}

func NewDispatchUseCase(
	primary repository.JobStore,
	dlq repository.JobStore,
	jobLog repository.JobLogRepository,
	proc ProcessUseCase,
	pool Submitter,
	alerts adapter.AlertSink,
	cfg DispatchConfig,
	logger *zerolog.Logger,
) *dispatchUC {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.VisibilityTimeout <= 0 {
		cfg.VisibilityTimeout = 5 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	ucLog := logger.With().Str("component", "DispatchUseCase").Logger()
	return &dispatchUC{
		primary: primary,
		dlq:     dlq,
		jobLog:  jobLog,
		proc:    proc,
		pool:    pool,
		alerts:  alerts,
		cfg:     cfg,
		log:     &ucLog,
	}
}

func (uc *dispatchUC) RunPass(ctx context.Context) (*model.DispatchSummary, error) {
	msgs, err := uc.primary.ReadBatch(ctx, uc.cfg.BatchSize, uc.cfg.VisibilityTimeout)
	if err != nil {
		return nil, err
	}

	summary := &model.DispatchSummary{Read: len(msgs)}
	for _, msg := range msgs {
		// Per-message isolation: neither a dead-letter failure nor a full
		// pool aborts the rest of the batch.
		if msg.DeliveryCount > uc.cfg.MaxAttempts {
			if err := uc.deadLetter(ctx, msg); err != nil {
				uc.log.Error().Err(err).Str("message_id", msg.ID).Msg("dead-letter move failed; message will be redelivered")
				continue
			}
			summary.DeadLettered++
			continue
		}

		m := msg
		err := uc.pool.Submit(func(taskCtx context.Context) error {
			if procErr := uc.proc.ProcessMessage(taskCtx, m); procErr != nil {
				uc.log.Warn().Err(procErr).Str("message_id", m.ID).Msg("worker attempt failed")
			}
			return nil
		})
		if err != nil {
			// Dropped submissions are not lost: the unacked message becomes
			// visible again after the timeout.
			summary.Dropped++
			uc.log.Warn().Err(err).Str("message_id", m.ID).Msg("could not submit worker task")
			continue
		}
		summary.Dispatched++
	}

	uc.refreshQueueGauges(ctx)
	uc.log.Info().
		Int("read", summary.Read).
		Int("dispatched", summary.Dispatched).
		Int("dead_lettered", summary.DeadLettered).
		Int("dropped", summary.Dropped).
		Msg("dispatch pass finished")
	return summary, nil
}

// deadLetter moves a message whose retry budget is exhausted to the
// dead-letter queue, records the terminal log row, and alerts the operator.
// This is a terminal state; nothing retries a dead-lettered message
// automatically.
func (uc *dispatchUC) deadLetter(ctx context.Context, msg *model.Message) error {
	copyMsg := &model.Message{
		TenantID:              msg.TenantID,
		JobKey:                msg.JobKey,
		OriginalMessageID:     msg.ID,
		OriginalDeliveryCount: msg.DeliveryCount,
	}
	dlqID, err := uc.dlq.Enqueue(ctx, copyMsg)
	if err != nil {
		return err
	}
	if err := uc.primary.Ack(ctx, msg.ID); err != nil {
		return err
	}

	entry := &model.JobLogEntry{
		TenantID:     msg.TenantID,
		JobKey:       msg.JobKey,
		Status:       model.JobStatusDeadLettered,
		Attempt:      msg.DeliveryCount,
		MessageID:    msg.ID,
		ErrorMessage: fmt.Sprintf("retry budget exhausted after %d deliveries; moved to dead-letter queue as %s", msg.DeliveryCount, dlqID),
	}
	if err := uc.jobLog.Append(ctx, repository.NoTX, entry); err != nil {
		uc.log.Warn().Err(err).Str("message_id", msg.ID).Msg("could not append dead-letter log entry")
	}

	metrics.IncDeadLettered()
	alert := model.Alert{
		TenantID:    msg.TenantID,
		Title:       "job dead-lettered",
		Description: fmt.Sprintf("job %s for tenant %s failed %d deliveries and was moved to the dead-letter queue (message %s)", msg.JobKey, msg.TenantID, msg.DeliveryCount, msg.ID),
		Severity:    model.AlertSeverityCritical,
	}
	if err := uc.alerts.Send(ctx, alert); err != nil {
		uc.log.Error().Err(err).Str("tenant_id", msg.TenantID).Msg("could not deliver dead-letter alert")
	}
	uc.log.Warn().
		Str("tenant_id", msg.TenantID).
		Str("job_key", msg.JobKey).
		Str("message_id", msg.ID).
		Int("deliveries", msg.DeliveryCount).
		Msg("message dead-lettered")
	return nil
}

func (uc *dispatchUC) refreshQueueGauges(ctx context.Context) {
	if m, err := uc.primary.Metrics(ctx); err == nil {
		metrics.SetQueueDepth("primary", m.PendingCount, m.OldestAge)
	}
	if m, err := uc.dlq.Metrics(ctx); err == nil {
		metrics.SetQueueDepth("dead_letter", m.PendingCount, m.OldestAge)
	}
}
