package repository

import (
	"context"
	"time"

	"tenant-fanout-pipeline/internal/domain/model"
)

// JobLogRepository records every state transition of every job attempt.
// Append-only: rows are never updated or deleted.
type JobLogRepository interface {
	Append(ctx context.Context, tx Tx, entry *model.JobLogEntry) error

	// Observability queries. All read-only.
	RunStats(ctx context.Context, tx Tx, jobKey string) (*model.RunStats, error)
	DurationPercentiles(ctx context.Context, tx Tx, jobKey string) (*model.DurationPercentiles, error)
	FailureLeaderboard(ctx context.Context, tx Tx, limit int) ([]*model.TenantFailureCount, error)
	LastQueuedAt(ctx context.Context, tx Tx) (time.Time, error)
	ListByStatus(ctx context.Context, tx Tx, status model.JobStatus, limit int) ([]*model.JobLogEntry, error)
}
