package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"tenant-fanout-pipeline/internal/domain"
	"tenant-fanout-pipeline/internal/domain/model"
	"tenant-fanout-pipeline/internal/domain/ports/repository"
)

var _ repository.JobLogRepository = (*jobLogRepo)(nil)

type jobLogRepo struct {
	pool *pgxpool.Pool
}

func NewJobLogRepo(pool *pgxpool.Pool) *jobLogRepo {
	return &jobLogRepo{pool: pool}
}

func (r *jobLogRepo) Append(ctx context.Context, tx repository.Tx, e *model.JobLogEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	const q = `
INSERT INTO job_log (id, tenant_id, job_key, status, attempt, message_id, error_message, duration_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := execSQL(ctx, r.pool, tx, q,
		e.ID, e.TenantID, e.JobKey, string(e.Status), e.Attempt, e.MessageID,
		e.ErrorMessage, e.Duration.Milliseconds(), e.CreatedAt)
	return err
}

func (r *jobLogRepo) RunStats(ctx context.Context, tx repository.Tx, jobKey string) (*model.RunStats, error) {
	const q = `
SELECT
    COUNT(*) FILTER (WHERE status = 'queued'),
    COUNT(*) FILTER (WHERE status = 'completed'),
    COUNT(*) FILTER (WHERE status = 'failed'),
    COUNT(*) FILTER (WHERE status = 'dead_lettered')
FROM job_log WHERE job_key = $1`

	row, err := pickRow(ctx, r.pool, tx, q, jobKey)
	if err != nil {
		return nil, err
	}
	stats := &model.RunStats{JobKey: jobKey}
	if err := row.Scan(&stats.Queued, &stats.Completed, &stats.Failed, &stats.DeadLettered); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return stats, nil
}

func (r *jobLogRepo) DurationPercentiles(ctx context.Context, tx repository.Tx, jobKey string) (*model.DurationPercentiles, error) {
	// Completed rows only: failed attempts would skew the latency picture of
	// useful work.
	const q = `
SELECT
    COALESCE(percentile_cont(0.50) WITHIN GROUP (ORDER BY duration_ms), 0),
    COALESCE(percentile_cont(0.95) WITHIN GROUP (ORDER BY duration_ms), 0),
    COALESCE(percentile_cont(0.99) WITHIN GROUP (ORDER BY duration_ms), 0)
FROM job_log
WHERE status = 'completed' AND ($1 = '' OR job_key = $1)`

	row, err := pickRow(ctx, r.pool, tx, q, jobKey)
	if err != nil {
		return nil, err
	}
	var p50, p95, p99 float64
	if err := row.Scan(&p50, &p95, &p99); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return &model.DurationPercentiles{
		P50: time.Duration(p50 * float64(time.Millisecond)),
		P95: time.Duration(p95 * float64(time.Millisecond)),
		P99: time.Duration(p99 * float64(time.Millisecond)),
	}, nil
}

func (r *jobLogRepo) FailureLeaderboard(ctx context.Context, tx repository.Tx, limit int) ([]*model.TenantFailureCount, error) {
	const q = `
SELECT tenant_id, COUNT(*) AS failures
FROM job_log
WHERE status IN ('failed', 'dead_lettered')
GROUP BY tenant_id
ORDER BY failures DESC, tenant_id
LIMIT $1`

	rows, err := pickRows(ctx, r.pool, tx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.TenantFailureCount
	for rows.Next() {
		var c model.TenantFailureCount
		if err := rows.Scan(&c.TenantID, &c.Failures); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *jobLogRepo) LastQueuedAt(ctx context.Context, tx repository.Tx) (time.Time, error) {
	const q = `SELECT MAX(created_at) FROM job_log WHERE status = 'queued'`

	row, err := pickRow(ctx, r.pool, tx, q)
	if err != nil {
		return time.Time{}, err
	}
	var last *time.Time
	if err := row.Scan(&last); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, domain.ErrReadDatabaseRow
	}
	if last == nil {
		return time.Time{}, nil
	}
	return *last, nil
}

func (r *jobLogRepo) ListByStatus(ctx context.Context, tx repository.Tx, status model.JobStatus, limit int) ([]*model.JobLogEntry, error) {
	const q = `
SELECT id, tenant_id, job_key, status, attempt, message_id, error_message, duration_ms, created_at
FROM job_log
WHERE status = $1
ORDER BY created_at DESC
LIMIT $2`

	rows, err := pickRows(ctx, r.pool, tx, q, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.JobLogEntry
	for rows.Next() {
		var e model.JobLogEntry
		var statusStr string
		var durationMs int64
		if err := rows.Scan(&e.ID, &e.TenantID, &e.JobKey, &statusStr, &e.Attempt, &e.MessageID, &e.ErrorMessage, &durationMs, &e.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		e.Status = model.JobStatus(statusStr)
		e.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, &e)
	}
	return out, rows.Err()
}
