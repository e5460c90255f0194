package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"tenant-fanout-pipeline/internal/domain"
	"tenant-fanout-pipeline/internal/domain/ports/repository"
)

var _ repository.CompletionRepository = (*completionRepo)(nil)

type completionRepo struct {
	pool *pgxpool.Pool
}

func NewCompletionRepo(pool *pgxpool.Pool) *completionRepo {
	return &completionRepo{pool: pool}
}

func (r *completionRepo) Exists(ctx context.Context, tx repository.Tx, tenantID, jobKey string) (bool, error) {
	const q = `
SELECT EXISTS(
    SELECT 1 FROM job_completions WHERE tenant_id = $1 AND job_key = $2
)`
	row, err := pickRow(ctx, r.pool, tx, q, tenantID, jobKey)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}

func (r *completionRepo) Save(ctx context.Context, tx repository.Tx, tenantID, jobKey string) error {
	// The primary key on (tenant_id, job_key) makes concurrent completion
	// writes for the same pair collapse into one record, which is exactly what
	// the idempotency guard needs.
	const q = `
INSERT INTO job_completions (tenant_id, job_key, completed_at)
VALUES ($1, $2, now())
ON CONFLICT (tenant_id, job_key) DO NOTHING`

	_, err := execSQL(ctx, r.pool, tx, q, tenantID, jobKey)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil // already recorded by a concurrent attempt
		}
		return err
	}
	return nil
}
