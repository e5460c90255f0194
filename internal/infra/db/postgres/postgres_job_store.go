package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/oklog/ulid/v2"

	"tenant-fanout-pipeline/internal/domain/model"
	"tenant-fanout-pipeline/internal/domain/ports/repository"
)

var _ repository.JobStore = (*jobStore)(nil)

// jobStore is the Postgres queue driver. All messages live in one
// queue_messages table partitioned logically by queue name, so the primary and
// dead-letter stores are two instances pointed at different names.
//
// The claim in ReadBatch runs in a single transaction with
// FOR UPDATE SKIP LOCKED, which gives the at-most-one-concurrent-reader
// guarantee: competing dispatchers skip rows another one is claiming, and the
// visible_at bump hides the claimed rows once the transaction commits.
type jobStore struct {
	pool  *pgxpool.Pool
	tm    repository.TransactionManager
	queue string
}

func NewJobStore(pool *pgxpool.Pool, tm repository.TransactionManager, queue string) *jobStore {
	return &jobStore{pool: pool, tm: tm, queue: queue}
}

func (s *jobStore) Enqueue(ctx context.Context, msg *model.Message) (string, error) {
	id := ulid.Make().String()

	const q = `
INSERT INTO queue_messages (id, queue, tenant_id, job_key, delivery_count, enqueued_at, visible_at, original_message_id, original_delivery_count)
VALUES ($1, $2, $3, $4, 0, now(), now(), NULLIF($5, ''), $6)`

	_, err := execSQL(ctx, s.pool, nil, q,
		id, s.queue, msg.TenantID, msg.JobKey, msg.OriginalMessageID, msg.OriginalDeliveryCount)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *jobStore) ReadBatch(ctx context.Context, maxCount int, visibilityTimeout time.Duration) ([]*model.Message, error) {
	if maxCount <= 0 {
		return nil, nil
	}

	var out []*model.Message
	err := s.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		const claim = `
UPDATE queue_messages
SET delivery_count = delivery_count + 1,
    visible_at     = now() + make_interval(secs => $1)
WHERE id IN (
    SELECT id FROM queue_messages
    WHERE queue = $2 AND visible_at <= now()
    ORDER BY enqueued_at
    LIMIT $3
    FOR UPDATE SKIP LOCKED
)
RETURNING id, tenant_id, job_key, delivery_count, enqueued_at, visible_at,
          COALESCE(original_message_id, ''), original_delivery_count`

		rows, err := pickRows(ctx, s.pool, tx, claim, visibilityTimeout.Seconds(), s.queue, maxCount)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var m model.Message
			if err := rows.Scan(
				&m.ID, &m.TenantID, &m.JobKey, &m.DeliveryCount, &m.EnqueuedAt, &m.VisibleAt,
				&m.OriginalMessageID, &m.OriginalDeliveryCount,
			); err != nil {
				return err
			}
			out = append(out, &m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *jobStore) Ack(ctx context.Context, messageID string) error {
	// Deleting an already-acked (or never-seen) id is a no-op, not an error.
	const q = `DELETE FROM queue_messages WHERE id = $1 AND queue = $2`
	_, err := execSQL(ctx, s.pool, nil, q, messageID, s.queue)
	return err
}

func (s *jobStore) Metrics(ctx context.Context) (*model.QueueMetrics, error) {
	const q = `
SELECT COUNT(*), COALESCE(EXTRACT(EPOCH FROM now() - MIN(enqueued_at)), 0)
FROM queue_messages WHERE queue = $1`

	row, err := pickRow(ctx, s.pool, nil, q, s.queue)
	if err != nil {
		return nil, err
	}
	var count int
	var oldestSec float64
	if err := row.Scan(&count, &oldestSec); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.QueueMetrics{}, nil
		}
		return nil, err
	}
	return &model.QueueMetrics{
		PendingCount: count,
		OldestAge:    time.Duration(oldestSec * float64(time.Second)),
	}, nil
}
