package repository

import (
	"context"
	"time"

	"tenant-fanout-pipeline/internal/domain/model"
)

// JobStore is a durable, FIFO-ish message store. The primary queue and the
// dead-letter queue are two instances of the same contract.
//
// The store is the concurrency control for the whole pipeline: a message
// returned by ReadBatch is invisible to every other reader until the
// visibility timeout elapses or the message is acked. A reader that crashes
// mid-flight needs no cleanup; its messages simply reappear after the timeout
// with the delivery count incremented.
type JobStore interface {
	// Enqueue stores a new message and returns its store-assigned ID.
	// No uniqueness is enforced here; duplicate suppression is the enqueue
	// pass's job via the completion-record check.
	Enqueue(ctx context.Context, msg *model.Message) (string, error)

	// ReadBatch claims up to maxCount currently-visible messages and hides
	// each of them for visibilityTimeout. DeliveryCount on the returned
	// messages already includes this read.
	ReadBatch(ctx context.Context, maxCount int, visibilityTimeout time.Duration) ([]*model.Message, error)

	// Ack permanently removes a message. Acking an unknown ID is a no-op.
	Ack(ctx context.Context, messageID string) error

	Metrics(ctx context.Context) (*model.QueueMetrics, error)
}
