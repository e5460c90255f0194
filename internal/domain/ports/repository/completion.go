package repository

import "context"

// CompletionRepository tracks the single source of truth for "already done":
// a durable record per (tenant, job key) written once the domain operation
// succeeds. Both the enqueue pass and the worker consult Exists before doing
// any work, which is what makes redelivery and duplicate enqueue safe.
//
// Save is idempotent: writing an existing (tenant, job key) pair is a no-op.
type CompletionRepository interface {
	Exists(ctx context.Context, tx Tx, tenantID, jobKey string) (bool, error)
	Save(ctx context.Context, tx Tx, tenantID, jobKey string) error
}
