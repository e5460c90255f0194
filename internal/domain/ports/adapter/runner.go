package adapter

import "context"

// JobRunner is the injected domain operation: process one tenant for one job
// key. Implementations must durably write the completion record for
// (tenantID, jobKey) before returning nil; a nil return is the pipeline's
// confirmation that the work is done and the message may be acked.
//
// Implementations must be safely re-runnable: a redelivered message may
// invoke Execute again for a pair that partially ran before.
type JobRunner interface {
	Execute(ctx context.Context, tenantID, jobKey string) error
}

// JobRunnerFunc adapts a plain function to the JobRunner interface.
type JobRunnerFunc func(ctx context.Context, tenantID, jobKey string) error

func (f JobRunnerFunc) Execute(ctx context.Context, tenantID, jobKey string) error {
	return f(ctx, tenantID, jobKey)
}
