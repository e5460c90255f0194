package runner

import (
	"context"

	"tenant-fanout-pipeline/internal/domain/ports/adapter"
	"tenant-fanout-pipeline/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

var _ adapter.JobRunner = (*CompletionRunner)(nil)

// CompletionRunner is the built-in domain operation used in dev and demo
// setups: it performs no real work and just writes the completion record.
// Useful for exercising the whole pipeline without an external service.
type CompletionRunner struct {
	completions repository.CompletionRepository
	log         *zerolog.Logger
}

func NewCompletionRunner(completions repository.CompletionRepository, logger *zerolog.Logger) *CompletionRunner {
	runLog := logger.With().Str("component", "CompletionRunner").Logger()
	return &CompletionRunner{completions: completions, log: &runLog}
}

func (r *CompletionRunner) Execute(ctx context.Context, tenantID, jobKey string) error {
	if err := r.completions.Save(ctx, repository.NoTX, tenantID, jobKey); err != nil {
		return err
	}
	r.log.Debug().Str("tenant_id", tenantID).Str("job_key", jobKey).Msg("completion record written")
	return nil
}
