package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tenant-fanout-pipeline/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

var _ adapter.JobRunner = (*WebhookRunner)(nil)

// WebhookRunner delegates the domain operation to an external HTTP service.
// The remote service owns the completion-record write; a 2xx response is its
// confirmation that the record is durable, so any other outcome (including a
// 2xx that arrives after our timeout) is treated as a transient failure and
// retried via redelivery.
type WebhookRunner struct {
	url    string
	token  string
	client *http.Client
	log    *zerolog.Logger
}

func NewWebhookRunner(url, token string, timeout time.Duration, logger *zerolog.Logger) *WebhookRunner {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	runLog := logger.With().Str("component", "WebhookRunner").Logger()
	return &WebhookRunner{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: timeout},
		log:    &runLog,
	}
}

type webhookRequest struct {
	TenantID string `json:"tenant_id"`
	JobKey   string `json:"job_key"`
}

func (r *WebhookRunner) Execute(ctx context.Context, tenantID, jobKey string) error {
	body, err := json.Marshal(webhookRequest{TenantID: tenantID, JobKey: jobKey})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, string(snippet))
	}
	return nil
}
