package alert

import (
	"context"

	"github.com/rs/zerolog"

	"tenant-fanout-pipeline/internal/domain/model"
	"tenant-fanout-pipeline/internal/domain/ports/adapter"
)

var _ adapter.AlertSink = (*LogSink)(nil)

// LogSink writes alerts to the service log. Used when no Telegram chat is
// configured; the alert is still visible to whoever tails the logs.
type LogSink struct {
	log *zerolog.Logger
}

func NewLogSink(logger *zerolog.Logger) *LogSink {
	sinkLog := logger.With().Str("component", "AlertLog").Logger()
	return &LogSink{log: &sinkLog}
}

func (s *LogSink) Send(_ context.Context, alert model.Alert) error {
	s.log.Warn().
		Str("severity", string(alert.Severity)).
		Str("tenant_id", alert.TenantID).
		Str("title", alert.Title).
		Msg(alert.Description)
	return nil
}
