package adapter

import (
	"context"

	"tenant-fanout-pipeline/internal/domain/model"
)

// AlertSink delivers operator-facing alerts (dead-lettered jobs). Failures to
// deliver an alert are logged by the caller, never propagated.
type AlertSink interface {
	Send(ctx context.Context, alert model.Alert) error
}
