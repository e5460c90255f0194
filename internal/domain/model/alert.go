package model

type AlertSeverity string

const (
	AlertSeverityWarning  AlertSeverity = "warning"
	AlertSeverityCritical AlertSeverity = "critical"
)

// Alert is an operator-facing notification, e.g. for a dead-lettered job.
type Alert struct {
	TenantID    string
	Title       string
	Description string
	Severity    AlertSeverity
}
