package model

import "time"

type JobStatus string

const (
	JobStatusQueued       JobStatus = "queued"
	JobStatusProcessing   JobStatus = "processing"
	JobStatusCompleted    JobStatus = "completed"
	JobStatusFailed       JobStatus = "failed"
	JobStatusDeadLettered JobStatus = "dead_lettered"
)

// JobLogEntry is one state transition of one job attempt. Rows are appended,
// never updated, so the log doubles as a full audit trail.
type JobLogEntry struct {
	ID           string
	TenantID     string
	JobKey       string
	Status       JobStatus
	Attempt      int
	MessageID    string
	ErrorMessage string
	Duration     time.Duration
	CreatedAt    time.Time
}

// RunStats aggregates log rows for a single job key.
type RunStats struct {
	JobKey       string `json:"job_key"`
	Queued       int    `json:"queued"`
	Completed    int    `json:"completed"`
	Failed       int    `json:"failed"`
	DeadLettered int    `json:"dead_lettered"`
}

// DurationPercentiles holds attempt-duration percentiles over completed rows.
type DurationPercentiles struct {
	P50 time.Duration `json:"p50"`
	P95 time.Duration `json:"p95"`
	P99 time.Duration `json:"p99"`
}

// TenantFailureCount is one row of the per-tenant failure leaderboard.
type TenantFailureCount struct {
	TenantID string `json:"tenant_id"`
	Failures int    `json:"failures"`
}
