package model

import "time"

// EnqueueSummary reports the outcome of one enqueue pass.
type EnqueueSummary struct {
	JobKey   string `json:"job_key"`
	Enqueued int    `json:"enqueued"`
	Skipped  int    `json:"skipped"`
	Failed   int    `json:"failed"`
}

// DispatchSummary reports the outcome of one dispatch pass.
type DispatchSummary struct {
	Read         int `json:"read"`
	Dispatched   int `json:"dispatched"`
	DeadLettered int `json:"dead_lettered"`
	Dropped      int `json:"dropped"`
}

// RunSummary reports a direct, queue-bypassing run for a single tenant.
type RunSummary struct {
	TenantID string        `json:"tenant_id"`
	JobKey   string        `json:"job_key"`
	Status   JobStatus     `json:"status"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}
