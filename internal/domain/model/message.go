package model

import "time"

// Message is one unit of work in a job store: "process tenant X for job key K".
// The store owns DeliveryCount and VisibleAt; nothing else mutates a message.
type Message struct {
	ID            string
	TenantID      string
	JobKey        string
	DeliveryCount int
	EnqueuedAt    time.Time
	VisibleAt     time.Time

	// Set only on dead-letter copies, referencing the message that exhausted
	// its retry budget on the primary queue.
	OriginalMessageID     string
	OriginalDeliveryCount int
}

// QueueMetrics is a point-in-time snapshot of a single queue.
type QueueMetrics struct {
	PendingCount int
	OldestAge    time.Duration
}
