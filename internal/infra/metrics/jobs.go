package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(jobsProcessedTotal, jobsEnqueuedTotal, jobsSkippedTotal, jobsDeadLetteredTotal, jobDurationSeconds)
}

var jobsProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pipeline_jobs_processed_total",
		Help: "Total number of job attempts processed, labeled by outcome.",
	},
	[]string{"outcome"}, // 'completed', 'failed', 'skipped'
)

var jobsEnqueuedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "pipeline_jobs_enqueued_total",
		Help: "Total number of messages enqueued by enqueue passes.",
	},
)

var jobsSkippedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "pipeline_enqueue_skipped_total",
		Help: "Tenants skipped by enqueue passes because a completion record already existed.",
	},
)

var jobsDeadLetteredTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "pipeline_jobs_dead_lettered_total",
		Help: "Messages moved to the dead-letter queue after exhausting their retry budget.",
	},
)

var jobDurationSeconds = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "pipeline_job_duration_seconds",
		Help:    "Domain operation duration distribution per attempt.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	},
)

func IncJobProcessed(outcome string) {
	jobsProcessedTotal.WithLabelValues(norm(outcome)).Inc()
}

func ObserveEnqueuePass(enqueued, skipped int) {
	jobsEnqueuedTotal.Add(float64(enqueued))
	jobsSkippedTotal.Add(float64(skipped))
}

func IncDeadLettered() {
	jobsDeadLetteredTotal.Inc()
}

func ObserveJobDuration(d time.Duration) {
	jobDurationSeconds.Observe(d.Seconds())
}
