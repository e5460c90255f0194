package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(queueDepth, queueOldestAge) }

var queueDepth = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "pipeline_queue_depth",
		Help: "Messages currently stored per queue, visible or not.",
	},
	[]string{"queue"}, // 'primary', 'dead_letter'
)

var queueOldestAge = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "pipeline_queue_oldest_age_seconds",
		Help: "Age of the oldest message per queue.",
	},
	[]string{"queue"},
)

// SetQueueDepth records a queue snapshot; refreshed on every dispatch pass.
func SetQueueDepth(queue string, pending int, oldest time.Duration) {
	queueDepth.WithLabelValues(norm(queue)).Set(float64(pending))
	queueOldestAge.WithLabelValues(norm(queue)).Set(oldest.Seconds())
}
