package scheduler

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the daily digest scheduler.
type Metrics struct {
	DigestsFired     prometheus.Counter
	DigestsSucceeded prometheus.Counter
	DigestsFailed    prometheus.Counter
	RunDuration      prometheus.Histogram
}

// NewMetrics creates and registers scheduler metrics.
// Returns nil if reg is nil.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		return nil
	}

	m := &Metrics{
		DigestsFired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sophia",
			Subsystem: "scheduler",
			Name:      "digests_fired_total",
			Help:      "Total daily digest generations attempted.",
		}),
		DigestsSucceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sophia",
			Subsystem: "scheduler",
			Name:      "digests_succeeded_total",
			Help:      "Total daily digests delivered.",
		}),
		DigestsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sophia",
			Subsystem: "scheduler",
			Name:      "digests_failed_total",
			Help:      "Total daily digest generations that failed.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sophia",
			Subsystem: "scheduler",
			Name:      "run_duration_seconds",
			Help:      "Duration of each digest run across all seekers.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}),
	}

	reg.MustRegister(
		m.DigestsFired,
		m.DigestsSucceeded,
		m.DigestsFailed,
		m.RunDuration,
	)

	return m
}
