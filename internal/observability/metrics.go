package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector holds all Prometheus metrics for Sophia.
// Uses a custom registry, no global state.
type MetricsCollector struct {
	Registry *prometheus.Registry

	// Engine metrics.
	AssessmentsTotal   *prometheus.CounterVec
	GuidanceTotal      *prometheus.CounterVec
	MeditationsTotal   *prometheus.CounterVec
	MeditationDuration prometheus.Histogram

	// Firewall metrics.
	ScansTotal  *prometheus.CounterVec
	ThreatLevel prometheus.Histogram

	// HTTP gateway metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// System metrics.
	ActiveRequests prometheus.Gauge
}

// NewMetricsCollector creates a MetricsCollector with all metrics registered
// on a custom prometheus.Registry.
func NewMetricsCollector() *MetricsCollector {
	reg := prometheus.NewRegistry()

	m := &MetricsCollector{
		Registry: reg,

		AssessmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sophia",
			Subsystem: "engine",
			Name:      "assessments_total",
			Help:      "Total consciousness assessments by resulting level.",
		}, []string{"level", "status"}),

		GuidanceTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sophia",
			Subsystem: "engine",
			Name:      "guidance_total",
			Help:      "Total guidance insights delivered.",
		}, []string{"domain", "guidance_type", "status"}),

		MeditationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sophia",
			Subsystem: "engine",
			Name:      "meditations_total",
			Help:      "Total guided meditation sessions.",
		}, []string{"level_after", "status"}),

		MeditationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sophia",
			Subsystem: "engine",
			Name:      "meditation_duration_minutes",
			Help:      "Requested meditation duration in minutes.",
			Buckets:   []float64{5, 10, 15, 20, 30, 45, 60, 90, 120},
		}),

		ScansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sophia",
			Subsystem: "firewall",
			Name:      "scans_total",
			Help:      "Total purity scans by verdict.",
		}, []string{"verdict"}),

		ThreatLevel: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sophia",
			Subsystem: "firewall",
			Name:      "threat_level",
			Help:      "Threat level distribution of scanned content.",
			Buckets:   []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.75, 1},
		}),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sophia",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		}, []string{"method", "path", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sophia",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		ActiveRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sophia",
			Name:      "active_requests",
			Help:      "Number of currently active requests.",
		}),
	}

	// Register all collectors.
	reg.MustRegister(
		m.AssessmentsTotal,
		m.GuidanceTotal,
		m.MeditationsTotal,
		m.MeditationDuration,
		m.ScansTotal,
		m.ThreatLevel,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ActiveRequests,
	)

	return m
}
