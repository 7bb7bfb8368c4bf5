package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gravekeeper"

// Metrics holds the Prometheus collectors for the HTTP layer and the domain services.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	sweepsTotal        prometheus.Counter
	sweepDuration      prometheus.Histogram
	markedOverdueTotal prometheus.Counter
	transitionsTotal   *prometheus.CounterVec
	tasks              *prometheus.GaugeVec
	burialRecords      *prometheus.GaugeVec
	snapshotFailures   prometheus.Counter
}

// New creates the collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),

		sweepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "maintenance",
			Name:      "sweeps_total",
			Help:      "Total overdue sweeps run",
		}),

		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "maintenance",
			Name:      "sweep_duration_seconds",
			Help:      "Overdue sweep duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),

		markedOverdueTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "maintenance",
			Name:      "tasks_marked_overdue_total",
			Help:      "Total tasks reclassified as overdue by the sweep",
		}),

		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "maintenance",
			Name:      "status_transitions_total",
			Help:      "Task status changes by target status",
		}, []string{"status"}),

		tasks: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "maintenance",
			Name:      "tasks",
			Help:      "Current number of tasks by status",
		}, []string{"status"}),

		burialRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "burial",
			Name:      "records",
			Help:      "Current number of burial records by status",
		}, []string{"status"}),

		snapshotFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "snapshot_write_failures_total",
			Help:      "Task snapshot writes that failed",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestsTotal,
		m.requestDuration,
		m.sweepsTotal,
		m.sweepDuration,
		m.markedOverdueTotal,
		m.transitionsTotal,
		m.tasks,
		m.burialRecords,
		m.snapshotFailures,
	)

	return m
}

// Registry exposes the underlying registry, mostly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveSweep records one sweep run and how many tasks it reclassified
func (m *Metrics) ObserveSweep(duration time.Duration, marked int) {
	if m == nil {
		return
	}
	m.sweepsTotal.Inc()
	m.sweepDuration.Observe(duration.Seconds())
	if marked > 0 {
		m.markedOverdueTotal.Add(float64(marked))
	}
}

func (m *Metrics) IncTransition(status string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(status).Inc()
}

// SetTaskCounts replaces the per-status task gauges
func (m *Metrics) SetTaskCounts(counts map[string]int) {
	if m == nil {
		return
	}
	m.tasks.Reset()
	for status, n := range counts {
		m.tasks.WithLabelValues(status).Set(float64(n))
	}
}

// SetBurialRecordCounts replaces the per-status burial record gauges
func (m *Metrics) SetBurialRecordCounts(counts map[string]int) {
	if m == nil {
		return
	}
	m.burialRecords.Reset()
	for status, n := range counts {
		m.burialRecords.WithLabelValues(status).Set(float64(n))
	}
}

func (m *Metrics) IncSnapshotWriteFailure() {
	if m == nil {
		return
	}
	m.snapshotFailures.Inc()
}
