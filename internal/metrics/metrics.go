// Package metrics holds the prometheus collectors for the resource service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "resource_service"

// Metrics groups the counters updated by the HTTP layer, the lifecycle
// services and the orphan sweep.
type Metrics struct {
	Requests        *prometheus.CounterVec
	Uploads         *prometheus.CounterVec
	CleanupFailures *prometheus.CounterVec
	ActionLogErrors prometheus.Counter
	OrphansRemoved  prometheus.Counter
	SweepRuns       *prometheus.CounterVec
}

// New builds the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Number of HTTP requests by method and status code",
		}, []string{"method", "code"}),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "uploads_total",
			Help:      "Number of uploads to the storage backend by result",
		}, []string{"result"}),
		CleanupFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "cleanup_failures_total",
			Help:      "Number of best-effort object deletions that failed",
		}, []string{"reason"}),
		ActionLogErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "write_errors_total",
			Help:      "Number of action log entries that could not be written",
		}),
		OrphansRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "orphans_removed_total",
			Help:      "Number of unreferenced storage objects removed by the sweep",
		}),
		SweepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "runs_total",
			Help:      "Number of orphan sweep runs by result",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.Collectors()...)
	}
	return m
}

// Collectors returns every collector owned by m.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Requests,
		m.Uploads,
		m.CleanupFailures,
		m.ActionLogErrors,
		m.OrphansRemoved,
		m.SweepRuns,
	}
}
