// Package metrics holds the Prometheus collectors for TaskPilot.
// All methods are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "taskpilot"

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomeFailed   = "failed"
)

// Metrics bundles the collectors registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	tasksCreated  prometheus.Counter
	tasksDeleted  prometheus.Counter
	statusChanges *prometheus.CounterVec
	generations   *prometheus.CounterVec
	reminders     *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tasksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_created_total",
			Help:      "Tasks inserted into the store.",
		}),
		tasksDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_deleted_total",
			Help:      "Tasks permanently deleted.",
		}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_changes_total",
			Help:      "Task status transitions by target status.",
		}, []string{"status"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Text generation calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		reminders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_total",
			Help:      "Reminder emails by delivery outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.tasksCreated, m.tasksDeleted, m.statusChanges, m.generations, m.reminders,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) TaskCreated() {
	if m != nil {
		m.tasksCreated.Inc()
	}
}

func (m *Metrics) TaskDeleted() {
	if m != nil {
		m.tasksDeleted.Inc()
	}
}

func (m *Metrics) StatusChanged(status string) {
	if m != nil {
		m.statusChanges.WithLabelValues(status).Inc()
	}
}

// Generation records one generation call.
func (m *Metrics) Generation(operation, outcome string) {
	if m != nil {
		m.generations.WithLabelValues(operation, outcome).Inc()
	}
}

// Reminder records one reminder delivery attempt.
func (m *Metrics) Reminder(outcome string) {
	if m != nil {
		m.reminders.WithLabelValues(outcome).Inc()
	}
}
