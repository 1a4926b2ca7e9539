// Package metrics exposes prometheus counters for actuation events
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sherine-k/actuator/pkg/scheduler"
)

// Metrics holds the actuator's collectors
type Metrics struct {
	registry *prometheus.Registry

	Events   *prometheus.CounterVec
	Sessions prometheus.Gauge
	Armed    prometheus.Gauge
}

// New creates the collectors and registers them on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "actuator",
			Name:      "events_total",
			Help:      "Scheduler events by type.",
		}, []string{"type"}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "actuator",
			Name:      "sessions_active",
			Help:      "Live sessions currently connected.",
		}),
		Armed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "actuator",
			Name:      "actuations_armed",
			Help:      "Sessions with an armed actuation.",
		}),
	}
	m.registry.MustRegister(m.Events, m.Sessions, m.Armed)
	return m
}

// Emit counts a scheduler event and tracks how many slots are armed
func (m *Metrics) Emit(e scheduler.Event) {
	m.Events.WithLabelValues(string(e.Type)).Inc()

	switch e.Type {
	case scheduler.EventTypeScheduled:
		m.Armed.Inc()
	case scheduler.EventTypeReplaced, scheduler.EventTypeCancelled, scheduler.EventTypeFired:
		m.Armed.Dec()
	}
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

var _ scheduler.Sink = (*Metrics)(nil)
