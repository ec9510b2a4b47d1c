package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "plexplay"

// Metrics holds the playback counters exported to Prometheus.
type Metrics struct {
	registry *prometheus.Registry

	TrackStarts         prometheus.Counter
	ResolutionFailures  prometheus.Counter
	TicketMints         *prometheus.CounterVec
	Heals               *prometheus.CounterVec
	DroppedSwitches     prometheus.Counter
	SessionHalts        prometheus.Counter
	Prewarms            prometheus.Counter
	ConsecutiveFailures prometheus.Gauge
}

// NewMetrics creates the metric set on its own registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		TrackStarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "track_starts_total",
			Help:      "Tracks that started playing.",
		}),
		ResolutionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolution_failures_total",
			Help:      "Tracks that could not be started after all attempts.",
		}),
		TicketMints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticket_mints_total",
			Help:      "Stream ticket requests by outcome.",
		}, []string{"outcome"}),
		Heals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "self_heals_total",
			Help:      "Mid-stream recoveries by outcome.",
		}, []string{"outcome"}),
		DroppedSwitches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_switches_total",
			Help:      "Track switch requests dropped because one was in flight.",
		}),
		SessionHalts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_halts_total",
			Help:      "Sessions stopped after too many consecutive failures.",
		}),
		Prewarms: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prewarms_total",
			Help:      "Prewarm requests issued for upcoming tracks.",
		}),
		ConsecutiveFailures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "consecutive_failures",
			Help:      "Current run of failed track starts.",
		}),
	}

	m.registry.MustRegister(
		m.TrackStarts,
		m.ResolutionFailures,
		m.TicketMints,
		m.Heals,
		m.DroppedSwitches,
		m.SessionHalts,
		m.Prewarms,
		m.ConsecutiveFailures,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler exposes the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
