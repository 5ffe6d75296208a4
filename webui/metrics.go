package webui

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "enso"

// Metrics holds the launcher counters on a private registry
type Metrics struct {
	registry *prometheus.Registry

	CommandRuns       *prometheus.CounterVec
	BadCommands       prometheus.Counter
	ScriptReloads     prometheus.Counter
	ScriptCommands    prometheus.Gauge
	SelectionTimeouts *prometheus.CounterVec
	LiveSteps         prometheus.Gauge
	Messages          prometheus.Counter
}

// NewMetrics registers every collector on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		CommandRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_runs_total",
			Help:      "Commands executed, by outcome.",
		}, []string{"outcome"}),
		BadCommands: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bad_commands_total",
			Help:      "Quasimode sessions that ended on unknown text.",
		}),
		ScriptReloads: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "script_reloads_total",
			Help:      "Full reloads of the script commands.",
		}),
		ScriptCommands: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "script_commands",
			Help:      "Commands registered from script files.",
		}),
		SelectionTimeouts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selection_timeouts_total",
			Help:      "Selection reads and writes that gave up waiting on the clipboard.",
		}, []string{"op"}),
		LiveSteps: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cooperative_steps",
			Help:      "Cooperative command steps still pending.",
		}),
		Messages: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Messages submitted to the message manager.",
		}),
	}
}

// SelectionTimeout counts a bridge wait that expired
func (m *Metrics) SelectionTimeout(op string) {
	m.SelectionTimeouts.WithLabelValues(op).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the private registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
