// Package metrics exposes Prometheus instrumentation for tool calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "defi_dashboard"

// Call outcomes recorded in the outcome label.
const (
	OutcomeSuccess      = "success"
	OutcomeToolError    = "tool_error"
	OutcomeInvalidInput = "invalid_input"
)

// Metrics holds the collectors for tool calls
type Metrics struct {
	registry     *prometheus.Registry
	toolCalls    *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
}

// New creates the tool metrics on a dedicated registry that also carries the
// Go runtime and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegisterer(registry, registry)
}

// NewWithRegisterer creates the tool metrics on the given registerer.
// gatherer may be nil when the caller serves metrics some other way.
func NewWithRegisterer(reg prometheus.Registerer, gatherer *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: gatherer,
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Number of tool invocations by tool and outcome.",
		}, []string{"tool", "outcome"}),
		callDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "Tool invocation latency.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"tool"}),
	}
	reg.MustRegister(m.toolCalls, m.callDuration)
	return m
}

// ObserveToolCall records one invocation.
func (m *Metrics) ObserveToolCall(tool, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
	m.callDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
