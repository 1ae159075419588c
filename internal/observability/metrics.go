package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Completion outcomes recorded by the engine.
const (
	OutcomeRecorded   = "recorded"
	OutcomeReplayed   = "replayed"
	OutcomeItemLocked = "item_locked"
	OutcomeOutOfRange = "out_of_range"
	OutcomeTooEarly   = "too_early"
	OutcomeError      = "error"
)

// Metrics groups every collector pathway exports. Each server owns its own
// registry so tests can build several side by side.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Completions     *prometheus.CounterVec
}

// NewMetrics registers pathway's collectors, plus the Go and process
// collectors, on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pathway_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pathway_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Completions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pathway_completions_total",
				Help: "Completion commands by outcome",
			},
			[]string{"outcome"},
		),
	}
	m.Registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.Completions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveCompletion counts one completion command. A nil receiver is a no-op
// so the engine can run without metrics.
func (m *Metrics) ObserveCompletion(outcome string) {
	if m == nil {
		return
	}
	m.Completions.WithLabelValues(outcome).Inc()
}
