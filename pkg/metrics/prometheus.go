package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	decisions    *prometheus.CounterVec
	evaluations  *prometheus.CounterVec
	activeEngine *prometheus.GaugeVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New registers the recorder's collectors on reg; nil means the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		decisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enginegate_route_decisions_total",
				Help: "Webhook deliveries by outcome and engine",
			},
			[]string{"outcome", "engine"},
		),
		evaluations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enginegate_evaluations_total",
				Help: "Rule evaluations by winning engine (none when nothing fired)",
			},
			[]string{"engine"},
		),
		activeEngine: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "enginegate_active_engine",
				Help: "1 for the engine currently holding the channel",
			},
			[]string{"engine"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enginegate_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "enginegate_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordDecision counts one routing outcome.
func (r *Recorder) RecordDecision(outcome, engine string) {
	r.decisions.WithLabelValues(outcome, engine).Inc()
}

// RecordEvaluation counts one evaluation result.
func (r *Recorder) RecordEvaluation(engine string) {
	r.evaluations.WithLabelValues(engine).Inc()
}

// RecordActiveEngine marks engine as the only active one.
func (r *Recorder) RecordActiveEngine(engine string) {
	r.activeEngine.Reset()
	if engine != "" {
		r.activeEngine.WithLabelValues(engine).Set(1)
	}
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
