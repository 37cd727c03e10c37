// Package metrics exposes Prometheus instruments for the enforcer and the
// pipeline. All instruments register with the default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/danielpatrickdp/layer-governor/internal/update"
)

// #region enforcer-metrics

var (
	// EnforceIterations counts Observation→Reconciliation passes per layer.
	EnforceIterations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "governor_enforce_iterations_total",
		Help: "Total enforcement loop iterations by layer",
	}, []string{"layer"})

	// Rewrites counts iterations whose reconciliation changed the text.
	Rewrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "governor_reconciliation_rewrites_total",
		Help: "Total reconciliation rewrites by layer",
	}, []string{"layer"})

	// Vetoes counts refusals by layer and first veto type.
	Vetoes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "governor_vetoes_total",
		Help: "Total vetoed layer outputs",
	}, []string{"layer", "type"})

	// FailureEvents counts classified degradation events.
	FailureEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "governor_failure_events_total",
		Help: "Total failure events by code and severity",
	}, []string{"code", "severity"})

	// Beliefs tracks the last observed belief values per layer.
	Beliefs = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "governor_layer_belief",
		Help: "Last observed belief value by layer",
	}, []string{"layer", "belief"})
)

// #endregion enforcer-metrics

// #region pipeline-metrics

var (
	// LayerErrors counts generator failures recovered on non-terminal layers.
	LayerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "governor_layer_errors_total",
		Help: "Total recovered generator failures by layer",
	}, []string{"layer"})

	// Runs counts pipeline runs by outcome ("ok" | "error").
	Runs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "governor_runs_total",
		Help: "Total pipeline runs by outcome",
	}, []string{"outcome"})

	// RunDuration tracks pipeline latency.
	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "governor_run_duration_seconds",
		Help:    "Pipeline run duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
	}, []string{"outcome"})
)

// #endregion pipeline-metrics

// #region helpers

// ObserveBeliefs sets the belief gauges for a layer.
func ObserveBeliefs(layer string, b update.Beliefs) {
	Beliefs.WithLabelValues(layer, "coherence").Set(b.Coherence)
	Beliefs.WithLabelValues(layer, "reliability").Set(b.Reliability)
	Beliefs.WithLabelValues(layer, "hallucination_risk").Set(b.HallucinationRisk)
}

// ObserveFailures counts each failure event.
func ObserveFailures(events []update.FailureEvent) {
	for _, f := range events {
		FailureEvents.WithLabelValues(string(f.Code), string(f.Severity)).Inc()
	}
}

// #endregion helpers
