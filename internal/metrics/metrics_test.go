package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/danielpatrickdp/layer-governor/internal/update"
)

func TestObserveBeliefs(t *testing.T) {
	ObserveBeliefs("metrics-test", update.Beliefs{Coherence: 0.5, Reliability: 0.6, HallucinationRisk: 0.7})

	if got := testutil.ToFloat64(Beliefs.WithLabelValues("metrics-test", "reliability")); got != 0.6 {
		t.Fatalf("reliability gauge: got %.2f, want 0.6", got)
	}
	if got := testutil.ToFloat64(Beliefs.WithLabelValues("metrics-test", "hallucination_risk")); got != 0.7 {
		t.Fatalf("risk gauge: got %.2f, want 0.7", got)
	}
}

func TestObserveFailures(t *testing.T) {
	c := FailureEvents.WithLabelValues("ITERATION_OVERFLOW", "medium")
	before := testutil.ToFloat64(c)

	ObserveFailures([]update.FailureEvent{
		{Code: update.FailureIterationOverflow, Severity: update.SeverityMedium},
		{Code: update.FailureIterationOverflow, Severity: update.SeverityMedium},
	})

	if got := testutil.ToFloat64(c) - before; got != 2 {
		t.Fatalf("expected 2 new events, got %.0f", got)
	}
}
