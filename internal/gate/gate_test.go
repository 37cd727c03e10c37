package gate

import (
	"strings"
	"testing"

	"github.com/danielpatrickdp/layer-governor/internal/update"
)

func TestGateEmitsWithinThresholds(t *testing.T) {
	g := NewGate(DefaultGateConfig())
	th := update.ProfileThresholds(update.ProfileStandard)

	decision := g.Evaluate(update.DefaultBeliefs(), th)

	if decision.Action != "emit" {
		t.Fatalf("expected emit, got %s: %s", decision.Action, decision.Reason)
	}
	if decision.Vetoed {
		t.Fatal("should not be vetoed")
	}
}

func TestGateVetoOnRisk(t *testing.T) {
	g := NewGate(DefaultGateConfig())
	th := update.ProfileThresholds(update.ProfileStandard)
	b := update.Beliefs{Coherence: 0.7, Reliability: 0.7, HallucinationRisk: 0.41}

	decision := g.Evaluate(b, th)

	if !decision.Vetoed {
		t.Fatal("should be vetoed")
	}
	if decision.VetoSignals[0].Type != VetoHallucinationRisk {
		t.Fatalf("expected HALLUCINATION_RISK, got %s", decision.VetoSignals[0].Type)
	}
}

func TestGateVetoOnLowCoherence(t *testing.T) {
	g := NewGate(DefaultGateConfig())
	th := update.ProfileThresholds(update.ProfileMystical)
	// floor = 0.8 * 0.75 = 0.6
	b := update.Beliefs{Coherence: 0.59, Reliability: 0.7, HallucinationRisk: 0.1}

	decision := g.Evaluate(b, th)

	if !decision.Vetoed {
		t.Fatal("should be vetoed")
	}
	if got := decision.Types(); len(got) != 1 || got[0] != "LOW_COHERENCE" {
		t.Fatalf("expected [LOW_COHERENCE], got %v", got)
	}
}

func TestGateBothConditions(t *testing.T) {
	g := NewGate(DefaultGateConfig())
	th := update.ProfileThresholds(update.ProfileStandard)
	b := update.Beliefs{Coherence: 0.1, Reliability: 0.1, HallucinationRisk: 0.9}

	decision := g.Evaluate(b, th)

	if len(decision.VetoSignals) != 2 {
		t.Fatalf("expected 2 veto signals, got %d", len(decision.VetoSignals))
	}
	if !strings.HasPrefix(decision.Reason, "veto: hallucination risk") {
		t.Errorf("unexpected reason %q", decision.Reason)
	}
}

func TestRefusalText(t *testing.T) {
	b := update.Beliefs{Coherence: 0.42, Reliability: 0.66, HallucinationRisk: 0.83}
	text := RefusalText("Sentinel", b)

	for _, want := range []string{
		"Sentinel VETO ACTIVATED:",
		"HALLUCINATION_RISK_EXCEEDED: 0.83",
		"COHERENCE_DEGRADED: 0.42",
		"RELIABILITY_COMPROMISED: 0.66",
		"Sentinel protocol override",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("refusal text missing %q:\n%s", want, text)
		}
	}
	if !IsRefusal(text) {
		t.Error("IsRefusal should detect its own refusal")
	}
	if IsRefusal("all clear") {
		t.Error("IsRefusal false positive")
	}
}
