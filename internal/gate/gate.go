package gate

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/layer-governor/internal/update"
)

// VetoMarker appears in every refusal text.
const VetoMarker = "VETO ACTIVATED"

// #region gate
// Gate decides whether a layer's beliefs still allow it to emit.
type Gate struct {
	config GateConfig
}

// NewGate creates a gate with the given configuration.
func NewGate(config GateConfig) *Gate {
	return &Gate{config: config}
}

// Evaluate checks the post-update beliefs against the active thresholds.
func (g *Gate) Evaluate(b update.Beliefs, th update.Thresholds) GateDecision {
	var vetoes []VetoSignal

	if b.HallucinationRisk > th.HallucinationRisk {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoHallucinationRisk,
			Reason: fmt.Sprintf("hallucination risk %.4f exceeds %.4f", b.HallucinationRisk, th.HallucinationRisk),
		})
	}

	floor := th.Coherence * g.config.CoherenceVetoFactor
	if b.Coherence < floor {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoLowCoherence,
			Reason: fmt.Sprintf("coherence %.4f below floor %.4f", b.Coherence, floor),
		})
	}

	if len(vetoes) > 0 {
		return GateDecision{
			Action:      "veto",
			Reason:      fmt.Sprintf("veto: %s", vetoes[0].Reason),
			Vetoed:      true,
			VetoSignals: vetoes,
		}
	}

	return GateDecision{
		Action: "emit",
		Reason: "beliefs within thresholds",
	}
}

// #endregion gate

// #region refusal
// RefusalText is the structured refusal that replaces a vetoed output.
func RefusalText(layerName string, b update.Beliefs) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s:\n", layerName, VetoMarker)
	fmt.Fprintf(&sb, "HALLUCINATION_RISK_EXCEEDED: %.2f\n", b.HallucinationRisk)
	fmt.Fprintf(&sb, "COHERENCE_DEGRADED: %.2f\n", b.Coherence)
	fmt.Fprintf(&sb, "RELIABILITY_COMPROMISED: %.2f\n\n", b.Reliability)
	sb.WriteString("OUTPUT REJECTED: High risk of unreliable content\n")
	sb.WriteString("RECOMMENDATION: Require tool verification or human oversight\n")
	sb.WriteString("SYSTEM STATE: Degraded - belief thresholds exceeded\n\n")
	fmt.Fprintf(&sb, "%s protocol override: Refuse to emit potentially unreliable output.", layerName)
	return sb.String()
}

// IsRefusal reports whether text is a refusal produced by RefusalText.
func IsRefusal(text string) bool {
	return strings.Contains(text, VetoMarker)
}

// #endregion refusal
