package gate

// #region veto-type
// VetoType enumerates the belief conditions that force a refusal.
type VetoType string

const (
	VetoHallucinationRisk VetoType = "HALLUCINATION_RISK"
	VetoLowCoherence      VetoType = "LOW_COHERENCE"
)

// #endregion veto-type

// #region veto-signal
// VetoSignal represents a detected veto condition.
type VetoSignal struct {
	Type   VetoType
	Reason string
}

// #endregion veto-signal

// #region gate-config
// GateConfig holds the factors applied to the active thresholds.
type GateConfig struct {
	CoherenceVetoFactor float64 // veto when coherence < coherence threshold * factor
}

// DefaultGateConfig returns the standard veto factors.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		CoherenceVetoFactor: 0.75,
	}
}

// #endregion gate-config

// #region gate-decision
// GateDecision is the output of the gate evaluation.
type GateDecision struct {
	Action      string // "emit" | "veto"
	Reason      string
	Vetoed      bool
	VetoSignals []VetoSignal // non-empty if vetoed
}

// Types lists the veto types in the order they were detected.
func (d GateDecision) Types() []string {
	out := make([]string, len(d.VetoSignals))
	for i, v := range d.VetoSignals {
		out[i] = string(v.Type)
	}
	return out
}

// #endregion gate-decision
