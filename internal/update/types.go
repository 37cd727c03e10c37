package update

import "time"

// #region beliefs

// Beliefs is the per-layer trust estimate. Every field stays in [0, 1].
type Beliefs struct {
	Coherence         float64 `json:"coherence"`
	Reliability       float64 `json:"reliability"`
	HallucinationRisk float64 `json:"hallucination_risk"`
}

// DefaultBeliefs returns the starting beliefs of a fresh loop state.
func DefaultBeliefs() Beliefs {
	return Beliefs{
		Coherence:         0.7,
		Reliability:       0.7,
		HallucinationRisk: 0.2,
	}
}

// #endregion beliefs

// #region profile

// Profile names a whole-enforcer threshold and vocabulary setting.
type Profile string

const (
	ProfileStandard Profile = "standard"
	ProfileMystical Profile = "mystical"
)

// Thresholds are the belief lines that trigger failures and vetoes. Each
// line lies in [0, 1] like the beliefs it is compared against.
type Thresholds struct {
	Coherence         float64 `json:"coherence" yaml:"coherence" validate:"gte=0,lte=1"`
	Reliability       float64 `json:"reliability" yaml:"reliability" validate:"gte=0,lte=1"`
	HallucinationRisk float64 `json:"hallucination_risk" yaml:"hallucination_risk" validate:"gte=0,lte=1"`
}

// ProfileThresholds returns the thresholds for a named profile.
// Unknown profiles fall back to standard.
func ProfileThresholds(p Profile) Thresholds {
	if p == ProfileMystical {
		return Thresholds{Coherence: 0.8, Reliability: 0.75, HallucinationRisk: 0.3}
	}
	return Thresholds{Coherence: 0.6, Reliability: 0.7, HallucinationRisk: 0.4}
}

// ParseProfile validates a profile name.
func ParseProfile(s string) (Profile, bool) {
	switch Profile(s) {
	case ProfileStandard, ProfileMystical:
		return Profile(s), true
	}
	return "", false
}

// #endregion profile

// #region failure-taxonomy

// FailureCode is the closed set of classified degradation events.
type FailureCode string

const (
	FailureCoherenceDecay         FailureCode = "COHERENCE_DECAY"
	FailureReliabilityDegradation FailureCode = "RELIABILITY_DEGRADATION"
	FailureHallucinationRisk      FailureCode = "HALLUCINATION_RISK"
	FailureIterationOverflow      FailureCode = "ITERATION_OVERFLOW"
)

// Severity grades a failure event.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// FailureEvent is one entry in a loop state's append-only failure log.
type FailureEvent struct {
	Code      FailureCode `json:"code"`
	Severity  Severity    `json:"severity"`
	Message   string      `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
}

// #endregion failure-taxonomy

// #region update-config

// UpdateConfig holds the belief arithmetic constants.
type UpdateConfig struct {
	MaxIterations int
	Thresholds    Thresholds

	CoherenceGain         float64 // applied when character score meets the coherence line
	CoherencePenalty      float64 // applied otherwise
	ReliabilityGain       float64 // applied while iterations stay in bounds
	ReliabilityPenalty    float64 // applied on iteration overflow
	GenericRiskWeight     float64 // risk per unit of generic score
	IncoherenceRiskWeight float64 // risk per unit of (1 - coherence)
	RiskRecovery          float64 // subtracted when coherence and reliability are both high
	RecoveryFloor         float64 // both beliefs must exceed this for recovery
}

// DefaultUpdateConfig returns the constants for the given profile.
func DefaultUpdateConfig(p Profile) UpdateConfig {
	return UpdateConfig{
		MaxIterations:         3,
		Thresholds:            ProfileThresholds(p),
		CoherenceGain:         0.03,
		CoherencePenalty:      0.06,
		ReliabilityGain:       0.01,
		ReliabilityPenalty:    0.08,
		GenericRiskWeight:     0.08,
		IncoherenceRiskWeight: 0.06,
		RiskRecovery:          0.03,
		RecoveryFloor:         0.85,
	}
}

// #endregion update-config

// #region update-result

// Deltas are the raw changes computed before clamping.
type Deltas struct {
	Coherence         float64 `json:"coherence"`
	Reliability       float64 `json:"reliability"`
	HallucinationRisk float64 `json:"hallucination_risk"`
}

// UpdateResult bundles everything returned by Apply().
type UpdateResult struct {
	Beliefs  Beliefs
	Deltas   Deltas
	Failures []FailureEvent
	Overflow bool
}

// #endregion update-result
