package update

import (
	"fmt"
	"time"

	"github.com/danielpatrickdp/layer-governor/internal/signals"
)

// #region apply

// Apply is a pure function that computes the next beliefs from the prior
// beliefs, the reconciled text's scores and the loop's iteration count.
// now only stamps failure events.
func Apply(prior Beliefs, scores signals.Scores, iterationCount int, config UpdateConfig, now time.Time) UpdateResult {
	th := config.Thresholds
	next := prior

	// 1. Coherence follows character adherence
	coherenceDelta := -config.CoherencePenalty
	if scores.Character >= th.Coherence {
		coherenceDelta = config.CoherenceGain
	}
	next.Coherence = Clamp01(prior.Coherence + coherenceDelta)

	// 2. Reliability degrades once the loop overflows
	overflow := iterationCount > config.MaxIterations
	reliabilityDelta := config.ReliabilityGain
	if overflow {
		reliabilityDelta = -config.ReliabilityPenalty
	}
	next.Reliability = Clamp01(prior.Reliability + reliabilityDelta)

	// 3. Risk grows with boilerplate and incoherence, recovers when both are healthy
	riskDelta := scores.Generic*config.GenericRiskWeight + (1-next.Coherence)*config.IncoherenceRiskWeight
	if next.Coherence > config.RecoveryFloor && next.Reliability > config.RecoveryFloor {
		riskDelta -= config.RiskRecovery
	}
	next.HallucinationRisk = Clamp01(prior.HallucinationRisk + riskDelta)

	// 4. One failure event per crossed line
	var failures []FailureEvent
	if scores.Character < th.Coherence {
		failures = append(failures, newFailure(FailureCoherenceDecay, next,
			fmt.Sprintf("character adherence %.3f below threshold %.3f", scores.Character, th.Coherence), now))
	}
	if overflow {
		failures = append(failures, newFailure(FailureIterationOverflow, next,
			fmt.Sprintf("iteration count %d exceeded max %d", iterationCount, config.MaxIterations), now))
	}
	if next.Reliability < th.Reliability {
		failures = append(failures, newFailure(FailureReliabilityDegradation, next,
			fmt.Sprintf("reliability %.3f below threshold %.3f", next.Reliability, th.Reliability), now))
	}
	if next.HallucinationRisk > th.HallucinationRisk {
		failures = append(failures, newFailure(FailureHallucinationRisk, next,
			fmt.Sprintf("hallucination risk %.3f above threshold %.3f", next.HallucinationRisk, th.HallucinationRisk), now))
	}

	return UpdateResult{
		Beliefs: next,
		Deltas: Deltas{
			Coherence:         coherenceDelta,
			Reliability:       reliabilityDelta,
			HallucinationRisk: riskDelta,
		},
		Failures: failures,
		Overflow: overflow,
	}
}

// #endregion apply

// #region severity

// SeverityFor grades a failure against the beliefs it was raised with.
func SeverityFor(code FailureCode, b Beliefs) Severity {
	switch {
	case code == FailureHallucinationRisk && b.HallucinationRisk > 0.8:
		return SeverityHigh
	case code == FailureIterationOverflow:
		return SeverityMedium
	case code == FailureCoherenceDecay && b.Coherence < 0.5:
		return SeverityHigh
	default:
		return SeverityLow
	}
}

func newFailure(code FailureCode, b Beliefs, msg string, now time.Time) FailureEvent {
	return FailureEvent{
		Code:      code,
		Severity:  SeverityFor(code, b),
		Message:   msg,
		Timestamp: now,
	}
}

// #endregion severity

// #region helpers

// Clamp01 restricts v to [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers
