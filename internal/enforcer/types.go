package enforcer

import (
	"github.com/danielpatrickdp/layer-governor/internal/update"
)

// #region thresholds
const (
	// CharacterThreshold is the character score below which a reply is
	// reconciled.
	CharacterThreshold = 0.7
	// GenericRewriteThreshold is the generic score above which a reply is
	// reconciled regardless of character.
	GenericRewriteThreshold = 0.3
	// GenericAcceptThreshold is the generic score a reply must stay under
	// before the loop stops early.
	GenericAcceptThreshold = 0.2
)

// #endregion thresholds

// #region outcome
// Outcome is the result of one Enforce call.
type Outcome struct {
	Text        string                // accepted reconciled text, or the refusal when vetoed
	Vetoed      bool                  // true when the gate replaced the text
	VetoReasons []string              // veto types, e.g. HALLUCINATION_RISK
	VetoReason  string                // human-readable first veto reason
	Iterations  int                   // loop passes performed in this call
	Beliefs     update.Beliefs        // beliefs after the last pass
	Failures    []update.FailureEvent // failure events raised during this call
}

// #endregion outcome

// #region pass
// pass records one Observation → Self-Question → Reconciliation iteration.
type pass struct {
	observation    string
	selfQuestion   string
	reconciliation string
	text           string
	rewritten      bool
}

// #endregion pass
