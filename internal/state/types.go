package state

import (
	"time"

	"github.com/danielpatrickdp/layer-governor/internal/update"
)

// #region key
// Key scopes a loop state to one context (conversation, batch or single run)
// and one layer.
type Key struct {
	ContextID string `json:"context_id"`
	LayerID   string `json:"layer_id"`
}

func (k Key) String() string {
	return k.ContextID + "/" + k.LayerID
}

// #endregion key

// #region loop-state
// LoopState is the persistent trust record of one layer within one context.
type LoopState struct {
	ContextID          string                `json:"context_id"`
	LayerID            string                `json:"layer_id"`
	IterationCount     int                   `json:"iteration_count"`
	LastCharacterScore float64               `json:"last_character_score"`
	Beliefs            update.Beliefs        `json:"beliefs"`
	Failures           []update.FailureEvent `json:"failures"`
	ObservationText    string                `json:"observation"`
	SelfQuestionText   string                `json:"self_question"`
	ReconciliationText string                `json:"reconciliation"`
	LastVetoReasons    []string              `json:"last_veto_reasons,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// NewLoopState returns a fresh state with default beliefs.
func NewLoopState(key Key, now time.Time) *LoopState {
	return &LoopState{
		ContextID:          key.ContextID,
		LayerID:            key.LayerID,
		LastCharacterScore: 0.7,
		Beliefs:            update.DefaultBeliefs(),
		Failures:           []update.FailureEvent{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// MaxFailures bounds the failure log kept per loop state. Failures are
// level-triggered, so a long-lived context would otherwise grow it forever.
const MaxFailures = 256

// AppendFailures records events, dropping the oldest beyond MaxFailures.
func (s *LoopState) AppendFailures(events ...update.FailureEvent) {
	s.Failures = append(s.Failures, events...)
	if over := len(s.Failures) - MaxFailures; over > 0 {
		s.Failures = append(s.Failures[:0], s.Failures[over:]...)
	}
}

// Clone returns a deep copy safe to hand outside the store.
func (s *LoopState) Clone() LoopState {
	c := *s
	c.Failures = append([]update.FailureEvent(nil), s.Failures...)
	if s.LastVetoReasons != nil {
		c.LastVetoReasons = append([]string(nil), s.LastVetoReasons...)
	}
	return c
}

// Key returns the store key of this state.
func (s *LoopState) Key() Key {
	return Key{ContextID: s.ContextID, LayerID: s.LayerID}
}

// #endregion loop-state
