// Package replay re-runs recorded layer replies through a fresh enforcer so
// belief trajectories and veto decisions can be audited offline.
package replay

import (
	"time"

	"github.com/danielpatrickdp/layer-governor/internal/enforcer"
	"github.com/danielpatrickdp/layer-governor/internal/state"
	"github.com/danielpatrickdp/layer-governor/internal/update"
)

// DefaultContextID scopes replayed steps that carry no context of their own.
const DefaultContextID = "replay"

// #region types
// Step is one recorded layer invocation.
type Step struct {
	StepID    string
	ContextID string
	LayerID   string
	LayerName string
	Input     string
	Reply     string
}

// ReplayConfig selects the enforcer settings for a replay run.
type ReplayConfig struct {
	Enforcer     enforcer.Config
	StartBeliefs map[string]update.Beliefs // by layer id, applied before the first step
	Clock        func() time.Time
}

// DefaultReplayConfig returns the standard profile with a fixed clock.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		Enforcer: enforcer.DefaultConfig(),
		Clock:    func() time.Time { return time.Unix(0, 0).UTC() },
	}
}

// ReplayResult captures the enforcer outcome of one step.
type ReplayResult struct {
	StepID      string
	LayerID     string
	Action      string // "emit" | "veto"
	Text        string
	VetoReasons []string
	Iterations  int
	Beliefs     update.Beliefs
	Failures    []update.FailureEvent
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalSteps   int
	Emits        int
	Vetoes       int
	Failures     map[update.FailureCode]int
	FinalBeliefs map[string]update.Beliefs // by layer id
}

// #endregion types

// #region replay
// Replay enforces every step in order against an empty in-memory store.
// The same steps and config always produce the same results.
func Replay(steps []Step, config ReplayConfig) []ReplayResult {
	store := state.NewStore()
	opts := []enforcer.Option{}
	if config.Clock != nil {
		opts = append(opts, enforcer.WithClock(config.Clock))
	}
	enf := enforcer.New(store, config.Enforcer, opts...)

	seeded := map[state.Key]bool{}
	results := make([]ReplayResult, 0, len(steps))
	for _, s := range steps {
		key := state.Key{ContextID: s.ContextID, LayerID: s.LayerID}
		if key.ContextID == "" {
			key.ContextID = DefaultContextID
		}
		if b, ok := config.StartBeliefs[s.LayerID]; ok && !seeded[key] {
			store.With(key, func(ls *state.LoopState) { ls.Beliefs = b })
			seeded[key] = true
		}

		out := enf.Enforce(key, s.LayerName, s.Input, s.Reply)
		action := "emit"
		if out.Vetoed {
			action = "veto"
		}
		results = append(results, ReplayResult{
			StepID:      s.StepID,
			LayerID:     s.LayerID,
			Action:      action,
			Text:        out.Text,
			VetoReasons: out.VetoReasons,
			Iterations:  out.Iterations,
			Beliefs:     out.Beliefs,
			Failures:    out.Failures,
		})
	}
	return results
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{
		TotalSteps:   len(results),
		Failures:     map[update.FailureCode]int{},
		FinalBeliefs: map[string]update.Beliefs{},
	}
	for _, r := range results {
		switch r.Action {
		case "emit":
			s.Emits++
		case "veto":
			s.Vetoes++
		}
		for _, f := range r.Failures {
			s.Failures[f.Code]++
		}
		s.FinalBeliefs[r.LayerID] = r.Beliefs
	}
	return s
}

// #endregion replay
