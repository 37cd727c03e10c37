// Package enforcer runs the Observation → Self-Question → Reconciliation
// loop over a layer's reply and decides, without another model call, whether
// the reply may be emitted.
package enforcer

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/layer-governor/internal/gate"
	"github.com/danielpatrickdp/layer-governor/internal/metrics"
	"github.com/danielpatrickdp/layer-governor/internal/signals"
	"github.com/danielpatrickdp/layer-governor/internal/state"
	"github.com/danielpatrickdp/layer-governor/internal/update"
)

// #region config

// Config holds the enforcer settings that can be chosen at construction.
type Config struct {
	Profile       update.Profile
	Thresholds    *update.Thresholds // overrides the profile thresholds when set
	MaxIterations int
	Gate          gate.GateConfig
}

// DefaultConfig returns the standard profile with three iterations per call.
func DefaultConfig() Config {
	return Config{
		Profile:       update.ProfileStandard,
		MaxIterations: 3,
		Gate:          gate.DefaultGateConfig(),
	}
}

// Option customizes an Enforcer.
type Option func(*Enforcer)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(e *Enforcer) {
		if l != nil {
			e.log = l.Named("enforcer")
		}
	}
}

// WithPicker replaces the default hash-based keyword picker.
func WithPicker(p Picker) Option {
	return func(e *Enforcer) {
		if p != nil {
			e.pick = p
		}
	}
}

// WithClock sets the clock used to stamp failure events.
func WithClock(now func() time.Time) Option {
	return func(e *Enforcer) {
		if now != nil {
			e.now = now
		}
	}
}

// #endregion config

// #region enforcer

// Enforcer owns the scoring vocabulary, the active thresholds and a handle
// on the belief store. It performs no I/O.
type Enforcer struct {
	store *state.Store
	gate  *gate.Gate
	pick  Picker
	now   func() time.Time
	log   *zap.Logger

	mu            sync.RWMutex
	profile       update.Profile
	custom        *update.Thresholds
	maxIterations int
	scorer        *signals.Scorer
}

// New creates an enforcer over store.
func New(store *state.Store, cfg Config, opts ...Option) *Enforcer {
	if cfg.Profile == "" {
		cfg.Profile = update.ProfileStandard
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 3
	}
	if cfg.Gate.CoherenceVetoFactor == 0 {
		cfg.Gate = gate.DefaultGateConfig()
	}

	e := &Enforcer{
		store:         store,
		gate:          gate.NewGate(cfg.Gate),
		pick:          HashPicker,
		now:           func() time.Time { return time.Now().UTC() },
		log:           zap.NewNop(),
		profile:       cfg.Profile,
		maxIterations: cfg.MaxIterations,
		scorer:        signals.NewScorer(cfg.Profile == update.ProfileMystical),
	}
	if cfg.Thresholds != nil {
		th := *cfg.Thresholds
		e.custom = &th
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// #endregion enforcer

// #region enforce

// Enforce runs the bounded loop for one layer reply. The loop state for key
// is held for the whole call, so concurrent calls on the same key serialize.
func (e *Enforcer) Enforce(key state.Key, layerName, input, candidate string) Outcome {
	if layerName == "" {
		layerName = key.LayerID
	}

	e.mu.RLock()
	scorer := e.scorer
	cfg := e.updateConfigLocked()
	e.mu.RUnlock()

	var out Outcome
	e.store.With(key, func(ls *state.LoopState) {
		text := candidate
		for {
			obs := scorer.Observe(input, text)
			p := pass{
				observation:  observationText(layerName, obs),
				selfQuestion: selfQuestionText(layerName, obs, cfg.Thresholds),
			}
			p.text, p.rewritten, p.reconciliation = e.reconcile(scorer, key.LayerID, layerName, text)

			scores := scorer.Score(p.text)
			res := update.Apply(ls.Beliefs, scores, ls.IterationCount, cfg, e.now())

			ls.Beliefs = res.Beliefs
			ls.LastCharacterScore = scores.Character
			ls.AppendFailures(res.Failures...)
			ls.IterationCount++
			ls.ObservationText = p.observation
			ls.SelfQuestionText = p.selfQuestion
			ls.ReconciliationText = p.reconciliation

			out.Iterations++
			out.Failures = append(out.Failures, res.Failures...)
			e.observe(key.LayerID, p, res)

			e.log.Debug("[ENF] iteration",
				zap.String("context", key.ContextID),
				zap.String("layer", key.LayerID),
				zap.Int("iteration", ls.IterationCount),
				zap.Float64("character", scores.Character),
				zap.Float64("generic", scores.Generic),
				zap.Float64("coherence", ls.Beliefs.Coherence),
				zap.Float64("reliability", ls.Beliefs.Reliability),
				zap.Float64("risk", ls.Beliefs.HallucinationRisk),
				zap.Bool("rewritten", p.rewritten))

			decision := e.gate.Evaluate(ls.Beliefs, cfg.Thresholds)
			if decision.Vetoed {
				ls.LastVetoReasons = decision.Types()
				out.Text = gate.RefusalText(layerName, ls.Beliefs)
				out.Vetoed = true
				out.VetoReasons = decision.Types()
				out.VetoReason = decision.Reason
				out.Beliefs = ls.Beliefs
				metrics.Vetoes.WithLabelValues(key.LayerID, out.VetoReasons[0]).Inc()
				e.log.Warn("[ENF] veto",
					zap.String("context", key.ContextID),
					zap.String("layer", key.LayerID),
					zap.Strings("reasons", out.VetoReasons),
					zap.String("detail", decision.Reason))
				return
			}

			ls.LastVetoReasons = nil
			text = p.text
			if ls.IterationCount >= cfg.MaxIterations || meetsCharacter(scores) {
				break
			}
		}
		out.Text = text
		out.Beliefs = ls.Beliefs
	})
	return out
}

func (e *Enforcer) observe(layerID string, p pass, res update.UpdateResult) {
	metrics.EnforceIterations.WithLabelValues(layerID).Inc()
	if p.rewritten {
		metrics.Rewrites.WithLabelValues(layerID).Inc()
	}
	metrics.ObserveBeliefs(layerID, res.Beliefs)
	metrics.ObserveFailures(res.Failures)
}

// #endregion enforce

// #region admin

// State returns a copy of the loop state for key.
func (e *Enforcer) State(key state.Key) (state.LoopState, bool) {
	return e.store.Get(key)
}

// Reset destroys the loop state for key; the next call starts from defaults.
func (e *Enforcer) Reset(key state.Key) bool {
	ok := e.store.Reset(key)
	if ok {
		e.log.Info("[ENF] reset", zap.String("context", key.ContextID), zap.String("layer", key.LayerID))
	}
	return ok
}

// States lists every live loop state.
func (e *Enforcer) States() []state.LoopState {
	return e.store.List()
}

// Evict drops all loop states of a context.
func (e *Enforcer) Evict(contextID string) int {
	return e.store.Evict(contextID)
}

// SetMystical switches the whole enforcer between the standard and mystical
// profiles. Custom thresholds, when set, still take precedence.
func (e *Enforcer) SetMystical(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profile = update.ProfileStandard
	if on {
		e.profile = update.ProfileMystical
	}
	e.scorer = signals.NewScorer(on)
	e.log.Info("[ENF] profile switched", zap.String("profile", string(e.profile)))
}

// SetThresholds installs custom thresholds; nil restores the profile's.
func (e *Enforcer) SetThresholds(th *update.Thresholds) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if th == nil {
		e.custom = nil
		return
	}
	c := *th
	e.custom = &c
}

// Profile returns the active profile.
func (e *Enforcer) Profile() update.Profile {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.profile
}

// Mystical reports whether the mystical vocabulary is active.
func (e *Enforcer) Mystical() bool {
	return e.Profile() == update.ProfileMystical
}

// Thresholds returns the thresholds currently applied.
func (e *Enforcer) Thresholds() update.Thresholds {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.updateConfigLocked().Thresholds
}

func (e *Enforcer) updateConfigLocked() update.UpdateConfig {
	cfg := update.DefaultUpdateConfig(e.profile)
	cfg.MaxIterations = e.maxIterations
	if e.custom != nil {
		cfg.Thresholds = *e.custom
	}
	return cfg
}

// #endregion admin
