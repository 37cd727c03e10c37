package orchestrator

import (
	"context"
	"time"

	"github.com/danielpatrickdp/layer-governor/internal/layer"
	"github.com/danielpatrickdp/layer-governor/internal/logging"
	"github.com/danielpatrickdp/layer-governor/internal/update"
)

// #region generator

// Generator produces a reply for a fully assembled prompt. Implementations
// must honor ctx cancellation and perform no retries of their own.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerateFunc adapts a plain function to Generator.
type GenerateFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GenerateFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Recorder receives one record per executed layer.
type Recorder interface {
	Record(ctx context.Context, rec logging.DecisionRecord) error
}

// #endregion generator

// #region input

// GovernanceInput is one pipeline run request.
type GovernanceInput struct {
	Text           string                    `json:"text"`
	IncludeReasons bool                      `json:"include_reasons"`
	LayerOverrides map[string]layer.Override `json:"layer_overrides,omitempty"`
	// ContextID scopes belief state. Empty gives the run a fresh context
	// that is discarded when the run ends.
	ContextID string `json:"context_id,omitempty"`
}

// #endregion input

// #region trace

// TraceEntry records what one layer emitted.
type TraceEntry struct {
	LayerID     string         `json:"layer_id"`
	LayerName   string         `json:"layer_name"`
	Output      string         `json:"output"`
	Reason      string         `json:"reason,omitempty"`
	Vetoed      bool           `json:"vetoed"`
	VetoReasons []string       `json:"veto_reasons,omitempty"`
	Iterations  int            `json:"iterations"`
	Beliefs     update.Beliefs `json:"beliefs"`
}

// Result is the outcome of a completed run.
type Result struct {
	RunID     string        `json:"run_id"`
	ContextID string        `json:"context_id"`
	Output    string        `json:"output"`
	Trace     []TraceEntry  `json:"trace"`
	Duration  time.Duration `json:"duration_ns"`
}

// #endregion trace

// #region config

// Config holds pipeline execution settings.
type Config struct {
	LayerTimeout time.Duration // per generator call; zero disables the deadline
}

// DefaultConfig returns the default pipeline settings.
func DefaultConfig() Config {
	return Config{
		LayerTimeout: 60 * time.Second,
	}
}

// #endregion config
