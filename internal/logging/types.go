package logging

import (
	"time"

	"github.com/danielpatrickdp/layer-governor/internal/update"
)

// #region decision
// Decision values written to decision_log.decision.
const (
	DecisionEmit  = "emit"
	DecisionVeto  = "veto"
	DecisionError = "error"
)

// #endregion decision

// #region decision-record
// DecisionRecord is a single row in the decision_log table: one layer of one
// pipeline run.
type DecisionRecord struct {
	RunID       string
	ContextID   string
	Seq         int // position of the layer within the run
	LayerID     string
	LayerName   string
	Decision    string // "emit" | "veto" | "error"
	Reason      string
	Input       string // text that entered the layer
	Reply       string // raw generator reply
	Output      string // text handed to the next layer
	Beliefs     update.Beliefs
	VetoReasons []string
	Iterations  int
	CreatedAt   time.Time
}

// #endregion decision-record

// #region summaries
// RunSummary aggregates the decisions of one run.
type RunSummary struct {
	RunID     string
	ContextID string
	Layers    int
	Vetoes    int
	Errors    int
	StartedAt time.Time
}

// LayerStat aggregates decisions per layer across all runs.
type LayerStat struct {
	LayerID  string
	Total    int
	Vetoes   int
	Errors   int
	AvgRisk  float64
	LastSeen time.Time
}

// #endregion summaries
