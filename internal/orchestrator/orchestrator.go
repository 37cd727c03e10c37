// Package orchestrator runs input text through the ordered policy layers,
// calling the generator once per layer and passing every reply through the
// loop enforcer.
package orchestrator

// #region imports
import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/layer-governor/internal/enforcer"
	"github.com/danielpatrickdp/layer-governor/internal/layer"
	"github.com/danielpatrickdp/layer-governor/internal/logging"
	"github.com/danielpatrickdp/layer-governor/internal/metrics"
	"github.com/danielpatrickdp/layer-governor/internal/state"
)

// #endregion

var tracer = otel.Tracer("layer-governor.orchestrator")

// #region orchestrator-struct

// Orchestrator is the pipeline executor.
type Orchestrator struct {
	layers   []layer.LayerConfig
	gen      Generator
	enf      *enforcer.Enforcer
	cfg      Config
	log      *zap.Logger
	recorder Recorder
	newID    func() string
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l.Named("orchestrator")
		}
	}
}

// WithRecorder installs a provenance recorder. Recording failures are logged
// and never fail the run.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithIDFunc replaces the uuid generator used for run and context ids.
func WithIDFunc(f func() string) Option {
	return func(o *Orchestrator) {
		if f != nil {
			o.newID = f
		}
	}
}

// #endregion

// #region constructor

// NewOrchestrator validates the layer list and wires the pipeline.
func NewOrchestrator(layers []layer.LayerConfig, gen Generator, enf *enforcer.Enforcer, cfg Config, opts ...Option) (*Orchestrator, error) {
	if err := layer.Validate(layers); err != nil {
		return nil, fmt.Errorf("new orchestrator: %w", err)
	}
	if gen == nil {
		return nil, errors.New("new orchestrator: nil generator")
	}
	if enf == nil {
		return nil, errors.New("new orchestrator: nil enforcer")
	}

	o := &Orchestrator{
		layers: append([]layer.LayerConfig(nil), layers...),
		gen:    gen,
		enf:    enf,
		cfg:    cfg,
		log:    zap.NewNop(),
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Layers returns a copy of the configured layers.
func (o *Orchestrator) Layers() []layer.LayerConfig {
	return append([]layer.LayerConfig(nil), o.layers...)
}

// Enforcer returns the enforcer the pipeline reports to.
func (o *Orchestrator) Enforcer() *enforcer.Enforcer {
	return o.enf
}

// #endregion

// #region run

// Run executes every layer in order. A generator failure on a non-terminal
// layer is recorded in the trace and the previous text carries forward; a
// failure on the terminal layer aborts the run with *TerminalLayerError.
func (o *Orchestrator) Run(ctx context.Context, in GovernanceInput) (res Result, err error) {
	start := time.Now()
	runID := o.newID()
	contextID := in.ContextID
	ephemeral := contextID == ""
	if ephemeral {
		contextID = o.newID()
	}

	ctx, span := tracer.Start(ctx, "governance.Run",
		trace.WithAttributes(
			attribute.String("governance.run_id", runID),
			attribute.String("governance.context_id", contextID),
			attribute.Bool("governance.include_reasons", in.IncludeReasons),
		))
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
		metrics.Runs.WithLabelValues(outcome).Inc()
		metrics.RunDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}()

	if ephemeral {
		defer o.enf.Evict(contextID)
	}

	layers := layer.Merge(o.layers, in.LayerOverrides)
	if err := layer.Validate(layers); err != nil {
		return Result{}, fmt.Errorf("apply overrides: %w", err)
	}

	o.log.Info("[ORCH] run start",
		zap.String("run", runID),
		zap.String("context", contextID),
		zap.Int("layers", len(layers)),
		zap.Bool("reasons", in.IncludeReasons))

	current := in.Text
	entries := make([]TraceEntry, 0, len(layers))
	for i, l := range layers {
		entry, err := o.runLayer(ctx, runID, contextID, i, l, in, current)
		if err != nil {
			o.log.Error("[ORCH] run aborted",
				zap.String("run", runID),
				zap.String("layer", l.ID),
				zap.Error(err))
			return Result{}, err
		}
		entries = append(entries, entry)
		current = entry.Output
	}

	o.log.Info("[ORCH] run complete",
		zap.String("run", runID),
		zap.Int("layers", len(entries)),
		zap.Duration("elapsed", time.Since(start)))

	return Result{
		RunID:     runID,
		ContextID: contextID,
		Output:    current,
		Trace:     entries,
		Duration:  time.Since(start),
	}, nil
}

// #endregion

// #region run-layer

func (o *Orchestrator) runLayer(ctx context.Context, runID, contextID string, seq int, l layer.LayerConfig, in GovernanceInput, current string) (TraceEntry, error) {
	ctx, span := tracer.Start(ctx, "governance.Layer",
		trace.WithAttributes(
			attribute.String("governance.layer_id", l.ID),
			attribute.Int("governance.layer_seq", seq),
			attribute.Bool("governance.terminal", l.Terminal()),
		))
	defer span.End()

	name := l.DisplayName()
	rec := logging.DecisionRecord{
		RunID:     runID,
		ContextID: contextID,
		Seq:       seq,
		LayerID:   l.ID,
		LayerName: name,
		Input:     current,
	}

	prompt := BuildPrompt(l, in.Text, current, in.IncludeReasons)
	reply, err := o.generate(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if l.Terminal() {
			return TraceEntry{}, &TerminalLayerError{LayerID: l.ID, Err: err}
		}
		// ctx is the caller's; the per-layer deadline only lives inside generate.
		if ctx.Err() != nil {
			return TraceEntry{}, fmt.Errorf("layer %s: %w", l.ID, ctx.Err())
		}

		metrics.LayerErrors.WithLabelValues(l.ID).Inc()
		o.log.Warn("[ORCH] layer failed, carrying text forward",
			zap.String("run", runID),
			zap.String("layer", l.ID),
			zap.Error(err))

		entry := TraceEntry{
			LayerID:   l.ID,
			LayerName: name,
			Output:    current,
			Reason:    "Error: " + err.Error(),
		}
		rec.Decision = logging.DecisionError
		rec.Reason = entry.Reason
		rec.Output = current
		o.record(ctx, rec)
		return entry, nil
	}

	outcome := o.enf.Enforce(state.Key{ContextID: contextID, LayerID: l.ID}, name, current, reply)

	entry := TraceEntry{
		LayerID:     l.ID,
		LayerName:   name,
		Vetoed:      outcome.Vetoed,
		VetoReasons: outcome.VetoReasons,
		Iterations:  outcome.Iterations,
		Beliefs:     outcome.Beliefs,
	}
	switch {
	case outcome.Vetoed:
		entry.Output = outcome.Text
		if in.IncludeReasons {
			entry.Reason = outcome.VetoReason
		}
	case in.IncludeReasons:
		out, reason, err := resolveReasoned(l.ID, outcome.Text, reply)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "parse")
			return TraceEntry{}, err
		}
		entry.Output, entry.Reason = out, reason
	default:
		entry.Output = strings.TrimSpace(outcome.Text)
	}

	span.SetAttributes(
		attribute.Bool("governance.vetoed", outcome.Vetoed),
		attribute.Int("governance.iterations", outcome.Iterations),
		attribute.Float64("governance.hallucination_risk", outcome.Beliefs.HallucinationRisk),
	)
	o.log.Debug("[ORCH] layer done",
		zap.String("run", runID),
		zap.String("layer", l.ID),
		zap.Bool("vetoed", outcome.Vetoed),
		zap.Int("iterations", outcome.Iterations))

	rec.Decision = logging.DecisionEmit
	if outcome.Vetoed {
		rec.Decision = logging.DecisionVeto
		rec.VetoReasons = outcome.VetoReasons
	}
	rec.Reason = entry.Reason
	rec.Reply = reply
	rec.Output = entry.Output
	rec.Beliefs = outcome.Beliefs
	rec.Iterations = outcome.Iterations
	o.record(ctx, rec)

	return entry, nil
}

func (o *Orchestrator) generate(ctx context.Context, prompt string) (string, error) {
	if o.cfg.LayerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.LayerTimeout)
		defer cancel()
	}
	return o.gen.Generate(ctx, prompt)
}

func (o *Orchestrator) record(ctx context.Context, rec logging.DecisionRecord) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.Record(ctx, rec); err != nil {
		o.log.Warn("[ORCH] failed to record decision", zap.String("layer", rec.LayerID), zap.Error(err))
	}
}

// #endregion
