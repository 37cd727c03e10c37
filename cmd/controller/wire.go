package main

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/layer-governor/internal/codec"
	"github.com/danielpatrickdp/layer-governor/internal/config"
	"github.com/danielpatrickdp/layer-governor/internal/enforcer"
	"github.com/danielpatrickdp/layer-governor/internal/logging"
	"github.com/danielpatrickdp/layer-governor/internal/orchestrator"
	"github.com/danielpatrickdp/layer-governor/internal/state"
)

// pipeline is everything a subcommand needs, plus the resources to release.
type pipeline struct {
	cfg  config.Config
	gen  codec.Generator
	orch *orchestrator.Orchestrator
	db   *sql.DB
	// closers run in reverse order
	closers []func() error
}

func (p *pipeline) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			logger.Warn("[ORCH] close failed", zap.Error(err))
		}
	}
}

// #region build
// buildPipeline loads the configuration and assembles the backend, the
// enforcer, the optional decision log and the orchestrator.
func buildPipeline() (*pipeline, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	p := &pipeline{cfg: cfg}

	backend, err := newBackend(cfg, p)
	if err != nil {
		p.Close()
		return nil, err
	}
	p.gen = codec.NewLimited(backend, cfg.RateLimit, cfg.RateBurst)

	enf := enforcer.New(state.NewStore(), enforcer.Config{
		Profile:       cfg.ProfileValue(),
		Thresholds:    cfg.Thresholds,
		MaxIterations: cfg.MaxIterations,
		Gate:          enforcer.DefaultConfig().Gate,
	}, enforcer.WithLogger(logger))

	opts := []orchestrator.Option{orchestrator.WithLogger(logger)}
	if cfg.DBPath != "" {
		db, err := logging.Open(cfg.DBPath)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("open decision log: %w", err)
		}
		p.db = db
		p.closers = append(p.closers, db.Close)
		opts = append(opts, orchestrator.WithRecorder(logging.NewRecorder(db)))
	}

	p.orch, err = orchestrator.NewOrchestrator(cfg.Layers, p.gen, enf,
		orchestrator.Config{LayerTimeout: cfg.LayerTimeout}, opts...)
	if err != nil {
		p.Close()
		return nil, err
	}

	logger.Info("[ORCH] pipeline ready",
		zap.String("backend", cfg.Backend),
		zap.Int("layers", len(cfg.Layers)),
		zap.String("profile", cfg.Profile),
		zap.String("decision_log", cfg.DBPath))
	return p, nil
}

func newBackend(cfg config.Config, p *pipeline) (codec.Generator, error) {
	opts := codec.GenerateOptions{
		Model:       cfg.OpenAIModel,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}
	switch cfg.Backend {
	case config.BackendOpenAI:
		return codec.NewOpenAIClient(codec.OpenAIConfig{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Options: opts,
		}, logger)
	default:
		client, err := codec.NewCodecClient(cfg.CodecAddr, opts)
		if err != nil {
			return nil, fmt.Errorf("connect to codec service at %s: %w", cfg.CodecAddr, err)
		}
		p.closers = append(p.closers, client.Close)
		return client, nil
	}
}

// #endregion build
