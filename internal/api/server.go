// Package api exposes the pipeline and the enforcer admin operations over
// HTTP.
package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/layer-governor/internal/orchestrator"
)

// HealthPrompt is sent to the generator by the health probe.
const HealthPrompt = "Reply with the single word: ok"

var requestValidate = validator.New()

// #region server
// Server serves the governance HTTP API.
type Server struct {
	orch          *orchestrator.Orchestrator
	gen           orchestrator.Generator // probed by /healthz; nil skips the probe
	db            *sql.DB                // provenance log; nil disables /v1/runs
	log           *zap.Logger
	healthTimeout time.Duration
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l.Named("api")
		}
	}
}

// WithHealthProbe makes /healthz call gen with HealthPrompt.
func WithHealthProbe(gen orchestrator.Generator, timeout time.Duration) Option {
	return func(s *Server) {
		s.gen = gen
		if timeout > 0 {
			s.healthTimeout = timeout
		}
	}
}

// WithProvenance enables the run lookup endpoints.
func WithProvenance(db *sql.DB) Option {
	return func(s *Server) { s.db = db }
}

// NewServer creates a server over orch.
func NewServer(orch *orchestrator.Orchestrator, opts ...Option) *Server {
	s := &Server{
		orch:          orch,
		log:           zap.NewNop(),
		healthTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// #endregion server

// #region routes
// Routes builds the router.
func (s *Server) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(s.logRequests)

	router.Get("/healthz", s.handleHealthz)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	router.Route("/v1", func(r chi.Router) {
		r.Post("/govern", s.handleGovern)
		r.Get("/layers", s.handleListLayers)

		r.Route("/loops", func(r chi.Router) {
			r.Get("/", s.handleListLoops)
			r.Get("/{layerID}", s.handleGetLoop)
			r.Delete("/{layerID}", s.handleResetLoop)
		})
		r.Delete("/contexts/{contextID}", s.handleEvictContext)

		r.Get("/profile", s.handleGetProfile)
		r.Put("/profile", s.handlePutProfile)

		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{runID}", s.handleGetRun)
	})
	return router
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("[API] request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// #endregion routes

// #region health
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			respondError(w, http.StatusServiceUnavailable, errors.New("provenance database unavailable"))
			return
		}
	}
	if s.gen != nil {
		ctx, cancel := context.WithTimeout(r.Context(), s.healthTimeout)
		defer cancel()
		if _, err := s.gen.Generate(ctx, HealthPrompt); err != nil {
			s.log.Warn("[API] generator health probe failed", zap.Error(err))
			respondError(w, http.StatusServiceUnavailable, errors.New("generator unavailable: "+err.Error()))
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

// #endregion health

// #region helpers
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

type errorBody struct {
	Error   string `json:"error"`
	Status  int    `json:"status"`
	Code    string `json:"code,omitempty"`
	LayerID string `json:"layer_id,omitempty"`
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, errorBody{Error: err.Error(), Status: status})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// #endregion helpers
