package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/layer-governor/internal/layer"
	"github.com/danielpatrickdp/layer-governor/internal/logging"
	"github.com/danielpatrickdp/layer-governor/internal/orchestrator"
	"github.com/danielpatrickdp/layer-governor/internal/state"
	"github.com/danielpatrickdp/layer-governor/internal/update"
)

// #region govern
type governRequest struct {
	Text           string                    `json:"text" validate:"required,max=65536"`
	IncludeReasons bool                      `json:"include_reasons"`
	LayerOverrides map[string]layer.Override `json:"layer_overrides,omitempty"`
	ContextID      string                    `json:"context_id,omitempty" validate:"omitempty,max=128"`
}

func (s *Server) handleGovern(w http.ResponseWriter, r *http.Request) {
	var req governRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if err := requestValidate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.orch.Run(r.Context(), orchestrator.GovernanceInput(req))
	if err != nil {
		s.respondRunError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) respondRunError(w http.ResponseWriter, err error) {
	var (
		terr *orchestrator.TerminalLayerError
		perr *orchestrator.ParseError
	)
	body := errorBody{Error: err.Error()}
	switch {
	case errors.As(err, &terr):
		body.Status, body.Code, body.LayerID = http.StatusBadGateway, "terminal_layer_failed", terr.LayerID
	case errors.As(err, &perr):
		body.Status, body.Code, body.LayerID = http.StatusBadGateway, "unparseable_reply", perr.LayerID
	case errors.Is(err, context.DeadlineExceeded):
		body.Status, body.Code = http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, context.Canceled):
		body.Status, body.Code = 499, "canceled"
	default:
		body.Status, body.Code = http.StatusBadRequest, "invalid_request"
	}
	s.log.Warn("[API] run failed", zap.String("code", body.Code), zap.Error(err))
	respondJSON(w, body.Status, body)
}

// #endregion govern

// #region layers
type layerStatus struct {
	layer.LayerConfig
	Terminal    bool   `json:"terminal"`
	DisplayName string `json:"display_name"`
	Loops       int    `json:"loops"`
	Vetoed      bool   `json:"vetoed"` // the latest enforcement in some context ended in a veto
}

func (s *Server) handleListLayers(w http.ResponseWriter, r *http.Request) {
	loops := map[string]int{}
	vetoed := map[string]bool{}
	for _, st := range s.orch.Enforcer().States() {
		loops[st.LayerID]++
		if len(st.LastVetoReasons) > 0 {
			vetoed[st.LayerID] = true
		}
	}

	layers := s.orch.Layers()
	out := make([]layerStatus, len(layers))
	for i, l := range layers {
		out[i] = layerStatus{
			LayerConfig: l,
			Terminal:    l.Terminal(),
			DisplayName: l.DisplayName(),
			Loops:       loops[l.ID],
			Vetoed:      vetoed[l.ID],
		}
	}
	respondJSON(w, http.StatusOK, out)
}

// #endregion layers

// #region loops
func (s *Server) handleListLoops(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.filterLoops(r.URL.Query().Get("context"), ""))
}

func (s *Server) handleGetLoop(w http.ResponseWriter, r *http.Request) {
	layerID := chi.URLParam(r, "layerID")
	loops := s.filterLoops(r.URL.Query().Get("context"), layerID)
	if len(loops) == 0 {
		respondError(w, http.StatusNotFound, fmt.Errorf("no loop state for layer %s", layerID))
		return
	}
	respondJSON(w, http.StatusOK, loops)
}

func (s *Server) handleResetLoop(w http.ResponseWriter, r *http.Request) {
	layerID := chi.URLParam(r, "layerID")
	n := 0
	for _, st := range s.filterLoops(r.URL.Query().Get("context"), layerID) {
		if s.orch.Enforcer().Reset(st.Key()) {
			n++
		}
	}
	if n == 0 {
		respondError(w, http.StatusNotFound, fmt.Errorf("no loop state for layer %s", layerID))
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"reset": n})
}

func (s *Server) handleEvictContext(w http.ResponseWriter, r *http.Request) {
	n := s.orch.Enforcer().Evict(chi.URLParam(r, "contextID"))
	respondJSON(w, http.StatusOK, map[string]int{"evicted": n})
}

func (s *Server) filterLoops(contextID, layerID string) []state.LoopState {
	all := s.orch.Enforcer().States()
	out := make([]state.LoopState, 0, len(all))
	for _, st := range all {
		if contextID != "" && st.ContextID != contextID {
			continue
		}
		if layerID != "" && st.LayerID != layerID {
			continue
		}
		out = append(out, st)
	}
	return out
}

// #endregion loops

// #region profile
type profileBody struct {
	Profile    update.Profile    `json:"profile"`
	Mystical   bool              `json:"mystical"`
	Thresholds update.Thresholds `json:"thresholds"`
}

type profileRequest struct {
	Mystical    *bool              `json:"mystical"`
	Thresholds  *update.Thresholds `json:"thresholds"`
	ClearCustom bool               `json:"clear_custom"`
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.profile())
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.Thresholds != nil {
		if err := requestValidate.Struct(req.Thresholds); err != nil {
			respondError(w, http.StatusBadRequest, fmt.Errorf("thresholds must be within [0, 1]: %w", err))
			return
		}
	}

	enf := s.orch.Enforcer()
	if req.Mystical != nil {
		enf.SetMystical(*req.Mystical)
	}
	switch {
	case req.ClearCustom:
		enf.SetThresholds(nil)
	case req.Thresholds != nil:
		enf.SetThresholds(req.Thresholds)
	}
	s.log.Info("[API] profile updated", zap.String("profile", string(enf.Profile())))
	respondJSON(w, http.StatusOK, s.profile())
}

func (s *Server) profile() profileBody {
	enf := s.orch.Enforcer()
	return profileBody{
		Profile:    enf.Profile(),
		Mystical:   enf.Mystical(),
		Thresholds: enf.Thresholds(),
	}
}

// #endregion profile

// #region runs
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		respondError(w, http.StatusNotFound, errors.New("provenance log disabled"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := logging.ListRuns(r.Context(), s.db, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		respondError(w, http.StatusNotFound, errors.New("provenance log disabled"))
		return
	}
	runID := strings.TrimSpace(chi.URLParam(r, "runID"))
	recs, err := logging.RunDecisions(r.Context(), s.db, runID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	if len(recs) == 0 {
		respondError(w, http.StatusNotFound, fmt.Errorf("run %s not found", runID))
		return
	}
	respondJSON(w, http.StatusOK, recs)
}

// #endregion runs
