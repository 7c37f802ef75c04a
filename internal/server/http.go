package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/zeusync/remedy/internal/core/events/bus"
	"github.com/zeusync/remedy/internal/core/observability/log"
	"github.com/zeusync/remedy/internal/core/requests"
	"github.com/zeusync/remedy/internal/core/status"
	"github.com/zeusync/remedy/internal/core/systems"
	"github.com/zeusync/remedy/internal/core/systems/remediation"
)

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Text    string      `json:"text"`
	View    status.View `json:"view"`
	State   string      `json:"state"`
	Enabled bool        `json:"enabled"`
	Pending []string    `json:"pending,omitempty"`
}

// RequestResponse is the body of POST /requests/{intent}.
type RequestResponse struct {
	Intent string `json:"intent"`
	// Raised is false when the request was already pending.
	Raised bool `json:"raised"`
}

// TogglePatch is the body of POST /toggles. Omitted fields keep their
// current value.
type TogglePatch struct {
	Automatic        *bool `json:"automatic,omitempty"`
	RemoveAbandoned  *bool `json:"remove_abandoned,omitempty"`
	RestoreAbandoned *bool `json:"restore_abandoned,omitempty"`
	RemoveCondemned  *bool `json:"remove_condemned,omitempty"`
	RestoreCondemned *bool `json:"restore_condemned,omitempty"`
	RemoveCollapsed  *bool `json:"remove_collapsed,omitempty"`
	RestoreCollapsed *bool `json:"restore_collapsed,omitempty"`
	IconOnly         *bool `json:"icon_only,omitempty"`
	DeepRestore      *bool `json:"deep_restore,omitempty"`
	ScrubOrphans     *bool `json:"scrub_orphans,omitempty"`
}

// Apply returns s with the patch applied.
func (p TogglePatch) Apply(s remediation.Settings) remediation.Settings {
	set := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	set(&s.Automatic, p.Automatic)
	set(&s.Toggles.RemoveAbandoned, p.RemoveAbandoned)
	set(&s.Toggles.RestoreAbandoned, p.RestoreAbandoned)
	set(&s.Toggles.RemoveCondemned, p.RemoveCondemned)
	set(&s.Toggles.RestoreCondemned, p.RestoreCondemned)
	set(&s.Toggles.RemoveCollapsed, p.RemoveCollapsed)
	set(&s.Toggles.RestoreCollapsed, p.RestoreCollapsed)
	set(&s.Toggles.IconOnly, p.IconOnly)
	set(&s.Toggles.DeepRestore, p.DeepRestore)
	set(&s.Toggles.ScrubOrphans, p.ScrubOrphans)
	return s
}

// MetricsResponse is the body of GET /metrics.
type MetricsResponse struct {
	Engine  systems.Metrics            `json:"engine"`
	Passes  map[string]systems.Metrics `json:"passes"`
	Bus     *bus.EventBusMetrics       `json:"bus,omitempty"`
	Clients int                        `json:"clients"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler routes the operator API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /requests/{intent}", s.handleRequest)
	mux.HandleFunc("GET /toggles", s.handleGetToggles)
	mux.HandleFunc("POST /toggles", s.handlePostToggles)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /ws", s.hub.handleWebSocket)
	return withLogging(s.logger, mux)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	v := s.engine.Status().View()
	resp := StatusResponse{
		Text:    v.Text(),
		View:    v,
		State:   s.engine.Lifecycle().State().String(),
		Enabled: s.engine.IsEnabled(),
	}
	for _, i := range requests.Intents() {
		if s.engine.Requests().Peek(i) {
			resp.Pending = append(resp.Pending, i.String())
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	intent, err := requests.ParseIntent(r.PathValue("intent"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	raised := s.engine.Requests().Raise(intent)
	s.logger.Info("operator request", log.Stringer("intent", intent), log.Bool("raised", raised))
	s.writeJSON(w, http.StatusAccepted, RequestResponse{Intent: intent.String(), Raised: raised})
}

func (s *Server) handleGetToggles(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Settings())
}

func (s *Server) handlePostToggles(w http.ResponseWriter, r *http.Request) {
	var patch TogglePatch
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
		return
	}

	next, err := s.engine.UpdateSettings(patch.Apply)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, remediation.ErrInvalidSettings) {
			code = http.StatusUnprocessableEntity
		}
		s.writeError(w, code, err)
		return
	}
	s.writeJSON(w, http.StatusOK, next)
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	resp := MetricsResponse{
		Engine:  s.engine.GetMetrics(),
		Passes:  s.engine.PassMetrics(),
		Clients: s.hub.Clients(),
	}
	if s.bus != nil {
		m := s.bus.GetMetrics()
		resp.Bus = &m
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("write response failed", log.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, err error) {
	s.logger.Debug("request rejected", log.Int("code", code), log.Error(err))
	s.writeJSON(w, code, errorResponse{Error: err.Error()})
}
