// Package api is the HTTP shell around the ledger engine. It owns request
// decoding, the mapping of engine error kinds to status codes and nothing
// else; all timer semantics live in pkg/ledger.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/gridtime/gridtime/pkg/ledger"
	"github.com/gridtime/gridtime/pkg/logging"
	"github.com/gridtime/gridtime/pkg/settings"
)

// MetricsRecorder counts timer operations by outcome.
type MetricsRecorder interface {
	RecordTimerOp(op, result string)
}

// TimerHandler handles timer API requests.
type TimerHandler struct {
	engine  *ledger.Engine
	log     *logging.Logger
	metrics MetricsRecorder
}

// NewTimerHandler creates a handler over an engine.
func NewTimerHandler(engine *ledger.Engine, log *logging.Logger) *TimerHandler {
	return &TimerHandler{
		engine: engine,
		log:    log.WithField("component", "api"),
	}
}

// SetMetricsRecorder sets the metrics recorder for the handler.
func (h *TimerHandler) SetMetricsRecorder(recorder MetricsRecorder) {
	h.metrics = recorder
}

// RegisterRoutes registers all API routes.
func (h *TimerHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/documents/{id}/timer/start", h.StartTimer).Methods("POST")
	r.HandleFunc("/documents/{id}/timer/stop", h.StopTimer).Methods("POST")
	r.HandleFunc("/documents/{id}/timer", h.TimerStatus).Methods("GET")
	r.HandleFunc("/health", h.Health).Methods("GET")
}

type startRequest struct {
	Description string `json:"description"`
}

type stopRequest struct {
	EndTime string `json:"end_time"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// StartTimer handles POST /documents/{id}/timer/start. The request body is
// optional; an empty body starts a timer with no description.
func (h *TimerHandler) StartTimer(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["id"]

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.engine.StartTimer(r.Context(), docID, req.Description)
	if err != nil {
		h.record("start", err)
		h.writeError(w, docID, err)
		return
	}

	h.record("start", nil)
	writeJSON(w, http.StatusOK, result)
}

// StopTimer handles POST /documents/{id}/timer/stop. An end_time in RFC3339
// form overrides the default of now.
func (h *TimerHandler) StopTimer(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["id"]

	var req stopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var endAt *time.Time
	if req.EndTime != "" {
		t, err := time.Parse(time.RFC3339, req.EndTime)
		if err != nil {
			http.Error(w, "Invalid end_time, want RFC3339", http.StatusBadRequest)
			return
		}
		endAt = &t
	}

	result, err := h.engine.StopTimer(r.Context(), docID, endAt)
	if err != nil {
		h.record("stop", err)
		h.writeError(w, docID, err)
		return
	}

	h.record("stop", nil)
	writeJSON(w, http.StatusOK, result)
}

// TimerStatus handles GET /documents/{id}/timer.
func (h *TimerHandler) TimerStatus(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["id"]

	status, err := h.engine.TimerStatus(r.Context(), docID)
	if err != nil {
		h.writeError(w, docID, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Health handles GET /health.
func (h *TimerHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeError maps engine error kinds to status codes. The two expected
// outcomes of normal use (conflict, nothing to stop) stay distinguishable
// from infrastructure failures.
func (h *TimerHandler) writeError(w http.ResponseWriter, docID string, err error) {
	var storeErr *ledger.StoreError

	switch {
	case errors.Is(err, ledger.ErrTimerAlreadyRunning):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Kind: "timer_already_running"})
	case errors.Is(err, ledger.ErrNoActiveTimer):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error(), Kind: "no_active_timer"})
	case errors.Is(err, settings.ErrConfigNotFound):
		h.log.Error("config not found", map[string]interface{}{"document": docID})
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), Kind: "config_not_found"})
	case errors.Is(err, ledger.ErrSegmentCreationFailed):
		h.log.Error("segment creation failed", map[string]interface{}{"document": docID, "error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), Kind: "segment_creation_failed"})
	case errors.As(err, &storeErr):
		h.log.Error("store unavailable", map[string]interface{}{"document": docID, "error": err.Error()})
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error(), Kind: "store_unavailable"})
	default:
		h.log.Error("internal error", map[string]interface{}{"document": docID, "error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), Kind: "internal"})
	}
}

func (h *TimerHandler) record(op string, err error) {
	if h.metrics == nil {
		return
	}
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ledger.ErrTimerAlreadyRunning):
		result = "conflict"
	case errors.Is(err, ledger.ErrNoActiveTimer):
		result = "idle"
	default:
		result = "error"
	}
	h.metrics.RecordTimerOp(op, result)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
