package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/y0nigt/pacer/pkg/pacer"
)

// Handler exposes delay previews and preset listings over HTTP.
type Handler struct {
	curve    *pacer.Curve
	calc     *pacer.DelayCalculator
	registry *pacer.Registry
}

// NewHandler creates a new API handler backed by the given curve and registry.
func NewHandler(curve *pacer.Curve, registry *pacer.Registry) *Handler {
	return &Handler{
		curve:    curve,
		calc:     pacer.NewDelayCalculator(curve),
		registry: registry,
	}
}

// SampleRequest asks for the backoff delay at a given retry attempt.
type SampleRequest struct {
	Attempt int  `json:"attempt"`
	Jitter  bool `json:"jitter,omitempty"`
}

// SampleResponse carries the computed delay for one attempt.
type SampleResponse struct {
	DelaySec  float64 `json:"delay_sec"`
	Saturated bool    `json:"saturated"`
}

// NextDelayRequest asks for the next retry delay given the running total.
type NextDelayRequest struct {
	PreviousSec float64 `json:"previous_sec"`
	MinSec      float64 `json:"min_sec"`
}

// NextDelayResponse carries the next retry delay.
type NextDelayResponse struct {
	DelaySec float64 `json:"delay_sec"`
}

// PresetResponse lists the registry's known rate limit definitions.
type PresetResponse struct {
	Presets []pacer.Definition `json:"presets"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SampleDelay handles POST /sample requests.
func (h *Handler) SampleDelay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Only POST requests are allowed")
		return
	}

	var req SampleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	delay, err := h.curve.Sample(req.Attempt, req.Jitter)
	if err != nil {
		if errors.Is(err, pacer.ErrAttemptsExhausted) {
			h.sendError(w, http.StatusUnprocessableEntity, "attempts_exhausted", err.Error())
			return
		}
		h.sendError(w, http.StatusInternalServerError, "sample_failed", err.Error())
		return
	}

	h.sendJSON(w, http.StatusOK, SampleResponse{
		DelaySec:  delay,
		Saturated: h.curve.Saturated(),
	})
}

// NextDelay handles POST /next-delay requests.
func (h *Handler) NextDelay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Only POST requests are allowed")
		return
	}

	var req NextDelayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	delay, err := h.calc.NextDelay(req.PreviousSec, req.MinSec)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "delay_failed", err.Error())
		return
	}

	h.sendJSON(w, http.StatusOK, NextDelayResponse{DelaySec: delay})
}

// Presets handles GET /presets requests.
func (h *Handler) Presets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.sendError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Only GET requests are allowed")
		return
	}

	h.sendJSON(w, http.StatusOK, PresetResponse{Presets: h.registry.Definitions()})
}

func (h *Handler) sendJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func (h *Handler) sendError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	h.sendJSON(w, statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}
