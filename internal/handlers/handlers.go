package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"internship-router/internal/cache"
	"internship-router/internal/engine"
	"internship-router/internal/geocoding"
)

// Handler provides common handler utilities and dependencies
type Handler struct {
	Engine   *engine.Engine
	Resolver *geocoding.Resolver
	Store    cache.Store
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	h.writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// handleNotFound handles 404 errors
func (h *Handler) handleNotFound(w http.ResponseWriter, message string) {
	h.writeError(w, http.StatusNotFound, "NOT_FOUND", message, nil)
}

// handleValidationError handles 400 errors
func (h *Handler) handleValidationError(w http.ResponseWriter, message string) {
	h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", message, nil)
}

// handleGeocodingError handles 422 errors for addresses the cascade gave up on
func (h *Handler) handleGeocodingError(w http.ResponseWriter, message string, details interface{}) {
	h.writeError(w, http.StatusUnprocessableEntity, "GEOCODING_FAILED", message, details)
}

// handleInternalError handles 500 errors
func (h *Handler) handleInternalError(w http.ResponseWriter, err error) {
	log.Printf("[ERROR] Internal error: %v", err)
	h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An error occurred. Please try again.", nil)
}

// HandleHealthCheck handles GET /health
func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	storeStatus := "connected"

	if err := h.Store.HealthCheck(r.Context()); err != nil {
		status = "degraded"
		storeStatus = "error"
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": "1.0.0",
		"store":   storeStatus,
	})
}
