package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"internship-router/internal/models"
)

// GeocodeRequest is the body of POST /api/v1/geocode
type GeocodeRequest struct {
	Address string `json:"address"`
}

// HandleGeocode handles POST /api/v1/geocode. It runs the full cascade for
// one address, mainly so an operator can probe how a problematic address
// resolves without launching an assignment run.
func (h *Handler) HandleGeocode(w http.ResponseWriter, r *http.Request) {
	var req GeocodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[HTTP] POST /api/v1/geocode: invalid_json err=%v", err)
		h.handleValidationError(w, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Address) == "" {
		h.handleValidationError(w, "Address is required")
		return
	}

	log.Printf("[HTTP] POST /api/v1/geocode: address=%s", req.Address)

	resolution, err := h.Resolver.Resolve(r.Context(), req.Address)
	if err != nil {
		h.handleInternalError(w, err)
		return
	}

	if resolution.Status != models.GeocodeOK {
		h.handleGeocodingError(w, resolution.ErrorMessage, resolution)
		return
	}

	h.writeJSON(w, http.StatusOK, resolution)
}
