package handlers

import (
	"log"
	"net/http"
	"strings"

	"internship-router/internal/models"
)

// GeocodeCacheListResponse is the body of GET /api/v1/cache/geocode
type GeocodeCacheListResponse struct {
	Entries []models.GeocodeCacheEntry `json:"entries"`
	Total   int                        `json:"total"`
}

// HandleListGeocodeCache handles GET /api/v1/cache/geocode. The status
// filter defaults to "error": the usual reason to look in here is to review
// addresses that failed to geocode so they can be fixed at the source.
func (h *Handler) HandleListGeocodeCache(w http.ResponseWriter, r *http.Request) {
	status := models.GeocodeStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = models.GeocodeError
	}

	switch status {
	case models.GeocodeOK, models.GeocodeError, models.GeocodePending:
	default:
		h.handleValidationError(w, "Invalid status filter")
		return
	}

	entries, err := h.Store.Geocode().ListByStatus(r.Context(), status)
	if err != nil {
		h.handleInternalError(w, err)
		return
	}

	log.Printf("[HTTP] GET /api/v1/cache/geocode: status=%s entries=%d", status, len(entries))

	h.writeJSON(w, http.StatusOK, GeocodeCacheListResponse{
		Entries: entries,
		Total:   len(entries),
	})
}

// HandleDeleteGeocodeCacheEntry handles DELETE /api/v1/cache/geocode/{hash}.
// Deleting an entry forces the next run to re-geocode the address.
func (h *Handler) HandleDeleteGeocodeCacheEntry(w http.ResponseWriter, r *http.Request) {
	// Extract hash from path
	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 5 {
		h.handleNotFound(w, "Cache entry not found")
		return
	}
	hash := pathParts[4]

	log.Printf("[HTTP] DELETE /api/v1/cache/geocode/%s", hash)

	if err := h.Store.Geocode().Delete(r.Context(), hash); err != nil {
		h.handleInternalError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
