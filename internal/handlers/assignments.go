package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"internship-router/internal/models"
	"internship-router/internal/routing"
)

// ComputeAssignmentsRequest is the body of POST /api/v1/assignments
type ComputeAssignmentsRequest struct {
	Internships []*models.Internship `json:"internships"`
	Teachers    []*models.Teacher    `json:"teachers"`
	Options     *routing.Options     `json:"options,omitempty"`
}

// HandleComputeAssignments handles POST /api/v1/assignments
func (h *Handler) HandleComputeAssignments(w http.ResponseWriter, r *http.Request) {
	var req ComputeAssignmentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[HTTP] POST /api/v1/assignments: invalid_json err=%v", err)
		h.handleValidationError(w, "Invalid request body")
		return
	}

	if len(req.Internships) == 0 {
		h.handleValidationError(w, "At least one internship is required")
		return
	}

	if len(req.Teachers) == 0 {
		h.handleValidationError(w, "At least one teacher is required")
		return
	}

	// Results are keyed by ID; a duplicate would silently overwrite.
	seenInternships := make(map[int64]bool, len(req.Internships))
	for _, internship := range req.Internships {
		if seenInternships[internship.ID] {
			h.handleValidationError(w, fmt.Sprintf("Duplicate internship ID %d", internship.ID))
			return
		}
		seenInternships[internship.ID] = true
	}

	seenTeachers := make(map[int64]bool, len(req.Teachers))
	for _, teacher := range req.Teachers {
		if seenTeachers[teacher.ID] {
			h.handleValidationError(w, fmt.Sprintf("Duplicate teacher ID %d", teacher.ID))
			return
		}
		seenTeachers[teacher.ID] = true
	}

	log.Printf("[HTTP] POST /api/v1/assignments: internships=%d teachers=%d", len(req.Internships), len(req.Teachers))

	result, err := h.Engine.Run(r.Context(), req.Internships, req.Teachers, req.Options)
	if err != nil {
		h.handleInternalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}
