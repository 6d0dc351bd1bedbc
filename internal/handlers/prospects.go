package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/moemen20/phoenix-tracker/internal/models"
	"github.com/moemen20/phoenix-tracker/internal/services"
)

// CreateProspectRequest is the JSON body for POST /api/prospects
type CreateProspectRequest struct {
	Name         string `json:"name"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	Status       string `json:"status,omitempty"`
	Notes        string `json:"notes,omitempty"`
	NextFollowUp string `json:"nextFollowUp,omitempty"`
	AssignedTo   string `json:"assignedTo,omitempty"`
}

// CreateProspect inserts a prospect into the caller's team.
func CreateProspect(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateProspectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p := models.Prospect{
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		Status:     req.Status,
		Notes:      req.Notes,
		AssignedTo: req.AssignedTo,
		TeamID:     user.TeamID,
	}
	if req.NextFollowUp != "" {
		t, err := services.ParseDueDate(req.NextFollowUp)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		p.NextFollowUp = &t
	}
	if p.AssignedTo == "" {
		p.AssignedTo = user.UID
	}
	if p.AssignedTo != user.UID && !user.IsUpline() {
		writeError(w, http.StatusForbidden, "only uplines can assign prospects to others")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := services.Prospects.Create(ctx, &p)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Prospect created",
		"id":      id,
	})
}

// ListProspects returns the caller's team prospects, optionally filtered by
// ?status= and ?search=.
func ListProspects(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	filters := services.ProspectFilters{
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("search"),
	}
	prospects, err := services.Prospects.List(ctx, user.TeamID, filters)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"prospects": prospects,
	})
}

// UpdateProspect applies a partial update to the prospect named by ?id=.
// Absent fields are left untouched.
func UpdateProspect(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	var fields map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if assignee, ok := fields["assignedTo"].(string); ok && assignee != user.UID && !user.IsUpline() {
		writeError(w, http.StatusForbidden, "only uplines can assign prospects to others")
		return
	}
	if raw, ok := fields["nextFollowUp"].(string); ok {
		t, err := services.ParseDueDate(raw)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		fields["nextFollowUp"] = t
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if !recordBelongsToTeam(ctx, w, "prospects", id, user.TeamID) {
		return
	}
	if err := services.Prospects.Update(ctx, id, fields); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Prospect updated"})
}

// DeleteProspect removes the prospect named by ?id=.
func DeleteProspect(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if !recordBelongsToTeam(ctx, w, "prospects", id, user.TeamID) {
		return
	}
	if err := services.Prospects.Delete(ctx, id); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Prospect deleted"})
}
