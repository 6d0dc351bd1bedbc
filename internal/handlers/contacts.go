package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/moemen20/phoenix-tracker/internal/models"
	"github.com/moemen20/phoenix-tracker/internal/services"
)

// CreateContactRequest is the JSON body for POST /api/contacts
type CreateContactRequest struct {
	Name     string `json:"name"`
	Surname  string `json:"surname,omitempty"`
	Age      int    `json:"age,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	Job      string `json:"job,omitempty"`
	JobOther string `json:"jobOther,omitempty"`
	State    string `json:"state,omitempty"`
}

// CreateContact inserts a contact into the caller's team.
func CreateContact(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c := models.Contact{
		Name:     req.Name,
		Surname:  req.Surname,
		Age:      req.Age,
		Phone:    req.Phone,
		Email:    req.Email,
		Job:      req.Job,
		JobOther: req.JobOther,
		State:    req.State,
		TeamID:   user.TeamID,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := services.Contacts.Create(ctx, &c)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Contact created",
		"id":      id,
	})
}

// ListContacts returns the caller's team contacts, optionally filtered by
// ?state=, ?job= and ?search=.
func ListContacts(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	filters := services.ContactFilters{
		State:  r.URL.Query().Get("state"),
		Job:    r.URL.Query().Get("job"),
		Search: r.URL.Query().Get("search"),
	}
	contacts, err := services.Contacts.List(ctx, user.TeamID, filters)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"contacts": contacts,
	})
}

// UpdateContact applies a partial update to the contact named by ?id=.
func UpdateContact(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if !recordBelongsToTeam(ctx, w, "contacts", id, user.TeamID) {
		return
	}
	if err := services.Contacts.Update(ctx, id, fields); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Contact updated"})
}

// DeleteContact removes the contact named by ?id=.
func DeleteContact(w http.ResponseWriter, r *http.Request) {
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

	if !recordBelongsToTeam(ctx, w, "contacts", id, user.TeamID) {
		return
	}
	if err := services.Contacts.Delete(ctx, id); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Contact deleted"})
}
