package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/moemen20/phoenix-tracker/internal/models"
	"github.com/moemen20/phoenix-tracker/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "message": message})
}

// writeServiceError maps service-layer errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case services.IsValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "datastore not available")
	case errors.Is(err, mongo.ErrNoDocuments):
		writeError(w, http.StatusNotFound, "record not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func extractBearerToken(header string) string {
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// sessionToken pulls the session token from the Authorization header, falling
// back to the query parameter for browser WebSocket clients.
func sessionToken(r *http.Request) string {
	if token := extractBearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	return r.URL.Query().Get("token")
}

// recordBelongsToTeam checks that the record is owned by the caller's team
// before a mutation goes through. Cross-team ids answer 404, not 403, so
// callers cannot probe for other teams' record ids.
func recordBelongsToTeam(ctx context.Context, w http.ResponseWriter, colName, id, teamID string) bool {
	owner, err := services.RecordTeamID(ctx, colName, id)
	if err != nil {
		writeServiceError(w, err)
		return false
	}
	if owner != teamID {
		writeError(w, http.StatusNotFound, "record not found")
		return false
	}
	return true
}

// requireUser authenticates the request and loads the caller's user record,
// which scopes every query. Writes the error response itself on failure.
func requireUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	token := sessionToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing session token")
		return nil, false
	}

	uid, ok := services.ValidateSession(r.Context(), token)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid session token")
		return nil, false
	}

	user, err := services.Identity.GetUser(r.Context(), uid)
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unknown user")
		return nil, false
	}
	return user, true
}
