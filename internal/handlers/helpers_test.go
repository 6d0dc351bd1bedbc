package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/moemen20/phoenix-tracker/internal/services"
)

func TestWriteServiceErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &services.ValidationError{Message: "name is required"}, http.StatusBadRequest},
		{"unavailable", services.ErrUnavailable, http.StatusServiceUnavailable},
		{"not found", mongo.ErrNoDocuments, http.StatusNotFound},
		{"unknown", assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, tc.err)
			assert.Equal(t, tc.status, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestSessionTokenSources(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/prospects", nil)
	r.Header.Set("Authorization", "Bearer abc123")
	assert.Equal(t, "abc123", sessionToken(r))

	// Browser WebSocket clients cannot set headers; fall back to ?token=.
	r = httptest.NewRequest(http.MethodGet, "/ws/records?token=xyz789", nil)
	assert.Equal(t, "xyz789", sessionToken(r))

	// Header wins over the query parameter.
	r = httptest.NewRequest(http.MethodGet, "/ws/records?token=xyz789", nil)
	r.Header.Set("Authorization", "Bearer abc123")
	assert.Equal(t, "abc123", sessionToken(r))

	r = httptest.NewRequest(http.MethodGet, "/api/prospects", nil)
	r.Header.Set("Authorization", "Basic abc123")
	assert.Empty(t, sessionToken(r))
}
