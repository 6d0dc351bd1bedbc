package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/moemen20/phoenix-tracker/internal/services"
)

// GetTeamStats returns the display statistics for the caller's shared team.
func GetTeamStats(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	stats, err := services.Stats.TeamStats(ctx, user.TeamID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"stats":   stats,
	})
}

// GetNetworkStats returns aggregated statistics for the caller's own team
// plus every direct downline's network. Unreachable teams contribute zero and
// flag the result as degraded instead of failing the request.
func GetNetworkStats(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	rootTeamID := user.PersonalTeamID
	if rootTeamID == "" {
		rootTeamID = user.TeamID
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	stats := services.Stats.NetworkStats(ctx, rootTeamID)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"stats":   stats,
	})
}

// ListTeamMembers returns everyone sharing the caller's data-access team,
// e.g. for task assignment pickers.
func ListTeamMembers(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	members, err := services.Resolver.TeamUsers(ctx, user.TeamID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"members": members,
	})
}

// ListDownlines returns the caller's direct downline roster.
func ListDownlines(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	rootTeamID := user.PersonalTeamID
	if rootTeamID == "" {
		rootTeamID = user.TeamID
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	downlines, err := services.Resolver.Downlines(ctx, rootTeamID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"downlines": downlines,
	})
}
