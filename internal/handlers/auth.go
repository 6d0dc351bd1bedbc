package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/moemen20/phoenix-tracker/internal/services"
	"github.com/moemen20/phoenix-tracker/pkg/utils"
)

// SignupRequest is the JSON body for POST /api/auth/signup
type SignupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password,omitempty"`
	UserType        string `json:"user_type"`
	UplineTeamID    string `json:"upline_team_id,omitempty"`
}

// SigninRequest is the JSON body for POST /api/auth/signin
type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the envelope for all auth endpoints.
type AuthResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Token   string            `json:"token,omitempty"`
	Profile *services.Profile `json:"profile,omitempty"`
}

// Signup handles new account registration.
func Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := services.Resolver.Register(ctx, services.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		UserType:        req.UserType,
		UplineTeamID:    req.UplineTeamID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Account created successfully",
		"user":    user,
	})
}

// Signin verifies credentials, opens a session, stores the session snapshot
// and resolves the team context.
func Signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := services.Identity.GetUserByEmail(ctx, req.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	valid, err := utils.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !valid {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := services.CreateSession(ctx, user.UID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Snapshot lets a returning client skip the loading state for 24h.
	if err := services.StoreSnapshot(ctx, services.SessionSnapshot{
		UID:         user.UID,
		Email:       user.Email,
		DisplayName: user.Name,
	}); err != nil {
		log.Printf("failed to store auth snapshot for %s: %v", user.UID, err)
	}

	profile := resolveAndCache(ctx, services.Principal{
		UID:         user.UID,
		Email:       user.Email,
		DisplayName: user.Name,
	})

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Login successful",
		Token:   token,
		Profile: profile,
	})
}

// Signout tears the session down and clears all cached identity state.
func Signout(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing session token")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if uid, ok := services.ValidateSession(ctx, token); ok {
		if err := services.DeleteSnapshot(ctx, uid); err != nil {
			log.Printf("failed to delete auth snapshot for %s: %v", uid, err)
		}
	}
	if err := services.InvalidateSession(ctx, token); err != nil {
		log.Printf("failed to invalidate session: %v", err)
	}
	services.ProfileState.Clear()

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Signed out"})
}

// Me re-resolves the caller's team context. The resolver's migration pass runs
// on every resolution, so stale legacy records heal here as well as at signin.
func Me(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing session token")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	uid, ok := services.ValidateSession(ctx, token)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid session token")
		return
	}

	// Sliding expiry: an active client keeps its session alive.
	if err := services.RefreshSession(ctx, token); err != nil {
		log.Printf("failed to refresh session for %s: %v", uid, err)
	}

	principal := services.Principal{UID: uid}
	if snap, ok := services.LoadSnapshot(ctx, uid); ok {
		principal.Email = snap.Email
		principal.DisplayName = snap.DisplayName
		services.ProfileState.Restore(snap)
	}

	profile := resolveAndCache(ctx, principal)

	writeJSON(w, http.StatusOK, AuthResponse{Success: true, Profile: profile})
}

// VerifyUplineRequest is the JSON body for POST /api/auth/verify-upline
type VerifyUplineRequest struct {
	TeamID string `json:"team_id"`
}

// VerifyUpline is the signup-form helper that checks a recruitment team id.
func VerifyUpline(w http.ResponseWriter, r *http.Request) {
	var req VerifyUplineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	valid := services.Resolver.VerifyUplineTeamID(ctx, req.TeamID)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "valid": valid})
}

// resolveAndCache runs the resolver state machine and publishes the result to
// the process-wide profile cache.
func resolveAndCache(ctx context.Context, principal services.Principal) *services.Profile {
	services.ProfileState.SetResolving()
	identity := services.Resolver.ResolveOnAuthentication(ctx, principal)
	services.ProfileState.Set(identity)

	profile, _ := services.ProfileState.Current()
	return profile
}
