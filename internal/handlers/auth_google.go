package handlers

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/moemen20/phoenix-tracker/internal/database"
	"github.com/moemen20/phoenix-tracker/internal/services"
)

var (
	googleProvider *services.GoogleProvider
	frontendURL    string
)

const oauthStateTTL = 10 * time.Minute

// InitGoogleAuth wires the Google sign-in routes. provider may be nil, in
// which case the routes respond 503.
func InitGoogleAuth(provider *services.GoogleProvider, frontend string) {
	googleProvider = provider
	frontendURL = frontend
}

// GoogleLogin redirects the browser to the Google consent page.
func GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if googleProvider == nil {
		writeError(w, http.StatusServiceUnavailable, "Google sign-in is not configured")
		return
	}

	state, err := services.GenerateOAuthState()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to start sign-in")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := database.RedisClient.Set(ctx, "oauthstate:"+state, "1", oauthStateTTL).Err(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to start sign-in")
		return
	}

	http.Redirect(w, r, googleProvider.ConsentURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallback completes the OAuth flow. First sight of a Google identity
// synthesizes a default upline user through the resolver.
func GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if googleProvider == nil {
		writeError(w, http.StatusServiceUnavailable, "Google sign-in is not configured")
		return
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		writeError(w, http.StatusBadRequest, "missing state or code")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	deleted, err := database.RedisClient.Del(ctx, "oauthstate:"+state).Result()
	if err != nil || deleted == 0 {
		writeError(w, http.StatusBadRequest, "invalid oauth state")
		return
	}

	info, err := googleProvider.ExchangeCode(ctx, code)
	if err != nil {
		log.Printf("google code exchange failed: %v", err)
		writeError(w, http.StatusBadGateway, "Google sign-in failed")
		return
	}

	// Reuse the account if this email already signed up with a password;
	// otherwise mint a fresh uid and let the resolver synthesize the record.
	uid := ""
	if existing, err := services.Identity.GetUserByEmail(ctx, info.Email); err == nil && existing != nil {
		uid = existing.UID
	}
	if uid == "" {
		uid = uuid.NewString()
	}

	resolveAndCache(ctx, services.Principal{
		UID:         uid,
		Email:       info.Email,
		DisplayName: info.Name,
	})

	token, err := services.CreateSession(ctx, uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := services.StoreSnapshot(ctx, services.SessionSnapshot{
		UID:         uid,
		Email:       info.Email,
		DisplayName: info.Name,
	}); err != nil {
		log.Printf("failed to store auth snapshot for %s: %v", uid, err)
	}

	// Hand the token back to the frontend via redirect.
	redirect := frontendURL + "/auth/callback?token=" + url.QueryEscape(token)
	http.Redirect(w, r, redirect, http.StatusTemporaryRedirect)
}
