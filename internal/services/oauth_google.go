package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/moemen20/phoenix-tracker/internal/config"
)

// GoogleUserInfo is the subset of the Google userinfo payload we care about.
type GoogleUserInfo struct {
	ID    string
	Email string
	Name  string
}

// GoogleProvider wraps the OAuth code flow for Google sign-in.
type GoogleProvider struct {
	config *oauth2.Config
}

// NewGoogleProvider returns nil when Google credentials are not configured,
// in which case the Google sign-in routes are disabled.
func NewGoogleProvider(cfg *config.Config) *GoogleProvider {
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		return nil
	}
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
	}
}

// ConsentURL returns the Google consent page URL for the given state token.
func (p *GoogleProvider) ConsentURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// ExchangeCode swaps the callback code for the user's Google identity.
func (p *GoogleProvider) ExchangeCode(ctx context.Context, code string) (*GoogleUserInfo, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	client := p.config.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google api returned status %d", resp.StatusCode)
	}

	var gUser struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&gUser); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	return &GoogleUserInfo{ID: gUser.ID, Email: gUser.Email, Name: gUser.Name}, nil
}

// GenerateOAuthState returns an opaque token binding the consent redirect to
// the callback.
func GenerateOAuthState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
