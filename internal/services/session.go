package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/moemen20/phoenix-tracker/internal/database"
)

const (
	// SessionDuration is 7 days
	SessionDuration = 7 * 24 * time.Hour
	// SessionKeyPrefix is the Redis key prefix for sessions
	SessionKeyPrefix = "session:"
	// UserSessionKeyPrefix is the Redis key prefix for user->session mapping
	UserSessionKeyPrefix = "user_session:"
)

// CreateSession creates a new session for a user and stores it in Redis.
// Any existing session for the user is invalidated first so the 7-day timer
// resets from the current login. Returns the session token.
func CreateSession(ctx context.Context, uid string) (string, error) {
	if database.RedisClient == nil {
		return "", ErrUnavailable
	}

	InvalidateUserSessions(ctx, uid)

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	sessionToken := base64.URLEncoding.EncodeToString(tokenBytes)

	sessionKey := SessionKeyPrefix + sessionToken
	userSessionKey := UserSessionKeyPrefix + uid

	if err := database.RedisClient.Set(ctx, sessionKey, uid, SessionDuration).Err(); err != nil {
		return "", err
	}
	if err := database.RedisClient.Set(ctx, userSessionKey, sessionToken, SessionDuration).Err(); err != nil {
		return "", err
	}

	return sessionToken, nil
}

// ValidateSession checks if a session token is valid and returns the uid.
func ValidateSession(ctx context.Context, sessionToken string) (string, bool) {
	if sessionToken == "" || database.RedisClient == nil {
		return "", false
	}

	uid, err := database.RedisClient.Get(ctx, SessionKeyPrefix+sessionToken).Result()
	if err != nil || uid == "" {
		return "", false
	}
	return uid, true
}

// RefreshSession extends the session expiration by 7 days from now.
func RefreshSession(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return fmt.Errorf("session token is empty")
	}
	if database.RedisClient == nil {
		return ErrUnavailable
	}

	sessionKey := SessionKeyPrefix + sessionToken
	uid, err := database.RedisClient.Get(ctx, sessionKey).Result()
	if err != nil {
		return err
	}

	if err := database.RedisClient.Expire(ctx, sessionKey, SessionDuration).Err(); err != nil {
		return err
	}
	return database.RedisClient.Expire(ctx, UserSessionKeyPrefix+uid, SessionDuration).Err()
}

// InvalidateSession removes a session from Redis.
func InvalidateSession(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return nil
	}
	if database.RedisClient == nil {
		return ErrUnavailable
	}

	sessionKey := SessionKeyPrefix + sessionToken

	// Get uid before deleting so the user->session mapping goes too
	uid, err := database.RedisClient.Get(ctx, sessionKey).Result()
	if err == nil && uid != "" {
		database.RedisClient.Del(ctx, UserSessionKeyPrefix+uid)
	}

	return database.RedisClient.Del(ctx, sessionKey).Err()
}

// InvalidateUserSessions invalidates all sessions for a user (useful when
// password changes).
func InvalidateUserSessions(ctx context.Context, uid string) error {
	if database.RedisClient == nil {
		return ErrUnavailable
	}

	userSessionKey := UserSessionKeyPrefix + uid

	sessionToken, err := database.RedisClient.Get(ctx, userSessionKey).Result()
	if err == nil && sessionToken != "" {
		database.RedisClient.Del(ctx, SessionKeyPrefix+sessionToken)
	}

	return database.RedisClient.Del(ctx, userSessionKey).Err()
}
