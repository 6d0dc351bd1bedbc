package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/moemen20/phoenix-tracker/internal/database"
)

const (
	// SnapshotKeyPrefix is the Redis key prefix for auth session snapshots
	SnapshotKeyPrefix = "authsnapshot:"
	// SnapshotMaxAge bounds how long a snapshot may be replayed
	SnapshotMaxAge = 24 * time.Hour
)

// SessionSnapshot is the small identity blob cached at login so a returning
// client can skip the loading state between process restarts.
type SessionSnapshot struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Timestamp   int64  `json:"timestamp"` // unix millis
}

// StoreSnapshot writes the snapshot for a uid with a 24h expiry.
func StoreSnapshot(ctx context.Context, snap SessionSnapshot) error {
	if database.RedisClient == nil {
		return ErrUnavailable
	}
	if snap.Timestamp == 0 {
		snap.Timestamp = time.Now().UnixMilli()
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return database.RedisClient.Set(ctx, SnapshotKeyPrefix+snap.UID, data, SnapshotMaxAge).Err()
}

// LoadSnapshot returns the stored snapshot for a uid, if any. A snapshot that
// fails to decode or is older than 24 hours is deleted and reported missing.
// The TTL already bounds staleness; the timestamp check guards against clock
// skew and legacy entries written without an expiry.
func LoadSnapshot(ctx context.Context, uid string) (*SessionSnapshot, bool) {
	if database.RedisClient == nil {
		return nil, false
	}

	key := SnapshotKeyPrefix + uid
	data, err := database.RedisClient.Get(ctx, key).Result()
	if err != nil {
		return nil, false
	}

	var snap SessionSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		database.RedisClient.Del(ctx, key)
		return nil, false
	}
	if time.Since(time.UnixMilli(snap.Timestamp)) > SnapshotMaxAge {
		database.RedisClient.Del(ctx, key)
		return nil, false
	}

	return &snap, true
}

// DeleteSnapshot removes the snapshot for a uid (called on sign-out).
func DeleteSnapshot(ctx context.Context, uid string) error {
	if database.RedisClient == nil {
		return ErrUnavailable
	}
	return database.RedisClient.Del(ctx, SnapshotKeyPrefix+uid).Err()
}

// IsSnapshotFresh reports whether a snapshot timestamp is within the allowed age.
func IsSnapshotFresh(snap *SessionSnapshot, now time.Time) bool {
	if snap == nil || snap.Timestamp == 0 {
		return false
	}
	age := now.Sub(time.UnixMilli(snap.Timestamp))
	return age >= 0 && age <= SnapshotMaxAge
}
