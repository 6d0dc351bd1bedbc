package services

import (
	"context"
	"sync"
	"time"
)

// ProfileLoadTimeout bounds how long consumers wait for the first resolution.
// After the timeout the cache reports ready with whatever fields are present -
// a liveness safeguard, not a correctness guarantee.
const ProfileLoadTimeout = 2 * time.Second

// Profile is the resolved identity the rest of the app reads.
type Profile struct {
	UID            string          `json:"uid"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Role           string          `json:"role"`
	UserType       string          `json:"userType"`
	TeamID         string          `json:"teamId"`
	PersonalTeamID string          `json:"personalTeamId"`
	State          ResolutionState `json:"state"`
}

// ProfileCache holds the signed-in identity's derived attributes for the
// lifetime of the process. Single writer (the authentication handlers), many
// readers. It never writes to the identity store.
type ProfileCache struct {
	mu      sync.RWMutex
	profile *Profile
	state   ResolutionState

	readyOnce sync.Once
	ready     chan struct{}
}

func NewProfileCache() *ProfileCache {
	c := &ProfileCache{
		state: StateUnresolved,
		ready: make(chan struct{}),
	}

	// Force the cache out of its loading state even if resolution never
	// reports completion.
	time.AfterFunc(ProfileLoadTimeout, c.markReady)

	return c
}

func (c *ProfileCache) markReady() {
	c.readyOnce.Do(func() { close(c.ready) })
}

// SetResolving flags that a resolution is in flight.
func (c *ProfileCache) SetResolving() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateResolving
}

// Set publishes a resolved identity and marks the cache ready.
func (c *ProfileCache) Set(identity *ResolvedIdentity) {
	c.mu.Lock()
	c.profile = &Profile{
		UID:            identity.User.UID,
		Name:           identity.User.Name,
		Email:          identity.User.Email,
		Role:           identity.User.Role,
		UserType:       identity.User.UserType,
		TeamID:         identity.User.TeamID,
		PersonalTeamID: identity.User.PersonalTeamID,
		State:          identity.State,
	}
	c.state = identity.State
	c.mu.Unlock()

	c.markReady()
}

// Restore seeds the cache from a stored session snapshot so returning clients
// skip the loading state. The restored profile carries no team context until a
// real resolution replaces it.
func (c *ProfileCache) Restore(snap *SessionSnapshot) {
	if snap == nil {
		return
	}
	c.mu.Lock()
	c.profile = &Profile{
		UID:   snap.UID,
		Name:  snap.DisplayName,
		Email: snap.Email,
		State: StateUnresolved,
	}
	c.mu.Unlock()

	c.markReady()
}

// Clear wipes the cache entirely (sign-out). The next authentication event
// restarts the state machine at unresolved.
func (c *ProfileCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profile = nil
	c.state = StateUnresolved
}

// Current returns the cached profile, or (nil, false) when signed out.
func (c *ProfileCache) Current() (*Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.profile == nil {
		return nil, false
	}
	p := *c.profile
	return &p, true
}

// State returns the resolution state of the current session.
func (c *ProfileCache) State() ResolutionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// WaitReady blocks until the cache has left its initial loading state, the
// load timeout fires, or ctx is done. Callers must treat loading as finished
// afterwards regardless of which fields are populated.
func (c *ProfileCache) WaitReady(ctx context.Context) {
	select {
	case <-c.ready:
	case <-ctx.Done():
	}
}
