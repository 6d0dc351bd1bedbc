package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moemen20/phoenix-tracker/internal/models"
)

func TestInitWiresServices(t *testing.T) {
	Init()
	require.NotNil(t, Identity)
	require.NotNil(t, Resolver)
	require.NotNil(t, Prospects)
	require.NotNil(t, Contacts)
	require.NotNil(t, Tasks)
	require.NotNil(t, Stats)
	require.NotNil(t, ProfileState)

	// The ProfileState singleton and the Profile value type it publishes are
	// distinct names and must coexist in this package.
	ProfileState.Set(&ResolvedIdentity{User: models.User{UID: "u-1"}, State: StateResolved})
	var current *Profile
	current, ok := ProfileState.Current()
	require.True(t, ok)
	assert.Equal(t, "u-1", current.UID)
	ProfileState.Clear()
}
