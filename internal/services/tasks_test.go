package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDueDate(t *testing.T) {
	got, err := ParseDueDate("2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 23, 59, 59, 0, time.UTC), got,
		"date-only input defaults to end of day")

	got, err = ParseDueDate("2026-03-10T09:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC), got)

	_, err = ParseDueDate("10/03/2026")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}
