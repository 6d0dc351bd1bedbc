package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsSnapshotFresh(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	fresh := &SessionSnapshot{UID: "u-1", Timestamp: now.Add(-time.Hour).UnixMilli()}
	assert.True(t, IsSnapshotFresh(fresh, now))

	stale := &SessionSnapshot{UID: "u-1", Timestamp: now.Add(-25 * time.Hour).UnixMilli()}
	assert.False(t, IsSnapshotFresh(stale, now))

	future := &SessionSnapshot{UID: "u-1", Timestamp: now.Add(time.Hour).UnixMilli()}
	assert.False(t, IsSnapshotFresh(future, now), "clock skew reads as not fresh")

	assert.False(t, IsSnapshotFresh(nil, now))
	assert.False(t, IsSnapshotFresh(&SessionSnapshot{UID: "u-1"}, now), "zero timestamp")
}
