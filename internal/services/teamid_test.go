package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateTeamID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateTeamID()
		assert.Len(t, id, 8)
		for _, c := range id {
			assert.True(t, strings.ContainsRune(teamIDChars, c), "unexpected character %q in %s", c, id)
		}
		seen[id] = true
	}
	assert.Greater(t, len(seen), 95, "ids should be effectively unique")
}

func TestGenerateTeamIDUniformity(t *testing.T) {
	// The rejection threshold must be an exact multiple of the alphabet size,
	// otherwise the modulo reduction over-represents the leading characters.
	assert.Zero(t, teamIDMaxByte%len(teamIDChars))

	// 40000 draws, ~1111 expected per character. The bounds are many standard
	// deviations wide, so a false failure is effectively impossible.
	counts := make(map[rune]int)
	for i := 0; i < 5000; i++ {
		for _, c := range GenerateTeamID() {
			counts[c]++
		}
	}
	assert.Len(t, counts, len(teamIDChars), "every character should appear")
	for c, n := range counts {
		assert.Greater(t, n, 850, "character %q under-represented", c)
		assert.Less(t, n, 1400, "character %q over-represented", c)
	}
}
