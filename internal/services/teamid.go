package services

import "crypto/rand"

const (
	teamIDChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	teamIDLength = 8

	// Largest multiple of len(teamIDChars) that fits in a byte. Bytes at or
	// above it are rejected so the modulo reduction stays uniform.
	teamIDMaxByte = 252
)

// GenerateTeamID returns a random 8-character [A-Z0-9] team id, drawn
// uniformly via rejection sampling.
// Uniqueness is not checked against existing ids; with 36^8 possible values a
// collision is treated as acceptably rare.
func GenerateTeamID() string {
	id := make([]byte, teamIDLength)
	buf := make([]byte, 2*teamIDLength)
	filled := 0
	for filled < teamIDLength {
		if _, err := rand.Read(buf); err != nil {
			// crypto/rand never fails on supported platforms; if it somehow
			// does, the zeroed buffer still yields a valid (constant) id.
			_ = err
		}
		for _, b := range buf {
			if b >= teamIDMaxByte {
				continue
			}
			id[filled] = teamIDChars[int(b)%len(teamIDChars)]
			filled++
			if filled == teamIDLength {
				break
			}
		}
	}
	return string(id)
}
