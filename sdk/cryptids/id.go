// Package cryptids generates short random identifiers for traces and sessions.
package cryptids

import (
	"crypto/rand"
	"fmt"
)

var (
	IDAlphabet = "bcdfghjklmnpqrstvwxyzBCDFGHJKLMNPQRSTVWXYZ0123456789"
	IDLength   = 18

	// SessionIDLength is long enough that guessing a live session is infeasible.
	SessionIDLength = 32
)

// GenerateID creates a random id from the default alphabet and length.
func GenerateID() (string, error) {
	return generateID(IDAlphabet, IDLength)
}

// GenerateSessionID creates a random id for a user session row.
func GenerateSessionID() (string, error) {
	return generateID(IDAlphabet, SessionIDLength)
}

// GenerateCustomID creates a random id from alphabet with the given size.
func GenerateCustomID(alphabet string, size int) (string, error) {
	return generateID(alphabet, size)
}

// generateID draws bytes from crypto/rand, masks them to the next power of two
// above the alphabet size and rejects out-of-range values, so every symbol is
// equally likely.
func generateID(alphabet string, size int) (string, error) {
	if len(alphabet) < 2 {
		return "", fmt.Errorf("alphabet must contain at least 2 characters")
	}
	if len(alphabet) > 256 {
		return "", fmt.Errorf("alphabet must contain at most 256 characters")
	}
	if size < 1 {
		return "", fmt.Errorf("size must be at least 1")
	}

	mask := 1
	for mask < len(alphabet)-1 {
		mask = (mask << 1) | 1
	}

	step := size + size/2
	id := make([]byte, 0, size)
	buf := make([]byte, step)

	for len(id) < size {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			idx := int(b) & mask
			if idx >= len(alphabet) {
				continue
			}
			id = append(id, alphabet[idx])
			if len(id) == size {
				break
			}
		}
	}

	return string(id), nil
}
