package leasemgr

import (
	"crypto/rand"
)

const (
	bitLength = 256
)

// generateOwnerToken creates a new unique owner token.
// The owner token is a random byte slice of length 256.
func generateOwnerToken() ([]byte, error) {
	randomBytes := make([]byte, bitLength)
	_, err := rand.Read(randomBytes)
	return randomBytes, err
}
