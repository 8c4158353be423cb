// Package cryptox generates API keys and derives the keyed hashes the
// server stores in their place.
package cryptox

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// APIKeyPrefix marks tokens issued by this server.
const APIKeyPrefix = "peek_"

// GenerateAPIKey returns a new random bearer token.
func GenerateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return APIKeyPrefix + hex.EncodeToString(b), nil
}

// HashAPIKey returns the hex keyed BLAKE2b-256 digest of token. The secret
// is first reduced to 32 bytes so any length is accepted as a key.
func HashAPIKey(secret, token string) string {
	key := blake2b.Sum256([]byte(secret))
	h, err := blake2b.New256(key[:])
	if err != nil {
		// a 32 byte key is always valid
		panic(err)
	}
	h.Write([]byte(token))
	return hex.EncodeToString(h.Sum(nil))
}

// Wipe zeroes b so secrets read from a terminal do not linger in memory.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
