// Package common holds small helpers shared by engz packages: random byte
// generation for salts and nonces and the HTTP header names of the EngZ API.
package common

import (
	"crypto/rand"
	"encoding/hex"
)

// Header names understood by the EngZ API.
const (
	APIKeyHeaderName        = "x-api-key"
	AuthorizationHeaderName = "Authorization"
	BearerPrefix            = "Bearer "
)

// MakeRandHexString returns size random bytes encoded as hex, so the result
// is twice as long as size.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateRandByteArray returns size bytes from crypto/rand.
// It panics if the system random source fails.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// WipeByteArray zeroes b in place. It is used for passphrases once a key has
// been derived from them.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
