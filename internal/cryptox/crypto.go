// Package cryptox seals small values at rest: argon2id key derivation from a
// passphrase and AES-GCM with the nonce stored in front of the ciphertext.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"

	"github.com/khanhkom/engz/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	KeySize  = 32
	SaltSize = 16
)

// ErrMalformed is returned by Open for input shorter than a nonce.
var ErrMalformed = errors.New("malformed sealed value")

// DeriveKey stretches passphrase with argon2id into a KeySize key.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, KeySize)
}

// NewSalt returns SaltSize random bytes.
func NewSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal encrypts plaintext and returns nonce||ciphertext.
func Seal(plaintext, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := common.GenerateRandByteArray(aesgcm.NonceSize())
	return aesgcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Open reverses Seal.
func Open(sealed, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	n := aesgcm.NonceSize()
	if len(sealed) < n {
		return nil, ErrMalformed
	}
	return aesgcm.Open(nil, sealed[:n], sealed[n:], nil)
}
