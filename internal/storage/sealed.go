package storage

import (
	"context"
	"fmt"

	"github.com/khanhkom/engz/internal/cryptox"
)

// SaltKey holds the per-area salt of a SealedArea.
const SaltKey = "__salt"

// SealedArea encrypts the values of selected keys before they reach the
// wrapped area. Other keys pass through unchanged.
type SealedArea struct {
	inner  Area
	key    []byte
	sealed map[string]struct{}
}

// NewSealedArea derives the encryption key from passphrase and the salt
// stored in inner, creating the salt on first use.
func NewSealedArea(ctx context.Context, inner Area, passphrase []byte, keys ...string) (*SealedArea, error) {
	salt, ok, err := inner.Get(ctx, SaltKey)
	if err != nil {
		return nil, fmt.Errorf("read salt: %w", err)
	}
	if !ok {
		salt = cryptox.NewSalt()
		if err := inner.Set(ctx, SaltKey, salt); err != nil {
			return nil, fmt.Errorf("store salt: %w", err)
		}
	}

	sealed := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		sealed[k] = struct{}{}
	}

	return &SealedArea{
		inner:  inner,
		key:    cryptox.DeriveKey(passphrase, salt),
		sealed: sealed,
	}, nil
}

func (a *SealedArea) isSealed(key string) bool {
	_, ok := a.sealed[key]
	return ok
}

func (a *SealedArea) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok, err := a.inner.Get(ctx, key)
	if err != nil || !ok || !a.isSealed(key) {
		return v, ok, err
	}

	plain, err := cryptox.Open(v, a.key)
	if err != nil {
		return nil, false, fmt.Errorf("open %s: %w", key, err)
	}
	return plain, true, nil
}

func (a *SealedArea) Set(ctx context.Context, key string, value []byte) error {
	if !a.isSealed(key) {
		return a.inner.Set(ctx, key, value)
	}

	sealed, err := cryptox.Seal(value, a.key)
	if err != nil {
		return fmt.Errorf("seal %s: %w", key, err)
	}
	return a.inner.Set(ctx, key, sealed)
}

func (a *SealedArea) Delete(ctx context.Context, key string) error {
	return a.inner.Delete(ctx, key)
}

// Watch delivers decrypted values. Values that fail to decrypt are dropped.
func (a *SealedArea) Watch(key string, fn func(value []byte)) func() {
	if !a.isSealed(key) {
		return a.inner.Watch(key, fn)
	}
	return a.inner.Watch(key, func(v []byte) {
		if v == nil {
			fn(nil)
			return
		}
		plain, err := cryptox.Open(v, a.key)
		if err != nil {
			return
		}
		fn(plain)
	})
}

func (a *SealedArea) Close() error {
	return a.inner.Close()
}
