// Package auth persists the signed-in user, the token pair and the last
// notebook sync time.
package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/khanhkom/engz/internal/models"
	"github.com/khanhkom/engz/internal/storage"
)

// StorageKey is the area key of the auth value.
const StorageKey = "engz-auth"

// Store is the local authentication record. It satisfies api.TokenStore.
type Store struct {
	kv  *storage.Store[models.AuthState]
	now func() time.Time
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(kv *storage.Store[models.AuthState], opts ...Option) *Store {
	s := &Store{kv: kv, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates the auth store on area under StorageKey.
func Open(area storage.Area, opts ...Option) *Store {
	return New(storage.New(area, StorageKey, models.AuthState{}, storage.WithLiveUpdate()), opts...)
}

func (s *Store) Subscribe(fn func()) func() {
	return s.kv.Subscribe(fn)
}

func (s *Store) Close() {
	s.kv.Close()
}

func (s *Store) State(ctx context.Context) (models.AuthState, error) {
	return s.kv.Get(ctx)
}

func (s *Store) IsAuthenticated(ctx context.Context) (bool, error) {
	st, err := s.kv.Get(ctx)
	if err != nil {
		return false, err
	}
	return st.IsAuthenticated, nil
}

// expiresAt turns expiresIn seconds into an absolute epoch-ms expiry. When
// expiresIn is not positive the exp claim of the access token is used.
func (s *Store) expiresAt(accessToken string, expiresIn int64) *int64 {
	if expiresIn > 0 {
		ms := s.now().Add(time.Duration(expiresIn) * time.Second).UnixMilli()
		return &ms
	}
	if exp, ok := ExpiryFromToken(accessToken); ok {
		ms := exp.UnixMilli()
		return &ms
	}
	return nil
}

// Login stores the user and tokens, marks the state authenticated and
// clears lastSyncAt so the next sync pulls everything.
func (s *Store) Login(ctx context.Context, user models.User, accessToken, refreshToken string, expiresIn int64) error {
	return s.kv.Update(ctx, func(st models.AuthState) (models.AuthState, error) {
		st.User = &user
		st.AccessToken = accessToken
		st.RefreshToken = refreshToken
		st.TokenExpiresAt = s.expiresAt(accessToken, expiresIn)
		st.IsAuthenticated = true
		st.LastSyncAt = nil
		return st, nil
	})
}

// Logout resets the record, lastSyncAt included.
func (s *Store) Logout(ctx context.Context) error {
	return s.kv.Set(ctx, models.AuthState{})
}

// SetTokens replaces the token pair and expiry without touching the user.
func (s *Store) SetTokens(ctx context.Context, accessToken, refreshToken string, expiresIn int64) error {
	return s.kv.Update(ctx, func(st models.AuthState) (models.AuthState, error) {
		st.AccessToken = accessToken
		st.RefreshToken = refreshToken
		st.TokenExpiresAt = s.expiresAt(accessToken, expiresIn)
		return st, nil
	})
}

// UpdateUser merges upd into the cached user. Without a user it does nothing.
func (s *Store) UpdateUser(ctx context.Context, upd models.UserUpdate) error {
	return s.kv.Update(ctx, func(st models.AuthState) (models.AuthState, error) {
		if st.User == nil {
			return st, storage.NoChange()
		}
		u := *st.User
		if upd.Name != nil {
			u.Name = *upd.Name
		}
		if upd.Email != nil {
			u.Email = *upd.Email
		}
		if upd.PhotoURL != nil {
			u.PhotoURL = *upd.PhotoURL
		}
		if upd.Status != nil {
			u.Status = *upd.Status
		}
		st.User = &u
		return st, nil
	})
}

// SetLastSyncAt records the start time of the last successful pull.
func (s *Store) SetLastSyncAt(ctx context.Context, ts string) error {
	return s.kv.Update(ctx, func(st models.AuthState) (models.AuthState, error) {
		st.LastSyncAt = &ts
		return st, nil
	})
}

// LastSyncAt returns the recorded sync time; ok is false before the first sync.
func (s *Store) LastSyncAt(ctx context.Context) (string, bool, error) {
	st, err := s.kv.Get(ctx)
	if err != nil {
		return "", false, err
	}
	if st.LastSyncAt == nil {
		return "", false, nil
	}
	return *st.LastSyncAt, true, nil
}

// ClientState returns the token fields.
func (s *Store) ClientState(ctx context.Context) (models.ClientAuthState, error) {
	st, err := s.kv.Get(ctx)
	if err != nil {
		return models.ClientAuthState{}, err
	}
	return models.ClientAuthState{
		AccessToken:    st.AccessToken,
		RefreshToken:   st.RefreshToken,
		TokenExpiresAt: st.TokenExpiresAt,
	}, nil
}

// ExpiryFromToken reads the exp claim of a JWT without verifying it.
func ExpiryFromToken(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
