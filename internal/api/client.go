// Package api is the HTTP client of the EngZ REST API.
//
// # Overview
//
// Client sends JSON requests to <base URL>/api/v1, adds the x-api-key header
// and, for authenticated requests, a Bearer access token taken from a
// TokenStore. Before an authenticated request the access token is refreshed
// when it expires within five minutes; concurrent callers share one refresh.
//
// # Errors
//
// Non-2xx responses and transport failures are returned as *Error. Use the
// Is* predicates (IsNotFound, IsConflict, ...) to classify them. A 204
// response succeeds and leaves the output value untouched.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/khanhkom/engz/internal/common"
	"github.com/khanhkom/engz/internal/logging"
	"github.com/khanhkom/engz/internal/models"
	"github.com/segmentio/encoding/json"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultBaseURL = "https://api.engz.io.vn"
	Prefix         = "/api/v1"

	refreshEndpoint = "/shared/user/refresh"

	// ExpiryLeeway is how long before its expiry a token is refreshed.
	ExpiryLeeway = 5 * time.Minute

	defaultTimeout = 30 * time.Second
)

// TokenStore gives the client access to the persisted token pair.
type TokenStore interface {
	ClientState(ctx context.Context) (models.ClientAuthState, error)
	SetTokens(ctx context.Context, accessToken, refreshToken string, expiresIn int64) error
	Logout(ctx context.Context) error
}

// Client talks to the EngZ API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	tokens  TokenStore
	log     logging.Logger
	now     func() time.Time

	refreshGroup singleflight.Group
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a client reading and writing tokens through tokens.
func New(tokens TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		tokens:  tokens,
		log:     logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type requestConfig struct {
	requiresAuth bool
	skipRefresh  bool
	header       http.Header
}

// RequestOption adjusts a single request.
type RequestOption func(*requestConfig)

// NoAuth sends the request without an access token.
func NoAuth() RequestOption {
	return func(r *requestConfig) { r.requiresAuth = false }
}

// SkipRefresh disables the pre-request token refresh.
func SkipRefresh() RequestOption {
	return func(r *requestConfig) { r.skipRefresh = true }
}

// WithHeader sets a header, overriding the defaults.
func WithHeader(key, value string) RequestOption {
	return func(r *requestConfig) { r.header.Set(key, value) }
}

// Do sends a request to endpoint (relative to the API prefix). body, when
// not nil, is sent as JSON; out, when not nil, receives the decoded response.
func (c *Client) Do(ctx context.Context, method, endpoint string, body, out any, opts ...RequestOption) error {
	cfg := requestConfig{requiresAuth: true, header: make(http.Header)}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.requiresAuth && !cfg.skipRefresh {
		if !c.RefreshIfNeeded(ctx) {
			st, err := c.tokens.ClientState(ctx)
			if err != nil {
				return fmt.Errorf("read auth state: %w", err)
			}
			if st.AccessToken == "" {
				return newError(http.StatusUnauthorized, "Authentication required", nil, ErrAuthRequired)
			}
		}
	}

	req, err := c.newRequest(ctx, method, endpoint, body, cfg)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return newError(0, err.Error(), nil, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return newError(resp.StatusCode, fmt.Sprintf("invalid response body: %v", err), nil, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body any, cfg requestConfig) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+Prefix+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set(common.APIKeyHeaderName, c.apiKey)
	}
	if cfg.requiresAuth {
		st, err := c.tokens.ClientState(ctx)
		if err != nil {
			return nil, fmt.Errorf("read auth state: %w", err)
		}
		if st.AccessToken != "" {
			req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+st.AccessToken)
		}
	}
	for k, v := range cfg.header {
		req.Header[k] = v
	}
	return req, nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)

	var payload ErrorResponse
	if err := json.Unmarshal(raw, &payload); err != nil || len(raw) == 0 {
		return newError(resp.StatusCode, fmt.Sprintf("Request failed with status %d", resp.StatusCode), nil, nil)
	}

	msg := payload.Message
	if msg == "" {
		msg = fmt.Sprintf("Request failed with status %d", resp.StatusCode)
	}
	return newError(resp.StatusCode, msg, &payload, nil)
}

// tokenExpired reports whether the token is within ExpiryLeeway of its
// expiry. An unknown expiry counts as expired.
func (c *Client) tokenExpired(expiresAt *int64) bool {
	if expiresAt == nil {
		return true
	}
	return c.now().UnixMilli() >= *expiresAt-ExpiryLeeway.Milliseconds()
}

// RefreshIfNeeded makes sure a usable access token is stored. It returns
// false when there is no refresh token or the refresh failed; a failed
// refresh logs the user out. Concurrent calls share one refresh request.
func (c *Client) RefreshIfNeeded(ctx context.Context) bool {
	st, err := c.tokens.ClientState(ctx)
	if err != nil {
		c.log.Warn(ctx, "cannot read auth state", "error", err)
		return false
	}
	if st.RefreshToken == "" {
		return false
	}
	if !c.tokenExpired(st.TokenExpiresAt) {
		return true
	}

	ch := c.refreshGroup.DoChan(st.RefreshToken, func() (any, error) {
		return c.refresh(context.WithoutCancel(ctx), st.RefreshToken), nil
	})

	select {
	case res := <-ch:
		ok, _ := res.Val.(bool)
		return ok
	case <-ctx.Done():
		return false
	}
}

func (c *Client) refresh(ctx context.Context, refreshToken string) bool {
	var resp Response[TokenPair]
	err := c.Do(ctx, http.MethodPost, refreshEndpoint, nil, &resp,
		NoAuth(), SkipRefresh(),
		WithHeader(common.AuthorizationHeaderName, common.BearerPrefix+refreshToken))
	if err == nil && resp.Data.AccessToken == "" {
		err = errors.New("refresh response without access token")
	}
	if err != nil {
		c.log.Warn(ctx, "token refresh failed, signing out", "error", err)
		if err := c.tokens.Logout(ctx); err != nil {
			c.log.Error(ctx, "failed to clear auth state", "error", err)
		}
		return false
	}

	if err := c.tokens.SetTokens(ctx, resp.Data.AccessToken, resp.Data.RefreshToken, resp.Data.ExpiresIn); err != nil {
		c.log.Error(ctx, "failed to store refreshed tokens", "error", err)
		return false
	}
	c.log.Debug(ctx, "access token refreshed")
	return true
}
