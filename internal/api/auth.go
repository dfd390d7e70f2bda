package api

import (
	"context"
	"net/http"

	"github.com/khanhkom/engz/internal/common"
)

// AuthAPI groups the user endpoints.
type AuthAPI struct {
	c *Client
}

func (c *Client) Auth() *AuthAPI {
	return &AuthAPI{c: c}
}

func (a *AuthAPI) SignUp(ctx context.Context, req SignUpRequest) (*Response[SignUpResponse], error) {
	var out Response[SignUpResponse]
	if err := a.c.Do(ctx, http.MethodPost, "/public/user/sign-up", req, &out, NoAuth()); err != nil {
		return nil, err
	}
	return &out, nil
}

type credentialLogin struct {
	LoginRequest
	From string `json:"from"`
}

// Login authenticates with email and password.
func (a *AuthAPI) Login(ctx context.Context, req LoginRequest) (*Response[LoginResponse], error) {
	var out Response[LoginResponse]
	body := credentialLogin{LoginRequest: req, From: "website"}
	if err := a.c.Do(ctx, http.MethodPost, "/public/user/login/credential", body, &out, NoAuth()); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh exchanges a refresh token for a new pair without storing it.
func (a *AuthAPI) Refresh(ctx context.Context, refreshToken string) (*Response[TokenPair], error) {
	var out Response[TokenPair]
	err := a.c.Do(ctx, http.MethodPost, refreshEndpoint, nil, &out,
		NoAuth(), SkipRefresh(),
		WithHeader(common.AuthorizationHeaderName, common.BearerPrefix+refreshToken))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AuthAPI) Profile(ctx context.Context) (*Response[User], error) {
	var out Response[User]
	if err := a.c.Do(ctx, http.MethodGet, "/shared/user/profile", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AuthAPI) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*Response[UpdateProfileResponse], error) {
	var out Response[UpdateProfileResponse]
	if err := a.c.Do(ctx, http.MethodPut, "/shared/user/profile/update", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AuthAPI) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	return a.c.Do(ctx, http.MethodPatch, "/shared/user/change-password", req, nil)
}

func (a *AuthAPI) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) error {
	return a.c.Do(ctx, http.MethodPost, "/public/user/password/forgot", req, nil, NoAuth())
}
