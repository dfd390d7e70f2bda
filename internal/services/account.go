package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/khanhkom/engz/internal/api"
	"github.com/khanhkom/engz/internal/auth"
	"github.com/khanhkom/engz/internal/logging"
	"github.com/khanhkom/engz/internal/models"
)

// AuthRemote is the part of the user API the account service uses.
// *api.AuthAPI implements it.
type AuthRemote interface {
	SignUp(ctx context.Context, req api.SignUpRequest) (*api.Response[api.SignUpResponse], error)
	Login(ctx context.Context, req api.LoginRequest) (*api.Response[api.LoginResponse], error)
	Profile(ctx context.Context) (*api.Response[api.User], error)
	UpdateProfile(ctx context.Context, req api.UpdateProfileRequest) (*api.Response[api.UpdateProfileResponse], error)
	ChangePassword(ctx context.Context, req api.ChangePasswordRequest) error
	ForgotPassword(ctx context.Context, req api.ForgotPasswordRequest) error
}

// AccountService signs the user in and out and keeps the cached profile
// current.
type AccountService struct {
	remote AuthRemote
	auth   *auth.Store
	log    logging.Logger
}

func NewAccountService(remote AuthRemote, authStore *auth.Store, log logging.Logger) *AccountService {
	if log == nil {
		log = logging.NewNop()
	}
	return &AccountService{remote: remote, auth: authStore, log: log.With("component", "account")}
}

// Login authenticates with credentials. The tokens are stored before the
// profile request so it can be authenticated; the state only becomes
// authenticated once the profile is known.
func (a *AccountService) Login(ctx context.Context, email, password string) (*models.User, error) {
	resp, err := a.remote.Login(ctx, api.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	tok := resp.Data.Tokens

	if err := a.auth.SetTokens(ctx, tok.AccessToken, tok.RefreshToken, tok.ExpiresIn); err != nil {
		return nil, fmt.Errorf("store tokens: %w", err)
	}

	profile, err := a.remote.Profile(ctx)
	if err != nil {
		if lerr := a.auth.Logout(ctx); lerr != nil {
			a.log.Error(ctx, "failed to clear auth state", "error", lerr)
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	user := toLocalUser(profile.Data)
	if err := a.auth.Login(ctx, user, tok.AccessToken, tok.RefreshToken, tok.ExpiresIn); err != nil {
		return nil, fmt.Errorf("store login: %w", err)
	}
	a.log.Info(ctx, "signed in", "user", user.ID)
	return &user, nil
}

// SignUp creates the account and signs in with it.
func (a *AccountService) SignUp(ctx context.Context, req api.SignUpRequest) (*models.User, error) {
	if _, err := a.remote.SignUp(ctx, req); err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	return a.Login(ctx, req.Email, req.Password)
}

func (a *AccountService) Logout(ctx context.Context) error {
	return a.auth.Logout(ctx)
}

// RefreshProfile reloads the profile into the auth store. A 401 means the
// stored session is no longer valid and signs the user out.
func (a *AccountService) RefreshProfile(ctx context.Context) (*models.User, error) {
	resp, err := a.remote.Profile(ctx)
	if err != nil {
		if api.IsUnauthorized(err) {
			a.log.Warn(ctx, "session rejected, signing out", "error", err)
			if lerr := a.auth.Logout(ctx); lerr != nil {
				a.log.Error(ctx, "failed to clear auth state", "error", lerr)
			}
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	user := toLocalUser(resp.Data)
	if err := a.auth.UpdateUser(ctx, models.UserUpdate{
		Name:     &user.Name,
		Email:    &user.Email,
		PhotoURL: &user.PhotoURL,
		Status:   &user.Status,
	}); err != nil {
		return nil, fmt.Errorf("store profile: %w", err)
	}
	return &user, nil
}

func (a *AccountService) UpdateProfile(ctx context.Context, req api.UpdateProfileRequest) (*models.User, error) {
	if _, err := a.remote.UpdateProfile(ctx, req); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return a.RefreshProfile(ctx)
}

func (a *AccountService) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if err := a.remote.ChangePassword(ctx, api.ChangePasswordRequest{OldPassword: oldPassword, NewPassword: newPassword}); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

func (a *AccountService) ForgotPassword(ctx context.Context, email string) error {
	if err := a.remote.ForgotPassword(ctx, api.ForgotPasswordRequest{Email: strings.TrimSpace(email)}); err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	return nil
}

func toLocalUser(u api.User) models.User {
	user := models.User{ID: u.ID, Name: u.Name, Email: u.Email, Status: u.Status}
	if u.Photo != nil {
		user.PhotoURL = u.Photo.CompletedURL
	}
	return user
}
