package models

// User is the signed-in account as cached locally.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	PhotoURL string `json:"photoUrl,omitempty"`
	Status   string `json:"status,omitempty"`
}

// UserUpdate merges into the cached user; nil fields are kept.
type UserUpdate struct {
	Name     *string
	Email    *string
	PhotoURL *string
	Status   *string
}

// AuthState is the persisted authentication record. Empty token strings
// mean "no token"; TokenExpiresAt is epoch milliseconds.
type AuthState struct {
	User            *User   `json:"user"`
	AccessToken     string  `json:"accessToken,omitempty"`
	RefreshToken    string  `json:"refreshToken,omitempty"`
	TokenExpiresAt  *int64  `json:"tokenExpiresAt"`
	IsAuthenticated bool    `json:"isAuthenticated"`
	LastSyncAt      *string `json:"lastSyncAt"`
}

// ClientAuthState is the token view handed to the API client.
type ClientAuthState struct {
	AccessToken    string
	RefreshToken   string
	TokenExpiresAt *int64
}
