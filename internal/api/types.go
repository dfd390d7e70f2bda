package api

import (
	"time"
)

// Metadata is attached to every response.
type Metadata struct {
	Language      string `json:"language"`
	Timestamp     int64  `json:"timestamp"`
	Timezone      string `json:"timezone"`
	Path          string `json:"path"`
	Version       string `json:"version"`
	RepoVersion   string `json:"repoVersion"`
	RequestID     string `json:"requestId"`
	CorrelationID string `json:"correlationId"`
}

// Response is the envelope of single-item responses.
type Response[T any] struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Metadata   Metadata `json:"metadata"`
	Data       T        `json:"data"`
}

// PaginatedMetadata describes an offset page.
type PaginatedMetadata struct {
	Metadata
	Type             string   `json:"type"`
	Page             int      `json:"page"`
	PerPage          int      `json:"perPage"`
	TotalPage        int      `json:"totalPage"`
	Count            int      `json:"count"`
	HasNext          bool     `json:"hasNext"`
	HasPrevious      bool     `json:"hasPrevious"`
	NextPage         *int     `json:"nextPage"`
	OrderBy          string   `json:"orderBy"`
	OrderDirection   string   `json:"orderDirection"`
	AvailableSearch  []string `json:"availableSearch"`
	AvailableOrderBy []string `json:"availableOrderBy"`
}

// PaginatedResponse is the envelope of list responses.
type PaginatedResponse[T any] struct {
	StatusCode int               `json:"statusCode"`
	Message    string            `json:"message"`
	Metadata   PaginatedMetadata `json:"metadata"`
	Data       []T               `json:"data"`
}

// Auth

type TokenPair struct {
	TokenType    string `json:"tokenType"`
	RoleType     string `json:"roleType"`
	ExpiresIn    int64  `json:"expiresIn"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type UserPhoto struct {
	Path         string `json:"path"`
	Filename     string `json:"filename"`
	CompletedURL string `json:"completedUrl"`
	BaseURL      string `json:"baseUrl"`
}

type UserRole struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// User is the profile returned by the API. Only the fields the client
// uses are decoded.
type User struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	IsVerified  bool       `json:"isVerified"`
	SignUpWith  string     `json:"signUpWith"`
	Status      string     `json:"status"`
	Photo       *UserPhoto `json:"photo"`
	Role        *UserRole  `json:"role"`
	LastLoginAt string     `json:"lastLoginAt,omitempty"`
	CreatedAt   string     `json:"createdAt,omitempty"`
	UpdatedAt   string     `json:"updatedAt,omitempty"`
}

type SignUpRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	MobileNumber string `json:"mobileNumber,omitempty"`
}

type SignUpResponse struct {
	ID string `json:"id"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	IsTwoFactorEnable bool      `json:"isTwoFactorEnable"`
	Tokens            TokenPair `json:"tokens"`
}

type UpdateProfileRequest struct {
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	MobileNumber string `json:"mobileNumber,omitempty"`
}

type UpdateProfileResponse struct {
	ID string `json:"id"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// Notebook

type NotebookEntry struct {
	ID          string     `json:"id"`
	Word        string     `json:"word"`
	Translation string     `json:"translation"`
	Context     string     `json:"context,omitempty"`
	Source      string     `json:"source,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"deletedAt"`
}

type CreateNotebookEntryRequest struct {
	Word        string `json:"word"`
	Translation string `json:"translation"`
	Context     string `json:"context,omitempty"`
	Source      string `json:"source,omitempty"`
	Status      string `json:"status,omitempty"`
}

type UpdateNotebookEntryRequest struct {
	Translation string `json:"translation,omitempty"`
	Context     string `json:"context,omitempty"`
	Source      string `json:"source,omitempty"`
	Status      string `json:"status,omitempty"`
}

type BulkCreateNotebookRequest struct {
	Entries []CreateNotebookEntryRequest `json:"entries"`
}

// Bulk entry outcomes.
const (
	BulkStatusCreated = "created"
	BulkStatusSkipped = "skipped"
)

type BulkEntryResult struct {
	ID     string `json:"id"`
	Word   string `json:"word"`
	Status string `json:"status"`
}

type BulkCreateNotebookResponse struct {
	Created int               `json:"created"`
	Skipped int               `json:"skipped"`
	Entries []BulkEntryResult `json:"entries"`
}

// ListNotebookParams are the query parameters of the notebook list.
// Zero values are omitted.
type ListNotebookParams struct {
	Page           int
	PerPage        int
	Search         string
	OrderBy        string
	OrderDirection string
	Status         string
	Since          string
	IncludeDeleted bool
}

type DeleteNotebookEntryResponse struct {
	ID        string    `json:"id"`
	DeletedAt time.Time `json:"deletedAt"`
}

type RestoreNotebookEntryResponse struct {
	ID   string `json:"id"`
	Word string `json:"word"`
}

// History

type HistoryEntry struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"createdAt"`
}

type LogHistoryRequest struct {
	Query    string `json:"query"`
	Provider string `json:"provider"`
}

type ClearHistoryResponse struct {
	DeletedCount int `json:"deletedCount"`
}

type DeleteHistoryResponse struct {
	ID string `json:"id"`
}

type HistoryListParams struct {
	Page           int
	PerPage        int
	OrderBy        string
	OrderDirection string
	Provider       string
	StartDate      string
	EndDate        string
}
