// Package apitest runs an in-memory EngZ API for tests: users, JWT token
// pairs, the notebook and the lookup history, plus call counting and fault
// injection per route.
package apitest

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/khanhkom/engz/internal/api"
	"github.com/khanhkom/engz/internal/common"
	"github.com/segmentio/encoding/json"
)

// Route patterns, usable with Fail and Calls.
const (
	RouteSignUp         = "POST /api/v1/public/user/sign-up"
	RouteLogin          = "POST /api/v1/public/user/login/credential"
	RouteRefresh        = "POST /api/v1/shared/user/refresh"
	RouteProfile        = "GET /api/v1/shared/user/profile"
	RouteUpdateProfile  = "PUT /api/v1/shared/user/profile/update"
	RouteChangePassword = "PATCH /api/v1/shared/user/change-password"
	RouteForgotPassword = "POST /api/v1/public/user/password/forgot"

	RouteNotebookList    = "GET /api/v1/shared/notebook"
	RouteNotebookGet     = "GET /api/v1/shared/notebook/{id}"
	RouteNotebookCreate  = "POST /api/v1/shared/notebook"
	RouteNotebookBulk    = "POST /api/v1/shared/notebook/bulk"
	RouteNotebookUpdate  = "PATCH /api/v1/shared/notebook/{id}"
	RouteNotebookDelete  = "DELETE /api/v1/shared/notebook/{id}"
	RouteNotebookRestore = "POST /api/v1/shared/notebook/{id}/restore"

	RouteHistoryList   = "GET /api/v1/history/list"
	RouteHistoryCreate = "POST /api/v1/history/create"
	RouteHistoryClear  = "DELETE /api/v1/history"
	RouteHistoryDelete = "DELETE /api/v1/history/delete/{id}"
)

// DefaultAccessTTL is the lifetime of issued access tokens.
const DefaultAccessTTL = 15 * time.Minute

type account struct {
	api.User
	password string
}

type fault struct {
	status  int
	message string
}

// Server is a fake EngZ API.
type Server struct {
	*httptest.Server

	// APIKey, when set, must be sent in the x-api-key header.
	APIKey string
	// AccessTTL is the lifetime of issued access tokens.
	AccessTTL time.Duration
	// OnRefresh, when set, runs before a refresh request is answered.
	OnRefresh func()

	secret []byte

	mu            sync.Mutex
	now           func() time.Time
	accounts      map[string]*account // by email
	refreshTokens map[string]string   // token -> user id
	entries       []*entry
	history       []*historyEntry
	calls         map[string]int
	faults        map[string]fault
}

type entry struct {
	api.NotebookEntry
	userID string
}

type historyEntry struct {
	api.HistoryEntry
	userID string
}

// NewServer starts a fake API and stops it when the test ends.
func NewServer(t interface{ Cleanup(func()) }) *Server {
	s := &Server{
		AccessTTL:     DefaultAccessTTL,
		secret:        []byte(uuid.NewString()),
		now:           time.Now,
		accounts:      make(map[string]*account),
		refreshTokens: make(map[string]string),
		calls:         make(map[string]int),
		faults:        make(map[string]fault),
	}

	mux := http.NewServeMux()
	s.route(mux, RouteSignUp, false, s.signUp)
	s.route(mux, RouteLogin, false, s.login)
	s.route(mux, RouteRefresh, false, s.refresh)
	s.route(mux, RouteProfile, true, s.profile)
	s.route(mux, RouteUpdateProfile, true, s.updateProfile)
	s.route(mux, RouteChangePassword, true, s.changePassword)
	s.route(mux, RouteForgotPassword, false, s.forgotPassword)
	s.route(mux, RouteNotebookList, true, s.listEntries)
	s.route(mux, RouteNotebookGet, true, s.getEntry)
	s.route(mux, RouteNotebookCreate, true, s.createEntry)
	s.route(mux, RouteNotebookBulk, true, s.bulkCreate)
	s.route(mux, RouteNotebookUpdate, true, s.updateEntry)
	s.route(mux, RouteNotebookDelete, true, s.deleteEntry)
	s.route(mux, RouteNotebookRestore, true, s.restoreEntry)
	s.route(mux, RouteHistoryList, true, s.listHistory)
	s.route(mux, RouteHistoryCreate, true, s.logHistory)
	s.route(mux, RouteHistoryClear, true, s.clearHistory)
	s.route(mux, RouteHistoryDelete, true, s.deleteHistory)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// SetClock replaces the server clock used for timestamps and token expiry.
func (s *Server) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Fail makes route answer with status and message until cleared with
// status 0.
func (s *Server) Fail(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.faults, route)
		return
	}
	s.faults[route] = fault{status: status, message: message}
}

// Calls returns how many requests reached route.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// AddUser registers an account and returns its id.
func (s *Server) AddUser(email, password, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(email, password, name)
}

func (s *Server) addUserLocked(email, password, name string) string {
	id := uuid.NewString()
	s.accounts[strings.ToLower(email)] = &account{
		User:     api.User{ID: id, Name: name, Username: strings.Split(email, "@")[0], Email: email, Status: "active"},
		password: password,
	}
	return id
}

// IssueTokens mints a token pair for userID as a login would.
func (s *Server) IssueTokens(userID string) (api.TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(userID)
}

func (s *Server) issueLocked(userID string) (api.TokenPair, error) {
	access, err := s.token(userID, s.AccessTTL)
	if err != nil {
		return api.TokenPair{}, err
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return api.TokenPair{}, err
	}
	s.refreshTokens[refresh] = userID

	return api.TokenPair{
		TokenType:    "Bearer",
		RoleType:     "user",
		ExpiresIn:    int64(s.AccessTTL / time.Second),
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (s *Server) token(userID string, ttl time.Duration) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		ID:        uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(s.now().Add(ttl)),
	})
	return tok.SignedString(s.secret)
}

func (s *Server) userFromToken(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}

// PutEntry stores an entry for userID as if another device had created it.
// Missing id and timestamps are filled in.
func (s *Server) PutEntry(userID string, e api.NotebookEntry) api.NotebookEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}
	if e.Status == "" {
		e.Status = "new"
	}
	if i := s.indexLocked(userID, e.ID); i >= 0 {
		s.entries[i].NotebookEntry = e
		return e
	}
	s.entries = append(s.entries, &entry{NotebookEntry: e, userID: userID})
	return e
}

// Entry returns an entry by id.
func (s *Server) Entry(id string) (api.NotebookEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e.NotebookEntry, true
		}
	}
	return api.NotebookEntry{}, false
}

// Entries returns every entry of userID, deleted ones included.
func (s *Server) Entries(userID string) []api.NotebookEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []api.NotebookEntry
	for _, e := range s.entries {
		if e.userID == userID {
			out = append(out, e.NotebookEntry)
		}
	}
	return out
}

// HistoryQueries returns the logged lookup queries of userID, oldest first.
func (s *Server) HistoryQueries(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, h := range s.history {
		if h.userID == userID {
			out = append(out, h.Query)
		}
	}
	return out
}

type handlerFunc func(w http.ResponseWriter, r *http.Request, userID string)

func (s *Server) route(mux *http.ServeMux, pattern string, needsAuth bool, h handlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[pattern]++
		f, failing := s.faults[pattern]
		s.mu.Unlock()

		if s.APIKey != "" && r.Header.Get(common.APIKeyHeaderName) != s.APIKey {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		if failing {
			writeError(w, f.status, f.message)
			return
		}

		var userID string
		if needsAuth {
			tok, ok := bearer(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "missing access token")
				return
			}
			s.mu.Lock()
			id, err := s.userFromToken(tok)
			s.mu.Unlock()
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid access token")
				return
			}
			userID = id
		}
		h(w, r, userID)
	})
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get(common.AuthorizationHeaderName)
	if !strings.HasPrefix(h, common.BearerPrefix) {
		return "", false
	}
	return strings.TrimPrefix(h, common.BearerPrefix), true
}

func writeJSON[T any](w http.ResponseWriter, status int, data T) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.Response[T]{
		StatusCode: status,
		Message:    http.StatusText(status),
		Data:       data,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{
		StatusCode: status,
		Message:    message,
		Error:      http.StatusText(status),
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return false
	}
	return true
}

// auth handlers

func (s *Server) signUp(w http.ResponseWriter, r *http.Request, _ string) {
	var req api.SignUpRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Email == "" || len(req.Password) < 6 {
		writeError(w, http.StatusUnprocessableEntity, "email and a password of at least 6 characters are required")
		return
	}

	s.mu.Lock()
	if _, exists := s.accounts[strings.ToLower(req.Email)]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "email already registered")
		return
	}
	id := s.addUserLocked(req.Email, req.Password, strings.TrimSpace(req.FirstName+" "+req.LastName))
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, api.SignUpResponse{ID: id})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request, _ string) {
	var req struct {
		api.LoginRequest
		From string `json:"from"`
	}
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[strings.ToLower(req.Email)]
	if !ok || acc.password != req.Password {
		s.mu.Unlock()
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	pair, err := s.issueLocked(acc.ID)
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, api.LoginResponse{Tokens: pair})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request, _ string) {
	if s.OnRefresh != nil {
		s.OnRefresh()
	}

	tok, ok := bearer(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing refresh token")
		return
	}

	s.mu.Lock()
	userID, known := s.refreshTokens[tok]
	if !known {
		s.mu.Unlock()
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	pair, err := s.issueLocked(userID)
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) accountByID(id string) *account {
	for _, acc := range s.accounts {
		if acc.ID == id {
			return acc
		}
	}
	return nil
}

func (s *Server) profile(w http.ResponseWriter, _ *http.Request, userID string) {
	s.mu.Lock()
	acc := s.accountByID(userID)
	s.mu.Unlock()
	if acc == nil {
		writeError(w, http.StatusUnauthorized, "unknown user")
		return
	}
	writeJSON(w, http.StatusOK, acc.User)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request, userID string) {
	var req api.UpdateProfileRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.accountByID(userID)
	if acc == nil {
		writeError(w, http.StatusUnauthorized, "unknown user")
		return
	}
	if name := strings.TrimSpace(req.FirstName + " " + req.LastName); name != "" {
		acc.Name = name
	}
	writeJSON(w, http.StatusOK, api.UpdateProfileResponse{ID: userID})
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request, userID string) {
	var req api.ChangePasswordRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.accountByID(userID)
	if acc == nil || acc.password != req.OldPassword {
		writeError(w, http.StatusBadRequest, "old password does not match")
		return
	}
	acc.password = req.NewPassword
	writeJSON[any](w, http.StatusOK, nil)
}

func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request, _ string) {
	var req api.ForgotPasswordRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON[any](w, http.StatusOK, nil)
}

// notebook handlers

func (s *Server) indexLocked(userID, id string) int {
	for i, e := range s.entries {
		if e.userID == userID && e.ID == id {
			return i
		}
	}
	return -1
}

func (s *Server) activeByWordLocked(userID, word string) *entry {
	for _, e := range s.entries {
		if e.userID == userID && e.DeletedAt == nil && strings.EqualFold(e.Word, word) {
			return e
		}
	}
	return nil
}

func (s *Server) createLocked(userID string, req api.CreateNotebookEntryRequest) api.NotebookEntry {
	now := s.now().UTC()
	status := req.Status
	if status == "" {
		status = "new"
	}
	e := &entry{
		NotebookEntry: api.NotebookEntry{
			ID:          uuid.NewString(),
			Word:        req.Word,
			Translation: req.Translation,
			Context:     req.Context,
			Source:      req.Source,
			Status:      status,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		userID: userID,
	}
	s.entries = append(s.entries, e)
	return e.NotebookEntry
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request, userID string) {
	q := r.URL.Query()
	page := atoiDefault(q.Get("page"), 1)
	perPage := atoiDefault(q.Get("perPage"), 20)
	includeDeleted := q.Get("includeDeleted") == "true"
	search := strings.ToLower(q.Get("search"))
	status := q.Get("status")

	var since time.Time
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since")
			return
		}
		since = t
	}

	s.mu.Lock()
	var matched []api.NotebookEntry
	for _, e := range s.entries {
		switch {
		case e.userID != userID:
		case e.DeletedAt != nil && !includeDeleted:
		case !since.IsZero() && e.UpdatedAt.Before(since):
		case search != "" && !strings.Contains(strings.ToLower(e.Word), search):
		case status != "" && e.Status != status:
		default:
			matched = append(matched, e.NotebookEntry)
		}
	}
	s.mu.Unlock()

	slices.SortStableFunc(matched, func(a, b api.NotebookEntry) int {
		return a.UpdatedAt.Compare(b.UpdatedAt)
	})

	total := len(matched)
	start := min((page-1)*perPage, total)
	end := min(start+perPage, total)
	totalPage := (total + perPage - 1) / perPage

	resp := api.PaginatedResponse[api.NotebookEntry]{
		StatusCode: http.StatusOK,
		Message:    "OK",
		Data:       matched[start:end],
		Metadata: api.PaginatedMetadata{
			Type:           "offset",
			Page:           page,
			PerPage:        perPage,
			TotalPage:      totalPage,
			Count:          total,
			HasNext:        end < total,
			HasPrevious:    page > 1,
			OrderBy:        "updatedAt",
			OrderDirection: "asc",
		},
	}
	if resp.Metadata.HasNext {
		next := page + 1
		resp.Metadata.NextPage = &next
	}
	if resp.Data == nil {
		resp.Data = []api.NotebookEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request, userID string) {
	s.mu.Lock()
	i := s.indexLocked(userID, r.PathValue("id"))
	var e api.NotebookEntry
	if i >= 0 {
		e = s.entries[i].NotebookEntry
	}
	s.mu.Unlock()

	if i < 0 {
		writeError(w, http.StatusNotFound, "notebook entry not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) createEntry(w http.ResponseWriter, r *http.Request, userID string) {
	var req api.CreateNotebookEntryRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Word) == "" {
		writeError(w, http.StatusBadRequest, "word is required")
		return
	}

	s.mu.Lock()
	if s.activeByWordLocked(userID, req.Word) != nil {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "word already exists in notebook")
		return
	}
	e := s.createLocked(userID, req)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) bulkCreate(w http.ResponseWriter, r *http.Request, userID string) {
	var req api.BulkCreateNotebookRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	out := api.BulkCreateNotebookResponse{Entries: make([]api.BulkEntryResult, 0, len(req.Entries))}
	for _, item := range req.Entries {
		if existing := s.activeByWordLocked(userID, item.Word); existing != nil {
			out.Skipped++
			out.Entries = append(out.Entries, api.BulkEntryResult{ID: existing.ID, Word: item.Word, Status: api.BulkStatusSkipped})
			continue
		}
		e := s.createLocked(userID, item)
		out.Created++
		out.Entries = append(out.Entries, api.BulkEntryResult{ID: e.ID, Word: e.Word, Status: api.BulkStatusCreated})
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) updateEntry(w http.ResponseWriter, r *http.Request, userID string) {
	var req api.UpdateNotebookEntryRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(userID, r.PathValue("id"))
	if i < 0 || s.entries[i].DeletedAt != nil {
		writeError(w, http.StatusNotFound, "notebook entry not found")
		return
	}

	e := s.entries[i]
	if req.Translation != "" {
		e.Translation = req.Translation
	}
	if req.Context != "" {
		e.Context = req.Context
	}
	if req.Source != "" {
		e.Source = req.Source
	}
	if req.Status != "" {
		e.Status = req.Status
	}
	e.UpdatedAt = s.now().UTC()
	writeJSON(w, http.StatusOK, e.NotebookEntry)
}

func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(userID, r.PathValue("id"))
	if i < 0 || s.entries[i].DeletedAt != nil {
		writeError(w, http.StatusNotFound, "notebook entry not found")
		return
	}

	now := s.now().UTC()
	e := s.entries[i]
	e.DeletedAt = &now
	e.UpdatedAt = now
	writeJSON(w, http.StatusOK, api.DeleteNotebookEntryResponse{ID: e.ID, DeletedAt: now})
}

func (s *Server) restoreEntry(w http.ResponseWriter, r *http.Request, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(userID, r.PathValue("id"))
	if i < 0 || s.entries[i].DeletedAt == nil {
		writeError(w, http.StatusNotFound, "deleted notebook entry not found")
		return
	}
	e := s.entries[i]
	if s.activeByWordLocked(userID, e.Word) != nil {
		writeError(w, http.StatusConflict, "word already exists in notebook")
		return
	}
	e.DeletedAt = nil
	e.UpdatedAt = s.now().UTC()
	writeJSON(w, http.StatusOK, api.RestoreNotebookEntryResponse{ID: e.ID, Word: e.Word})
}

// history handlers

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request, userID string) {
	q := r.URL.Query()
	provider := q.Get("provider")

	s.mu.Lock()
	var out []api.HistoryEntry
	for i := len(s.history) - 1; i >= 0; i-- {
		h := s.history[i]
		if h.userID == userID && (provider == "" || h.Provider == provider) {
			out = append(out, h.HistoryEntry)
		}
	}
	s.mu.Unlock()

	if out == nil {
		out = []api.HistoryEntry{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(api.PaginatedResponse[api.HistoryEntry]{
		StatusCode: http.StatusOK,
		Data:       out,
		Metadata:   api.PaginatedMetadata{Type: "offset", Page: 1, PerPage: len(out), TotalPage: 1, Count: len(out)},
	})
}

func (s *Server) logHistory(w http.ResponseWriter, r *http.Request, userID string) {
	var req api.LogHistoryRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	h := &historyEntry{
		HistoryEntry: api.HistoryEntry{ID: uuid.NewString(), Query: req.Query, Provider: req.Provider, CreatedAt: s.now().UTC()},
		userID:       userID,
	}
	s.history = append(s.history, h)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, h.HistoryEntry)
}

func (s *Server) clearHistory(w http.ResponseWriter, _ *http.Request, userID string) {
	s.mu.Lock()
	kept := s.history[:0]
	deleted := 0
	for _, h := range s.history {
		if h.userID == userID {
			deleted++
			continue
		}
		kept = append(kept, h)
	}
	s.history = kept
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, api.ClearHistoryResponse{DeletedCount: deleted})
}

func (s *Server) deleteHistory(w http.ResponseWriter, r *http.Request, userID string) {
	id := r.PathValue("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, h := range s.history {
		if h.userID == userID && h.ID == id {
			s.history = append(s.history[:i], s.history[i+1:]...)
			writeJSON(w, http.StatusOK, api.DeleteHistoryResponse{ID: id})
			return
		}
	}
	writeError(w, http.StatusNotFound, "history entry not found")
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
