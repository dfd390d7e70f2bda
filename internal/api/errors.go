package api

import (
	"errors"
	"net/http"
)

var (
	// ErrAuthRequired is wrapped in a 401 *Error when a request needs a
	// token and none is available.
	ErrAuthRequired = errors.New("authentication required")
)

// ErrorResponse is the error body of the EngZ API.
type ErrorResponse struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Error      string   `json:"error"`
	Metadata   Metadata `json:"metadata"`
}

// Error is an HTTP-level failure. StatusCode 0 means the request never got
// a response.
type Error struct {
	StatusCode int
	Message    string
	// Code is the machine-readable "error" field of the payload, if any.
	Code    string
	Payload *ErrorResponse
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(status int, msg string, payload *ErrorResponse, cause error) *Error {
	e := &Error{StatusCode: status, Message: msg, Payload: payload, Err: cause}
	if payload != nil {
		e.Code = payload.Error
	}
	return e
}

// AsError unwraps err to an *Error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func hasStatus(err error, match func(int) bool) bool {
	e, ok := AsError(err)
	return ok && match(e.StatusCode)
}

func is(code int) func(int) bool {
	return func(s int) bool { return s == code }
}

func IsUnauthorized(err error) bool { return hasStatus(err, is(http.StatusUnauthorized)) }
func IsForbidden(err error) bool    { return hasStatus(err, is(http.StatusForbidden)) }
func IsNotFound(err error) bool     { return hasStatus(err, is(http.StatusNotFound)) }
func IsConflict(err error) bool     { return hasStatus(err, is(http.StatusConflict)) }
func IsRateLimited(err error) bool  { return hasStatus(err, is(http.StatusTooManyRequests)) }
func IsNetworkError(err error) bool { return hasStatus(err, is(0)) }

func IsValidation(err error) bool {
	return hasStatus(err, func(s int) bool {
		return s == http.StatusBadRequest || s == http.StatusUnprocessableEntity
	})
}

func IsServerError(err error) bool {
	return hasStatus(err, func(s int) bool { return s >= http.StatusInternalServerError })
}

// Message returns a user-facing message for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := AsError(err); ok {
		return e.Message
	}
	return err.Error()
}
