package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gamerscove/cove/pkg/domain"
)

// ErrNoResponse is reported when a request was sent but no response arrived.
var ErrNoResponse = errors.New("No response from server. Please check your connection.") //nolint:staticcheck // shown to users verbatim

// ErrNotAuthenticated is returned by operations that need a session token
// when none is stored.
var ErrNotAuthenticated = errors.New("No authentication token found. Please log in again.") //nolint:staticcheck // shown to users verbatim

// ErrInvalidJSON is returned by Do when the request body is not valid JSON.
var ErrInvalidJSON = errors.New("request body is not valid JSON")

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// newHTTPError builds an HTTPError from a failed response. The message comes
// from the body's "message" field, then "error", then the status text.
func newHTTPError(code int, body []byte) *HTTPError {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := ""
	if json.Unmarshal(body, &payload) == nil {
		msg = strings.TrimSpace(payload.Message)
		if msg == "" {
			msg = strings.TrimSpace(payload.Error)
		}
	}
	if msg == "" {
		msg = http.StatusText(code)
	}
	if msg == "" {
		msg = "request failed"
	}
	return &HTTPError{StatusCode: code, Message: msg}
}

// NoResponseError wraps the transport failure behind ErrNoResponse.
type NoResponseError struct {
	Cause error
}

func (e *NoResponseError) Error() string { return ErrNoResponse.Error() }

// Unwrap exposes the underlying transport error.
func (e *NoResponseError) Unwrap() error { return e.Cause }

// Is makes errors.Is(err, ErrNoResponse) hold.
func (e *NoResponseError) Is(target error) bool { return target == ErrNoResponse }

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// IsUnauthorized reports a 401 or 403 response.
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized) || IsStatus(err, http.StatusForbidden)
}

// Message returns the text to show a user for err: the HTTP error line,
// the no-response notice, a validation sentinel, or the error itself.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Error()
	}
	if errors.Is(err, ErrNoResponse) {
		return ErrNoResponse.Error()
	}
	for _, sentinel := range []error{ErrNotAuthenticated, domain.ErrInvalidRating, domain.ErrEmptyComment} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
