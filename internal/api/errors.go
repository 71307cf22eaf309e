package api

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/xenking/foodhub-client/internal/notify"
)

// Error is a non-2xx answer from the API. Message is the server's "message"
// field, if any, and is meant for the user verbatim.
type Error struct {
	Status  int
	Method  string
	Path    string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s %s: %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("api: %s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// UserMessage returns the server-provided message.
func (e *Error) UserMessage() string {
	return e.Message
}

// NetworkError is a request that could not complete. It is safe to retry.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("api: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status of an *Error in err's chain, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsUnauthorized reports whether err means the session is missing or
// lacks the required role.
func IsUnauthorized(err error) bool {
	s := StatusCode(err)
	return s == http.StatusUnauthorized || s == http.StatusForbidden
}

// UserMessage renders err for the user: the server's message when there is
// one, fallback otherwise. Network failures always get fallback.
func UserMessage(err error, fallback string) string {
	return notify.Message(err, fallback)
}
