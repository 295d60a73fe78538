package backend

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned by every call when no base URL is set.
var ErrNotConfigured = errors.New("backend: API URL is not set")

// TransportError means the request never produced an HTTP response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("backend: request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a non-2xx response. Message holds the backend's {error}
// field and is empty when the body carried none.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: status %d", e.Status)
	}
	return fmt.Sprintf("backend: status %d: %s", e.Status, e.Message)
}

// DecodeError means the response body was not the expected JSON.
type DecodeError struct {
	Status int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("backend: invalid response body (status %d): %v", e.Status, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Message returns the text to show a user for err: the backend's own
// message when it sent one, else fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrNotConfigured) {
		return "API URL is not set."
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// StatusCode returns the HTTP status of an APIError, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
