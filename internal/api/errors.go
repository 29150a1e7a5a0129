package api

import (
	"errors"
	"fmt"
)

// AuthError indicates that the session is unauthenticated or expired.
// It is returned whenever the backend responds with HTTP 401; the
// application reacts by routing to the login view.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %s", e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// APIError is a non-2xx backend response carrying the server-provided
// message field when one was present.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error (%d)", e.StatusCode)
}

// Message extracts a user-presentable message from err, falling back to
// the supplied generic per-action string. Server-provided messages win;
// auth errors and transport errors use the fallback.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
