package errors

import (
	"errors"
	"fmt"
)

// Common error types for the dashboard gateway
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrUserNotFound       = errors.New("user not found")

	// Token errors
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Backend errors
	ErrNetworkFailure   = errors.New("network failure")
	ErrBackendRejected  = errors.New("backend rejected request")
	ErrInvalidResponse  = errors.New("invalid backend response")
	ErrBackendNotConfig = errors.New("backend not configured")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrStaleResult     = errors.New("stale result discarded")

	// General errors
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternal       = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// IsTokenInvalid reports whether err means the token can no longer be trusted.
// A malformed token is handled exactly like an expired one.
func IsTokenInvalid(err error) bool {
	return errors.Is(err, ErrTokenExpired) || errors.Is(err, ErrTokenMalformed)
}
