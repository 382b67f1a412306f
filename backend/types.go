package backend

import (
	"context"

	"github.com/jrsteele09/go-dashboard-gateway/users"
)

// Endpoint paths of the housing REST backend, relative to its base URL.
const (
	PathLogin         = "/auth/login"
	PathLogout        = "/auth/logout"
	PathRefreshToken  = "/auth/refresh-token"
	PathCurrentUser   = "/auth/me"
	PathValidateToken = "/auth/validate-token"
)

// Response is the envelope every backend endpoint answers with.
type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    *AuthPayload `json:"data,omitempty"`
}

// AuthPayload carries a token and/or the user it belongs to.
type AuthPayload struct {
	Token string      `json:"token,omitempty"`
	User  *users.User `json:"user,omitempty"`
}

// LoginRequest is the body of the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Client is the backend contract the auth layer depends on.
type Client interface {
	// Login exchanges credentials for a token and user. Rejection is ErrInvalidCredentials.
	Login(ctx context.Context, email, password string) (*AuthPayload, error)

	// Logout notifies the backend; callers treat failures as non-fatal.
	Logout(ctx context.Context, token string) error

	// RefreshToken returns a new token for a still valid one.
	RefreshToken(ctx context.Context, token string) (string, error)

	// CurrentUser returns the user a token belongs to.
	CurrentUser(ctx context.Context, token string) (*users.User, error)

	// ValidateToken reports whether the backend still accepts token.
	ValidateToken(ctx context.Context, token string) (bool, error)
}
