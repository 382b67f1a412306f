package jwt

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-dashboard-gateway/token"
	"github.com/jrsteele09/go-dashboard-gateway/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// DefaultTokenExpiry matches the backend's 7 day bearer tokens.
const DefaultTokenExpiry = 7 * 24 * time.Hour

// Creator mints bearer tokens in the backend's format
type Creator struct {
	signer token.Signer
	expiry time.Duration
}

// NewCreator creates a new JWT creator. A non-positive expiry uses DefaultTokenExpiry.
func NewCreator(signer token.Signer, expiry time.Duration) *Creator {
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}
	return &Creator{
		signer: signer,
		expiry: expiry,
	}
}

// CreateAccessToken creates a bearer token for user expiring after the configured lifetime
func (c *Creator) CreateAccessToken(user *users.User) (string, error) {
	return c.CreateAccessTokenWithExpiry(user, NowTimeFunc().Add(c.expiry))
}

// CreateAccessTokenWithExpiry creates a bearer token with an explicit expiry instant
func (c *Creator) CreateAccessTokenWithExpiry(user *users.User, exp time.Time) (string, error) {
	if user == nil {
		return "", fmt.Errorf("cannot create token without a user")
	}
	claims := jwtlib.MapClaims{
		"sub":    user.ID,                     // Users unique ID
		"role":   string(user.Role),           // Canonical role
		"tenant": user.TenantID,               // Company the user belongs to
		"name":   user.Name,                   // Display name
		"email":  user.Email,                  // Login email
		"iat":    int64(NowTimeFunc().Unix()), // Issued At
		"exp":    exp.Unix(),                  // Expiry
		"jti":    uuid.New().String(),         // Unique token ID for revocation
	}

	signedToken, err := c.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signedToken, nil
}

// Expiry returns the configured token lifetime
func (c *Creator) Expiry() time.Duration {
	return c.expiry
}
