package jwt

import (
	"strings"

	"github.com/jrsteele09/go-dashboard-gateway/internal/errors"
	"github.com/jrsteele09/go-dashboard-gateway/token"
)

// TokenIntrospection describes whether a bearer token is still usable.
// When Active is false the remaining fields may be empty.
type TokenIntrospection struct {
	Active bool   `json:"active"`           // True or false - Is the token valid
	Exp    int64  `json:"exp,omitempty"`    // Expiration
	Iat    int64  `json:"iat,omitempty"`    // Issued at time
	Role   string `json:"role,omitempty"`   // Role assigned to the User
	Tenant string `json:"tenant,omitempty"` // Tenant
	Sub    string `json:"sub,omitempty"`    // Users unique ID
}

// RevokedChecker is an interface for checking if a token has been revoked
type RevokedChecker interface {
	IsRevoked(jti string) bool
}

// Inspector validates tokens on behalf of the token issuer
type Inspector struct {
	decoder        *token.Decoder
	revokedChecker RevokedChecker
}

// NewInspector creates a new JWT inspector
func NewInspector(decoder *token.Decoder, revokedChecker RevokedChecker) *Inspector {
	return &Inspector{
		decoder:        decoder,
		revokedChecker: revokedChecker,
	}
}

// Inspect returns the claims of an active token, or ErrTokenExpired /
// ErrTokenMalformed. Revoked tokens count as expired.
func (i *Inspector) Inspect(rawToken string) (*token.Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, errors.ErrTokenMalformed
	}
	claims, err := i.decoder.Validate(rawToken, NowTimeFunc())
	if err != nil {
		return nil, err
	}
	if claims.ID != "" && i.revokedChecker != nil && i.revokedChecker.IsRevoked(claims.ID) {
		return nil, errors.Wrapf(errors.ErrTokenExpired, "revoked")
	}
	return claims, nil
}

// Introspect reports the token state in a serialisable form
func (i *Inspector) Introspect(rawToken string) *TokenIntrospection {
	claims, err := i.Inspect(rawToken)
	if err != nil {
		return &TokenIntrospection{Active: false}
	}
	return &TokenIntrospection{
		Active: true,
		Exp:    claims.ExpiresAt.Unix(),
		Iat:    claims.IssuedAt.Unix(),
		Role:   string(claims.Role),
		Tenant: claims.TenantID,
		Sub:    claims.Subject,
	}
}
