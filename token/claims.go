package token

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-dashboard-gateway/internal/errors"
	"github.com/jrsteele09/go-dashboard-gateway/internal/utils"
	"github.com/jrsteele09/go-dashboard-gateway/users"
)

// Claims is the subset of a bearer token the gateway relies on.
type Claims struct {
	ID        string         // jti
	Subject   string         // user id
	Role      users.RoleType // canonical role, RoleUnknown if absent
	TenantID  string
	Name      string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired is true once now has reached the expiry instant.
func (c *Claims) Expired(now time.Time) bool {
	return c == nil || !now.Before(c.ExpiresAt)
}

// Remaining returns the lifetime left, never negative.
func (c *Claims) Remaining(now time.Time) time.Duration {
	if c.Expired(now) {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}

// User builds the identity carried by the token. Used when the backend
// cannot be asked and only claims are available.
func (c *Claims) User() *users.User {
	return &users.User{
		ID:       c.Subject,
		Name:     c.Name,
		Email:    c.Email,
		Role:     c.Role,
		TenantID: c.TenantID,
	}
}

// ShouldRefresh reports whether a still valid token has less than threshold left.
func ShouldRefresh(c *Claims, now time.Time, threshold time.Duration) bool {
	if c == nil || c.Expired(now) {
		return false
	}
	return c.Remaining(now) < threshold
}

// Decoder turns raw bearer tokens into Claims. With a signer the signature is
// verified; without one the payload is only decoded.
type Decoder struct {
	signer Signer
}

func NewDecoder(signer Signer) *Decoder {
	d := &Decoder{}
	if signer != nil && !isNilSigner(signer) {
		d.signer = signer
	}
	return d
}

// Verifies reports whether signatures are checked.
func (d *Decoder) Verifies() bool {
	return d != nil && d.signer != nil
}

// Decode parses raw without judging its expiry. Every failure is ErrTokenMalformed.
func (d *Decoder) Decode(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.ErrTokenMalformed
	}

	var (
		parsed *jwtlib.Token
		err    error
	)
	if d.Verifies() {
		parser := jwtlib.NewParser(
			jwtlib.WithValidMethods([]string{d.signer.GetSigningMethod().Alg()}),
			jwtlib.WithoutClaimsValidation(),
		)
		parsed, err = parser.ParseWithClaims(raw, jwtlib.MapClaims{}, d.signer.GetVerificationKey)
	} else {
		parsed, _, err = jwtlib.NewParser().ParseUnverified(raw, jwtlib.MapClaims{})
	}
	if err != nil {
		return nil, errors.Wrapf(errors.ErrTokenMalformed, "decode: %s", err.Error())
	}

	mc, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.ErrTokenMalformed
	}
	return claimsFromMap(mc)
}

// Validate decodes raw and rejects it when expired at now.
func (d *Decoder) Validate(raw string, now time.Time) (*Claims, error) {
	c, err := d.Decode(raw)
	if err != nil {
		return nil, err
	}
	if c.Expired(now) {
		return c, errors.ErrTokenExpired
	}
	return c, nil
}

func claimsFromMap(mc jwtlib.MapClaims) (*Claims, error) {
	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, errors.Wrapf(errors.ErrTokenMalformed, "missing exp")
	}

	c := &Claims{ExpiresAt: exp.Time}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	c.Subject, _ = mc.GetSubject()
	c.ID, _ = mc["jti"].(string)
	c.TenantID, _ = mc["tenant"].(string)
	c.Name, _ = mc["name"].(string)
	c.Email, _ = mc["email"].(string)

	if role, ok := mc["role"].(string); ok {
		c.Role = users.ParseRole(role)
	}
	if c.Role == users.RoleUnknown {
		if roles, ok := mc["roles"].([]any); ok {
			for _, r := range utils.ToStringSlice(roles) {
				if role := users.ParseRole(r); role != users.RoleUnknown {
					c.Role = role
					break
				}
			}
		}
	}
	return c, nil
}

func isNilSigner(s Signer) bool {
	h, ok := s.(*HMACSigner)
	return ok && h == nil
}
