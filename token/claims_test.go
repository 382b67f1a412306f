package token_test

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-dashboard-gateway/internal/errors"
	"github.com/jrsteele09/go-dashboard-gateway/token"
	"github.com/jrsteele09/go-dashboard-gateway/users"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func sign(t *testing.T, secret []byte, claims jwtlib.MapClaims) string {
	t.Helper()
	raw, err := token.NewHMACSigner(secret).Sign(claims)
	require.NoError(t, err)
	return raw
}

func TestDecoder_Decode(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	raw := sign(t, testSecret, jwtlib.MapClaims{
		"sub":    "user-1",
		"role":   "manager",
		"tenant": "company-9",
		"name":   "Mia Manager",
		"iat":    now.Unix(),
		"exp":    now.Add(7 * 24 * time.Hour).Unix(),
		"jti":    "jti-1",
	})

	for name, dec := range map[string]*token.Decoder{
		"verified":   token.NewDecoder(token.NewHMACSigner(testSecret)),
		"unverified": token.NewDecoder(nil),
	} {
		t.Run(name, func(t *testing.T) {
			c, err := dec.Decode(raw)
			require.NoError(t, err)
			require.Equal(t, "user-1", c.Subject)
			require.Equal(t, users.RoleManager, c.Role)
			require.Equal(t, "company-9", c.TenantID)
			require.Equal(t, "jti-1", c.ID)
			require.Equal(t, now.Add(7*24*time.Hour).Unix(), c.ExpiresAt.Unix())
			require.Equal(t, users.RoleManager, c.User().Role)
		})
	}
}

func TestDecoder_Malformed(t *testing.T) {
	verified := token.NewDecoder(token.NewHMACSigner(testSecret))
	unverified := token.NewDecoder(token.NewHMACSigner(nil))
	require.False(t, unverified.Verifies())

	noExp := sign(t, testSecret, jwtlib.MapClaims{"sub": "u"})
	wrongKey := sign(t, []byte("other"), jwtlib.MapClaims{"sub": "u", "exp": time.Now().Add(time.Hour).Unix()})

	tests := []struct {
		name string
		dec  *token.Decoder
		raw  string
	}{
		{"empty", unverified, ""},
		{"garbage", unverified, "not-a-token"},
		{"missing exp", unverified, noExp},
		{"bad signature", verified, wrongKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.dec.Decode(tt.raw)
			require.ErrorIs(t, err, errors.ErrTokenMalformed)
			require.True(t, errors.IsTokenInvalid(err))
		})
	}

	// Without verification the foreign token is readable.
	_, err := unverified.Decode(wrongKey)
	require.NoError(t, err)
}

func TestDecoder_RolesArray(t *testing.T) {
	raw := sign(t, testSecret, jwtlib.MapClaims{
		"sub":   "u",
		"roles": []string{"viewer", "super_admin"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	c, err := token.NewDecoder(nil).Decode(raw)
	require.NoError(t, err)
	require.Equal(t, users.RoleSuperAdmin, c.Role)
}

func TestDecoder_Validate(t *testing.T) {
	now := time.Now()
	raw := sign(t, testSecret, jwtlib.MapClaims{"sub": "u", "exp": now.Add(-10 * time.Second).Unix()})

	c, err := token.NewDecoder(nil).Validate(raw, now)
	require.ErrorIs(t, err, errors.ErrTokenExpired)
	require.NotNil(t, c)
}

func TestShouldRefresh(t *testing.T) {
	now := time.Now()
	threshold := 24 * time.Hour

	require.False(t, token.ShouldRefresh(nil, now, threshold))
	require.False(t, token.ShouldRefresh(&token.Claims{ExpiresAt: now.Add(6 * 24 * time.Hour)}, now, threshold))
	require.True(t, token.ShouldRefresh(&token.Claims{ExpiresAt: now.Add(12 * time.Hour)}, now, threshold))
	require.False(t, token.ShouldRefresh(&token.Claims{ExpiresAt: now.Add(-time.Second)}, now, threshold), "expired tokens are not refreshed")
	require.Equal(t, time.Duration(0), (&token.Claims{ExpiresAt: now}).Remaining(now))
}

func TestRevokedTokenCache(t *testing.T) {
	cache := token.NewRevocationList()
	now := time.Now()
	require.NoError(t, cache.Add("a", now.Add(-time.Minute)))
	require.NoError(t, cache.Add("b", now.Add(time.Minute)))
	require.True(t, cache.IsRevoked("a"))

	cache.Cleanup(now)
	require.False(t, cache.IsRevoked("a"))
	require.True(t, cache.IsRevoked("b"))
	require.Equal(t, 1, cache.Len())
}
