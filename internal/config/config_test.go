package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-dashboard-gateway/internal/config"
	"github.com/stretchr/testify/require"
)

func TestEnvVars_Defaults(t *testing.T) {
	for _, name := range []string{"PORT", "ENV", "BACKEND_URL", "SESSION_STORE", "COOKIE_MAX_AGE", "MOCK_BACKEND"} {
		t.Setenv(name, "")
	}
	c := config.New()

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, "http://localhost:5000/api", c.GetBackendURL())
	require.Equal(t, "file", c.GetSessionStore())
	require.Equal(t, config.DefaultCookieMaxAge, c.GetCookieMaxAge())
	require.Equal(t, 24*time.Hour, c.GetRefreshThreshold())
	require.False(t, c.GetMockBackend())
}

func TestEnvVars_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("BACKEND_URL", "https://api.example.com/api/")
	t.Setenv("MOCK_BACKEND", "true")
	t.Setenv("REFRESH_THRESHOLD", "2h")
	t.Setenv("BACKEND_TIMEOUT", "not-a-duration")
	c := config.New()

	require.Equal(t, ":9000", c.GetPort())
	require.Equal(t, "https://api.example.com/api", c.GetBackendURL())
	require.True(t, c.GetMockBackend())
	require.Equal(t, 2*time.Hour, c.GetRefreshThreshold())
	require.Equal(t, 10*time.Second, c.GetBackendTimeout(), "invalid values fall back")
}

func TestCookieMaxAgeClamped(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"24h", config.MinCookieMaxAge},
		{"240h", 240 * time.Hour},
		{"2000h", config.MaxCookieMaxAge},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("COOKIE_MAX_AGE", tt.value)
			require.Equal(t, tt.want, config.New().GetCookieMaxAge())
		})
	}
}

func TestSecureCookies(t *testing.T) {
	require.False(t, config.IsSecureBaseURL("http://localhost:8080"))
	require.False(t, config.IsSecureBaseURL("http://127.0.0.1:8080"))
	require.True(t, config.IsSecureBaseURL("https://dashboard.example.com"))

	t.Setenv("BASE_URL", "https://dashboard.example.com")
	require.True(t, config.New().GetSecureCookies())
}

func TestAllowedOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")
	origins := config.New().GetAllowedOrigins()

	require.True(t, origins.IsAllowedOrigin("https://a.example.com"))
	require.True(t, origins.IsAllowedOrigin("https://b.example.com"))
	require.False(t, origins.IsAllowedOrigin("https://evil.example.com"))
	require.Len(t, origins, 2)
}
