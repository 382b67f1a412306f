package routes_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-dashboard-gateway/routes"
	"github.com/jrsteele09/go-dashboard-gateway/users"
	"github.com/stretchr/testify/require"
)

func TestDefault_Classify(t *testing.T) {
	m := routes.Default()

	tests := []struct {
		path       string
		class      routes.Class
		restricted bool
	}{
		{"/auth/login", routes.Public, false},
		{"/auth/login?callbackUrl=%2Fdashboard", routes.Public, false},
		{"/auth/register", routes.Public, false},
		{"/auth/forgot-password", routes.Public, false},
		{"/dashboard", routes.Protected, false},
		{"/dashboard/apartments/12", routes.Protected, false},
		{"/dashboard/settings", routes.Protected, true},
		{"/dashboard/users/7/edit", routes.Protected, true},
		{"/dashboard/companies", routes.Protected, true},
		{"/dashboard/payments", routes.Protected, true},
		{"/dashboard/invoices/3", routes.Protected, true},
		{"/dashboard/settingsx", routes.Protected, false},
		{"/somewhere-unknown", routes.Protected, false},
		{"/auth/logout", routes.Protected, false},
		{"/auth/../dashboard/settings", routes.Protected, true},
		{"", routes.Protected, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rule := m.Classify(tt.path)
			require.Equal(t, tt.class, rule.Class)
			require.Equal(t, tt.restricted, rule.RoleRestricted())
		})
	}
}

func TestRule_Allows(t *testing.T) {
	m := routes.Default()

	settings := m.Classify("/dashboard/settings")
	require.True(t, settings.Allows(users.RoleSuperAdmin))
	require.True(t, settings.Allows(users.RoleAdmin))
	require.False(t, settings.Allows(users.RoleManager))
	require.False(t, settings.Allows(users.RoleUser))

	payments := m.Classify("/dashboard/payments")
	require.True(t, payments.Allows(users.RoleManager))
	require.False(t, payments.Allows(users.RoleUser))

	dashboard := m.Classify("/dashboard")
	require.True(t, dashboard.Allows(users.RoleUser))
	require.False(t, dashboard.Allows(users.RoleUnknown), "unknown roles fail every check")
	require.False(t, dashboard.Allows(users.RoleType("owner")))
}

func TestMatcher_Excluded(t *testing.T) {
	m := routes.Default()

	for _, p := range []string{"/static/app.css", "/favicon.ico", "/api/auth/session", "/logo.png", "/fonts/a.woff2"} {
		require.True(t, m.Excluded(p), p)
	}
	for _, p := range []string{"/dashboard", "/auth/login", "/apiary", "/dashboard/users"} {
		require.False(t, m.Excluded(p), p)
	}
}

func TestParse_Validation(t *testing.T) {
	_, err := routes.Parse([]byte("routes:\n  - prefix: dashboard\n    class: protected\n"))
	require.Error(t, err, "prefix without slash")

	_, err = routes.Parse([]byte("routes:\n  - prefix: /x\n    class: secret\n"))
	require.Error(t, err, "unknown class")

	_, err = routes.Parse([]byte("routes:\n  - prefix: /x\n    class: public\n    roles: [admin]\n"))
	require.Error(t, err, "restricted public route")

	_, err = routes.Parse([]byte("routes:\n  - prefix: /x\n    class: protected\n    roles: [owner]\n"))
	require.Error(t, err, "unknown role")

	_, err = routes.Parse([]byte("routes:\n  - prefix: /x\n    class: protected\n  - prefix: /x/\n    class: public\n"))
	require.Error(t, err, "duplicate prefix")

	m, err := routes.Parse([]byte("routes:\n  - prefix: /reports\n    class: protected\n    roles: [super_admin]\n"))
	require.NoError(t, err)
	require.Equal(t, []users.RoleType{users.RoleSuperAdmin}, m.Classify("/reports").Roles, "legacy spelling normalised")
}

func TestLoad(t *testing.T) {
	m, err := routes.Load("")
	require.NoError(t, err)
	require.True(t, m.IsPublic("/auth/login"))

	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("routes:\n  - prefix: /public\n    class: public\n"), 0o600))
	m, err = routes.Load(path)
	require.NoError(t, err)
	require.True(t, m.IsPublic("/public/page"))
	require.False(t, m.IsPublic("/auth/login"), "custom table replaces the default")

	_, err = routes.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
