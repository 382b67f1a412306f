package backend_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-dashboard-gateway/backend"
	"github.com/jrsteele09/go-dashboard-gateway/backend/fakebackend"
	"github.com/jrsteele09/go-dashboard-gateway/internal/errors"
	"github.com/jrsteele09/go-dashboard-gateway/users"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "backend-secret"
	testEmail    = "manager@example.com"
	testPassword = "Password123"
)

type fixture struct {
	fake   *fakebackend.Server
	client *backend.HTTPClient
	server *httptest.Server
}

func setup(t *testing.T) *fixture {
	t.Helper()
	fake := fakebackend.New("/api", []byte(testSecret), time.Hour)
	require.NoError(t, fake.AddUser(users.User{ID: "m-1", Name: "Max", Email: testEmail, Role: users.RoleManager}, testPassword))

	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := backend.NewHTTPClient(srv.URL+"/api", 2*time.Second, backend.WithRetry(3, time.Millisecond))
	require.NoError(t, err)
	return &fixture{fake: fake, client: client, server: srv}
}

func TestNewHTTPClient_RequiresURL(t *testing.T) {
	_, err := backend.NewHTTPClient(" ", time.Second)
	require.ErrorIs(t, err, errors.ErrBackendNotConfig)
}

func TestHTTPClient_Login(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		payload, err := f.client.Login(ctx, testEmail, testPassword)
		require.NoError(t, err)
		require.NotEmpty(t, payload.Token)
		require.Equal(t, users.RoleManager, payload.User.Role)
		require.Empty(t, payload.User.PasswordHash)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.client.Login(ctx, testEmail, "nope")
		require.ErrorIs(t, err, errors.ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := f.client.Login(ctx, "ghost@example.com", testPassword)
		require.ErrorIs(t, err, errors.ErrInvalidCredentials)
	})
}

func TestHTTPClient_TokenLifecycle(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	payload, err := f.client.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)

	user, err := f.client.CurrentUser(ctx, payload.Token)
	require.NoError(t, err)
	require.Equal(t, "m-1", user.ID)

	valid, err := f.client.ValidateToken(ctx, payload.Token)
	require.NoError(t, err)
	require.True(t, valid)

	newToken, err := f.client.RefreshToken(ctx, payload.Token)
	require.NoError(t, err)
	require.NotEmpty(t, newToken)

	require.NoError(t, f.client.Logout(ctx, payload.Token))

	valid, err = f.client.ValidateToken(ctx, payload.Token)
	require.NoError(t, err)
	require.False(t, valid, "logged out token is revoked")

	_, err = f.client.CurrentUser(ctx, payload.Token)
	require.ErrorIs(t, err, errors.ErrTokenExpired)
}

func TestHTTPClient_ExpiredToken(t *testing.T) {
	f := setup(t)
	raw, err := f.fake.IssueToken("m-1", time.Now().Add(-10*time.Second))
	require.NoError(t, err)

	_, err = f.client.RefreshToken(context.Background(), raw)
	require.ErrorIs(t, err, errors.ErrTokenExpired)
	require.EqualValues(t, 1, f.fake.RefreshCount(), "rejections are not retried")
}

func TestHTTPClient_NetworkFailure(t *testing.T) {
	f := setup(t)
	f.fake.SetUnavailable(true)

	_, err := f.client.CurrentUser(context.Background(), "whatever")
	require.ErrorIs(t, err, errors.ErrNetworkFailure)

	_, err = f.client.Login(context.Background(), testEmail, testPassword)
	require.ErrorIs(t, err, errors.ErrNetworkFailure)
	require.NotErrorIs(t, err, errors.ErrInvalidCredentials)
}

func TestHTTPClient_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"user":{"id":"u-9","role":"super_admin"}}}`))
	}))
	defer srv.Close()

	client, err := backend.NewHTTPClient(srv.URL, time.Second, backend.WithRetry(3, time.Millisecond))
	require.NoError(t, err)

	user, err := client.CurrentUser(context.Background(), "tok")
	require.NoError(t, err)
	require.Equal(t, users.RoleSuperAdmin, user.Role, "role normalised")
	require.EqualValues(t, 3, calls.Load())
}

func TestHTTPClient_UnsuccessfulEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"account locked"}`))
	}))
	defer srv.Close()

	client, err := backend.NewHTTPClient(srv.URL, time.Second)
	require.NoError(t, err)

	_, err = client.Login(context.Background(), "a@b.c", "x")
	require.ErrorIs(t, err, errors.ErrInvalidCredentials)
	require.Contains(t, err.Error(), "account locked")
}
