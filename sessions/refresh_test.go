package sessions_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-dashboard-gateway/backend"
	"github.com/jrsteele09/go-dashboard-gateway/internal/errors"
	"github.com/jrsteele09/go-dashboard-gateway/sessions"
	"github.com/jrsteele09/go-dashboard-gateway/users"
	"github.com/stretchr/testify/require"
)

// hookClient lets a test act while a backend call is in flight.
type hookClient struct {
	backend.Client
	onRefresh     func()
	onCurrentUser func()

	currentUserErr error
}

func (h *hookClient) RefreshToken(ctx context.Context, token string) (string, error) {
	if h.onRefresh != nil {
		h.onRefresh()
	}
	return h.Client.RefreshToken(ctx, token)
}

func (h *hookClient) CurrentUser(ctx context.Context, token string) (*users.User, error) {
	if h.onCurrentUser != nil {
		h.onCurrentUser()
	}
	if h.currentUserErr != nil {
		return nil, h.currentUserErr
	}
	return h.Client.CurrentUser(ctx, token)
}

func hooked(t *testing.T, opts ...sessions.ManagerOption) (*fixture, *hookClient) {
	t.Helper()
	base := setup(t)
	hook := &hookClient{Client: base.client}
	return newFixture(t, base.fake, hook, opts...), hook
}

func TestStore_ShouldRefreshToken(t *testing.T) {
	f := setup(t, sessions.WithRefreshThreshold(24*time.Hour))
	store := f.open()
	require.False(t, store.ShouldRefreshToken(), "logged out")

	require.NoError(t, store.Login(f.issue(t, time.Now().Add(48*time.Hour)), &testUser))
	require.False(t, store.ShouldRefreshToken())

	require.NoError(t, store.Login(f.issue(t, time.Now().Add(time.Hour)), &testUser))
	require.True(t, store.ShouldRefreshToken())

	require.NoError(t, store.Login(f.issue(t, time.Now().Add(-time.Minute)), &testUser))
	require.False(t, store.ShouldRefreshToken(), "expired tokens are not refreshed")
}

func TestStore_RefreshAuth(t *testing.T) {
	f := setup(t)
	store := f.open()
	require.ErrorIs(t, store.RefreshAuth(context.Background()), errors.ErrNotAuthenticated)

	old := f.issue(t, time.Now().Add(time.Minute))
	require.NoError(t, store.Login(old, &testUser))
	before := store.Snapshot()

	require.NoError(t, store.RefreshAuth(context.Background()))
	after := store.Snapshot()
	require.NotEqual(t, old, after.Token)
	require.Equal(t, after.Token, f.mirror.token)
	require.Equal(t, before.User, after.User)
	require.True(t, after.IsAuthenticated)
	require.Equal(t, before.Generation, after.Generation, "refresh is not a new login")
	require.EqualValues(t, 1, f.fake.RefreshCount())
}

func TestStore_RefreshAuthFailureKeepsToken(t *testing.T) {
	f := setup(t)
	store := f.open()
	old := f.issue(t, time.Now().Add(time.Minute))
	require.NoError(t, store.Login(old, &testUser))

	f.fake.SetUnavailable(true)
	err := store.RefreshAuth(context.Background())
	require.ErrorIs(t, err, errors.ErrNetworkFailure)
	require.Equal(t, old, store.Snapshot().Token)
	require.True(t, store.IsAuthenticated())
	require.Equal(t, old, f.mirror.token)
}

func TestStore_RefreshAuthDiscardedAfterLogout(t *testing.T) {
	f, hook := hooked(t)
	store := f.open()
	require.NoError(t, store.Login(f.issue(t, time.Now().Add(time.Minute)), &testUser))

	// A second tab logs out while the refresh is in flight.
	hook.onRefresh = func() {
		require.NoError(t, f.manager.Open(testSessionID, f.mirror).Logout())
	}

	err := store.RefreshAuth(context.Background())
	require.ErrorIs(t, err, errors.ErrStaleResult)

	snap := f.open().Snapshot()
	require.False(t, snap.IsAuthenticated)
	require.Empty(t, snap.Token)
	require.Empty(t, f.mirror.token, "stale token never reaches the cookie")
}

func TestStore_RefreshAuthDiscardedAfterRelogin(t *testing.T) {
	f, hook := hooked(t)
	store := f.open()
	require.NoError(t, store.Login(f.issue(t, time.Now().Add(time.Minute)), &testUser))

	fresh := f.issue(t, time.Now().Add(2*time.Hour))
	hook.onRefresh = func() {
		require.NoError(t, f.manager.Open(testSessionID, f.mirror).Login(fresh, &testUser))
	}

	require.ErrorIs(t, store.RefreshAuth(context.Background()), errors.ErrStaleResult)
	require.Equal(t, fresh, f.open().Snapshot().Token)
	require.Equal(t, fresh, f.mirror.token)
}

func TestStore_RefreshAuthCancelled(t *testing.T) {
	f, hook := hooked(t)
	store := f.open()
	old := f.issue(t, time.Now().Add(time.Minute))
	require.NoError(t, store.Login(old, &testUser))

	ctx, cancel := context.WithCancel(context.Background())
	hook.onRefresh = cancel

	require.Error(t, store.RefreshAuth(ctx))
	require.Equal(t, old, f.open().Snapshot().Token)
}

func TestStore_CheckAuthDiscardedAfterLogin(t *testing.T) {
	f, hook := hooked(t)
	f.mirror.token = f.issue(t, time.Now().Add(time.Hour))

	other := users.User{ID: "other", Role: users.RoleAdmin}
	otherToken := f.issue(t, time.Now().Add(3*time.Hour))
	hook.onCurrentUser = func() {
		require.NoError(t, f.manager.Open(testSessionID, &memMirror{}).Login(otherToken, &other))
	}

	store := f.open()
	require.True(t, store.CheckAuth(context.Background()))
	snap := f.open().Snapshot()
	require.Equal(t, "other", snap.User.ID, "the explicit login wins over the rehydrate")
	require.Equal(t, otherToken, snap.Token)
	require.Equal(t, otherToken, f.mirror.token)
}

func TestStore_CheckAuthAfterConcurrentLogout(t *testing.T) {
	f, hook := hooked(t)
	f.mirror.token = f.issue(t, time.Now().Add(time.Hour))

	hook.onCurrentUser = func() {
		other := f.manager.Open(testSessionID, &memMirror{})
		require.NoError(t, other.Login(f.issue(t, time.Now().Add(2*time.Hour)), &testUser))
		require.NoError(t, other.Logout())
	}

	require.False(t, f.open().CheckAuth(context.Background()))
	require.Empty(t, f.mirror.token, "the logout clears this request's cookie too")
}

func TestStore_CheckAuthBackendFailures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		keepCookie bool
	}{
		{"rejected", errors.ErrBackendRejected, false},
		{"invalid response", errors.ErrInvalidResponse, false},
		{"token expired", errors.ErrTokenExpired, false},
		{"network failure", errors.ErrNetworkFailure, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, hook := hooked(t)
			raw := f.issue(t, time.Now().Add(time.Hour))
			f.mirror.token = raw
			hook.currentUserErr = errors.Wrapf(tt.err, "[backend %s] status", backend.PathCurrentUser)

			require.False(t, f.open().CheckAuth(context.Background()))
			if tt.keepCookie {
				require.Equal(t, raw, f.mirror.token)
			} else {
				require.Empty(t, f.mirror.token)
			}
		})
	}
}

func TestStore_ConcurrentRefreshesApplyOnce(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.open().Login(f.issue(t, time.Now().Add(time.Minute)), &testUser))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		applied  int
		stale    int
		failures []error
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.manager.Open(testSessionID, &memMirror{}).RefreshAuth(context.Background())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				applied++
			case errors.Is(err, errors.ErrStaleResult):
				stale++
			default:
				failures = append(failures, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, failures)
	require.GreaterOrEqual(t, applied, 1)
	require.Equal(t, 5, applied+stale)
	require.True(t, f.open().IsAuthenticated())
}
