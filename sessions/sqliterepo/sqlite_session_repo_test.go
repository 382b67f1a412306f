package sqliterepo_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-dashboard-gateway/internal/errors"
	"github.com/jrsteele09/go-dashboard-gateway/sessions"
	"github.com/jrsteele09/go-dashboard-gateway/sessions/sqliterepo"
	"github.com/jrsteele09/go-dashboard-gateway/users"
	"github.com/stretchr/testify/require"
)

func openRepo(t *testing.T) (*sqliterepo.SQLiteSessionRepo, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.db")
	repo, err := sqliterepo.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo, path
}

func TestSQLiteSessionRepo_RoundTrip(t *testing.T) {
	repo, _ := openRepo(t)

	_, err := repo.Get("missing")
	require.ErrorIs(t, err, errors.ErrSessionNotFound)

	in := &sessions.Session{
		Version:         sessions.CurrentVersion,
		Token:           "tok-1",
		User:            &users.User{ID: "u-1", Role: users.RoleManager},
		IsAuthenticated: true,
		Generation:      1,
		UpdatedAt:       time.Now(),
	}
	require.NoError(t, repo.Upsert("s-1", in))

	in.Token = "tok-2"
	in.Generation = 2
	require.NoError(t, repo.Upsert("s-1", in))

	out, err := repo.Get("s-1")
	require.NoError(t, err)
	require.Equal(t, "tok-2", out.Token)
	require.Equal(t, uint64(2), out.Generation)
	require.Equal(t, "u-1", out.User.ID)

	require.NoError(t, repo.Delete("s-1"))
	require.ErrorIs(t, repo.Delete("s-1"), errors.ErrSessionNotFound)
}

func TestSQLiteSessionRepo_ReopenKeepsData(t *testing.T) {
	repo, path := openRepo(t)
	require.NoError(t, repo.Upsert("s-1", &sessions.Session{Version: sessions.CurrentVersion, UpdatedAt: time.Now()}))
	require.NoError(t, repo.Close())

	again, err := sqliterepo.Open(path)
	require.NoError(t, err)
	defer again.Close()

	_, err = again.Get("s-1")
	require.NoError(t, err)
}

func TestSQLiteSessionRepo_DeleteStale(t *testing.T) {
	repo, _ := openRepo(t)
	now := time.Now()

	require.NoError(t, repo.Upsert("old", &sessions.Session{Version: sessions.CurrentVersion, UpdatedAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, repo.Upsert("new", &sessions.Session{Version: sessions.CurrentVersion, UpdatedAt: now}))

	n, err := repo.DeleteStale(now.Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = repo.Get("new")
	require.NoError(t, err)
}
