package sessions

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jrsteele09/go-dashboard-gateway/internal/config"
	"github.com/stretchr/testify/require"
)

func TestKeyLock(t *testing.T) {
	k := newKeyLock()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("a")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	require.Equal(t, 50, counter)
	require.Empty(t, k.locks, "released locks are dropped")

	unlockA := k.Lock("a")
	unlockB := k.Lock("b")
	require.Len(t, k.locks, 2)
	unlockA()
	unlockB()
}

func TestCookieMirror(t *testing.T) {
	r := httptest.NewRequest("GET", "/dashboard", nil)
	r.AddCookie(&http.Cookie{Name: TokenCookieName, Value: "from-request"})
	w := httptest.NewRecorder()
	m := NewCookieMirror(w, r, true)

	tok, ok := m.ReadToken()
	require.True(t, ok)
	require.Equal(t, "from-request", tok)

	m.SetToken("fresh", config.DefaultCookieMaxAge)
	tok, _ = m.ReadToken()
	require.Equal(t, "fresh", tok)

	m.ClearToken()
	_, ok = m.ReadToken()
	require.False(t, ok)

	set := w.Result().Cookies()
	require.Len(t, set, 2)
	require.Equal(t, "fresh", set[0].Value)
	require.True(t, set[0].HttpOnly)
	require.True(t, set[0].Secure)
	require.Equal(t, "/", set[0].Path)
	require.Equal(t, http.SameSiteLaxMode, set[0].SameSite)
	require.Equal(t, -1, set[1].MaxAge)
}
