package sessions

import (
	"net/http"
	"time"
)

const (
	// TokenCookieName is the cookie the bearer token is mirrored into for edge checks.
	TokenCookieName = "auth_token"
	// SessionCookieName identifies the browser's session record.
	SessionCookieName = "dashboard_session"
)

// TokenMirror is the best-effort replica of the token outside the store.
type TokenMirror interface {
	SetToken(token string, maxAge time.Duration)
	ClearToken()
	ReadToken() (string, bool)
}

// CookieMirror mirrors the token into the auth_token cookie of one request/response pair.
type CookieMirror struct {
	w      http.ResponseWriter
	r      *http.Request
	secure bool

	// written tracks changes made during this request so ReadToken sees them.
	written *string
}

var _ TokenMirror = (*CookieMirror)(nil)

func NewCookieMirror(w http.ResponseWriter, r *http.Request, secure bool) *CookieMirror {
	return &CookieMirror{w: w, r: r, secure: secure}
}

func (m *CookieMirror) SetToken(token string, maxAge time.Duration) {
	http.SetCookie(m.w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
		Expires:  time.Now().Add(maxAge),
	})
	m.written = &token
}

func (m *CookieMirror) ClearToken() {
	http.SetCookie(m.w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
	empty := ""
	m.written = &empty
}

func (m *CookieMirror) ReadToken() (string, bool) {
	if m.written != nil {
		return *m.written, *m.written != ""
	}
	return ReadTokenCookie(m.r)
}

// ReadTokenCookie returns the mirrored token carried by a request.
func ReadTokenCookie(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	c, err := r.Cookie(TokenCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}
