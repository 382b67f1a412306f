package sessions

import (
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-dashboard-gateway/backend"
	"github.com/jrsteele09/go-dashboard-gateway/internal/config"
	apperrors "github.com/jrsteele09/go-dashboard-gateway/internal/errors"
	"github.com/jrsteele09/go-dashboard-gateway/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var validSessionID = regexp.MustCompile(`^[A-Za-z0-9-]{16,64}$`)

// Manager hands out Store handles and owns everything they share: the repo,
// the backend client, the token decoder and the per-session locks.
type Manager struct {
	repo    Repo
	backend backend.Client
	decoder *token.Decoder
	locks   *keyLock

	cookieMaxAge     time.Duration
	refreshThreshold time.Duration
	sessionMaxAge    time.Duration
	secureCookies    bool
	nowTime          func() time.Time
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithCookieMaxAge sets the mirrored cookie lifetime, clamped to 7-30 days.
func WithCookieMaxAge(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.cookieMaxAge = config.ClampCookieMaxAge(d)
	}
}

// WithRefreshThreshold sets the remaining lifetime under which tokens are refreshed.
func WithRefreshThreshold(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.refreshThreshold = d
	}
}

// WithSessionMaxAge sets how long untouched sessions survive Cleanup.
func WithSessionMaxAge(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.sessionMaxAge = d
	}
}

// WithSecureCookies sets the Secure flag on every cookie the manager writes.
func WithSecureCookies(secure bool) ManagerOption {
	return func(m *Manager) {
		m.secureCookies = secure
	}
}

// NewManager validates its dependencies and applies options.
func NewManager(repo Repo, client backend.Client, decoder *token.Decoder, options ...ManagerOption) (*Manager, error) {
	if repo == nil {
		return nil, errors.New("[NewManager] session repo is required")
	}
	if client == nil {
		return nil, errors.New("[NewManager] backend client is required")
	}
	if decoder == nil {
		return nil, errors.New("[NewManager] token decoder is required")
	}

	m := &Manager{
		repo:             repo,
		backend:          client,
		decoder:          decoder,
		locks:            newKeyLock(),
		cookieMaxAge:     config.DefaultCookieMaxAge,
		refreshThreshold: 24 * time.Hour,
		sessionMaxAge:    config.MaxCookieMaxAge,
		secureCookies:    true,
		nowTime:          time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Open binds a store to id and loads its persisted state. This is the
// synchronous half of the boot sequence; CheckAuth is the asynchronous half.
func (m *Manager) Open(id string, mirror TokenMirror) *Store {
	s := &Store{id: id, manager: m, mirror: mirror}
	unlock := m.locks.Lock(id)
	s.load()
	unlock()
	return s
}

// OpenRequest resolves the browser's session from its cookie, issuing a new
// session id when the request carries none or an invalid one. The returned
// store moves to a fresh id on every login.
func (m *Manager) OpenRequest(w http.ResponseWriter, r *http.Request) *Store {
	id := ""
	if c, err := r.Cookie(SessionCookieName); err == nil && validSessionID.MatchString(c.Value) {
		id = c.Value
	}
	if id == "" {
		id = uuid.New().String()
	}
	// Re-issued on every open so the id lives as long as the token cookie.
	m.setSessionCookie(w, id)
	s := m.Open(id, NewCookieMirror(w, r, m.secureCookies))
	s.setIDCookie = func(id string) { m.setSessionCookie(w, id) }
	return s
}

func (m *Manager) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.cookieMaxAge.Seconds()),
	})
}

// rotateLocked persists next under a fresh id and drops the record held under
// the old one. Callers hold the old id's lock; nobody else knows the new id yet.
func (m *Manager) rotateLocked(s *Store, next *Session) error {
	newID := uuid.New().String()
	if err := m.repo.Upsert(newID, next); err != nil {
		return errors.Wrap(err, "[Manager rotate] failed to persist session")
	}
	if err := m.repo.Delete(s.id); err != nil && !apperrors.Is(err, apperrors.ErrSessionNotFound) {
		log.Warn().Err(err).Str("session", s.id).Msg("could not remove rotated session")
	}
	s.setIDCookie(newID)
	s.id = newID
	return nil
}

// Decoder returns the token decoder shared with the edge check.
func (m *Manager) Decoder() *token.Decoder {
	return m.decoder
}

// Backend returns the backend client used for refresh and rehydration.
func (m *Manager) Backend() backend.Client {
	return m.backend
}

// Now returns the manager's clock reading.
func (m *Manager) Now() time.Time {
	return m.nowTime()
}

// Cleanup deletes sessions untouched for longer than the session max age.
func (m *Manager) Cleanup() (int, error) {
	n, err := m.repo.DeleteStale(m.nowTime().Add(-m.sessionMaxAge))
	if err != nil {
		return n, errors.Wrap(err, "[Manager Cleanup]")
	}
	if n > 0 {
		log.Info().Int("removed", n).Msg("stale sessions removed")
	}
	return n, nil
}
