package sessions

import (
	"context"
	"time"

	apperrors "github.com/jrsteele09/go-dashboard-gateway/internal/errors"
	"github.com/jrsteele09/go-dashboard-gateway/internal/logging"
	"github.com/jrsteele09/go-dashboard-gateway/token"
	"github.com/jrsteele09/go-dashboard-gateway/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Store is the credential store of one browser session. It is the only writer
// of session state; every mutation is persisted to the repo and mirrored into
// the token cookie. Store handles are request scoped; concurrent handles for
// the same id are serialised by the manager's per-id lock.
type Store struct {
	id      string
	manager *Manager
	mirror  TokenMirror
	state   Session

	// setIDCookie is set for stores opened from a request. Such stores move to
	// a fresh id whenever they log in.
	setIDCookie func(id string)
}

// ID returns the session id the store is bound to.
func (s *Store) ID() string {
	return s.id
}

// Snapshot returns a copy of the state as last loaded or written by this handle.
func (s *Store) Snapshot() Session {
	return s.state.Clone()
}

// User returns the current user, nil when logged out.
func (s *Store) User() *users.User {
	if !s.state.IsAuthenticated {
		return nil
	}
	return s.Snapshot().User
}

// IsAuthenticated reports the authenticated flag as last seen.
func (s *Store) IsAuthenticated() bool {
	return s.state.IsAuthenticated
}

// Login stores token and user, marks the session authenticated and mirrors
// the token into the cookie.
func (s *Store) Login(token string, user *users.User) error {
	if token == "" || !user.Valid() {
		return errors.Wrap(apperrors.ErrInvalidRequest, "[Store Login] token and valid user required")
	}
	unlock := s.manager.locks.Lock(s.id)
	defer unlock()

	return s.loginLocked(token, user)
}

func (s *Store) loginLocked(token string, user *users.User) error {
	cur := s.load()
	next := Session{
		Version:         CurrentVersion,
		Token:           token,
		User:            user.Public(),
		IsAuthenticated: true,
		Generation:      cur.Generation + 1,
		UpdatedAt:       s.manager.nowTime(),
	}
	if s.setIDCookie != nil {
		if err := s.manager.rotateLocked(s, &next); err != nil {
			return err
		}
	} else if err := s.manager.repo.Upsert(s.id, &next); err != nil {
		return errors.Wrap(err, "[Store Login] failed to persist session")
	}
	s.state = next
	s.mirror.SetToken(token, s.manager.cookieMaxAge)
	return nil
}

// Logout clears token and user and deletes the mirrored cookie. Calling it on
// a logged out session is harmless.
func (s *Store) Logout() error {
	unlock := s.manager.locks.Lock(s.id)
	defer unlock()

	return s.logoutLocked()
}

func (s *Store) logoutLocked() error {
	cur := s.load()
	next := Session{
		Version:    CurrentVersion,
		Generation: cur.Generation + 1,
		UpdatedAt:  s.manager.nowTime(),
	}
	// The cookie goes first: a failed write must not leave a usable replica behind.
	s.mirror.ClearToken()
	s.state = next
	if err := s.manager.repo.Upsert(s.id, &next); err != nil {
		return errors.Wrap(err, "[Store Logout] failed to persist session")
	}
	return nil
}

// RefreshToken replaces the token of an authenticated session, leaving user
// and authenticated flag as they are.
func (s *Store) RefreshToken(newToken string) error {
	if newToken == "" {
		return errors.Wrap(apperrors.ErrInvalidRequest, "[Store RefreshToken] empty token")
	}
	unlock := s.manager.locks.Lock(s.id)
	defer unlock()

	return s.refreshTokenLocked(newToken)
}

func (s *Store) refreshTokenLocked(newToken string) error {
	cur := s.load()
	if !cur.IsAuthenticated {
		return errors.Wrap(apperrors.ErrNotAuthenticated, "[Store RefreshToken]")
	}
	cur.Token = newToken
	cur.UpdatedAt = s.manager.nowTime()
	if err := s.manager.repo.Upsert(s.id, &cur); err != nil {
		return errors.Wrap(err, "[Store RefreshToken] failed to persist session")
	}
	s.state = cur
	s.mirror.SetToken(newToken, s.manager.cookieMaxAge)
	return nil
}

// CheckAuth reports whether the session holds a valid token, recovering it from
// the mirrored cookie when the stored state has none. Expired or malformed
// tokens force a logout. A result for a cancelled ctx is never applied.
func (s *Store) CheckAuth(ctx context.Context) bool {
	unlock := s.manager.locks.Lock(s.id)
	cur := s.load()

	if cur.IsAuthenticated && cur.Token != "" {
		_, err := s.manager.decoder.Validate(cur.Token, s.manager.nowTime())
		if err == nil {
			unlock()
			return true
		}
		s.forceLogoutLocked("stored token rejected", err)
		unlock()
		return false
	}

	raw, ok := s.mirror.ReadToken()
	if !ok {
		if cur.IsAuthenticated {
			s.forceLogoutLocked("authenticated without token", apperrors.ErrTokenMalformed)
		}
		unlock()
		return false
	}

	if _, err := s.manager.decoder.Validate(raw, s.manager.nowTime()); err != nil {
		s.forceLogoutLocked("cookie token rejected", err)
		unlock()
		return false
	}
	generation := cur.Generation
	unlock()

	user, err := s.manager.backend.CurrentUser(ctx, raw)

	unlock = s.manager.locks.Lock(s.id)
	defer unlock()

	if ctx.Err() != nil {
		log.Debug().Str("session", s.id).Msg("check auth superseded, result discarded")
		return false
	}
	cur = s.load()
	if cur.Generation != generation {
		// Someone logged in or out meanwhile; their state wins, cookie included.
		if !cur.IsAuthenticated {
			s.mirror.ClearToken()
			return false
		}
		if mirrored, _ := s.mirror.ReadToken(); mirrored != cur.Token {
			s.mirror.SetToken(cur.Token, s.manager.cookieMaxAge)
		}
		return true
	}

	switch {
	case err == nil && user.Valid():
	case err == nil:
		s.forceLogoutLocked("backend returned unusable user", apperrors.ErrInvalidResponse)
		return false
	case apperrors.Is(err, apperrors.ErrNetworkFailure):
		// The cookie is kept so the session comes back once the backend does.
		log.Warn().Err(err).Str("session", s.id).Msg("could not rehydrate session")
		return false
	default:
		s.forceLogoutLocked("backend rejected cookie token", err)
		return false
	}

	if err := s.loginLocked(raw, user); err != nil {
		log.Err(err).Str("session", s.id).Msg("failed to rehydrate session")
		return false
	}
	log.Info().Str("session", s.id).Str("user", user.ID).Str("token", maskedToken(raw)).Msg("session rehydrated from cookie")
	return true
}

// MirroredToken reads the token cookie as the browser will see it after this request.
func (s *Store) MirroredToken() (string, bool) {
	return s.mirror.ReadToken()
}

// SyncMirror rewrites the token cookie when it no longer matches the stored
// token, e.g. after the browser dropped it. The edge check relies on it.
func (s *Store) SyncMirror() {
	unlock := s.manager.locks.Lock(s.id)
	defer unlock()

	cur := s.load()
	if !cur.IsAuthenticated {
		return
	}
	if raw, ok := s.mirror.ReadToken(); ok && raw == cur.Token {
		return
	}
	s.mirror.SetToken(cur.Token, s.manager.cookieMaxAge)
}

// Validate asks the backend whether the held token is still accepted. A
// rejection logs the session out; a network failure leaves it untouched.
func (s *Store) Validate(ctx context.Context) (bool, error) {
	unlock := s.manager.locks.Lock(s.id)
	cur := s.load()
	unlock()
	if !cur.IsAuthenticated {
		return false, nil
	}

	valid, err := s.manager.backend.ValidateToken(ctx, cur.Token)
	if err != nil {
		return false, errors.Wrap(err, "[Store Validate]")
	}
	if valid {
		return true, nil
	}

	unlock = s.manager.locks.Lock(s.id)
	defer unlock()
	if ctx.Err() != nil || s.load().Generation != cur.Generation {
		return false, apperrors.ErrStaleResult
	}
	s.forceLogoutLocked("backend rejected token", apperrors.ErrTokenExpired)
	return false, nil
}

func (s *Store) forceLogoutLocked(reason string, cause error) {
	log.Info().Err(cause).Str("session", s.id).Msg("forcing logout: " + reason)
	if err := s.logoutLocked(); err != nil {
		log.Err(err).Str("session", s.id).Msg("forced logout failed to persist")
	}
}

// load reads the persisted record. Absent or unusable records are an empty session.
func (s *Store) load() Session {
	stored, err := s.manager.repo.Get(s.id)
	if err != nil || !stored.Usable() {
		if err != nil && !apperrors.Is(err, apperrors.ErrSessionNotFound) {
			log.Warn().Err(err).Str("session", s.id).Msg("session unreadable, treating as absent")
		}
		s.state = Session{Version: CurrentVersion}
		return s.state.Clone()
	}
	s.state = stored.Clone()
	return stored.Clone()
}

// claims decodes the current token, nil when there is none or it is unreadable.
func (s *Store) claims() *token.Claims {
	if !s.state.IsAuthenticated || s.state.Token == "" {
		return nil
	}
	c, err := s.manager.decoder.Decode(s.state.Token)
	if err != nil {
		return nil
	}
	return c
}

// ExpiresAt returns the expiry of the held token, zero when there is none.
func (s *Store) ExpiresAt() time.Time {
	if c := s.claims(); c != nil {
		return c.ExpiresAt
	}
	return time.Time{}
}

func maskedToken(raw string) string {
	return logging.MaskToken(raw)
}
