package sessions

import (
	"context"

	apperrors "github.com/jrsteele09/go-dashboard-gateway/internal/errors"
	"github.com/jrsteele09/go-dashboard-gateway/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ShouldRefreshToken is true when the held token is still valid but has less
// than the refresh threshold left. It never touches the network.
func (s *Store) ShouldRefreshToken() bool {
	return token.ShouldRefresh(s.claims(), s.manager.nowTime(), s.manager.refreshThreshold)
}

// RefreshAuth asks the backend for a new token and stores it. On failure the
// current token is kept until it expires. A refreshed token is discarded when
// the session was logged out, logged in again, or refreshed by another request
// while the call was in flight, or when ctx was cancelled.
func (s *Store) RefreshAuth(ctx context.Context) error {
	unlock := s.manager.locks.Lock(s.id)
	cur := s.load()
	unlock()

	if !cur.IsAuthenticated {
		return errors.Wrap(apperrors.ErrNotAuthenticated, "[Store RefreshAuth]")
	}

	newToken, err := s.manager.backend.RefreshToken(ctx, cur.Token)
	if err != nil {
		log.Warn().Err(err).Str("session", s.id).Str("token", maskedToken(cur.Token)).Msg("token refresh failed, keeping current token")
		return errors.Wrap(err, "[Store RefreshAuth] backend refresh")
	}
	if _, err := s.manager.decoder.Validate(newToken, s.manager.nowTime()); err != nil {
		return errors.Wrap(apperrors.ErrInvalidResponse, "[Store RefreshAuth] refreshed token unusable: "+err.Error())
	}

	unlock = s.manager.locks.Lock(s.id)
	defer unlock()

	if ctx.Err() != nil {
		return errors.Wrap(apperrors.ErrStaleResult, "[Store RefreshAuth] request cancelled")
	}
	latest := s.load()
	if !latest.IsAuthenticated || latest.Generation != cur.Generation || latest.Token != cur.Token {
		return errors.Wrap(apperrors.ErrStaleResult, "[Store RefreshAuth] session changed during refresh")
	}

	if err := s.refreshTokenLocked(newToken); err != nil {
		return err
	}
	log.Debug().Str("session", s.id).Str("token", maskedToken(newToken)).Msg("token refreshed")
	return nil
}
