package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-dashboard-gateway/guard"
	"github.com/jrsteele09/go-dashboard-gateway/internal/errors"
	"github.com/jrsteele09/go-dashboard-gateway/metrics"
	"github.com/jrsteele09/go-dashboard-gateway/sessions"
	"github.com/jrsteele09/go-dashboard-gateway/token"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyStore holds the credential store opened for the request
	ContextKeyStore ContextKey = "session_store"
)

// GuardedPage is the middleware every navigable page goes through: the
// cookie-only edge check first, then the full route guard.
func (s *Server) GuardedPage() []func(http.HandlerFunc) http.HandlerFunc {
	return []func(http.HandlerFunc) http.HandlerFunc{
		s.EdgeMiddleware,
		s.GuardMiddleware,
	}
}

// EdgeMiddleware redirects using only the auth_token cookie, before any session
// state is loaded. Static assets and API routes are never checked.
func (s *Server) EdgeMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.guard.Matcher().Excluded(r.URL.Path) {
			next(w, r)
			return
		}

		var claims *token.Claims
		if raw, ok := sessions.ReadTokenCookie(r); ok {
			// An unreadable cookie counts as no cookie.
			claims, _ = s.sessions.Decoder().Decode(raw)
		}

		decision := s.guard.EdgeCheck(r.URL.RequestURI(), claims, s.sessions.Now())
		metrics.RecordEdgeDecision(string(decision.State), string(decision.Reason))
		if decision.State == guard.Redirecting {
			http.Redirect(w, r, decision.Target, http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// GuardMiddleware opens the browser's credential store, runs the route guard
// and, for pages that render, refreshes a token that is close to expiry.
func (s *Server) GuardMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store := s.sessions.OpenRequest(w, r)
		store.SyncMirror()

		decision := s.guard.Evaluate(r.Context(), r.URL.RequestURI(), store)
		metrics.RecordGuardDecision(string(decision.State), string(decision.Reason))

		switch decision.State {
		case guard.Checking:
			// The navigation was abandoned; nobody is listening for an answer.
			return
		case guard.Redirecting:
			if decision.Reason == guard.ReasonUnauthenticated {
				if _, kept := store.MirroredToken(); kept {
					// CheckAuth kept the cookie, so the backend could not be reached.
					// Redirecting to login would bounce straight back here.
					s.renderUnavailable(w, r)
					return
				}
			}
			log.Debug().Str("path", r.URL.Path).Str("reason", string(decision.Reason)).Str("target", decision.Target).Msg("guard redirect")
			http.Redirect(w, r, decision.Target, http.StatusSeeOther)
			return
		}

		if store.IsAuthenticated() && store.ShouldRefreshToken() {
			s.refresh(r.Context(), store)
		}

		next(w, r.WithContext(context.WithValue(r.Context(), ContextKeyStore, store)))
	}
}

// refresh runs RefreshAuth and records its outcome. Failures keep the current token.
func (s *Server) refresh(ctx context.Context, store *sessions.Store) error {
	err := store.RefreshAuth(ctx)
	switch {
	case err == nil:
		metrics.RecordRefresh("success")
	case errors.Is(err, errors.ErrStaleResult):
		metrics.RecordRefresh("stale")
	default:
		metrics.RecordRefresh("error")
		log.Warn().Err(err).Str("session", store.ID()).Msg("token refresh failed")
	}
	return err
}

// storeFromContext returns the store GuardMiddleware attached, or opens one.
func (s *Server) storeFromContext(w http.ResponseWriter, r *http.Request) *sessions.Store {
	if store, ok := r.Context().Value(ContextKeyStore).(*sessions.Store); ok {
		return store
	}
	return s.sessions.OpenRequest(w, r)
}
