package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jrsteele09/go-dashboard-gateway/internal/errors"
	"github.com/jrsteele09/go-dashboard-gateway/metrics"
	"github.com/jrsteele09/go-dashboard-gateway/permissions"
	"github.com/jrsteele09/go-dashboard-gateway/sessions"
	"github.com/jrsteele09/go-dashboard-gateway/users"
	"github.com/rs/zerolog/log"
)

const contentTypeJSON = "application/json"

// SessionResponse is the snapshot front-end code uses to gate its controls.
// The token itself never leaves the gateway in a response body.
type SessionResponse struct {
	IsAuthenticated bool                     `json:"isAuthenticated"`
	User            *users.User              `json:"user,omitempty"`
	Role            users.RoleType           `json:"role,omitempty"`
	Permissions     []permissions.Permission `json:"permissions"`
	ExpiresAt       *time.Time               `json:"expiresAt,omitempty"`
	ShouldRefresh   bool                     `json:"shouldRefresh"`
}

type PermissionResponse struct {
	Permission permissions.Permission `json:"permission"`
	Allowed    bool                   `json:"allowed"`
}

type RefreshResponse struct {
	ExpiresAt time.Time `json:"expiresAt"`
}

type ValidateResponse struct {
	Valid bool `json:"valid"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// authenticatedStore opens the request's store and runs CheckAuth so API calls
// recover a session lost by a gateway restart just like page loads do.
func (s *Server) authenticatedStore(w http.ResponseWriter, r *http.Request) (*sessions.Store, bool) {
	store := s.storeFromContext(w, r)
	return store, store.CheckAuth(r.Context())
}

// RefreshHandler exchanges the held token for a fresh one (POST /api/auth/refresh)
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := s.authenticatedStore(w, r)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, errors.ErrNotAuthenticated.Error())
			return
		}

		if err := s.refresh(r.Context(), store); err != nil {
			status := http.StatusBadGateway
			switch {
			case errors.Is(err, errors.ErrStaleResult):
				status = http.StatusConflict
			case errors.Is(err, errors.ErrNotAuthenticated), errors.IsTokenInvalid(err):
				status = http.StatusUnauthorized
			case errors.Is(err, errors.ErrNetworkFailure):
				status = http.StatusServiceUnavailable
			}
			writeJSONError(w, status, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, RefreshResponse{ExpiresAt: store.ExpiresAt()})
	}
}

// SessionHandler returns the session snapshot and the user's permissions (GET /api/auth/session)
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := s.authenticatedStore(w, r)
		if !ok {
			writeJSON(w, http.StatusOK, SessionResponse{Permissions: []permissions.Permission{}})
			return
		}

		user := store.User()
		resolver := permissions.NewResolver(user)
		resp := SessionResponse{
			IsAuthenticated: true,
			User:            user.Public(),
			Role:            resolver.Role(),
			Permissions:     resolver.Permissions(),
			ShouldRefresh:   store.ShouldRefreshToken(),
		}
		if exp := store.ExpiresAt(); !exp.IsZero() {
			resp.ExpiresAt = &exp
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// PermissionHandler reports whether the current user holds one permission
// (GET /api/auth/permissions/{permission})
func (s *Server) PermissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		perm := permissions.Permission(r.PathValue("permission"))
		if !permissions.Known(perm) {
			writeJSONError(w, http.StatusBadRequest, "unknown permission: "+string(perm))
			return
		}

		store, ok := s.authenticatedStore(w, r)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, errors.ErrNotAuthenticated.Error())
			return
		}

		writeJSON(w, http.StatusOK, PermissionResponse{
			Permission: perm,
			Allowed:    permissions.NewResolver(store.User()).Can(perm),
		})
	}
}

// ValidateHandler asks the backend whether the held token is still accepted
// (GET /api/auth/validate). A rejected token logs the session out.
func (s *Server) ValidateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := s.authenticatedStore(w, r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, ValidateResponse{Valid: false})
			return
		}

		valid, err := store.Validate(r.Context())
		switch {
		case errors.Is(err, errors.ErrStaleResult):
			writeJSONError(w, http.StatusConflict, err.Error())
		case errors.Is(err, errors.ErrNetworkFailure):
			writeJSONError(w, http.StatusServiceUnavailable, err.Error())
		case err != nil:
			writeJSONError(w, http.StatusBadGateway, err.Error())
		case !valid:
			writeJSON(w, http.StatusUnauthorized, ValidateResponse{Valid: false})
		default:
			writeJSON(w, http.StatusOK, ValidateResponse{Valid: true})
		}
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) MetricsHandler() http.Handler {
	return metrics.Handler()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("Failed to encode JSON response")
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
