// Package fakebackend is an in-process implementation of the housing backend's
// auth endpoints. The gateway runs against it when MOCK_BACKEND is set, and the
// tests use it through httptest.
package fakebackend

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/go-dashboard-gateway/backend"
	"github.com/jrsteele09/go-dashboard-gateway/internal/errors"
	"github.com/jrsteele09/go-dashboard-gateway/token"
	"github.com/jrsteele09/go-dashboard-gateway/token/jwt"
	"github.com/jrsteele09/go-dashboard-gateway/users"
	fakeuserrepo "github.com/jrsteele09/go-dashboard-gateway/users/repofake"
	"github.com/rs/zerolog/log"
)

// Server serves the backend auth contract under prefix (e.g. "/api").
type Server struct {
	mux       *http.ServeMux
	users     users.UserRepo
	creator   *jwt.Creator
	inspector *jwt.Inspector
	revoked   token.RevokedTokenCache

	unavailable atomic.Bool
	refreshes   atomic.Int64
	logouts     atomic.Int64
}

// New creates a backend signing tokens with secret and a lifetime of expiry.
func New(prefix string, secret []byte, expiry time.Duration) *Server {
	signer := token.NewHMACSigner(secret)
	revoked := token.NewRevocationList()
	s := &Server{
		mux:       http.NewServeMux(),
		users:     fakeuserrepo.NewFakeUserRepo(),
		creator:   jwt.NewCreator(signer, expiry),
		inspector: jwt.NewInspector(token.NewDecoder(signer), revoked),
		revoked:   revoked,
	}
	prefix = strings.TrimSuffix(prefix, "/")
	s.mux.HandleFunc("POST "+prefix+backend.PathLogin, s.LoginHandler())
	s.mux.HandleFunc("POST "+prefix+backend.PathLogout, s.LogoutHandler())
	s.mux.HandleFunc("POST "+prefix+backend.PathRefreshToken, s.RefreshHandler())
	s.mux.HandleFunc("GET "+prefix+backend.PathCurrentUser, s.CurrentUserHandler())
	s.mux.HandleFunc("GET "+prefix+backend.PathValidateToken, s.ValidateHandler())
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.unavailable.Load() {
		http.Error(w, "backend unavailable", http.StatusServiceUnavailable)
		return
	}
	s.mux.ServeHTTP(w, r)
}

// AddUser stores user with a bcrypt hash of password.
func (s *Server) AddUser(user users.User, password string) error {
	hash, err := users.HashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.users.Upsert(&user)
}

// IssueToken mints a token for a stored user, expiring at exp.
func (s *Server) IssueToken(userID string, exp time.Time) (string, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return "", err
	}
	return s.creator.CreateAccessTokenWithExpiry(user, exp)
}

// SetUnavailable makes every endpoint answer 503.
func (s *Server) SetUnavailable(down bool) {
	s.unavailable.Store(down)
}

func (s *Server) RefreshCount() int64 { return s.refreshes.Load() }
func (s *Server) LogoutCount() int64  { return s.logouts.Load() }

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req backend.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, backend.Response{Message: "invalid request body"})
			return
		}

		user, err := s.users.GetByEmail(req.Email)
		if err != nil || !users.CheckPasswordHash(req.Password, user.PasswordHash) {
			writeJSON(w, http.StatusUnauthorized, backend.Response{Message: "Invalid email or password"})
			return
		}

		raw, err := s.creator.CreateAccessToken(user)
		if err != nil {
			log.Err(err).Msg("fakebackend: failed to create token")
			writeJSON(w, http.StatusInternalServerError, backend.Response{Message: "token error"})
			return
		}
		writeJSON(w, http.StatusOK, backend.Response{
			Success: true,
			Data:    &backend.AuthPayload{Token: raw, User: user.Public()},
		})
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.logouts.Add(1)
		s.revoked.Cleanup(time.Now())
		if claims, err := s.inspector.Inspect(bearer(r)); err == nil && claims.ID != "" {
			_ = s.revoked.Add(claims.ID, claims.ExpiresAt)
		}
		writeJSON(w, http.StatusOK, backend.Response{Success: true, Message: "logged out"})
	}
}

func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.refreshes.Add(1)
		user, ok := s.authenticate(w, r)
		if !ok {
			return
		}
		raw, err := s.creator.CreateAccessToken(user)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, backend.Response{Message: "token error"})
			return
		}
		writeJSON(w, http.StatusOK, backend.Response{Success: true, Data: &backend.AuthPayload{Token: raw}})
	}
}

func (s *Server) CurrentUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authenticate(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, backend.Response{Success: true, Data: &backend.AuthPayload{User: user.Public()}})
	}
}

func (s *Server) ValidateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.authenticate(w, r); !ok {
			return
		}
		writeJSON(w, http.StatusOK, backend.Response{Success: true, Message: "token valid"})
	}
}

// authenticate resolves the bearer token to a stored user or writes a 401.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (*users.User, bool) {
	claims, err := s.inspector.Inspect(bearer(r))
	if err != nil {
		msg := "invalid token"
		if errors.Is(err, errors.ErrTokenExpired) {
			msg = "token expired"
		}
		writeJSON(w, http.StatusUnauthorized, backend.Response{Message: msg})
		return nil, false
	}
	user, err := s.users.GetByID(claims.Subject)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, backend.Response{Message: "unknown user"})
		return nil, false
	}
	return user, true
}

func bearer(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeJSON(w http.ResponseWriter, status int, body backend.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
