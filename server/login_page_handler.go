package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-dashboard-gateway/guard"
	"github.com/jrsteele09/go-dashboard-gateway/internal/errors"
	"github.com/jrsteele09/go-dashboard-gateway/metrics"
	"github.com/jrsteele09/go-dashboard-gateway/routes"
	"github.com/rs/zerolog/log"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgMissingCredentials = "Email and password are required"
	msgBackendUnavailable = "The housing service is unavailable. Please try again shortly."
	msgBackendError       = "Sign in failed. Please try again."
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	AppName     string
	Error       string
	Email       string // Preserve email on error
	CallbackURL string // Where to go after a successful login
}

// InfoPageData is a static page reachable without signing in.
type InfoPageData struct {
	AppName  string
	Title    string
	Message  string
	LinkURL  string
	LinkText string
}

var (
	registerInfo = InfoPageData{
		Title:    "Request access",
		Message:  "Dashboard accounts are created by your company administrator. Ask them to invite you with your work email address.",
		LinkURL:  routes.LoginPath,
		LinkText: "Back to sign in",
	}
	forgotPasswordInfo = InfoPageData{
		Title:    "Forgot password",
		Message:  "Password resets are handled by your company administrator. Contact them to have a new password issued.",
		LinkURL:  routes.LoginPath,
		LinkText: "Back to sign in",
	}
)

// IndexHandler sends the root to the dashboard; the guard takes it from there.
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, routes.LandingPath, http.StatusSeeOther)
	}
}

// LoginPageHandler displays the login page (GET /auth/login)
func (s *Server) LoginPageHandler() http.HandlerFunc {
	loginTmpl := mustParseTemplate("login.html")

	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		data := LoginPageData{
			AppName:     s.config.GetAppName(),
			Error:       query.Get("error"),
			Email:       query.Get("email"),
			CallbackURL: guard.SafeCallback(query.Get(routes.CallbackParam)),
		}
		renderTemplate(w, loginTmpl, http.StatusOK, data)
	}
}

// LoginSubmissionHandler processes the login form submission (POST /auth/login)
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	loginTmpl := mustParseTemplate("login.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("password")
		callback := guard.SafeCallback(r.FormValue(routes.CallbackParam))

		rerender := func(status int, msg string) {
			renderTemplate(w, loginTmpl, status, LoginPageData{
				AppName:     s.config.GetAppName(),
				Error:       msg,
				Email:       email,
				CallbackURL: callback,
			})
		}

		if email == "" || password == "" {
			rerender(http.StatusBadRequest, msgMissingCredentials)
			return
		}

		payload, err := s.backend.Login(r.Context(), email, password)
		switch {
		case err == nil:
		case errors.Is(err, errors.ErrInvalidCredentials):
			metrics.RecordLogin("invalid_credentials")
			log.Info().Str("email", email).Msg("login rejected")
			rerender(http.StatusUnauthorized, msgInvalidCredentials)
			return
		case errors.Is(err, errors.ErrNetworkFailure):
			metrics.RecordLogin("error")
			log.Err(err).Msg("login: backend unreachable")
			rerender(http.StatusServiceUnavailable, msgBackendUnavailable)
			return
		default:
			metrics.RecordLogin("error")
			log.Err(err).Msg("login: backend error")
			rerender(http.StatusBadGateway, msgBackendError)
			return
		}

		store := s.sessions.OpenRequest(w, r)
		if err := store.Login(payload.Token, payload.User); err != nil {
			metrics.RecordLogin("error")
			log.Err(err).Str("email", email).Msg("login: session not stored")
			rerender(http.StatusBadGateway, msgBackendError)
			return
		}

		metrics.RecordLogin("success")
		log.Info().Str("user", payload.User.ID).Str("role", payload.User.Role.String()).Msg("user logged in")
		http.Redirect(w, r, callback, http.StatusSeeOther)
	}
}

// LogoutHandler tells the backend (best effort), clears the session and returns to the login page.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store := s.sessions.OpenRequest(w, r)

		if tok := store.Snapshot().Token; tok != "" {
			if err := s.backend.Logout(r.Context(), tok); err != nil {
				log.Warn().Err(err).Str("session", store.ID()).Msg("backend logout failed, clearing session anyway")
			}
		}
		if err := store.Logout(); err != nil {
			log.Err(err).Str("session", store.ID()).Msg("logout: session not cleared")
			http.Error(w, "Failed to log out", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, routes.LoginPath, http.StatusSeeOther)
	}
}

// InfoPageHandler renders a static informational page.
func (s *Server) InfoPageHandler(info InfoPageData) http.HandlerFunc {
	infoTmpl := mustParseTemplate("info.html")

	return func(w http.ResponseWriter, r *http.Request) {
		data := info
		data.AppName = s.config.GetAppName()
		renderTemplate(w, infoTmpl, http.StatusOK, data)
	}
}
