package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-dashboard-gateway/backend"
	"github.com/jrsteele09/go-dashboard-gateway/guard"
	"github.com/jrsteele09/go-dashboard-gateway/internal/config"
	"github.com/jrsteele09/go-dashboard-gateway/routes"
	"github.com/jrsteele09/go-dashboard-gateway/sessions"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	sessions *sessions.Manager
	backend  backend.Client
	guard    *guard.Guard
	upstream http.Handler // Serves guarded pages when set, otherwise the built-in renderer does
}

type Option func(*Server)

// WithUpstream proxies guarded dashboard pages to h instead of rendering them.
func WithUpstream(h http.Handler) Option {
	return func(s *Server) {
		s.upstream = h
	}
}

// WithMux lets the caller mount extra handlers (e.g. the development backend) on the same mux.
func WithMux(mux *http.ServeMux) Option {
	return func(s *Server) {
		s.mux = mux
	}
}

func New(config config.Config, manager *sessions.Manager, matcher *routes.Matcher, options ...Option) (*Server, error) {
	if config == nil {
		return nil, fmt.Errorf("[Server New] config is required")
	}
	if manager == nil {
		return nil, fmt.Errorf("[Server New] session manager is required")
	}

	s := &Server{
		env:      config.GetEnv(),
		mux:      http.NewServeMux(),
		config:   config,
		sessions: manager,
		backend:  manager.Backend(),
		guard:    guard.New(matcher),
	}
	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes returns the registered patterns in registration order.
func (s *Server) Routes() []string {
	out := make([]string, len(s.routes))
	copy(out, s.routes)
	return out
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	log.Debug().Msgf("[%s %-7s%s] %s", color, method, ResetColor, path)
}
