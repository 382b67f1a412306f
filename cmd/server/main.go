package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-dashboard-gateway/backend"
	"github.com/jrsteele09/go-dashboard-gateway/backend/fakebackend"
	"github.com/jrsteele09/go-dashboard-gateway/internal/config"
	"github.com/jrsteele09/go-dashboard-gateway/internal/logging"
	"github.com/jrsteele09/go-dashboard-gateway/metrics"
	"github.com/jrsteele09/go-dashboard-gateway/routes"
	"github.com/jrsteele09/go-dashboard-gateway/server"
	"github.com/jrsteele09/go-dashboard-gateway/sessions"
	"github.com/jrsteele09/go-dashboard-gateway/sessions/filerepo"
	fakesessionrepo "github.com/jrsteele09/go-dashboard-gateway/sessions/repofakes"
	"github.com/jrsteele09/go-dashboard-gateway/sessions/sqliterepo"
	"github.com/jrsteele09/go-dashboard-gateway/token"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const (
	mockBackendPrefix = "/mock-api"
	cleanupSchedule   = "@every 10m"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	logCloser := logging.Setup(logging.Options{Env: c.GetEnv(), Level: c.GetLogLevel(), LogFile: c.GetLogFile()})
	defer logCloser.Close()
	displayAppname(c.GetAppName())

	repo, repoCloser, err := openSessionRepo(c)
	if err != nil {
		return err
	}
	defer repoCloser.Close()

	mux := http.NewServeMux()
	secret := c.GetJWTSecret()
	backendURL := c.GetBackendURL()
	if c.GetMockBackend() {
		if len(secret) == 0 {
			secret = []byte(uuid.NewString())
		}
		fake := fakebackend.New(mockBackendPrefix, secret, 24*time.Hour)
		if err := fake.SeedDemoUsers(); err != nil {
			return fmt.Errorf("seeding demo users: %w", err)
		}
		mux.Handle(mockBackendPrefix+"/", fake)
		backendURL = "http://localhost" + c.GetPort() + mockBackendPrefix
		log.Warn().Str("backend", backendURL).Str("password", fakebackend.DemoPassword).Msg("Using the in-process mock backend with demo users")
	}

	client, err := backend.NewHTTPClient(backendURL, c.GetBackendTimeout())
	if err != nil {
		return err
	}

	var signer token.Signer
	if len(secret) > 0 {
		signer = token.NewHMACSigner(secret)
	} else {
		log.Warn().Msg("JWT_SECRET not set, token signatures are not verified locally")
	}

	manager, err := sessions.NewManager(repo, client, token.NewDecoder(signer),
		sessions.WithCookieMaxAge(c.GetCookieMaxAge()),
		sessions.WithRefreshThreshold(c.GetRefreshThreshold()),
		sessions.WithSessionMaxAge(c.GetSessionMaxAge()),
		sessions.WithSecureCookies(c.GetSecureCookies()),
	)
	if err != nil {
		return err
	}

	matcher, err := loadRoutes(c.GetRoutesFile())
	if err != nil {
		return err
	}

	options := []server.Option{server.WithMux(mux)}
	if upstream := c.GetUpstreamURL(); upstream != "" {
		target, err := url.Parse(upstream)
		if err != nil {
			return fmt.Errorf("invalid UPSTREAM_URL: %w", err)
		}
		options = append(options, server.WithUpstream(httputil.NewSingleHostReverseProxy(target)))
	}

	handler, err := server.New(c, manager, matcher, options...)
	if err != nil {
		return err
	}

	scheduler, err := startCleanup(manager)
	if err != nil {
		return err
	}
	defer func() { <-scheduler.Stop().Done() }()

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- listenAndServe(httpServer) }()

	select {
	case err := <-errCh:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

func openSessionRepo(c config.Config) (sessions.Repo, io.Closer, error) {
	folder := c.GetDataFolder()
	switch store := c.GetSessionStore(); store {
	case "memory":
		return fakesessionrepo.NewFakeSessionRepo(), nopCloser{}, nil
	case "file":
		repo, err := filerepo.NewOS(filepath.Join(folder, "sessions"))
		if err != nil {
			return nil, nil, fmt.Errorf("opening file session store: %w", err)
		}
		return repo, nopCloser{}, nil
	case "sqlite":
		if err := os.MkdirAll(folder, 0o700); err != nil {
			return nil, nil, fmt.Errorf("creating data folder: %w", err)
		}
		repo, err := sqliterepo.Open(filepath.Join(folder, "sessions.db"))
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite session store: %w", err)
		}
		return repo, repo, nil
	default:
		return nil, nil, fmt.Errorf("unknown SESSION_STORE %q (memory, file or sqlite)", store)
	}
}

func loadRoutes(filename string) (*routes.Matcher, error) {
	if filename == "" {
		return routes.Default(), nil
	}
	matcher, err := routes.Load(filename)
	if err != nil {
		return nil, fmt.Errorf("loading ROUTES_FILE: %w", err)
	}
	log.Info().Str("file", filename).Int("rules", len(matcher.Rules())).Msg("Route table loaded")
	return matcher, nil
}

// startCleanup removes session entries nobody has touched within the session max age.
func startCleanup(manager *sessions.Manager) (*cron.Cron, error) {
	scheduler := cron.New()
	_, err := scheduler.AddFunc(cleanupSchedule, func() {
		n, err := manager.Cleanup()
		if err != nil {
			log.Err(err).Msg("Session cleanup failed")
			return
		}
		metrics.RecordSessionsRemoved(n)
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling session cleanup: %w", err)
	}
	scheduler.Start()
	return scheduler, nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
