package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	folderEnvVar   = "FOLDER"
	baseURLVar     = "BASE_URL"
	backendURLVar  = "BACKEND_URL"
	upstreamURLVar = "UPSTREAM_URL"
	mockBackendVar = "MOCK_BACKEND"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Housing Dashboard")
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

// GetBaseURL returns the public URL of the dashboard (e.g., "https://dashboard.example.com").
// It decides whether cookies are issued with the Secure flag.
func (EnvVars) GetBaseURL() string {
	return GetEnv(baseURLVar, "http://localhost:8080")
}

// GetBackendURL returns the base URL of the housing REST backend.
func (EnvVars) GetBackendURL() string {
	return strings.TrimSuffix(GetEnv(backendURLVar, "http://localhost:5000/api"), "/")
}

// GetUpstreamURL returns the dashboard front-end that guarded pages are proxied to.
// Empty means pages are rendered by the gateway itself.
func (EnvVars) GetUpstreamURL() string {
	return GetEnv(upstreamURLVar, "")
}

func (EnvVars) GetMockBackend() bool {
	return GetEnvBool(mockBackendVar, false)
}

func (EnvVars) GetRoutesFile() string {
	return GetEnv("ROUTES_FILE", "")
}

func (EnvVars) GetLogFile() string {
	return GetEnv("LOG_FILE", "")
}

func (EnvVars) GetLogLevel() string {
	return GetEnv("LOG_LEVEL", "info")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvBool(envVar string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return value
}

// GetEnvDuration reads a Go duration string ("36h", "15m"). Invalid or
// non-positive values fall back to the default.
func GetEnvDuration(envVar string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(envVar))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
