package config

import (
	"net/url"
)

type SecurityConfig interface {
	GetJWTSecret() []byte
	GetSecureCookies() bool
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetJWTSecret returns the HS256 key shared with the backend. When empty, tokens
// are decoded without signature verification and the backend stays the authority.
func (Security) GetJWTSecret() []byte {
	return []byte(GetEnv("JWT_SECRET", ""))
}

// GetSecureCookies is true unless the dashboard is served from localhost.
func (Security) GetSecureCookies() bool {
	return IsSecureBaseURL(EnvVars{}.GetBaseURL())
}

func IsSecureBaseURL(baseURL string) bool {
	u, err := url.Parse(baseURL)
	if err != nil {
		return true
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return false
	}
	return true
}
