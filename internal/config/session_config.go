package config

import "time"

const (
	MinCookieMaxAge     = 7 * 24 * time.Hour
	MaxCookieMaxAge     = 30 * 24 * time.Hour
	DefaultCookieMaxAge = 7 * 24 * time.Hour
)

type SessionConfig interface {
	GetCookieMaxAge() time.Duration
	GetRefreshThreshold() time.Duration
	GetSessionMaxAge() time.Duration
	GetSessionStore() string
	GetBackendTimeout() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

// GetCookieMaxAge is the lifetime of the mirrored auth_token cookie, clamped to 7-30 days.
func (Session) GetCookieMaxAge() time.Duration {
	return ClampCookieMaxAge(GetEnvDuration("COOKIE_MAX_AGE", DefaultCookieMaxAge))
}

// GetRefreshThreshold is the remaining token lifetime under which a refresh is attempted.
func (Session) GetRefreshThreshold() time.Duration {
	return GetEnvDuration("REFRESH_THRESHOLD", 24*time.Hour)
}

// GetSessionMaxAge is how long an untouched session entry is kept in the repo.
func (Session) GetSessionMaxAge() time.Duration {
	return GetEnvDuration("SESSION_MAX_AGE", MaxCookieMaxAge)
}

// GetSessionStore selects the session repo: memory, file or sqlite.
func (Session) GetSessionStore() string {
	return GetEnv("SESSION_STORE", "file")
}

func (Session) GetBackendTimeout() time.Duration {
	return GetEnvDuration("BACKEND_TIMEOUT", 10*time.Second)
}

func ClampCookieMaxAge(d time.Duration) time.Duration {
	if d < MinCookieMaxAge {
		return MinCookieMaxAge
	}
	if d > MaxCookieMaxAge {
		return MaxCookieMaxAge
	}
	return d
}
