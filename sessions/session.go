package sessions

import (
	"time"

	"github.com/jrsteele09/go-dashboard-gateway/users"
)

// CurrentVersion is the layout version of persisted sessions. Records with any
// other version are ignored on load.
const CurrentVersion = 1

// Session is the credential state of one browser. It is persisted as a single
// versioned record and mirrored into the auth_token cookie.
//
// IsAuthenticated implies Token is non-empty and was unexpired when last checked.
type Session struct {
	Version         int         `json:"version"`
	Token           string      `json:"token,omitempty"`
	User            *users.User `json:"user,omitempty"`
	IsAuthenticated bool        `json:"isAuthenticated"`
	Generation      uint64      `json:"generation"` // Bumped by login and logout
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// Clone returns a deep copy safe to hand out of the store.
func (s *Session) Clone() Session {
	if s == nil {
		return Session{Version: CurrentVersion}
	}
	c := *s
	if s.User != nil {
		u := *s.User
		c.User = &u
	}
	return c
}

// Usable reports whether the record can be trusted after loading.
func (s *Session) Usable() bool {
	if s == nil || s.Version != CurrentVersion {
		return false
	}
	if s.IsAuthenticated && (s.Token == "" || !s.User.Valid()) {
		return false
	}
	return true
}
