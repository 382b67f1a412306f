package token

import (
	"sync"
	"time"
)

// RevokedTokenCache holds the jti of every logged-out token until that token
// would have expired anyway.
type RevokedTokenCache interface {
	Add(jti string, exp time.Time) error
	IsRevoked(jti string) bool
	Cleanup(now time.Time)
}

// RevocationList is the in-memory RevokedTokenCache.
type RevocationList struct {
	mu      sync.RWMutex
	expires map[string]time.Time
}

var _ RevokedTokenCache = (*RevocationList)(nil)

func NewRevocationList() *RevocationList {
	return &RevocationList{expires: make(map[string]time.Time)}
}

func (l *RevocationList) Add(jti string, exp time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.expires[jti] = exp
	return nil
}

func (l *RevocationList) IsRevoked(jti string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.expires[jti]
	return ok
}

// Cleanup forgets tokens that expired before now.
func (l *RevocationList) Cleanup(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for jti, exp := range l.expires {
		if now.After(exp) {
			delete(l.expires, jti)
		}
	}
}

// Len reports how many tokens are currently revoked.
func (l *RevocationList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.expires)
}
