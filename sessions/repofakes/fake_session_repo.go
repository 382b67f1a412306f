package fakesessionrepo

import (
	"sync"
	"time"

	"github.com/jrsteele09/go-dashboard-gateway/internal/errors"
	"github.com/jrsteele09/go-dashboard-gateway/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

// FakeSessionRepo keeps sessions in memory. Used in tests and with SESSION_STORE=memory.
type FakeSessionRepo struct {
	sessions map[string]sessions.Session
	lock     sync.RWMutex
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		sessions: make(map[string]sessions.Session),
	}
}

func (sr *FakeSessionRepo) Upsert(sessionID string, session *sessions.Session) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	sr.sessions[sessionID] = session.Clone()
	return nil
}

func (sr *FakeSessionRepo) Delete(sessionID string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if _, ok := sr.sessions[sessionID]; !ok {
		return errors.ErrSessionNotFound
	}
	delete(sr.sessions, sessionID)
	return nil
}

func (sr *FakeSessionRepo) Get(sessionID string) (*sessions.Session, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	s, ok := sr.sessions[sessionID]
	if !ok {
		return nil, errors.ErrSessionNotFound
	}
	c := s.Clone()
	return &c, nil
}

func (sr *FakeSessionRepo) DeleteStale(before time.Time) (int, error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	n := 0
	for id, s := range sr.sessions {
		if s.UpdatedAt.Before(before) {
			delete(sr.sessions, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored sessions.
func (sr *FakeSessionRepo) Len() int {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	return len(sr.sessions)
}
