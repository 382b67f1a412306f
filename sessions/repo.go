package sessions

import "time"

// Repo defines the durable storage of sessions keyed by the browser's session id.
// Implementations return ErrSessionNotFound for absent as well as unreadable records.
type Repo interface {
	// Get retrieves a session by ID
	Get(sessionID string) (*Session, error)

	// Upsert creates or updates a session
	Upsert(sessionID string, session *Session) error

	// Delete removes a session by ID
	Delete(sessionID string) error

	// DeleteStale removes sessions not updated since before and returns how many went
	DeleteStale(before time.Time) (int, error)
}
