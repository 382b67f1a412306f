// Package filerepo persists sessions as one JSON document per session id.
package filerepo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-dashboard-gateway/internal/errors"
	"github.com/jrsteele09/go-dashboard-gateway/sessions"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const fileSuffix = ".json"

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9-]`)

var _ sessions.Repo = (*FileSessionRepo)(nil)

// FileSessionRepo stores sessions under dir on fs.
type FileSessionRepo struct {
	mu  sync.Mutex
	fs  afero.Fs
	dir string
}

// New creates dir on fs when missing.
func New(fs afero.Fs, dir string) (*FileSessionRepo, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("session directory not provided")
	}
	if err := fs.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileSessionRepo{fs: fs, dir: dir}, nil
}

// NewOS stores sessions on the local disk.
func NewOS(dir string) (*FileSessionRepo, error) {
	return New(afero.NewOsFs(), dir)
}

func (r *FileSessionRepo) Get(sessionID string) (*sessions.Session, error) {
	path, err := r.path(sessionID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := afero.ReadFile(r.fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var s sessions.Session
	if err := json.Unmarshal(data, &s); err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("corrupt session file ignored")
		return nil, errors.ErrSessionNotFound
	}
	return &s, nil
}

func (r *FileSessionRepo) Upsert(sessionID string, session *sessions.Session) error {
	path, err := r.path(sessionID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tmp := path + ".tmp"
	if err := afero.WriteFile(r.fs, tmp, data, 0o600); err != nil {
		_ = r.fs.Remove(tmp)
		return fmt.Errorf("write session temp file: %w", err)
	}
	if err := r.fs.Rename(tmp, path); err != nil {
		_ = r.fs.Remove(tmp)
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

func (r *FileSessionRepo) Delete(sessionID string) error {
	path, err := r.path(sessionID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err = r.fs.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return errors.ErrSessionNotFound
	}
	return err
}

// DeleteStale removes sessions whose UpdatedAt is before the cutoff. Unreadable
// files are judged by their modification time.
func (r *FileSessionRepo) DeleteStale(before time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := afero.ReadDir(r.fs, r.dir)
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}
		path := filepath.Join(r.dir, entry.Name())

		updated := entry.ModTime()
		if data, err := afero.ReadFile(r.fs, path); err == nil {
			var s sessions.Session
			if json.Unmarshal(data, &s) == nil && !s.UpdatedAt.IsZero() {
				updated = s.UpdatedAt
			}
		}
		if !updated.Before(before) {
			continue
		}
		if err := r.fs.Remove(path); err != nil {
			return count, fmt.Errorf("remove session %s: %w", entry.Name(), err)
		}
		count++
	}
	return count, nil
}

func (r *FileSessionRepo) path(sessionID string) (string, error) {
	name := unsafeChars.ReplaceAllString(sessionID, "")
	if name == "" || name != sessionID {
		return "", errors.Wrapf(errors.ErrInvalidRequest, "session id %q", sessionID)
	}
	return filepath.Join(r.dir, name+fileSuffix), nil
}
