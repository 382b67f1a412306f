// Package sqliterepo persists sessions in a SQLite database migrated with goose.
package sqliterepo

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-dashboard-gateway/internal/errors"
	"github.com/jrsteele09/go-dashboard-gateway/sessions"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its settings in package globals.
var gooseMu sync.Mutex

var _ sessions.Repo = (*SQLiteSessionRepo)(nil)

type SQLiteSessionRepo struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies pending migrations.
func Open(path string) (*SQLiteSessionRepo, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteSessionRepo{db: db}, nil
}

func migrate(db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("migrate session db: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepo) Close() error {
	return r.db.Close()
}

func (r *SQLiteSessionRepo) Get(sessionID string) (*sessions.Session, error) {
	var payload string
	err := r.db.QueryRow(`SELECT payload FROM sessions WHERE id = ?`, sessionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}

	var s sessions.Session
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("corrupt session row ignored")
		return nil, errors.ErrSessionNotFound
	}
	return &s, nil
}

func (r *SQLiteSessionRepo) Upsert(sessionID string, session *sessions.Session) error {
	if sessionID == "" {
		return errors.Wrapf(errors.ErrInvalidRequest, "empty session id")
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = r.db.Exec(`
		INSERT INTO sessions (id, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		sessionID, string(payload), session.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepo) Delete(sessionID string) error {
	res, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.ErrSessionNotFound
	}
	return nil
}

func (r *SQLiteSessionRepo) DeleteStale(before time.Time) (int, error) {
	res, err := r.db.Exec(`DELETE FROM sessions WHERE updated_at < ?`, before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("delete stale sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count stale sessions: %w", err)
	}
	return int(n), nil
}
