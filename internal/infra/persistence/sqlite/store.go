// Package sqlite persists battery sessions to a single SQLite file. The
// working state lives in a memory store; every mutation writes the touched
// session back as a JSON row.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"cogbattery/internal/infra/persistence/memory"
	"cogbattery/pkg/domain"

	"github.com/m-mizutani/goerr/v2"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

var _ domain.SessionStore = (*Store)(nil)

// DefaultPath is used when no path is configured.
const DefaultPath = "sessions.db"

// Store is the SQLite session store.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (creating if needed) the database at path and loads every
// stored session.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, goerr.Wrap(err, "failed to create database directory", goerr.V("path", path))
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite", goerr.V("path", path))
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to create sessions table")
	}
	s := &Store{Store: memory.NewStore(), db: db, path: path}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT id, payload FROM sessions`)
	if err != nil {
		return goerr.Wrap(err, "failed to select sessions")
	}
	defer func() { _ = rows.Close() }()

	snap := memory.Snapshot{Sessions: make(map[string]memory.Session)}
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return goerr.Wrap(err, "failed to scan session row")
		}
		var sess memory.Session
		if err := json.Unmarshal(payload, &sess); err != nil {
			return goerr.Wrap(err, "failed to decode session", goerr.V("id", id))
		}
		snap.Sessions[id] = sess
	}
	if err := rows.Err(); err != nil {
		return goerr.Wrap(err, "failed to read sessions")
	}
	s.ImportState(snap)
	return nil
}

func (s *Store) persist(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.Session(id)
	if !ok {
		return domain.ErrSessionNotFound{ID: id}
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return goerr.Wrap(err, "failed to encode session", goerr.V("id", id))
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions(id, payload) VALUES(?, ?) ON CONFLICT(id) DO UPDATE SET payload=excluded.payload`,
		id, payload); err != nil {
		return goerr.Wrap(err, "failed to upsert session", goerr.V("id", id))
	}
	return nil
}

// CreateSession records the subject and writes it through.
func (s *Store) CreateSession(ctx context.Context, subject domain.Subject) error {
	if err := s.Store.CreateSession(ctx, subject); err != nil {
		return err
	}
	return s.persist(ctx, subject.SessionID)
}

// AppendTaskResult appends the result and writes the session through.
func (s *Store) AppendTaskResult(ctx context.Context, sessionID string, result domain.TaskResult) error {
	if err := s.Store.AppendTaskResult(ctx, sessionID, result); err != nil {
		return err
	}
	return s.persist(ctx, sessionID)
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for tests.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the database path.
func (s *Store) Path() string { return s.path }
