// Package postgres provides a Postgres-backed session store. Sessions and
// their task results live in two tables; the working state is a memory store
// hydrated on open.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"

	"cogbattery/internal/infra/persistence/memory"
	"cogbattery/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	"github.com/m-mizutani/goerr/v2"
)

var _ domain.SessionStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/cogbattery?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		sub_num TEXT NOT NULL,
		condition TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		subject JSONB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS task_results (
		session_id TEXT NOT NULL REFERENCES sessions(id),
		seq INTEGER NOT NULL,
		task TEXT NOT NULL,
		payload JSONB NOT NULL,
		PRIMARY KEY (session_id, seq)
	)`,
}

// Store is the Postgres session store.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore connects using dsn (falling back to a local default), applies
// the schema and loads every stored session.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open postgres")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to ping postgres")
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, goerr.Wrap(err, "failed to apply schema")
		}
	}
	snap, err := loadSnapshot(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	mem := memory.NewStore()
	mem.ImportState(snap)
	return &Store{Store: mem, db: db}, nil
}

func loadSnapshot(ctx context.Context, db *sql.DB) (memory.Snapshot, error) {
	snap := memory.Snapshot{Sessions: make(map[string]memory.Session)}

	rows, err := db.QueryContext(ctx, `SELECT id, subject FROM sessions`)
	if err != nil {
		return snap, goerr.Wrap(err, "failed to select sessions")
	}
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			_ = rows.Close()
			return snap, goerr.Wrap(err, "failed to scan session")
		}
		var subject domain.Subject
		if err := json.Unmarshal(raw, &subject); err != nil {
			_ = rows.Close()
			return snap, goerr.Wrap(err, "failed to decode subject", goerr.V("id", id))
		}
		snap.Sessions[id] = memory.Session{Subject: subject}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return snap, goerr.Wrap(err, "failed to read sessions")
	}
	_ = rows.Close()

	rows, err = db.QueryContext(ctx, `SELECT session_id, seq, payload FROM task_results ORDER BY session_id, seq`)
	if err != nil {
		return snap, goerr.Wrap(err, "failed to select task results")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var id string
		var seq int64
		var raw []byte
		if err := rows.Scan(&id, &seq, &raw); err != nil {
			return snap, goerr.Wrap(err, "failed to scan task result")
		}
		sess, ok := snap.Sessions[id]
		if !ok {
			continue
		}
		var result domain.TaskResult
		if err := json.Unmarshal(raw, &result); err != nil {
			return snap, goerr.Wrap(err, "failed to decode task result", goerr.V("id", id), goerr.V("seq", seq))
		}
		sess.Results = append(sess.Results, result)
		snap.Sessions[id] = sess
	}
	if err := rows.Err(); err != nil {
		return snap, goerr.Wrap(err, "failed to read task results")
	}
	return snap, nil
}

// CreateSession inserts the session row.
func (s *Store) CreateSession(ctx context.Context, subject domain.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Store.CreateSession(ctx, subject); err != nil {
		return err
	}
	raw, err := json.Marshal(subject)
	if err != nil {
		return goerr.Wrap(err, "failed to encode subject")
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions(id, sub_num, condition, started_at, subject) VALUES($1, $2, $3, $4, $5)`,
		subject.SessionID, subject.SubNum, subject.Condition, subject.StartedAt, string(raw)); err != nil {
		return goerr.Wrap(err, "failed to insert session", goerr.V("id", subject.SessionID))
	}
	return nil
}

// AppendTaskResult inserts the result as the session's next sequence number.
func (s *Store) AppendTaskResult(ctx context.Context, sessionID string, result domain.TaskResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Store.AppendTaskResult(ctx, sessionID, result); err != nil {
		return err
	}
	sess, _ := s.Session(sessionID)
	raw, err := json.Marshal(result)
	if err != nil {
		return goerr.Wrap(err, "failed to encode task result")
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO task_results(session_id, seq, task, payload) VALUES($1, $2, $3, $4)`,
		sessionID, int64(len(sess.Results)), result.Task, string(raw)); err != nil {
		return goerr.Wrap(err, "failed to insert task result", goerr.V("id", sessionID))
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for tests.
func (s *Store) DB() *sql.DB { return s.db }
