// Package memory provides an in-memory session store used for tests, dry
// runs and as the working state of the SQL-backed stores.
package memory

import (
	"context"
	"sort"
	"sync"

	"cogbattery/pkg/domain"
)

var _ domain.SessionStore = (*Store)(nil)

// Session is the stored form of one battery session.
type Session struct {
	Subject domain.Subject      `json:"subject"`
	Results []domain.TaskResult `json:"results"`
}

// Snapshot captures a point-in-time clone of the store state keyed by
// session id.
type Snapshot struct {
	Sessions map[string]Session `json:"sessions"`
}

// Store keeps sessions in a map guarded by a mutex.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]Session)}
}

// CreateSession records the subject form. Session ids are unique.
func (s *Store) CreateSession(_ context.Context, subject domain.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[subject.SessionID]; ok {
		return domain.ErrSessionExists{ID: subject.SessionID}
	}
	s.sessions[subject.SessionID] = Session{Subject: cloneSubject(subject)}
	return nil
}

// AppendTaskResult adds a completed task to an existing session.
func (s *Store) AppendTaskResult(_ context.Context, sessionID string, result domain.TaskResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound{ID: sessionID}
	}
	sess.Results = append(sess.Results, cloneResult(result))
	s.sessions[sessionID] = sess
	return nil
}

// GetSession returns copies of the subject and its task results in the
// order they were appended.
func (s *Store) GetSession(_ context.Context, sessionID string) (domain.Subject, []domain.TaskResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return domain.Subject{}, nil, domain.ErrSessionNotFound{ID: sessionID}
	}
	c := cloneSession(sess)
	return c.Subject, c.Results, nil
}

// ListSessions returns summaries ordered by start time, oldest first.
func (s *Store) ListSessions(_ context.Context) ([]domain.SessionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SessionSummary, 0, len(s.sessions))
	for id, sess := range s.sessions {
		sum := domain.SessionSummary{
			ID:        id,
			SubNum:    sess.Subject.SubNum,
			Condition: sess.Subject.Condition,
			StartedAt: sess.Subject.StartedAt,
		}
		for _, r := range sess.Results {
			sum.Tasks = append(sum.Tasks, r.Task)
			sum.Rows += r.Main.Len()
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Session returns a copy of one stored session.
func (s *Store) Session(id string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	return cloneSession(sess), true
}

// ExportState returns a deep copy of every session.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{Sessions: make(map[string]Session, len(s.sessions))}
	for id, sess := range s.sessions {
		snap.Sessions[id] = cloneSession(sess)
	}
	return snap
}

// ImportState replaces the store contents with snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]Session, len(snapshot.Sessions))
	for id, sess := range snapshot.Sessions {
		s.sessions[id] = cloneSession(sess)
	}
}

func cloneSession(sess Session) Session {
	out := Session{Subject: cloneSubject(sess.Subject)}
	if sess.Results != nil {
		out.Results = make([]domain.TaskResult, len(sess.Results))
		for i, r := range sess.Results {
			out.Results[i] = cloneResult(r)
		}
	}
	return out
}

func cloneSubject(s domain.Subject) domain.Subject {
	s.Tasks = append([]string(nil), s.Tasks...)
	return s
}

func cloneResult(r domain.TaskResult) domain.TaskResult {
	r.Main = cloneTable(r.Main)
	r.Practice = cloneTable(r.Practice)
	return r
}

func cloneTable(t domain.Table) domain.Table {
	t.Columns = append([]string(nil), t.Columns...)
	if t.Rows != nil {
		rows := make([][]any, len(t.Rows))
		for i, row := range t.Rows {
			rows[i] = append([]any(nil), row...)
		}
		t.Rows = rows
	}
	return t
}
