package domain

import (
	"context"
	"fmt"
	"time"
)

// SessionSummary is the listing view of a stored session.
type SessionSummary struct {
	ID        string    `json:"id"`
	SubNum    string    `json:"sub_num"`
	Condition string    `json:"condition"`
	StartedAt time.Time `json:"started_at"`
	Tasks     []string  `json:"tasks"`
	Rows      int       `json:"rows"`
}

// SessionStore is a minimal abstraction over durable session backends. A
// session is created once from the subject form and grows by one task result
// per completed task.
type SessionStore interface {
	CreateSession(ctx context.Context, subject Subject) error
	AppendTaskResult(ctx context.Context, sessionID string, result TaskResult) error
	GetSession(ctx context.Context, sessionID string) (Subject, []TaskResult, error)
	ListSessions(ctx context.Context) ([]SessionSummary, error)
	Close() error
}

// ErrSessionNotFound is returned when a session id is unknown to the store.
type ErrSessionNotFound struct {
	ID string
}

func (e ErrSessionNotFound) Error() string {
	return fmt.Sprintf("session %s not found", e.ID)
}

// ErrSessionExists is returned when a session id is created twice.
type ErrSessionExists struct {
	ID string
}

func (e ErrSessionExists) Error() string {
	return fmt.Sprintf("session %s already exists", e.ID)
}
