// Package battery runs a subject through a sequence of tasks: it writes the
// info sheet, runs each task in turn, flushes results after every task and
// archives the finished session.
package battery

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"

	"cogbattery/internal/config"
	"cogbattery/internal/engine"
	"cogbattery/internal/tasks/sternberg"
	"cogbattery/pkg/domain"

	"github.com/m-mizutani/goerr/v2"
)

// ErrUnknownTask is returned for a task name missing from the registry.
var ErrUnknownTask = errors.New("unknown task")

// Task is a constructed, ready-to-present task.
type Task interface {
	Run(ctx context.Context) (domain.TaskResult, error)
}

// Factory builds a task from the shared environment, the settings and the
// session generator.
type Factory func(env engine.Env, settings config.Settings, r *rand.Rand) (Task, error)

// Entry describes one registered task. ID is the short name used on the
// command line; Name is the display name written to the info sheet.
type Entry struct {
	ID    string
	Name  string
	Sheet string
	New   Factory
}

// Registry maps task names to factories, in registration order.
type Registry struct {
	entries []Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry { return &Registry{} }

// DefaultRegistry holds every built-in task.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(Entry{ID: "sternberg", Name: sternberg.Name, Sheet: sternberg.Sheet, New: newSternberg})
	return r
}

// Register adds e. IDs and display names must be unique.
func (r *Registry) Register(e Entry) error {
	if e.ID == "" || e.New == nil {
		return goerr.New("task entry needs an id and a factory")
	}
	for _, x := range r.entries {
		if strings.EqualFold(x.ID, e.ID) || strings.EqualFold(x.Name, e.Name) {
			return goerr.New("task already registered", goerr.V("id", e.ID))
		}
	}
	r.entries = append(r.entries, e)
	return nil
}

// Lookup finds an entry by id or display name, ignoring case.
func (r *Registry) Lookup(name string) (Entry, bool) {
	name = strings.TrimSpace(name)
	for _, e := range r.entries {
		if strings.EqualFold(e.ID, name) || strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return Entry{}, false
}

// Entries returns the registered tasks.
func (r *Registry) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

func newSternberg(env engine.Env, s config.Settings, r *rand.Rand) (Task, error) {
	cfg := sternberg.DefaultConfig()
	cfg.Blocks = s.Sternberg.Blocks
	cfg.PracticeReps = s.Sternberg.PracticeReps
	cfg.BlockReps = s.Sternberg.BlockReps
	cfg.RunMainBlocks = s.Sternberg.RunMainBlocks
	t, err := sternberg.New(env, cfg, r)
	if err != nil {
		return nil, err
	}
	return t, nil
}
