// Package storetest holds the behaviour every session store must share.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"cogbattery/pkg/domain"

	"github.com/m-mizutani/gt"
)

// Subject returns a valid subject with the given id and start offset.
func Subject(id string, offset time.Duration) domain.Subject {
	return domain.Subject{
		SessionID: id,
		StartedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC).Add(offset),
		SubNum:    "7",
		Condition: "2",
		Age:       "21",
		Sex:       domain.SexMale,
		RA:        "jk",
		Tasks:     []string{"sternberg"},
		Seed:      99,
	}
}

// Result returns a small task result with n main rows.
func Result(n int) domain.TaskResult {
	main := domain.Table{Name: "Sternberg", Columns: []string{"trialNum", "response"}}
	for i := 1; i <= n; i++ {
		main.Rows = append(main.Rows, []any{i, "present"})
	}
	return domain.TaskResult{
		Task:        "Sternberg Task",
		Sheet:       "Sternberg",
		Main:        main,
		Practice:    domain.Table{Name: "Sternberg practice", Columns: []string{"trialNum"}, Rows: [][]any{{1}}},
		CompletedAt: time.Date(2026, 3, 2, 9, 20, 0, 0, time.UTC),
	}
}

// Run exercises store through create, append, get and list.
func Run(t *testing.T, store domain.SessionStore) {
	t.Helper()
	ctx := context.Background()

	gt.NoError(t, store.CreateSession(ctx, Subject("b", time.Minute)))
	gt.NoError(t, store.CreateSession(ctx, Subject("a", 0)))

	err := store.CreateSession(ctx, Subject("a", 0))
	var exists domain.ErrSessionExists
	gt.True(t, errors.As(err, &exists))
	gt.Equal(t, exists.ID, "a")

	gt.NoError(t, store.AppendTaskResult(ctx, "a", Result(3)))
	gt.NoError(t, store.AppendTaskResult(ctx, "a", Result(2)))

	err = store.AppendTaskResult(ctx, "zz", Result(1))
	var missing domain.ErrSessionNotFound
	gt.True(t, errors.As(err, &missing))

	subject, results, err := store.GetSession(ctx, "a")
	gt.NoError(t, err)
	gt.Equal(t, subject.SubNum, "7")
	gt.Equal(t, subject.Seed, uint64(99))
	gt.A(t, results).Length(2)
	gt.Equal(t, results[0].Main.Len(), 3)
	gt.Equal(t, results[1].Main.Len(), 2)
	gt.Equal(t, results[0].Practice.Name, "Sternberg practice")

	_, _, err = store.GetSession(ctx, "zz")
	gt.True(t, errors.As(err, &missing))

	list, err := store.ListSessions(ctx)
	gt.NoError(t, err)
	gt.A(t, list).Length(2)
	gt.Equal(t, list[0].ID, "a")
	gt.Equal(t, list[0].Rows, 5)
	gt.Equal(t, list[0].Tasks, []string{"Sternberg Task", "Sternberg Task"})
	gt.Equal(t, list[1].ID, "b")
	gt.Equal(t, list[1].Rows, 0)
}
