package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"cogbattery/internal/infra/persistence/storetest"

	"github.com/m-mizutani/gt"
)

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := NewStore(path)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, openStore(t, filepath.Join(t.TempDir(), "sessions.db")))
}

func TestPersistAndReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "sessions.db")

	s := openStore(t, path)
	gt.Equal(t, s.Path(), path)
	gt.NoError(t, s.CreateSession(ctx, storetest.Subject("a", 0)))
	gt.NoError(t, s.AppendTaskResult(ctx, "a", storetest.Result(4)))
	gt.NoError(t, s.Close())

	reloaded := openStore(t, path)
	subject, results, err := reloaded.GetSession(ctx, "a")
	gt.NoError(t, err)
	gt.Equal(t, subject.RA, "jk")
	gt.A(t, results).Length(1)
	gt.Equal(t, results[0].Main.Len(), 4)
	// numbers come back through JSON
	gt.Equal(t, results[0].Main.Rows[3][0], any(float64(4)))
}

func TestSessionsTableCreated(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "sessions.db"))
	var name string
	gt.NoError(t, s.DB().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", "sessions").Scan(&name))
	gt.Equal(t, name, "sessions")
}
