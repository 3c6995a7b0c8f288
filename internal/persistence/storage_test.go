package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"cogbattery/internal/config"
	"cogbattery/internal/infra/persistence/memory"
	"cogbattery/internal/infra/persistence/sqlite"

	"github.com/m-mizutani/gt"
)

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.Store{Driver: "none"})
	gt.NoError(t, err)
	gt.True(t, s == nil)

	s, err = Open(ctx, config.Store{Driver: "memory"})
	gt.NoError(t, err)
	_, ok := s.(*memory.Store)
	gt.True(t, ok)

	path := filepath.Join(t.TempDir(), "s.db")
	s, err = Open(ctx, config.Store{SQLitePath: path})
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	lite, ok := s.(*sqlite.Store)
	gt.True(t, ok)
	gt.Equal(t, lite.Path(), path)

	_, err = Open(ctx, config.Store{Driver: "mongo"})
	gt.Error(t, err)
}
