// Package persistence selects the session store backend from settings.
package persistence

import (
	"context"

	"cogbattery/internal/config"
	"cogbattery/internal/infra/persistence/memory"
	"cogbattery/internal/infra/persistence/postgres"
	"cogbattery/internal/infra/persistence/sqlite"
	"cogbattery/pkg/domain"

	"github.com/m-mizutani/goerr/v2"
)

// Driver identifies a session store backend.
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open returns the configured store. A nil store and no error mean session
// storage is disabled (driver "none"). An empty driver selects SQLite.
func Open(ctx context.Context, cfg config.Store) (domain.SessionStore, error) {
	driver := Driver(cfg.Driver)
	if driver == "" {
		driver = DriverSQLite
	}
	switch driver {
	case "none":
		return nil, nil
	case DriverMemory:
		return memory.NewStore(), nil
	case DriverSQLite:
		return sqlite.NewStore(cfg.SQLitePath)
	case DriverPostgres:
		return postgres.NewStore(ctx, cfg.PostgresDSN)
	default:
		return nil, goerr.New("unknown session store driver", goerr.V("driver", cfg.Driver))
	}
}
