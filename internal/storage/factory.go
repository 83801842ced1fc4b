package storage

import (
	"fmt"

	"github.com/Mazussy/Sleep-Tracker/internal"
	"github.com/Mazussy/Sleep-Tracker/internal/config"
)

// New builds the storage backend selected by config: the embedded SQLite
// database by default, or Postgres when configured.
func New(cfg *config.Config, logger internal.Logger) (Storage, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		return NewSQLiteStorage(cfg.Storage.SQLitePath, logger)
	case "postgres":
		return NewPostgresStorage(cfg.Storage.PostgresDSN, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
