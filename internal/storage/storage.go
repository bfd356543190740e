// Package storage opens the session store selected in configuration.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mauriciojimenezs/toretto/internal/config"
	"github.com/mauriciojimenezs/toretto/internal/core/ports"
	"github.com/mauriciojimenezs/toretto/internal/storage/memory"
	"github.com/mauriciojimenezs/toretto/internal/storage/redis"
	"github.com/mauriciojimenezs/toretto/internal/storage/sqlite"
)

// Open creates the session store for cfg.Driver.
func Open(cfg config.SessionConfig) (ports.SessionStore, error) {
	switch cfg.Driver {
	case "redis", "":
		return redis.New(cfg.Redis)
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLite.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		return sqlite.New(cfg.SQLite.Path)
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown session driver %q", cfg.Driver)
	}
}
