package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/mauriciojimenezs/toretto/internal/config"
)

func TestOpen(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name string
		cfg  config.SessionConfig
	}{
		{name: "memory", cfg: config.SessionConfig{Driver: "memory"}},
		{name: "sqlite", cfg: config.SessionConfig{
			Driver: "sqlite",
			SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "nested", "sessions.db")},
		}},
		{name: "redis", cfg: config.SessionConfig{
			Driver: "redis",
			Redis:  config.RedisConfig{Addr: mr.Addr()},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(tt.cfg)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer store.Close()

			ctx := context.Background()
			if err := store.Set(ctx, "k", []byte(`{}`), time.Minute); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if _, found, err := store.Get(ctx, "k"); err != nil || !found {
				t.Fatalf("Get() found=%v err=%v", found, err)
			}
		})
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(config.SessionConfig{Driver: "etcd"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}
