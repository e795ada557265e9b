package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/splitbook/internal/config"
	"github.com/mmynk/splitbook/internal/storage"
	"github.com/mmynk/splitbook/internal/storage/kv"
	"github.com/mmynk/splitbook/internal/storage/sqlite"
)

// openStore opens the backend selected in the configuration.
func openStore(ctx context.Context, sc config.StorageConfig) (storage.Store, error) {
	switch sc.Backend {
	case config.BackendSQLite:
		store, err := sqlite.New(sc.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		slog.Debug("Storage initialized", "backend", sc.Backend, "database", sc.SQLitePath)
		return store, nil

	case config.BackendRedis:
		backend, err := kv.NewRedisBackend(ctx, sc.RedisAddr, sc.RedisPassword, sc.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		slog.Debug("Storage initialized", "backend", sc.Backend, "addr", sc.RedisAddr, "prefix", sc.KeyPrefix)
		return kv.New(backend, sc.KeyPrefix), nil

	case config.BackendMemory:
		slog.Warn("Using in-memory storage; data is lost on exit")
		return kv.NewMemory(), nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", sc.Backend)
	}
}
