// Package storage provides the key/value slots the cart is persisted to.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Skotchmaster/rocketshoes/internal/config"
	"github.com/Skotchmaster/rocketshoes/internal/db"
)

type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// Open builds the slot selected by cfg.StorageDriver. The returned closer
// releases the underlying connection.
func Open(ctx context.Context, cfg config.Config) (KV, io.Closer, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		return NewMemory(), nopCloser{}, nil

	case config.StorageSQLite, config.StoragePostgres:
		gdb, err := db.Open(ctx, cfg.StorageDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		slot, err := NewGormSlot(ctx, gdb)
		if err != nil {
			_ = db.Close(gdb)
			return nil, nil, fmt.Errorf("migrate storage slots: %w", err)
		}
		return slot, closerFunc(func() error { return db.Close(gdb) }), nil

	case config.StorageRedis:
		slot := NewRedisSlot(cfg.RedisAddr, cfg.RedisPassword)
		if err := slot.Ping(ctx); err != nil {
			_ = slot.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		return slot, slot, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
