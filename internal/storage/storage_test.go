package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Skotchmaster/rocketshoes/internal/config"
	"github.com/Skotchmaster/rocketshoes/internal/db"
	"github.com/Skotchmaster/rocketshoes/internal/storage"
	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runSlotContract(t *testing.T, kv storage.KV) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "@RocketShoes:cart")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, "@RocketShoes:cart", `[{"id":1,"amount":1}]`))
	v, ok, err := kv.Get(ctx, "@RocketShoes:cart")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"id":1,"amount":1}]`, v)

	require.NoError(t, kv.Set(ctx, "@RocketShoes:cart", `[]`))
	v, ok, err = kv.Get(ctx, "@RocketShoes:cart")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[]`, v)

	_, ok, err = kv.Get(ctx, "other")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_Contract(t *testing.T) {
	runSlotContract(t, storage.NewMemory())
}

func TestGormSlot_Contract(t *testing.T) {
	ctx := context.Background()
	gdb, err := db.Open(ctx, db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	slot, err := storage.NewGormSlot(ctx, gdb)
	require.NoError(t, err)
	runSlotContract(t, slot)
}

func TestRedisSlot_Contract(t *testing.T) {
	mr := miniredis.RunT(t)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	slot := storage.NewRedisSlotFromClient(client)
	t.Cleanup(func() { _ = slot.Close() })

	runSlotContract(t, slot)
	assert.True(t, mr.Exists("rocketshoes:@RocketShoes:cart"))
}

func TestOpen_SelectsDriver(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	tests := []struct {
		name string
		cfg  config.Config
	}{
		{name: "memory", cfg: config.Config{StorageDriver: config.StorageMemory}},
		{name: "sqlite file", cfg: config.Config{StorageDriver: config.StorageSQLite, DatabaseURL: filepath.Join(t.TempDir(), "cart.db")}},
		{name: "redis", cfg: config.Config{StorageDriver: config.StorageRedis, RedisAddr: mr.Addr()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv, closer, err := storage.Open(ctx, tt.cfg)
			require.NoError(t, err)
			t.Cleanup(func() { _ = closer.Close() })
			runSlotContract(t, kv)
		})
	}
}

func TestOpen_SQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{StorageDriver: config.StorageSQLite, DatabaseURL: filepath.Join(t.TempDir(), "cart.db")}

	kv, closer, err := storage.Open(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, "k", "v"))
	require.NoError(t, closer.Close())

	kv, closer, err = storage.Open(ctx, cfg)
	require.NoError(t, err)
	defer closer.Close()

	v, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, _, err := storage.Open(context.Background(), config.Config{StorageDriver: "mongo"})
	require.Error(t, err)
}
