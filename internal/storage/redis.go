package storage

import (
	"context"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "rocketshoes:"

// RedisSlot keeps each slot as a plain string key.
type RedisSlot struct {
	client *backend.Client
	prefix string
}

func NewRedisSlot(address, password string) *RedisSlot {
	return NewRedisSlotFromClient(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
	}))
}

func NewRedisSlotFromClient(client *backend.Client) *RedisSlot {
	return &RedisSlot{client: client, prefix: defaultRedisPrefix}
}

func (r *RedisSlot) key(k string) string {
	return r.prefix + k
}

func (r *RedisSlot) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (r *RedisSlot) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisSlot) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisSlot) Close() error {
	return r.client.Close()
}
