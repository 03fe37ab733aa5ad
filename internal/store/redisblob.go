package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/Spok95/mindurmind/internal/ctxutil"
)

// RedisBackend кладёт весь блоб под единственный ключ StorageKey.
type RedisBackend struct {
	rdb *redis.Client
}

func OpenRedis(ctx context.Context, addr string) (*RedisBackend, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return &RedisBackend{rdb: rdb}, nil
}

func (b *RedisBackend) Load(ctx context.Context) ([]byte, error) {
	ctx, cancel := ctxutil.WithStoreTimeout(ctx)
	defer cancel()

	raw, err := b.rdb.Get(ctx, StorageKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (b *RedisBackend) Save(ctx context.Context, blob []byte) error {
	ctx, cancel := ctxutil.WithStoreTimeout(ctx)
	defer cancel()
	return b.rdb.Set(ctx, StorageKey, blob, 0).Err()
}

func (b *RedisBackend) Ping(ctx context.Context) error {
	ctx, cancel := ctxutil.WithStoreTimeout(ctx)
	defer cancel()
	return b.rdb.Ping(ctx).Err()
}

func (b *RedisBackend) Close() error { return b.rdb.Close() }
