package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var _ Backend = (*RedisBackend)(nil)

const redisKeyPrefix = "ledger:collection"

// RedisBackend stores each collection under a single string key.
type RedisBackend struct {
	client redis.Cmdable
}

func NewRedisBackend(client redis.Cmdable) *RedisBackend {
	return &RedisBackend{client: client}
}

func (b *RedisBackend) Load(ctx context.Context, collection string) ([]byte, error) {
	body, err := b.client.Get(ctx, redisKey(collection)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return body, err
}

func (b *RedisBackend) Save(ctx context.Context, collection string, body []byte) error {
	return b.client.Set(ctx, redisKey(collection), body, 0).Err()
}

func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close is a no-op; the client is owned by whoever constructed it.
func (b *RedisBackend) Close() error { return nil }

func redisKey(collection string) string {
	return fmt.Sprintf("%s:%s", redisKeyPrefix, collection)
}
