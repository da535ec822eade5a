package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore хранит ключи как обычные строки Redis с общим префиксом.
// TTL не ставится: время жизни токенов контролирует сервер.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "simpa:".
func NewRedisStore(ctx context.Context, redisURL, prefix string) (*RedisStore, error) {
	const op = "credentials/NewRedisStore"

	if prefix == "" {
		prefix = "simpa:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return &RedisStore{rdb: rdb, prefix: prefix}, nil
}

func (r *RedisStore) key(k string) string { return r.prefix + k }

func (r *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	const op = "credentials/RedisStore.Get"

	if key == "" {
		return "", false, ErrEmptyKey
	}

	v, err := r.rdb.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}

	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}

	return v, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	const op = "credentials/RedisStore.Set"

	if key == "" {
		return ErrEmptyKey
	}

	if err := r.rdb.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisStore) Remove(ctx context.Context, key string) error {
	const op = "credentials/RedisStore.Remove"

	if key == "" {
		return ErrEmptyKey
	}

	if err := r.rdb.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close закрывает клиент Redis.
func (r *RedisStore) Close() error { return r.rdb.Close() }

var _ Store = (*RedisStore)(nil)
