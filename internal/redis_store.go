package internal

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const redisOpTimeout = 3 * time.Second

// RedisStore keeps session entries as plain redis keys under a prefix, for
// kiosks that share one operator session across machines.
type RedisStore struct {
	inner  *redis.Client
	prefix string
}

// NewRedisStore connects to addr and verifies the connection
func NewRedisStore(addr string, db int, prefix string) (*RedisStore, error) {
	if addr == "" {
		addr = "127.0.0.1:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, &StorageError{Path: addr, Op: "open", Err: err}
	}
	return &RedisStore{inner: client, prefix: prefix}, nil
}

func (r *RedisStore) key(k string) string {
	return r.prefix + k
}

// Get reads a single entry
func (r *RedisStore) Get(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	v, err := r.inner.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StorageError{Path: r.inner.Options().Addr, Op: "get", Err: err}
	}
	return v, true, nil
}

// Set writes a single entry without expiry
func (r *RedisStore) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := r.inner.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return &StorageError{Path: r.inner.Options().Addr, Op: "set", Err: err}
	}
	return nil
}

// Delete removes all keys with a single DEL
func (r *RedisStore) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := r.inner.Del(ctx, full...).Err(); err != nil {
		return &StorageError{Path: r.inner.Options().Addr, Op: "delete", Err: err}
	}
	return nil
}

// Close closes the client
func (r *RedisStore) Close() error {
	if r == nil || r.inner == nil {
		return nil
	}
	return r.inner.Close()
}
