// Package cache implements the read-through cache used by workspace views,
// plus the static invalidation policy applied after mutations. Cached
// entries are always derivable from persisted state and never authoritative:
// every failure inside the cache layer degrades to the loader.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"reflect"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss signals an absent key. Backend implementations translate their
// native sentinel (redis.Nil) into it.
var ErrMiss = errors.New("cache miss")

// Backend is the minimal key-value contract the accessor needs.
// GET/SET/DEL only; tests substitute an in-memory fake.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type redisBackend struct {
	client *redis.Client
}

// NewRedisBackend wraps a go-redis client as a Backend.
func NewRedisBackend(client *redis.Client) Backend {
	return &redisBackend{client: client}
}

func (b *redisBackend) Get(ctx context.Context, key string) (string, error) {
	val, err := b.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrMiss
		}
		return "", err
	}
	return val, nil
}

func (b *redisBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

func (b *redisBackend) Del(ctx context.Context, keys ...string) error {
	return b.client.Del(ctx, keys...).Err()
}

// Loader produces the authoritative value on a cache miss. It may hit the
// primary store or the external provider; the accessor does not care.
type Loader[T any] func(ctx context.Context) (T, error)

// Cache is the read-through accessor. Its failures are never the caller's
// failures: connectivity and codec errors are logged and treated as a miss.
type Cache struct {
	backend Backend
	logger  *slog.Logger
}

func New(backend Backend, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{backend: backend, logger: logger}
}

func (c *Cache) Backend() Backend {
	return c.backend
}

// Fetch looks up key; on a hit it returns the deserialized entry without
// invoking the loader. On a miss it invokes the loader and, when the result
// is non-empty, stores it under key with the given TTL before returning.
// The loader's error is the only error a caller can see.
func Fetch[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, loader Loader[T]) (T, error) {
	var zero T

	cached, err := c.backend.Get(ctx, key)
	switch {
	case err == nil:
		var value T
		if err := json.Unmarshal([]byte(cached), &value); err != nil {
			c.logger.WarnContext(ctx, "cache entry undecodable, falling back to loader",
				"key", key, "error", err)
		} else {
			return value, nil
		}
	case errors.Is(err, ErrMiss):
		// fall through to loader
	default:
		c.logger.WarnContext(ctx, "cache read failed, falling back to loader",
			"key", key, "error", err)
	}

	value, err := loader(ctx)
	if err != nil {
		return zero, err
	}

	if !isEmpty(value) {
		encoded, err := json.Marshal(value)
		if err != nil {
			c.logger.WarnContext(ctx, "cache entry not serializable, skipping store",
				"key", key, "error", err)
			return value, nil
		}
		if err := c.backend.Set(ctx, key, string(encoded), ttl); err != nil {
			c.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
		}
	}

	return value, nil
}

// isEmpty reports whether a loader result carries nothing worth caching:
// the type's zero value, a nil pointer, or a nil slice/map.
func isEmpty[T any](v T) bool {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map:
		return rv.IsNil()
	default:
		return rv.IsZero()
	}
}
