package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service defines cache operations interface.
// Patterns use glob syntax (`*`, `?`, `[...]`) on both backends.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
	Keys(ctx context.Context, pattern string) ([]string, error)
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// GetTyped reads key into a new T.
func GetTyped[T any](ctx context.Context, c Service, key string) (T, error) {
	var obj T
	if err := c.Get(ctx, key, &obj); err != nil {
		return obj, err
	}
	return obj, nil
}
