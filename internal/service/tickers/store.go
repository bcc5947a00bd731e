package tickers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the list as a JSON array under a single key.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

// NewRedisStore creates a store on client.
func NewRedisStore(client redis.UniversalClient, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) ([]string, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode tickers: %w", err)
	}
	return out, nil
}

func (s *RedisStore) Save(ctx context.Context, tickers []string) error {
	raw, err := json.Marshal(tickers)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

// MemoryStore is used when Redis is disabled; the list lives only as long as the process.
type MemoryStore struct {
	mu      sync.Mutex
	tickers []string
}

func (s *MemoryStore) Load(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tickers...), nil
}

func (s *MemoryStore) Save(_ context.Context, tickers []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickers = append([]string(nil), tickers...)
	return nil
}
