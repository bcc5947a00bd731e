package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"StockPulse/internal/domain/repository"
	pkgcache "StockPulse/pkg/cache"
	"StockPulse/pkg/logger"
)

// Kind names a family of cached analytics results. Each kind has its own TTL.
type Kind string

const (
	KindForecast   Kind = "forecast"
	KindEvaluation Kind = "evaluation"
	KindSignals    Kind = "signals"
	KindAnomalies  Kind = "anomalies"
	KindBacktest   Kind = "backtest"
	KindPortfolio  Kind = "portfolio"
)

// Kinds lists every cacheable result kind.
var Kinds = []Kind{KindForecast, KindEvaluation, KindSignals, KindAnomalies, KindBacktest, KindPortfolio}

// ErrUnknownKind is returned by Clear for a kind outside Kinds.
var ErrUnknownKind = errors.New("cache: unknown result kind")

// Valid reports whether k is one of Kinds.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// TTLs maps each kind to its expiry.
type TTLs map[Kind]time.Duration

// Status describes the current cache contents.
type Status struct {
	Backend string
	Total   int
	Entries map[Kind]int
}

// ResultCache stores computed analytics keyed by kind, ticker and request parameters.
// Lookups never fail the caller: backend errors degrade to a miss.
type ResultCache struct {
	store   pkgcache.Service
	backend string
	ttls    TTLs
	metrics repository.Metrics
	log     *logger.Logger
}

// Option configures ResultCache.
type Option func(*ResultCache)

// WithMetrics records hit/miss counters.
func WithMetrics(m repository.Metrics) Option {
	return func(c *ResultCache) { c.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *ResultCache) { c.log = l }
}

// NewResultCache wraps store. backend is reported by Status only.
func NewResultCache(store pkgcache.Service, backend string, ttls TTLs, opts ...Option) *ResultCache {
	c := &ResultCache{
		store:   store,
		backend: backend,
		ttls:    ttls,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key builds the cache key for a result.
func Key(kind Kind, ticker string, params ...interface{}) string {
	base := pkgcache.GenerateKey(string(kind), strings.ToUpper(ticker))
	return pkgcache.GenerateKeyWithParams(base, params...)
}

// TTL returns the expiry configured for kind.
func (c *ResultCache) TTL(kind Kind) time.Duration {
	return c.ttls[kind]
}

// Get loads a cached result into dest and reports whether it was found.
func (c *ResultCache) Get(ctx context.Context, kind Kind, key string, dest interface{}) bool {
	err := c.store.Get(ctx, key, dest)
	hit := err == nil
	if err != nil && !errors.Is(err, pkgcache.ErrCacheMiss) {
		c.log.Warn("result cache read failed", logger.String("key", key), logger.Error(err))
	}
	if c.metrics != nil {
		c.metrics.RecordCacheHit(string(kind), hit)
	}
	return hit
}

// Set stores a result under key with the TTL of kind.
func (c *ResultCache) Set(ctx context.Context, kind Kind, key string, value interface{}) {
	if err := c.store.Set(ctx, key, value, c.TTL(kind)); err != nil {
		c.log.Warn("result cache write failed", logger.String("key", key), logger.Error(err))
	}
}

// GetOrCompute returns the cached value for key or computes, stores and returns it.
func GetOrCompute[T any](ctx context.Context, c *ResultCache, kind Kind, key string, compute func(context.Context) (T, error)) (T, error) {
	var cached T
	if c == nil {
		return compute(ctx)
	}
	if c.Get(ctx, kind, key, &cached) {
		return cached, nil
	}

	v, err := compute(ctx)
	if err != nil {
		return v, err
	}
	c.Set(ctx, kind, key, v)
	return v, nil
}

// Status counts live entries per kind.
func (c *ResultCache) Status(ctx context.Context) (*Status, error) {
	st := &Status{Backend: c.backend, Entries: make(map[Kind]int, len(Kinds))}
	for _, kind := range Kinds {
		keys, err := c.store.Keys(ctx, pkgcache.BuildPattern(string(kind)))
		if err != nil {
			return nil, fmt.Errorf("list %s keys: %w", kind, err)
		}
		st.Entries[kind] = len(keys)
		st.Total += len(keys)
	}
	return st, nil
}

// Clear removes cached results. An empty kind clears every kind.
func (c *ResultCache) Clear(ctx context.Context, kind Kind) error {
	kinds := Kinds
	if kind != "" {
		if !kind.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
		}
		kinds = []Kind{kind}
	}
	for _, k := range kinds {
		if err := c.store.DeleteByPattern(ctx, pkgcache.BuildPattern(string(k))); err != nil {
			return fmt.Errorf("clear %s: %w", k, err)
		}
	}
	c.log.Info("result cache cleared", logger.String("kind", string(kind)))
	return nil
}

// InvalidateTicker drops every cached result for ticker.
func (c *ResultCache) InvalidateTicker(ctx context.Context, ticker string) error {
	for _, k := range Kinds {
		base := Key(k, ticker)
		if err := c.store.Delete(ctx, base); err != nil {
			return fmt.Errorf("invalidate %s/%s: %w", k, ticker, err)
		}
		if err := c.store.DeleteByPattern(ctx, base+":*"); err != nil {
			return fmt.Errorf("invalidate %s/%s: %w", k, ticker, err)
		}
	}
	return nil
}
