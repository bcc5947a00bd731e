// Package tickers keeps the set of monitored tickers, persisted through a Store.
package tickers

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"

	applogger "StockPulse/pkg/logger"
	"StockPulse/pkg/util"
)

var (
	ErrNotFound      = errors.New("ticker not monitored")
	ErrExists        = errors.New("ticker already monitored")
	ErrLastTicker    = errors.New("cannot remove the last monitored ticker")
	ErrInvalidTicker = errors.New("invalid ticker symbol")
	ErrEmptyList     = errors.New("ticker list is empty")
)

var tickerRe = regexp.MustCompile(`^[A-Z][A-Z0-9.\-]{0,9}$`)

// Store persists the ticker list.
type Store interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, tickers []string) error
}

// Registry is the in-memory view of the monitored tickers. Every mutation is
// written through to the store before it becomes visible.
type Registry struct {
	mu      sync.RWMutex
	tickers []string
	store   Store
	l       *applogger.Logger
}

// NewRegistry loads the persisted list, seeding the store with defaults when it is empty.
func NewRegistry(ctx context.Context, store Store, defaults []string, l *applogger.Logger) (*Registry, error) {
	r := &Registry{store: store, l: l.Component("tickers")}

	saved, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tickers: %w", err)
	}
	if len(saved) > 0 {
		r.tickers = normalizeAll(saved)
		return r, nil
	}

	seed, err := validateAll(defaults)
	if err != nil {
		return nil, err
	}
	if err := store.Save(ctx, seed); err != nil {
		return nil, fmt.Errorf("seed tickers: %w", err)
	}
	r.tickers = seed
	r.l.Info("seeded monitored tickers", applogger.Strings("tickers", seed))
	return r, nil
}

// List returns a copy of the monitored tickers in insertion order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.tickers))
	copy(out, r.tickers)
	return out
}

// Contains reports whether ticker is monitored.
func (r *Registry) Contains(ticker string) bool {
	t := util.NormalizeTicker(ticker)
	r.mu.RLock()
	defer r.mu.RUnlock()
	return indexOf(r.tickers, t) >= 0
}

// Add appends a ticker.
func (r *Registry) Add(ctx context.Context, ticker string) (string, error) {
	t := util.NormalizeTicker(ticker)
	if !tickerRe.MatchString(t) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTicker, ticker)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if indexOf(r.tickers, t) >= 0 {
		return "", fmt.Errorf("%w: %s", ErrExists, t)
	}
	next := append(append([]string(nil), r.tickers...), t)
	if err := r.store.Save(ctx, next); err != nil {
		return "", fmt.Errorf("save tickers: %w", err)
	}
	r.tickers = next
	return t, nil
}

// Remove drops a ticker. The last remaining ticker cannot be removed.
func (r *Registry) Remove(ctx context.Context, ticker string) (string, error) {
	t := util.NormalizeTicker(ticker)

	r.mu.Lock()
	defer r.mu.Unlock()
	i := indexOf(r.tickers, t)
	if i < 0 {
		return "", fmt.Errorf("%w: %s", ErrNotFound, t)
	}
	if len(r.tickers) == 1 {
		return "", ErrLastTicker
	}
	next := make([]string, 0, len(r.tickers)-1)
	next = append(next, r.tickers[:i]...)
	next = append(next, r.tickers[i+1:]...)
	if err := r.store.Save(ctx, next); err != nil {
		return "", fmt.Errorf("save tickers: %w", err)
	}
	r.tickers = next
	return t, nil
}

// Replace swaps the whole list. Duplicates are dropped.
func (r *Registry) Replace(ctx context.Context, tickers []string) ([]string, error) {
	next, err := validateAll(tickers)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("save tickers: %w", err)
	}
	r.tickers = next
	return append([]string(nil), next...), nil
}

func validateAll(in []string) ([]string, error) {
	out := normalizeAll(in)
	if len(out) == 0 {
		return nil, ErrEmptyList
	}
	for _, t := range out {
		if !tickerRe.MatchString(t) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTicker, t)
		}
	}
	return out, nil
}

func normalizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		t := util.NormalizeTicker(s)
		if t == "" || indexOf(out, t) >= 0 {
			continue
		}
		out = append(out, t)
	}
	return out
}

func indexOf(list []string, t string) int {
	for i, v := range list {
		if v == t {
			return i
		}
	}
	return -1
}
