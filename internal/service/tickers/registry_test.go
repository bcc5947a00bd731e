package tickers

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applogger "StockPulse/pkg/logger"
)

func newRegistry(t *testing.T, defaults ...string) (*Registry, *MemoryStore) {
	t.Helper()
	store := &MemoryStore{}
	r, err := NewRegistry(context.Background(), store, defaults, applogger.Nop())
	require.NoError(t, err)
	return r, store
}

func TestNewRegistrySeedsDefaults(t *testing.T) {
	r, store := newRegistry(t, "aapl", "MSFT", "AAPL")
	assert.Equal(t, []string{"AAPL", "MSFT"}, r.List())

	saved, _ := store.Load(context.Background())
	assert.Equal(t, []string{"AAPL", "MSFT"}, saved)
}

func TestNewRegistryPrefersStoredList(t *testing.T) {
	store := &MemoryStore{tickers: []string{"TSLA"}}
	r, err := NewRegistry(context.Background(), store, []string{"AAPL"}, applogger.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"TSLA"}, r.List())
}

func TestRegistryAdd(t *testing.T) {
	r, store := newRegistry(t, "AAPL")
	ctx := context.Background()

	got, err := r.Add(ctx, " nvda ")
	require.NoError(t, err)
	assert.Equal(t, "NVDA", got)
	assert.True(t, r.Contains("nvda"))

	_, err = r.Add(ctx, "NVDA")
	assert.ErrorIs(t, err, ErrExists)

	_, err = r.Add(ctx, "not a ticker")
	assert.ErrorIs(t, err, ErrInvalidTicker)

	saved, _ := store.Load(ctx)
	assert.Equal(t, []string{"AAPL", "NVDA"}, saved)
}

func TestRegistryRemove(t *testing.T) {
	r, _ := newRegistry(t, "AAPL", "MSFT")
	ctx := context.Background()

	_, err := r.Remove(ctx, "GOOG")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := r.Remove(ctx, "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", got)

	_, err = r.Remove(ctx, "MSFT")
	assert.ErrorIs(t, err, ErrLastTicker)
	assert.Equal(t, []string{"MSFT"}, r.List())
}

func TestRegistryReplace(t *testing.T) {
	r, _ := newRegistry(t, "AAPL")
	ctx := context.Background()

	got, err := r.Replace(ctx, []string{"msft", "goog", "MSFT"})
	require.NoError(t, err)
	assert.Equal(t, []string{"MSFT", "GOOG"}, got)

	_, err = r.Replace(ctx, []string{" ", ""})
	assert.ErrorIs(t, err, ErrEmptyList)

	_, err = r.Replace(ctx, []string{"OK", "bad ticker"})
	assert.ErrorIs(t, err, ErrInvalidTicker)
	assert.Equal(t, []string{"MSFT", "GOOG"}, r.List())
}

type failingStore struct{ MemoryStore }

func (f *failingStore) Save(context.Context, []string) error { return errors.New("down") }

func TestRegistryKeepsStateWhenSaveFails(t *testing.T) {
	store := &failingStore{MemoryStore: MemoryStore{tickers: []string{"AAPL"}}}
	r, err := NewRegistry(context.Background(), store, nil, applogger.Nop())
	require.NoError(t, err)

	_, err = r.Add(context.Background(), "MSFT")
	require.Error(t, err)
	assert.Equal(t, []string{"AAPL"}, r.List())
}

func TestRedisStore(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db, "stockpulse:tickers")
	ctx := context.Background()

	mock.ExpectGet("stockpulse:tickers").RedisNil()
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	mock.ExpectSet("stockpulse:tickers", []byte(`["AAPL","MSFT"]`), 0).SetVal("OK")
	require.NoError(t, s.Save(ctx, []string{"AAPL", "MSFT"}))

	mock.ExpectGet("stockpulse:tickers").SetVal(`["AAPL","MSFT"]`)
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, got)

	mock.ExpectGet("stockpulse:tickers").SetErr(errors.New("conn refused"))
	_, err = s.Load(ctx)
	assert.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}
