package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgcache "StockPulse/pkg/cache"
)

type forecastStub struct {
	Ticker string    `json:"ticker"`
	Yhat   []float64 `json:"yhat"`
}

func newTestCache(t *testing.T) *ResultCache {
	t.Helper()
	store := pkgcache.NewMemoryCache()
	t.Cleanup(func() { _ = store.Close() })
	return NewResultCache(store, "memory", TTLs{KindForecast: time.Minute, KindSignals: time.Minute})
}

func TestKey(t *testing.T) {
	assert.Equal(t, "forecast:AAPL:7", Key(KindForecast, "aapl", 7))
	assert.Equal(t, "anomalies:MSFT", Key(KindAnomalies, "MSFT"))
}

func TestGetOrCompute_CachesSuccessOnly(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	calls := 0
	compute := func(context.Context) (forecastStub, error) {
		calls++
		return forecastStub{Ticker: "AAPL", Yhat: []float64{1, 2}}, nil
	}

	key := Key(KindForecast, "AAPL", 7)
	first, err := GetOrCompute(ctx, c, KindForecast, key, compute)
	require.NoError(t, err)
	second, err := GetOrCompute(ctx, c, KindForecast, key, compute)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)

	boom := errors.New("boom")
	_, err = GetOrCompute(ctx, c, KindSignals, Key(KindSignals, "AAPL"), func(context.Context) (forecastStub, error) {
		return forecastStub{}, boom
	})
	assert.ErrorIs(t, err, boom)

	st, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Entries[KindForecast])
	assert.Equal(t, 0, st.Entries[KindSignals])
}

func TestStatusAndClear(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, KindForecast, Key(KindForecast, "AAPL", 7), forecastStub{Ticker: "AAPL"})
	c.Set(ctx, KindForecast, Key(KindForecast, "MSFT", 7), forecastStub{Ticker: "MSFT"})
	c.Set(ctx, KindSignals, Key(KindSignals, "AAPL", 7), forecastStub{Ticker: "AAPL"})

	st, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "memory", st.Backend)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 2, st.Entries[KindForecast])

	require.NoError(t, c.Clear(ctx, KindForecast))
	st, err = c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Total)

	assert.ErrorIs(t, c.Clear(ctx, Kind("bogus")), ErrUnknownKind)

	require.NoError(t, c.Clear(ctx, ""))
	st, err = c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Total)
}

func TestInvalidateTicker(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, KindForecast, Key(KindForecast, "AAPL", 7), 1)
	c.Set(ctx, KindSignals, Key(KindSignals, "AAPL", 7), 1)
	c.Set(ctx, KindSignals, Key(KindSignals, "MSFT", 7), 1)

	require.NoError(t, c.InvalidateTicker(ctx, "aapl"))

	st, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Total)
	var v int
	assert.True(t, c.Get(ctx, KindSignals, Key(KindSignals, "MSFT", 7), &v))
}
