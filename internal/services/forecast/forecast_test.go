package forecast

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPulse/internal/domain/models"
)

func dailySeries(values ...float64) models.TimeSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make(models.TimeSeries, len(values))
	for i, v := range values {
		out[i] = models.Point{Time: start.AddDate(0, 0, i), Value: v}
	}
	return out
}

func TestSanitize(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	in := models.Forecast{
		{Time: ts, Yhat: 10, Lower: 12, Upper: 8},
		{Time: ts.Add(time.Hour), Yhat: math.NaN(), Lower: 1, Upper: 2},
		{Time: ts.Add(2 * time.Hour), Yhat: 15, Lower: 9, Upper: 11},
		{Yhat: 1, Lower: 0, Upper: 2},
	}
	out := Sanitize(in)
	require.Len(t, out, 2)
	assert.Equal(t, 8.0, out[0].Lower)
	assert.Equal(t, 12.0, out[0].Upper)
	assert.Equal(t, 9.0, out[1].Lower)
	assert.Equal(t, 15.0, out[1].Upper)
}

func TestTrendProviderExtrapolatesLine(t *testing.T) {
	p := NewTrendProvider()
	fc, err := p.Forecast(context.Background(), "AAPL", dailySeries(1, 2, 3, 4, 5), 3)
	require.NoError(t, err)
	require.Len(t, fc, 3)

	assert.InDelta(t, 6.0, fc[0].Yhat, 1e-9)
	assert.InDelta(t, 8.0, fc[2].Yhat, 1e-9)
	// perfect fit, zero-width bands
	assert.InDelta(t, fc[0].Yhat, fc[0].Lower, 1e-9)
	assert.Equal(t, time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), fc[0].Time)
}

func TestTrendProviderBandsWidenWithNoise(t *testing.T) {
	p := NewTrendProvider(WithZ(2))
	fc, err := p.Forecast(context.Background(), "AAPL", dailySeries(10, 12, 10, 12, 10, 12), 2)
	require.NoError(t, err)
	for _, pt := range fc {
		assert.Less(t, pt.Lower, pt.Yhat)
		assert.Greater(t, pt.Upper, pt.Yhat)
	}
}

func TestTrendProviderNeedsHistory(t *testing.T) {
	_, err := NewTrendProvider().Forecast(context.Background(), "AAPL", dailySeries(1), 3)
	assert.Error(t, err)

	fc, err := NewTrendProvider().Forecast(context.Background(), "AAPL", dailySeries(1), 0)
	require.NoError(t, err)
	assert.Empty(t, fc)
}

func TestHTTPProviderForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req forecastRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "AAPL", req.Ticker)
		assert.Equal(t, 2, req.Horizon)
		assert.Len(t, req.History, 3)

		_ = json.NewEncoder(w).Encode(forecastResponse{Forecast: []forecastPoint{
			{DS: "2024-01-04", Yhat: 4, YhatLower: 3, YhatUpper: 5},
			{DS: "2024-01-05", Yhat: 5, YhatLower: 6, YhatUpper: 4},
			{DS: "garbage", Yhat: 1},
		}})
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL + "/")
	fc, err := p.Forecast(context.Background(), "AAPL", dailySeries(1, 2, 3), 2)
	require.NoError(t, err)
	require.Len(t, fc, 2)
	assert.Equal(t, 4.0, fc[1].Lower)
	assert.Equal(t, 6.0, fc[1].Upper)
	assert.Equal(t, "closed", p.State())
}

func TestHTTPProviderRetriesTemporaryErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(forecastResponse{Forecast: []forecastPoint{
			{DS: "2024-01-04", Yhat: 4, YhatLower: 3, YhatUpper: 5},
		}})
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, WithRetries(2, time.Millisecond))
	fc, err := p.Forecast(context.Background(), "AAPL", dailySeries(1, 2, 3), 1)
	require.NoError(t, err)
	assert.Len(t, fc, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestHTTPProviderDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, WithRetries(3, time.Millisecond))
	_, err := p.Forecast(context.Background(), "AAPL", dailySeries(1, 2, 3), 1)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHTTPProviderBreakerOpens(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL,
		WithRetries(0, time.Millisecond),
		WithBreaker(BreakerSettings{MinRequests: 2, FailureRatio: 0.5, Timeout: time.Minute}),
	)
	for i := 0; i < 2; i++ {
		_, err := p.Forecast(context.Background(), "AAPL", dailySeries(1, 2, 3), 1)
		require.Error(t, err)
	}
	assert.Equal(t, "open", p.State())

	_, err := p.Forecast(context.Background(), "AAPL", dailySeries(1, 2, 3), 1)
	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestHTTPProviderEmptyForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"forecast":[]}`))
	}))
	defer srv.Close()

	_, err := NewHTTPProvider(srv.URL).Forecast(context.Background(), "AAPL", dailySeries(1, 2), 1)
	assert.ErrorIs(t, err, ErrEmptyForecast)
}
