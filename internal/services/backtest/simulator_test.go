package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPulse/internal/domain/models"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func series(values ...float64) models.TimeSeries {
	ts := make(models.TimeSeries, len(values))
	for i, v := range values {
		ts[i] = models.Point{Time: base.AddDate(0, 0, i), Value: v}
	}
	return ts
}

func forecast(values ...float64) models.Forecast {
	fc := make(models.Forecast, len(values))
	for i, v := range values {
		fc[i] = models.ForecastPoint{Time: base.AddDate(0, 0, i), Yhat: v, Lower: v, Upper: v}
	}
	return fc
}

func TestRunMonotonicUptrend(t *testing.T) {
	history := series(100, 101, 102, 103, 104, 105, 106, 107, 108, 109)
	fc := forecast(1000, 1000, 1000, 1000, 1000, 1000, 1000, 1000, 1000, 1000)

	res, err := NewSimulator().Run("AAPL", history, fc, 10000)
	require.NoError(t, err)

	// test window is the last 5 points: 105..109
	require.Len(t, res.Trades, 1)
	buy := res.Trades[0]
	assert.Equal(t, models.ActionBuy, buy.Action)
	assert.Equal(t, 106.0, buy.Price)
	assert.Equal(t, int64(94), buy.Shares)
	assert.InDelta(t, 10000-94*106.0, buy.CapitalAfter, 1e-9)

	assert.InDelta(t, 10000-94*106.0+94*109.0, res.FinalValue, 1e-9)
	assert.Greater(t, res.TotalReturnPct, 0.0)
	assert.Equal(t, 100.0, res.PredictionAccuracy)
	assert.Equal(t, 4, res.PredictionsTotal)
	assert.Len(t, res.PortfolioHistory, 4)
	assert.NotEmpty(t, res.RunID)

	// buy-and-hold: 95 shares at 105
	assert.InDelta(t, (95*109.0-10000)/10000*100, res.BuyHoldReturnPct, 1e-9)
	assert.InDelta(t, res.TotalReturnPct-res.BuyHoldReturnPct, res.Outperformance, 1e-12)
}

func TestRunNeverNegative(t *testing.T) {
	history := series(50, 52, 49, 55, 53, 58, 51, 60, 57, 62, 59, 64, 61, 66, 63, 68)
	fc := forecast(0, 60, 0, 60, 0, 70, 0, 70, 0, 75, 0, 75)

	res, err := NewSimulator().Run("X", history, fc, 1000)
	require.NoError(t, err)
	for _, snap := range res.PortfolioHistory {
		assert.GreaterOrEqual(t, snap.Cash, 0.0)
		assert.GreaterOrEqual(t, snap.Position, int64(0))
	}
	for i, tr := range res.Trades {
		if i%2 == 0 {
			assert.Equal(t, models.ActionBuy, tr.Action)
		} else {
			assert.Equal(t, models.ActionSell, tr.Action)
		}
	}

	again, err := NewSimulator().Run("X", history, fc, 1000)
	require.NoError(t, err)
	assert.Equal(t, res.FinalValue, again.FinalValue)
	assert.Equal(t, res.Trades, again.Trades)
}

func TestRunInsufficientData(t *testing.T) {
	_, err := NewSimulator().Run("X", series(1, 2, 3), forecast(1, 2, 3, 4, 5), 1000)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = NewSimulator().Run("X", series(1, 2, 3, 4, 5, 6, 7, 8, 9, 10), forecast(1, 2), 1000)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestVerdict(t *testing.T) {
	assert.Contains(t, Verdict(20, 10), "EXCELLENT")
	assert.Contains(t, Verdict(12, 10), "GOOD")
	assert.Contains(t, Verdict(5, 10), "MODERATE")
	assert.Contains(t, Verdict(-1, 10), "POOR")
}
