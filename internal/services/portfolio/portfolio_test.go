package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPulse/internal/domain/models"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func series(start int, values ...float64) models.TimeSeries {
	ts := make(models.TimeSeries, len(values))
	for i, v := range values {
		ts[i] = models.Point{Time: base.AddDate(0, 0, start+i), Value: v}
	}
	return ts
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate([]models.Holding{{Ticker: "A", Weight: 0.5}, {Ticker: "B", Weight: 0.505}}))
	assert.ErrorIs(t, Validate(nil), ErrInvalidConfiguration)
	assert.ErrorIs(t, Validate([]models.Holding{{Ticker: "A", Weight: 0.5}, {Ticker: "B", Weight: 0.3}}), ErrInvalidConfiguration)
	assert.ErrorIs(t, Validate([]models.Holding{{Ticker: "A", Weight: 1.5}, {Ticker: "B", Weight: -0.5}}), ErrInvalidConfiguration)

	_, err := HoldingsFrom([]string{"A"}, []float64{0.5, 0.5})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestCalculate(t *testing.T) {
	prices := map[string]models.TimeSeries{
		"A": series(0, 100, 110, 99),
		"B": series(0, 50, 50, 55),
	}
	holdings := []models.Holding{{Ticker: "A", Weight: 0.5}, {Ticker: "B", Weight: 0.5}}

	res, err := Calculate(holdings, prices, nil)
	require.NoError(t, err)
	// combined returns: 0.5*0.1 + 0 = 0.05, 0.5*(-0.1) + 0.5*0.1 = 0
	assert.InDelta(t, 5.0, res.TotalReturn, 1e-9)
	assert.InDelta(t, 2.5, res.AverageReturn, 1e-9)
	assert.InDelta(t, 3.5355339059, res.Volatility, 1e-9)
	assert.InDelta(t, 2.5/3.5355339059, res.SharpeRatio, 1e-9)
	assert.Equal(t, []string{"A", "B"}, res.Tickers)
}

func TestCalculateUsesSuppliedVolatility(t *testing.T) {
	prices := map[string]models.TimeSeries{"A": series(0, 100, 110, 99)}
	res, err := Calculate([]models.Holding{{Ticker: "A", Weight: 1}}, prices, map[string]float64{"A": 0.02})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, res.PortfolioVolatility, 1e-12)
}

func TestCalculateNoData(t *testing.T) {
	_, err := Calculate([]models.Holding{{Ticker: "A", Weight: 1}}, map[string]models.TimeSeries{"A": series(0, 1)}, nil)
	assert.ErrorIs(t, err, ErrInsufficientData)

	disjoint := map[string]models.TimeSeries{
		"A": series(0, 1, 2),
		"B": series(10, 1, 2),
	}
	_, err = Calculate([]models.Holding{{Ticker: "A", Weight: 0.5}, {Ticker: "B", Weight: 0.5}}, disjoint, nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestCompare(t *testing.T) {
	data := map[string]models.TimeSeries{
		"A":    series(0, 10, 11, 12, 13, 14, 15),
		"B":    series(0, 20, 22, 24, 26, 28, 30),
		"TINY": series(0, 1, 2),
	}
	res, err := Compare([]string{"A", "B", "TINY"}, data, map[string]float64{"A": 0.4})
	require.NoError(t, err)
	require.Len(t, res.Stocks, 2)

	a := res.Stocks[0]
	assert.Equal(t, "A", a.Ticker)
	assert.Equal(t, 15.0, a.CurrentPrice)
	assert.InDelta(t, 50.0, a.TotalReturn, 1e-9)
	assert.Equal(t, 0.4, a.Sentiment)
	assert.Equal(t, 6, a.DataPoints)

	require.Len(t, res.Correlations, 1)
	assert.Equal(t, "A", res.Correlations[0].A)
	assert.Equal(t, "B", res.Correlations[0].B)
	assert.InDelta(t, 1.0, res.Correlations[0].Value, 1e-9)

	_, err = Compare([]string{"TINY"}, data, nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
}
