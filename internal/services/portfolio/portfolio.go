// Package portfolio computes weighted basket metrics and side-by-side stock comparisons.
package portfolio

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/util"
)

var (
	// ErrInvalidConfiguration is returned for malformed weights.
	ErrInvalidConfiguration = errors.New("invalid portfolio configuration")
	// ErrInsufficientData is returned when no ticker has usable history.
	ErrInsufficientData = errors.New("insufficient data for portfolio calculation")
)

const weightTolerance = 0.01

// Validate checks that weights are non-negative and sum to 1 within tolerance.
func Validate(holdings []models.Holding) error {
	if len(holdings) == 0 {
		return fmt.Errorf("%w: no holdings", ErrInvalidConfiguration)
	}
	var sum float64
	for _, h := range holdings {
		if h.Weight < 0 {
			return fmt.Errorf("%w: negative weight for %s", ErrInvalidConfiguration, h.Ticker)
		}
		sum += h.Weight
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %.4f", ErrInvalidConfiguration, sum)
	}
	return nil
}

// HoldingsFrom zips tickers and weights.
func HoldingsFrom(tickers []string, weights []float64) ([]models.Holding, error) {
	if len(tickers) != len(weights) {
		return nil, fmt.Errorf("%w: %d tickers but %d weights", ErrInvalidConfiguration, len(tickers), len(weights))
	}
	out := make([]models.Holding, len(tickers))
	for i := range tickers {
		out[i] = models.Holding{Ticker: tickers[i], Weight: weights[i]}
	}
	return out, nil
}

// returnsByTime maps each timestamp (except the first) to its simple return.
func returnsByTime(ts models.TimeSeries) map[time.Time]float64 {
	out := make(map[time.Time]float64, len(ts))
	for i := 1; i < len(ts); i++ {
		if prev := ts[i-1].Value; prev != 0 {
			out[ts[i].Time] = (ts[i].Value - prev) / prev
		}
	}
	return out
}

// Calculate computes metrics of the weighted basket. volatility optionally carries
// the latest rolling volatility per ticker; missing entries fall back to the
// sample std of that ticker's returns.
func Calculate(holdings []models.Holding, prices map[string]models.TimeSeries, volatility map[string]float64) (*models.PortfolioMetrics, error) {
	if err := Validate(holdings); err != nil {
		return nil, err
	}

	var (
		weighted []map[time.Time]float64
		pvol     float64
	)
	res := &models.PortfolioMetrics{}
	for _, h := range holdings {
		ts, ok := prices[h.Ticker]
		if !ok || len(ts) < 2 {
			continue
		}
		rets := returnsByTime(ts)
		if len(rets) == 0 {
			continue
		}
		w := make(map[time.Time]float64, len(rets))
		raw := make([]float64, 0, len(rets))
		for t, r := range rets {
			w[t] = r * h.Weight
			raw = append(raw, r)
		}
		weighted = append(weighted, w)
		res.Tickers = append(res.Tickers, h.Ticker)
		res.Weights = append(res.Weights, h.Weight)

		if v, ok := volatility[h.Ticker]; ok {
			pvol += v * h.Weight
		} else {
			pvol += util.SampleStdDev(raw) * h.Weight
		}
	}
	if len(weighted) == 0 {
		return nil, ErrInsufficientData
	}

	var common []time.Time
	for t := range weighted[0] {
		shared := true
		for _, w := range weighted[1:] {
			if _, ok := w[t]; !ok {
				shared = false
				break
			}
		}
		if shared {
			common = append(common, t)
		}
	}
	if len(common) == 0 {
		return nil, fmt.Errorf("%w: no overlapping dates", ErrInsufficientData)
	}
	sort.Slice(common, func(i, j int) bool { return common[i].Before(common[j]) })

	combined := make([]float64, len(common))
	for i, t := range common {
		for _, w := range weighted {
			combined[i] += w[t]
		}
	}

	var total float64
	for _, r := range combined {
		total += r
	}
	res.TotalReturn = total * 100
	res.AverageReturn = util.Mean(combined) * 100
	res.Volatility = util.SampleStdDev(combined) * 100
	if res.Volatility > 0 {
		res.SharpeRatio = res.AverageReturn / res.Volatility
	}
	res.PortfolioVolatility = pvol * 100
	return res, nil
}
