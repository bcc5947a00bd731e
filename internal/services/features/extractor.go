package features

import (
	"math"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/util"
)

// DefaultWindow is the rolling window for MA_Close and Volatility.
const DefaultWindow = 3

// Frame is the per-bar analysis table built from bars and sentiment.
type Frame struct {
	Ticker     string
	Times      []time.Time
	Close      []float64
	MAClose    []float64
	Volatility []float64
	Sentiment  []float64
	LogReturns []float64
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.Close) }

// Prices returns the close series.
func (f *Frame) Prices() models.TimeSeries { return models.NewTimeSeries(f.Times, f.Close) }

// LatestSentiment returns the most recent sentiment, 0 when there is none.
func (f *Frame) LatestSentiment() float64 {
	if len(f.Sentiment) == 0 {
		return 0
	}
	return f.Sentiment[len(f.Sentiment)-1]
}

// LatestVolatility returns the most recent rolling volatility, 0 when there is none.
func (f *Frame) LatestVolatility() float64 {
	if len(f.Volatility) == 0 {
		return 0
	}
	return f.Volatility[len(f.Volatility)-1]
}

// Build assembles a Frame. sentiment is aligned to bars by index; missing
// entries are 0.
func Build(bars []models.Bar, sentiment []float64) *Frame {
	f := &Frame{
		Times:     make([]time.Time, len(bars)),
		Close:     make([]float64, len(bars)),
		Sentiment: make([]float64, len(bars)),
	}
	if len(bars) > 0 {
		f.Ticker = bars[0].Ticker
	}
	for i, b := range bars {
		f.Times[i] = b.Time
		f.Close[i] = b.Close
		if i < len(sentiment) {
			f.Sentiment[i] = util.Clamp(sentiment[i], -1, 1)
		}
	}
	f.MAClose = RollingMean(f.Close, DefaultWindow)
	f.Volatility = RollingStd(f.Close, DefaultWindow)
	f.LogReturns = ComputeLogReturns(f.Close)
	return f
}

// RollingMean computes the trailing mean; the first window-1 entries use the available prefix.
func RollingMean(xs []float64, window int) []float64 {
	return rolling(xs, window, util.Mean)
}

// RollingStd computes the trailing population std; the first window-1 entries use the available prefix.
func RollingStd(xs []float64, window int) []float64 {
	return rolling(xs, window, util.StdDev)
}

func rolling(xs []float64, window int, fn func([]float64) float64) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(xs))
	for i := range xs {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		out[i] = fn(xs[start : i+1])
	}
	return out
}

// ComputeLogReturns computes log returns r_t = ln(C_t / C_{t-1}).
// It returns a slice of length len(closes)-1, or nil if insufficient data.
func ComputeLogReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		cur := closes[i]
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}
