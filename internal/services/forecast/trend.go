package forecast

import (
	"context"
	"errors"
	"math"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/util"
)

// DefaultZ is the band multiplier for a 95% interval.
const DefaultZ = 1.96

// TrendProvider extrapolates a least-squares line through the history. Bands are
// z residual standard deviations wide on each side.
type TrendProvider struct {
	z        float64
	lookback int
}

// TrendOption configures a TrendProvider.
type TrendOption func(*TrendProvider)

// WithZ sets the band multiplier.
func WithZ(z float64) TrendOption {
	return func(p *TrendProvider) {
		if z > 0 {
			p.z = z
		}
	}
}

// WithLookback limits the fit to the last n points.
func WithLookback(n int) TrendOption {
	return func(p *TrendProvider) {
		if n > 1 {
			p.lookback = n
		}
	}
}

// NewTrendProvider creates an offline provider.
func NewTrendProvider(opts ...TrendOption) *TrendProvider {
	p := &TrendProvider{z: DefaultZ}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Forecast implements service.ForecastProvider.
func (p *TrendProvider) Forecast(ctx context.Context, _ string, history models.TimeSeries, horizon int) (models.Forecast, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if horizon <= 0 {
		return models.Forecast{}, nil
	}
	if len(history) < 2 {
		return nil, errors.New("trend forecast needs at least two points")
	}
	if p.lookback > 0 {
		history = history.Tail(p.lookback)
	}

	ys := history.Values()
	slope, intercept := util.Polyfit1(ys)

	var ss float64
	for i, y := range ys {
		r := y - (slope*float64(i) + intercept)
		ss += r * r
	}
	band := p.z * math.Sqrt(ss/float64(len(ys)))

	step := util.Step(history.Times())
	last, _ := history.Last()
	out := make(models.Forecast, horizon)
	for h := 0; h < horizon; h++ {
		x := float64(len(ys) + h)
		yhat := slope*x + intercept
		out[h] = models.ForecastPoint{
			Time:  last.Time.Add(step * time.Duration(h+1)),
			Yhat:  yhat,
			Lower: yhat - band,
			Upper: yhat + band,
		}
	}
	return Sanitize(out), nil
}
