package usecase

import (
	"context"
	"fmt"
	"time"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	domsvc "StockPulse/internal/domain/service"
	svccache "StockPulse/internal/service/cache"
	"StockPulse/internal/services/features"
	applogger "StockPulse/pkg/logger"
)

const defaultSentimentDays = 30

// Analyzer loads stored history, attaches sentiment and runs the forecast provider.
// It is shared by every analytics use case.
type Analyzer struct {
	store         domrepo.PriceStore
	forecaster    domsvc.ForecastProvider
	sentiment     domsvc.SentimentProvider
	cache         *svccache.ResultCache
	metrics       domrepo.Metrics
	l             *applogger.Logger
	history       int
	tf            domrepo.Timeframe
	sentimentDays int
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithHistory sets how many bars are loaded per analysis.
func WithHistory(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n > 0 {
			a.history = n
		}
	}
}

// WithTimeframe sets the bar resolution analytics read from.
func WithTimeframe(tf domrepo.Timeframe) AnalyzerOption {
	return func(a *Analyzer) { a.tf = domrepo.NormalizeTimeframe(string(tf)) }
}

// WithSentimentDays sets how many trailing bars get a sentiment score.
func WithSentimentDays(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n >= 0 {
			a.sentimentDays = n
		}
	}
}

// NewAnalyzer creates an Analyzer. cache may be nil.
func NewAnalyzer(
	store domrepo.PriceStore,
	forecaster domsvc.ForecastProvider,
	sentiment domsvc.SentimentProvider,
	cache *svccache.ResultCache,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	opts ...AnalyzerOption,
) *Analyzer {
	a := &Analyzer{
		store:         store,
		forecaster:    forecaster,
		sentiment:     sentiment,
		cache:         cache,
		metrics:       metrics,
		l:             l.Component("analyzer"),
		history:       365,
		tf:            domrepo.DefaultTimeframe(),
		sentimentDays: defaultSentimentDays,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Bars loads the most recent bars of ticker.
func (a *Analyzer) Bars(ctx context.Context, ticker string) ([]models.Bar, error) {
	bars, err := a.store.LatestBars(ctx, ticker, a.history, a.tf)
	if err != nil {
		a.metrics.RecordError("price_store")
		return nil, fmt.Errorf("load bars: %w", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoData, ticker)
	}
	return bars, nil
}

// Frame builds the feature frame of ticker: closes, rolling stats and sentiment.
func (a *Analyzer) Frame(ctx context.Context, ticker string) (*features.Frame, error) {
	bars, err := a.Bars(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return features.Build(bars, a.sentimentSeries(ctx, ticker, bars)), nil
}

// sentimentSeries scores the trailing bars. Failures degrade to neutral.
func (a *Analyzer) sentimentSeries(ctx context.Context, ticker string, bars []models.Bar) []float64 {
	out := make([]float64, len(bars))
	if a.sentiment == nil {
		return out
	}
	start := len(bars) - a.sentimentDays
	if start < 0 {
		start = 0
	}
	failed := 0
	for i := start; i < len(bars); i++ {
		v, err := a.sentiment.Sentiment(ctx, ticker, bars[i].Time)
		if err != nil {
			failed++
			continue
		}
		out[i] = v
	}
	if failed > 0 {
		a.metrics.RecordError("sentiment")
		a.l.Warn("sentiment unavailable, using neutral",
			applogger.String("ticker", ticker),
			applogger.Int("failed", failed),
		)
	}
	return out
}

// LatestSentiment scores ticker for today, 0 when the provider fails.
func (a *Analyzer) LatestSentiment(ctx context.Context, ticker string) float64 {
	if a.sentiment == nil {
		return 0
	}
	v, err := a.sentiment.Sentiment(ctx, ticker, time.Now().UTC())
	if err != nil {
		a.metrics.RecordError("sentiment")
		return 0
	}
	return v
}

// ForecastSeries forecasts horizon steps after history.
func (a *Analyzer) ForecastSeries(ctx context.Context, ticker string, history models.TimeSeries, horizon int) (models.Forecast, error) {
	start := time.Now()
	fc, err := a.forecaster.Forecast(ctx, ticker, history, horizon)
	a.metrics.RecordLatency("forecast", time.Since(start).Seconds())
	if err != nil {
		a.metrics.RecordError("forecast")
		return nil, fmt.Errorf("forecast %s: %w", ticker, err)
	}
	return fc, nil
}

// Forecast returns the cached forecast of ticker or computes it from stored history.
func (a *Analyzer) Forecast(ctx context.Context, ticker string, horizon int) (models.Forecast, error) {
	key := svccache.Key(svccache.KindForecast, ticker, horizon)
	return svccache.GetOrCompute(ctx, a.cache, svccache.KindForecast, key, func(ctx context.Context) (models.Forecast, error) {
		bars, err := a.Bars(ctx, ticker)
		if err != nil {
			return nil, err
		}
		return a.ForecastSeries(ctx, ticker, models.Closes(bars), horizon)
	})
}

// Cache exposes the result cache; it may be nil.
func (a *Analyzer) Cache() *svccache.ResultCache { return a.cache }

// Metrics exposes the metrics recorder.
func (a *Analyzer) Metrics() domrepo.Metrics { return a.metrics }
