package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	svccache "StockPulse/internal/service/cache"
	"StockPulse/internal/services/forecast"
	"StockPulse/internal/services/sentiment"
	pkgcache "StockPulse/pkg/cache"
	applogger "StockPulse/pkg/logger"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func makeBars(ticker string, closes ...float64) []models.Bar {
	out := make([]models.Bar, len(closes))
	for i, c := range closes {
		out[i] = models.Bar{Ticker: ticker, Time: day0.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return out
}

func linear(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

type fakePriceStore struct {
	mu     sync.Mutex
	bars   map[string][]models.Bar
	stored map[domrepo.Timeframe][]models.Bar
	err    error
}

func newFakePriceStore() *fakePriceStore {
	return &fakePriceStore{bars: map[string][]models.Bar{}, stored: map[domrepo.Timeframe][]models.Bar{}}
}

func (s *fakePriceStore) Init(context.Context) error { return nil }

func (s *fakePriceStore) StoreBars(_ context.Context, tf domrepo.Timeframe, bars []models.Bar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.stored[tf] = append(s.stored[tf], bars...)
	return nil
}

func (s *fakePriceStore) Bars(_ context.Context, ticker string, from, to time.Time, _ domrepo.Timeframe) ([]models.Bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Bar
	for _, b := range s.bars[ticker] {
		if !b.Time.Before(from) && !b.Time.After(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *fakePriceStore) LatestBars(_ context.Context, ticker string, n int, _ domrepo.Timeframe) ([]models.Bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	bars := s.bars[ticker]
	if len(bars) > n {
		bars = bars[len(bars)-n:]
	}
	return append([]models.Bar(nil), bars...), nil
}

func (s *fakePriceStore) Health(context.Context) error { return s.err }

func (s *fakePriceStore) storedBars(tf domrepo.Timeframe) []models.Bar {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Bar(nil), s.stored[tf]...)
}

type fakeEvalStore struct {
	mu    sync.Mutex
	saved []*models.Evaluation
}

func (s *fakeEvalStore) Save(_ context.Context, ev *models.Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, ev)
	return nil
}

func (s *fakeEvalStore) Latest(_ context.Context, ticker string) (*models.Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.saved) - 1; i >= 0; i-- {
		if s.saved[i].Ticker == ticker {
			return s.saved[i], nil
		}
	}
	return nil, nil
}

type fakePublisher struct {
	mu       sync.Mutex
	signals  []*models.SignalReport
	risks    []*models.RiskAssessment
	messages []interface{}
	err      error
}

func (p *fakePublisher) PublishSignals(_ context.Context, r *models.SignalReport) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signals = append(p.signals, r)
	return p.err
}

func (p *fakePublisher) PublishRisk(_ context.Context, r *models.RiskAssessment) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.risks = append(p.risks, r)
	return p.err
}

func (p *fakePublisher) PublishMessage(_ context.Context, _ string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, payload)
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) counts() (signals, risks, messages int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.signals), len(p.risks), len(p.messages)
}

type nopMetrics struct{}

func (nopMetrics) RecordEvaluation(string)         {}
func (nopMetrics) RecordSignal(string, string)     {}
func (nopMetrics) RecordRiskLevel(string, string)  {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordLatency(string, float64)   {}
func (nopMetrics) RecordCacheHit(string, bool)     {}

type failingForecaster struct{}

func (failingForecaster) Forecast(context.Context, string, models.TimeSeries, int) (models.Forecast, error) {
	return nil, errors.New("model service down")
}

type env struct {
	store     *fakePriceStore
	evals     *fakeEvalStore
	publisher *fakePublisher
	cache     *svccache.ResultCache
	analyzer  *Analyzer
}

func newEnv(withCache bool) *env {
	e := &env{store: newFakePriceStore(), evals: &fakeEvalStore{}, publisher: &fakePublisher{}}
	if withCache {
		e.cache = svccache.NewResultCache(pkgcache.NewMemoryCache(), "memory", svccache.TTLs{})
	}
	e.analyzer = NewAnalyzer(e.store, forecast.NewTrendProvider(), sentiment.Static(0.2), e.cache, nopMetrics{}, applogger.Nop())
	return e
}
