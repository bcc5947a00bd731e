package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
)

// MemoryPriceStore keeps bars in process memory. It backs the service when
// ClickHouse is disabled; nothing survives a restart.
type MemoryPriceStore struct {
	mu   sync.RWMutex
	bars map[domrepo.Timeframe]map[string][]models.Bar
}

func NewMemoryPriceStore() *MemoryPriceStore {
	return &MemoryPriceStore{bars: make(map[domrepo.Timeframe]map[string][]models.Bar)}
}

func (s *MemoryPriceStore) Init(context.Context) error { return nil }

// StoreBars upserts bars by (ticker, time), keeping each series sorted.
func (s *MemoryPriceStore) StoreBars(_ context.Context, tf domrepo.Timeframe, bars []models.Bar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byTicker, ok := s.bars[tf]
	if !ok {
		byTicker = make(map[string][]models.Bar)
		s.bars[tf] = byTicker
	}
	touched := make(map[string]struct{})
	for _, b := range bars {
		if b.Ticker == "" || b.Time.IsZero() {
			continue
		}
		byTicker[b.Ticker] = append(byTicker[b.Ticker], b)
		touched[b.Ticker] = struct{}{}
	}
	for t := range touched {
		byTicker[t] = dedupeBars(byTicker[t])
	}
	return nil
}

// dedupeBars sorts by time and keeps the last written bar for each timestamp.
func dedupeBars(series []models.Bar) []models.Bar {
	sort.SliceStable(series, func(i, j int) bool { return series[i].Time.Before(series[j].Time) })
	out := series[:0]
	for _, b := range series {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

func (s *MemoryPriceStore) Bars(_ context.Context, ticker string, from, to time.Time, tf domrepo.Timeframe) ([]models.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Bar
	for _, b := range s.bars[tf][ticker] {
		if !b.Time.Before(from) && !b.Time.After(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *MemoryPriceStore) LatestBars(_ context.Context, ticker string, n int, tf domrepo.Timeframe) ([]models.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	series := s.bars[tf][ticker]
	if n > 0 && len(series) > n {
		series = series[len(series)-n:]
	}
	return append([]models.Bar(nil), series...), nil
}

func (s *MemoryPriceStore) Health(context.Context) error { return nil }

// MemoryEvaluationStore keeps the latest evaluation per ticker.
type MemoryEvaluationStore struct {
	mu     sync.RWMutex
	latest map[string]*models.Evaluation
}

func NewMemoryEvaluationStore() *MemoryEvaluationStore {
	return &MemoryEvaluationStore{latest: make(map[string]*models.Evaluation)}
}

func (s *MemoryEvaluationStore) Save(_ context.Context, ev *models.Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[ev.Ticker] = ev
	return nil
}

func (s *MemoryEvaluationStore) Latest(_ context.Context, ticker string) (*models.Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest[ticker], nil
}

var (
	_ domrepo.PriceStore      = (*MemoryPriceStore)(nil)
	_ domrepo.EvaluationStore = (*MemoryEvaluationStore)(nil)
)
