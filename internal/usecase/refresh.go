package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	applogger "StockPulse/pkg/logger"
	"StockPulse/pkg/queue"
)

// RefreshJobType is the queue message type handled by RefreshJob.
const RefreshJobType = "refresh_ticker"

// RefreshPayload is the body of a refresh_ticker message.
type RefreshPayload struct {
	Ticker  string `json:"ticker"`
	Horizon int    `json:"horizon"`
}

// RefreshJob recomputes and re-caches the forecast, signals and risk of one ticker.
type RefreshJob struct {
	analyzer *Analyzer
	signals  *SignalsUseCase
	horizon  int
	l        *applogger.Logger
}

var _ queue.Job = (*RefreshJob)(nil)

func NewRefreshJob(analyzer *Analyzer, signals *SignalsUseCase, horizon int, l *applogger.Logger) *RefreshJob {
	return &RefreshJob{analyzer: analyzer, signals: signals, horizon: horizon, l: l.Component("refresh-job")}
}

func (j *RefreshJob) Name() string { return "refresh_ticker_job" }

func (j *RefreshJob) Type() string { return RefreshJobType }

// Handle drops the cached results of the ticker and computes them again. Signals
// and risk are published as a side effect of recomputation.
func (j *RefreshJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[RefreshPayload](payload)
	if err != nil {
		return err
	}
	if p.Ticker == "" {
		return errors.New("refresh payload without ticker")
	}
	horizon := p.Horizon
	if horizon <= 0 {
		horizon = j.horizon
	}

	start := time.Now()
	if c := j.analyzer.Cache(); c != nil {
		if err := c.InvalidateTicker(ctx, p.Ticker); err != nil {
			j.l.Warn("cache invalidation failed", applogger.String("ticker", p.Ticker), applogger.Error(err))
		}
	}

	var errs []error
	if _, err := j.analyzer.Forecast(ctx, p.Ticker, horizon); err != nil {
		errs = append(errs, fmt.Errorf("forecast: %w", err))
	}
	if _, err := j.signals.Signals(ctx, p.Ticker, horizon); err != nil {
		errs = append(errs, fmt.Errorf("signals: %w", err))
	}
	if _, err := j.signals.Risk(ctx, p.Ticker); err != nil {
		errs = append(errs, fmt.Errorf("risk: %w", err))
	}
	j.analyzer.Metrics().RecordLatency("refresh", time.Since(start).Seconds())

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("refresh %s: %w", p.Ticker, err)
	}
	j.l.Info("ticker refreshed",
		applogger.String("ticker", p.Ticker),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

// TickerSource lists the tickers to refresh.
type TickerSource interface {
	List() []string
}

// RefreshScheduler enqueues a refresh job per monitored ticker on a fixed interval.
// After a cycle with enqueue errors the next cycle runs after the shorter retry interval.
type RefreshScheduler struct {
	publisher     queue.Publisher
	tickers       TickerSource
	interval      time.Duration
	retryInterval time.Duration
	horizon       int
	l             *applogger.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewRefreshScheduler(publisher queue.Publisher, tickers TickerSource, interval, retryInterval time.Duration, horizon int, l *applogger.Logger) *RefreshScheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	if retryInterval <= 0 || retryInterval > interval {
		retryInterval = interval
	}
	return &RefreshScheduler{
		publisher:     publisher,
		tickers:       tickers,
		interval:      interval,
		retryInterval: retryInterval,
		horizon:       horizon,
		l:             l.Component("refresh-scheduler"),
		stopCh:        make(chan struct{}),
	}
}

// Start runs a cycle immediately and then keeps scheduling until Stop or ctx is done.
func (s *RefreshScheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			delay := s.nextDelay(s.RunOnce(ctx))
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-s.stopCh:
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
}

// Stop ends the schedule and waits for the loop to exit.
func (s *RefreshScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *RefreshScheduler) nextDelay(err error) time.Duration {
	if err != nil {
		return s.retryInterval
	}
	return s.interval
}

// RunOnce enqueues one refresh message per monitored ticker.
func (s *RefreshScheduler) RunOnce(ctx context.Context) error {
	tickers := s.tickers.List()
	var errs []error
	for _, t := range tickers {
		if err := s.publisher.PublishMessage(ctx, RefreshJobType, RefreshPayload{Ticker: t, Horizon: s.horizon}); err != nil {
			errs = append(errs, fmt.Errorf("enqueue %s: %w", t, err))
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		s.l.Error("refresh cycle had enqueue errors", applogger.Int("failed", len(errs)), applogger.Error(err))
		return err
	}
	s.l.Info("refresh cycle enqueued", applogger.Int("tickers", len(tickers)))
	return nil
}
