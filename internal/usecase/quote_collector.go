package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	mid "StockPulse/internal/middleware"
	applogger "StockPulse/pkg/logger"
	"StockPulse/pkg/util"
)

type barKey struct {
	ticker string
	tf     drepo.Timeframe
	bucket int64
}

// BarAggregator folds quotes into one-minute bars plus any rollup timeframes and
// periodically upserts them. The current bucket's bar is written repeatedly as it grows;
// the store keeps the latest version.
type BarAggregator struct {
	store     drepo.PriceStore
	metrics   drepo.Metrics
	l         *applogger.Logger
	batchSize int
	interval  time.Duration
	tfs       []drepo.Timeframe

	mu    sync.Mutex
	bars  map[barKey]*models.Bar
	dirty map[barKey]struct{}

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// BarOption configures a BarAggregator.
type BarOption func(*BarAggregator)

// WithRollups also builds bars of the given timeframes from the same quotes.
// A rollup bar that already exists in the store is extended rather than replaced.
func WithRollups(tfs ...drepo.Timeframe) BarOption {
	return func(a *BarAggregator) {
		for _, tf := range tfs {
			if tf == drepo.TF1m || !drepo.IsValidTimeframe(tf) || a.builds(tf) {
				continue
			}
			a.tfs = append(a.tfs, tf)
		}
	}
}

func NewBarAggregator(store drepo.PriceStore, metrics drepo.Metrics, batchSize int, interval time.Duration, l *applogger.Logger, opts ...BarOption) *BarAggregator {
	if batchSize <= 0 {
		batchSize = 100
	}
	if interval <= 0 {
		interval = time.Second
	}
	a := &BarAggregator{
		store:     store,
		metrics:   metrics,
		l:         l.Component("bar-aggregator"),
		batchSize: batchSize,
		interval:  interval,
		tfs:       []drepo.Timeframe{drepo.TF1m},
		bars:      make(map[barKey]*models.Bar),
		dirty:     make(map[barKey]struct{}),
		stopCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *BarAggregator) builds(tf drepo.Timeframe) bool {
	for _, t := range a.tfs {
		if t == tf {
			return true
		}
	}
	return false
}

// Process implements middleware.Processor.
func (a *BarAggregator) Process(ctx context.Context, q *models.Quote) error {
	at := time.Unix(q.Timestamp, 0).UTC()
	for _, tf := range a.tfs[1:] {
		a.seed(ctx, q.Ticker, tf, util.TruncateToTimeframe(at, string(tf)))
	}

	a.mu.Lock()
	for _, tf := range a.tfs {
		bucket := util.TruncateToTimeframe(at, string(tf))
		k := barKey{ticker: q.Ticker, tf: tf, bucket: bucket.Unix()}
		b, ok := a.bars[k]
		if !ok {
			b = &models.Bar{Ticker: q.Ticker, Time: bucket, Open: q.Price, High: q.Price, Low: q.Price}
			a.bars[k] = b
		}
		if q.Price > b.High {
			b.High = q.Price
		}
		if q.Price < b.Low {
			b.Low = q.Price
		}
		b.Close = q.Price
		b.Volume += q.Volume
		a.dirty[k] = struct{}{}
	}
	full := len(a.dirty) >= a.batchSize
	a.mu.Unlock()

	a.metrics.RecordLastPrice(q.Ticker, q.Price)
	if full {
		return a.Flush(ctx)
	}
	return nil
}

// seed loads the stored bar of a rollup bucket the first time the bucket is seen,
// so a restart or an earlier batch load does not lose the bucket's open and volume.
func (a *BarAggregator) seed(ctx context.Context, ticker string, tf drepo.Timeframe, bucket time.Time) {
	k := barKey{ticker: ticker, tf: tf, bucket: bucket.Unix()}
	a.mu.Lock()
	_, ok := a.bars[k]
	a.mu.Unlock()
	if ok {
		return
	}

	stored, err := a.store.Bars(ctx, ticker, bucket, bucket, tf)
	if err != nil {
		a.l.Warn("rollup seed failed", applogger.String("ticker", ticker), applogger.String("timeframe", string(tf)), applogger.Error(err))
		return
	}
	if len(stored) == 0 {
		return
	}
	b := stored[len(stored)-1]
	b.Ticker, b.Time = ticker, bucket

	a.mu.Lock()
	if _, ok := a.bars[k]; !ok {
		a.bars[k] = &b
	}
	a.mu.Unlock()
}

// Flush upserts every bar changed since the last flush and forgets bars of past buckets.
func (a *BarAggregator) Flush(ctx context.Context) error {
	a.mu.Lock()
	if len(a.dirty) == 0 {
		a.mu.Unlock()
		return nil
	}
	batches := make(map[drepo.Timeframe][]models.Bar)
	for k := range a.dirty {
		batches[k.tf] = append(batches[k.tf], *a.bars[k])
	}
	a.dirty = make(map[barKey]struct{})

	type series struct {
		ticker string
		tf     drepo.Timeframe
	}
	latest := make(map[series]int64)
	for k := range a.bars {
		s := series{k.ticker, k.tf}
		if k.bucket > latest[s] {
			latest[s] = k.bucket
		}
	}
	for k := range a.bars {
		if k.bucket < latest[series{k.ticker, k.tf}] {
			delete(a.bars, k)
		}
	}
	a.mu.Unlock()

	start := time.Now()
	var failed []error
	for _, tf := range a.tfs {
		batch := batches[tf]
		if len(batch) == 0 {
			continue
		}
		sort.Slice(batch, func(i, j int) bool {
			if batch[i].Ticker != batch[j].Ticker {
				return batch[i].Ticker < batch[j].Ticker
			}
			return batch[i].Time.Before(batch[j].Time)
		})
		if err := a.store.StoreBars(ctx, tf, batch); err != nil {
			a.metrics.RecordError("bar_flush")
			a.requeue(tf, batch)
			failed = append(failed, fmt.Errorf("store %s bars: %w", tf, err))
		}
	}
	if err := errors.Join(failed...); err != nil {
		return err
	}
	a.metrics.RecordLatency("bar_flush", time.Since(start).Seconds())
	return nil
}

// requeue marks failed bars dirty again unless a newer version was built meanwhile.
func (a *BarAggregator) requeue(tf drepo.Timeframe, batch []models.Bar) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range batch {
		b := batch[i]
		k := barKey{ticker: b.Ticker, tf: tf, bucket: b.Time.Unix()}
		if _, ok := a.bars[k]; !ok {
			a.bars[k] = &b
		}
		a.dirty[k] = struct{}{}
	}
}

// Start flushes on the configured interval until Stop.
func (a *BarAggregator) Start(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()
		for {
			select {
			case <-a.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := a.Flush(ctx); err != nil {
					a.l.Warn("bar flush failed", applogger.Error(err))
				}
			}
		}
	}()
}

// Stop ends the flush loop and writes what is pending.
func (a *BarAggregator) Stop(ctx context.Context) error {
	a.stopOnce.Do(func() { close(a.stopCh) })
	a.wg.Wait()
	return a.Flush(ctx)
}

// QuoteCollector feeds live quotes of the monitored tickers through the pipeline.
type QuoteCollector struct {
	stream  drepo.QuoteStream
	tickers TickerSource
	pipe    *mid.QuotePipeline
	agg     *BarAggregator
	metrics drepo.Metrics
	l       *applogger.Logger
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewQuoteCollector(stream drepo.QuoteStream, tickers TickerSource, pipe *mid.QuotePipeline, agg *BarAggregator, metrics drepo.Metrics, l *applogger.Logger) *QuoteCollector {
	return &QuoteCollector{
		stream:  stream,
		tickers: tickers,
		pipe:    pipe,
		agg:     agg,
		metrics: metrics,
		l:       l.Component("quote-collector"),
		done:    make(chan struct{}),
	}
}

// IsConnected returns true if the quote stream is connected.
func (c *QuoteCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

// Start connects, subscribes the monitored tickers and consumes in the background,
// reconnecting after stream failures.
func (c *QuoteCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx, c.tickers.List()); err != nil {
		return err
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.pipe.Start(ctx)
	c.agg.Start(ctx)
	go c.run(ctx)
	return nil
}

func (c *QuoteCollector) run(ctx context.Context) {
	defer close(c.done)
	for {
		qCh, errCh := c.stream.Read(ctx)
		c.consume(ctx, qCh, errCh)
		if ctx.Err() != nil {
			return
		}
		c.metrics.RecordError("stream")
		if err := c.stream.Reconnect(ctx); err != nil {
			c.l.Error("quote stream reconnect failed", applogger.Error(err))
			if ctx.Err() != nil {
				return
			}
		}
	}
}

// consume drains the stream until it fails or ctx is done.
func (c *QuoteCollector) consume(ctx context.Context, qCh <-chan *models.Quote, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if ok && err != nil {
				c.l.Warn("quote stream error", applogger.Error(err))
				return
			}
			if !ok {
				errCh = nil
			}
		case q, ok := <-qCh:
			if !ok {
				return
			}
			if err := c.pipe.Process(ctx, q); err != nil {
				c.l.Debug("quote not processed", applogger.String("ticker", q.Ticker), applogger.Error(err))
			}
		}
	}
}

// Shutdown stops the pipeline, closes the stream and flushes pending bars.
func (c *QuoteCollector) Shutdown(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
		_ = c.stream.Close()
		select {
		case <-c.done:
		case <-ctx.Done():
		}
	}
	c.pipe.Stop()
	return c.agg.Stop(ctx)
}
