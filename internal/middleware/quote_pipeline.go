package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	applogger "StockPulse/pkg/logger"
)

// Processor is the downstream the pipeline forwards accepted quotes to.
type Processor interface {
	Process(ctx context.Context, q *models.Quote) error
}

// QuotePipeline sits between the quote stream and the bar aggregator.
// It validates, throttles per ticker, and buffers quotes while downstream is failing.
type QuotePipeline struct {
	proc     Processor
	metrics  domrepo.Metrics
	l        *applogger.Logger
	maxRPS   int
	bufCh    chan *models.Quote
	stopCh   chan struct{}
	wg       sync.WaitGroup
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time // per-ticker last accepted time

	transform func(*models.Quote) *models.Quote
}

type PipelineOption func(*QuotePipeline)

// WithMaxRPS sets the max quotes per second per ticker.
func WithMaxRPS(n int) PipelineOption {
	return func(p *QuotePipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the retry buffer size used while downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *QuotePipeline) {
		if n > 0 {
			p.bufCh = make(chan *models.Quote, n)
		}
	}
}

// WithTransform sets a hook that rewrites quotes before they are forwarded.
func WithTransform(fn func(*models.Quote) *models.Quote) PipelineOption {
	return func(p *QuotePipeline) { p.transform = fn }
}

// WithPipelineLogger sets the logger.
func WithPipelineLogger(l *applogger.Logger) PipelineOption {
	return func(p *QuotePipeline) { p.l = l }
}

// NewQuotePipeline creates a pipeline in front of proc.
func NewQuotePipeline(proc Processor, metrics domrepo.Metrics, opts ...PipelineOption) *QuotePipeline {
	p := &QuotePipeline{
		proc:     proc,
		metrics:  metrics,
		l:        applogger.Nop(),
		maxRPS:   20,
		bufCh:    make(chan *models.Quote, 1000),
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.l = p.l.Component("quote-pipeline")
	return p
}

// Start launches the background retry of buffered quotes.
func (p *QuotePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			case q := <-p.bufCh:
				if err := p.proc.Process(ctx, q); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					select {
					case <-time.After(backoff):
					case <-p.stopCh:
						return
					}
					select {
					case p.bufCh <- q:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
					continue
				}
				backoff = 50 * time.Millisecond
			}
		}
	}()
}

// Stop stops the retry loop and waits for it to exit. Buffered quotes are dropped.
func (p *QuotePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
	p.wg.Wait()
	if n := len(p.bufCh); n > 0 {
		p.l.Warn("quote pipeline stopped with buffered quotes", applogger.Int("dropped", n))
	}
}

// Buffered returns the number of quotes waiting for retry.
func (p *QuotePipeline) Buffered() int { return len(p.bufCh) }

// Process validates, throttles, and forwards q, buffering it when downstream fails.
// Throttled quotes are dropped without error.
func (p *QuotePipeline) Process(ctx context.Context, q *models.Quote) error {
	start := time.Now()
	if err := validateQuote(q); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if p.transform != nil {
		q = p.transform(q)
		if err := validateQuote(q); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}
	if !p.allow(q.Ticker, start) {
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, q); err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- q:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateQuote(q *models.Quote) error {
	if q == nil {
		return fmt.Errorf("quote nil")
	}
	if q.Ticker == "" {
		return fmt.Errorf("ticker empty")
	}
	if q.Timestamp <= 0 {
		return fmt.Errorf("timestamp invalid")
	}
	if q.Price <= 0 || q.Volume < 0 {
		return fmt.Errorf("invalid price/volume")
	}
	return nil
}

func (p *QuotePipeline) allow(ticker string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[ticker]
	if !last.IsZero() && now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[ticker] = now
	return true
}
