package repository

import (
	"context"
	"time"

	"StockPulse/internal/domain/models"
)

// Timeframe represents bar resolution buckets.
type Timeframe string

const (
	TF1m Timeframe = "1m"
	TF1h Timeframe = "1h"
	TF1d Timeframe = "1d"
)

// PriceStore provides access to stored OHLCV bars.
type PriceStore interface {
	Init(ctx context.Context) error // ensure tables
	StoreBars(ctx context.Context, tf Timeframe, bars []models.Bar) error
	Bars(ctx context.Context, ticker string, from, to time.Time, tf Timeframe) ([]models.Bar, error)
	LatestBars(ctx context.Context, ticker string, n int, tf Timeframe) ([]models.Bar, error)
	Health(ctx context.Context) error // ping
}

// EvaluationStore persists evaluation results.
type EvaluationStore interface {
	Save(ctx context.Context, ev *models.Evaluation) error
	// Latest returns (nil, nil) when the ticker has never been evaluated.
	Latest(ctx context.Context, ticker string) (*models.Evaluation, error)
}

// EventPublisher emits analytics results to downstream consumers.
type EventPublisher interface {
	PublishSignals(ctx context.Context, report *models.SignalReport) error
	PublishRisk(ctx context.Context, risk *models.RiskAssessment) error
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
	Close() error
}

// QuoteStream is a live market data feed.
type QuoteStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context, tickers []string) error
	Read(ctx context.Context) (<-chan *models.Quote, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Metrics records domain-level telemetry.
type Metrics interface {
	RecordEvaluation(ticker string)
	RecordSignal(ticker, label string)
	RecordRiskLevel(ticker, level string)
	RecordError(kind string)
	RecordLastPrice(ticker string, price float64)
	RecordLatency(op string, seconds float64)
	RecordCacheHit(kind string, hit bool)
}
