package service

import (
	"context"
	"time"

	"StockPulse/internal/domain/models"
)

// ForecastProvider produces a forecast of horizon steps continuing history.
type ForecastProvider interface {
	Forecast(ctx context.Context, ticker string, history models.TimeSeries, horizon int) (models.Forecast, error)
}

// SentimentProvider scores news sentiment for a ticker on a date, in [-1,1].
type SentimentProvider interface {
	Sentiment(ctx context.Context, ticker string, date time.Time) (float64, error)
}
