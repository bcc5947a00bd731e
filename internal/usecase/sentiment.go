package usecase

import (
	"context"
	"time"

	"StockPulse/internal/domain/models"
	applogger "StockPulse/pkg/logger"
	"StockPulse/pkg/util"
)

// SentimentUseCase reports the daily news sentiment of a ticker.
type SentimentUseCase struct {
	analyzer *Analyzer
	l        *applogger.Logger
	now      func() time.Time
}

func NewSentimentUseCase(analyzer *Analyzer, l *applogger.Logger) *SentimentUseCase {
	return &SentimentUseCase{analyzer: analyzer, l: l.Component("sentiment"), now: time.Now}
}

// Sentiment scores each of the last daysBack days, oldest first and ending today.
// A day the provider fails on counts as neutral.
func (uc *SentimentUseCase) Sentiment(ctx context.Context, ticker string, daysBack int) (*models.SentimentReport, error) {
	if daysBack < 1 {
		daysBack = 1
	}
	now := uc.now().UTC()
	today := util.TruncateToTimeframe(now, "1d")

	rep := &models.SentimentReport{
		Ticker:       ticker,
		AnalysisDate: now,
		Days:         make([]models.SentimentDay, daysBack),
	}
	provider := uc.analyzer.sentiment
	var total float64
	for i := 0; i < daysBack; i++ {
		day := today.AddDate(0, 0, i-daysBack+1)
		rep.Days[i].Date = day
		if provider == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := provider.Sentiment(ctx, ticker, day)
		if err != nil {
			rep.Unscored++
			continue
		}
		v = util.Clamp(v, -1, 1)
		rep.Days[i].Score = v
		total += v
	}
	rep.Average = total / float64(daysBack)

	if rep.Unscored > 0 {
		uc.analyzer.Metrics().RecordError("sentiment")
		uc.l.Warn("sentiment partially unavailable",
			applogger.String("ticker", ticker),
			applogger.Int("unscored", rep.Unscored),
		)
	}
	return rep, nil
}
