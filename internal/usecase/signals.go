package usecase

import (
	"context"
	"time"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	svccache "StockPulse/internal/service/cache"
	"StockPulse/internal/services/anomaly"
	"StockPulse/internal/services/signals"
	applogger "StockPulse/pkg/logger"
)

// SignalsUseCase derives trading signals and risk assessments and publishes them.
type SignalsUseCase struct {
	analyzer  *Analyzer
	detector  *anomaly.Detector
	publisher domrepo.EventPublisher
	l         *applogger.Logger
	now       func() time.Time
}

// NewSignalsUseCase creates the use case. publisher may be nil.
func NewSignalsUseCase(analyzer *Analyzer, detector *anomaly.Detector, publisher domrepo.EventPublisher, l *applogger.Logger) *SignalsUseCase {
	return &SignalsUseCase{
		analyzer:  analyzer,
		detector:  detector,
		publisher: publisher,
		l:         l.Component("signals"),
		now:       time.Now,
	}
}

// Signals forecasts horizon steps and turns them into signals, a summary and alerts.
// Freshly computed reports are published.
func (uc *SignalsUseCase) Signals(ctx context.Context, ticker string, horizon int) (*models.SignalReport, error) {
	key := svccache.Key(svccache.KindSignals, ticker, horizon)
	return svccache.GetOrCompute(ctx, uc.analyzer.Cache(), svccache.KindSignals, key, func(ctx context.Context) (*models.SignalReport, error) {
		frame, err := uc.analyzer.Frame(ctx, ticker)
		if err != nil {
			return nil, err
		}
		fc, err := uc.analyzer.Forecast(ctx, ticker, horizon)
		if err != nil {
			return nil, err
		}

		sentiment := uc.analyzer.LatestSentiment(ctx, ticker)
		sigs := signals.Generate(fc, sentiment)
		report := &models.SignalReport{
			Ticker:      ticker,
			GeneratedAt: uc.now().UTC(),
			Signals:     sigs,
			Summary:     signals.Summarize(sigs),
			Alerts:      signals.GenerateAlerts(ticker, frame.Close, frame.Sentiment, fc),
		}
		uc.analyzer.Metrics().RecordSignal(ticker, string(report.Summary.Recommendation))

		if uc.publisher != nil {
			if err := uc.publisher.PublishSignals(ctx, report); err != nil {
				uc.analyzer.Metrics().RecordError("publish_signals")
				uc.l.Warn("publish signals failed", applogger.String("ticker", ticker), applogger.Error(err))
			}
		}
		return report, nil
	})
}

// Risk scans price, volatility and sentiment for outliers.
func (uc *SignalsUseCase) Risk(ctx context.Context, ticker string) (*models.RiskAssessment, error) {
	key := svccache.Key(svccache.KindAnomalies, ticker)
	return svccache.GetOrCompute(ctx, uc.analyzer.Cache(), svccache.KindAnomalies, key, func(ctx context.Context) (*models.RiskAssessment, error) {
		frame, err := uc.analyzer.Frame(ctx, ticker)
		if err != nil {
			return nil, err
		}

		risk := uc.detector.Assess(ticker, anomaly.Input{
			Prices:     frame.Close,
			Volatility: frame.Volatility,
			Sentiment:  frame.Sentiment,
		})
		risk.AssessedAt = uc.now().UTC()
		uc.analyzer.Metrics().RecordRiskLevel(ticker, string(risk.RiskLevel))

		if uc.publisher != nil {
			if err := uc.publisher.PublishRisk(ctx, risk); err != nil {
				uc.analyzer.Metrics().RecordError("publish_risk")
				uc.l.Warn("publish risk failed", applogger.String("ticker", ticker), applogger.Error(err))
			}
		}
		return risk, nil
	})
}
