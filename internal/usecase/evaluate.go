package usecase

import (
	"context"
	"fmt"
	"time"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	svccache "StockPulse/internal/service/cache"
	"StockPulse/internal/services/evaluation"
	applogger "StockPulse/pkg/logger"
)

const (
	// ModelName labels the forecast provider in comparison tables.
	ModelName = "Forecast"

	minTrainSize = 5
	minTestSize  = 2
)

// EvaluationUseCase runs holdout evaluations and serves stored results.
type EvaluationUseCase struct {
	analyzer *Analyzer
	store    domrepo.EvaluationStore
	l        *applogger.Logger
	maxAge   time.Duration
	now      func() time.Time
}

// NewEvaluationUseCase creates the use case. store may be nil, in which case
// results are not persisted and Latest always reports no evaluation.
func NewEvaluationUseCase(analyzer *Analyzer, store domrepo.EvaluationStore, maxAge time.Duration, l *applogger.Logger) *EvaluationUseCase {
	return &EvaluationUseCase{
		analyzer: analyzer,
		store:    store,
		l:        l.Component("evaluation"),
		maxAge:   maxAge,
		now:      time.Now,
	}
}

// Evaluate holds out the last testSize bars, forecasts them from the rest and scores
// the forecast against the baselines. testSize is capped so at least five bars train.
func (uc *EvaluationUseCase) Evaluate(ctx context.Context, ticker string, testSize int) (*models.Evaluation, error) {
	key := svccache.Key(svccache.KindEvaluation, ticker, testSize)
	return svccache.GetOrCompute(ctx, uc.analyzer.Cache(), svccache.KindEvaluation, key, func(ctx context.Context) (*models.Evaluation, error) {
		bars, err := uc.analyzer.Bars(ctx, ticker)
		if err != nil {
			return nil, err
		}
		ev, err := uc.evaluateSeries(ctx, ticker, models.Closes(bars), testSize)
		if err != nil {
			return nil, err
		}
		uc.persist(ctx, ev)
		return ev, nil
	})
}

func (uc *EvaluationUseCase) evaluateSeries(ctx context.Context, ticker string, series models.TimeSeries, testSize int) (*models.Evaluation, error) {
	if limit := len(series) - minTrainSize; testSize > limit {
		testSize = limit
	}
	if testSize < minTestSize {
		return nil, fmt.Errorf("%w: %d bars", ErrInsufficientHistory, len(series))
	}

	train := series[:len(series)-testSize]
	actual := series[len(series)-testSize:].Values()

	fc, err := uc.analyzer.ForecastSeries(ctx, ticker, train, testSize)
	if err != nil {
		return nil, err
	}
	fc = fc.Head(testSize)

	model, err := evaluation.EvaluateForecast(actual, fc)
	if err != nil {
		return nil, fmt.Errorf("evaluate forecast: %w", err)
	}
	baselines, err := evaluation.EvaluateAllBaselines(train.Values(), actual)
	if err != nil {
		return nil, err
	}

	lower, upper := fc.Bounds()
	preds := []evaluation.Prediction{{Model: ModelName, Values: fc.Yhat(), Lower: lower, Upper: upper}}
	trainValues := train.Values()
	for _, b := range evaluation.DefaultBaselines {
		if b.Kind == evaluation.MovingAverage && len(trainValues) < b.Window {
			continue
		}
		preds = append(preds, evaluation.Prediction{Model: b.Name(), Values: b.Predict(trainValues, len(actual))})
	}
	table := evaluation.Compare(actual, preds)

	ev := &models.Evaluation{
		Ticker:      ticker,
		EvaluatedAt: uc.now().UTC(),
		TrainSize:   len(train),
		TestSize:    len(actual),
		Model:       model,
		Baselines:   baselines,
		Comparison:  table,
		Report:      evaluation.RenderReport(len(actual), table),
	}
	ev.BestRMSE, _, _ = evaluation.BestBy(models.MetricRMSE, table, true)
	ev.BestDirectionalAccuracy, _, _ = evaluation.BestBy(models.MetricDirectionalAccuracy, table, false)
	ev.LowestMAPE, _, _ = evaluation.BestBy(models.MetricMAPE, table, true)

	uc.analyzer.Metrics().RecordEvaluation(ticker)
	return ev, nil
}

func (uc *EvaluationUseCase) persist(ctx context.Context, ev *models.Evaluation) {
	if uc.store == nil {
		return
	}
	if err := uc.store.Save(ctx, ev); err != nil {
		uc.analyzer.Metrics().RecordError("evaluation_store")
		uc.l.Error("save evaluation failed", applogger.String("ticker", ev.Ticker), applogger.Error(err))
	}
}

// Latest returns the stored evaluation of ticker. It fails with ErrNoEvaluation when
// there is none and ErrStaleEvaluation when it is older than the configured max age.
func (uc *EvaluationUseCase) Latest(ctx context.Context, ticker string) (*models.Evaluation, error) {
	if uc.store == nil {
		return nil, fmt.Errorf("%w for %s", ErrNoEvaluation, ticker)
	}
	ev, err := uc.store.Latest(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("latest evaluation: %w", err)
	}
	if ev == nil {
		return nil, fmt.Errorf("%w for %s", ErrNoEvaluation, ticker)
	}
	if uc.maxAge > 0 && uc.now().Sub(ev.EvaluatedAt) > uc.maxAge {
		return ev, fmt.Errorf("%w: evaluated %s ago", ErrStaleEvaluation, uc.now().Sub(ev.EvaluatedAt).Round(time.Second))
	}
	return ev, nil
}
