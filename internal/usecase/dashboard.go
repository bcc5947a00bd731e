package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"StockPulse/internal/domain/models"
	svcmetrics "StockPulse/internal/service/metrics"
)

// DashboardUseCase assembles every analytics view of a ticker concurrently.
type DashboardUseCase struct {
	analyzer   *Analyzer
	signals    *SignalsUseCase
	evaluation *EvaluationUseCase
	timeout    time.Duration
}

func NewDashboardUseCase(analyzer *Analyzer, signals *SignalsUseCase, evaluation *EvaluationUseCase) *DashboardUseCase {
	return &DashboardUseCase{analyzer: analyzer, signals: signals, evaluation: evaluation, timeout: 30 * time.Second}
}

// Dashboard runs forecast, signals, risk and the latest evaluation in parallel.
// A failing part is left empty and its error recorded; only a missing ticker fails the whole call.
func (uc *DashboardUseCase) Dashboard(ctx context.Context, ticker string, horizon int) (*models.Dashboard, error) {
	if _, err := uc.analyzer.Bars(ctx, ticker); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	res := &models.Dashboard{
		Ticker:    ticker,
		Timestamp: time.Now().UTC(),
		Errors:    map[string]string{},
	}

	type item struct {
		name string
		val  interface{}
		err  error
	}
	ch := make(chan item, 4)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.analyzer.Forecast(ctx, ticker, horizon)
		ch <- item{"forecast", v, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.signals.Signals(ctx, ticker, horizon)
		ch <- item{"signals", v, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.signals.Risk(ctx, ticker)
		ch <- item{"risk", v, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.evaluation.Latest(ctx, ticker)
		// a stale evaluation is still worth showing
		if errors.Is(err, ErrStaleEvaluation) {
			err = nil
		}
		ch <- item{"evaluation", v, err}
	}()

	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		if it.err != nil {
			res.Errors[it.name] = it.err.Error()
			svcmetrics.DashboardPartFailures.WithLabelValues(it.name).Inc()
			continue
		}
		switch it.name {
		case "forecast":
			res.Forecast = it.val.(models.Forecast)
		case "signals":
			res.Signals = it.val.(*models.SignalReport)
		case "risk":
			res.Risk = it.val.(*models.RiskAssessment)
		case "evaluation":
			res.Evaluation = it.val.(*models.Evaluation)
		}
	}

	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res, nil
}
