package usecase

import (
	"context"
	"fmt"

	"StockPulse/internal/domain/models"
	svccache "StockPulse/internal/service/cache"
	"StockPulse/internal/services/backtest"
)

const (
	backtestMinHistory = 10
	backtestMaxWindow  = 20
)

// BacktestUseCase replays the forecast-driven strategy over stored history.
type BacktestUseCase struct {
	analyzer *Analyzer
	sim      *backtest.Simulator
}

func NewBacktestUseCase(analyzer *Analyzer, sim *backtest.Simulator) *BacktestUseCase {
	return &BacktestUseCase{analyzer: analyzer, sim: sim}
}

// Backtest forecasts the test window from the bars before it and simulates trading on it.
func (uc *BacktestUseCase) Backtest(ctx context.Context, ticker string, capital float64) (*models.BacktestResult, error) {
	key := svccache.Key(svccache.KindBacktest, ticker, capital)
	return svccache.GetOrCompute(ctx, uc.analyzer.Cache(), svccache.KindBacktest, key, func(ctx context.Context) (*models.BacktestResult, error) {
		bars, err := uc.analyzer.Bars(ctx, ticker)
		if err != nil {
			return nil, err
		}
		series := models.Closes(bars)
		if len(series) < backtestMinHistory {
			return nil, fmt.Errorf("%w: %d bars", ErrInsufficientHistory, len(series))
		}

		window := len(series) - 5
		if window > backtestMaxWindow {
			window = backtestMaxWindow
		}
		train := series[:len(series)-window]
		fc, err := uc.analyzer.ForecastSeries(ctx, ticker, train, window)
		if err != nil {
			return nil, err
		}

		res, err := uc.sim.Run(ticker, series, fc, capital)
		if err != nil {
			return nil, err
		}
		return res, nil
	})
}
