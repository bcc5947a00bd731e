package usecase

import (
	"context"
	"errors"
	"strings"

	"StockPulse/internal/domain/models"
	svccache "StockPulse/internal/service/cache"
	"StockPulse/internal/services/features"
	"StockPulse/internal/services/portfolio"
)

// PortfolioUseCase computes basket metrics and stock comparisons from stored history.
type PortfolioUseCase struct {
	analyzer *Analyzer
}

func NewPortfolioUseCase(analyzer *Analyzer) *PortfolioUseCase {
	return &PortfolioUseCase{analyzer: analyzer}
}

// Portfolio computes metrics of the weighted basket. Tickers without stored
// history are left out of the calculation.
func (uc *PortfolioUseCase) Portfolio(ctx context.Context, tickers []string, weights []float64) (*models.PortfolioMetrics, error) {
	holdings, err := portfolio.HoldingsFrom(tickers, weights)
	if err != nil {
		return nil, err
	}
	if err := portfolio.Validate(holdings); err != nil {
		return nil, err
	}

	params := make([]interface{}, len(weights))
	for i, w := range weights {
		params[i] = w
	}
	key := svccache.Key(svccache.KindPortfolio, strings.Join(tickers, ","), params...)
	return svccache.GetOrCompute(ctx, uc.analyzer.Cache(), svccache.KindPortfolio, key, func(ctx context.Context) (*models.PortfolioMetrics, error) {
		prices := make(map[string]models.TimeSeries, len(tickers))
		volatility := make(map[string]float64, len(tickers))
		for _, t := range tickers {
			bars, err := uc.analyzer.Bars(ctx, t)
			if errors.Is(err, ErrNoData) {
				continue
			}
			if err != nil {
				return nil, err
			}
			frame := features.Build(bars, nil)
			prices[t] = frame.Prices()
			// rolling volatility is in price units; scale it to a fraction of the last close
			if last := frame.Close[frame.Len()-1]; last > 0 {
				volatility[t] = frame.LatestVolatility() / last
			}
		}
		return portfolio.Calculate(holdings, prices, volatility)
	})
}

// Compare summarizes tickers side by side with pairwise return correlations.
func (uc *PortfolioUseCase) Compare(ctx context.Context, tickers []string) (*models.StockComparison, error) {
	series := make(map[string]models.TimeSeries, len(tickers))
	sentiment := make(map[string]float64, len(tickers))
	for _, t := range tickers {
		bars, err := uc.analyzer.Bars(ctx, t)
		if errors.Is(err, ErrNoData) {
			continue
		}
		if err != nil {
			return nil, err
		}
		series[t] = models.Closes(bars)
		sentiment[t] = uc.analyzer.LatestSentiment(ctx, t)
	}
	return portfolio.Compare(tickers, series, sentiment)
}
