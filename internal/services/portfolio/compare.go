package portfolio

import (
	"StockPulse/internal/domain/models"
	"StockPulse/pkg/util"
)

const minComparePoints = 5

// Compare summarizes each ticker and correlates returns pairwise. Tickers are
// reported in the given order; those with fewer than five prices are skipped.
func Compare(tickers []string, series map[string]models.TimeSeries, sentiment map[string]float64) (*models.StockComparison, error) {
	out := &models.StockComparison{Stocks: []models.StockStats{}, Correlations: []models.Correlation{}}
	returns := make(map[string][]float64, len(tickers))
	var kept []string

	for _, ticker := range tickers {
		ts, ok := series[ticker]
		if !ok || len(ts) < minComparePoints {
			continue
		}
		prices := ts.Values()
		rets := util.PctChange(prices)

		st := models.StockStats{
			Ticker:       ticker,
			CurrentPrice: prices[len(prices)-1],
			Sentiment:    sentiment[ticker],
			DataPoints:   len(prices),
		}
		if len(rets) > 0 {
			st.DailyReturn = rets[len(rets)-1] * 100
			st.AvgDailyReturn = util.Mean(rets) * 100
		}
		if prices[0] != 0 {
			st.TotalReturn = (prices[len(prices)-1] - prices[0]) / prices[0] * 100
		}
		if len(rets) > 1 {
			st.Volatility = util.StdDev(rets) * 100
		}
		if st.Volatility > 0 {
			st.SharpeRatio = st.AvgDailyReturn / st.Volatility
		}
		out.Stocks = append(out.Stocks, st)
		returns[ticker] = rets
		kept = append(kept, ticker)
	}
	if len(out.Stocks) == 0 {
		return nil, ErrInsufficientData
	}

	for i := 0; i < len(kept); i++ {
		for j := i + 1; j < len(kept); j++ {
			a, b := returns[kept[i]], returns[kept[j]]
			n := len(a)
			if len(b) < n {
				n = len(b)
			}
			if n < 2 {
				continue
			}
			out.Correlations = append(out.Correlations, models.Correlation{
				A:     kept[i],
				B:     kept[j],
				Value: util.Pearson(a[len(a)-n:], b[len(b)-n:]),
			})
		}
	}
	return out, nil
}
