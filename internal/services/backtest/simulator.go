// Package backtest replays a forecast-driven trend-following strategy over
// recent history and compares it with buy-and-hold.
package backtest

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"StockPulse/internal/domain/models"
)

// ErrInsufficientData is returned when history or forecast are too short to simulate.
var ErrInsufficientData = errors.New("insufficient data for backtesting")

const (
	minHistory  = 10
	minForecast = 5
	maxTestSize = 20
	// DefaultCapital is the starting cash when none is given.
	DefaultCapital = 10000.0
)

// Simulator runs backtests. It holds no state between runs.
type Simulator struct {
	newID func() string
}

// NewSimulator creates a Simulator that tags each run with a random UUID.
func NewSimulator() *Simulator {
	return &Simulator{newID: func() string { return uuid.NewString() }}
}

// Run replays the strategy over the tail of history. Forecast step i is aligned
// with test-window step i; steps without a forecast point keep the position.
func (s *Simulator) Run(ticker string, history models.TimeSeries, fc models.Forecast, capital float64) (*models.BacktestResult, error) {
	if len(history) < minHistory || len(fc) < minForecast {
		return nil, fmt.Errorf("%w: history=%d forecast=%d", ErrInsufficientData, len(history), len(fc))
	}
	if capital <= 0 {
		capital = DefaultCapital
	}

	testSize := len(history) - 5
	if testSize > maxTestSize {
		testSize = maxTestSize
	}
	test := history.Tail(testSize)

	res := &models.BacktestResult{
		RunID:            s.newID(),
		Ticker:           ticker,
		InitialCapital:   capital,
		Trades:           []models.Trade{},
		PortfolioHistory: make([]models.PortfolioSnapshot, 0, len(test)),
	}

	cash := capital
	var position int64
	for i := 1; i < len(test); i++ {
		price := test[i].Value
		prev := test[i-1].Value

		if i < len(fc) {
			predictedUp := fc[i].Yhat > prev
			actualUp := price > prev
			if predictedUp == actualUp {
				res.PredictionsCorrect++
			}
			res.PredictionsTotal++

			switch {
			case predictedUp && position == 0:
				if shares := int64(math.Floor(cash / price)); shares > 0 {
					cash -= float64(shares) * price
					position = shares
					res.Trades = append(res.Trades, models.Trade{
						Time: test[i].Time, Action: models.ActionBuy, Price: price, Shares: shares, CapitalAfter: cash,
					})
				}
			case !predictedUp && position > 0:
				cash += float64(position) * price
				res.Trades = append(res.Trades, models.Trade{
					Time: test[i].Time, Action: models.ActionSell, Price: price, Shares: position, CapitalAfter: cash,
				})
				position = 0
			}
		}

		res.PortfolioHistory = append(res.PortfolioHistory, models.PortfolioSnapshot{
			Time:     test[i].Time,
			Value:    cash + float64(position)*price,
			Price:    price,
			Position: position,
			Cash:     cash,
		})
	}

	last := test[len(test)-1].Value
	res.FinalValue = cash + float64(position)*last
	res.TotalReturnPct = (res.FinalValue - capital) / capital * 100

	if first := test[0].Value; first > 0 {
		bhShares := math.Floor(capital / first)
		res.BuyHoldReturnPct = (bhShares*last - capital) / capital * 100
	}
	res.Outperformance = res.TotalReturnPct - res.BuyHoldReturnPct
	if res.PredictionsTotal > 0 {
		res.PredictionAccuracy = float64(res.PredictionsCorrect) / float64(res.PredictionsTotal) * 100
	}
	res.Verdict = Verdict(res.TotalReturnPct, res.BuyHoldReturnPct)
	return res, nil
}

// Verdict grades the strategy against buy-and-hold.
func Verdict(total, buyHold float64) string {
	switch {
	case total > buyHold+5:
		return "EXCELLENT - Strategy significantly outperformed buy & hold"
	case total > buyHold:
		return "GOOD - Strategy outperformed buy & hold"
	case total > 0:
		return "MODERATE - Positive returns but underperformed buy & hold"
	default:
		return "POOR - Strategy produced losses"
	}
}
