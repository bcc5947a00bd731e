package models

import "time"

// TradeAction is the side of a simulated trade.
type TradeAction string

const (
	ActionBuy  TradeAction = "BUY"
	ActionSell TradeAction = "SELL"
)

// Trade is one simulated order fill.
type Trade struct {
	Time         time.Time
	Action       TradeAction
	Price        float64
	Shares       int64
	CapitalAfter float64
}

// PortfolioSnapshot is the simulated account state after a timestep.
type PortfolioSnapshot struct {
	Time     time.Time
	Value    float64
	Price    float64
	Position int64
	Cash     float64
}

// BacktestResult is the outcome of replaying the forecast-driven strategy.
type BacktestResult struct {
	RunID              string
	Ticker             string
	InitialCapital     float64
	FinalValue         float64
	TotalReturnPct     float64
	BuyHoldReturnPct   float64
	Outperformance     float64
	Trades             []Trade
	PortfolioHistory   []PortfolioSnapshot
	PredictionAccuracy float64 // percent
	PredictionsCorrect int
	PredictionsTotal   int
	Verdict            string
}

// Holding is a ticker with its portfolio weight.
type Holding struct {
	Ticker string
	Weight float64
}

// PortfolioMetrics summarizes a weighted basket of tickers. Return figures are percentages.
type PortfolioMetrics struct {
	TotalReturn         float64
	AverageReturn       float64
	Volatility          float64
	SharpeRatio         float64
	PortfolioVolatility float64
	Tickers             []string
	Weights             []float64
}

// StockStats is the per-ticker part of a comparison.
type StockStats struct {
	Ticker         string
	CurrentPrice   float64
	DailyReturn    float64
	TotalReturn    float64
	Volatility     float64
	AvgDailyReturn float64
	SharpeRatio    float64
	Sentiment      float64
	DataPoints     int
}

// Correlation is the Pearson correlation of returns between two tickers.
type Correlation struct {
	A     string
	B     string
	Value float64
}

// StockComparison compares several tickers side by side.
type StockComparison struct {
	Stocks       []StockStats
	Correlations []Correlation
}
