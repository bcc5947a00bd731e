package models

// Requests for analytics HTTP endpoints. Defined in domain for consistency and reuse.

type ForecastRequest struct {
	Ticker  string `query:"ticker" json:"ticker" validate:"required,max=10"`
	Horizon int    `query:"horizon" json:"horizon" default:"7" validate:"gte=1,lte=90"`
}

type EvaluateRequest struct {
	Ticker   string `query:"ticker" json:"ticker" validate:"required,max=10"`
	TestSize int    `query:"test_size" json:"test_size" default:"20" validate:"gte=2,lte=500"`
}

type SignalsRequest struct {
	Ticker  string `query:"ticker" json:"ticker" validate:"required,max=10"`
	Horizon int    `query:"horizon" json:"horizon" default:"7" validate:"gte=2,lte=90"`
}

type AnomaliesRequest struct {
	Ticker string `query:"ticker" json:"ticker" validate:"required,max=10"`
}

type SentimentRequest struct {
	Ticker   string `query:"ticker" json:"ticker" validate:"required,max=10"`
	DaysBack int    `query:"days_back" json:"days_back" default:"7" validate:"gte=1,lte=90"`
}

type BacktestRequest struct {
	Ticker         string  `query:"ticker" json:"ticker" validate:"required,max=10"`
	InitialCapital float64 `query:"initial_capital" json:"initial_capital" default:"10000" validate:"gt=0"`
}

type PortfolioRequest struct {
	Tickers []string  `json:"tickers" validate:"required,min=1,dive,required,max=10"`
	Weights []float64 `json:"weights" validate:"required,min=1,dive,gte=0"`
}

type CompareRequest struct {
	Tickers string `query:"tickers" json:"tickers" validate:"required"`
}

type DashboardRequest struct {
	Ticker  string `query:"ticker" json:"ticker" validate:"required,max=10"`
	Horizon int    `query:"horizon" json:"horizon" default:"7" validate:"gte=2,lte=90"`
}

type MetricsRequest struct {
	Ticker string `param:"ticker" json:"ticker" validate:"required,max=10"`
}

type AddTickerRequest struct {
	Ticker string `json:"ticker" validate:"required,max=10"`
}

type ReplaceTickersRequest struct {
	Tickers []string `json:"tickers" validate:"required,min=1,dive,required,max=10"`
}

type RemoveTickerRequest struct {
	Ticker string `param:"ticker" json:"ticker" validate:"required,max=10"`
}

type ClearCacheRequest struct {
	Kind string `query:"kind" json:"kind" validate:"omitempty,oneof=forecast evaluation signals anomalies backtest portfolio"`
}
