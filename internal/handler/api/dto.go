package api

import (
	"time"

	"StockPulse/internal/domain/models"
	svccache "StockPulse/internal/service/cache"
	"StockPulse/internal/usecase"
	"StockPulse/pkg/util"
)

// JSON views of the domain models. Domain structs carry no tags; everything
// the API emits is shaped here.

// stamp renders daily points as dates and intraday points as RFC 3339.
func stamp(t time.Time) string {
	if t.UTC().Truncate(24*time.Hour).Equal(t) {
		return util.FormatDate(t)
	}
	return t.UTC().Format(time.RFC3339)
}

type forecastPointDTO struct {
	Date      string  `json:"ds"`
	Yhat      float64 `json:"yhat"`
	YhatLower float64 `json:"yhat_lower"`
	YhatUpper float64 `json:"yhat_upper"`
}

type forecastDTO struct {
	Ticker   string             `json:"ticker"`
	Horizon  int                `json:"horizon"`
	Forecast []forecastPointDTO `json:"forecast"`
}

func toForecastPoints(fc models.Forecast) []forecastPointDTO {
	out := make([]forecastPointDTO, len(fc))
	for i, p := range fc {
		out[i] = forecastPointDTO{Date: stamp(p.Time), Yhat: p.Yhat, YhatLower: p.Lower, YhatUpper: p.Upper}
	}
	return out
}

type modelMetricsDTO struct {
	Model   string           `json:"model"`
	Metrics models.MetricSet `json:"metrics"`
}

func toTable(t models.ComparisonTable) []modelMetricsDTO {
	out := make([]modelMetricsDTO, len(t))
	for i, row := range t {
		out[i] = modelMetricsDTO{Model: row.Model, Metrics: row.Metrics}
	}
	return out
}

type bestModelDTO struct {
	RMSE                string `json:"rmse"`
	DirectionalAccuracy string `json:"directional_accuracy"`
	MAPE                string `json:"mape"`
}

type evaluationDTO struct {
	Ticker      string            `json:"ticker"`
	EvaluatedAt time.Time         `json:"evaluated_at"`
	TrainSize   int               `json:"train_size"`
	TestSize    int               `json:"test_size"`
	Metrics     models.MetricSet  `json:"metrics"`
	Baselines   []modelMetricsDTO `json:"baselines"`
	Comparison  []modelMetricsDTO `json:"comparison"`
	BestModel   bestModelDTO      `json:"best_model"`
	Report      string            `json:"report,omitempty"`
}

func toEvaluation(ev *models.Evaluation) *evaluationDTO {
	if ev == nil {
		return nil
	}
	return &evaluationDTO{
		Ticker:      ev.Ticker,
		EvaluatedAt: ev.EvaluatedAt,
		TrainSize:   ev.TrainSize,
		TestSize:    ev.TestSize,
		Metrics:     ev.Model,
		Baselines:   toTable(ev.Baselines),
		Comparison:  toTable(ev.Comparison),
		BestModel: bestModelDTO{
			RMSE:                ev.BestRMSE,
			DirectionalAccuracy: ev.BestDirectionalAccuracy,
			MAPE:                ev.LowestMAPE,
		},
		Report: ev.Report,
	}
}

// storedMetricsDTO is the /metrics/:ticker view of a persisted evaluation.
type storedMetricsDTO struct {
	Ticker    string           `json:"ticker"`
	Metrics   models.MetricSet `json:"metrics"`
	BestModel bestModelDTO     `json:"best_model"`
	CachedAt  time.Time        `json:"cached_at"`
}

type signalDTO struct {
	Date               string   `json:"date"`
	Signal             string   `json:"signal"`
	Strength           float64  `json:"strength"`
	PredictedChangePct float64  `json:"predicted_change_pct"`
	Confidence         float64  `json:"confidence"`
	PredictedPrice     float64  `json:"predicted_price"`
	Explanation        []string `json:"explanation"`
	ActionDescription  string   `json:"action_description"`
}

type signalSummaryDTO struct {
	TotalSignals   int     `json:"total_signals"`
	BuySignals     int     `json:"buy_signals"`
	SellSignals    int     `json:"sell_signals"`
	HoldSignals    int     `json:"hold_signals"`
	AvgStrength    float64 `json:"avg_strength"`
	Recommendation string  `json:"recommendation"`
	Rationale      string  `json:"rationale"`
}

type alertDTO struct {
	Type           string `json:"type"`
	Severity       string `json:"severity"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	Recommendation string `json:"recommendation"`
}

type alertReportDTO struct {
	TotalAlerts int        `json:"total_alerts"`
	HighCount   int        `json:"high_priority_count"`
	MediumCount int        `json:"medium_priority_count"`
	LowCount    int        `json:"low_priority_count"`
	Alerts      []alertDTO `json:"alerts"`
}

type signalReportDTO struct {
	Ticker      string           `json:"ticker"`
	GeneratedAt time.Time        `json:"generated_at"`
	Signals     []signalDTO      `json:"signals"`
	Summary     signalSummaryDTO `json:"summary"`
	Alerts      alertReportDTO   `json:"alerts"`
}

func toSignalReport(r *models.SignalReport) *signalReportDTO {
	if r == nil {
		return nil
	}
	out := &signalReportDTO{
		Ticker:      r.Ticker,
		GeneratedAt: r.GeneratedAt,
		Signals:     make([]signalDTO, len(r.Signals)),
		Summary: signalSummaryDTO{
			TotalSignals:   r.Summary.Total,
			BuySignals:     r.Summary.BuyCount,
			SellSignals:    r.Summary.SellCount,
			HoldSignals:    r.Summary.HoldCount,
			AvgStrength:    r.Summary.MeanStrength,
			Recommendation: string(r.Summary.Recommendation),
			Rationale:      r.Summary.Rationale,
		},
		Alerts: alertReportDTO{
			TotalAlerts: len(r.Alerts.Alerts),
			HighCount:   r.Alerts.HighCount,
			MediumCount: r.Alerts.MediumCount,
			LowCount:    r.Alerts.LowCount,
			Alerts:      make([]alertDTO, len(r.Alerts.Alerts)),
		},
	}
	for i, s := range r.Signals {
		out.Signals[i] = signalDTO{
			Date:               stamp(s.Time),
			Signal:             string(s.Label),
			Strength:           s.Strength,
			PredictedChangePct: s.PredictedChange,
			Confidence:         s.Confidence,
			PredictedPrice:     s.PredictedPrice,
			Explanation:        s.Explanation,
			ActionDescription:  s.ActionDescription,
		}
	}
	for i, a := range r.Alerts.Alerts {
		out.Alerts.Alerts[i] = alertDTO{
			Type:           a.Type,
			Severity:       string(a.Severity),
			Title:          a.Title,
			Message:        a.Message,
			Recommendation: a.Recommendation,
		}
	}
	return out
}

type anomalyDTO struct {
	Type        string             `json:"type"`
	Severity    string             `json:"severity"`
	Description string             `json:"description"`
	ZScore      float64            `json:"z_score"`
	Values      map[string]float64 `json:"values,omitempty"`
}

type riskDTO struct {
	Ticker       string       `json:"ticker"`
	AssessedAt   time.Time    `json:"assessed_at"`
	RiskLevel    string       `json:"risk_level"`
	Anomalies    []anomalyDTO `json:"anomalies"`
	Observations int          `json:"data_points_analyzed"`
}

func toRisk(r *models.RiskAssessment) *riskDTO {
	if r == nil {
		return nil
	}
	out := &riskDTO{
		Ticker:       r.Ticker,
		AssessedAt:   r.AssessedAt,
		RiskLevel:    string(r.RiskLevel),
		Anomalies:    make([]anomalyDTO, len(r.Anomalies)),
		Observations: r.Observations,
	}
	for i, a := range r.Anomalies {
		out.Anomalies[i] = anomalyDTO{
			Type:        string(a.Type),
			Severity:    string(a.Severity),
			Description: a.Description,
			ZScore:      a.ZScore,
			Values:      a.Values,
		}
	}
	return out
}

type tradeDTO struct {
	Date         string  `json:"date"`
	Action       string  `json:"action"`
	Price        float64 `json:"price"`
	Shares       int64   `json:"shares"`
	CapitalAfter float64 `json:"capital_after"`
}

type snapshotDTO struct {
	Date     string  `json:"date"`
	Value    float64 `json:"portfolio_value"`
	Price    float64 `json:"price"`
	Position int64   `json:"position"`
	Cash     float64 `json:"cash"`
}

type backtestDTO struct {
	RunID              string        `json:"run_id"`
	Ticker             string        `json:"ticker"`
	InitialCapital     float64       `json:"initial_capital"`
	FinalValue         float64       `json:"final_value"`
	TotalReturnPct     float64       `json:"total_return_pct"`
	BuyHoldReturnPct   float64       `json:"buy_hold_return_pct"`
	Outperformance     float64       `json:"outperformance"`
	PredictionAccuracy float64       `json:"prediction_accuracy"`
	PredictionsCorrect int           `json:"correct_predictions"`
	PredictionsTotal   int           `json:"total_predictions"`
	Verdict            string        `json:"verdict"`
	Trades             []tradeDTO    `json:"trades"`
	PortfolioHistory   []snapshotDTO `json:"portfolio_history"`
}

func toBacktest(r *models.BacktestResult) *backtestDTO {
	out := &backtestDTO{
		RunID:              r.RunID,
		Ticker:             r.Ticker,
		InitialCapital:     r.InitialCapital,
		FinalValue:         r.FinalValue,
		TotalReturnPct:     r.TotalReturnPct,
		BuyHoldReturnPct:   r.BuyHoldReturnPct,
		Outperformance:     r.Outperformance,
		PredictionAccuracy: r.PredictionAccuracy,
		PredictionsCorrect: r.PredictionsCorrect,
		PredictionsTotal:   r.PredictionsTotal,
		Verdict:            r.Verdict,
		Trades:             make([]tradeDTO, len(r.Trades)),
		PortfolioHistory:   make([]snapshotDTO, len(r.PortfolioHistory)),
	}
	for i, t := range r.Trades {
		out.Trades[i] = tradeDTO{
			Date:         stamp(t.Time),
			Action:       string(t.Action),
			Price:        t.Price,
			Shares:       t.Shares,
			CapitalAfter: t.CapitalAfter,
		}
	}
	for i, s := range r.PortfolioHistory {
		out.PortfolioHistory[i] = snapshotDTO{
			Date:     stamp(s.Time),
			Value:    s.Value,
			Price:    s.Price,
			Position: s.Position,
			Cash:     s.Cash,
		}
	}
	return out
}

type portfolioDTO struct {
	TotalReturn         float64   `json:"total_return"`
	AverageReturn       float64   `json:"avg_return"`
	Volatility          float64   `json:"volatility"`
	SharpeRatio         float64   `json:"sharpe_ratio"`
	PortfolioVolatility float64   `json:"portfolio_volatility"`
	Tickers             []string  `json:"tickers"`
	Weights             []float64 `json:"weights"`
}

func toPortfolio(m *models.PortfolioMetrics) *portfolioDTO {
	return &portfolioDTO{
		TotalReturn:         m.TotalReturn,
		AverageReturn:       m.AverageReturn,
		Volatility:          m.Volatility,
		SharpeRatio:         m.SharpeRatio,
		PortfolioVolatility: m.PortfolioVolatility,
		Tickers:             m.Tickers,
		Weights:             m.Weights,
	}
}

type stockStatsDTO struct {
	Ticker         string  `json:"ticker"`
	CurrentPrice   float64 `json:"current_price"`
	DailyReturn    float64 `json:"daily_return"`
	TotalReturn    float64 `json:"total_return"`
	Volatility     float64 `json:"volatility"`
	AvgDailyReturn float64 `json:"avg_daily_return"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	Sentiment      float64 `json:"sentiment"`
	DataPoints     int     `json:"data_points"`
}

type correlationDTO struct {
	Pair  string  `json:"pair"`
	Value float64 `json:"correlation"`
}

type comparisonDTO struct {
	Stocks       []stockStatsDTO  `json:"stocks"`
	Correlations []correlationDTO `json:"correlations"`
}

func toComparison(c *models.StockComparison) *comparisonDTO {
	out := &comparisonDTO{
		Stocks:       make([]stockStatsDTO, len(c.Stocks)),
		Correlations: make([]correlationDTO, len(c.Correlations)),
	}
	for i, s := range c.Stocks {
		out.Stocks[i] = stockStatsDTO{
			Ticker:         s.Ticker,
			CurrentPrice:   s.CurrentPrice,
			DailyReturn:    s.DailyReturn,
			TotalReturn:    s.TotalReturn,
			Volatility:     s.Volatility,
			AvgDailyReturn: s.AvgDailyReturn,
			SharpeRatio:    s.SharpeRatio,
			Sentiment:      s.Sentiment,
			DataPoints:     s.DataPoints,
		}
	}
	for i, cr := range c.Correlations {
		out.Correlations[i] = correlationDTO{Pair: cr.A + "_" + cr.B, Value: cr.Value}
	}
	return out
}

type dashboardDTO struct {
	Ticker     string             `json:"ticker"`
	Timestamp  time.Time          `json:"timestamp"`
	Forecast   []forecastPointDTO `json:"forecast,omitempty"`
	Signals    *signalReportDTO   `json:"signals,omitempty"`
	Risk       *riskDTO           `json:"risk,omitempty"`
	Evaluation *evaluationDTO     `json:"evaluation,omitempty"`
	Errors     map[string]string  `json:"errors,omitempty"`
}

func toDashboard(d *models.Dashboard) *dashboardDTO {
	out := &dashboardDTO{
		Ticker:     d.Ticker,
		Timestamp:  d.Timestamp,
		Signals:    toSignalReport(d.Signals),
		Risk:       toRisk(d.Risk),
		Evaluation: toEvaluation(d.Evaluation),
		Errors:     d.Errors,
	}
	if d.Forecast != nil {
		out.Forecast = toForecastPoints(d.Forecast)
	}
	return out
}

type sentimentDayDTO struct {
	Date           string  `json:"date"`
	SentimentScore float64 `json:"sentiment_score"`
}

type sentimentDTO struct {
	Ticker           string            `json:"ticker"`
	AnalysisDate     time.Time         `json:"analysis_date"`
	SentimentData    []sentimentDayDTO `json:"sentiment_data"`
	AverageSentiment float64           `json:"average_sentiment"`
	UnscoredDays     int               `json:"unscored_days"`
}

func toSentiment(r *models.SentimentReport) *sentimentDTO {
	out := &sentimentDTO{
		Ticker:           r.Ticker,
		AnalysisDate:     r.AnalysisDate,
		SentimentData:    make([]sentimentDayDTO, len(r.Days)),
		AverageSentiment: r.Average,
		UnscoredDays:     r.Unscored,
	}
	for i, d := range r.Days {
		out.SentimentData[i] = sentimentDayDTO{Date: util.FormatDate(d.Date), SentimentScore: d.Score}
	}
	return out
}

type tickersDTO struct {
	Message          string   `json:"message,omitempty"`
	MonitoredTickers []string `json:"monitored_tickers"`
	Count            int      `json:"count"`
}

type replaceTickersDTO struct {
	Message    string   `json:"message"`
	OldTickers []string `json:"old_tickers"`
	NewTickers []string `json:"new_tickers"`
}

type cacheStatusDTO struct {
	Backend      string         `json:"backend"`
	TotalEntries int            `json:"total_entries"`
	Entries      map[string]int `json:"entries"`
}

func toCacheStatus(st *svccache.Status) *cacheStatusDTO {
	out := &cacheStatusDTO{Backend: st.Backend, TotalEntries: st.Total, Entries: make(map[string]int, len(st.Entries))}
	for k, n := range st.Entries {
		out.Entries[string(k)] = n
	}
	return out
}

type healthDTO struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

func toHealth(r *usecase.HealthReport) *healthDTO {
	return &healthDTO{Status: r.Status, Timestamp: r.Timestamp, Checks: r.Checks}
}
