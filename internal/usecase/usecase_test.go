package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	"StockPulse/internal/services/anomaly"
	"StockPulse/internal/services/backtest"
	"StockPulse/internal/services/portfolio"
	"StockPulse/internal/services/sentiment"
	applogger "StockPulse/pkg/logger"
)

func TestAnalyzerFrameAttachesTrailingSentiment(t *testing.T) {
	e := newEnv(false)
	e.store.bars["AAPL"] = makeBars("AAPL", linear(40, 100, 1)...)
	a := NewAnalyzer(e.store, nil, sentiment.Static(0.5), nil, nopMetrics{}, applogger.Nop(), WithSentimentDays(5))

	f, err := a.Frame(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, 40, f.Len())
	assert.Equal(t, 0.0, f.Sentiment[34])
	assert.Equal(t, 0.5, f.Sentiment[35])
	assert.Equal(t, 0.5, f.LatestSentiment())
}

func TestAnalyzerNoData(t *testing.T) {
	e := newEnv(false)
	_, err := e.analyzer.Forecast(context.Background(), "NONE", 5)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestEvaluateHoldout(t *testing.T) {
	e := newEnv(false)
	e.store.bars["AAPL"] = makeBars("AAPL", linear(40, 100, 1)...)
	uc := NewEvaluationUseCase(e.analyzer, e.evals, time.Hour, applogger.Nop())

	ev, err := uc.Evaluate(context.Background(), "AAPL", 20)
	require.NoError(t, err)
	assert.Equal(t, 20, ev.TrainSize)
	assert.Equal(t, 20, ev.TestSize)
	assert.InDelta(t, 0, ev.Model.RMSE, 1e-6)
	require.NotNil(t, ev.Model.ConfidenceCoverage)
	assert.Equal(t, ModelName, ev.Comparison[0].Model)
	// the linear trend baseline is exact on a straight line too
	assert.Contains(t, []string{ModelName, "Linear_Trend"}, ev.BestRMSE)
	assert.Contains(t, ev.Comparison.Models(), "Naive")
	assert.Contains(t, ev.Report, "STOCK PREDICTION MODEL EVALUATION REPORT")
	require.Len(t, e.evals.saved, 1)
}

func TestEvaluateCapsTestSize(t *testing.T) {
	e := newEnv(false)
	e.store.bars["AAPL"] = makeBars("AAPL", linear(12, 100, 1)...)
	uc := NewEvaluationUseCase(e.analyzer, nil, 0, applogger.Nop())

	ev, err := uc.Evaluate(context.Background(), "AAPL", 100)
	require.NoError(t, err)
	assert.Equal(t, 7, ev.TestSize)
	assert.Equal(t, 5, ev.TrainSize)

	e.store.bars["TINY"] = makeBars("TINY", 1, 2, 3, 4, 5, 6)
	_, err = uc.Evaluate(context.Background(), "TINY", 20)
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestEvaluationLatest(t *testing.T) {
	e := newEnv(false)
	uc := NewEvaluationUseCase(e.analyzer, e.evals, time.Hour, applogger.Nop())
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := uc.Latest(ctx, "AAPL")
	assert.ErrorIs(t, err, ErrNoEvaluation)

	require.NoError(t, e.evals.Save(ctx, &models.Evaluation{Ticker: "AAPL", EvaluatedAt: now.Add(-30 * time.Minute)}))
	ev, err := uc.Latest(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", ev.Ticker)

	uc.now = func() time.Time { return now.Add(2 * time.Hour) }
	ev, err = uc.Latest(ctx, "AAPL")
	assert.ErrorIs(t, err, ErrStaleEvaluation)
	assert.NotNil(t, ev)
}

func TestSignalsPublishesOncePerComputation(t *testing.T) {
	e := newEnv(true)
	e.store.bars["AAPL"] = makeBars("AAPL", linear(30, 100, 2)...)
	uc := NewSignalsUseCase(e.analyzer, anomaly.NewDetector(), e.publisher, applogger.Nop())
	ctx := context.Background()

	rep, err := uc.Signals(ctx, "AAPL", 5)
	require.NoError(t, err)
	assert.Len(t, rep.Signals, 5)
	assert.Equal(t, 5, rep.Summary.Total)
	assert.Equal(t, "AAPL", rep.Alerts.Ticker)

	again, err := uc.Signals(ctx, "AAPL", 5)
	require.NoError(t, err)
	assert.Equal(t, rep.Summary.Recommendation, again.Summary.Recommendation)

	sigs, _, _ := e.publisher.counts()
	assert.Equal(t, 1, sigs)
}

func TestSignalsPublishFailureIsNotFatal(t *testing.T) {
	e := newEnv(false)
	e.store.bars["AAPL"] = makeBars("AAPL", linear(30, 100, 2)...)
	e.publisher.err = errors.New("kafka down")
	uc := NewSignalsUseCase(e.analyzer, anomaly.NewDetector(), e.publisher, applogger.Nop())

	_, err := uc.Signals(context.Background(), "AAPL", 5)
	require.NoError(t, err)
}

func TestRiskFlagsPriceSpike(t *testing.T) {
	e := newEnv(false)
	closes := linear(29, 100, 0)
	closes = append(closes, 150)
	e.store.bars["AAPL"] = makeBars("AAPL", closes...)
	uc := NewSignalsUseCase(e.analyzer, anomaly.NewDetector(), e.publisher, applogger.Nop())

	risk, err := uc.Risk(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, models.SeverityHigh, risk.RiskLevel)
	assert.Equal(t, 30, risk.Observations)
	assert.False(t, risk.AssessedAt.IsZero())

	_, risks, _ := e.publisher.counts()
	assert.Equal(t, 1, risks)
}

func TestBacktest(t *testing.T) {
	e := newEnv(false)
	e.store.bars["AAPL"] = makeBars("AAPL", linear(40, 100, 1)...)
	uc := NewBacktestUseCase(e.analyzer, backtest.NewSimulator())

	res, err := uc.Backtest(context.Background(), "AAPL", 10000)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", res.Ticker)
	assert.NotEmpty(t, res.RunID)
	assert.Greater(t, res.PredictionsTotal, 0)
	assert.Equal(t, 100.0, res.PredictionAccuracy)

	e.store.bars["TINY"] = makeBars("TINY", linear(8, 100, 1)...)
	_, err = uc.Backtest(context.Background(), "TINY", 10000)
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestPortfolio(t *testing.T) {
	e := newEnv(false)
	e.store.bars["AAPL"] = makeBars("AAPL", linear(20, 100, 1)...)
	e.store.bars["MSFT"] = makeBars("MSFT", linear(20, 200, -1)...)
	uc := NewPortfolioUseCase(e.analyzer)
	ctx := context.Background()

	m, err := uc.Portfolio(ctx, []string{"AAPL", "MSFT", "NONE"}, []float64{0.5, 0.3, 0.2})
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, m.Tickers)
	assert.Greater(t, m.PortfolioVolatility, 0.0)

	_, err = uc.Portfolio(ctx, []string{"AAPL", "MSFT"}, []float64{0.9, 0.9})
	assert.ErrorIs(t, err, portfolio.ErrInvalidConfiguration)

	_, err = uc.Portfolio(ctx, []string{"NONE"}, []float64{1})
	assert.ErrorIs(t, err, portfolio.ErrInsufficientData)
}

func TestCompare(t *testing.T) {
	e := newEnv(false)
	e.store.bars["AAPL"] = makeBars("AAPL", linear(20, 100, 1)...)
	e.store.bars["MSFT"] = makeBars("MSFT", linear(20, 200, 2)...)
	uc := NewPortfolioUseCase(e.analyzer)

	cmp, err := uc.Compare(context.Background(), []string{"AAPL", "MSFT", "NONE"})
	require.NoError(t, err)
	require.Len(t, cmp.Stocks, 2)
	assert.Equal(t, 0.2, cmp.Stocks[0].Sentiment)
	require.Len(t, cmp.Correlations, 1)
	assert.Equal(t, "AAPL", cmp.Correlations[0].A)
}

func TestDashboardCollectsPartialFailures(t *testing.T) {
	e := newEnv(false)
	e.store.bars["AAPL"] = makeBars("AAPL", linear(30, 100, 1)...)
	a := NewAnalyzer(e.store, failingForecaster{}, sentiment.Static(0), nil, nopMetrics{}, applogger.Nop())
	sig := NewSignalsUseCase(a, anomaly.NewDetector(), nil, applogger.Nop())
	ev := NewEvaluationUseCase(a, nil, time.Hour, applogger.Nop())
	uc := NewDashboardUseCase(a, sig, ev)

	d, err := uc.Dashboard(context.Background(), "AAPL", 5)
	require.NoError(t, err)
	assert.NotNil(t, d.Risk)
	assert.Nil(t, d.Signals)
	assert.Nil(t, d.Forecast)
	assert.Contains(t, d.Errors, "forecast")
	assert.Contains(t, d.Errors, "signals")
	assert.Contains(t, d.Errors, "evaluation")
	assert.NotContains(t, d.Errors, "risk")

	_, err = uc.Dashboard(context.Background(), "NONE", 5)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestDashboardAllParts(t *testing.T) {
	e := newEnv(false)
	e.store.bars["AAPL"] = makeBars("AAPL", linear(30, 100, 1)...)
	sig := NewSignalsUseCase(e.analyzer, anomaly.NewDetector(), nil, applogger.Nop())
	ev := NewEvaluationUseCase(e.analyzer, e.evals, time.Hour, applogger.Nop())
	_, err := ev.Evaluate(context.Background(), "AAPL", 10)
	require.NoError(t, err)

	d, err := NewDashboardUseCase(e.analyzer, sig, ev).Dashboard(context.Background(), "AAPL", 5)
	require.NoError(t, err)
	assert.Nil(t, d.Errors)
	assert.Len(t, d.Forecast, 5)
	assert.NotNil(t, d.Evaluation)
}

type fakeQueue struct {
	msgs []RefreshPayload
	err  error
}

func (q *fakeQueue) PublishMessage(_ context.Context, msgType string, payload interface{}) error {
	if q.err != nil {
		return q.err
	}
	if msgType == RefreshJobType {
		q.msgs = append(q.msgs, payload.(RefreshPayload))
	}
	return nil
}

type staticTickers []string

func (s staticTickers) List() []string { return s }

func TestRefreshSchedulerRunOnce(t *testing.T) {
	q := &fakeQueue{}
	s := NewRefreshScheduler(q, staticTickers{"AAPL", "MSFT"}, time.Hour, 5*time.Minute, 7, applogger.Nop())

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, []RefreshPayload{{Ticker: "AAPL", Horizon: 7}, {Ticker: "MSFT", Horizon: 7}}, q.msgs)
	assert.Equal(t, time.Hour, s.nextDelay(nil))

	q.err = errors.New("redis down")
	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, 5*time.Minute, s.nextDelay(err))
}

func TestRefreshSchedulerStartStop(t *testing.T) {
	q := &fakeQueue{}
	s := NewRefreshScheduler(q, staticTickers{"AAPL"}, time.Hour, time.Minute, 7, applogger.Nop())
	s.Start(context.Background())
	s.Stop()
	assert.Len(t, q.msgs, 1)
}

func TestRefreshJobHandle(t *testing.T) {
	e := newEnv(true)
	e.store.bars["AAPL"] = makeBars("AAPL", linear(30, 100, 1)...)
	sig := NewSignalsUseCase(e.analyzer, anomaly.NewDetector(), e.publisher, applogger.Nop())
	job := NewRefreshJob(e.analyzer, sig, 5, applogger.Nop())
	ctx := context.Background()

	raw, _ := json.Marshal(RefreshPayload{Ticker: "AAPL"})
	require.NoError(t, job.Handle(ctx, json.RawMessage(raw)))
	require.NoError(t, job.Handle(ctx, json.RawMessage(raw)))

	sigs, risks, _ := e.publisher.counts()
	assert.Equal(t, 2, sigs)
	assert.Equal(t, 2, risks)

	raw, _ = json.Marshal(RefreshPayload{})
	assert.Error(t, job.Handle(ctx, json.RawMessage(raw)))

	raw, _ = json.Marshal(RefreshPayload{Ticker: "NONE"})
	assert.ErrorIs(t, job.Handle(ctx, json.RawMessage(raw)), ErrNoData)
}

func TestBarsHandler(t *testing.T) {
	store := newFakePriceStore()
	h := NewBarsHandler("bars", store, nopMetrics{})
	ctx := context.Background()
	assert.Equal(t, "bars", h.Topic())

	msg := `{"ticker":"aapl","t":1704164645000,"o":1,"h":2,"l":0.5,"c":1.5,"v":10}`
	require.NoError(t, h.Handle(ctx, []byte(msg)))

	got := store.storedBars(domrepo.TF1d)
	require.Len(t, got, 1)
	assert.Equal(t, "AAPL", got[0].Ticker)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), got[0].Time)

	require.NoError(t, h.Handle(ctx, []byte(`{"ticker":"MSFT","tf":"1m","t":1704164645,"c":3}`)))
	assert.Len(t, store.storedBars(domrepo.TF1m), 1)

	assert.Error(t, h.Handle(ctx, []byte(`{`)))
	assert.Error(t, h.Handle(ctx, []byte(`{"ticker":"AAPL","t":1704164645,"c":0}`)))
	assert.Error(t, h.Handle(ctx, []byte(`{"ticker":"AAPL","tf":"5m","t":1704164645,"c":1}`)))
}

func TestBarAggregator(t *testing.T) {
	store := newFakePriceStore()
	agg := NewBarAggregator(store, nopMetrics{}, 100, time.Hour, applogger.Nop())
	ctx := context.Background()
	base := time.Date(2024, 1, 2, 15, 30, 0, 0, time.UTC).Unix()

	for i, p := range []float64{10, 12, 9, 11} {
		require.NoError(t, agg.Process(ctx, &models.Quote{Ticker: "AAPL", Timestamp: base + int64(i), Price: p, Volume: 1}))
	}
	require.NoError(t, agg.Flush(ctx))

	got := store.storedBars(domrepo.TF1m)
	require.Len(t, got, 1)
	assert.Equal(t, models.Bar{
		Ticker: "AAPL", Time: time.Unix(base, 0).UTC(), Open: 10, High: 12, Low: 9, Close: 11, Volume: 4,
	}, got[0])

	// nothing changed since the last flush
	require.NoError(t, agg.Flush(ctx))
	assert.Len(t, store.storedBars(domrepo.TF1m), 1)

	require.NoError(t, agg.Process(ctx, &models.Quote{Ticker: "AAPL", Timestamp: base + 60, Price: 13, Volume: 2}))
	require.NoError(t, agg.Flush(ctx))
	got = store.storedBars(domrepo.TF1m)
	require.Len(t, got, 2)
	assert.Equal(t, 13.0, got[1].Open)
	assert.Len(t, agg.bars, 1)
}

func TestBarAggregatorRequeuesOnFailure(t *testing.T) {
	store := newFakePriceStore()
	store.err = errors.New("clickhouse down")
	agg := NewBarAggregator(store, nopMetrics{}, 100, time.Hour, applogger.Nop())
	ctx := context.Background()

	require.NoError(t, agg.Process(ctx, &models.Quote{Ticker: "AAPL", Timestamp: 1704164645, Price: 10, Volume: 1}))
	require.Error(t, agg.Flush(ctx))

	store.err = nil
	require.NoError(t, agg.Stop(ctx))
	assert.Len(t, store.storedBars(domrepo.TF1m), 1)
}

func TestBarAggregatorRollsUpIntoDailyBars(t *testing.T) {
	store := newFakePriceStore()
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	store.bars["AAPL"] = []models.Bar{{Ticker: "AAPL", Time: day, Open: 8, High: 10.5, Low: 7, Close: 10, Volume: 50}}
	agg := NewBarAggregator(store, nopMetrics{}, 100, time.Hour, applogger.Nop(), WithRollups(domrepo.TF1d, domrepo.TF1m, domrepo.TF1d))
	ctx := context.Background()
	base := day.Add(15*time.Hour + 30*time.Minute).Unix()

	require.NoError(t, agg.Process(ctx, &models.Quote{Ticker: "AAPL", Timestamp: base, Price: 11, Volume: 1}))
	require.NoError(t, agg.Process(ctx, &models.Quote{Ticker: "AAPL", Timestamp: base + 90, Price: 6, Volume: 2}))
	require.NoError(t, agg.Process(ctx, &models.Quote{Ticker: "MSFT", Timestamp: base, Price: 300, Volume: 1}))
	require.NoError(t, agg.Flush(ctx))

	assert.Len(t, store.storedBars(domrepo.TF1m), 3)
	daily := store.storedBars(domrepo.TF1d)
	require.Len(t, daily, 2)
	assert.Equal(t, models.Bar{Ticker: "AAPL", Time: day, Open: 8, High: 11, Low: 6, Close: 6, Volume: 53}, daily[0])
	assert.Equal(t, models.Bar{Ticker: "MSFT", Time: day, Open: 300, High: 300, Low: 300, Close: 300, Volume: 1}, daily[1])

	// the next day starts a fresh bar and drops the previous one from memory
	require.NoError(t, agg.Process(ctx, &models.Quote{Ticker: "AAPL", Timestamp: day.AddDate(0, 0, 1).Unix(), Price: 7, Volume: 1}))
	require.NoError(t, agg.Flush(ctx))
	daily = store.storedBars(domrepo.TF1d)
	require.Len(t, daily, 3)
	assert.Equal(t, 7.0, daily[2].Open)
}

func TestHealthUseCase(t *testing.T) {
	uc := NewHealthUseCase(time.Second,
		HealthCheck{Name: "clickhouse", Check: func(context.Context) error { return nil }},
		HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
	)
	rep := uc.Check(context.Background())
	assert.False(t, rep.Healthy())
	assert.Equal(t, "ok", rep.Checks["clickhouse"])
	assert.Equal(t, "connection refused", rep.Checks["redis"])

	assert.True(t, NewHealthUseCase(time.Second).Check(context.Background()).Healthy())
}

type dayScores map[string]float64

func (d dayScores) Sentiment(_ context.Context, _ string, date time.Time) (float64, error) {
	v, ok := d[date.Format("2006-01-02")]
	if !ok {
		return 0, errors.New("no headlines")
	}
	return v, nil
}

func TestSentimentDailySeries(t *testing.T) {
	e := newEnv(false)
	scores := dayScores{"2024-03-08": 0.4, "2024-03-10": 2}
	a := NewAnalyzer(e.store, nil, scores, nil, nopMetrics{}, applogger.Nop())
	uc := NewSentimentUseCase(a, applogger.Nop())
	uc.now = func() time.Time { return time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC) }

	rep, err := uc.Sentiment(context.Background(), "AAPL", 3)
	require.NoError(t, err)
	require.Len(t, rep.Days, 3)
	assert.Equal(t, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), rep.Days[0].Date)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), rep.Days[2].Date)
	assert.Equal(t, 0.4, rep.Days[0].Score)
	assert.Equal(t, 0.0, rep.Days[1].Score)
	assert.Equal(t, 1.0, rep.Days[2].Score)
	assert.Equal(t, 1, rep.Unscored)
	assert.InDelta(t, 1.4/3, rep.Average, 1e-9)
}

func TestSentimentWithoutProviderIsNeutral(t *testing.T) {
	e := newEnv(false)
	a := NewAnalyzer(e.store, nil, nil, nil, nopMetrics{}, applogger.Nop())

	rep, err := NewSentimentUseCase(a, applogger.Nop()).Sentiment(context.Background(), "AAPL", 0)
	require.NoError(t, err)
	require.Len(t, rep.Days, 1)
	assert.Equal(t, 0.0, rep.Average)
	assert.Equal(t, 0, rep.Unscored)
}
