package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	pkgkafka "StockPulse/pkg/kafka"
	applogger "StockPulse/pkg/logger"
)

type publishCall struct {
	topic string
	key   string
	value interface{}
}

type fakeProducer struct {
	calls   []publishCall
	batches [][]pkgkafka.Message
	closed  bool
}

func (f *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	f.calls = append(f.calls, publishCall{topic: topic, key: string(key), value: value})
	return nil
}

func (f *fakeProducer) PublishBatch(_ context.Context, topic string, messages []pkgkafka.Message) error {
	f.batches = append(f.batches, messages)
	for _, m := range messages {
		f.calls = append(f.calls, publishCall{topic: topic, key: string(m.Key), value: m.Value})
	}
	return nil
}

func (f *fakeProducer) Close() error {
	f.closed = true
	return nil
}

func TestBuildBarsInsertSkipsIncompleteBars(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	bars := []models.Bar{
		{Ticker: "AAPL", Time: now, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100},
		{Ticker: "", Time: now},
		{Ticker: "MSFT"},
		{Ticker: "MSFT", Time: now.Add(time.Hour), Close: 3},
	}

	q, args := buildBarsInsert("sp.bars_1d", bars, now)
	assert.Equal(t,
		"INSERT INTO sp.bars_1d (ticker, ts, open, high, low, close, volume, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?),(?, ?, ?, ?, ?, ?, ?, ?)",
		q)
	require.Len(t, args, 16)
	assert.Equal(t, "AAPL", args[0])
	assert.Equal(t, "MSFT", args[8])
	assert.Equal(t, 3.0, args[13])
}

func TestTableForTF(t *testing.T) {
	s := &CHPriceStore{database: "stockpulse"}

	table, err := s.tableForTF(domrepo.TF1h)
	require.NoError(t, err)
	assert.Equal(t, "stockpulse.bars_1h", table)

	_, err = s.tableForTF(domrepo.Timeframe("5m"))
	assert.Error(t, err)
}

func TestReverseBars(t *testing.T) {
	bars := []models.Bar{{Close: 1}, {Close: 2}, {Close: 3}}
	reverseBars(bars)
	assert.Equal(t, []float64{3, 2, 1}, models.Closes(bars).Values())
}

func TestDecodeEvaluationRoundTrip(t *testing.T) {
	cov := 80.0
	ev := &models.Evaluation{
		Ticker:      "AAPL",
		EvaluatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		TrainSize:   40,
		TestSize:    20,
		Model:       models.MetricSet{RMSE: 1.5, ConfidenceCoverage: &cov},
		BestRMSE:    "Prophet",
	}
	b, err := json.Marshal(ev)
	require.NoError(t, err)

	got, err := decodeEvaluation(string(b))
	require.NoError(t, err)
	assert.Equal(t, "AAPL", got.Ticker)
	assert.Equal(t, 1.5, got.Model.RMSE)
	require.NotNil(t, got.Model.ConfidenceCoverage)
	assert.Equal(t, 80.0, *got.Model.ConfidenceCoverage)

	_, err = decodeEvaluation("{")
	assert.Error(t, err)
}

func TestKafkaEventPublisherRoutesByKind(t *testing.T) {
	fp := &fakeProducer{}
	p := NewKafkaEventPublisher(fp, Topics{Signals: "stock.signals", Risk: "stock.risk"})
	ctx := context.Background()

	report := &models.SignalReport{
		Ticker:  "AAPL",
		Signals: []models.Signal{{Label: models.Buy, Strength: 70}},
		Summary: models.SignalSummary{Recommendation: models.Buy, BuyCount: 1, MeanStrength: 70},
	}
	require.NoError(t, p.PublishSignals(ctx, report))
	require.NoError(t, p.PublishRisk(ctx, &models.RiskAssessment{Ticker: "MSFT", RiskLevel: models.SeverityHigh}))
	require.NoError(t, p.PublishMessage(ctx, "stock.logs", map[string]string{"msg": "x"}))
	require.Error(t, p.PublishSignals(ctx, nil))

	require.Len(t, fp.calls, 3)
	assert.Equal(t, "stock.signals", fp.calls[0].topic)
	assert.Equal(t, "AAPL", fp.calls[0].key)
	sig := fp.calls[0].value.(signalsEvent)
	assert.Equal(t, "BUY", sig.Recommendation)
	require.Len(t, sig.Signals, 1)
	assert.Equal(t, "BUY", sig.Signals[0].Label)

	assert.Equal(t, "stock.risk", fp.calls[1].topic)
	assert.Equal(t, "HIGH", fp.calls[1].value.(riskEvent).RiskLevel)
	assert.Equal(t, "", fp.calls[2].key)

	require.NoError(t, p.Close())
	assert.True(t, fp.closed)
}

func TestMemoryPriceStoreUpsertsInOrder(t *testing.T) {
	s := NewMemoryPriceStore()
	ctx := context.Background()
	t0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.StoreBars(ctx, domrepo.TF1d, []models.Bar{
		{Ticker: "AAPL", Time: t0.AddDate(0, 0, 2), Close: 3},
		{Ticker: "AAPL", Time: t0, Close: 1},
		{Ticker: "", Time: t0, Close: 9},
	}))
	require.NoError(t, s.StoreBars(ctx, domrepo.TF1d, []models.Bar{
		{Ticker: "AAPL", Time: t0.AddDate(0, 0, 1), Close: 2},
		{Ticker: "AAPL", Time: t0, Close: 1.5},
	}))

	got, err := s.LatestBars(ctx, "AAPL", 10, domrepo.TF1d)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []float64{1.5, 2, 3}, []float64{got[0].Close, got[1].Close, got[2].Close})

	got, err = s.LatestBars(ctx, "AAPL", 2, domrepo.TF1d)
	require.NoError(t, err)
	assert.Equal(t, 2.0, got[0].Close)

	got, err = s.Bars(ctx, "AAPL", t0.AddDate(0, 0, 1), t0.AddDate(0, 0, 5), domrepo.TF1d)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.LatestBars(ctx, "AAPL", 10, domrepo.TF1m)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryEvaluationStore(t *testing.T) {
	s := NewMemoryEvaluationStore()
	ctx := context.Background()

	ev, err := s.Latest(ctx, "AAPL")
	require.NoError(t, err)
	assert.Nil(t, ev)

	require.NoError(t, s.Save(ctx, &models.Evaluation{Ticker: "AAPL", TestSize: 20}))
	ev, err = s.Latest(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 20, ev.TestSize)
}

func TestLogDigestsPublishedInOneBatch(t *testing.T) {
	fp := &fakeProducer{}
	pub := NewKafkaEventPublisher(fp, Topics{})
	var _ applogger.BatchPublisher = pub

	l := applogger.Nop()
	l.AddCollector(&applogger.CollectionConfig{
		Service:        "stockpulse",
		TimeInterval:   time.Hour,
		CountThreshold: 100,
		DigestSize:     2,
		Topic:          "stock.logs",
		Publisher:      pub,
	})
	for _, msg := range []string{"a failed", "b failed", "c failed", "d failed", "e failed"} {
		l.Error(msg)
	}
	l.RemoveCollector()

	require.Len(t, fp.batches, 1)
	require.Len(t, fp.batches[0], 3)
	total := 0
	for _, c := range fp.calls {
		assert.Equal(t, "stock.logs", c.topic)
		d := c.value.(applogger.LogDigest)
		assert.Equal(t, "stockpulse", d.Service)
		assert.LessOrEqual(t, len(d.Logs), 2)
		total += len(d.Logs)
	}
	assert.Equal(t, 5, total)
}
