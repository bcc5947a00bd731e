package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	xhttp "StockPulse/pkg/http"
	pkgkafka "StockPulse/pkg/kafka"
	"StockPulse/pkg/util"
)

// BarsHandler consumes OHLCV bars from Kafka and writes them to the price store.
type BarsHandler struct {
	topic   string
	store   domrepo.PriceStore
	metrics domrepo.Metrics
}

func NewBarsHandler(topic string, store domrepo.PriceStore, metrics domrepo.Metrics) *BarsHandler {
	return &BarsHandler{topic: topic, store: store, metrics: metrics}
}

func (h *BarsHandler) Topic() string { return h.topic }

// barMessage is the wire format of the bars topic. T is unix seconds or milliseconds.
type barMessage struct {
	Ticker string  `json:"ticker" validate:"required,max=10"`
	TF     string  `json:"tf" validate:"omitempty,oneof=1m 1h 1d"`
	T      int64   `json:"t" validate:"gt=0"`
	O      float64 `json:"o" validate:"gte=0"`
	H      float64 `json:"h" validate:"gte=0"`
	L      float64 `json:"l" validate:"gte=0"`
	C      float64 `json:"c" validate:"gt=0"`
	V      float64 `json:"v" validate:"gte=0"`
}

func (h *BarsHandler) Handle(ctx context.Context, b []byte) error {
	var m barMessage
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode bar: %w", err)
	}
	if errs := xhttp.ValidateStruct(&m); len(errs) > 0 {
		h.metrics.RecordError("consumer_validate")
		return fmt.Errorf("invalid bar: %s %s", errs[0].Field, errs[0].Message)
	}
	if m.T > 1e11 { // ms
		m.T = m.T / 1000
	}

	ts := time.Unix(m.T, 0).UTC()
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(ts).Seconds())

	bar := models.Bar{
		Ticker: util.NormalizeTicker(m.Ticker),
		Time:   ts,
		Open:   m.O,
		High:   m.H,
		Low:    m.L,
		Close:  m.C,
		Volume: m.V,
	}
	tf := domrepo.NormalizeTimeframe(m.TF)
	bar.Time = util.TruncateToTimeframe(bar.Time, string(tf))

	start := time.Now()
	err := h.store.StoreBars(ctx, tf, []models.Bar{bar})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordLastPrice(bar.Ticker, bar.Close)
	return nil
}

var _ pkgkafka.MessageHandler = (*BarsHandler)(nil)
