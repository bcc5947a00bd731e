package repository

import (
	"context"
	"errors"
	"time"

	"StockPulse/internal/domain/models"
	pkgkafka "StockPulse/pkg/kafka"
)

// Producer is the subset of the Kafka producer the publisher needs.
type Producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// Topics names the destination of each event kind.
type Topics struct {
	Signals string
	Risk    string
}

// KafkaEventPublisher implements EventPublisher. Events are keyed by ticker so a
// ticker's events stay ordered within one partition.
type KafkaEventPublisher struct {
	producer Producer
	topics   Topics
}

// NewKafkaEventPublisher creates a publisher over producer.
func NewKafkaEventPublisher(producer Producer, topics Topics) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topics: topics}
}

var _ Producer = (*pkgkafka.Producer)(nil)

type signalEvent struct {
	Time            time.Time `json:"time"`
	Label           string    `json:"label"`
	Strength        float64   `json:"strength"`
	PredictedChange float64   `json:"predicted_change"`
	Confidence      float64   `json:"confidence"`
	PredictedPrice  float64   `json:"predicted_price"`
}

type signalsEvent struct {
	Ticker         string        `json:"ticker"`
	GeneratedAt    time.Time     `json:"generated_at"`
	Recommendation string        `json:"recommendation"`
	MeanStrength   float64       `json:"mean_strength"`
	BuyCount       int           `json:"buy_count"`
	SellCount      int           `json:"sell_count"`
	HoldCount      int           `json:"hold_count"`
	HighAlerts     int           `json:"high_alerts"`
	Signals        []signalEvent `json:"signals"`
}

type anomalyEvent struct {
	Type        string  `json:"type"`
	Severity    string  `json:"severity"`
	Description string  `json:"description"`
	ZScore      float64 `json:"z_score"`
}

type riskEvent struct {
	Ticker     string         `json:"ticker"`
	AssessedAt time.Time      `json:"assessed_at"`
	RiskLevel  string         `json:"risk_level"`
	Anomalies  []anomalyEvent `json:"anomalies"`
}

// PublishSignals sends a signal report summary to the signals topic.
func (p *KafkaEventPublisher) PublishSignals(ctx context.Context, report *models.SignalReport) error {
	if report == nil {
		return errors.New("nil signal report")
	}
	return p.producer.Publish(ctx, p.topics.Signals, []byte(report.Ticker), newSignalsEvent(report))
}

// PublishRisk sends a risk assessment to the risk topic.
func (p *KafkaEventPublisher) PublishRisk(ctx context.Context, risk *models.RiskAssessment) error {
	if risk == nil {
		return errors.New("nil risk assessment")
	}
	return p.producer.Publish(ctx, p.topics.Risk, []byte(risk.Ticker), newRiskEvent(risk))
}

// PublishMessage sends an arbitrary payload; it backs the log collector digests.
func (p *KafkaEventPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

// PublishBatch sends payloads to topic in a single write.
func (p *KafkaEventPublisher) PublishBatch(ctx context.Context, topic string, payloads []interface{}) error {
	msgs := make([]pkgkafka.Message, len(payloads))
	for i, v := range payloads {
		msgs[i] = pkgkafka.Message{Value: v}
	}
	return p.producer.PublishBatch(ctx, topic, msgs)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func newSignalsEvent(r *models.SignalReport) signalsEvent {
	ev := signalsEvent{
		Ticker:         r.Ticker,
		GeneratedAt:    r.GeneratedAt.UTC(),
		Recommendation: string(r.Summary.Recommendation),
		MeanStrength:   r.Summary.MeanStrength,
		BuyCount:       r.Summary.BuyCount,
		SellCount:      r.Summary.SellCount,
		HoldCount:      r.Summary.HoldCount,
		HighAlerts:     r.Alerts.HighCount,
		Signals:        make([]signalEvent, len(r.Signals)),
	}
	for i, s := range r.Signals {
		ev.Signals[i] = signalEvent{
			Time:            s.Time.UTC(),
			Label:           string(s.Label),
			Strength:        s.Strength,
			PredictedChange: s.PredictedChange,
			Confidence:      s.Confidence,
			PredictedPrice:  s.PredictedPrice,
		}
	}
	return ev
}

func newRiskEvent(r *models.RiskAssessment) riskEvent {
	ev := riskEvent{
		Ticker:     r.Ticker,
		AssessedAt: r.AssessedAt.UTC(),
		RiskLevel:  string(r.RiskLevel),
		Anomalies:  make([]anomalyEvent, len(r.Anomalies)),
	}
	for i, a := range r.Anomalies {
		ev.Anomalies[i] = anomalyEvent{
			Type:        string(a.Type),
			Severity:    string(a.Severity),
			Description: a.Description,
			ZScore:      a.ZScore,
		}
	}
	return ev
}
