package models

import "time"

// SignalLabel is a discrete trading recommendation.
type SignalLabel string

const (
	StrongBuy  SignalLabel = "STRONG_BUY"
	Buy        SignalLabel = "BUY"
	Hold       SignalLabel = "HOLD"
	Sell       SignalLabel = "SELL"
	StrongSell SignalLabel = "STRONG_SELL"
)

// IsBuy reports whether the label is BUY or STRONG_BUY.
func (l SignalLabel) IsBuy() bool { return l == Buy || l == StrongBuy }

// IsSell reports whether the label is SELL or STRONG_SELL.
func (l SignalLabel) IsSell() bool { return l == Sell || l == StrongSell }

// Signal is the recommendation for one forecast step.
// PredictedChange is a fraction (0.02 == 2%).
type Signal struct {
	Time              time.Time
	Label             SignalLabel
	Strength          float64 // [0,100]
	PredictedChange   float64
	Confidence        float64 // [0,1]
	PredictedPrice    float64
	Explanation       []string
	ActionDescription string
}

// SignalSummary aggregates a signal sequence.
type SignalSummary struct {
	Total          int
	BuyCount       int
	SellCount      int
	HoldCount      int
	MeanStrength   float64
	Recommendation SignalLabel
	Rationale      string
}

// SignalReport is the full output of the signal engine for a ticker.
type SignalReport struct {
	Ticker      string
	GeneratedAt time.Time
	Signals     []Signal
	Summary     SignalSummary
	Alerts      AlertReport
}

// AlertSeverity ranks alerts; lower rank sorts first.
type AlertSeverity string

const (
	AlertHigh   AlertSeverity = "HIGH"
	AlertMedium AlertSeverity = "MEDIUM"
	AlertLow    AlertSeverity = "LOW"
)

// Rank returns the sort order of the severity.
func (s AlertSeverity) Rank() int {
	switch s {
	case AlertHigh:
		return 0
	case AlertMedium:
		return 1
	case AlertLow:
		return 2
	}
	return 3
}

// Alert is a rule-based notice derived from recent prices, sentiment, or the forecast.
type Alert struct {
	Type           string
	Severity       AlertSeverity
	Title          string
	Message        string
	Recommendation string
}

// AlertReport groups the alerts for a ticker with per-severity counts.
type AlertReport struct {
	Ticker      string
	Alerts      []Alert
	HighCount   int
	MediumCount int
	LowCount    int
}
