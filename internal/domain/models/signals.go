package models

import "time"

// AnomalyType classifies a statistical outlier.
type AnomalyType string

const (
	PriceAnomaly    AnomalyType = "PRICE_ANOMALY"
	VolatilitySpike AnomalyType = "VOLATILITY_SPIKE"
	SentimentShift  AnomalyType = "SENTIMENT_SHIFT"
)

// Severity applies to anomalies and to the overall risk level.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// Anomaly is one flagged outlier. Values carries the numbers relevant to its type
// (current value, trailing mean, z-score, expected range).
type Anomaly struct {
	Type        AnomalyType
	Severity    Severity
	Description string
	ZScore      float64
	Values      map[string]float64
}

// RiskAssessment is the anomaly detector output for a ticker.
type RiskAssessment struct {
	Ticker       string
	AssessedAt   time.Time
	Anomalies    []Anomaly
	RiskLevel    Severity
	Observations int
}

// Dashboard is a consolidated view of all analytics for one ticker.
// Parts that failed are nil and their error is recorded in Errors.
type Dashboard struct {
	Ticker     string
	Timestamp  time.Time
	Forecast   Forecast
	Signals    *SignalReport
	Risk       *RiskAssessment
	Evaluation *Evaluation
	Errors     map[string]string
}

// SentimentDay is the sentiment score of one calendar day.
type SentimentDay struct {
	Date  time.Time
	Score float64
}

// SentimentReport is the daily sentiment of a ticker over a trailing window.
// Days the provider could not score are neutral and counted in Unscored.
type SentimentReport struct {
	Ticker       string
	AnalysisDate time.Time
	Days         []SentimentDay
	Average      float64
	Unscored     int
}
