// Package anomaly flags z-score outliers in price, volatility, and sentiment
// series and derives an overall risk level.
package anomaly

import (
	"fmt"
	"math"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/util"
)

const (
	// DefaultWindow is the trailing window the statistics are computed over.
	DefaultWindow = 20
	// MinObservations is the price history length below which nothing is flagged.
	MinObservations = 10

	flagZ = 2.0
	highZ = 3.0
)

// Input holds the series to scan. Volatility and Sentiment are optional.
type Input struct {
	Prices     []float64
	Volatility []float64
	Sentiment  []float64
}

// Detector scans trailing windows for outliers.
type Detector struct {
	window int
}

// Option configures a Detector.
type Option func(*Detector)

// WithWindow overrides the trailing window length.
func WithWindow(n int) Option {
	return func(d *Detector) {
		if n > 1 {
			d.window = n
		}
	}
}

// NewDetector creates a Detector with the default 20 point window.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{window: DefaultWindow}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type windowStats struct {
	current, mean, std, z float64
}

// trailing computes statistics over the last window points, current point included.
// ok is false when the series is empty or has zero dispersion.
func (d *Detector) trailing(xs []float64) (windowStats, bool) {
	if len(xs) == 0 {
		return windowStats{}, false
	}
	start := len(xs) - d.window
	if start < 0 {
		start = 0
	}
	w := xs[start:]
	st := windowStats{current: xs[len(xs)-1], mean: util.Mean(w), std: util.StdDev(w)}
	if st.std == 0 {
		return st, false
	}
	st.z = (st.current - st.mean) / st.std
	return st, true
}

// Detect returns the anomalies found and the overall risk level.
func (d *Detector) Detect(in Input) ([]models.Anomaly, models.Severity) {
	anomalies := []models.Anomaly{}
	if len(in.Prices) < MinObservations {
		return anomalies, models.SeverityLow
	}

	if st, ok := d.trailing(in.Prices); ok && math.Abs(st.z) > flagZ {
		sev := models.SeverityMedium
		if math.Abs(st.z) > highZ {
			sev = models.SeverityHigh
		}
		anomalies = append(anomalies, models.Anomaly{
			Type:        models.PriceAnomaly,
			Severity:    sev,
			Description: fmt.Sprintf("Price deviation of %.2f standard deviations", st.z),
			ZScore:      st.z,
			Values: map[string]float64{
				"current_price":        st.current,
				"mean_price":           st.mean,
				"expected_range_lower": st.mean - 2*st.std,
				"expected_range_upper": st.mean + 2*st.std,
			},
		})
	}

	if st, ok := d.trailing(in.Volatility); ok && st.z > flagZ {
		sev := models.SeverityMedium
		if st.z > highZ {
			sev = models.SeverityHigh
		}
		anomalies = append(anomalies, models.Anomaly{
			Type:        models.VolatilitySpike,
			Severity:    sev,
			Description: fmt.Sprintf("Volatility spike detected: %.2f standard deviations", st.z),
			ZScore:      st.z,
			Values: map[string]float64{
				"current_volatility": st.current,
				"average_volatility": st.mean,
			},
		})
	}

	if st, ok := d.trailing(in.Sentiment); ok && math.Abs(st.z) > flagZ {
		anomalies = append(anomalies, models.Anomaly{
			Type:        models.SentimentShift,
			Severity:    models.SeverityMedium,
			Description: "Significant sentiment shift detected",
			ZScore:      st.z,
			Values: map[string]float64{
				"current_sentiment": st.current,
				"average_sentiment": st.mean,
			},
		})
	}

	return anomalies, RiskLevel(anomalies)
}

// Assess wraps Detect into a RiskAssessment for a ticker.
func (d *Detector) Assess(ticker string, in Input) *models.RiskAssessment {
	anomalies, level := d.Detect(in)
	return &models.RiskAssessment{
		Ticker:       ticker,
		Anomalies:    anomalies,
		RiskLevel:    level,
		Observations: len(in.Prices),
	}
}

// RiskLevel is HIGH when any anomaly is HIGH, MEDIUM with two or more MEDIUM
// anomalies, LOW otherwise.
func RiskLevel(anomalies []models.Anomaly) models.Severity {
	medium := 0
	for _, a := range anomalies {
		switch a.Severity {
		case models.SeverityHigh:
			return models.SeverityHigh
		case models.SeverityMedium:
			medium++
		}
	}
	if medium >= 2 {
		return models.SeverityMedium
	}
	return models.SeverityLow
}
