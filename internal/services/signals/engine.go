// Package signals turns forecasts into discrete trading recommendations and alerts.
package signals

import (
	"fmt"
	"math"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/util"
)

// Classification thresholds. Changes are fractions (0.02 == 2%).
const (
	strongChange    = 0.02
	moderateChange  = 0.01
	strongRatio     = 0.10
	moderateRatio   = 0.15
	sentimentThresh = 0.1
)

// Input is the per-step context the classifier looks at.
type Input struct {
	PredictedChange float64
	ConfidenceRatio float64
	Sentiment       float64
}

// ConfidenceRatio is the band width relative to the point estimate. Non-positive
// estimates are treated as maximal uncertainty.
func ConfidenceRatio(p models.ForecastPoint) float64 {
	if p.Yhat <= 0 {
		return 1
	}
	return (p.Upper - p.Lower) / p.Yhat
}

// Classify maps one step to a label and a strength in [0,100]. First matching rule wins.
func Classify(in Input) (models.SignalLabel, float64) {
	c, r, s := in.PredictedChange, in.ConfidenceRatio, in.Sentiment
	switch {
	case c > strongChange && r < strongRatio && s > sentimentThresh:
		return models.StrongBuy, util.Clamp(c*1000+s*50+(1-r)*50, 0, 100)
	case c > moderateChange && r < moderateRatio:
		return models.Buy, util.Clamp(c*500+(1-r)*30, 0, 100)
	case c < -strongChange && r < strongRatio && s < -sentimentThresh:
		return models.StrongSell, util.Clamp(math.Abs(c*1000+s*50+(1-r)*50), 0, 100)
	case c < -moderateChange && r < moderateRatio:
		return models.Sell, util.Clamp(math.Abs(c*500+(1-r)*30), 0, 100)
	default:
		return models.Hold, util.Clamp(50-math.Abs(c*100), 0, 100)
	}
}

var actionDescriptions = map[models.SignalLabel]string{
	models.StrongBuy:  "Strong buying opportunity. Model predicts significant upside with high confidence and positive sentiment support.",
	models.Buy:        "Consider buying. Moderate upside predicted with reasonable confidence.",
	models.StrongSell: "Strong selling signal. Model predicts significant downside with high confidence and negative sentiment.",
	models.Sell:       "Consider selling. Moderate downside predicted with reasonable confidence.",
	models.Hold:       "Hold current position. No clear directional signal - price expected to remain relatively stable.",
}

// ActionDescription returns the human readable action for a label.
func ActionDescription(l models.SignalLabel) string { return actionDescriptions[l] }

// Explain lists the reasons behind a classification input.
func Explain(in Input) []string {
	pct := in.PredictedChange * 100
	reasons := make([]string, 0, 3)
	switch {
	case in.PredictedChange > strongChange:
		reasons = append(reasons, fmt.Sprintf("Strong upward prediction (+%.2f%%)", pct))
	case in.PredictedChange > moderateChange:
		reasons = append(reasons, fmt.Sprintf("Moderate upward prediction (+%.2f%%)", pct))
	case in.PredictedChange < -strongChange:
		reasons = append(reasons, fmt.Sprintf("Strong downward prediction (%.2f%%)", pct))
	case in.PredictedChange < -moderateChange:
		reasons = append(reasons, fmt.Sprintf("Moderate downward prediction (%.2f%%)", pct))
	default:
		reasons = append(reasons, fmt.Sprintf("Minimal price movement expected (%.2f%%)", pct))
	}

	switch {
	case in.ConfidenceRatio < 0.05:
		reasons = append(reasons, "Very high model confidence")
	case in.ConfidenceRatio < strongRatio:
		reasons = append(reasons, "High model confidence")
	case in.ConfidenceRatio < moderateRatio:
		reasons = append(reasons, "Moderate model confidence")
	default:
		reasons = append(reasons, "Lower model confidence")
	}

	switch {
	case in.Sentiment > 0.3:
		reasons = append(reasons, "Strong positive sentiment")
	case in.Sentiment > sentimentThresh:
		reasons = append(reasons, "Positive sentiment")
	case in.Sentiment < -0.3:
		reasons = append(reasons, "Strong negative sentiment")
	case in.Sentiment < -sentimentThresh:
		reasons = append(reasons, "Negative sentiment")
	}
	return reasons
}

// Generate produces one signal per forecast step. The change at step i is the
// fractional change of the point estimate from step i-1; the first step is 0.
// Fewer than two forecast points yield no signals.
func Generate(fc models.Forecast, sentiment float64) []models.Signal {
	if len(fc) < 2 {
		return []models.Signal{}
	}
	out := make([]models.Signal, 0, len(fc))
	for i, p := range fc {
		var change float64
		if i > 0 && fc[i-1].Yhat != 0 {
			change = (p.Yhat - fc[i-1].Yhat) / fc[i-1].Yhat
		}
		in := Input{PredictedChange: change, ConfidenceRatio: ConfidenceRatio(p), Sentiment: sentiment}
		label, strength := Classify(in)
		out = append(out, models.Signal{
			Time:              p.Time,
			Label:             label,
			Strength:          strength,
			PredictedChange:   change,
			Confidence:        util.Clamp(1-in.ConfidenceRatio, 0, 1),
			PredictedPrice:    p.Yhat,
			Explanation:       Explain(in),
			ActionDescription: ActionDescription(label),
		})
	}
	return out
}

// Summarize aggregates a signal sequence into an overall recommendation.
func Summarize(signals []models.Signal) models.SignalSummary {
	sum := models.SignalSummary{Total: len(signals), MeanStrength: 50}
	if len(signals) > 0 {
		var total float64
		for _, s := range signals {
			total += s.Strength
			switch {
			case s.Label.IsBuy():
				sum.BuyCount++
			case s.Label.IsSell():
				sum.SellCount++
			default:
				sum.HoldCount++
			}
		}
		sum.MeanStrength = total / float64(len(signals))
	}

	b, s, h, m := sum.BuyCount, sum.SellCount, sum.HoldCount, sum.MeanStrength
	switch {
	case b > 2*s && m > 70:
		sum.Recommendation = models.StrongBuy
		sum.Rationale = fmt.Sprintf("Strong buy recommendation based on %d buy signals vs %d sell signals with average strength of %.1f%%", b, s, m)
	case b > s && m > 60:
		sum.Recommendation = models.Buy
		sum.Rationale = fmt.Sprintf("Buy recommendation based on %d buy signals outweighing %d sell signals", b, s)
	case s > 2*b && m > 70:
		sum.Recommendation = models.StrongSell
		sum.Rationale = fmt.Sprintf("Strong sell recommendation based on %d sell signals vs %d buy signals with average strength of %.1f%%", s, b, m)
	case s > b && m > 60:
		sum.Recommendation = models.Sell
		sum.Rationale = fmt.Sprintf("Sell recommendation based on %d sell signals outweighing %d buy signals", s, b)
	default:
		sum.Recommendation = models.Hold
		sum.Rationale = fmt.Sprintf("Hold recommendation - mixed signals with %d buy, %d sell, %d hold", b, s, h)
	}
	return sum
}
