package signals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPulse/internal/domain/models"
)

func TestClassifyStrongBuy(t *testing.T) {
	label, strength := Classify(Input{PredictedChange: 0.03, ConfidenceRatio: 0.05, Sentiment: 0.5})
	assert.Equal(t, models.StrongBuy, label)
	assert.Equal(t, 100.0, strength)
}

func TestClassifyRules(t *testing.T) {
	cases := []struct {
		name  string
		in    Input
		label models.SignalLabel
	}{
		{"buy without sentiment", Input{PredictedChange: 0.03, ConfidenceRatio: 0.05}, models.Buy},
		{"moderate buy", Input{PredictedChange: 0.015, ConfidenceRatio: 0.12}, models.Buy},
		{"wide band holds", Input{PredictedChange: 0.05, ConfidenceRatio: 0.2, Sentiment: 0.9}, models.Hold},
		{"strong sell", Input{PredictedChange: -0.03, ConfidenceRatio: 0.05, Sentiment: -0.5}, models.StrongSell},
		{"sell", Input{PredictedChange: -0.015, ConfidenceRatio: 0.1}, models.Sell},
		{"flat", Input{PredictedChange: 0.001, ConfidenceRatio: 0.01}, models.Hold},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			label, strength := Classify(tc.in)
			assert.Equal(t, tc.label, label)
			assert.GreaterOrEqual(t, strength, 0.0)
			assert.LessOrEqual(t, strength, 100.0)

			again, s2 := Classify(tc.in)
			assert.Equal(t, label, again)
			assert.Equal(t, strength, s2)
		})
	}
}

func TestClassifyStrongSellStrength(t *testing.T) {
	_, strength := Classify(Input{PredictedChange: -0.03, ConfidenceRatio: 0.05, Sentiment: -0.5})
	// |-30 - 25 + 47.5|
	assert.InDelta(t, 7.5, strength, 1e-9)
}

func TestConfidenceRatio(t *testing.T) {
	assert.InDelta(t, 0.1, ConfidenceRatio(models.ForecastPoint{Yhat: 100, Lower: 95, Upper: 105}), 1e-12)
	assert.Equal(t, 1.0, ConfidenceRatio(models.ForecastPoint{Yhat: 0, Lower: -1, Upper: 1}))
}

func forecastOf(values ...float64) models.Forecast {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fc := make(models.Forecast, len(values))
	for i, v := range values {
		fc[i] = models.ForecastPoint{Time: base.AddDate(0, 0, i), Yhat: v, Lower: v - 1, Upper: v + 1}
	}
	return fc
}

func TestGenerate(t *testing.T) {
	sigs := Generate(forecastOf(100, 103, 103.5, 102), 0.5)
	require.Len(t, sigs, 4)

	assert.Equal(t, models.Hold, sigs[0].Label)
	assert.Equal(t, 0.0, sigs[0].PredictedChange)
	assert.Equal(t, 50.0, sigs[0].Strength)

	assert.Equal(t, models.StrongBuy, sigs[1].Label)
	assert.InDelta(t, 0.03, sigs[1].PredictedChange, 1e-12)
	assert.Equal(t, 103.0, sigs[1].PredictedPrice)
	assert.Equal(t, []string{"Strong upward prediction (+3.00%)", "Very high model confidence", "Strong positive sentiment"}, sigs[1].Explanation)
	assert.Equal(t, ActionDescription(models.StrongBuy), sigs[1].ActionDescription)
	assert.InDelta(t, 1-2.0/103.0, sigs[1].Confidence, 1e-12)

	assert.Equal(t, models.Hold, sigs[2].Label)
	assert.Equal(t, models.Sell, sigs[3].Label)
	assert.Contains(t, sigs[3].Explanation[0], "Moderate downward prediction (-1.45%)")
}

func TestGenerateShortForecast(t *testing.T) {
	assert.Empty(t, Generate(forecastOf(100), 0))
	sum := Summarize(nil)
	assert.Equal(t, models.Hold, sum.Recommendation)
	assert.Equal(t, 50.0, sum.MeanStrength)
	assert.Equal(t, 0, sum.Total)
}

func TestSummarize(t *testing.T) {
	strong := []models.Signal{
		{Label: models.StrongBuy, Strength: 80},
		{Label: models.Buy, Strength: 80},
		{Label: models.StrongBuy, Strength: 80},
	}
	sum := Summarize(strong)
	assert.Equal(t, models.StrongBuy, sum.Recommendation)
	assert.Equal(t, 3, sum.BuyCount)
	assert.Equal(t, "Strong buy recommendation based on 3 buy signals vs 0 sell signals with average strength of 80.0%", sum.Rationale)

	mixed := []models.Signal{
		{Label: models.Sell, Strength: 65},
		{Label: models.Sell, Strength: 65},
		{Label: models.Buy, Strength: 65},
	}
	sum = Summarize(mixed)
	assert.Equal(t, models.Sell, sum.Recommendation)

	weak := []models.Signal{
		{Label: models.Buy, Strength: 30},
		{Label: models.Hold, Strength: 50},
	}
	sum = Summarize(weak)
	assert.Equal(t, models.Hold, sum.Recommendation)
	assert.Equal(t, "Hold recommendation - mixed signals with 1 buy, 0 sell, 1 hold", sum.Rationale)
}
