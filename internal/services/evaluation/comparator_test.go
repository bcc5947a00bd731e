package evaluation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPulse/internal/domain/models"
)

func TestCompareTruncatesAndExcludes(t *testing.T) {
	actual := []float64{10, 11, 12, 13}
	table := Compare(actual, []Prediction{
		{Model: "full", Values: []float64{10, 11, 12, 13}},
		{Model: "short", Values: []float64{10, 12}},
		{Model: "empty"},
	})

	assert.Equal(t, []string{"full", "short"}, table.Models())
	short, ok := table.Get("short")
	require.True(t, ok)
	assert.InDelta(t, 0.7071067811, short.RMSE, 1e-9)
}

func TestBestByTiesKeepFirst(t *testing.T) {
	table := models.ComparisonTable{
		{Model: "a", Metrics: models.MetricSet{RMSE: 1, DirectionalAccuracy: 50}},
		{Model: "b", Metrics: models.MetricSet{RMSE: 1, DirectionalAccuracy: 80}},
		{Model: "c", Metrics: models.MetricSet{RMSE: 2, DirectionalAccuracy: 80}},
	}

	best, v, ok := BestBy(models.MetricRMSE, table, true)
	require.True(t, ok)
	assert.Equal(t, "a", best)
	assert.Equal(t, 1.0, v)

	best, _, ok = BestBy(models.MetricDirectionalAccuracy, table, false)
	require.True(t, ok)
	assert.Equal(t, "b", best)

	_, _, ok = BestBy(models.MetricConfidenceCoverage, table, false)
	assert.False(t, ok)
}

func TestGenerateReport(t *testing.T) {
	actual := []float64{100, 102, 101, 105}
	report := GenerateReport(actual, []Prediction{
		{Model: "Prophet", Values: []float64{100, 101, 103, 104}},
		{Model: "Naive", Values: []float64{100, 100, 100, 100}},
	})

	lines := strings.Split(report, "\n")
	assert.Equal(t, strings.Repeat("=", 60), lines[0])
	assert.Equal(t, "STOCK PREDICTION MODEL EVALUATION REPORT", lines[1])
	assert.Contains(t, report, "Data Points: 4")
	assert.Contains(t, report, "Models Evaluated: 2")
	assert.Contains(t, report, "\nProphet:\n  RMSE: 1.2247\n")
	assert.Contains(t, report, "  Directional_Accuracy: 66.67%")
	assert.Contains(t, report, "Best RMSE: Prophet (1.2247)")
	assert.Contains(t, report, "Best Directional Accuracy: Prophet (66.67%)")
	assert.True(t, strings.HasSuffix(report, strings.Repeat("=", 60)))
}
