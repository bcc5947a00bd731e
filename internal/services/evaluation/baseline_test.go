package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovingAverageFlatHistory(t *testing.T) {
	got := MovingAverageBaseline([]float64{10, 10, 10, 10, 10}, 3, 2)
	assert.Equal(t, []float64{10, 10}, got)
}

func TestNaiveBaseline(t *testing.T) {
	assert.Equal(t, []float64{7, 7, 7}, NaiveBaseline([]float64{1, 4, 7}, 3))
	assert.Equal(t, []float64{0, 0}, NaiveBaseline(nil, 2))
}

func TestMovingAverageFullWindowIsGlobalMean(t *testing.T) {
	history := []float64{1, 2, 3, 4, 5, 6}
	got := MovingAverageBaseline(history, len(history), 3)
	assert.Equal(t, NaiveBaseline([]float64{3.5}, 3), got)
}

func TestMovingAverageFallsBackToNaive(t *testing.T) {
	assert.Equal(t, []float64{2, 2}, MovingAverageBaseline([]float64{1, 2}, 5, 2))
}

func TestLinearTrendBaseline(t *testing.T) {
	got := LinearTrendBaseline([]float64{1, 2, 3, 4}, 3)
	require.Len(t, got, 3)
	assert.InDelta(t, 5.0, got[0], 1e-9)
	assert.InDelta(t, 6.0, got[1], 1e-9)
	assert.InDelta(t, 7.0, got[2], 1e-9)

	assert.Equal(t, []float64{9, 9}, LinearTrendBaseline([]float64{9}, 2))
}

func TestEvaluateAllBaselines(t *testing.T) {
	train := []float64{1, 2, 3, 4, 5, 6}
	test := []float64{7, 8, 9}

	table, err := EvaluateAllBaselines(train, test)
	require.NoError(t, err)
	assert.Equal(t, []string{"Naive", "MA_3", "MA_5", "Linear_Trend"}, table.Models())

	lt, ok := table.Get("Linear_Trend")
	require.True(t, ok)
	assert.InDelta(t, 0.0, lt.RMSE, 1e-9)
	assert.Nil(t, lt.ConfidenceCoverage)
}

func TestBaselineNames(t *testing.T) {
	var names []string
	for _, b := range DefaultBaselines {
		names = append(names, b.Name())
	}
	assert.Equal(t, []string{"Naive", "MA_3", "MA_5", "MA_10", "Linear_Trend"}, names)
}
