package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPulse/internal/domain/models"
)

func TestDirectionalAccuracyScenario(t *testing.T) {
	actual := []float64{100, 102, 101, 105}
	predicted := []float64{100, 101, 103, 104}

	got, err := DirectionalAccuracy(actual, predicted)
	require.NoError(t, err)
	assert.InDelta(t, 200.0/3.0, got, 1e-9)
}

func TestIdentityMetrics(t *testing.T) {
	actual := []float64{10, 12, 11, 15, 14}

	ms, err := Evaluate(actual, actual, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, ms.RMSE)
	assert.Equal(t, 0.0, ms.MAE)
	assert.Equal(t, 0.0, ms.MAPE)
	assert.Equal(t, 100.0, ms.DirectionalAccuracy)
	assert.Equal(t, 100.0, ms.VolatilityAccuracy)
	assert.Nil(t, ms.ConfidenceCoverage)
}

func TestDimensionMismatch(t *testing.T) {
	_, err := RMSE([]float64{1, 2}, []float64{1})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = Evaluate([]float64{1, 2, 3}, []float64{1, 2}, nil, nil)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestEmptyInputs(t *testing.T) {
	rmse, err := RMSE(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rmse)

	da, err := DirectionalAccuracy([]float64{1}, []float64{2})
	require.NoError(t, err)
	assert.Equal(t, 0.0, da)
}

func TestMAPEZeroActual(t *testing.T) {
	got, err := MAPE([]float64{0, 100}, []float64{0, 90})
	require.NoError(t, err)
	assert.InDelta(t, 55.0, got, 1e-9)

	got, err = MAPE([]float64{0}, []float64{1e-8})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got, 0.0)
}

func TestRMSEAndMAE(t *testing.T) {
	actual := []float64{1, 2, 3}
	predicted := []float64{2, 2, 5}

	rmse, err := RMSE(actual, predicted)
	require.NoError(t, err)
	assert.InDelta(t, 1.2909944487, rmse, 1e-9)

	mae, err := MAE(actual, predicted)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mae, 1e-12)
}

func TestDirectionalAccuracyZeroDiff(t *testing.T) {
	// flat steps count as "not up" on both sides
	got, err := DirectionalAccuracy([]float64{1, 1, 0}, []float64{5, 4, 4})
	require.NoError(t, err)
	assert.Equal(t, 100.0, got)
}

func TestVolatilityAccuracy(t *testing.T) {
	got, err := VolatilityAccuracy([]float64{5, 5, 5}, []float64{1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, 100.0, got)

	got, err = VolatilityAccuracy([]float64{5, 5, 5}, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	// predicted std 3x the actual std clamps at zero
	got, err = VolatilityAccuracy([]float64{1, 2, 3}, []float64{1, 4, 7})
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	// predicted std half of actual
	got, err = VolatilityAccuracy([]float64{0, 2, 4}, []float64{0, 1, 2})
	require.NoError(t, err)
	assert.InDelta(t, 50.0, got, 1e-9)
}

func TestConfidenceCoverage(t *testing.T) {
	actual := []float64{10, 11, 12, 13}
	lower := []float64{9, 11, 12.5, 12}
	upper := []float64{11, 12, 13, 13}

	assert.Equal(t, 75.0, ConfidenceCoverage(actual, lower, upper))
	assert.Equal(t, 0.0, ConfidenceCoverage(actual, lower[:2], upper))

	ms, err := Evaluate(actual, actual, lower, upper)
	require.NoError(t, err)
	require.NotNil(t, ms.ConfidenceCoverage)
	assert.Equal(t, 75.0, *ms.ConfidenceCoverage)
	assert.Contains(t, ms.Names(), models.MetricConfidenceCoverage)
}

func TestEvaluateForecastTruncates(t *testing.T) {
	fc := models.Forecast{
		{Yhat: 10, Lower: 9, Upper: 11},
		{Yhat: 11, Lower: 10, Upper: 12},
	}
	ms, err := EvaluateForecast([]float64{10, 11, 12}, fc)
	require.NoError(t, err)
	assert.Equal(t, 0.0, ms.RMSE)
	require.NotNil(t, ms.ConfidenceCoverage)
	assert.Equal(t, 100.0, *ms.ConfidenceCoverage)
}
