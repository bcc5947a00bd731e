// Package evaluation computes forecast accuracy metrics, naive baselines,
// and multi-model comparison reports.
package evaluation

import (
	"errors"
	"fmt"
	"math"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/util"
)

// ErrDimensionMismatch is returned when aligned inputs differ in length.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// mapeEpsilon replaces zero actual values in MAPE. The result at such points is
// no longer a true percentage.
const mapeEpsilon = 1e-8

func checkLen(actual, predicted []float64) error {
	if len(actual) != len(predicted) {
		return fmt.Errorf("%w: actual=%d predicted=%d", ErrDimensionMismatch, len(actual), len(predicted))
	}
	return nil
}

// RMSE is the root mean squared error. Empty inputs yield 0.
func RMSE(actual, predicted []float64) (float64, error) {
	if err := checkLen(actual, predicted); err != nil {
		return 0, err
	}
	if len(actual) == 0 {
		return 0, nil
	}
	var ss float64
	for i := range actual {
		d := actual[i] - predicted[i]
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(actual))), nil
}

// MAE is the mean absolute error. Empty inputs yield 0.
func MAE(actual, predicted []float64) (float64, error) {
	if err := checkLen(actual, predicted); err != nil {
		return 0, err
	}
	if len(actual) == 0 {
		return 0, nil
	}
	var s float64
	for i := range actual {
		s += math.Abs(actual[i] - predicted[i])
	}
	return s / float64(len(actual)), nil
}

// MAPE is the mean absolute percentage error. Zero actuals are replaced by 1e-8.
func MAPE(actual, predicted []float64) (float64, error) {
	if err := checkLen(actual, predicted); err != nil {
		return 0, err
	}
	if len(actual) == 0 {
		return 0, nil
	}
	var s float64
	for i := range actual {
		a := actual[i]
		if a == 0 {
			a = mapeEpsilon
		}
		s += math.Abs((a - predicted[i]) / a)
	}
	return s / float64(len(actual)) * 100, nil
}

// DirectionalAccuracy is the percentage of steps where actual and predicted moved
// the same way. A zero move counts as "not up". Fewer than two points yields 0.
func DirectionalAccuracy(actual, predicted []float64) (float64, error) {
	if err := checkLen(actual, predicted); err != nil {
		return 0, err
	}
	if len(actual) < 2 {
		return 0, nil
	}
	correct := 0
	for i := 1; i < len(actual); i++ {
		if (actual[i]-actual[i-1] > 0) == (predicted[i]-predicted[i-1] > 0) {
			correct++
		}
	}
	return float64(correct) / float64(len(actual)-1) * 100, nil
}

// VolatilityAccuracy scores how close the predicted dispersion is to the actual one.
func VolatilityAccuracy(actual, predicted []float64) (float64, error) {
	if err := checkLen(actual, predicted); err != nil {
		return 0, err
	}
	sa := util.StdDev(actual)
	sp := util.StdDev(predicted)
	if sa == 0 {
		if sp == 0 {
			return 100, nil
		}
		return 0, nil
	}
	return math.Max(0, 100-math.Abs(sa-sp)/sa*100), nil
}

// ConfidenceCoverage is the percentage of actual values inside [lower, upper].
// Mismatched lengths or empty input yield 0.
func ConfidenceCoverage(actual, lower, upper []float64) float64 {
	if len(actual) != len(lower) || len(actual) != len(upper) || len(actual) == 0 {
		return 0
	}
	within := 0
	for i, a := range actual {
		if a >= lower[i] && a <= upper[i] {
			within++
		}
	}
	return float64(within) / float64(len(actual)) * 100
}

// Evaluate bundles all metrics for one model. Confidence coverage is included
// only when both bounds are non-nil.
func Evaluate(actual, predicted, lower, upper []float64) (models.MetricSet, error) {
	var (
		ms  models.MetricSet
		err error
	)
	if ms.RMSE, err = RMSE(actual, predicted); err != nil {
		return models.MetricSet{}, err
	}
	if ms.MAE, err = MAE(actual, predicted); err != nil {
		return models.MetricSet{}, err
	}
	if ms.MAPE, err = MAPE(actual, predicted); err != nil {
		return models.MetricSet{}, err
	}
	if ms.DirectionalAccuracy, err = DirectionalAccuracy(actual, predicted); err != nil {
		return models.MetricSet{}, err
	}
	if ms.VolatilityAccuracy, err = VolatilityAccuracy(actual, predicted); err != nil {
		return models.MetricSet{}, err
	}
	if lower != nil && upper != nil {
		cov := ConfidenceCoverage(actual, lower, upper)
		ms.ConfidenceCoverage = &cov
	}
	return ms, nil
}

// EvaluateForecast evaluates a forecast against actual values, truncating both
// to the shorter length.
func EvaluateForecast(actual []float64, fc models.Forecast) (models.MetricSet, error) {
	n := len(actual)
	if len(fc) < n {
		n = len(fc)
	}
	fc = fc.Head(n)
	lower, upper := fc.Bounds()
	return Evaluate(actual[:n], fc.Yhat(), lower, upper)
}
