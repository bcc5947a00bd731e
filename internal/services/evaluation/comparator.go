package evaluation

import (
	"math"

	"StockPulse/internal/domain/models"
)

// Prediction is one named model output to compare. Lower and Upper are optional.
type Prediction struct {
	Model  string
	Values []float64
	Lower  []float64
	Upper  []float64
}

// Compare evaluates every prediction against actual. Each model is truncated to the
// common length with actual; models without any overlapping point are left out.
func Compare(actual []float64, predictions []Prediction) models.ComparisonTable {
	table := make(models.ComparisonTable, 0, len(predictions))
	for _, p := range predictions {
		n := len(actual)
		if len(p.Values) < n {
			n = len(p.Values)
		}
		if n == 0 {
			continue
		}
		var lower, upper []float64
		if len(p.Lower) >= n && len(p.Upper) >= n {
			lower, upper = p.Lower[:n], p.Upper[:n]
		}
		ms, err := Evaluate(actual[:n], p.Values[:n], lower, upper)
		if err != nil {
			continue
		}
		table = append(table, models.ModelMetrics{Model: p.Model, Metrics: ms})
	}
	return table
}

// BestBy returns the model with the lowest (minimize) or highest value of metric.
// Ties keep the earliest row. Returns false when no row carries the metric.
func BestBy(metric models.MetricName, table models.ComparisonTable, minimize bool) (string, float64, bool) {
	var (
		best  string
		value float64
		found bool
	)
	for _, row := range table {
		v, ok := row.Metrics.Get(metric)
		if !ok || math.IsNaN(v) {
			continue
		}
		if !found || (minimize && v < value) || (!minimize && v > value) {
			best, value, found = row.Model, v, true
		}
	}
	return best, value, found
}
