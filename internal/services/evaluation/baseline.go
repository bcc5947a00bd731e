package evaluation

import (
	"fmt"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/util"
)

// BaselineKind selects a reference predictor.
type BaselineKind int

const (
	Naive BaselineKind = iota
	MovingAverage
	LinearTrend
)

// Baseline is a simple reference predictor. Window applies to MovingAverage only.
type Baseline struct {
	Kind   BaselineKind
	Window int
}

// DefaultBaselines is the set run by EvaluateAllBaselines, in report order.
var DefaultBaselines = []Baseline{
	{Kind: Naive},
	{Kind: MovingAverage, Window: 3},
	{Kind: MovingAverage, Window: 5},
	{Kind: MovingAverage, Window: 10},
	{Kind: LinearTrend},
}

// Name is the key used in comparison tables.
func (b Baseline) Name() string {
	switch b.Kind {
	case MovingAverage:
		return fmt.Sprintf("MA_%d", b.Window)
	case LinearTrend:
		return "Linear_Trend"
	default:
		return "Naive"
	}
}

// Predict returns horizon values continuing history.
func (b Baseline) Predict(history []float64, horizon int) []float64 {
	switch b.Kind {
	case MovingAverage:
		return MovingAverageBaseline(history, b.Window, horizon)
	case LinearTrend:
		return LinearTrendBaseline(history, horizon)
	default:
		return NaiveBaseline(history, horizon)
	}
}

func constant(v float64, horizon int) []float64 {
	if horizon < 0 {
		horizon = 0
	}
	out := make([]float64, horizon)
	for i := range out {
		out[i] = v
	}
	return out
}

// NaiveBaseline repeats the last observation. Empty history yields zeros.
func NaiveBaseline(history []float64, horizon int) []float64 {
	if len(history) == 0 {
		return constant(0, horizon)
	}
	return constant(history[len(history)-1], horizon)
}

// MovingAverageBaseline repeats the mean of the last window observations,
// falling back to NaiveBaseline when history is shorter than window.
func MovingAverageBaseline(history []float64, window, horizon int) []float64 {
	if window <= 0 || len(history) < window {
		return NaiveBaseline(history, horizon)
	}
	return constant(util.Mean(history[len(history)-window:]), horizon)
}

// LinearTrendBaseline extrapolates a least-squares line fitted over the whole
// history, falling back to NaiveBaseline for fewer than two points.
func LinearTrendBaseline(history []float64, horizon int) []float64 {
	if len(history) < 2 {
		return NaiveBaseline(history, horizon)
	}
	slope, intercept := util.Polyfit1(history)
	out := make([]float64, 0, horizon)
	for i := 0; i < horizon; i++ {
		x := float64(len(history) + i)
		out = append(out, slope*x+intercept)
	}
	return out
}

// EvaluateAllBaselines fits each default baseline on train and scores it against test.
// Moving averages whose window exceeds the train length are skipped.
func EvaluateAllBaselines(train, test []float64) (models.ComparisonTable, error) {
	table := make(models.ComparisonTable, 0, len(DefaultBaselines))
	for _, b := range DefaultBaselines {
		if b.Kind == MovingAverage && len(train) < b.Window {
			continue
		}
		ms, err := Evaluate(test, b.Predict(train, len(test)), nil, nil)
		if err != nil {
			return nil, fmt.Errorf("baseline %s: %w", b.Name(), err)
		}
		table = append(table, models.ModelMetrics{Model: b.Name(), Metrics: ms})
	}
	return table, nil
}
