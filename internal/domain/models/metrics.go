package models

import (
	"encoding/json"
	"time"
)

// MetricName enumerates the accuracy metrics produced by an evaluation.
type MetricName string

const (
	MetricRMSE                MetricName = "RMSE"
	MetricMAE                 MetricName = "MAE"
	MetricMAPE                MetricName = "MAPE"
	MetricDirectionalAccuracy MetricName = "Directional_Accuracy"
	MetricVolatilityAccuracy  MetricName = "Volatility_Accuracy"
	MetricConfidenceCoverage  MetricName = "Confidence_Coverage"
)

// IsPercent reports whether the metric is expressed as a percentage in reports.
func (m MetricName) IsPercent() bool {
	switch m {
	case MetricDirectionalAccuracy, MetricVolatilityAccuracy, MetricConfidenceCoverage:
		return true
	}
	return false
}

// MetricSet holds the result of one evaluation. ConfidenceCoverage is nil when
// no forecast bounds were supplied.
type MetricSet struct {
	RMSE                float64
	MAE                 float64
	MAPE                float64
	DirectionalAccuracy float64
	VolatilityAccuracy  float64
	ConfidenceCoverage  *float64
}

// Names lists the metrics present in this set in their canonical order.
func (m MetricSet) Names() []MetricName {
	names := []MetricName{MetricRMSE, MetricMAE, MetricMAPE, MetricDirectionalAccuracy, MetricVolatilityAccuracy}
	if m.ConfidenceCoverage != nil {
		names = append(names, MetricConfidenceCoverage)
	}
	return names
}

// Get returns the value of a metric and whether it is present.
func (m MetricSet) Get(name MetricName) (float64, bool) {
	switch name {
	case MetricRMSE:
		return m.RMSE, true
	case MetricMAE:
		return m.MAE, true
	case MetricMAPE:
		return m.MAPE, true
	case MetricDirectionalAccuracy:
		return m.DirectionalAccuracy, true
	case MetricVolatilityAccuracy:
		return m.VolatilityAccuracy, true
	case MetricConfidenceCoverage:
		if m.ConfidenceCoverage == nil {
			return 0, false
		}
		return *m.ConfidenceCoverage, true
	}
	return 0, false
}

// MarshalJSON renders the set as a flat object keyed by metric name.
func (m MetricSet) MarshalJSON() ([]byte, error) {
	out := make(map[string]float64, 6)
	for _, n := range m.Names() {
		v, _ := m.Get(n)
		out[string(n)] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the flat representation produced by MarshalJSON.
func (m *MetricSet) UnmarshalJSON(b []byte) error {
	var in map[string]float64
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*m = MetricSet{
		RMSE:                in[string(MetricRMSE)],
		MAE:                 in[string(MetricMAE)],
		MAPE:                in[string(MetricMAPE)],
		DirectionalAccuracy: in[string(MetricDirectionalAccuracy)],
		VolatilityAccuracy:  in[string(MetricVolatilityAccuracy)],
	}
	if v, ok := in[string(MetricConfidenceCoverage)]; ok {
		m.ConfidenceCoverage = &v
	}
	return nil
}

// ModelMetrics pairs a model name with its metrics.
type ModelMetrics struct {
	Model   string
	Metrics MetricSet
}

// ComparisonTable is an insertion-ordered table of model metrics.
type ComparisonTable []ModelMetrics

// Get looks a model up by name.
func (t ComparisonTable) Get(model string) (MetricSet, bool) {
	for _, row := range t {
		if row.Model == model {
			return row.Metrics, true
		}
	}
	return MetricSet{}, false
}

// Models returns the model names in insertion order.
func (t ComparisonTable) Models() []string {
	out := make([]string, len(t))
	for i, row := range t {
		out[i] = row.Model
	}
	return out
}

// Evaluation is the outcome of a holdout evaluation for one ticker.
type Evaluation struct {
	Ticker                  string
	EvaluatedAt             time.Time
	TrainSize               int
	TestSize                int
	Model                   MetricSet
	Baselines               ComparisonTable
	Comparison              ComparisonTable
	BestRMSE                string
	BestDirectionalAccuracy string
	LowestMAPE              string
	Report                  string
}
