package evaluation

import (
	"fmt"
	"strings"

	"StockPulse/internal/domain/models"
)

// GenerateReport compares predictions against actual and renders the text report.
func GenerateReport(actual []float64, predictions []Prediction) string {
	return RenderReport(len(actual), Compare(actual, predictions))
}

// RenderReport renders a comparison table. Accuracy and coverage metrics are
// printed as percentages with two decimals, the rest with four.
func RenderReport(dataPoints int, table models.ComparisonTable) string {
	lines := []string{
		strings.Repeat("=", 60),
		"STOCK PREDICTION MODEL EVALUATION REPORT",
		strings.Repeat("=", 60),
		fmt.Sprintf("\nData Points: %d", dataPoints),
		fmt.Sprintf("Models Evaluated: %d", len(table)),
		"\n" + strings.Repeat("-", 40),
		"PERFORMANCE METRICS",
		strings.Repeat("-", 40),
	}

	for _, row := range table {
		lines = append(lines, fmt.Sprintf("\n%s:", row.Model))
		for _, name := range row.Metrics.Names() {
			v, _ := row.Metrics.Get(name)
			if name.IsPercent() {
				lines = append(lines, fmt.Sprintf("  %s: %.2f%%", name, v))
			} else {
				lines = append(lines, fmt.Sprintf("  %s: %.4f", name, v))
			}
		}
	}

	if model, v, ok := BestBy(models.MetricRMSE, table, true); ok {
		lines = append(lines, fmt.Sprintf("\nBest RMSE: %s (%.4f)", model, v))
	}
	if model, v, ok := BestBy(models.MetricDirectionalAccuracy, table, false); ok {
		lines = append(lines, fmt.Sprintf("Best Directional Accuracy: %s (%.2f%%)", model, v))
	}
	lines = append(lines, "\n"+strings.Repeat("=", 60))

	return strings.Join(lines, "\n")
}
