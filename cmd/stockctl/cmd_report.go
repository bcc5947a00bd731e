package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"StockPulse/internal/services/evaluation"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compare model predictions against actual prices",
	Long: `Evaluate one or more prediction files against the actual series and print
the comparison report. Prediction files with yhat_lower/yhat_upper columns
also get confidence coverage.

Examples:
  stockctl report --actual actual.csv --pred prophet=prophet.csv --pred naive=naive.csv
  stockctl report --actual actual.csv --pred lstm=lstm.csv --format json`,
	RunE: runReport,
}

var (
	reportActual string
	reportPreds  []string
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportActual, "actual", "", "CSV of actual values (date,value)")
	reportCmd.Flags().StringArrayVar(&reportPreds, "pred", nil, "Model predictions as name=file.csv (repeatable)")
	_ = reportCmd.MarkFlagRequired("actual")
	_ = reportCmd.MarkFlagRequired("pred")
}

func runReport(cmd *cobra.Command, _ []string) error {
	actual, err := readSeriesFile(reportActual)
	if err != nil {
		return err
	}

	preds := make([]evaluation.Prediction, 0, len(reportPreds))
	for _, arg := range reportPreds {
		name, path, ok := strings.Cut(arg, "=")
		if !ok || name == "" || path == "" {
			return fmt.Errorf("invalid --pred %q, want name=file.csv", arg)
		}
		fc, err := readForecastFile(path)
		if err != nil {
			return err
		}
		lower, upper := fc.Bounds()
		preds = append(preds, evaluation.Prediction{Model: name, Values: fc.Yhat(), Lower: lower, Upper: upper})
	}

	values := actual.Values()
	table := evaluation.Compare(values, preds)
	return render(cmd.OutOrStdout(), evaluation.RenderReport(len(values), table), table)
}
