package main

import (
	"github.com/spf13/cobra"

	"StockPulse/internal/services/evaluation"
)

var baselinesCmd = &cobra.Command{
	Use:   "baselines",
	Short: "Score the naive, moving-average and linear-trend baselines",
	Long: `Fit every baseline on the history file and score it against the test file.

Example:
  stockctl baselines --history train.csv --test test.csv`,
	RunE: runBaselines,
}

var (
	baselinesHistory string
	baselinesTest    string
)

func init() {
	rootCmd.AddCommand(baselinesCmd)

	baselinesCmd.Flags().StringVar(&baselinesHistory, "history", "", "CSV of training values (date,value)")
	baselinesCmd.Flags().StringVar(&baselinesTest, "test", "", "CSV of held-out values (date,value)")
	_ = baselinesCmd.MarkFlagRequired("history")
	_ = baselinesCmd.MarkFlagRequired("test")
}

func runBaselines(cmd *cobra.Command, _ []string) error {
	train, err := readSeriesFile(baselinesHistory)
	if err != nil {
		return err
	}
	test, err := readSeriesFile(baselinesTest)
	if err != nil {
		return err
	}

	table, err := evaluation.EvaluateAllBaselines(train.Values(), test.Values())
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), evaluation.RenderReport(len(test), table), table)
}
