package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/services/backtest"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay the forecast-driven strategy over a price history",
	Long: `Simulate the signal strategy over the tail of the history file, using the
forecast file as the model's predictions for that window.

Example:
  stockctl backtest --history prices.csv --forecast forecast.csv --capital 10000`,
	RunE: runBacktest,
}

var (
	backtestHistory  string
	backtestForecast string
	backtestCapital  float64
	backtestTicker   string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVar(&backtestHistory, "history", "", "CSV of prices (date,value)")
	backtestCmd.Flags().StringVar(&backtestForecast, "forecast", "", "CSV forecast (date,yhat,yhat_lower,yhat_upper)")
	backtestCmd.Flags().Float64Var(&backtestCapital, "capital", backtest.DefaultCapital, "Initial capital")
	backtestCmd.Flags().StringVar(&backtestTicker, "ticker", "CSV", "Ticker label for the report")
	_ = backtestCmd.MarkFlagRequired("history")
	_ = backtestCmd.MarkFlagRequired("forecast")
}

func runBacktest(cmd *cobra.Command, _ []string) error {
	history, err := readSeriesFile(backtestHistory)
	if err != nil {
		return err
	}
	fc, err := readForecastFile(backtestForecast)
	if err != nil {
		return err
	}

	res, err := backtest.NewSimulator().Run(strings.ToUpper(backtestTicker), history, fc, backtestCapital)
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), backtestSummary(res), res)
}

func backtestSummary(r *models.BacktestResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Backtest %s (run %s)\n", r.Ticker, r.RunID)
	fmt.Fprintf(&b, "  Initial capital:     %.2f\n", r.InitialCapital)
	fmt.Fprintf(&b, "  Final value:         %.2f\n", r.FinalValue)
	fmt.Fprintf(&b, "  Total return:        %.2f%%\n", r.TotalReturnPct)
	fmt.Fprintf(&b, "  Buy & hold return:   %.2f%%\n", r.BuyHoldReturnPct)
	fmt.Fprintf(&b, "  Outperformance:      %.2f%%\n", r.Outperformance)
	fmt.Fprintf(&b, "  Trades:              %d\n", len(r.Trades))
	fmt.Fprintf(&b, "  Prediction accuracy: %.2f%% (%d/%d)\n", r.PredictionAccuracy, r.PredictionsCorrect, r.PredictionsTotal)
	fmt.Fprintf(&b, "  Verdict:             %s", r.Verdict)
	return b.String()
}
