package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// outputFormat is shared by every subcommand.
var outputFormat string

var rootCmd = &cobra.Command{
	Use:   "stockctl",
	Short: "Offline forecast evaluation and backtesting",
	Long: `stockctl runs the StockPulse evaluation and backtest engines against CSV files,
without ClickHouse, Kafka or the model service.

CSV files hold either "date,value" rows (prices, actuals, predictions) or
"date,yhat,yhat_lower,yhat_upper" rows (forecasts with bands). A header row is optional.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "text", "Output format (text|json)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// render writes v as indented JSON when --format json is set, otherwise text.
func render(w io.Writer, text string, v interface{}) error {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "text", "":
		_, err := fmt.Fprintln(w, text)
		return err
	default:
		return fmt.Errorf("unknown format %q", outputFormat)
	}
}
