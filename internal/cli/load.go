package cli

import (
	"github.com/spf13/cobra"

	"fmp-archiver/internal/app"
)

var (
	loadSummary     bool
	loadListTickers bool
	loadTickerInfo  string
	loadDataType    string
	loadInterval    string
	loadFrom        string
	loadTo          string
	loadCSVPath     string
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Inspect locally stored series without touching the API",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.LoadOptions{
			Summary:     loadSummary,
			ListTickers: loadListTickers,
			Ticker:      loadTickerInfo,
			DataType:    loadDataType,
			Interval:    loadInterval,
			CSVPath:     loadCSVPath,
		}

		from, to, err := parseWindowFlags(loadFrom, loadTo)
		if err != nil {
			return err
		}
		opts.From, opts.To = from, to

		return getApp().Load(cmd.Context(), opts)
	},
}

func init() {
	loadCmd.Flags().BoolVar(&loadSummary, "summary", false, "Print per-series row counts and date ranges")
	loadCmd.Flags().BoolVar(&loadListTickers, "list-tickers", false, "List tickers present in the store")
	loadCmd.Flags().StringVar(&loadTickerInfo, "ticker-info", "", "Show stored data for one ticker")
	loadCmd.Flags().StringVar(&loadDataType, "data-type", "", "Data type to print with --ticker-info (omit for a per-series overview)")
	loadCmd.Flags().StringVar(&loadInterval, "interval", "", "Intraday interval with --data-type intraday")
	loadCmd.Flags().StringVar(&loadFrom, "from", "", "Start date (inclusive)")
	loadCmd.Flags().StringVar(&loadTo, "to", "", "End date (inclusive)")
	loadCmd.Flags().StringVar(&loadCSVPath, "csv", "", "Write CSV to this path instead of printing a table")
}
