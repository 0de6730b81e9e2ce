package cli

import (
	"github.com/spf13/cobra"

	"fmp-archiver/internal/app"
)

var (
	exportTicker    string
	exportFrom      string
	exportTo        string
	exportPNGPath   string
	exportCSVPath   string
	exportMaxPoints int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a ticker's stored daily history as CSV and/or PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			Ticker:    exportTicker,
			PNGPath:   exportPNGPath,
			CSVPath:   exportCSVPath,
			MaxPoints: exportMaxPoints,
		}

		from, to, err := parseWindowFlags(exportFrom, exportTo)
		if err != nil {
			return err
		}
		opts.From, opts.To = from, to

		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportTicker, "ticker", "", "Ticker to export")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Start date (inclusive)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "End date (inclusive)")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().IntVar(&exportMaxPoints, "max-points", 0, "Maximum data points to export (defaults to config)")
}
