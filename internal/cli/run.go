package cli

import (
	"github.com/spf13/cobra"

	"fmp-archiver/internal/app"
)

var (
	runFromFile string
	runTypes    []string
)

var runCmd = &cobra.Command{
	Use:   "run [TICKER...]",
	Short: "Run the periodic refresh daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.FetchOptions{
			Tickers:    args,
			TickerFile: runFromFile,
			DataTypes:  runTypes,
		}
		return getApp().Run(cmd.Context(), opts)
	},
}

func init() {
	runCmd.Flags().StringVar(&runFromFile, "from-file", "", "File with one ticker per line")
	runCmd.Flags().StringSliceVar(&runTypes, "data-type", nil, "Data types to refresh each interval")
}
