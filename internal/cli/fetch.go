package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fmp-archiver/internal/app"
)

var (
	fetchFromFile string
	fetchTypes    []string
	fetchFrom     string
	fetchTo       string
	fetchCrypto   bool
	fetchPeriod   string
	fetchYears    int
	fetchInterval string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [TICKER...]",
	Short: "Fetch remote series and merge them into the local store",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.FetchOptions{
			Tickers:          args,
			TickerFile:       fetchFromFile,
			DataTypes:        fetchTypes,
			Crypto:           fetchCrypto,
			Period:           fetchPeriod,
			Years:            fetchYears,
			IntradayInterval: fetchInterval,
		}

		from, to, err := parseWindowFlags(fetchFrom, fetchTo)
		if err != nil {
			return err
		}
		opts.From, opts.To = from, to

		return getApp().Fetch(cmd.Context(), opts)
	},
}

// parseWindowFlags accepts dates or full RFC3339 timestamps.
func parseWindowFlags(fromRaw, toRaw string) (*time.Time, *time.Time, error) {
	parse := func(flag, raw string) (*time.Time, error) {
		if raw == "" {
			return nil, nil
		}
		for _, layout := range []string{"2006-01-02", time.RFC3339} {
			if t, err := time.Parse(layout, raw); err == nil {
				return &t, nil
			}
		}
		return nil, fmt.Errorf("invalid --%s value %q: want YYYY-MM-DD or RFC3339", flag, raw)
	}

	from, err := parse("from", fromRaw)
	if err != nil {
		return nil, nil, err
	}
	to, err := parse("to", toRaw)
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func init() {
	fetchCmd.Flags().StringVar(&fetchFromFile, "from-file", "", "File with one ticker per line")
	fetchCmd.Flags().StringSliceVar(&fetchTypes, "data-type", nil, "Data types to fetch (default: ohlcv,dividends,income_stmt,balance_sheet,cash_flow,profile)")
	fetchCmd.Flags().StringVar(&fetchFrom, "from", "", "Start date (inclusive)")
	fetchCmd.Flags().StringVar(&fetchTo, "to", "", "End date (inclusive)")
	fetchCmd.Flags().BoolVar(&fetchCrypto, "crypto", false, "Treat tickers as crypto symbols (daily history only)")
	fetchCmd.Flags().StringVar(&fetchPeriod, "period", "", "Statement period: annual or quarter (defaults to config)")
	fetchCmd.Flags().IntVar(&fetchYears, "years", 0, "Years of statement history (defaults to config)")
	fetchCmd.Flags().StringVar(&fetchInterval, "interval", "", "Intraday bar interval, e.g. 5min (defaults to config)")
}
