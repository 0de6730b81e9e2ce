package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"fmp-archiver/internal/fetch"
	"fmp-archiver/internal/series"
)

// defaultDataTypes is the per-ticker fetch set when no --data-type is
// given. Intraday is opt-in and earnings are derived, not fetched.
var defaultDataTypes = []series.DataType{
	series.OHLCV,
	series.Dividends,
	series.IncomeStatement,
	series.BalanceSheet,
	series.CashFlow,
	series.Profile,
}

// Fetch runs the fetch pipeline for the requested tickers and reports
// per-series outcomes. Any failed series makes the command fail after
// every series has been attempted.
func (a *App) Fetch(ctx context.Context, opts FetchOptions) error {
	tickers, err := a.resolveTickers(opts)
	if err != nil {
		return err
	}

	requests, err := a.buildRequests(tickers, opts)
	if err != nil {
		return err
	}

	st, err := a.openStore()
	if err != nil {
		return err
	}

	orch := fetch.New(a.newClient(), a.newLimiter(), st, fetch.Options{
		MaxRetries:      a.Config.Fetch.MaxRetries,
		RetryInitial:    a.Config.Fetch.RetryInitial,
		RetryMax:        a.Config.Fetch.RetryMax,
		IntradayMaxSpan: a.Config.Fetch.IntradayMaxSpan,
	}, a.Logger)

	a.Logger.Info().
		Int("tickers", len(tickers)).
		Int("series", len(requests)).
		Msg("starting fetch batch")

	report := orch.Run(ctx, requests)
	printReport(report)

	if failed := report.Failed(); len(failed) > 0 {
		for _, res := range failed {
			fmt.Fprintf(os.Stderr, "failed: %s (%s): %v\n", res.Key, res.Status, res.Err)
		}
		return fmt.Errorf("%d of %d series failed", len(failed), len(report.Results))
	}
	return nil
}

func (a *App) resolveTickers(opts FetchOptions) ([]string, error) {
	tickers := opts.Tickers
	if len(tickers) == 0 && opts.TickerFile != "" {
		var err error
		tickers, err = readTickerFile(opts.TickerFile)
		if err != nil {
			return nil, err
		}
	}
	if len(tickers) == 0 {
		tickers = a.Config.Fetch.Tickers
	}
	if len(tickers) == 0 {
		return nil, errors.New("no tickers given: pass arguments, --from-file, or set fetch.tickers")
	}

	out := make([]string, 0, len(tickers))
	seen := make(map[string]struct{}, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}

// readTickerFile parses one ticker per line; blank lines and #-comments
// are skipped.
func readTickerFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ticker file: %w", err)
	}
	defer file.Close()

	var tickers []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tickers = append(tickers, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ticker file: %w", err)
	}
	return tickers, nil
}

func (a *App) buildRequests(tickers []string, opts FetchOptions) ([]fetch.Request, error) {
	dataTypes := defaultDataTypes
	if opts.Crypto {
		// Crypto symbols only have daily history.
		dataTypes = []series.DataType{series.OHLCV}
	}
	if len(opts.DataTypes) > 0 {
		dataTypes = make([]series.DataType, 0, len(opts.DataTypes))
		for _, raw := range opts.DataTypes {
			dt, err := series.ParseDataType(raw)
			if err != nil {
				return nil, err
			}
			if dt == series.Earnings {
				return nil, errors.New("earnings are derived from income statements; fetch income_stmt instead")
			}
			dataTypes = append(dataTypes, dt)
		}
	}

	period := opts.Period
	if period == "" {
		period = a.Config.Fetch.Period
	}
	years := opts.Years
	if years <= 0 {
		years = a.Config.Fetch.Years
	}
	limit := years
	if period == "quarter" {
		limit = years * 4
	}

	interval := series.Interval(opts.IntradayInterval)
	if interval == "" {
		interval = series.Interval(a.Config.Fetch.IntradayInterval)
	}

	var window series.Window
	if opts.From != nil {
		window.From = opts.From.UTC()
	}
	if opts.To != nil {
		window.To = opts.To.UTC()
	}

	var requests []fetch.Request
	for _, ticker := range tickers {
		for _, dt := range dataTypes {
			iv := series.Interval("")
			if dt == series.Intraday {
				iv = interval
			}
			key, err := series.NewKey(ticker, dt, iv)
			if err != nil {
				return nil, err
			}
			requests = append(requests, fetch.Request{
				Key:    key,
				Window: window,
				Period: period,
				Limit:  limit,
				Crypto: opts.Crypto,
			})
		}
	}
	return requests, nil
}

func printReport(report fetch.Report) {
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Series\tStatus\tFetched\tStored\tAttempts")
	for _, res := range report.Results {
		fmt.Fprintf(writer, "%s\t%s\t%d\t%d\t%d\n",
			res.Key, res.Status, res.Fetched, res.Stored, res.Attempts)
	}
	writer.Flush()
}
