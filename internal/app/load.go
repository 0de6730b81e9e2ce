package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"fmp-archiver/internal/loader"
	"fmp-archiver/internal/series"
)

// Load inspects the local store: a per-partition summary, the ticker
// list, or one ticker's stored rows. Pure read, never touches the API.
func (a *App) Load(ctx context.Context, opts LoadOptions) error {
	l, err := a.newLoader()
	if err != nil {
		return err
	}

	switch {
	case opts.ListTickers:
		return a.listTickers(l)
	case opts.Summary:
		return a.printSummary(l, opts.CSVPath)
	case opts.Ticker != "" && opts.DataType != "":
		return a.printTickerData(l, opts)
	case opts.Ticker != "":
		return a.printTickerOverview(l, opts.Ticker, opts.CSVPath)
	default:
		return errors.New("nothing to do: pass --summary, --list-tickers, or --ticker-info")
	}
}

func (a *App) listTickers(l *loader.Loader) error {
	tickers, err := l.Tickers()
	if err != nil {
		return err
	}
	if len(tickers) == 0 {
		fmt.Fprintln(os.Stdout, "store is empty")
		return nil
	}
	for _, t := range tickers {
		fmt.Fprintln(os.Stdout, t)
	}
	return nil
}

func (a *App) printSummary(l *loader.Loader, csvPath string) error {
	metas, err := l.Summary()
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		fmt.Fprintln(os.Stdout, "store is empty")
		return nil
	}

	rows := make([]metaRow, 0, len(metas))
	for _, m := range metas {
		rows = append(rows, metaRow{Series: m.Key.String(), Rows: m.Rows, First: m.First, Last: m.Last})
	}
	return emit(metaTable(rows), csvPath)
}

func (a *App) printTickerOverview(l *loader.Loader, ticker, csvPath string) error {
	keys, err := l.TickerKeys(ticker)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return fmt.Errorf("%s: %w", ticker, loader.ErrNoData)
	}

	st, err := a.openStore()
	if err != nil {
		return err
	}
	rows := make([]metaRow, 0, len(keys))
	for _, key := range keys {
		meta, err := st.Stat(key)
		if err != nil {
			return err
		}
		rows = append(rows, metaRow{Series: meta.Key.String(), Rows: meta.Rows, First: meta.First, Last: meta.Last})
	}
	return emit(metaTable(rows), csvPath)
}

func (a *App) printTickerData(l *loader.Loader, opts LoadOptions) error {
	dt, err := series.ParseDataType(opts.DataType)
	if err != nil {
		return err
	}

	var window series.Window
	if opts.From != nil {
		window.From = opts.From.UTC()
	}
	if opts.To != nil {
		window.To = opts.To.UTC()
	}

	var tbl table
	switch dt {
	case series.OHLCV:
		rows, err := l.History(opts.Ticker, window)
		if err != nil {
			return err
		}
		tbl = barTable(rows)
	case series.Intraday:
		interval := series.Interval(opts.Interval)
		if interval == "" {
			interval = series.Interval(a.Config.Fetch.IntradayInterval)
		}
		rows, err := l.Intraday(opts.Ticker, interval, window)
		if err != nil {
			return err
		}
		tbl = intradayTable(rows)
	case series.Dividends:
		rows, err := l.Dividends(opts.Ticker, window)
		if err != nil {
			return err
		}
		tbl = dividendTable(rows)
	case series.IncomeStatement:
		rows, err := l.IncomeStatements(opts.Ticker, window)
		if err != nil {
			return err
		}
		tbl = incomeTable(rows)
	case series.BalanceSheet:
		rows, err := l.BalanceSheets(opts.Ticker, window)
		if err != nil {
			return err
		}
		tbl = balanceSheetTable(rows)
	case series.CashFlow:
		rows, err := l.CashFlows(opts.Ticker, window)
		if err != nil {
			return err
		}
		tbl = cashFlowTable(rows)
	case series.Profile:
		rows, err := l.Profile(opts.Ticker, window)
		if err != nil {
			return err
		}
		tbl = profileTable(rows)
	case series.Earnings:
		rows, err := l.Earnings(opts.Ticker, window)
		if err != nil {
			return err
		}
		tbl = earningsTable(rows)
	default:
		return fmt.Errorf("unsupported data type %q", dt)
	}

	if len(tbl.rows) == 0 {
		fmt.Fprintln(os.Stdout, "no rows in range")
		return nil
	}
	return emit(tbl, opts.CSVPath)
}

// emit writes the table as CSV when a path is given, otherwise prints
// it to stdout.
func emit(t table, csvPath string) error {
	if csvPath != "" {
		return t.writeCSV(csvPath)
	}
	t.print()
	return nil
}
