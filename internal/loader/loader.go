package loader

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"fmp-archiver/internal/series"
	"fmp-archiver/internal/store"
)

// ErrNoData marks a read against a series that was never fetched.
// Callers distinguish it from an empty range read, which returns an
// empty dataset without error.
var ErrNoData = errors.New("no stored data for series")

// Loader is the read-side API over the partition store. It never
// mutates anything on disk.
type Loader struct {
	store  *store.Store
	logger zerolog.Logger
}

// New constructs a Loader over an opened store.
func New(st *store.Store, logger zerolog.Logger) *Loader {
	return &Loader{
		store:  st,
		logger: logger.With().Str("component", "loader").Logger(),
	}
}

// Load reads one series partition, bounded by an optional inclusive
// window. A missing partition yields ErrNoData; a window that matches
// nothing yields an empty slice.
func Load[T series.Record](l *Loader, key series.Key, w series.Window) ([]T, error) {
	if !l.store.Exists(key) {
		return nil, fmt.Errorf("%s: %w", key, ErrNoData)
	}
	rows, err := store.Read[T](l.store, key, w)
	if err != nil {
		return nil, err
	}
	l.logger.Debug().Str("series", key.String()).Int("rows", len(rows)).Msg("series loaded")
	return rows, nil
}

// Result pairs one key of a batch read with its rows or error.
type Result[T series.Record] struct {
	Key  series.Key
	Rows []T
	Err  error
}

// LoadMany reads several same-shaped series in one call. Each key gets
// its own result; one missing partition does not fail the rest.
func LoadMany[T series.Record](l *Loader, keys []series.Key, w series.Window) []Result[T] {
	out := make([]Result[T], 0, len(keys))
	for _, key := range keys {
		rows, err := Load[T](l, key, w)
		out = append(out, Result[T]{Key: key, Rows: rows, Err: err})
	}
	return out
}

// History returns the stored daily bars for a ticker.
func (l *Loader) History(ticker string, w series.Window) ([]series.Bar, error) {
	key, err := series.NewKey(ticker, series.OHLCV, "")
	if err != nil {
		return nil, err
	}
	return Load[series.Bar](l, key, w)
}

// Intraday returns the stored intraday bars for a ticker at one interval.
func (l *Loader) Intraday(ticker string, interval series.Interval, w series.Window) ([]series.IntradayBar, error) {
	key, err := series.NewKey(ticker, series.Intraday, interval)
	if err != nil {
		return nil, err
	}
	return Load[series.IntradayBar](l, key, w)
}

// Dividends returns the stored dividend history for a ticker.
func (l *Loader) Dividends(ticker string, w series.Window) ([]series.Dividend, error) {
	key, err := series.NewKey(ticker, series.Dividends, "")
	if err != nil {
		return nil, err
	}
	return Load[series.Dividend](l, key, w)
}

// IncomeStatements returns the stored income statements for a ticker.
func (l *Loader) IncomeStatements(ticker string, w series.Window) ([]series.IncomeStmt, error) {
	key, err := series.NewKey(ticker, series.IncomeStatement, "")
	if err != nil {
		return nil, err
	}
	return Load[series.IncomeStmt](l, key, w)
}

// BalanceSheets returns the stored balance sheets for a ticker.
func (l *Loader) BalanceSheets(ticker string, w series.Window) ([]series.BalanceSheetStmt, error) {
	key, err := series.NewKey(ticker, series.BalanceSheet, "")
	if err != nil {
		return nil, err
	}
	return Load[series.BalanceSheetStmt](l, key, w)
}

// CashFlows returns the stored cash flow statements for a ticker.
func (l *Loader) CashFlows(ticker string, w series.Window) ([]series.CashFlowStmt, error) {
	key, err := series.NewKey(ticker, series.CashFlow, "")
	if err != nil {
		return nil, err
	}
	return Load[series.CashFlowStmt](l, key, w)
}

// Profile returns the stored profile snapshots for a ticker.
func (l *Loader) Profile(ticker string, w series.Window) ([]series.ProfileSnapshot, error) {
	key, err := series.NewKey(ticker, series.Profile, "")
	if err != nil {
		return nil, err
	}
	return Load[series.ProfileSnapshot](l, key, w)
}

// Earnings returns the stored earnings series for a ticker.
func (l *Loader) Earnings(ticker string, w series.Window) ([]series.EarningsRecord, error) {
	key, err := series.NewKey(ticker, series.Earnings, "")
	if err != nil {
		return nil, err
	}
	return Load[series.EarningsRecord](l, key, w)
}

// Tickers lists every ticker with at least one stored partition.
func (l *Loader) Tickers() ([]string, error) {
	return l.store.ListTickers()
}

// Summary returns per-partition metadata for every stored series,
// without loading any full dataset.
func (l *Loader) Summary() ([]store.Meta, error) {
	keys, err := l.store.ListKeys()
	if err != nil {
		return nil, err
	}
	metas := make([]store.Meta, 0, len(keys))
	for _, key := range keys {
		meta, err := l.store.Stat(key)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", key, err)
		}
		metas = append(metas, meta)
	}
	return metas, nil
}

// TickerKeys lists the series stored for one ticker.
func (l *Loader) TickerKeys(ticker string) ([]series.Key, error) {
	return l.store.DataTypesFor(ticker)
}
