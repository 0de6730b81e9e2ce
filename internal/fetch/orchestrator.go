package fetch

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"fmp-archiver/internal/fmp"
	"fmp-archiver/internal/ratelimit"
	"fmp-archiver/internal/series"
	"fmp-archiver/internal/store"
)

// Provider is the remote API collaborator. Implementations return
// parsed records or categorized errors; the orchestrator's retry
// policy depends only on that categorization.
type Provider interface {
	HistoricalPrices(ctx context.Context, symbol string, w series.Window) ([]series.Bar, error)
	CryptoPrices(ctx context.Context, symbol string, w series.Window) ([]series.Bar, error)
	IntradayPrices(ctx context.Context, symbol string, interval series.Interval, w series.Window) ([]series.IntradayBar, error)
	HistoricalDividends(ctx context.Context, symbol string) ([]series.Dividend, error)
	CompanyProfile(ctx context.Context, symbol string) ([]series.ProfileSnapshot, error)
	IncomeStatements(ctx context.Context, symbol, period string, limit int) ([]series.IncomeStmt, error)
	BalanceSheets(ctx context.Context, symbol, period string, limit int) ([]series.BalanceSheetStmt, error)
	CashFlows(ctx context.Context, symbol, period string, limit int) ([]series.CashFlowStmt, error)
}

// Request asks for one series over an optional date window.
type Request struct {
	Key    series.Key
	Window series.Window
	// Period and Limit apply to financial statement series.
	Period string
	Limit  int
	// Crypto routes daily history through the crypto endpoint.
	Crypto bool
}

// Options tune orchestrator behaviour.
type Options struct {
	MaxRetries      int
	RetryInitial    time.Duration
	RetryMax        time.Duration
	IntradayMaxSpan time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.RetryInitial <= 0 {
		o.RetryInitial = 2 * time.Second
	}
	if o.RetryMax <= 0 {
		o.RetryMax = time.Minute
	}
	if o.IntradayMaxSpan <= 0 {
		o.IntradayMaxSpan = 7 * 24 * time.Hour
	}
	// Chunks step in whole days; anything shorter would invert the
	// chunk window.
	if o.IntradayMaxSpan < 24*time.Hour {
		o.IntradayMaxSpan = 24 * time.Hour
	}
	return o
}

// Orchestrator drives a batch of series requests through the rate
// limiter, merges fetched records with the existing partitions, and
// writes the reconciled datasets back. Requests are processed
// sequentially; the remote budget is global, so overlapping calls buy
// nothing.
type Orchestrator struct {
	provider Provider
	limiter  *ratelimit.Limiter
	store    *store.Store
	opts     Options
	logger   zerolog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// New constructs an Orchestrator.
func New(provider Provider, limiter *ratelimit.Limiter, st *store.Store, opts Options, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		provider: provider,
		limiter:  limiter,
		store:    st,
		opts:     opts.withDefaults(),
		logger:   logger.With().Str("component", "orchestrator").Logger(),
		sleep:    sleepCtx,
	}
}

// Run processes every request and returns the aggregated report. One
// series' failure never aborts the others. Cancellation is honoured at
// chunk boundaries: series already merged stay committed, remaining
// requests are not started.
func (o *Orchestrator) Run(ctx context.Context, requests []Request) Report {
	var report Report
	for _, req := range requests {
		if ctx.Err() != nil {
			break
		}

		res := o.runSeries(ctx, req)
		report.Results = append(report.Results, res)

		if res.Status == StatusSucceeded {
			o.logger.Info().
				Str("series", res.Key.String()).
				Int("fetched", res.Fetched).
				Int("stored", res.Stored).
				Msg("series merged")
		} else {
			o.logger.Error().
				Err(res.Err).
				Str("series", res.Key.String()).
				Str("status", string(res.Status)).
				Msg("series failed")
		}

		// Earnings are derived from the stored income statement, no
		// extra provider call.
		if res.Status == StatusSucceeded && req.Key.Type == series.IncomeStatement {
			report.Results = append(report.Results, o.deriveEarnings(req.Key.Ticker))
		}
	}
	return report
}

func (o *Orchestrator) runSeries(ctx context.Context, req Request) SeriesResult {
	switch req.Key.Type {
	case series.OHLCV:
		fn := o.provider.HistoricalPrices
		if req.Crypto {
			fn = o.provider.CryptoPrices
		}
		return runTyped(o, ctx, req, o.chunks(req), func(ctx context.Context, w series.Window) ([]series.Bar, error) {
			return fn(ctx, req.Key.Ticker, w)
		})
	case series.Intraday:
		return runTyped(o, ctx, req, o.chunks(req), func(ctx context.Context, w series.Window) ([]series.IntradayBar, error) {
			return o.provider.IntradayPrices(ctx, req.Key.Ticker, req.Key.Interval, w)
		})
	case series.Dividends:
		return runTyped(o, ctx, req, o.chunks(req), func(ctx context.Context, _ series.Window) ([]series.Dividend, error) {
			return o.provider.HistoricalDividends(ctx, req.Key.Ticker)
		})
	case series.Profile:
		return runTyped(o, ctx, req, o.chunks(req), func(ctx context.Context, _ series.Window) ([]series.ProfileSnapshot, error) {
			return o.provider.CompanyProfile(ctx, req.Key.Ticker)
		})
	case series.IncomeStatement:
		return runTyped(o, ctx, req, o.chunks(req), func(ctx context.Context, _ series.Window) ([]series.IncomeStmt, error) {
			return o.provider.IncomeStatements(ctx, req.Key.Ticker, req.Period, req.Limit)
		})
	case series.BalanceSheet:
		return runTyped(o, ctx, req, o.chunks(req), func(ctx context.Context, _ series.Window) ([]series.BalanceSheetStmt, error) {
			return o.provider.BalanceSheets(ctx, req.Key.Ticker, req.Period, req.Limit)
		})
	case series.CashFlow:
		return runTyped(o, ctx, req, o.chunks(req), func(ctx context.Context, _ series.Window) ([]series.CashFlowStmt, error) {
			return o.provider.CashFlows(ctx, req.Key.Ticker, req.Period, req.Limit)
		})
	default:
		return SeriesResult{
			Key:    req.Key,
			Status: StatusFailedPermanent,
			Err:    &fmp.Error{Category: fmp.CategoryMalformed, Message: "series type cannot be fetched directly"},
		}
	}
}

// runTyped executes the per-chunk fetch loop for one series, then
// merges and persists the result. Shared across all record shapes.
func runTyped[T series.Record](o *Orchestrator, ctx context.Context, req Request, chunks []series.Window, fn func(context.Context, series.Window) ([]T, error)) SeriesResult {
	res := SeriesResult{Key: req.Key, Status: StatusPending}

	var incoming []T
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			res.Status = StatusAborted
			res.Err = err
			return res
		}

		rows, err := fetchChunk(o, ctx, &res, chunk, fn)
		if err != nil {
			switch {
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				res.Status = StatusAborted
			case fmp.IsPermanent(err):
				res.Status = StatusFailedPermanent
			default:
				res.Status = StatusFailedTransient
			}
			res.Err = err
			return res
		}
		incoming = append(incoming, rows...)
	}
	res.Fetched = len(incoming)

	existing, err := store.Read[T](o.store, req.Key, series.Window{})
	if err != nil {
		res.Status = StatusFailedPermanent
		res.Err = err
		return res
	}

	merged, err := series.Merge(existing, incoming)
	if err != nil {
		// Invariant violation is an internal defect: fail loudly,
		// leave the stored partition untouched.
		res.Status = StatusFailedPermanent
		res.Err = err
		return res
	}

	if err := store.Write(o.store, req.Key, merged); err != nil {
		res.Status = StatusFailedPermanent
		res.Err = err
		return res
	}

	res.Status = StatusSucceeded
	res.Stored = len(merged)
	return res
}

// fetchChunk performs one chunk's provider call under the rate limiter
// with retry and backoff. Permanent failures stop immediately; a 429
// additionally extends the limiter's window.
func fetchChunk[T series.Record](o *Orchestrator, ctx context.Context, res *SeriesResult, chunk series.Window, fn func(context.Context, series.Window) ([]T, error)) ([]T, error) {
	var rows []T

	op := func() error {
		if res.Attempts > 0 {
			res.Status = StatusRetrying
		} else {
			res.Status = StatusInFlight
		}

		if wait := o.limiter.Acquire(); wait > 0 {
			o.logger.Debug().Dur("wait", wait).Str("series", res.Key.String()).Msg("waiting for rate budget")
			if err := o.sleep(ctx, wait); err != nil {
				return backoff.Permanent(err)
			}
		}

		res.Attempts++
		o.limiter.Record()

		got, err := fn(ctx, chunk)
		if err != nil {
			if fmp.IsRateLimited(err) {
				o.limiter.Penalize()
				return err
			}
			if fmp.IsPermanent(err) {
				return backoff.Permanent(err)
			}
			return err
		}

		o.limiter.Reset()
		rows = got
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = o.opts.RetryInitial
	bo.MaxInterval = o.opts.RetryMax
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(o.opts.MaxRetries)), ctx)
	notify := func(err error, next time.Duration) {
		o.logger.Warn().
			Err(err).
			Dur("next_retry", next).
			Str("series", res.Key.String()).
			Msg("chunk fetch failed, retrying")
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return rows, nil
}

// chunks splits a request window into provider-acceptable spans.
// Intraday calls are capped per the provider's span limit; every other
// type is served in a single call.
func (o *Orchestrator) chunks(req Request) []series.Window {
	if req.Key.Type != series.Intraday {
		return []series.Window{req.Window}
	}
	if req.Window.From.IsZero() || req.Window.To.IsZero() {
		// Unbounded intraday window: let the provider client reject it.
		return []series.Window{req.Window}
	}

	span := o.opts.IntradayMaxSpan
	var out []series.Window
	for from := req.Window.From; !from.After(req.Window.To); from = from.Add(span) {
		to := from.Add(span - 24*time.Hour)
		if to.After(req.Window.To) {
			to = req.Window.To
		}
		out = append(out, series.Window{From: from, To: to})
	}
	return out
}

// deriveEarnings rebuilds the earnings series from the stored income
// statement partition.
func (o *Orchestrator) deriveEarnings(ticker string) SeriesResult {
	key, err := series.NewKey(ticker, series.Earnings, "")
	if err != nil {
		return SeriesResult{Status: StatusFailedPermanent, Err: err}
	}
	res := SeriesResult{Key: key, Status: StatusInFlight}

	stmts, err := store.Read[series.IncomeStmt](o.store, series.Key{Ticker: key.Ticker, Type: series.IncomeStatement}, series.Window{})
	if err != nil {
		res.Status = StatusFailedPermanent
		res.Err = err
		return res
	}

	earnings := make([]series.EarningsRecord, 0, len(stmts))
	for _, stmt := range stmts {
		earnings = append(earnings, series.EarningsRecord{
			Date:      stmt.Date,
			Symbol:    stmt.Symbol,
			NetIncome: stmt.NetIncome,
		})
	}

	existing, err := store.Read[series.EarningsRecord](o.store, key, series.Window{})
	if err != nil {
		res.Status = StatusFailedPermanent
		res.Err = err
		return res
	}
	merged, err := series.Merge(existing, earnings)
	if err != nil {
		res.Status = StatusFailedPermanent
		res.Err = err
		return res
	}
	if err := store.Write(o.store, key, merged); err != nil {
		res.Status = StatusFailedPermanent
		res.Err = err
		return res
	}

	res.Status = StatusSucceeded
	res.Fetched = len(earnings)
	res.Stored = len(merged)
	return res
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
