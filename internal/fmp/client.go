package fmp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"fmp-archiver/internal/series"
)

const (
	dayFormat      = "2006-01-02"
	dateTimeFormat = "2006-01-02 15:04:05"
)

// Options parameterise the FMP client.
type Options struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	UserAgent string
}

// Client talks to the Financial Modeling Prep REST API and returns
// parsed records or a categorized *Error.
type Client struct {
	opts    Options
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewClient constructs an FMP client.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://financialmodelingprep.com/api/v3"
	}

	return &Client{
		opts:    opts,
		logger:  logger.With().Str("component", "fmp_client").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// HistoricalPrices fetches daily OHLCV bars for a stock symbol.
func (c *Client) HistoricalPrices(ctx context.Context, symbol string, w series.Window) ([]series.Bar, error) {
	query := url.Values{}
	if !w.From.IsZero() {
		query.Set("from", w.From.UTC().Format(dayFormat))
	}
	if !w.To.IsZero() {
		query.Set("to", w.To.UTC().Format(dayFormat))
	}

	payload, err := c.get(ctx, "historical-price-full/"+url.PathEscape(symbol), query)
	if err != nil {
		return nil, err
	}

	var res historicalPriceResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, malformedErr("decode historical prices", err)
	}
	return parseDailyBars(res.Historical)
}

// CryptoPrices fetches daily OHLCV bars for a crypto pair symbol such
// as BTCUSD. Same endpoint and shape as stock history.
func (c *Client) CryptoPrices(ctx context.Context, symbol string, w series.Window) ([]series.Bar, error) {
	return c.HistoricalPrices(ctx, symbol, w)
}

// IntradayPrices fetches intraday bars at the given interval. The
// provider caps the span per call; the orchestrator chunks ranges
// before calling.
func (c *Client) IntradayPrices(ctx context.Context, symbol string, interval series.Interval, w series.Window) ([]series.IntradayBar, error) {
	if w.From.IsZero() || w.To.IsZero() {
		return nil, malformedErr("intraday requires a bounded date range", nil)
	}

	query := url.Values{}
	query.Set("from", w.From.UTC().Format(dayFormat))
	query.Set("to", w.To.UTC().Format(dayFormat))

	path := fmt.Sprintf("historical-chart/%s/%s", interval, url.PathEscape(symbol))
	payload, err := c.get(ctx, path, query)
	if err != nil {
		return nil, err
	}

	var rows []intradayBarJSON
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, malformedErr("decode intraday prices", err)
	}

	out := make([]series.IntradayBar, 0, len(rows))
	for _, row := range rows {
		ts, err := time.ParseInLocation(dateTimeFormat, row.Date, time.UTC)
		if err != nil {
			return nil, malformedErr("parse intraday timestamp "+row.Date, err)
		}
		out = append(out, series.IntradayBar{
			Date:   series.Millis(ts),
			Open:   float64(row.Open),
			High:   float64(row.High),
			Low:    float64(row.Low),
			Close:  float64(row.Close),
			Volume: int64(row.Volume),
		})
	}
	return out, nil
}

// HistoricalDividends fetches the full dividend history for a symbol.
func (c *Client) HistoricalDividends(ctx context.Context, symbol string) ([]series.Dividend, error) {
	query := url.Values{}
	query.Set("symbol", symbol)

	payload, err := c.get(ctx, "historical-price-full/stock_dividend", query)
	if err != nil {
		return nil, err
	}

	var res dividendResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, malformedErr("decode dividends", err)
	}

	out := make([]series.Dividend, 0, len(res.Historical))
	for _, row := range res.Historical {
		exDate, err := parseDay(row.Date)
		if err != nil {
			return nil, malformedErr("parse dividend date "+row.Date, err)
		}
		out = append(out, series.Dividend{
			Date:            series.Millis(exDate),
			Dividend:        float64(row.Dividend),
			AdjDividend:     float64(row.AdjDividend),
			RecordDate:      optionalDayMillis(row.RecordDate),
			PaymentDate:     optionalDayMillis(row.PaymentDate),
			DeclarationDate: optionalDayMillis(row.DeclarationDate),
		})
	}
	return out, nil
}

// CompanyProfile fetches the current company profile, stamped with the
// fetch day so repeated pulls dedup per day.
func (c *Client) CompanyProfile(ctx context.Context, symbol string) ([]series.ProfileSnapshot, error) {
	payload, err := c.get(ctx, "profile/"+url.PathEscape(symbol), url.Values{})
	if err != nil {
		return nil, err
	}

	var rows []profileJSON
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, malformedErr("decode profile", err)
	}

	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	out := make([]series.ProfileSnapshot, 0, len(rows))
	for _, row := range rows {
		out = append(out, series.ProfileSnapshot{
			Date:        series.Millis(asOf),
			Symbol:      row.Symbol,
			CompanyName: row.CompanyName,
			Exchange:    row.Exchange,
			Currency:    row.Currency,
			Sector:      row.Sector,
			Industry:    row.Industry,
			Country:     row.Country,
			Website:     row.Website,
			Price:       float64(row.Price),
			Beta:        float64(row.Beta),
			MarketCap:   float64(row.MktCap),
		})
	}
	return out, nil
}

// IncomeStatements fetches up to limit reporting periods.
func (c *Client) IncomeStatements(ctx context.Context, symbol, period string, limit int) ([]series.IncomeStmt, error) {
	payload, err := c.getStatement(ctx, "income-statement", symbol, period, limit)
	if err != nil {
		return nil, err
	}

	var rows []incomeStmtJSON
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, malformedErr("decode income statement", err)
	}

	out := make([]series.IncomeStmt, 0, len(rows))
	for _, row := range rows {
		reported, err := parseDay(row.Date)
		if err != nil {
			return nil, malformedErr("parse statement date "+row.Date, err)
		}
		out = append(out, series.IncomeStmt{
			Date:              series.Millis(reported),
			Symbol:            row.Symbol,
			Period:            row.Period,
			ReportedCurrency:  row.ReportedCurrency,
			Revenue:           float64(row.Revenue),
			CostOfRevenue:     float64(row.CostOfRevenue),
			GrossProfit:       float64(row.GrossProfit),
			OperatingExpenses: float64(row.OperatingExpenses),
			OperatingIncome:   float64(row.OperatingIncome),
			InterestExpense:   float64(row.InterestExpense),
			IncomeBeforeTax:   float64(row.IncomeBeforeTax),
			IncomeTaxExpense:  float64(row.IncomeTaxExpense),
			NetIncome:         float64(row.NetIncome),
			EPS:               float64(row.EPS),
			EPSDiluted:        float64(row.EPSDiluted),
			WeightedAvgShsOut: float64(row.WeightedAvgShsOut),
		})
	}
	return out, nil
}

// BalanceSheets fetches up to limit reporting periods.
func (c *Client) BalanceSheets(ctx context.Context, symbol, period string, limit int) ([]series.BalanceSheetStmt, error) {
	payload, err := c.getStatement(ctx, "balance-sheet-statement", symbol, period, limit)
	if err != nil {
		return nil, err
	}

	var rows []balanceSheetJSON
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, malformedErr("decode balance sheet", err)
	}

	out := make([]series.BalanceSheetStmt, 0, len(rows))
	for _, row := range rows {
		reported, err := parseDay(row.Date)
		if err != nil {
			return nil, malformedErr("parse statement date "+row.Date, err)
		}
		out = append(out, series.BalanceSheetStmt{
			Date:                    series.Millis(reported),
			Symbol:                  row.Symbol,
			Period:                  row.Period,
			ReportedCurrency:        row.ReportedCurrency,
			CashAndEquivalents:      float64(row.CashAndCashEquivalents),
			ShortTermInvestments:    float64(row.ShortTermInvestments),
			NetReceivables:          float64(row.NetReceivables),
			Inventory:               float64(row.Inventory),
			TotalCurrentAssets:      float64(row.TotalCurrentAssets),
			TotalAssets:             float64(row.TotalAssets),
			AccountPayables:         float64(row.AccountPayables),
			ShortTermDebt:           float64(row.ShortTermDebt),
			TotalCurrentLiabilities: float64(row.TotalCurrentLiabilities),
			LongTermDebt:            float64(row.LongTermDebt),
			TotalLiabilities:        float64(row.TotalLiabilities),
			RetainedEarnings:        float64(row.RetainedEarnings),
			TotalStockholdersEq:     float64(row.TotalStockholdersEquity),
			TotalDebt:               float64(row.TotalDebt),
			NetDebt:                 float64(row.NetDebt),
		})
	}
	return out, nil
}

// CashFlows fetches up to limit reporting periods.
func (c *Client) CashFlows(ctx context.Context, symbol, period string, limit int) ([]series.CashFlowStmt, error) {
	payload, err := c.getStatement(ctx, "cash-flow-statement", symbol, period, limit)
	if err != nil {
		return nil, err
	}

	var rows []cashFlowJSON
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, malformedErr("decode cash flow statement", err)
	}

	out := make([]series.CashFlowStmt, 0, len(rows))
	for _, row := range rows {
		reported, err := parseDay(row.Date)
		if err != nil {
			return nil, malformedErr("parse statement date "+row.Date, err)
		}
		out = append(out, series.CashFlowStmt{
			Date:                   series.Millis(reported),
			Symbol:                 row.Symbol,
			Period:                 row.Period,
			NetIncome:              float64(row.NetIncome),
			DepreciationAmort:      float64(row.DepreciationAndAmortization),
			StockBasedCompensation: float64(row.StockBasedCompensation),
			ChangeInWorkingCap:     float64(row.ChangeInWorkingCapital),
			OperatingCashFlow:      float64(row.OperatingCashFlow),
			CapitalExpenditure:     float64(row.CapitalExpenditure),
			AcquisitionsNet:        float64(row.AcquisitionsNet),
			InvestingCashFlow:      float64(row.InvestingCashFlow),
			DebtRepayment:          float64(row.DebtRepayment),
			DividendsPaid:          float64(row.DividendsPaid),
			FinancingCashFlow:      float64(row.FinancingCashFlow),
			FreeCashFlow:           float64(row.FreeCashFlow),
		})
	}
	return out, nil
}

func (c *Client) getStatement(ctx context.Context, endpoint, symbol, period string, limit int) ([]byte, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if strings.EqualFold(period, "quarter") {
		query.Set("period", "quarter")
	}
	return c.get(ctx, endpoint+"/"+url.PathEscape(symbol), query)
}

// get performs one API call and returns the raw payload or a
// categorized *Error.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if c.opts.APIKey == "" {
		return nil, &Error{Category: CategoryAuth, Message: "api key not configured"}
	}
	query.Set("apikey", c.opts.APIKey)

	endpoint := c.baseURL + "/" + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, malformedErr("build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	c.logger.Debug().Str("path", path).Msg("calling provider")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, transientErr(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transientErr(err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, categorizeStatus(resp.StatusCode, string(payload))
	}

	// FMP reports some failures inside a 200 payload.
	var probe struct {
		ErrorMessage string `json:"Error Message"`
	}
	if err := json.Unmarshal(payload, &probe); err == nil && probe.ErrorMessage != "" {
		return nil, categorizeBodyError(probe.ErrorMessage)
	}

	return payload, nil
}

func parseDailyBars(rows []dailyBarJSON) ([]series.Bar, error) {
	out := make([]series.Bar, 0, len(rows))
	for _, row := range rows {
		day, err := parseDay(row.Date)
		if err != nil {
			return nil, malformedErr("parse bar date "+row.Date, err)
		}
		out = append(out, series.Bar{
			Date:     series.Millis(day),
			Open:     float64(row.Open),
			High:     float64(row.High),
			Low:      float64(row.Low),
			Close:    float64(row.Close),
			AdjClose: float64(row.AdjClose),
			Volume:   int64(row.Volume),
		})
	}
	return out, nil
}

func parseDay(s string) (time.Time, error) {
	return time.ParseInLocation(dayFormat, s, time.UTC)
}

// optionalDayMillis parses secondary dates the provider often leaves
// blank; zero means absent.
func optionalDayMillis(s string) int64 {
	if strings.TrimSpace(s) == "" {
		return 0
	}
	day, err := parseDay(s)
	if err != nil {
		return 0
	}
	return series.Millis(day)
}
