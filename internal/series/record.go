package series

import "time"

// Record is implemented by every row shape stored in a partition.
// The observation timestamp is the sole ordering and dedup key
// within a series.
type Record interface {
	ObservedAt() time.Time
}

// Millis converts a time to the millisecond epoch value stored in the
// shared "date" column.
func Millis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

// FromMillis is the inverse of Millis.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// Bar is one daily OHLCV observation (stocks and crypto).
type Bar struct {
	Date     int64   `parquet:"date"`
	Open     float64 `parquet:"open"`
	High     float64 `parquet:"high"`
	Low      float64 `parquet:"low"`
	Close    float64 `parquet:"close"`
	AdjClose float64 `parquet:"adj_close"`
	Volume   int64   `parquet:"volume"`
}

func (b Bar) ObservedAt() time.Time { return FromMillis(b.Date) }

// IntradayBar is one intraday OHLCV observation.
type IntradayBar struct {
	Date   int64   `parquet:"date"`
	Open   float64 `parquet:"open"`
	High   float64 `parquet:"high"`
	Low    float64 `parquet:"low"`
	Close  float64 `parquet:"close"`
	Volume int64   `parquet:"volume"`
}

func (b IntradayBar) ObservedAt() time.Time { return FromMillis(b.Date) }

// Dividend is one ex-dividend event. Secondary dates are zero when the
// provider omits them.
type Dividend struct {
	Date            int64   `parquet:"date"`
	Dividend        float64 `parquet:"dividend"`
	AdjDividend     float64 `parquet:"adj_dividend"`
	RecordDate      int64   `parquet:"record_date"`
	PaymentDate     int64   `parquet:"payment_date"`
	DeclarationDate int64   `parquet:"declaration_date"`
}

func (d Dividend) ObservedAt() time.Time { return FromMillis(d.Date) }

// IncomeStmt is one reporting period of the income statement.
type IncomeStmt struct {
	Date              int64   `parquet:"date"`
	Symbol            string  `parquet:"symbol"`
	Period            string  `parquet:"period"`
	ReportedCurrency  string  `parquet:"reported_currency"`
	Revenue           float64 `parquet:"revenue"`
	CostOfRevenue     float64 `parquet:"cost_of_revenue"`
	GrossProfit       float64 `parquet:"gross_profit"`
	OperatingExpenses float64 `parquet:"operating_expenses"`
	OperatingIncome   float64 `parquet:"operating_income"`
	InterestExpense   float64 `parquet:"interest_expense"`
	IncomeBeforeTax   float64 `parquet:"income_before_tax"`
	IncomeTaxExpense  float64 `parquet:"income_tax_expense"`
	NetIncome         float64 `parquet:"net_income"`
	EPS               float64 `parquet:"eps"`
	EPSDiluted        float64 `parquet:"eps_diluted"`
	WeightedAvgShsOut float64 `parquet:"weighted_avg_shs_out"`
}

func (s IncomeStmt) ObservedAt() time.Time { return FromMillis(s.Date) }

// BalanceSheetStmt is one reporting period of the balance sheet.
type BalanceSheetStmt struct {
	Date                    int64   `parquet:"date"`
	Symbol                  string  `parquet:"symbol"`
	Period                  string  `parquet:"period"`
	ReportedCurrency        string  `parquet:"reported_currency"`
	CashAndEquivalents      float64 `parquet:"cash_and_equivalents"`
	ShortTermInvestments    float64 `parquet:"short_term_investments"`
	NetReceivables          float64 `parquet:"net_receivables"`
	Inventory               float64 `parquet:"inventory"`
	TotalCurrentAssets      float64 `parquet:"total_current_assets"`
	TotalAssets             float64 `parquet:"total_assets"`
	AccountPayables         float64 `parquet:"account_payables"`
	ShortTermDebt           float64 `parquet:"short_term_debt"`
	TotalCurrentLiabilities float64 `parquet:"total_current_liabilities"`
	LongTermDebt            float64 `parquet:"long_term_debt"`
	TotalLiabilities        float64 `parquet:"total_liabilities"`
	RetainedEarnings        float64 `parquet:"retained_earnings"`
	TotalStockholdersEq     float64 `parquet:"total_stockholders_equity"`
	TotalDebt               float64 `parquet:"total_debt"`
	NetDebt                 float64 `parquet:"net_debt"`
}

func (s BalanceSheetStmt) ObservedAt() time.Time { return FromMillis(s.Date) }

// CashFlowStmt is one reporting period of the cash flow statement.
type CashFlowStmt struct {
	Date                   int64   `parquet:"date"`
	Symbol                 string  `parquet:"symbol"`
	Period                 string  `parquet:"period"`
	NetIncome              float64 `parquet:"net_income"`
	DepreciationAmort      float64 `parquet:"depreciation_amortization"`
	StockBasedCompensation float64 `parquet:"stock_based_compensation"`
	ChangeInWorkingCap     float64 `parquet:"change_in_working_capital"`
	OperatingCashFlow      float64 `parquet:"operating_cash_flow"`
	CapitalExpenditure     float64 `parquet:"capital_expenditure"`
	AcquisitionsNet        float64 `parquet:"acquisitions_net"`
	InvestingCashFlow      float64 `parquet:"investing_cash_flow"`
	DebtRepayment          float64 `parquet:"debt_repayment"`
	DividendsPaid          float64 `parquet:"dividends_paid"`
	FinancingCashFlow      float64 `parquet:"financing_cash_flow"`
	FreeCashFlow           float64 `parquet:"free_cash_flow"`
}

func (s CashFlowStmt) ObservedAt() time.Time { return FromMillis(s.Date) }

// ProfileSnapshot is a company profile as observed on a given day.
// The profile endpoint has no history; Date is the fetch day so that
// re-fetches within the same day dedup to one row.
type ProfileSnapshot struct {
	Date        int64   `parquet:"date"`
	Symbol      string  `parquet:"symbol"`
	CompanyName string  `parquet:"company_name"`
	Exchange    string  `parquet:"exchange"`
	Currency    string  `parquet:"currency"`
	Sector      string  `parquet:"sector"`
	Industry    string  `parquet:"industry"`
	Country     string  `parquet:"country"`
	Website     string  `parquet:"website"`
	Price       float64 `parquet:"price"`
	Beta        float64 `parquet:"beta"`
	MarketCap   float64 `parquet:"market_cap"`
}

func (p ProfileSnapshot) ObservedAt() time.Time { return FromMillis(p.Date) }

// EarningsRecord is net income per reporting period, derived from the
// income statement.
type EarningsRecord struct {
	Date      int64   `parquet:"date"`
	Symbol    string  `parquet:"symbol"`
	NetIncome float64 `parquet:"net_income"`
}

func (e EarningsRecord) ObservedAt() time.Time { return FromMillis(e.Date) }
