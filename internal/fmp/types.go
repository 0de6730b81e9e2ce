package fmp

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
)

// flexNumber tolerates the provider emitting numerics as JSON numbers,
// quoted strings, or null, all of which appear in the wild.
type flexNumber float64

func (f *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(bytes.TrimSpace(b), `"`)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return fmt.Errorf("parse number %q: %w", b, err)
	}
	*f = flexNumber(d.InexactFloat64())
	return nil
}

type dailyBarJSON struct {
	Date     string     `json:"date"`
	Open     flexNumber `json:"open"`
	High     flexNumber `json:"high"`
	Low      flexNumber `json:"low"`
	Close    flexNumber `json:"close"`
	AdjClose flexNumber `json:"adjClose"`
	Volume   flexNumber `json:"volume"`
}

type historicalPriceResponse struct {
	Symbol     string         `json:"symbol"`
	Historical []dailyBarJSON `json:"historical"`
}

type intradayBarJSON struct {
	Date   string     `json:"date"`
	Open   flexNumber `json:"open"`
	High   flexNumber `json:"high"`
	Low    flexNumber `json:"low"`
	Close  flexNumber `json:"close"`
	Volume flexNumber `json:"volume"`
}

type dividendJSON struct {
	Date            string     `json:"date"`
	Dividend        flexNumber `json:"dividend"`
	AdjDividend     flexNumber `json:"adjDividend"`
	RecordDate      string     `json:"recordDate"`
	PaymentDate     string     `json:"paymentDate"`
	DeclarationDate string     `json:"declarationDate"`
}

type dividendResponse struct {
	Symbol     string         `json:"symbol"`
	Historical []dividendJSON `json:"historical"`
}

type profileJSON struct {
	Symbol      string     `json:"symbol"`
	CompanyName string     `json:"companyName"`
	Exchange    string     `json:"exchangeShortName"`
	Currency    string     `json:"currency"`
	Sector      string     `json:"sector"`
	Industry    string     `json:"industry"`
	Country     string     `json:"country"`
	Website     string     `json:"website"`
	Price       flexNumber `json:"price"`
	Beta        flexNumber `json:"beta"`
	MktCap      flexNumber `json:"mktCap"`
}

type incomeStmtJSON struct {
	Date              string     `json:"date"`
	Symbol            string     `json:"symbol"`
	Period            string     `json:"period"`
	ReportedCurrency  string     `json:"reportedCurrency"`
	Revenue           flexNumber `json:"revenue"`
	CostOfRevenue     flexNumber `json:"costOfRevenue"`
	GrossProfit       flexNumber `json:"grossProfit"`
	OperatingExpenses flexNumber `json:"operatingExpenses"`
	OperatingIncome   flexNumber `json:"operatingIncome"`
	InterestExpense   flexNumber `json:"interestExpense"`
	IncomeBeforeTax   flexNumber `json:"incomeBeforeTax"`
	IncomeTaxExpense  flexNumber `json:"incomeTaxExpense"`
	NetIncome         flexNumber `json:"netIncome"`
	EPS               flexNumber `json:"eps"`
	EPSDiluted        flexNumber `json:"epsdiluted"`
	WeightedAvgShsOut flexNumber `json:"weightedAverageShsOut"`
}

type balanceSheetJSON struct {
	Date                    string     `json:"date"`
	Symbol                  string     `json:"symbol"`
	Period                  string     `json:"period"`
	ReportedCurrency        string     `json:"reportedCurrency"`
	CashAndCashEquivalents  flexNumber `json:"cashAndCashEquivalents"`
	ShortTermInvestments    flexNumber `json:"shortTermInvestments"`
	NetReceivables          flexNumber `json:"netReceivables"`
	Inventory               flexNumber `json:"inventory"`
	TotalCurrentAssets      flexNumber `json:"totalCurrentAssets"`
	TotalAssets             flexNumber `json:"totalAssets"`
	AccountPayables         flexNumber `json:"accountPayables"`
	ShortTermDebt           flexNumber `json:"shortTermDebt"`
	TotalCurrentLiabilities flexNumber `json:"totalCurrentLiabilities"`
	LongTermDebt            flexNumber `json:"longTermDebt"`
	TotalLiabilities        flexNumber `json:"totalLiabilities"`
	RetainedEarnings        flexNumber `json:"retainedEarnings"`
	TotalStockholdersEquity flexNumber `json:"totalStockholdersEquity"`
	TotalDebt               flexNumber `json:"totalDebt"`
	NetDebt                 flexNumber `json:"netDebt"`
}

type cashFlowJSON struct {
	Date                        string     `json:"date"`
	Symbol                      string     `json:"symbol"`
	Period                      string     `json:"period"`
	NetIncome                   flexNumber `json:"netIncome"`
	DepreciationAndAmortization flexNumber `json:"depreciationAndAmortization"`
	StockBasedCompensation      flexNumber `json:"stockBasedCompensation"`
	ChangeInWorkingCapital      flexNumber `json:"changeInWorkingCapital"`
	OperatingCashFlow           flexNumber `json:"operatingCashFlow"`
	CapitalExpenditure          flexNumber `json:"capitalExpenditure"`
	AcquisitionsNet             flexNumber `json:"acquisitionsNet"`
	InvestingCashFlow           flexNumber `json:"netCashUsedForInvestingActivites"`
	DebtRepayment               flexNumber `json:"debtRepayment"`
	DividendsPaid               flexNumber `json:"dividendsPaid"`
	FinancingCashFlow           flexNumber `json:"netCashUsedProvidedByFinancingActivities"`
	FreeCashFlow                flexNumber `json:"freeCashFlow"`
}
