package app

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"fmp-archiver/internal/series"
)

// table is a rendered dataset, shared between the tabwriter and CSV
// output paths.
type table struct {
	header []string
	rows   [][]string
}

func (t table) print() {
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, strings.Join(t.header, "\t"))
	for _, row := range t.rows {
		fmt.Fprintln(writer, strings.Join(row, "\t"))
	}
	writer.Flush()
}

func (t table) writeCSV(path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(t.header); err != nil {
		return err
	}
	for _, row := range t.rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	return writer.Error()
}

func dayString(ms int64) string {
	return series.FromMillis(ms).Format("2006-01-02")
}

func optDayString(ms int64) string {
	if ms == 0 {
		return ""
	}
	return dayString(ms)
}

func timeString(ms int64) string {
	return series.FromMillis(ms).Format("2006-01-02 15:04")
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func count(v int64) string {
	return strconv.FormatInt(v, 10)
}

func barTable(bars []series.Bar) table {
	t := table{header: []string{"Date", "Open", "High", "Low", "Close", "AdjClose", "Volume"}}
	for _, b := range bars {
		t.rows = append(t.rows, []string{
			dayString(b.Date), money(b.Open), money(b.High), money(b.Low),
			money(b.Close), money(b.AdjClose), count(b.Volume),
		})
	}
	return t
}

func intradayTable(bars []series.IntradayBar) table {
	t := table{header: []string{"Time (UTC)", "Open", "High", "Low", "Close", "Volume"}}
	for _, b := range bars {
		t.rows = append(t.rows, []string{
			timeString(b.Date), money(b.Open), money(b.High), money(b.Low),
			money(b.Close), count(b.Volume),
		})
	}
	return t
}

func dividendTable(divs []series.Dividend) table {
	t := table{header: []string{"ExDate", "Dividend", "AdjDividend", "RecordDate", "PaymentDate", "DeclarationDate"}}
	for _, d := range divs {
		t.rows = append(t.rows, []string{
			dayString(d.Date), money(d.Dividend), money(d.AdjDividend),
			optDayString(d.RecordDate), optDayString(d.PaymentDate), optDayString(d.DeclarationDate),
		})
	}
	return t
}

func incomeTable(stmts []series.IncomeStmt) table {
	t := table{header: []string{"Date", "Period", "Revenue", "GrossProfit", "OperatingIncome", "NetIncome", "EPS"}}
	for _, s := range stmts {
		t.rows = append(t.rows, []string{
			dayString(s.Date), s.Period, money(s.Revenue), money(s.GrossProfit),
			money(s.OperatingIncome), money(s.NetIncome), money(s.EPS),
		})
	}
	return t
}

func balanceSheetTable(stmts []series.BalanceSheetStmt) table {
	t := table{header: []string{"Date", "Period", "TotalAssets", "TotalLiabilities", "Equity", "TotalDebt", "NetDebt"}}
	for _, s := range stmts {
		t.rows = append(t.rows, []string{
			dayString(s.Date), s.Period, money(s.TotalAssets), money(s.TotalLiabilities),
			money(s.TotalStockholdersEq), money(s.TotalDebt), money(s.NetDebt),
		})
	}
	return t
}

func cashFlowTable(stmts []series.CashFlowStmt) table {
	t := table{header: []string{"Date", "Period", "OperatingCF", "CapEx", "FreeCF", "DividendsPaid"}}
	for _, s := range stmts {
		t.rows = append(t.rows, []string{
			dayString(s.Date), s.Period, money(s.OperatingCashFlow), money(s.CapitalExpenditure),
			money(s.FreeCashFlow), money(s.DividendsPaid),
		})
	}
	return t
}

func profileTable(snaps []series.ProfileSnapshot) table {
	t := table{header: []string{"Date", "Name", "Exchange", "Sector", "Industry", "Country", "Price", "MarketCap"}}
	for _, p := range snaps {
		t.rows = append(t.rows, []string{
			dayString(p.Date), p.CompanyName, p.Exchange, p.Sector,
			p.Industry, p.Country, money(p.Price), money(p.MarketCap),
		})
	}
	return t
}

func earningsTable(recs []series.EarningsRecord) table {
	t := table{header: []string{"Date", "Symbol", "NetIncome"}}
	for _, e := range recs {
		t.rows = append(t.rows, []string{dayString(e.Date), e.Symbol, money(e.NetIncome)})
	}
	return t
}

func metaTable(metas []metaRow) table {
	t := table{header: []string{"Series", "Rows", "First", "Last"}}
	for _, m := range metas {
		first, last := "", ""
		if m.Rows > 0 {
			first = m.First.Format("2006-01-02")
			last = m.Last.Format("2006-01-02")
		}
		t.rows = append(t.rows, []string{m.Series, strconv.Itoa(m.Rows), first, last})
	}
	return t
}

type metaRow struct {
	Series string
	Rows   int
	First  time.Time
	Last   time.Time
}
