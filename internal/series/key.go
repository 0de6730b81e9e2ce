package series

import (
	"fmt"
	"strings"
	"time"
)

// DataType tags one of the supported FMP dataset kinds.
type DataType string

const (
	OHLCV           DataType = "ohlcv"
	Intraday        DataType = "intraday"
	Dividends       DataType = "dividends"
	IncomeStatement DataType = "income_stmt"
	BalanceSheet    DataType = "balance_sheet"
	CashFlow        DataType = "cash_flow"
	Profile         DataType = "profile"
	Earnings        DataType = "earnings"
)

// DataTypes lists every supported data type in display order.
var DataTypes = []DataType{
	OHLCV, Intraday, Dividends, IncomeStatement, BalanceSheet, CashFlow, Profile, Earnings,
}

// ParseDataType validates a user-supplied data type string.
func ParseDataType(s string) (DataType, error) {
	d := DataType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range DataTypes {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown data type %q", s)
}

// Interval is an intraday bar width accepted by the provider.
type Interval string

const (
	Interval1Min  Interval = "1min"
	Interval5Min  Interval = "5min"
	Interval15Min Interval = "15min"
	Interval30Min Interval = "30min"
	Interval1Hour Interval = "1hour"
	Interval4Hour Interval = "4hour"
)

var intervals = map[Interval]time.Duration{
	Interval1Min:  time.Minute,
	Interval5Min:  5 * time.Minute,
	Interval15Min: 15 * time.Minute,
	Interval30Min: 30 * time.Minute,
	Interval1Hour: time.Hour,
	Interval4Hour: 4 * time.Hour,
}

// ParseInterval validates a user-supplied intraday interval.
func ParseInterval(s string) (Interval, error) {
	iv := Interval(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := intervals[iv]; !ok {
		return "", fmt.Errorf("unknown intraday interval %q", s)
	}
	return iv, nil
}

// Duration returns the bar width of the interval.
func (iv Interval) Duration() time.Duration {
	return intervals[iv]
}

// Key uniquely identifies one physical series partition.
// Interval is set only when Type is Intraday.
type Key struct {
	Ticker   string
	Type     DataType
	Interval Interval
}

// NewKey builds and validates a series key.
func NewKey(ticker string, dataType DataType, interval Interval) (Key, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return Key{}, fmt.Errorf("series key requires a ticker")
	}
	if _, err := ParseDataType(string(dataType)); err != nil {
		return Key{}, err
	}
	if dataType == Intraday {
		if interval == "" {
			return Key{}, fmt.Errorf("intraday series key requires an interval")
		}
		if _, err := ParseInterval(string(interval)); err != nil {
			return Key{}, err
		}
	} else if interval != "" {
		return Key{}, fmt.Errorf("interval is only valid for intraday series")
	}
	return Key{Ticker: ticker, Type: dataType, Interval: interval}, nil
}

// Slug returns the partition file stem, e.g. "ohlcv" or "intraday_5min".
func (k Key) Slug() string {
	if k.Type == Intraday && k.Interval != "" {
		return string(k.Type) + "_" + string(k.Interval)
	}
	return string(k.Type)
}

// String renders the key as "TICKER/slug".
func (k Key) String() string {
	return k.Ticker + "/" + k.Slug()
}

// Window bounds a range read or fetch. Zero From or To means unbounded
// on that side. Bounds are inclusive.
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && t.After(w.To) {
		return false
	}
	return true
}

// IsZero reports whether the window is unbounded on both sides.
func (w Window) IsZero() bool {
	return w.From.IsZero() && w.To.IsZero()
}
