package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"fmp-archiver/internal/config"
	"fmp-archiver/internal/series"
)

func newTestApp() *App {
	cfg := &config.Config{}
	cfg.Fetch.Period = "annual"
	cfg.Fetch.Years = 10
	cfg.Fetch.IntradayInterval = "1hour"
	return NewApp(cfg, zerolog.Nop())
}

func TestResolveTickersPrecedence(t *testing.T) {
	a := newTestApp()
	a.Config.Fetch.Tickers = []string{"spy"}

	tickers, err := a.resolveTickers(FetchOptions{Tickers: []string{"aapl", "AAPL", " msft "}})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(tickers) != 2 || tickers[0] != "AAPL" || tickers[1] != "MSFT" {
		t.Fatalf("args should win, deduped and upper-cased: %v", tickers)
	}

	tickers, err = a.resolveTickers(FetchOptions{})
	if err != nil {
		t.Fatalf("resolve from config: %v", err)
	}
	if len(tickers) != 1 || tickers[0] != "SPY" {
		t.Fatalf("config fallback: %v", tickers)
	}

	a.Config.Fetch.Tickers = nil
	if _, err := a.resolveTickers(FetchOptions{}); err == nil {
		t.Fatal("no tickers anywhere should be an error")
	}
}

func TestReadTickerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickers.txt")
	body := "# watchlist\nAAPL\n\nMSFT\n# end\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write ticker file: %v", err)
	}

	tickers, err := readTickerFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(tickers) != 2 || tickers[0] != "AAPL" || tickers[1] != "MSFT" {
		t.Fatalf("tickers = %v", tickers)
	}
}

func TestBuildRequestsDefaults(t *testing.T) {
	a := newTestApp()

	requests, err := a.buildRequests([]string{"AAPL"}, FetchOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(requests) != len(defaultDataTypes) {
		t.Fatalf("expected one request per default data type, got %d", len(requests))
	}
	for _, req := range requests {
		if req.Key.Type == series.Intraday {
			t.Fatal("intraday must be opt-in")
		}
		if req.Period != "annual" || req.Limit != 10 {
			t.Fatalf("statement params: %+v", req)
		}
	}
}

func TestBuildRequestsQuarterLimit(t *testing.T) {
	a := newTestApp()

	requests, err := a.buildRequests([]string{"AAPL"}, FetchOptions{
		DataTypes: []string{"income_stmt"},
		Period:    "quarter",
		Years:     3,
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(requests) != 1 || requests[0].Limit != 12 {
		t.Fatalf("quarter limit should be years*4: %+v", requests)
	}
}

func TestBuildRequestsCrypto(t *testing.T) {
	a := newTestApp()

	requests, err := a.buildRequests([]string{"BTCUSD"}, FetchOptions{Crypto: true})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(requests) != 1 || requests[0].Key.Type != series.OHLCV || !requests[0].Crypto {
		t.Fatalf("crypto should request daily history only: %+v", requests)
	}
}

func TestBuildRequestsLeavesDefaultsIntact(t *testing.T) {
	a := newTestApp()

	want := make([]series.DataType, len(defaultDataTypes))
	copy(want, defaultDataTypes)

	if _, err := a.buildRequests([]string{"AAPL"}, FetchOptions{
		DataTypes:        []string{"intraday", "dividends"},
		IntradayInterval: "5min",
	}); err != nil {
		t.Fatalf("build: %v", err)
	}

	for i, dt := range defaultDataTypes {
		if dt != want[i] {
			t.Fatalf("explicit --data-type mutated the default set: %v", defaultDataTypes)
		}
	}

	requests, err := a.buildRequests([]string{"AAPL"}, FetchOptions{})
	if err != nil {
		t.Fatalf("build with defaults: %v", err)
	}
	if len(requests) != len(want) {
		t.Fatalf("default request count changed after explicit call: %d", len(requests))
	}
	for _, req := range requests {
		if req.Key.Type == series.Intraday {
			t.Fatalf("default set picked up intraday from the earlier call: %+v", req.Key)
		}
	}
}

func TestBuildRequestsRejectsEarnings(t *testing.T) {
	a := newTestApp()

	if _, err := a.buildRequests([]string{"AAPL"}, FetchOptions{DataTypes: []string{"earnings"}}); err == nil {
		t.Fatal("earnings are derived and must not be requested directly")
	}
}

func TestBuildRequestsIntradayInterval(t *testing.T) {
	a := newTestApp()
	from := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC)

	requests, err := a.buildRequests([]string{"AAPL"}, FetchOptions{
		DataTypes:        []string{"intraday"},
		IntradayInterval: "5min",
		From:             &from,
		To:               &to,
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	req := requests[0]
	if req.Key.Interval != series.Interval5Min {
		t.Fatalf("interval = %q", req.Key.Interval)
	}
	if !req.Window.From.Equal(from) || !req.Window.To.Equal(to) {
		t.Fatalf("window = %+v", req.Window)
	}
}
