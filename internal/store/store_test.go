package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"fmp-archiver/internal/series"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s
}

func mustKey(t *testing.T, ticker string, dt series.DataType, iv series.Interval) series.Key {
	t.Helper()
	key, err := series.NewKey(ticker, dt, iv)
	if err != nil {
		t.Fatalf("build key: %v", err)
	}
	return key
}

func testBars(t *testing.T, dates ...string) []series.Bar {
	t.Helper()
	bars := make([]series.Bar, 0, len(dates))
	for i, d := range dates {
		day, err := time.Parse("2006-01-02", d)
		if err != nil {
			t.Fatalf("bad test date %q: %v", d, err)
		}
		bars = append(bars, series.Bar{Date: series.Millis(day), Close: float64(100 + i)})
	}
	return bars
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	key := mustKey(t, "AAPL", series.OHLCV, "")
	bars := testBars(t, "2023-01-01", "2023-01-02", "2023-01-03")

	if err := Write(s, key, bars); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := Read[series.Bar](s, key, series.Window{})
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}
	for i := range bars {
		if got[i] != bars[i] {
			t.Errorf("row %d round-trip mismatch: %+v vs %+v", i, got[i], bars[i])
		}
	}
}

func TestReadMissingPartition(t *testing.T) {
	s := newTestStore(t)
	key := mustKey(t, "MISSING", series.OHLCV, "")

	got, err := Read[series.Bar](s, key, series.Window{})
	if err != nil {
		t.Fatalf("missing partition should not error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("missing partition should read empty, got %d rows", len(got))
	}
}

func TestRangeRead(t *testing.T) {
	s := newTestStore(t)
	key := mustKey(t, "AAPL", series.OHLCV, "")
	if err := Write(s, key, testBars(t, "2023-01-01", "2023-01-02", "2023-01-03", "2023-01-04")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	w := series.Window{
		From: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC),
	}
	got, err := Read[series.Bar](s, key, w)
	if err != nil {
		t.Fatalf("range read failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("inclusive range should return 2 rows, got %d", len(got))
	}

	empty := series.Window{
		From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	got, err = Read[series.Bar](s, key, empty)
	if err != nil {
		t.Fatalf("empty range read failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("empty range should return no rows, got %d", len(got))
	}
}

func TestWriteReplacesAtomically(t *testing.T) {
	s := newTestStore(t)
	key := mustKey(t, "AAPL", series.OHLCV, "")

	v1 := testBars(t, "2023-01-01", "2023-01-02")
	if err := Write(s, key, v1); err != nil {
		t.Fatalf("write v1 failed: %v", err)
	}

	// Simulate a crash after the temporary write but before the
	// rename: a stray temp file next to the partition.
	stray := s.Path(key) + ".tmp.12345"
	if err := os.WriteFile(stray, []byte("partial garbage"), 0o644); err != nil {
		t.Fatalf("plant stray temp file: %v", err)
	}

	got, err := Read[series.Bar](s, key, series.Window{})
	if err != nil {
		t.Fatalf("read after simulated crash failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("prior version should be intact, got %d rows", len(got))
	}

	v2 := testBars(t, "2023-01-01", "2023-01-02", "2023-01-03")
	if err := Write(s, key, v2); err != nil {
		t.Fatalf("write v2 failed: %v", err)
	}
	got, err = Read[series.Bar](s, key, series.Window{})
	if err != nil {
		t.Fatalf("read v2 failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("replace should yield 3 rows, got %d", len(got))
	}
}

func TestWriteRejectsUnsortedDataset(t *testing.T) {
	s := newTestStore(t)
	key := mustKey(t, "AAPL", series.OHLCV, "")

	bars := testBars(t, "2023-01-02", "2023-01-01")
	err := Write(s, key, bars)
	if err == nil {
		t.Fatal("unsorted dataset must be refused")
	}
	var inv *series.InvariantError
	if !errors.As(err, &inv) {
		t.Fatalf("expected InvariantError, got %v", err)
	}
	if s.Exists(key) {
		t.Fatal("refused write must not create a partition")
	}
}

func TestStatAndListKeys(t *testing.T) {
	s := newTestStore(t)

	ohlcv := mustKey(t, "AAPL", series.OHLCV, "")
	intraday := mustKey(t, "AAPL", series.Intraday, series.Interval5Min)
	msft := mustKey(t, "MSFT", series.OHLCV, "")

	if err := Write(s, ohlcv, testBars(t, "2023-01-01", "2023-01-05")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := Write(s, msft, testBars(t, "2023-02-01")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	intradayBars := []series.IntradayBar{
		{Date: series.Millis(time.Date(2023, 1, 3, 9, 30, 0, 0, time.UTC)), Close: 130},
		{Date: series.Millis(time.Date(2023, 1, 3, 9, 35, 0, 0, time.UTC)), Close: 131},
	}
	if err := Write(s, intraday, intradayBars); err != nil {
		t.Fatalf("write intraday failed: %v", err)
	}

	// Stray files must not surface as keys.
	if err := os.WriteFile(filepath.Join(s.Root(), "AAPL", "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("plant stray file: %v", err)
	}

	keys, err := s.ListKeys()
	if err != nil {
		t.Fatalf("list keys failed: %v", err)
	}
	if len(keys) != 3 {
		t.Fatalf("expected 3 keys, got %d: %v", len(keys), keys)
	}

	tickers, err := s.ListTickers()
	if err != nil {
		t.Fatalf("list tickers failed: %v", err)
	}
	if len(tickers) != 2 || tickers[0] != "AAPL" || tickers[1] != "MSFT" {
		t.Fatalf("tickers = %v", tickers)
	}

	meta, err := s.Stat(ohlcv)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if meta.Rows != 2 {
		t.Fatalf("stat rows = %d, want 2", meta.Rows)
	}
	if meta.First.Format("2006-01-02") != "2023-01-01" || meta.Last.Format("2006-01-02") != "2023-01-05" {
		t.Fatalf("stat range wrong: %v .. %v", meta.First, meta.Last)
	}

	aapl, err := s.DataTypesFor("aapl")
	if err != nil {
		t.Fatalf("data types failed: %v", err)
	}
	if len(aapl) != 2 {
		t.Fatalf("expected 2 AAPL keys, got %d", len(aapl))
	}
}
