package series

import (
	"errors"
	"testing"
	"time"
)

func day(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("bad test date %q: %v", value, err)
	}
	return parsed
}

func bar(t *testing.T, date string, close float64) Bar {
	t.Helper()
	return Bar{Date: Millis(day(t, date)), Close: close}
}

func TestMergeRevisionAndAppend(t *testing.T) {
	existing := []Bar{
		bar(t, "2023-01-01", 100),
		bar(t, "2023-01-02", 101),
		bar(t, "2023-01-03", 102),
		bar(t, "2023-01-04", 103),
		bar(t, "2023-01-05", 104),
	}
	incoming := []Bar{
		bar(t, "2023-01-03", 250), // provider restatement
		bar(t, "2023-01-06", 105),
		bar(t, "2023-01-07", 106),
	}

	merged, err := Merge(existing, incoming)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if len(merged) != 7 {
		t.Fatalf("expected 7 records, got %d", len(merged))
	}

	closes := map[string]float64{
		"2023-01-01": 100, "2023-01-02": 101, "2023-01-03": 250,
		"2023-01-04": 103, "2023-01-05": 104, "2023-01-06": 105, "2023-01-07": 106,
	}
	for _, b := range merged {
		want := closes[b.ObservedAt().Format("2006-01-02")]
		if b.Close != want {
			t.Errorf("close at %s = %v, want %v", b.ObservedAt(), b.Close, want)
		}
	}
	if err := Verify(merged); err != nil {
		t.Fatalf("merged dataset not strictly ordered: %v", err)
	}
}

func TestMergeIdempotent(t *testing.T) {
	existing := []Bar{bar(t, "2023-01-01", 1), bar(t, "2023-01-02", 2)}
	incoming := []Bar{bar(t, "2023-01-02", 20), bar(t, "2023-01-03", 3)}

	once, err := Merge(existing, incoming)
	if err != nil {
		t.Fatalf("first merge failed: %v", err)
	}
	twice, err := Merge(once, incoming)
	if err != nil {
		t.Fatalf("second merge failed: %v", err)
	}

	if len(once) != len(twice) {
		t.Fatalf("idempotence broken: %d vs %d records", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("record %d differs after re-merge: %+v vs %+v", i, once[i], twice[i])
		}
	}
}

func TestMergeEmptySides(t *testing.T) {
	incoming := []Bar{bar(t, "2023-01-02", 2), bar(t, "2023-01-01", 1)}

	merged, err := Merge(nil, incoming)
	if err != nil {
		t.Fatalf("merge into empty failed: %v", err)
	}
	if len(merged) != 2 || merged[0].Close != 1 {
		t.Fatalf("merge should sort incoming records: %+v", merged)
	}

	merged, err = Merge(incoming, nil)
	if err != nil {
		t.Fatalf("merge of empty batch failed: %v", err)
	}
	if len(merged) != 2 {
		t.Fatalf("expected 2 records, got %d", len(merged))
	}
}

func TestVerifyRejectsDuplicates(t *testing.T) {
	rows := []Bar{bar(t, "2023-01-01", 1), bar(t, "2023-01-01", 2)}
	err := Verify(rows)
	if err == nil {
		t.Fatal("duplicate timestamps should fail verification")
	}
	var inv *InvariantError
	if !errors.As(err, &inv) {
		t.Fatalf("expected InvariantError, got %T", err)
	}
	if inv.Index != 1 {
		t.Fatalf("violation index = %d, want 1", inv.Index)
	}
}

func TestFilterInclusiveBounds(t *testing.T) {
	rows := []Bar{
		bar(t, "2023-01-01", 1),
		bar(t, "2023-01-02", 2),
		bar(t, "2023-01-03", 3),
		bar(t, "2023-01-04", 4),
	}

	got := Filter(rows, Window{From: day(t, "2023-01-02"), To: day(t, "2023-01-03")})
	if len(got) != 2 || got[0].Close != 2 || got[1].Close != 3 {
		t.Fatalf("inclusive range filter wrong: %+v", got)
	}

	if got := Filter(rows, Window{From: day(t, "2023-02-01"), To: day(t, "2023-02-02")}); len(got) != 0 {
		t.Fatalf("empty range should return no rows, got %d", len(got))
	}

	if got := Filter(rows, Window{}); len(got) != len(rows) {
		t.Fatalf("unbounded window should return all rows, got %d", len(got))
	}

	got = Filter(rows, Window{From: day(t, "2023-01-03")})
	if len(got) != 2 {
		t.Fatalf("open-ended window wrong: %+v", got)
	}
}

func TestKeyValidation(t *testing.T) {
	if _, err := NewKey("aapl", OHLCV, ""); err != nil {
		t.Fatalf("valid key rejected: %v", err)
	}
	key, err := NewKey(" aapl ", Intraday, Interval5Min)
	if err != nil {
		t.Fatalf("valid intraday key rejected: %v", err)
	}
	if key.Ticker != "AAPL" {
		t.Fatalf("ticker should be upper-cased, got %q", key.Ticker)
	}
	if key.Slug() != "intraday_5min" {
		t.Fatalf("slug = %q", key.Slug())
	}
	if key.String() != "AAPL/intraday_5min" {
		t.Fatalf("string = %q", key.String())
	}

	if _, err := NewKey("", OHLCV, ""); err == nil {
		t.Fatal("empty ticker should be rejected")
	}
	if _, err := NewKey("AAPL", Intraday, ""); err == nil {
		t.Fatal("intraday without interval should be rejected")
	}
	if _, err := NewKey("AAPL", OHLCV, Interval5Min); err == nil {
		t.Fatal("interval on non-intraday key should be rejected")
	}
	if _, err := NewKey("AAPL", DataType("bogus"), ""); err == nil {
		t.Fatal("unknown data type should be rejected")
	}
}
