package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"

	"fmp-archiver/internal/series"
)

const partitionExt = ".parquet"

// Store owns the on-disk series partitions. Layout:
// <root>/<TICKER>/<slug>.parquet, one file per series key.
type Store struct {
	root   string
	logger zerolog.Logger
}

// New opens (creating if needed) a store rooted at dir.
func New(root string, logger zerolog.Logger) (*Store, error) {
	if root == "" {
		return nil, errors.New("store: data directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{
		root:   root,
		logger: logger.With().Str("component", "store").Logger(),
	}, nil
}

// Root returns the data directory.
func (s *Store) Root() string { return s.root }

// Path returns the partition file for a key.
func (s *Store) Path(key series.Key) string {
	return filepath.Join(s.root, key.Ticker, key.Slug()+partitionExt)
}

// Exists reports whether a partition exists for the key.
func (s *Store) Exists(key series.Key) bool {
	_, err := os.Stat(s.Path(key))
	return err == nil
}

// Read loads a partition, optionally filtered to a window (bounds
// inclusive). A missing partition yields an empty dataset.
func Read[T series.Record](s *Store, key series.Key, w series.Window) ([]T, error) {
	path := s.Path(key)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat partition %s: %w", key, err)
	}

	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("read partition %s: %w", key, err)
	}
	return series.Filter(rows, w), nil
}

// Write atomically replaces the partition for a key. The dataset is
// verified strictly ordered first and written to a temporary file in
// the same directory, then renamed over the old version, so a reader
// never observes a half-written partition and a crash mid-write leaves
// the prior version intact.
func Write[T series.Record](s *Store, key series.Key, rows []T) error {
	if err := series.Verify(rows); err != nil {
		return fmt.Errorf("refusing to write %s: %w", key, err)
	}

	path := s.Path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create partition directory: %w", err)
	}

	tmp := fmt.Sprintf("%s.tmp.%d", path, time.Now().UnixNano())
	if err := parquet.WriteFile(tmp, rows); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write partition %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace partition %s: %w", key, err)
	}

	s.logger.Debug().Str("series", key.String()).Int("rows", len(rows)).Msg("partition written")
	return nil
}

// Meta summarises a partition without loading the full dataset: only
// the shared timestamp column is materialised.
type Meta struct {
	Key   series.Key
	Rows  int
	First time.Time
	Last  time.Time
}

// tsRow projects the timestamp column common to every schema.
type tsRow struct {
	Date int64 `parquet:"date"`
}

func (r tsRow) ObservedAt() time.Time { return series.FromMillis(r.Date) }

// Stat returns partition metadata for a key.
func (s *Store) Stat(key series.Key) (Meta, error) {
	rows, err := Read[tsRow](s, key, series.Window{})
	if err != nil {
		return Meta{}, err
	}
	meta := Meta{Key: key, Rows: len(rows)}
	if len(rows) > 0 {
		meta.First = rows[0].ObservedAt()
		meta.Last = rows[len(rows)-1].ObservedAt()
	}
	return meta, nil
}

// ListTickers returns every ticker with at least one partition.
func (s *Store) ListTickers() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("scan data directory: %w", err)
	}
	tickers := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			tickers = append(tickers, e.Name())
		}
	}
	sort.Strings(tickers)
	return tickers, nil
}

// ListKeys returns every series key present in the store.
func (s *Store) ListKeys() ([]series.Key, error) {
	tickers, err := s.ListTickers()
	if err != nil {
		return nil, err
	}

	var keys []series.Key
	for _, ticker := range tickers {
		entries, err := os.ReadDir(filepath.Join(s.root, ticker))
		if err != nil {
			return nil, fmt.Errorf("scan ticker directory %s: %w", ticker, err)
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !strings.HasSuffix(name, partitionExt) {
				continue
			}
			key, ok := parseSlug(ticker, strings.TrimSuffix(name, partitionExt))
			if !ok {
				continue
			}
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// parseSlug inverts Key.Slug. Unknown slugs (stray files) are skipped.
func parseSlug(ticker, slug string) (series.Key, bool) {
	if rest, found := strings.CutPrefix(slug, string(series.Intraday)+"_"); found {
		key, err := series.NewKey(ticker, series.Intraday, series.Interval(rest))
		if err != nil {
			return series.Key{}, false
		}
		return key, true
	}
	key, err := series.NewKey(ticker, series.DataType(slug), "")
	if err != nil {
		return series.Key{}, false
	}
	return key, true
}

// DataTypesFor lists the data types stored for one ticker.
func (s *Store) DataTypesFor(ticker string) ([]series.Key, error) {
	keys, err := s.ListKeys()
	if err != nil {
		return nil, err
	}
	ticker = strings.ToUpper(ticker)
	out := keys[:0]
	for _, k := range keys {
		if k.Ticker == ticker {
			out = append(out, k)
		}
	}
	return out, nil
}
