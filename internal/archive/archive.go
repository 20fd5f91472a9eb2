// Package archive keeps daily candles and news headlines on local disk as
// Parquet files so charts and news survive backend outages.
package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"stockboard/pkg/marketapi"
)

// Store reads and writes the archive rooted at DataDir.
type Store struct {
	DataDir string
}

// NewStore creates a new Store rooted at the given data directory.
func NewStore(dataDir string) *Store {
	return &Store{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// CandleRecord is the Parquet schema for a daily candle.
type CandleRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

// NewsRecord is the Parquet schema for a news headline.
type NewsRecord struct {
	URL      string `parquet:"url"`
	Headline string `parquet:"headline"`
	Source   string `parquet:"source"`
	Summary  string `parquet:"summary"`
	Datetime int64  `parquet:"datetime"` // Unix seconds
}

// ---------------------------------------------------------------------------
// Candles
// ---------------------------------------------------------------------------

// WriteCandles merges a candle series into per-year files at:
//
//	<DataDir>/candles/<SYMBOL>/<YYYY>.parquet
//
// Bars with an existing timestamp replace the stored bar. It returns the
// number of bars stored in the touched files after the merge.
func (s *Store) WriteCandles(symbol string, c *marketapi.Candles) (int, error) {
	if !c.OK() || c.Len() == 0 {
		return 0, nil
	}
	symbol = strings.ToUpper(symbol)

	groups := make(map[int][]CandleRecord)
	for i := 0; i < c.Len(); i++ {
		ts := time.Unix(c.T[i], 0).UTC()
		r := CandleRecord{
			Symbol:    symbol,
			Timestamp: ts.UnixMilli(),
			Open:      c.O[i],
			High:      c.H[i],
			Low:       c.L[i],
			Close:     c.C[i],
		}
		if i < len(c.V) {
			r.Volume = c.V[i]
		}
		groups[ts.Year()] = append(groups[ts.Year()], r)
	}

	n := 0
	for year, records := range groups {
		path := s.candlePath(symbol, year)

		// Read existing records to merge.
		existing, _ := readParquetFile[CandleRecord](path)
		merged := mergeCandleRecords(existing, records)

		if err := writeParquetFile(path, merged); err != nil {
			return n, fmt.Errorf("writing candles for %s/%d: %w", symbol, year, err)
		}
		n += len(merged)
	}
	return n, nil
}

// ReadCandles returns archived bars for symbol within [from, to] as a
// backend-shaped series. Status is "no_data" when nothing is archived.
func (s *Store) ReadCandles(symbol string, from, to time.Time) (*marketapi.Candles, error) {
	symbol = strings.ToUpper(symbol)
	out := &marketapi.Candles{S: marketapi.CandleStatusNoData}

	var records []CandleRecord
	for year := from.UTC().Year(); year <= to.UTC().Year(); year++ {
		rows, err := readParquetFile[CandleRecord](s.candlePath(symbol, year))
		if err != nil {
			// File doesn't exist for this year; skip.
			continue
		}
		records = append(records, rows...)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp < records[j].Timestamp
	})

	lo, hi := from.UnixMilli(), to.UnixMilli()
	for _, r := range records {
		if r.Timestamp < lo || r.Timestamp > hi {
			continue
		}
		out.T = append(out.T, r.Timestamp/1000)
		out.O = append(out.O, r.Open)
		out.H = append(out.H, r.High)
		out.L = append(out.L, r.Low)
		out.C = append(out.C, r.Close)
		out.V = append(out.V, r.Volume)
	}
	if len(out.T) > 0 {
		out.S = marketapi.CandleStatusOK
	}
	return out, nil
}

// ListSymbols lists all symbols that have archived candles.
func (s *Store) ListSymbols() ([]string, error) {
	dir := filepath.Join(s.DataDir, "candles")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading candles dir: %w", err)
	}
	var symbols []string
	for _, e := range entries {
		if e.IsDir() {
			symbols = append(symbols, e.Name())
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

// ---------------------------------------------------------------------------
// News
// ---------------------------------------------------------------------------

// WriteNews merges items into <DataDir>/news/<YYYY-MM-DD>.parquet, keyed by
// URL. Items without a URL are skipped. It returns the number of items in
// the file after the merge.
func (s *Store) WriteNews(date time.Time, items []marketapi.NewsItem) (int, error) {
	records := make([]NewsRecord, 0, len(items))
	for _, it := range items {
		if it.URL == "" {
			continue
		}
		records = append(records, NewsRecord{
			URL:      it.URL,
			Headline: it.Headline,
			Source:   it.Source,
			Summary:  it.Summary,
			Datetime: it.Datetime,
		})
	}
	if len(records) == 0 {
		return 0, nil
	}

	path := s.newsPath(date)
	existing, _ := readParquetFile[NewsRecord](path)
	merged := mergeNewsRecords(existing, records)
	if err := writeParquetFile(path, merged); err != nil {
		return 0, fmt.Errorf("writing news for %s: %w", date.Format("2006-01-02"), err)
	}
	return len(merged), nil
}

// ReadNews returns the archived items for date, newest first.
func (s *Store) ReadNews(date time.Time) ([]marketapi.NewsItem, error) {
	records, err := readParquetFile[NewsRecord](s.newsPath(date))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading news for %s: %w", date.Format("2006-01-02"), err)
	}
	items := make([]marketapi.NewsItem, len(records))
	for i, r := range records {
		items[i] = marketapi.NewsItem{
			Headline: r.Headline,
			Source:   r.Source,
			URL:      r.URL,
			Datetime: r.Datetime,
			Summary:  r.Summary,
		}
	}
	return items, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *Store) candlePath(symbol string, year int) string {
	return filepath.Join(s.DataDir, "candles", strings.ToUpper(symbol), fmt.Sprintf("%d.parquet", year))
}

func (s *Store) newsPath(date time.Time) string {
	return filepath.Join(s.DataDir, "news", date.Format("2006-01-02")+".parquet")
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func mergeCandleRecords(existing, incoming []CandleRecord) []CandleRecord {
	seen := make(map[int64]CandleRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Timestamp] = r
	}
	for _, r := range incoming {
		seen[r.Timestamp] = r
	}

	merged := make([]CandleRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}

func mergeNewsRecords(existing, incoming []NewsRecord) []NewsRecord {
	seen := make(map[string]NewsRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.URL] = r
	}
	for _, r := range incoming {
		seen[r.URL] = r
	}

	merged := make([]NewsRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Datetime != merged[j].Datetime {
			return merged[i].Datetime > merged[j].Datetime
		}
		return merged[i].URL < merged[j].URL
	})
	return merged
}
