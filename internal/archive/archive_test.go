package archive

import (
	"path/filepath"
	"testing"
	"time"

	"stockboard/pkg/marketapi"
)

func TestCandlePath(t *testing.T) {
	s := NewStore("/data")
	want := filepath.Join("/data", "candles", "AAPL", "2024.parquet")
	if got := s.candlePath("aapl", 2024); got != want {
		t.Errorf("candlePath = %s, want %s", got, want)
	}
	wantNews := filepath.Join("/data", "news", "2024-06-15.parquet")
	if got := s.newsPath(time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)); got != wantNews {
		t.Errorf("newsPath = %s, want %s", got, wantNews)
	}
}

func day(y int, m time.Month, d int) int64 {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix()
}

func TestWriteReadCandles(t *testing.T) {
	s := NewStore(t.TempDir())
	cs := &marketapi.Candles{
		S: "ok",
		T: []int64{day(2023, 12, 29), day(2024, 1, 2), day(2024, 1, 3)},
		O: []float64{1, 2, 3},
		H: []float64{1, 2, 3},
		L: []float64{1, 2, 3},
		C: []float64{10, 20, 30},
		V: []float64{100, 200, 300},
	}
	n, err := s.WriteCandles("aapl", cs)
	if err != nil {
		t.Fatalf("WriteCandles: %v", err)
	}
	if n != 3 {
		t.Errorf("stored = %d, want 3", n)
	}

	got, err := s.ReadCandles("AAPL", time.Unix(day(2023, 12, 1), 0), time.Unix(day(2024, 1, 2), 0))
	if err != nil {
		t.Fatalf("ReadCandles: %v", err)
	}
	if !got.OK() || got.Len() != 2 {
		t.Fatalf("ReadCandles = %+v, want 2 bars", got)
	}
	if got.T[0] != day(2023, 12, 29) || got.C[1] != 20 || got.V[1] != 200 {
		t.Errorf("bars = %+v", got)
	}

	symbols, err := s.ListSymbols()
	if err != nil || len(symbols) != 1 || symbols[0] != "AAPL" {
		t.Errorf("ListSymbols = %v, %v", symbols, err)
	}
}

func TestWriteCandlesMerges(t *testing.T) {
	s := NewStore(t.TempDir())
	first := &marketapi.Candles{S: "ok", T: []int64{day(2024, 3, 1), day(2024, 3, 4)}, O: []float64{1, 1}, H: []float64{1, 1}, L: []float64{1, 1}, C: []float64{1, 1}}
	second := &marketapi.Candles{S: "ok", T: []int64{day(2024, 3, 4), day(2024, 3, 5)}, O: []float64{2, 2}, H: []float64{2, 2}, L: []float64{2, 2}, C: []float64{2, 2}}
	if _, err := s.WriteCandles("MSFT", first); err != nil {
		t.Fatal(err)
	}
	n, err := s.WriteCandles("MSFT", second)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("stored = %d, want 3 after merge", n)
	}

	got, _ := s.ReadCandles("MSFT", time.Unix(day(2024, 1, 1), 0), time.Unix(day(2024, 12, 31), 0))
	if got.Len() != 3 {
		t.Fatalf("Len = %d, want 3 after merge", got.Len())
	}
	if got.C[1] != 2 {
		t.Errorf("overlapping bar close = %v, want the newer value 2", got.C[1])
	}
}

func TestReadCandlesNoData(t *testing.T) {
	s := NewStore(t.TempDir())
	got, err := s.ReadCandles("NONE", time.Now().Add(-time.Hour), time.Now())
	if err != nil {
		t.Fatalf("ReadCandles: %v", err)
	}
	if got.S != "no_data" || got.Len() != 0 {
		t.Errorf("got %+v, want no_data", got)
	}
	if n, err := s.WriteCandles("NONE", &marketapi.Candles{S: "no_data"}); n != 0 || err != nil {
		t.Errorf("WriteCandles(no_data) = %d, %v", n, err)
	}
}

func TestWriteReadNews(t *testing.T) {
	s := NewStore(t.TempDir())
	date := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	items := []marketapi.NewsItem{
		{Headline: "old", URL: "https://a", Datetime: 100},
		{Headline: "new", URL: "https://b", Datetime: 200},
		{Headline: "no url"},
	}
	n, err := s.WriteNews(date, items)
	if err != nil {
		t.Fatalf("WriteNews: %v", err)
	}
	if n != 2 {
		t.Errorf("stored = %d, want 2", n)
	}
	// Rewriting the same URL replaces it.
	n, err = s.WriteNews(date, []marketapi.NewsItem{{Headline: "old, updated", URL: "https://a", Datetime: 100}})
	if err != nil || n != 2 {
		t.Errorf("WriteNews(update) = %d, %v, want 2 stored", n, err)
	}

	got, err := s.ReadNews(date)
	if err != nil {
		t.Fatalf("ReadNews: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Headline != "new" || got[1].Headline != "old, updated" {
		t.Errorf("ReadNews = %+v", got)
	}

	missing, err := s.ReadNews(date.AddDate(0, 0, 1))
	if err != nil || len(missing) != 0 {
		t.Errorf("ReadNews(missing) = %v, %v", missing, err)
	}
}
