package dashboard

import (
	"sort"
	"strings"

	"stockboard/internal/format"
	"stockboard/pkg/marketapi"
)

// MaxWatchlistSearchResults caps the add-to-watchlist search list.
const MaxWatchlistSearchResults = 10

// Option is a value/label pair for a select box.
type Option struct {
	Value string
	Label string
}

// SearchTypes are the type filters offered on the search page.
var SearchTypes = []Option{
	{"all", "All Types"},
	{"common stock", "Common Stock"},
	{"etf", "ETF"},
	{"adr", "ADR"},
	{"preferred", "Preferred"},
}

// SearchRegions are the region filters offered on the search page. Any
// other value is treated as an exchange suffix.
var SearchRegions = []Option{
	{"all", "All Regions"},
	{"us", "US Stocks"},
	{"india", "India (.NS/.BO)"},
	{"l", "London (.L)"},
	{"t", "Tokyo (.T)"},
	{"hk", "Hong Kong (.HK)"},
}

// FilterSearch narrows search results by security type and region.
// Empty or "all" disables a filter.
func FilterSearch(results []marketapi.SearchResult, typ, region string) []marketapi.SearchResult {
	typ = strings.ToLower(strings.TrimSpace(typ))
	region = strings.ToLower(strings.TrimSpace(region))

	out := make([]marketapi.SearchResult, 0, len(results))
	for _, r := range results {
		if typ != "" && typ != "all" {
			if r.Type == "" || !strings.Contains(strings.ToLower(r.Type), typ) {
				continue
			}
		}
		if region != "" && region != "all" && !inRegion(r.Symbol, region) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func inRegion(symbol, region string) bool {
	switch region {
	case "us":
		return !strings.Contains(symbol, ".") || strings.Contains(symbol, ".US")
	case "india":
		return strings.Contains(symbol, ".NS") || strings.Contains(symbol, ".BO")
	default:
		return strings.Contains(symbol, "."+strings.ToUpper(region))
	}
}

// WatchlistRow is a watchlist symbol with its latest quote. Loaded is false
// when the quote call failed.
type WatchlistRow struct {
	Symbol        string
	Loaded        bool
	Price         float64
	Change        float64
	ChangePercent float64
	High          float64
	Low           float64
	Open          float64
	PrevClose     float64
}

// NewWatchlistRow maps a quote into a row; q may be nil.
func NewWatchlistRow(symbol string, q *marketapi.Quote) WatchlistRow {
	if q == nil {
		return WatchlistRow{Symbol: symbol}
	}
	return WatchlistRow{
		Symbol:        symbol,
		Loaded:        true,
		Price:         q.C,
		Change:        q.D,
		ChangePercent: q.DP,
		High:          q.H,
		Low:           q.L,
		Open:          q.O,
		PrevClose:     q.PC,
	}
}

// IsPositive reports a non-negative change.
func (r WatchlistRow) IsPositive() bool { return r.ChangePercent >= 0 }

// PriceText renders the price or "--" when not loaded.
func (r WatchlistRow) PriceText() string {
	if !r.Loaded {
		return format.Missing
	}
	return format.USD(r.Price)
}

// ChangeText renders "▲ 1.23%".
func (r WatchlistRow) ChangeText() string {
	if !r.Loaded {
		return format.Missing
	}
	return format.ArrowPercent(r.ChangePercent)
}

// HighText renders the day high.
func (r WatchlistRow) HighText() string {
	if !r.Loaded {
		return format.Missing
	}
	return format.USD(r.High)
}

// LowText renders the day low.
func (r WatchlistRow) LowText() string {
	if !r.Loaded {
		return format.Missing
	}
	return format.USD(r.Low)
}

// WatchlistFilter selects which rows are shown.
type WatchlistFilter string

const (
	FilterAll     WatchlistFilter = "all"
	FilterGainers WatchlistFilter = "gainers"
	FilterLosers  WatchlistFilter = "losers"
)

var watchlistFilters = []WatchlistFilter{FilterAll, FilterGainers, FilterLosers}

// ParseWatchlistFilter returns FilterAll for unknown values.
func ParseWatchlistFilter(s string) WatchlistFilter {
	for _, f := range watchlistFilters {
		if string(f) == strings.ToLower(s) {
			return f
		}
	}
	return FilterAll
}

// Next cycles to the following filter.
func (f WatchlistFilter) Next() WatchlistFilter {
	for i, x := range watchlistFilters {
		if x == f {
			return watchlistFilters[(i+1)%len(watchlistFilters)]
		}
	}
	return FilterAll
}

// Label returns a short label for the filter.
func (f WatchlistFilter) Label() string {
	switch f {
	case FilterGainers:
		return "Gainers"
	case FilterLosers:
		return "Losers"
	default:
		return "All"
	}
}

// WatchlistSort selects the row order.
type WatchlistSort string

const (
	SortSymbol WatchlistSort = "symbol"
	SortPrice  WatchlistSort = "price"
	SortChange WatchlistSort = "change"
)

var watchlistSorts = []WatchlistSort{SortSymbol, SortPrice, SortChange}

// ParseWatchlistSort returns SortSymbol for unknown values.
func ParseWatchlistSort(s string) WatchlistSort {
	for _, x := range watchlistSorts {
		if string(x) == strings.ToLower(s) {
			return x
		}
	}
	return SortSymbol
}

// Next cycles to the following sort mode.
func (s WatchlistSort) Next() WatchlistSort {
	for i, x := range watchlistSorts {
		if x == s {
			return watchlistSorts[(i+1)%len(watchlistSorts)]
		}
	}
	return SortSymbol
}

// Label returns a short label for the sort mode.
func (s WatchlistSort) Label() string {
	switch s {
	case SortPrice:
		return "Price"
	case SortChange:
		return "Change %"
	default:
		return "Symbol"
	}
}

// FilterWatchlist keeps gainers (change% > 0) or losers (change% < 0).
// Rows without a quote only pass FilterAll.
func FilterWatchlist(rows []WatchlistRow, f WatchlistFilter) []WatchlistRow {
	out := make([]WatchlistRow, 0, len(rows))
	for _, r := range rows {
		switch f {
		case FilterGainers:
			if !r.Loaded || r.ChangePercent <= 0 {
				continue
			}
		case FilterLosers:
			if !r.Loaded || r.ChangePercent >= 0 {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// SortWatchlist orders rows in place: symbol ascending, or price / change
// percent descending with missing quotes counted as zero.
func SortWatchlist(rows []WatchlistRow, s WatchlistSort) {
	sort.SliceStable(rows, func(i, j int) bool {
		switch s {
		case SortPrice:
			return rows[i].Price > rows[j].Price
		case SortChange:
			return rows[i].ChangePercent > rows[j].ChangePercent
		default:
			return rows[i].Symbol < rows[j].Symbol
		}
	})
}
