package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"stockboard/internal/format"
	"stockboard/pkg/marketapi"
)

// DefaultHomeSymbols are the tiles on the home page.
var DefaultHomeSymbols = []string{"AAPL", "GOOGL", "MSFT", "TSLA", "AMZN", "NVDA", "META", "NFLX"}

// Page news limits.
const (
	HomeNewsLimit  = 8
	StockNewsLimit = 5
)

// Backend is the subset of the market-data client the pages read from.
type Backend interface {
	Quote(ctx context.Context, symbol string) (*marketapi.Quote, error)
	Company(ctx context.Context, symbol string) (*marketapi.Company, error)
	Indicators(ctx context.Context, symbol string) (*marketapi.Indicators, error)
	Candles(ctx context.Context, symbol, resolution string, from, to time.Time) (*marketapi.Candles, error)
	Prediction(ctx context.Context, symbol string) (*marketapi.Prediction, error)
	Search(ctx context.Context, query string) (*marketapi.SearchResponse, error)
	CryptoList(ctx context.Context) (*marketapi.CryptoList, error)
	NewsSource
}

// NewsSource supplies market and per-symbol news.
type NewsSource interface {
	MarketNews(ctx context.Context) ([]marketapi.NewsItem, error)
	StockNews(ctx context.Context, symbol string) ([]marketapi.NewsItem, error)
}

// CandleArchive is a local candle store used when the backend has no data.
type CandleArchive interface {
	ReadCandles(symbol string, from, to time.Time) (*marketapi.Candles, error)
}

// Loader assembles whole pages by fanning out backend calls. A failed call
// is logged and its section keeps its zero value.
type Loader struct {
	backend     Backend
	news        NewsSource
	archive     CandleArchive
	log         *slog.Logger
	homeSymbols []string
	chartDays   int
	concurrency int
	loc         *time.Location
	now         func() time.Time
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithNewsSource replaces the backend as the news provider.
func WithNewsSource(ns NewsSource) LoaderOption {
	return func(l *Loader) {
		if ns != nil {
			l.news = ns
		}
	}
}

// WithCandleArchive enables the archive chart fallback.
func WithCandleArchive(a CandleArchive) LoaderOption {
	return func(l *Loader) { l.archive = a }
}

// WithHomeSymbols overrides DefaultHomeSymbols.
func WithHomeSymbols(symbols []string) LoaderOption {
	return func(l *Loader) {
		if len(symbols) > 0 {
			l.homeSymbols = symbols
		}
	}
}

// WithChartDays sets the candle window length.
func WithChartDays(days int) LoaderOption {
	return func(l *Loader) {
		if days > 0 {
			l.chartDays = days
		}
	}
}

// WithLocation sets the zone used for date labels.
func WithLocation(loc *time.Location) LoaderOption {
	return func(l *Loader) {
		if loc != nil {
			l.loc = loc
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) LoaderOption {
	return func(l *Loader) { l.now = now }
}

// NewLoader creates a Loader over backend.
func NewLoader(backend Backend, log *slog.Logger, opts ...LoaderOption) *Loader {
	if log == nil {
		log = slog.Default()
	}
	l := &Loader{
		backend:     backend,
		news:        backend,
		log:         log,
		homeSymbols: DefaultHomeSymbols,
		chartDays:   DefaultChartDays,
		concurrency: 8,
		loc:         time.Local,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Location returns the zone used for date labels.
func (l *Loader) Location() *time.Location { return l.loc }

func (l *Loader) warn(msg, symbol, endpoint string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	l.log.Warn(msg, "symbol", symbol, "endpoint", endpoint, "error", err)
}

// ---------------------------------------------------------------------------
// Home
// ---------------------------------------------------------------------------

// HomePage is the landing page.
type HomePage struct {
	Cards []StockCard
	News  []NewsView
}

// Home loads a price tile per home symbol and the latest market news.
func (l *Loader) Home(ctx context.Context) (*HomePage, error) {
	page := &HomePage{Cards: make([]StockCard, len(l.homeSymbols))}
	for i, sym := range l.homeSymbols {
		page.Cards[i] = StockCard{Symbol: sym, PriceText: format.Missing}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, sym := range l.homeSymbols {
		g.Go(func() error {
			q, err := l.backend.Quote(gctx, sym)
			if err != nil {
				l.warn("stock card quote failed", sym, "stock", err)
				return nil
			}
			page.Cards[i] = StockCard{Symbol: sym, PriceText: format.USD(q.C), Loaded: true}
			return nil
		})
	}
	g.Go(func() error {
		items, err := l.news.MarketNews(gctx)
		if err != nil {
			l.warn("market news failed", "", "market-news", err)
			return nil
		}
		page.News = NewNewsView(items, HomeNewsLimit, l.loc)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return page, ctx.Err()
}

// ---------------------------------------------------------------------------
// Stock
// ---------------------------------------------------------------------------

// StockPage is the per-symbol detail page.
type StockPage struct {
	Symbol  string
	Quote   *QuoteView // nil when the quote call failed
	Company *marketapi.Company

	// Unsupported holds the message of a 403 on the company profile. When
	// set the page renders the "Exchange Not Supported" variant.
	Unsupported string

	Chart        ChartView
	ChartArchive bool // chart came from the local archive

	Indicators        []IndicatorGroup
	IndicatorsError   string
	IndicatorsUpdated string

	Prediction *PredictionView
	News       []NewsView
}

// CompanyLine renders "name • country • exchange" with fallbacks.
func (p *StockPage) CompanyLine() string {
	if p.Company == nil {
		return ""
	}
	name, country, exchange := p.Company.Name, p.Company.Country, p.Company.Exchange
	if name == "" {
		name = "Company"
	}
	if country == "" {
		country = "N/A"
	}
	if exchange == "" {
		exchange = "N/A"
	}
	return name + " • " + country + " • " + exchange
}

// Stock loads every section of the stock page concurrently.
func (l *Loader) Stock(ctx context.Context, symbol string) (*StockPage, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	page := &StockPage{Symbol: symbol}
	from, to := CandleWindow(l.now(), l.chartDays)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q, err := l.backend.Quote(gctx, symbol)
		if err != nil {
			l.warn("quote failed", symbol, "stock", err)
			return nil
		}
		v := NewQuoteView(symbol, q)
		page.Quote = &v
		return nil
	})
	g.Go(func() error {
		co, err := l.backend.Company(gctx, symbol)
		if err != nil {
			l.warn("company failed", symbol, "company", err)
			page.Unsupported = marketapi.UnsupportedMessage(err)
			return nil
		}
		page.Company = co
		return nil
	})
	g.Go(func() error {
		ind, err := l.backend.Indicators(gctx, symbol)
		if err != nil {
			l.warn("indicators failed", symbol, "indicators", err)
			page.IndicatorsError = indicatorsError(err)
			return nil
		}
		page.Indicators = GroupIndicators(ind)
		if t := format.Timestamp(ind.LastUpdated); !t.IsZero() {
			page.IndicatorsUpdated = t.In(l.loc).Format("1/2/2006, 3:04:05 PM")
		}
		return nil
	})
	g.Go(func() error {
		items, err := l.news.StockNews(gctx, symbol)
		if err != nil {
			l.warn("stock news failed", symbol, "stock-news", err)
			return nil
		}
		page.News = NewNewsView(items, StockNewsLimit, l.loc)
		return nil
	})
	g.Go(func() error {
		p, err := l.backend.Prediction(gctx, symbol)
		if err != nil {
			l.warn("prediction failed", symbol, "prediction", err)
			return nil
		}
		page.Prediction = NewPredictionView(p)
		return nil
	})
	g.Go(func() error {
		page.Chart, page.ChartArchive = l.chart(gctx, symbol, from, to)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return page, ctx.Err()
}

func (l *Loader) chart(ctx context.Context, symbol string, from, to time.Time) (ChartView, bool) {
	cs, err := l.backend.Candles(ctx, symbol, marketapi.DefaultResolution, from, to)
	if err != nil {
		l.warn("candles failed", symbol, "candles", err)
	} else if cs.OK() {
		return NewChartView(cs, l.loc), false
	} else {
		l.log.Info("no candle data available", "symbol", symbol, "status", cs.S)
	}

	if l.archive == nil {
		return ChartView{}, false
	}
	cs, err = l.archive.ReadCandles(symbol, from, to)
	if err != nil {
		l.log.Debug("archive candles unavailable", "symbol", symbol, "error", err)
		return ChartView{}, false
	}
	v := NewChartView(cs, l.loc)
	return v, !v.Empty()
}

func indicatorsError(err error) string {
	var apiErr *marketapi.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Failed to load indicators"
}

// ---------------------------------------------------------------------------
// Crypto
// ---------------------------------------------------------------------------

// CryptoPage lists tracked crypto assets.
type CryptoPage struct {
	Assets      []CryptoView
	LastUpdated string // "3:04:05 PM"
}

// Crypto loads the crypto list.
func (l *Loader) Crypto(ctx context.Context) (*CryptoPage, error) {
	page := &CryptoPage{}
	list, err := l.backend.CryptoList(ctx)
	if err != nil {
		l.warn("crypto list failed", "", "crypto-list", err)
		return page, ctx.Err()
	}
	page.Assets = make([]CryptoView, 0, len(list.Cryptos))
	for _, a := range list.Cryptos {
		page.Assets = append(page.Assets, NewCryptoView(a))
	}
	if t := format.Timestamp(list.LastUpdated); !t.IsZero() {
		page.LastUpdated = format.Clock(t.In(l.loc))
	}
	return page, nil
}

// ---------------------------------------------------------------------------
// Watchlist
// ---------------------------------------------------------------------------

// WatchlistPage is the filtered, sorted watchlist.
type WatchlistPage struct {
	Rows   []WatchlistRow
	Total  int
	Filter WatchlistFilter
	Sort   WatchlistSort
}

// Watchlist quotes every symbol and applies filter and sort.
func (l *Loader) Watchlist(ctx context.Context, symbols []string, f WatchlistFilter, s WatchlistSort) (*WatchlistPage, error) {
	rows := make([]WatchlistRow, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, sym := range symbols {
		rows[i] = WatchlistRow{Symbol: sym}
		g.Go(func() error {
			q, err := l.backend.Quote(gctx, sym)
			if err != nil {
				l.warn("watchlist quote failed", sym, "stock", err)
				return nil
			}
			rows[i] = NewWatchlistRow(sym, q)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows = FilterWatchlist(rows, f)
	SortWatchlist(rows, s)
	return &WatchlistPage{Rows: rows, Total: len(symbols), Filter: f, Sort: s}, ctx.Err()
}

// ---------------------------------------------------------------------------
// News & search
// ---------------------------------------------------------------------------

// NewsPage is the full market news list.
type NewsPage struct {
	Items []NewsView
}

// News loads all market news.
func (l *Loader) News(ctx context.Context) (*NewsPage, error) {
	items, err := l.news.MarketNews(ctx)
	if err != nil {
		l.warn("market news failed", "", "market-news", err)
		return &NewsPage{}, ctx.Err()
	}
	return &NewsPage{Items: NewNewsView(items, 0, l.loc)}, nil
}

// SearchPage holds filtered search results.
type SearchPage struct {
	Query   string
	Type    string
	Region  string
	Results []marketapi.SearchResult
	Total   int // before filtering
}

// Search queries the backend and applies type and region filters. An empty
// query returns an empty page without calling the backend.
func (l *Loader) Search(ctx context.Context, query, typ, region string) (*SearchPage, error) {
	page := &SearchPage{Query: strings.TrimSpace(query), Type: typ, Region: region}
	if page.Query == "" {
		return page, nil
	}
	resp, err := l.backend.Search(ctx, page.Query)
	if err != nil {
		l.warn("search failed", page.Query, "search", err)
		return page, ctx.Err()
	}
	page.Total = len(resp.Results)
	page.Results = FilterSearch(resp.Results, typ, region)
	return page, nil
}
