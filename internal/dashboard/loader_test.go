package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"stockboard/pkg/marketapi"
)

type fakeBackend struct {
	mu       sync.Mutex
	quotes   map[string]*marketapi.Quote
	company  error
	candles  *marketapi.Candles
	news     []marketapi.NewsItem
	search   []marketapi.SearchResult
	crypto   *marketapi.CryptoList
	calls    map[string]int
	indError error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		quotes: map[string]*marketapi.Quote{
			"AAPL": {C: 190, PC: 188, DP: 1.06},
			"TSLA": {C: 170, PC: 175, DP: -2.86},
			"NVDA": {C: 900, PC: 880, DP: 2.27},
		},
		calls: make(map[string]int),
	}
}

func (f *fakeBackend) hit(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeBackend) Quote(ctx context.Context, symbol string) (*marketapi.Quote, error) {
	f.hit("quote")
	if q, ok := f.quotes[symbol]; ok {
		return q, nil
	}
	return nil, &marketapi.APIError{StatusCode: http.StatusNotFound, Endpoint: "/api/stock/" + symbol}
}

func (f *fakeBackend) Company(ctx context.Context, symbol string) (*marketapi.Company, error) {
	f.hit("company")
	if f.company != nil {
		return nil, f.company
	}
	return &marketapi.Company{Name: "Apple Inc", Country: "US", Exchange: "NASDAQ"}, nil
}

func (f *fakeBackend) Indicators(ctx context.Context, symbol string) (*marketapi.Indicators, error) {
	f.hit("indicators")
	if f.indError != nil {
		return nil, f.indError
	}
	return &marketapi.Indicators{PERatio: marketapi.Num(30), LastUpdated: "2024-05-01T12:00:00Z"}, nil
}

func (f *fakeBackend) Candles(ctx context.Context, symbol, resolution string, from, to time.Time) (*marketapi.Candles, error) {
	f.hit("candles")
	if resolution != "D" {
		return nil, errors.New("unexpected resolution " + resolution)
	}
	if f.candles == nil {
		return nil, errors.New("connection refused")
	}
	return f.candles, nil
}

func (f *fakeBackend) Prediction(ctx context.Context, symbol string) (*marketapi.Prediction, error) {
	f.hit("prediction")
	return &marketapi.Prediction{
		Sentiment:  0.4,
		Prediction: marketapi.Forecast{Predictions: []marketapi.PredictionPoint{{Date: "2024-05-02", Price: 191, Confidence: 70}}},
	}, nil
}

func (f *fakeBackend) Search(ctx context.Context, query string) (*marketapi.SearchResponse, error) {
	f.hit("search")
	return &marketapi.SearchResponse{Results: f.search}, nil
}

func (f *fakeBackend) CryptoList(ctx context.Context) (*marketapi.CryptoList, error) {
	f.hit("crypto")
	if f.crypto == nil {
		return nil, errors.New("backend down")
	}
	return f.crypto, nil
}

func (f *fakeBackend) MarketNews(ctx context.Context) ([]marketapi.NewsItem, error) {
	f.hit("market-news")
	return f.news, nil
}

func (f *fakeBackend) StockNews(ctx context.Context, symbol string) ([]marketapi.NewsItem, error) {
	f.hit("stock-news")
	return f.news, nil
}

type fakeArchive struct {
	candles *marketapi.Candles
}

func (a fakeArchive) ReadCandles(symbol string, from, to time.Time) (*marketapi.Candles, error) {
	if a.candles == nil {
		return nil, errors.New("not archived")
	}
	return a.candles, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newsItems(n int) []marketapi.NewsItem {
	items := make([]marketapi.NewsItem, n)
	for i := range items {
		items[i] = marketapi.NewsItem{Headline: "h", URL: "u", Datetime: 1_700_000_000}
	}
	return items
}

func TestLoaderHome(t *testing.T) {
	fb := newFakeBackend()
	fb.news = newsItems(12)
	l := NewLoader(fb, quietLogger(), WithHomeSymbols([]string{"AAPL", "MISSING"}), WithLocation(time.UTC))

	page, err := l.Home(context.Background())
	if err != nil {
		t.Fatalf("Home: %v", err)
	}
	if len(page.Cards) != 2 {
		t.Fatalf("len(Cards) = %d, want 2", len(page.Cards))
	}
	if page.Cards[0].PriceText != "$190.00" || !page.Cards[0].Loaded {
		t.Errorf("Cards[0] = %+v", page.Cards[0])
	}
	if page.Cards[1].PriceText != "--" || page.Cards[1].Loaded {
		t.Errorf("Cards[1] = %+v", page.Cards[1])
	}
	if len(page.News) != HomeNewsLimit {
		t.Errorf("len(News) = %d, want %d", len(page.News), HomeNewsLimit)
	}
}

func TestLoaderStock(t *testing.T) {
	fb := newFakeBackend()
	fb.news = newsItems(9)
	fb.candles = &marketapi.Candles{S: "ok", T: []int64{1, 86401}, O: []float64{1, 2}, H: []float64{1, 2}, L: []float64{1, 2}, C: []float64{1, 2}}
	l := NewLoader(fb, quietLogger(), WithLocation(time.UTC))

	page, err := l.Stock(context.Background(), " aapl ")
	if err != nil {
		t.Fatalf("Stock: %v", err)
	}
	if page.Symbol != "AAPL" {
		t.Errorf("Symbol = %q", page.Symbol)
	}
	if page.Quote == nil || page.Quote.Price != 190 {
		t.Errorf("Quote = %+v", page.Quote)
	}
	if page.Unsupported != "" {
		t.Errorf("Unsupported = %q, want empty", page.Unsupported)
	}
	if page.CompanyLine() != "Apple Inc • US • NASDAQ" {
		t.Errorf("CompanyLine = %q", page.CompanyLine())
	}
	if len(page.News) != StockNewsLimit {
		t.Errorf("len(News) = %d, want %d", len(page.News), StockNewsLimit)
	}
	if page.Chart.Empty() || page.ChartArchive {
		t.Errorf("chart empty=%v archive=%v", page.Chart.Empty(), page.ChartArchive)
	}
	if len(page.Indicators) != 1 || page.IndicatorsUpdated != "5/1/2024, 12:00:00 PM" {
		t.Errorf("Indicators = %+v, updated %q", page.Indicators, page.IndicatorsUpdated)
	}
	if page.Prediction == nil || page.Prediction.Trend != TrendBullish {
		t.Errorf("Prediction = %+v", page.Prediction)
	}
}

func TestLoaderStockUnsupportedExchange(t *testing.T) {
	fb := newFakeBackend()
	fb.company = &marketapi.APIError{StatusCode: http.StatusForbidden, Endpoint: "/api/company/RELIANCE.NS"}
	fb.indError = &marketapi.APIError{StatusCode: http.StatusForbidden, Message: "Indicators not available"}
	l := NewLoader(fb, quietLogger())

	page, err := l.Stock(context.Background(), "RELIANCE.NS")
	if err != nil {
		t.Fatalf("Stock: %v", err)
	}
	if page.Unsupported != marketapi.DefaultUnsupportedMessage {
		t.Errorf("Unsupported = %q", page.Unsupported)
	}
	if page.IndicatorsError != "Indicators not available" {
		t.Errorf("IndicatorsError = %q", page.IndicatorsError)
	}
	if page.Company != nil {
		t.Errorf("Company = %+v, want nil", page.Company)
	}
}

func TestLoaderStockArchiveFallback(t *testing.T) {
	fb := newFakeBackend()
	archived := &marketapi.Candles{S: "ok", T: []int64{1}, O: []float64{5}, H: []float64{5}, L: []float64{5}, C: []float64{5}}
	l := NewLoader(fb, quietLogger(), WithCandleArchive(fakeArchive{candles: archived}))

	page, err := l.Stock(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Stock: %v", err)
	}
	if page.Chart.Empty() || !page.ChartArchive {
		t.Errorf("expected archive chart, got empty=%v archive=%v", page.Chart.Empty(), page.ChartArchive)
	}

	l = NewLoader(fb, quietLogger(), WithCandleArchive(fakeArchive{}))
	page, _ = l.Stock(context.Background(), "AAPL")
	if !page.Chart.Empty() || page.ChartArchive {
		t.Error("expected empty chart when archive misses")
	}
}

func TestLoaderWatchlist(t *testing.T) {
	fb := newFakeBackend()
	l := NewLoader(fb, quietLogger())

	page, err := l.Watchlist(context.Background(), []string{"TSLA", "AAPL", "GONE", "NVDA"}, FilterGainers, SortChange)
	if err != nil {
		t.Fatalf("Watchlist: %v", err)
	}
	if page.Total != 4 {
		t.Errorf("Total = %d, want 4", page.Total)
	}
	if got := rowSymbols(page.Rows); !equal(got, []string{"NVDA", "AAPL"}) {
		t.Errorf("Rows = %v", got)
	}

	page, _ = l.Watchlist(context.Background(), []string{"TSLA", "GONE"}, FilterAll, SortSymbol)
	if got := rowSymbols(page.Rows); !equal(got, []string{"GONE", "TSLA"}) {
		t.Errorf("Rows = %v", got)
	}
	if page.Rows[0].Loaded {
		t.Error("GONE should not be loaded")
	}
}

func TestLoaderCrypto(t *testing.T) {
	fb := newFakeBackend()
	l := NewLoader(fb, quietLogger(), WithLocation(time.UTC))

	page, err := l.Crypto(context.Background())
	if err != nil {
		t.Fatalf("Crypto: %v", err)
	}
	if len(page.Assets) != 0 {
		t.Errorf("failed list should keep empty page, got %d assets", len(page.Assets))
	}

	fb.crypto = &marketapi.CryptoList{
		Cryptos:     []marketapi.CryptoAsset{{Symbol: "BINANCE:BTCUSDT", Name: "Bitcoin", Price: 64000}},
		LastUpdated: "2024-05-01T15:04:05Z",
	}
	page, err = l.Crypto(context.Background())
	if err != nil {
		t.Fatalf("Crypto: %v", err)
	}
	if len(page.Assets) != 1 || page.Assets[0].PriceText != "$64,000.00" {
		t.Errorf("Assets = %+v", page.Assets)
	}
	if page.LastUpdated != "3:04:05 PM" {
		t.Errorf("LastUpdated = %q", page.LastUpdated)
	}
}

func TestLoaderSearch(t *testing.T) {
	fb := newFakeBackend()
	fb.search = searchResults
	l := NewLoader(fb, quietLogger())

	page, err := l.Search(context.Background(), "  ", "all", "all")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if fb.calls["search"] != 0 || len(page.Results) != 0 {
		t.Error("blank query should not hit the backend")
	}

	page, err = l.Search(context.Background(), "reliance", "all", "india")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Total != len(searchResults) || len(page.Results) != 2 {
		t.Errorf("Total = %d, Results = %v", page.Total, symbols(page.Results))
	}
}

type staticNews []marketapi.NewsItem

func (s staticNews) MarketNews(ctx context.Context) ([]marketapi.NewsItem, error) { return s, nil }
func (s staticNews) StockNews(ctx context.Context, symbol string) ([]marketapi.NewsItem, error) {
	return s, nil
}

func TestLoaderNewsSource(t *testing.T) {
	fb := newFakeBackend()
	l := NewLoader(fb, quietLogger(), WithNewsSource(staticNews(newsItems(3))))

	page, err := l.News(context.Background())
	if err != nil {
		t.Fatalf("News: %v", err)
	}
	if len(page.Items) != 3 {
		t.Errorf("len(Items) = %d, want 3", len(page.Items))
	}
	if fb.calls["market-news"] != 0 {
		t.Error("backend news should not be used when a news source is set")
	}
}
