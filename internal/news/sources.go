// Package news merges headlines from the market-data backend with optional
// Alpaca and Google News RSS feeds.
package news

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"stockboard/pkg/marketapi"
)

// Source fetches news. An empty symbol asks for general market news.
type Source interface {
	Name() string
	Fetch(ctx context.Context, symbol string) ([]marketapi.NewsItem, error)
}

// --- Backend ---

// BackendClient is the news half of the market-data client.
type BackendClient interface {
	MarketNews(ctx context.Context) ([]marketapi.NewsItem, error)
	StockNews(ctx context.Context, symbol string) ([]marketapi.NewsItem, error)
}

// BackendSource reads /api/market-news and /api/stock-news.
type BackendSource struct {
	Client BackendClient
}

func (BackendSource) Name() string { return "backend" }

func (b BackendSource) Fetch(ctx context.Context, symbol string) ([]marketapi.NewsItem, error) {
	if symbol == "" {
		return b.Client.MarketNews(ctx)
	}
	return b.Client.StockNews(ctx, symbol)
}

// --- Alpaca ---

// AlpacaClient is the subset of the Alpaca market data client used here.
type AlpacaClient interface {
	GetNews(req marketdata.GetNewsRequest) ([]marketdata.News, error)
}

// AlpacaSource fetches recent articles from the Alpaca news API.
type AlpacaSource struct {
	Client AlpacaClient
	Window time.Duration // lookback, default 7 days
	Limit  int           // default 50
	Now    func() time.Time
}

// NewAlpacaClient builds a market data client from credentials.
func NewAlpacaClient(apiKey, apiSecret, dataURL string) *marketdata.Client {
	return marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   dataURL,
	})
}

func (AlpacaSource) Name() string { return "alpaca" }

func (a AlpacaSource) Fetch(ctx context.Context, symbol string) ([]marketapi.NewsItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	window := a.Window
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	limit := a.Limit
	if limit <= 0 {
		limit = 50
	}

	end := now()
	req := marketdata.GetNewsRequest{
		Start:      end.Add(-window),
		End:        end,
		TotalLimit: limit,
		Sort:       marketdata.SortDesc,
	}
	if symbol != "" {
		req.Symbols = []string{symbol}
	}
	alpacaNews, err := a.Client.GetNews(req)
	if err != nil {
		return nil, err
	}

	items := make([]marketapi.NewsItem, 0, len(alpacaNews))
	for _, n := range alpacaNews {
		source := n.Source
		if source == "" {
			source = "Alpaca"
		}
		items = append(items, marketapi.NewsItem{
			Headline: n.Headline,
			Source:   source,
			URL:      n.URL,
			Datetime: n.CreatedAt.Unix(),
			Summary:  StripHTML(n.Summary),
		})
	}
	return items, nil
}

// --- Google News RSS ---

// GoogleRSSURL is the Google News search feed endpoint.
const GoogleRSSURL = "https://news.google.com/rss/search"

type rssResponse struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate"`
	Desc    string `xml:"description"`
	Source  string `xml:"source"`
}

// GoogleRSSSource searches Google News RSS for "<symbol> stock", or
// "stock market" for market news.
type GoogleRSSSource struct {
	HTTPClient *http.Client
	BaseURL    string
}

func (GoogleRSSSource) Name() string { return "google" }

func (g GoogleRSSSource) Fetch(ctx context.Context, symbol string) ([]marketapi.NewsItem, error) {
	hc := g.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	base := g.BaseURL
	if base == "" {
		base = GoogleRSSURL
	}

	query := "stock market"
	if symbol != "" {
		query = symbol + " stock"
	}
	u := base + "?q=" + url.QueryEscape(query) + "&hl=en-US&gl=US&ceid=US:en"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google rss: status %d", resp.StatusCode)
	}

	var rss rssResponse
	if err := xml.NewDecoder(resp.Body).Decode(&rss); err != nil {
		return nil, fmt.Errorf("google rss: %w", err)
	}

	items := make([]marketapi.NewsItem, 0, len(rss.Channel.Items))
	for _, item := range rss.Channel.Items {
		t, err := time.Parse(time.RFC1123Z, item.PubDate)
		if err != nil {
			t, err = time.Parse(time.RFC1123, item.PubDate)
			if err != nil {
				continue
			}
		}
		headline, source := item.Title, item.Source
		// Google appends " - Publisher" to titles.
		if idx := strings.LastIndex(headline, " - "); idx > 0 {
			if source == "" {
				source = headline[idx+3:]
			}
			headline = headline[:idx]
		}
		if source == "" {
			source = "Google News"
		}
		items = append(items, marketapi.NewsItem{
			Headline: headline,
			Source:   source,
			URL:      item.Link,
			Datetime: t.Unix(),
			Summary:  StripHTML(item.Desc),
		})
	}
	return items, nil
}

// NewsArchive reads back news saved by day.
type NewsArchive interface {
	ReadNews(date time.Time) ([]marketapi.NewsItem, error)
}

// ArchiveSource serves news saved to the local archive over the last Days
// days (default 3). Archived items carry no symbols, so a symbol query
// matches headlines and summaries that mention the ticker.
type ArchiveSource struct {
	Archive NewsArchive
	Days    int
	Now     func() time.Time
}

func (ArchiveSource) Name() string { return "archive" }

func (a ArchiveSource) Fetch(ctx context.Context, symbol string) ([]marketapi.NewsItem, error) {
	days := a.Days
	if days <= 0 {
		days = 3
	}
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}

	today := now()
	var lists [][]marketapi.NewsItem
	for d := 0; d < days; d++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		items, err := a.Archive.ReadNews(today.AddDate(0, 0, -d))
		if err != nil {
			return nil, err
		}
		if symbol != "" {
			items = mentioning(items, symbol)
		}
		lists = append(lists, items)
	}
	return Merge(lists...), nil
}

var wordSplit = regexp.MustCompile(`[^A-Za-z0-9.]+`)

// mentioning keeps items whose headline or summary contains symbol as a word.
func mentioning(items []marketapi.NewsItem, symbol string) []marketapi.NewsItem {
	var out []marketapi.NewsItem
	for _, it := range items {
		for _, w := range wordSplit.Split(it.Headline+" "+it.Summary, -1) {
			if strings.EqualFold(strings.TrimRight(w, "."), symbol) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

// --- HTML helpers ---

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// StripHTML removes HTML tags and normalizes whitespace.
func StripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
