// Package marketapi is a Go SDK for the stockboard market-data backend.
package marketapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stockboard/internal/util"
)

// DefaultResolution is the candle resolution the dashboard requests.
const DefaultResolution = "D"

// Client provides typed access to the backend REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *util.RateLimiter
	attempts   int
	backoff    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimiter gates every request on rl. A nil limiter never blocks.
func WithRateLimiter(rl *util.RateLimiter) Option {
	return func(c *Client) { c.limiter = rl }
}

// WithRetries sets the total number of attempts for idempotent requests.
// Values below 1 mean a single attempt.
func WithRetries(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		if attempts < 1 {
			attempts = 1
		}
		c.attempts = attempts
		c.backoff = backoff
	}
}

// NewClient creates a new backend client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		attempts:   1,
		backoff:    500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the root the client was created with.
func (c *Client) BaseURL() string { return c.baseURL }

// Quote retrieves the real-time quote for symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*Quote, error) {
	var q Quote
	if err := c.get(ctx, "/api/stock/"+url.PathEscape(symbol), nil, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// Company retrieves the company profile. A 403 response matches
// ErrExchangeUnsupported.
func (c *Client) Company(ctx context.Context, symbol string) (*Company, error) {
	var co Company
	if err := c.get(ctx, "/api/company/"+url.PathEscape(symbol), nil, &co); err != nil {
		return nil, err
	}
	return &co, nil
}

// Indicators retrieves fundamental and technical metrics.
func (c *Client) Indicators(ctx context.Context, symbol string) (*Indicators, error) {
	var resp IndicatorsResponse
	if err := c.get(ctx, "/api/indicators/"+url.PathEscape(symbol), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Indicators, nil
}

// Candles retrieves OHLC bars between from and to.
func (c *Client) Candles(ctx context.Context, symbol, resolution string, from, to time.Time) (*Candles, error) {
	if resolution == "" {
		resolution = DefaultResolution
	}
	q := url.Values{}
	q.Set("resolution", resolution)
	q.Set("from", strconv.FormatInt(from.Unix(), 10))
	q.Set("to", strconv.FormatInt(to.Unix(), 10))

	var cs Candles
	if err := c.get(ctx, "/api/candles/"+url.PathEscape(symbol), q, &cs); err != nil {
		return nil, err
	}
	return &cs, nil
}

// Prediction retrieves the sentiment-based price forecast.
func (c *Client) Prediction(ctx context.Context, symbol string) (*Prediction, error) {
	var p Prediction
	if err := c.get(ctx, "/api/prediction/"+url.PathEscape(symbol), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// StockNews retrieves news for a single symbol.
func (c *Client) StockNews(ctx context.Context, symbol string) ([]NewsItem, error) {
	var items []NewsItem
	if err := c.get(ctx, "/api/stock-news/"+url.PathEscape(symbol), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// MarketNews retrieves general market news.
func (c *Client) MarketNews(ctx context.Context) ([]NewsItem, error) {
	var items []NewsItem
	if err := c.get(ctx, "/api/market-news", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Search looks up symbols matching query.
func (c *Client) Search(ctx context.Context, query string) (*SearchResponse, error) {
	q := url.Values{}
	q.Set("q", query)
	var resp SearchResponse
	if err := c.get(ctx, "/api/search", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Crypto retrieves the current price of a single crypto pair.
func (c *Client) Crypto(ctx context.Context, symbol string) (*CryptoQuote, error) {
	var q CryptoQuote
	if err := c.get(ctx, "/api/crypto/"+url.PathEscape(symbol), nil, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// CryptoList retrieves the tracked crypto assets.
func (c *Client) CryptoList(ctx context.Context) (*CryptoList, error) {
	var raw struct {
		Cryptos     []CryptoAsset   `json:"cryptos"`
		LastUpdated json.RawMessage `json:"lastUpdated"`
	}
	if err := c.get(ctx, "/api/crypto-list", nil, &raw); err != nil {
		return nil, err
	}
	return &CryptoList{Cryptos: raw.Cryptos, LastUpdated: rawString(raw.LastUpdated)}, nil
}

// Watchlist retrieves the legacy server-side watchlist.
func (c *Client) Watchlist(ctx context.Context) ([]string, error) {
	var syms []string
	if err := c.get(ctx, "/api/watchlist", nil, &syms); err != nil {
		return nil, err
	}
	return syms, nil
}

// AddWatchlist adds symbol to the legacy server-side watchlist and returns
// the updated list.
func (c *Client) AddWatchlist(ctx context.Context, symbol string) ([]string, error) {
	var syms []string
	err := c.do(ctx, http.MethodPost, "/api/watchlist", nil, watchlistAddRequest{Symbol: symbol}, &syms)
	if err != nil {
		return nil, err
	}
	return syms, nil
}

// RemoveWatchlist removes symbol from the legacy server-side watchlist and
// returns the updated list.
func (c *Client) RemoveWatchlist(ctx context.Context, symbol string) ([]string, error) {
	var syms []string
	err := c.do(ctx, http.MethodDelete, "/api/watchlist/"+url.PathEscape(symbol), nil, nil, &syms)
	if err != nil {
		return nil, err
	}
	return syms, nil
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return util.RetryIf(ctx, c.attempts, c.backoff, retryable, func() error {
		return c.do(ctx, http.MethodGet, path, query, nil, out)
	})
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s body: %w", path, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return fmt.Errorf("building request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
			Endpoint:   path,
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// retryable reports whether err is a transport error or a 5xx.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return !errors.As(err, &syntaxErr) && !errors.As(err, &typeErr)
}

// errorMessage extracts {"message": ...} or {"error": ...} from a body.
func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &body) != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

// rawString renders a JSON string or number as plain text.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(raw)
}
