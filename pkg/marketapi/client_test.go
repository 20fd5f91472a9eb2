package marketapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/")
}

func TestNewClient(t *testing.T) {
	c := NewClient("http://localhost:5001/")
	if c.BaseURL() != "http://localhost:5001" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", c.BaseURL())
	}
	if c.httpClient == nil {
		t.Fatal("expected non-nil httpClient")
	}
	if c.attempts != 1 {
		t.Errorf("attempts = %d, want 1", c.attempts)
	}
}

func TestQuote(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/stock/AAPL" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"c":190.5,"o":188,"h":191,"l":187.2,"pc":189,"d":1.5,"dp":0.79}`))
	})

	q, err := c.Quote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if q.C != 190.5 || q.PC != 189 || q.DP != 0.79 {
		t.Errorf("Quote = %+v", q)
	}
}

func TestSymbolIsEscaped(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/api/stock/BRK%2FB" {
			t.Errorf("escaped path = %q", r.URL.EscapedPath())
		}
		w.Write([]byte(`{"c":1}`))
	})
	if _, err := c.Quote(context.Background(), "BRK/B"); err != nil {
		t.Fatalf("Quote: %v", err)
	}
}

func TestCompanyUnsupportedExchange(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"Exchange NSE is not supported on the free plan"}`))
	})

	_, err := c.Company(context.Background(), "RELIANCE.NS")
	if !errors.Is(err, ErrExchangeUnsupported) {
		t.Fatalf("err = %v, want ErrExchangeUnsupported", err)
	}
	if got := UnsupportedMessage(err); got != "Exchange NSE is not supported on the free plan" {
		t.Errorf("UnsupportedMessage = %q", got)
	}
}

func TestUnsupportedMessageDefault(t *testing.T) {
	err := &APIError{StatusCode: http.StatusForbidden, Endpoint: "/api/company/X"}
	if got := UnsupportedMessage(err); got != DefaultUnsupportedMessage {
		t.Errorf("UnsupportedMessage = %q, want %q", got, DefaultUnsupportedMessage)
	}
	if got := UnsupportedMessage(&APIError{StatusCode: 500}); got != "" {
		t.Errorf("UnsupportedMessage(500) = %q, want empty", got)
	}
}

func TestIndicatorsNullable(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"indicators":{"peRatio":28.4,"roe":null,"pbRatio":"45.1","marketCap":"2.9T","lastUpdated":"2024-01-02T00:00:00Z"}}`))
	})

	ind, err := c.Indicators(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Indicators: %v", err)
	}
	if ind.PERatio == nil || ind.PERatio.Value != 28.4 {
		t.Errorf("PERatio = %+v, want 28.4", ind.PERatio)
	}
	if ind.ROE != nil {
		t.Errorf("ROE = %+v, want nil", *ind.ROE)
	}
	if ind.PBRatio == nil || !ind.PBRatio.IsNumber || ind.PBRatio.Value != 45.1 {
		t.Errorf("PBRatio = %+v, want numeric 45.1", ind.PBRatio)
	}
	if ind.MarketCap == nil || ind.MarketCap.IsNumber || ind.MarketCap.Text != "2.9T" {
		t.Errorf("MarketCap = %+v, want text 2.9T", ind.MarketCap)
	}
	if ind.LastUpdated == "" {
		t.Error("LastUpdated is empty")
	}
}

func TestMetricUnmarshal(t *testing.T) {
	tests := []struct {
		in       string
		want     string
		isNumber bool
	}{
		{`28.10`, "28.10", true},
		{`"45.1"`, "45.1", true},
		{`"N/A"`, "N/A", false},
		{`false`, "false", false},
		{`{"ttm":1.2}`, `{"ttm":1.2}`, false},
		{`[1,2]`, "[1,2]", false},
		{`null`, "", false},
	}
	for _, tt := range tests {
		var m Metric
		if err := json.Unmarshal([]byte(tt.in), &m); err != nil {
			t.Errorf("Unmarshal(%s): %v", tt.in, err)
			continue
		}
		if m.String() != tt.want || m.IsNumber != tt.isNumber {
			t.Errorf("Unmarshal(%s) = %+v, want %q number=%v", tt.in, m, tt.want, tt.isNumber)
		}
	}
}

func TestIndicatorsMixedValues(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"indicators":{"peRatio":28.1,"roe":0.3,"beta":false,"eps":null,"macd":{"signal":1}}}`))
	})

	ind, err := c.Indicators(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Indicators: %v", err)
	}
	if ind.PERatio == nil || ind.PERatio.Value != 28.1 {
		t.Errorf("PERatio = %+v", ind.PERatio)
	}
	if ind.Beta == nil || ind.Beta.String() != "false" {
		t.Errorf("Beta = %+v, want text false", ind.Beta)
	}
	if ind.EPS != nil {
		t.Errorf("EPS = %+v, want nil", ind.EPS)
	}
	if ind.MACD == nil || ind.MACD.String() != `{"signal":1}` {
		t.Errorf("MACD = %+v", ind.MACD)
	}
}

func TestCandlesQuery(t *testing.T) {
	from := time.Unix(1700000000, 0)
	to := time.Unix(1702592000, 0)
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("resolution") != "D" || q.Get("from") != "1700000000" || q.Get("to") != "1702592000" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`{"s":"ok","t":[1,2],"o":[1,2],"h":[1,2],"l":[1,2],"c":[1,2],"_mock":true}`))
	})

	cs, err := c.Candles(context.Background(), "AAPL", "", from, to)
	if err != nil {
		t.Fatalf("Candles: %v", err)
	}
	if !cs.OK() || cs.Len() != 2 || !cs.Mock {
		t.Errorf("Candles = %+v", cs)
	}
}

func TestCandlesLenShortestColumn(t *testing.T) {
	cs := &Candles{S: "ok", T: []int64{1, 2, 3}, O: []float64{1, 2, 3}, H: []float64{1, 2, 3}, L: []float64{1, 2}, C: []float64{1, 2, 3}}
	if cs.Len() != 2 {
		t.Errorf("Len = %d, want 2", cs.Len())
	}
	var nilCandles *Candles
	if nilCandles.Len() != 0 || nilCandles.OK() {
		t.Error("nil Candles should be empty and not OK")
	}
}

func TestCryptoListLastUpdated(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"cryptos":[{"symbol":"BINANCE:BTCUSDT","price":64000}],"lastUpdated":"2024-05-01T12:00:00Z"}`, "2024-05-01T12:00:00Z"},
		{`{"cryptos":[],"lastUpdated":1714564800000}`, "1714564800000"},
		{`{"cryptos":[]}`, ""},
	}
	for _, tt := range tests {
		c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(tt.body))
		})
		got, err := c.CryptoList(context.Background())
		if err != nil {
			t.Fatalf("CryptoList: %v", err)
		}
		if got.LastUpdated != tt.want {
			t.Errorf("LastUpdated = %q, want %q", got.LastUpdated, tt.want)
		}
	}
}

func TestWatchlistRoundTrip(t *testing.T) {
	list := []string{"AAPL"}
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/watchlist":
		case r.Method == http.MethodPost && r.URL.Path == "/api/watchlist":
			var req watchlistAddRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode body: %v", err)
			}
			list = append(list, req.Symbol)
		case r.Method == http.MethodDelete && r.URL.Path == "/api/watchlist/AAPL":
			list = list[1:]
		default:
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(list)
	})
	ctx := context.Background()

	got, err := c.AddWatchlist(ctx, "MSFT")
	if err != nil || len(got) != 2 || got[1] != "MSFT" {
		t.Fatalf("AddWatchlist = %v, %v", got, err)
	}
	got, err = c.RemoveWatchlist(ctx, "AAPL")
	if err != nil || len(got) != 1 || got[0] != "MSFT" {
		t.Fatalf("RemoveWatchlist = %v, %v", got, err)
	}
	got, err = c.Watchlist(ctx)
	if err != nil || len(got) != 1 {
		t.Fatalf("Watchlist = %v, %v", got, err)
	}
}

func TestRetryOnlyOn5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetries(3, time.Millisecond))
	if _, err := c.MarketNews(context.Background()); err != nil {
		t.Fatalf("MarketNews: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}

	calls.Store(0)
	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Symbol not found"}`))
	}))
	defer notFound.Close()

	c = NewClient(notFound.URL, WithRetries(3, time.Millisecond))
	_, err := c.Quote(context.Background(), "NOPE")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("err = %v, want 404 APIError", err)
	}
	if apiErr.Message != "Symbol not found" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (4xx is not retried)", calls.Load())
	}
}

func TestDefaultDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	if _, err := c.MarketNews(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}
