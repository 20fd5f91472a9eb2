package marketapi

// Quote is a real-time price snapshot as returned by /api/stock/{symbol}.
type Quote struct {
	C  float64 `json:"c"`  // current
	O  float64 `json:"o"`  // open
	H  float64 `json:"h"`  // high
	L  float64 `json:"l"`  // low
	PC float64 `json:"pc"` // previous close
	D  float64 `json:"d"`  // change
	DP float64 `json:"dp"` // change percent
}

// Company is the profile returned by /api/company/{symbol}.
type Company struct {
	Name     string `json:"name"`
	Country  string `json:"country"`
	Exchange string `json:"exchange"`
	Ticker   string `json:"ticker,omitempty"`
	Industry string `json:"finnhubIndustry,omitempty"`
	Logo     string `json:"logo,omitempty"`
	WebURL   string `json:"weburl,omitempty"`
}

// Indicators holds fundamental and technical metrics. Every metric is
// optional; nil means the backend did not report it (absent or null).
type Indicators struct {
	// Valuation.
	PERatio    *Metric `json:"peRatio,omitempty"`
	PBRatio    *Metric `json:"pbRatio,omitempty"`
	PSRatio    *Metric `json:"psRatio,omitempty"`
	PCRatio    *Metric `json:"pcRatio,omitempty"`
	EVToEBITDA *Metric `json:"evToEbitda,omitempty"`

	// Profitability.
	ROE             *Metric `json:"roe,omitempty"`
	ROA             *Metric `json:"roa,omitempty"`
	ROIC            *Metric `json:"roic,omitempty"`
	GrossMargin     *Metric `json:"grossMargin,omitempty"`
	OperatingMargin *Metric `json:"operatingMargin,omitempty"`
	NetMargin       *Metric `json:"netMargin,omitempty"`

	// Financial health.
	DebtToEquity            *Metric `json:"debtToEquity,omitempty"`
	CurrentRatio            *Metric `json:"currentRatio,omitempty"`
	QuickRatio              *Metric `json:"quickRatio,omitempty"`
	TotalDebtToTotalCapital *Metric `json:"totalDebtToTotalCapital,omitempty"`

	// Growth.
	RevenueGrowth     *Metric `json:"revenueGrowth,omitempty"`
	EarningsGrowth    *Metric `json:"earningsGrowth,omitempty"`
	BookValuePerShare *Metric `json:"bookValuePerShare,omitempty"`

	// Balance sheet.
	TotalEquity        *Metric `json:"totalEquity,omitempty"`
	TotalAssets        *Metric `json:"totalAssets,omitempty"`
	TotalLiabilities   *Metric `json:"totalLiabilities,omitempty"`
	CashAndEquivalents *Metric `json:"cashAndEquivalents,omitempty"`

	// Income statement.
	EPS             *Metric `json:"eps,omitempty"`
	RevenuePerShare *Metric `json:"revenuePerShare,omitempty"`
	EBITDA          *Metric `json:"ebitda,omitempty"`

	// Market data.
	MarketCap         *Metric `json:"marketCap,omitempty"`
	SharesOutstanding *Metric `json:"sharesOutstanding,omitempty"`
	Beta              *Metric `json:"beta,omitempty"`
	Week52High        *Metric `json:"week52High,omitempty"`
	Week52Low         *Metric `json:"week52Low,omitempty"`
	Week52Change      *Metric `json:"week52Change,omitempty"`

	// Technical.
	RSI       *Metric `json:"rsi,omitempty"`
	MACD      *Metric `json:"macd,omitempty"`
	SMA50     *Metric `json:"sma50,omitempty"`
	SMA200    *Metric `json:"sma200,omitempty"`
	Volume    *Metric `json:"volume,omitempty"`
	AvgVolume *Metric `json:"avgVolume,omitempty"`

	LastUpdated string `json:"lastUpdated,omitempty"`
}

// IndicatorsResponse wraps Indicators as returned by /api/indicators/{symbol}.
type IndicatorsResponse struct {
	Indicators Indicators `json:"indicators"`
}

// Candle status values reported in Candles.S.
const (
	CandleStatusOK     = "ok"
	CandleStatusNoData = "no_data"
)

// Candles is a column-oriented OHLC series from /api/candles/{symbol}.
// T holds unix seconds.
type Candles struct {
	S    string    `json:"s"`
	T    []int64   `json:"t"`
	O    []float64 `json:"o"`
	H    []float64 `json:"h"`
	L    []float64 `json:"l"`
	C    []float64 `json:"c"`
	V    []float64 `json:"v,omitempty"`
	Mock bool      `json:"_mock,omitempty"`
}

// OK reports whether the series carries data.
func (c *Candles) OK() bool {
	return c != nil && c.S == CandleStatusOK
}

// Len returns the number of complete bars (the shortest column length).
func (c *Candles) Len() int {
	if c == nil {
		return 0
	}
	n := len(c.T)
	for _, col := range [][]float64{c.O, c.H, c.L, c.C} {
		if len(col) < n {
			n = len(col)
		}
	}
	return n
}

// PredictionPoint is one forecast day.
type PredictionPoint struct {
	Date          string  `json:"date"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"changePercent"`
	Confidence    float64 `json:"confidence"`
}

// Forecast is the nested prediction payload.
type Forecast struct {
	Predictions []PredictionPoint `json:"predictions"`
}

// Prediction is the sentiment-based forecast from /api/prediction/{symbol}.
type Prediction struct {
	Symbol       string   `json:"symbol,omitempty"`
	CurrentPrice float64  `json:"currentPrice"`
	Sentiment    float64  `json:"sentiment"`
	NewsCount    int      `json:"newsCount,omitempty"`
	Prediction   Forecast `json:"prediction"`
}

// NewsItem is a single article. Datetime is unix seconds.
type NewsItem struct {
	Headline string `json:"headline"`
	Source   string `json:"source"`
	URL      string `json:"url"`
	Datetime int64  `json:"datetime"`
	Summary  string `json:"summary,omitempty"`
}

// SearchResult is one symbol match.
type SearchResult struct {
	Symbol        string `json:"symbol"`
	DisplaySymbol string `json:"displaySymbol,omitempty"`
	Description   string `json:"description"`
	Type          string `json:"type"`
}

// Label is the symbol to display, falling back to Symbol.
func (r SearchResult) Label() string {
	if r.DisplaySymbol != "" {
		return r.DisplaySymbol
	}
	return r.Symbol
}

// SearchResponse wraps the results of /api/search.
type SearchResponse struct {
	Count   int            `json:"count,omitempty"`
	Results []SearchResult `json:"results"`
}

// CryptoQuote is the minimal quote from /api/crypto/{symbol}.
type CryptoQuote struct {
	C float64 `json:"c"`
}

// CryptoAsset is one row of /api/crypto-list.
type CryptoAsset struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	DisplaySymbol string  `json:"displaySymbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
}

// CryptoList is the response of /api/crypto-list. LastUpdated is kept as
// the raw string the backend sends (ISO-8601 or unix millis).
type CryptoList struct {
	Cryptos     []CryptoAsset `json:"cryptos"`
	LastUpdated string        `json:"lastUpdated"`
}

// watchlistAddRequest is the POST body for /api/watchlist.
type watchlistAddRequest struct {
	Symbol string `json:"symbol"`
}
