// Package dashboard turns backend responses into display-ready view models
// shared by the web server, the terminal client and the CLI.
package dashboard

import (
	"fmt"
	"math"
	"strings"
	"time"

	"stockboard/internal/format"
	"stockboard/pkg/marketapi"
)

// NoChartData is shown in place of a chart with no usable candles.
const NoChartData = "No chart data available"

// DefaultChartDays is the candle window requested for the stock chart.
const DefaultChartDays = 30

// QuoteView is a quote with derived change fields.
type QuoteView struct {
	Symbol        string
	Price         float64
	Change        float64 // current - previous close
	ChangePercent float64
	IsPositive    bool

	PriceText     string
	ChangeText    string // "▲ $1.23 (0.79%)"
	PercentText   string // "+0.79%"
	OpenText      string
	HighText      string
	LowText       string
	PrevCloseText string
}

// NewQuoteView derives change and change percent from the current price and
// previous close. Change percent is 0 when the previous close is 0.
func NewQuoteView(symbol string, q *marketapi.Quote) QuoteView {
	v := QuoteView{Symbol: symbol}
	if q == nil {
		v.PriceText = format.Missing
		return v
	}
	v.Price = q.C
	v.Change = q.C - q.PC
	if q.PC != 0 {
		v.ChangePercent = v.Change / q.PC * 100
	}
	v.IsPositive = v.ChangePercent >= 0

	v.PriceText = format.USD(q.C)
	v.ChangeText = format.Arrow(v.ChangePercent) + " " + format.ChangeAbs(q.C, q.PC) +
		" (" + format.Price(v.ChangePercent) + "%)"
	v.PercentText = format.SignedPercent(v.ChangePercent)
	v.OpenText = format.USD(q.O)
	v.HighText = format.USD(q.H)
	v.LowText = format.USD(q.L)
	v.PrevCloseText = format.USD(q.PC)
	return v
}

// StockCard is a symbol tile on the home page.
type StockCard struct {
	Symbol    string
	PriceText string
	Loaded    bool
}

// ChartPoint is one daily bar with its axis label.
type ChartPoint struct {
	Label string // "Jan 2"
	Time  time.Time
	Close float64
	Open  float64
	High  float64
	Low   float64
}

// ChartView summarizes a candle series for the price chart.
type ChartView struct {
	Points []ChartPoint

	Min, Max, Avg float64
	// DomainLow and DomainHigh pad the price range by 5% on each side.
	DomainLow  float64
	DomainHigh float64

	ChangePercent float64 // first close to last close
	IsPositive    bool
	Mock          bool
}

// Empty reports whether there is nothing to chart.
func (v ChartView) Empty() bool { return len(v.Points) == 0 }

// MinText, MaxText and AvgText are the chart footer values.
func (v ChartView) MinText() string { return format.USD(v.Min) }
func (v ChartView) MaxText() string { return format.USD(v.Max) }
func (v ChartView) AvgText() string { return format.USD(v.Avg) }

// ChangeText is the trend badge, e.g. "+3.20%".
func (v ChartView) ChangeText() string { return format.SignedPercent(v.ChangePercent) }

// NewChartView builds a chart from candles with status "ok". Anything else
// yields an empty view.
func NewChartView(c *marketapi.Candles, loc *time.Location) ChartView {
	if !c.OK() || c.Len() == 0 {
		return ChartView{}
	}
	if loc == nil {
		loc = time.Local
	}

	n := c.Len()
	v := ChartView{
		Points: make([]ChartPoint, n),
		Min:    math.MaxFloat64,
		Max:    -math.MaxFloat64,
		Mock:   c.Mock,
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		ts := time.Unix(c.T[i], 0).In(loc)
		v.Points[i] = ChartPoint{
			Label: format.ShortDate(ts),
			Time:  ts,
			Close: c.C[i],
			Open:  c.O[i],
			High:  c.H[i],
			Low:   c.L[i],
		}
		sum += c.C[i]
		v.Min = math.Min(v.Min, c.C[i])
		v.Max = math.Max(v.Max, c.C[i])
	}
	v.Avg = sum / float64(n)

	pad := (v.Max - v.Min) * 0.05
	v.DomainLow = v.Min - pad
	v.DomainHigh = v.Max + pad

	first, last := c.C[0], c.C[n-1]
	if first != 0 {
		v.ChangePercent = (last - first) / first * 100
	}
	v.IsPositive = last >= first
	return v
}

// CandleWindow returns the [from, to] range for a chart of the last days.
func CandleWindow(now time.Time, days int) (from, to time.Time) {
	if days <= 0 {
		days = DefaultChartDays
	}
	to = now.Truncate(time.Second)
	from = to.Add(-time.Duration(days) * 24 * time.Hour)
	return from, to
}

// Trend labels for prediction sentiment.
const (
	TrendBullish = "Bullish"
	TrendBearish = "Bearish"
	TrendNeutral = "Neutral"
)

// TrendLabel classifies a sentiment score.
func TrendLabel(sentiment float64) string {
	switch {
	case sentiment > 0.1:
		return TrendBullish
	case sentiment < -0.1:
		return TrendBearish
	default:
		return TrendNeutral
	}
}

// MaxPredictionDays is how many forecast points are shown.
const MaxPredictionDays = 7

// PredictionPoint is one forecast day ready for display.
type PredictionPoint struct {
	Day           string // "Day 1"
	Date          string // "Jan 2"
	Price         float64
	ChangePercent float64
	Confidence    float64
}

// PriceText renders the point price.
func (p PredictionPoint) PriceText() string { return format.USD(p.Price) }

// ChangeText renders the point change percent with its sign.
func (p PredictionPoint) ChangeText() string { return format.SignedPercent(p.ChangePercent) }

// PredictionView is the 7-day forecast panel.
type PredictionView struct {
	CurrentPrice  float64
	Sentiment     float64
	Trend         string
	NewsCount     int
	Points        []PredictionPoint
	First, Last   PredictionPoint
	AvgConfidence float64
}

// AvgConfidenceText renders the average confidence as a whole percent.
func (v PredictionView) AvgConfidenceText() string {
	return fmt.Sprintf("%.0f%%", v.AvgConfidence)
}

// NewPredictionView returns nil when there are no forecast points.
func NewPredictionView(p *marketapi.Prediction) *PredictionView {
	if p == nil || len(p.Prediction.Predictions) == 0 {
		return nil
	}
	src := p.Prediction.Predictions
	if len(src) > MaxPredictionDays {
		src = src[:MaxPredictionDays]
	}

	v := &PredictionView{
		CurrentPrice: p.CurrentPrice,
		Sentiment:    p.Sentiment,
		Trend:        TrendLabel(p.Sentiment),
		NewsCount:    p.NewsCount,
		Points:       make([]PredictionPoint, len(src)),
	}
	conf := 0.0
	for i, pt := range src {
		v.Points[i] = PredictionPoint{
			Day:           fmt.Sprintf("Day %d", i+1),
			Date:          predictionDate(pt.Date),
			Price:         pt.Price,
			ChangePercent: pt.ChangePercent,
			Confidence:    pt.Confidence,
		}
		conf += pt.Confidence
	}
	v.First = v.Points[0]
	v.Last = v.Points[len(v.Points)-1]
	v.AvgConfidence = conf / float64(len(v.Points))
	return v
}

func predictionDate(s string) string {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return format.ShortDate(t)
		}
	}
	return s
}

// NewsView is one article row.
type NewsView struct {
	Headline string
	Source   string
	URL      string
	Date     string // "1/2/2006"
}

// NewNewsView converts up to limit items; limit <= 0 keeps all.
func NewNewsView(items []marketapi.NewsItem, limit int, loc *time.Location) []NewsView {
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	out := make([]NewsView, 0, len(items))
	for _, it := range items {
		out = append(out, NewsView{
			Headline: it.Headline,
			Source:   it.Source,
			URL:      it.URL,
			Date:     format.NewsDate(it.Datetime, loc),
		})
	}
	return out
}

// CryptoView is one crypto card.
type CryptoView struct {
	Symbol        string
	Name          string
	DisplaySymbol string
	IsPositive    bool

	PriceText  string
	ChangeText string // "▲ 1.23%"
	HighText   string
	LowText    string
	AbsChange  string
	HasRange   bool
	HasChange  bool
}

// NewCryptoView formats a crypto-list row.
func NewCryptoView(a marketapi.CryptoAsset) CryptoView {
	v := CryptoView{
		Symbol:        a.Symbol,
		Name:          a.Name,
		DisplaySymbol: a.DisplaySymbol,
		IsPositive:    a.ChangePercent >= 0,
		PriceText:     format.CryptoPrice(a.Price),
		ChangeText:    format.ArrowPercent(a.ChangePercent),
		HasRange:      a.High != 0 && a.Low != 0,
		HasChange:     a.Change != 0,
	}
	if v.Name == "" {
		v.Name = strings.TrimPrefix(a.Symbol, "BINANCE:")
	}
	if v.DisplaySymbol == "" {
		v.DisplaySymbol = a.Symbol
	}
	if v.HasRange {
		v.HighText = format.USD(a.High)
		v.LowText = format.USD(a.Low)
	}
	if v.HasChange {
		v.AbsChange = format.USD(math.Abs(a.Change))
	}
	return v
}
