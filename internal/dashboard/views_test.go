package dashboard

import (
	"math"
	"testing"
	"time"

	"stockboard/pkg/marketapi"
)

func TestNewQuoteView(t *testing.T) {
	v := NewQuoteView("AAPL", &marketapi.Quote{C: 101.5, O: 100, H: 102, L: 99, PC: 100})
	if v.Change != 1.5 {
		t.Errorf("Change = %v, want 1.5", v.Change)
	}
	if math.Abs(v.ChangePercent-1.5) > 1e-9 {
		t.Errorf("ChangePercent = %v, want 1.5", v.ChangePercent)
	}
	if !v.IsPositive {
		t.Error("IsPositive = false, want true")
	}
	if v.ChangeText != "▲ $1.50 (1.50%)" {
		t.Errorf("ChangeText = %q", v.ChangeText)
	}
	if v.PriceText != "$101.50" || v.PrevCloseText != "$100.00" {
		t.Errorf("PriceText = %q, PrevCloseText = %q", v.PriceText, v.PrevCloseText)
	}

	down := NewQuoteView("TSLA", &marketapi.Quote{C: 95, PC: 100})
	if down.IsPositive || down.ChangeText != "▼ $5.00 (-5.00%)" {
		t.Errorf("down = %+v", down)
	}
}

func TestNewQuoteViewZeroPrevClose(t *testing.T) {
	v := NewQuoteView("NEW", &marketapi.Quote{C: 10})
	if v.ChangePercent != 0 || !v.IsPositive {
		t.Errorf("ChangePercent = %v, IsPositive = %v", v.ChangePercent, v.IsPositive)
	}
	if nilView := NewQuoteView("X", nil); nilView.PriceText != "--" {
		t.Errorf("nil quote PriceText = %q", nilView.PriceText)
	}
}

func TestNewChartView(t *testing.T) {
	day := int64(86400)
	base := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC).Unix()
	cs := &marketapi.Candles{
		S:    "ok",
		T:    []int64{base, base + day, base + 2*day},
		O:    []float64{100, 101, 102},
		H:    []float64{101, 103, 111},
		L:    []float64{99, 100, 101},
		C:    []float64{100, 90, 110},
		Mock: true,
	}
	v := NewChartView(cs, time.UTC)
	if v.Empty() {
		t.Fatal("chart is empty")
	}
	if v.Points[0].Label != "Jan 2" || v.Points[2].Label != "Jan 4" {
		t.Errorf("labels = %q, %q", v.Points[0].Label, v.Points[2].Label)
	}
	if v.Min != 90 || v.Max != 110 || v.Avg != 100 {
		t.Errorf("min/max/avg = %v/%v/%v", v.Min, v.Max, v.Avg)
	}
	if v.DomainLow != 89 || v.DomainHigh != 111 {
		t.Errorf("domain = [%v, %v], want [89, 111]", v.DomainLow, v.DomainHigh)
	}
	if math.Abs(v.ChangePercent-10) > 1e-9 || !v.IsPositive {
		t.Errorf("ChangePercent = %v, IsPositive = %v", v.ChangePercent, v.IsPositive)
	}
	if !v.Mock {
		t.Error("Mock flag not propagated")
	}
	if v.ChangeText() != "+10.00%" || v.AvgText() != "$100.00" {
		t.Errorf("ChangeText = %q, AvgText = %q", v.ChangeText(), v.AvgText())
	}
}

func TestNewChartViewNoData(t *testing.T) {
	if v := NewChartView(&marketapi.Candles{S: "no_data"}, time.UTC); !v.Empty() {
		t.Error("no_data should produce an empty chart")
	}
	if v := NewChartView(nil, time.UTC); !v.Empty() {
		t.Error("nil candles should produce an empty chart")
	}
}

func TestCandleWindow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	from, to := CandleWindow(now, 0)
	if to.Unix() != 1_700_000_000 {
		t.Errorf("to = %d", to.Unix())
	}
	if got := to.Unix() - from.Unix(); got != 30*86400 {
		t.Errorf("window = %ds, want 30 days", got)
	}
}

func TestTrendLabel(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.5, "Bullish"},
		{0.1, "Neutral"},
		{0, "Neutral"},
		{-0.1, "Neutral"},
		{-0.11, "Bearish"},
	}
	for _, tt := range tests {
		if got := TrendLabel(tt.in); got != tt.want {
			t.Errorf("TrendLabel(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewPredictionView(t *testing.T) {
	var pts []marketapi.PredictionPoint
	for i := 0; i < 10; i++ {
		pts = append(pts, marketapi.PredictionPoint{
			Date:          time.Date(2024, 5, 2+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
			Price:         100 + float64(i),
			ChangePercent: float64(i) - 1,
			Confidence:    80 - float64(i),
		})
	}
	v := NewPredictionView(&marketapi.Prediction{
		CurrentPrice: 99,
		Sentiment:    -0.3,
		Prediction:   marketapi.Forecast{Predictions: pts},
	})
	if v == nil {
		t.Fatal("view is nil")
	}
	if len(v.Points) != 7 {
		t.Fatalf("len(Points) = %d, want 7", len(v.Points))
	}
	if v.Trend != "Bearish" {
		t.Errorf("Trend = %q", v.Trend)
	}
	if v.Points[0].Day != "Day 1" || v.Points[0].Date != "May 2" {
		t.Errorf("first point = %+v", v.Points[0])
	}
	if v.Last.Price != 106 || v.First.ChangeText() != "-1.00%" {
		t.Errorf("first/last = %+v / %+v", v.First, v.Last)
	}
	if v.AvgConfidence != 77 || v.AvgConfidenceText() != "77%" {
		t.Errorf("AvgConfidence = %v (%q)", v.AvgConfidence, v.AvgConfidenceText())
	}

	if NewPredictionView(&marketapi.Prediction{}) != nil {
		t.Error("empty prediction should yield nil view")
	}
}

func TestNewNewsView(t *testing.T) {
	items := []marketapi.NewsItem{
		{Headline: "a", Source: "Reuters", URL: "u1", Datetime: time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC).Unix()},
		{Headline: "b"},
		{Headline: "c"},
	}
	got := NewNewsView(items, 2, time.UTC)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Date != "3/5/2024" || got[0].Source != "Reuters" {
		t.Errorf("got[0] = %+v", got[0])
	}
	if all := NewNewsView(items, 0, time.UTC); len(all) != 3 {
		t.Errorf("limit 0 len = %d, want 3", len(all))
	}
}

func TestNewCryptoView(t *testing.T) {
	v := NewCryptoView(marketapi.CryptoAsset{
		Symbol: "BINANCE:DOGEUSDT", Price: 0.12345, Change: -0.004, ChangePercent: -3.1, High: 0.13, Low: 0.12,
	})
	if v.PriceText != "$0.1235" {
		t.Errorf("PriceText = %q", v.PriceText)
	}
	if v.ChangeText != "▼ 3.10%" || v.IsPositive {
		t.Errorf("ChangeText = %q, IsPositive = %v", v.ChangeText, v.IsPositive)
	}
	if v.Name != "DOGEUSDT" || v.DisplaySymbol != "BINANCE:DOGEUSDT" {
		t.Errorf("Name = %q, DisplaySymbol = %q", v.Name, v.DisplaySymbol)
	}
	if !v.HasRange || v.HighText != "$0.13" {
		t.Errorf("HighText = %q", v.HighText)
	}
	if !v.HasChange || v.AbsChange != "$0.00" {
		t.Errorf("AbsChange = %q", v.AbsChange)
	}

	empty := NewCryptoView(marketapi.CryptoAsset{Symbol: "X"})
	if empty.PriceText != "--" || empty.HasRange || empty.HasChange {
		t.Errorf("empty = %+v", empty)
	}
}
