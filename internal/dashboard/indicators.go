package dashboard

import (
	"stockboard/internal/format"
	"stockboard/pkg/marketapi"
)

// IndicatorRow is one labelled metric.
type IndicatorRow struct {
	Label string
	Value string
}

// IndicatorGroup is a titled block of metrics.
type IndicatorGroup struct {
	Title string
	Rows  []IndicatorRow
}

type metricKind int

const (
	kindPlain metricKind = iota
	kindCompact
)

type metricDef struct {
	label string
	kind  metricKind
	get   func(*marketapi.Indicators) *marketapi.Metric
}

type groupDef struct {
	title   string
	metrics []metricDef
}

var indicatorGroups = []groupDef{
	{"Valuation Metrics", []metricDef{
		{"P/E Ratio", kindPlain, func(i *marketapi.Indicators) *marketapi.Metric { return i.PERatio }},
		{"P/B Ratio", kindPlain, func(i *marketapi.Indicators) *marketapi.Metric { return i.PBRatio }},
		{"P/S Ratio", kindPlain, func(i *marketapi.Indicators) *marketapi.Metric { return i.PSRatio }},
		{"P/CF Ratio", kindPlain, func(i *marketapi.Indicators) *marketapi.Metric { return i.PCRatio }},
		{"EV/EBITDA", kindPlain, func(i *marketapi.Indicators) *marketapi.Metric { return i.EVToEBITDA }},
	}},
	{"Profitability", []metricDef{
		{"ROE (Return on Equity)", kindPlain, func(i *marketapi.Indicators) *marketapi.Metric { return i.ROE }},
		{"ROA (Return on Assets)", kindPlain, func(i *marketapi.Indicators) *marketapi.Metric { return i.ROA }},
		{"ROIC", kindPlain, func(i *marketapi.Indicators) *marketapi.Metric { return i.ROIC }},
		{"Gross Margin", kindPlain, func(i *marketapi.Indicators) *marketapi.Metric { return i.GrossMargin }},
		{"Operating Margin", kindPlain, func(i *marketapi.Indicators) *marketapi.Metric { return i.OperatingMargin }},
		{"Net Margin", kindPlain, func(i *marketapi.Indicators) *marketapi.Metric { return i.NetMargin }},
	}},
	{"Financial Health", []metricDef{
		{"Debt-to-Equity", kindPlain, func(i *marketapi.Indicators) *marketapi.Metric { return i.DebtToEquity }},
		{"Current Ratio", kindPlain, func(i *marketapi.Indicators) *marketapi.Metric { return i.CurrentRatio }},
		{"Quick Ratio", kindPlain, func(i *marketapi.Indicators) *marketapi.Metric { return i.QuickRatio }},
		{"Total Debt/Capital", kindPlain, func(i *marketapi.Indicators) *marketapi.Metric { return i.TotalDebtToTotalCapital }},
	}},
	{"Growth Metrics", []metricDef{
		{"Revenue Growth", kindPlain, func(i *marketapi.Indicators) *marketapi.Metric { return i.RevenueGrowth }},
		{"Earnings Growth", kindPlain, func(i *marketapi.Indicators) *marketapi.Metric { return i.EarningsGrowth }},
		{"Book Value/Share", kindPlain, func(i *marketapi.Indicators) *marketapi.Metric { return i.BookValuePerShare }},
	}},
	{"Balance Sheet", []metricDef{
		{"Total Equity", kindCompact, func(i *marketapi.Indicators) *marketapi.Metric { return i.TotalEquity }},
		{"Total Assets", kindCompact, func(i *marketapi.Indicators) *marketapi.Metric { return i.TotalAssets }},
		{"Total Liabilities", kindCompact, func(i *marketapi.Indicators) *marketapi.Metric { return i.TotalLiabilities }},
		{"Cash & Equivalents", kindCompact, func(i *marketapi.Indicators) *marketapi.Metric { return i.CashAndEquivalents }},
	}},
	{"Income Statement", []metricDef{
		{"EPS (Earnings Per Share)", kindPlain, func(i *marketapi.Indicators) *marketapi.Metric { return i.EPS }},
		{"Revenue Per Share", kindPlain, func(i *marketapi.Indicators) *marketapi.Metric { return i.RevenuePerShare }},
		{"EBITDA", kindCompact, func(i *marketapi.Indicators) *marketapi.Metric { return i.EBITDA }},
	}},
	{"Market Data", []metricDef{
		{"Market Cap", kindCompact, func(i *marketapi.Indicators) *marketapi.Metric { return i.MarketCap }},
		{"Shares Outstanding", kindCompact, func(i *marketapi.Indicators) *marketapi.Metric { return i.SharesOutstanding }},
		{"Beta", kindPlain, func(i *marketapi.Indicators) *marketapi.Metric { return i.Beta }},
		{"52W High", kindPlain, func(i *marketapi.Indicators) *marketapi.Metric { return i.Week52High }},
		{"52W Low", kindPlain, func(i *marketapi.Indicators) *marketapi.Metric { return i.Week52Low }},
		{"52W Change", kindPlain, func(i *marketapi.Indicators) *marketapi.Metric { return i.Week52Change }},
	}},
	{"Technical Indicators", []metricDef{
		{"RSI (14)", kindPlain, func(i *marketapi.Indicators) *marketapi.Metric { return i.RSI }},
		{"MACD", kindPlain, func(i *marketapi.Indicators) *marketapi.Metric { return i.MACD }},
		{"SMA (50)", kindPlain, func(i *marketapi.Indicators) *marketapi.Metric { return i.SMA50 }},
		{"SMA (200)", kindPlain, func(i *marketapi.Indicators) *marketapi.Metric { return i.SMA200 }},
		{"Volume", kindCompact, func(i *marketapi.Indicators) *marketapi.Metric { return i.Volume }},
		{"Avg Volume", kindCompact, func(i *marketapi.Indicators) *marketapi.Metric { return i.AvgVolume }},
	}},
}

// GroupIndicators arranges the reported metrics into their display groups.
// Unreported metrics are skipped and groups left empty are dropped.
func GroupIndicators(ind *marketapi.Indicators) []IndicatorGroup {
	if ind == nil {
		return nil
	}
	var groups []IndicatorGroup
	for _, g := range indicatorGroups {
		var rows []IndicatorRow
		for _, m := range g.metrics {
			v := m.get(ind)
			if v == nil {
				continue
			}
			rows = append(rows, IndicatorRow{Label: m.label, Value: metricText(v, m.kind)})
		}
		if len(rows) > 0 {
			groups = append(groups, IndicatorGroup{Title: g.title, Rows: rows})
		}
	}
	return groups
}

func metricText(m *marketapi.Metric, kind metricKind) string {
	if m.IsNumber && kind == kindCompact {
		return format.Compact(m.Value)
	}
	if s := m.String(); s != "" {
		return s
	}
	return format.Missing
}
