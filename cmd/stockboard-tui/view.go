package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"stockboard/internal/dashboard"
	"stockboard/internal/format"
)

// Styles.
var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	tabStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	tabActive     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	sectionStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	symbolStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75")).Background(lipgloss.Color("236"))
	gainStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warnStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
)

func changeStyle(positive bool) lipgloss.Style {
	if positive {
		return gainStyle
	}
	return lossStyle
}

var tabOrder = []page{pageHome, pageStock, pageCrypto, pageWatchlist, pageNews}

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var tabs []string
	for i, p := range tabOrder {
		label := fmt.Sprintf(" %d %s ", i+1, pageTitles[p])
		if p == m.page {
			tabs = append(tabs, tabActive.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	header := headerStyle.Render(" Stock Analysis ") + " " + strings.Join(tabs, "")
	if m.loading {
		header += dimStyle.Render("  loading...")
	}

	var footerText string
	switch {
	case m.searching:
		footerText = " " + m.input.View()
	case m.status != "":
		footerText = " " + m.status
	default:
		footerText = " q quit  1-5 pages  / search  enter open  a add  d remove  f filter  s sort  r refresh"
	}
	footer := footerStyle.Render(padOrTrunc(footerText, m.width))

	return header + "\n" + m.viewport.View() + "\n" + footer
}

func (m model) renderContent() string {
	var b strings.Builder
	switch m.page {
	case pageHome:
		renderHome(&b, m.home, m.cursor)
	case pageStock:
		renderStock(&b, m.symbol, m.stock, m.inWatchlist)
	case pageCrypto:
		renderCrypto(&b, m.crypto)
	case pageWatchlist:
		renderWatchlist(&b, m.visibleRows(), m.wlTotal, m.filter, m.sortBy, m.cursor)
	case pageNews:
		b.WriteString(titleStyle.Render("Market News & Analysis") + "\n\n")
		if m.news != nil {
			renderNews(&b, m.news.Items)
		}
	case pageSearch:
		renderSearch(&b, m.search, m.cursor)
	}
	return b.String()
}

func renderHome(b *strings.Builder, p *dashboard.HomePage, cursor int) {
	b.WriteString(titleStyle.Render("Stock Market Dashboard") + "\n\n")
	if p == nil {
		return
	}
	b.WriteString(sectionStyle.Render("Top Tech Stocks") + "\n")
	for i, c := range p.Cards {
		line := fmt.Sprintf("  %-8s %12s", c.Symbol, c.PriceText)
		if i == cursor {
			b.WriteString(selectedStyle.Render(line))
		} else {
			b.WriteString(symbolStyle.Render(fmt.Sprintf("  %-8s", c.Symbol)) + fmt.Sprintf(" %12s", c.PriceText))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n" + sectionStyle.Render("Latest Market News") + "\n")
	renderNews(b, p.News)
}

func renderNews(b *strings.Builder, items []dashboard.NewsView) {
	if len(items) == 0 {
		b.WriteString(dimStyle.Render("  No news available at the moment.") + "\n")
		return
	}
	for _, n := range items {
		b.WriteString("  " + n.Headline + "\n")
		meta := n.Source
		if n.Date != "" {
			meta += " • " + n.Date
		}
		b.WriteString("    " + dimStyle.Render(meta) + "\n")
	}
}

func renderStock(b *strings.Builder, symbol string, p *dashboard.StockPage, inWatchlist bool) {
	b.WriteString(titleStyle.Render(symbol))
	if inWatchlist {
		b.WriteString(dimStyle.Render("  ★ in watchlist"))
	}
	b.WriteString("\n")
	if p == nil {
		return
	}
	if p.Unsupported != "" {
		b.WriteString("\n" + warnStyle.Render("Exchange Not Supported") + "\n")
		b.WriteString("  " + p.Unsupported + "\n")
		b.WriteString(dimStyle.Render("  Fully supported: US Stocks (AAPL, GOOGL, TSLA, MSFT, AMZN, META, NVDA, ...)") + "\n")
		return
	}
	if line := p.CompanyLine(); line != "" {
		b.WriteString(dimStyle.Render(line) + "\n")
	}
	b.WriteString("\n")

	if q := p.Quote; q != nil {
		b.WriteString(fmt.Sprintf("  %s  %s\n", titleStyle.Render(q.PriceText), changeStyle(q.IsPositive).Render(q.ChangeText)))
		b.WriteString(fmt.Sprintf("  Open %s   High %s   Low %s   Prev Close %s\n", q.OpenText, q.HighText, q.LowText, q.PrevCloseText))
	} else {
		b.WriteString("  " + format.Missing + "\n")
	}

	b.WriteString("\n" + sectionStyle.Render("Price History"))
	if p.ChartArchive {
		b.WriteString(dimStyle.Render(" (archived)"))
	}
	b.WriteString("\n")
	if p.Chart.Empty() {
		b.WriteString(dimStyle.Render("  "+dashboard.NoChartData) + "\n")
	} else {
		c := p.Chart
		b.WriteString(fmt.Sprintf("  Low %s   High %s   Avg %s   %s\n",
			c.MinText(), c.MaxText(), c.AvgText(), changeStyle(c.IsPositive).Render(c.ChangeText())))
		start := max(len(c.Points)-5, 0)
		for _, pt := range c.Points[start:] {
			b.WriteString(fmt.Sprintf("  %-7s %s\n", pt.Label, format.USD(pt.Close)))
		}
	}

	if pr := p.Prediction; pr != nil {
		b.WriteString("\n" + sectionStyle.Render("7-Day Price Prediction") + "\n")
		b.WriteString(fmt.Sprintf("  Trend %s   Sentiment %.2f   %d articles   Avg confidence %s\n",
			pr.Trend, pr.Sentiment, pr.NewsCount, pr.AvgConfidenceText()))
		for _, pt := range pr.Points {
			b.WriteString(fmt.Sprintf("  %-6s %-7s %12s %s\n", pt.Day, pt.Date, pt.PriceText(),
				changeStyle(pt.ChangePercent >= 0).Render(pt.ChangeText())))
		}
	}

	b.WriteString("\n" + sectionStyle.Render("Key Indicators") + "\n")
	if p.IndicatorsError != "" {
		b.WriteString("  " + lossStyle.Render(p.IndicatorsError) + "\n")
	} else if len(p.Indicators) == 0 {
		b.WriteString(dimStyle.Render("  No financial data available") + "\n")
	}
	for _, g := range p.Indicators {
		b.WriteString("  " + titleStyle.Render(g.Title) + "\n")
		for _, r := range g.Rows {
			b.WriteString(fmt.Sprintf("    %-28s %s\n", r.Label, r.Value))
		}
	}
	if p.IndicatorsUpdated != "" {
		b.WriteString(dimStyle.Render("  Last updated: "+p.IndicatorsUpdated) + "\n")
	}

	b.WriteString("\n" + sectionStyle.Render("Latest News") + "\n")
	renderNews(b, p.News)
}

func renderCrypto(b *strings.Builder, p *dashboard.CryptoPage) {
	b.WriteString(titleStyle.Render("Cryptocurrency Prices") + "\n")
	if p == nil {
		return
	}
	if p.LastUpdated != "" {
		b.WriteString(dimStyle.Render("Last updated: "+p.LastUpdated) + "\n")
	}
	b.WriteString("\n")
	if len(p.Assets) == 0 {
		b.WriteString(dimStyle.Render("  No crypto prices available.") + "\n")
		return
	}
	for _, a := range p.Assets {
		line := fmt.Sprintf("  %-12s %-12s %14s ", a.Name, a.DisplaySymbol, a.PriceText)
		b.WriteString(line + changeStyle(a.IsPositive).Render(a.ChangeText))
		if a.HasRange {
			b.WriteString(dimStyle.Render(fmt.Sprintf("   H %s  L %s", a.HighText, a.LowText)))
		}
		b.WriteString("\n")
	}
}

func renderWatchlist(b *strings.Builder, rows []dashboard.WatchlistRow, total int, f dashboard.WatchlistFilter, s dashboard.WatchlistSort, cursor int) {
	b.WriteString(titleStyle.Render("My Watchlist") + "\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d stocks in watchlist   filter: %s   sort: %s", total, f.Label(), s.Label())) + "\n\n")
	if total == 0 {
		b.WriteString("  Your watchlist is empty\n")
		b.WriteString(dimStyle.Render("  Press / to search, then a to add a symbol.") + "\n")
		return
	}
	if len(rows) == 0 {
		b.WriteString(dimStyle.Render("  No stocks match this filter.") + "\n")
		return
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %-8s %12s %20s %12s %12s", "Symbol", "Price", "Change", "High", "Low")) + "\n")
	for i, r := range rows {
		sym := fmt.Sprintf("  %-8s", r.Symbol)
		if i == cursor {
			sym = selectedStyle.Render(sym)
		} else {
			sym = symbolStyle.Render(sym)
		}
		if !r.Loaded {
			b.WriteString(sym + dimStyle.Render(" Loading...") + "\n")
			continue
		}
		b.WriteString(sym + fmt.Sprintf(" %12s ", r.PriceText()))
		b.WriteString(changeStyle(r.IsPositive()).Render(fmt.Sprintf("%20s", r.ChangeText())))
		b.WriteString(fmt.Sprintf(" %12s %12s\n", r.HighText(), r.LowText()))
	}
}

func renderSearch(b *strings.Builder, p *dashboard.SearchPage, cursor int) {
	b.WriteString(titleStyle.Render("Search") + "\n")
	if p == nil {
		return
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("%q: %d results", p.Query, len(p.Results))) + "\n\n")
	for i, r := range p.Results {
		line := fmt.Sprintf("  %-12s %s", r.Label(), r.Description)
		if i == cursor {
			b.WriteString(selectedStyle.Render(line))
		} else {
			b.WriteString(line)
		}
		if r.Type != "" {
			b.WriteString(dimStyle.Render("  " + r.Type))
		}
		b.WriteString("\n")
	}
}

func padOrTrunc(s string, width int) string {
	n := lipgloss.Width(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
