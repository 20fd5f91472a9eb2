package main

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"stockboard/internal/dashboard"
	"stockboard/internal/watchlist"
)

type page int

const (
	pageHome page = iota
	pageStock
	pageCrypto
	pageWatchlist
	pageNews
	pageSearch
)

var pageTitles = map[page]string{
	pageHome:      "Home",
	pageStock:     "Stock",
	pageCrypto:    "Crypto",
	pageWatchlist: "Watchlist",
	pageNews:      "News",
	pageSearch:    "Search",
}

// Messages.
type homeLoadedMsg struct {
	page *dashboard.HomePage
	err  error
}

type stockLoadedMsg struct {
	page        *dashboard.StockPage
	inWatchlist bool
	err         error
}

type cryptoLoadedMsg struct {
	page *dashboard.CryptoPage
	err  error
}

type watchlistLoadedMsg struct {
	rows  []dashboard.WatchlistRow
	total int
	err   error
}

type newsLoadedMsg struct {
	page *dashboard.NewsPage
	err  error
}

type searchLoadedMsg struct {
	page *dashboard.SearchPage
	err  error
}

type watchlistToggleMsg struct {
	symbol string
	added  bool
	err    error
}

type watchlistEventMsg watchlist.Event

type cryptoTickMsg time.Time

// Model.
type model struct {
	ctx    context.Context
	cancel context.CancelFunc
	loader *dashboard.Loader
	store  watchlist.Store
	logger *slog.Logger

	cryptoRefresh time.Duration
	events        <-chan watchlist.Event
	unsubscribe   func()

	page    page
	symbol  string // stock page symbol
	cursor  int
	loading bool
	status  string

	home   *dashboard.HomePage
	stock  *dashboard.StockPage
	crypto *dashboard.CryptoPage
	news   *dashboard.NewsPage
	search *dashboard.SearchPage

	inWatchlist bool
	wlRows      []dashboard.WatchlistRow // unfiltered
	wlTotal     int
	filter      dashboard.WatchlistFilter
	sortBy      dashboard.WatchlistSort

	input     textinput.Model
	searching bool

	viewport      viewport.Model
	ready         bool
	width, height int
}

func initialModel(ctx context.Context, cancel context.CancelFunc, loader *dashboard.Loader, store watchlist.Store, logger *slog.Logger, cryptoRefresh time.Duration) model {
	ti := textinput.New()
	ti.Placeholder = "Search symbol or company"
	ti.CharLimit = 64

	if cryptoRefresh <= 0 {
		cryptoRefresh = 30 * time.Second
	}
	m := model{
		ctx:           ctx,
		cancel:        cancel,
		loader:        loader,
		store:         store,
		logger:        logger,
		cryptoRefresh: cryptoRefresh,
		page:          pageHome,
		filter:        dashboard.FilterAll,
		sortBy:        dashboard.SortSymbol,
		input:         ti,
		unsubscribe:   func() {},
	}
	if sub, ok := store.(watchlist.Subscriber); ok {
		id, ch := sub.Subscribe(16)
		m.events = ch
		m.unsubscribe = func() { sub.Unsubscribe(id) }
	}
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(pageHome), cryptoTickCmd(m.cryptoRefresh), waitForEvent(m.events))
}

func cryptoTickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return cryptoTickMsg(t)
	})
}

// waitForEvent blocks on the next watchlist change. A nil channel yields a
// nil command.
func waitForEvent(ch <-chan watchlist.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return nil
		}
		return watchlistEventMsg(evt)
	}
}

// loadCmd fetches the data for p in the background.
func (m model) loadCmd(p page) tea.Cmd {
	ctx, l, store, logger := m.ctx, m.loader, m.store, m.logger
	switch p {
	case pageHome:
		return func() tea.Msg {
			hp, err := l.Home(ctx)
			return homeLoadedMsg{page: hp, err: err}
		}
	case pageStock:
		sym := m.symbol
		return func() tea.Msg {
			sp, err := l.Stock(ctx, sym)
			if err != nil {
				return stockLoadedMsg{err: err}
			}
			in, err := store.Contains(ctx, sym)
			if err != nil {
				logger.Warn("watchlist lookup failed", "symbol", sym, "error", err)
			}
			return stockLoadedMsg{page: sp, inWatchlist: in}
		}
	case pageCrypto:
		return func() tea.Msg {
			cp, err := l.Crypto(ctx)
			return cryptoLoadedMsg{page: cp, err: err}
		}
	case pageWatchlist:
		return func() tea.Msg {
			syms, err := store.List(ctx)
			if err != nil {
				return watchlistLoadedMsg{err: err}
			}
			wp, err := l.Watchlist(ctx, syms, dashboard.FilterAll, dashboard.SortSymbol)
			if err != nil {
				return watchlistLoadedMsg{err: err}
			}
			return watchlistLoadedMsg{rows: wp.Rows, total: wp.Total}
		}
	case pageNews:
		return func() tea.Msg {
			np, err := l.News(ctx)
			return newsLoadedMsg{page: np, err: err}
		}
	case pageSearch:
		q := m.input.Value()
		return func() tea.Msg {
			sp, err := l.Search(ctx, q, "all", "all")
			return searchLoadedMsg{page: sp, err: err}
		}
	}
	return nil
}

// toggleCmd adds or removes symbol from the watchlist.
func (m model) toggleCmd(symbol string, add bool) tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		var err error
		if add {
			err = store.Add(ctx, symbol)
		} else {
			err = store.Remove(ctx, symbol)
		}
		return watchlistToggleMsg{symbol: symbol, added: add, err: err}
	}
}

// visibleRows applies the current filter and sort to the watchlist.
func (m model) visibleRows() []dashboard.WatchlistRow {
	rows := dashboard.FilterWatchlist(m.wlRows, m.filter)
	dashboard.SortWatchlist(rows, m.sortBy)
	return rows
}

// selectable returns the symbols the cursor moves over on the current page.
func (m model) selectable() []string {
	var syms []string
	switch m.page {
	case pageHome:
		if m.home != nil {
			for _, c := range m.home.Cards {
				syms = append(syms, c.Symbol)
			}
		}
	case pageWatchlist:
		for _, r := range m.visibleRows() {
			syms = append(syms, r.Symbol)
		}
	case pageSearch:
		if m.search != nil {
			for _, r := range m.search.Results {
				syms = append(syms, r.Symbol)
			}
		}
	}
	return syms
}

// selected returns the symbol under the cursor, or the stock page symbol.
func (m model) selected() string {
	if m.page == pageStock {
		return m.symbol
	}
	syms := m.selectable()
	if m.cursor >= 0 && m.cursor < len(syms) {
		return syms[m.cursor]
	}
	return ""
}

func (m model) switchTo(p page) (model, tea.Cmd) {
	m.page = p
	m.cursor = 0
	m.loading = true
	m.status = ""
	m.refreshContent()
	m.viewport.GotoTop()
	return m, m.loadCmd(p)
}

func (m model) openStock(symbol string) (model, tea.Cmd) {
	sym, err := watchlist.Normalize(symbol)
	if err != nil {
		m.status = err.Error()
		m.refreshContent()
		return m, nil
	}
	m.symbol = sym
	m.stock = nil
	return m.switchTo(pageStock)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.searching {
			return m.updateSearchInput(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			m.unsubscribe()
			m.cancel()
			return m, tea.Quit
		case "1":
			return m.switchTo(pageHome)
		case "2":
			if m.symbol == "" {
				m.symbol = "AAPL"
			}
			return m.switchTo(pageStock)
		case "3":
			return m.switchTo(pageCrypto)
		case "4":
			return m.switchTo(pageWatchlist)
		case "5":
			return m.switchTo(pageNews)
		case "/":
			m.searching = true
			m.input.SetValue("")
			return m, m.input.Focus()
		case "r":
			m.loading = true
			m.refreshContent()
			return m, m.loadCmd(m.page)
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.refreshContent()
			}
			return m, nil
		case "down", "j":
			if m.cursor < len(m.selectable())-1 {
				m.cursor++
				m.refreshContent()
			}
			return m, nil
		case "enter":
			if sym := m.selected(); sym != "" && m.page != pageStock {
				return m.openStock(sym)
			}
			return m, nil
		case "a":
			if sym := m.selected(); sym != "" {
				return m, m.toggleCmd(sym, true)
			}
			return m, nil
		case "d":
			if sym := m.selected(); sym != "" {
				return m, m.toggleCmd(sym, false)
			}
			return m, nil
		case "f":
			if m.page == pageWatchlist {
				m.filter = m.filter.Next()
				m.cursor = 0
				m.refreshContent()
			}
			return m, nil
		case "s":
			if m.page == pageWatchlist {
				m.sortBy = m.sortBy.Next()
				m.refreshContent()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := m.height - 2
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.MouseWheelEnabled = true
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.refreshContent()
		return m, nil

	case homeLoadedMsg:
		if m.loadFailed("home", msg.err) {
			return m, nil
		}
		m.home = msg.page
		m.finishLoad(pageHome)
		return m, nil

	case stockLoadedMsg:
		if m.loadFailed("stock", msg.err) {
			return m, nil
		}
		if msg.page != nil && msg.page.Symbol != m.symbol {
			return m, nil // stale
		}
		m.stock = msg.page
		m.inWatchlist = msg.inWatchlist
		m.finishLoad(pageStock)
		return m, nil

	case cryptoLoadedMsg:
		if m.loadFailed("crypto", msg.err) {
			return m, nil
		}
		m.crypto = msg.page
		m.finishLoad(pageCrypto)
		return m, nil

	case watchlistLoadedMsg:
		if m.loadFailed("watchlist", msg.err) {
			return m, nil
		}
		m.wlRows = msg.rows
		m.wlTotal = msg.total
		if n := len(m.visibleRows()); m.cursor >= n {
			m.cursor = max(n-1, 0)
		}
		m.finishLoad(pageWatchlist)
		return m, nil

	case newsLoadedMsg:
		if m.loadFailed("news", msg.err) {
			return m, nil
		}
		m.news = msg.page
		m.finishLoad(pageNews)
		return m, nil

	case searchLoadedMsg:
		if m.loadFailed("search", msg.err) {
			return m, nil
		}
		m.search = msg.page
		if m.search != nil && len(m.search.Results) == 0 {
			m.status = "No results for " + m.search.Query
		}
		m.finishLoad(pageSearch)
		return m, nil

	case watchlistToggleMsg:
		switch {
		case msg.err == nil && msg.added:
			m.status = msg.symbol + " added to watchlist"
		case msg.err == nil:
			m.status = msg.symbol + " removed from watchlist"
		case errors.Is(msg.err, watchlist.ErrDuplicate):
			m.status = msg.err.Error()
		default:
			m.logger.Warn("watchlist toggle failed", "symbol", msg.symbol, "added", msg.added, "error", msg.err)
			m.status = "Watchlist update failed: " + msg.err.Error()
		}
		if msg.err == nil && m.page == pageStock && msg.symbol == m.symbol {
			m.inWatchlist = msg.added
		}
		m.refreshContent()
		if msg.err == nil && m.page == pageWatchlist && m.events == nil {
			return m, m.loadCmd(pageWatchlist)
		}
		return m, nil

	case watchlistEventMsg:
		m.logger.Info("watchlist changed", "type", msg.Type, "symbol", msg.Symbol, "count", len(msg.Symbols))
		cmds := []tea.Cmd{waitForEvent(m.events)}
		if m.page == pageWatchlist {
			cmds = append(cmds, m.loadCmd(pageWatchlist))
		}
		return m, tea.Batch(cmds...)

	case cryptoTickMsg:
		cmds := []tea.Cmd{cryptoTickCmd(m.cryptoRefresh)}
		if m.page == pageCrypto {
			cmds = append(cmds, m.loadCmd(pageCrypto))
		}
		return m, tea.Batch(cmds...)
	}

	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m model) updateSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.input.Blur()
		return m, nil
	case "enter":
		m.searching = false
		m.input.Blur()
		if strings.TrimSpace(m.input.Value()) == "" {
			return m, nil
		}
		m.search = nil
		return m.switchTo(pageSearch)
	case "ctrl+c":
		m.unsubscribe()
		m.cancel()
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// loadFailed logs err and reports whether the message should be dropped.
func (m *model) loadFailed(what string, err error) bool {
	if err == nil {
		return false
	}
	m.loading = false
	if errors.Is(err, context.Canceled) {
		return true
	}
	m.logger.Error("loading page", "page", what, "error", err)
	m.status = "Failed to load " + what
	m.refreshContent()
	return true
}

func (m *model) finishLoad(p page) {
	if m.page == p {
		m.loading = false
	}
	m.refreshContent()
}

func (m *model) refreshContent() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderContent())
}
