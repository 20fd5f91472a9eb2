package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"stockboard/internal/dashboard"
	"stockboard/internal/watchlist"
	"stockboard/pkg/marketapi"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	page, err := s.loader.Home(r.Context())
	if err != nil {
		s.loadFailed(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "home", "Stock Analysis", page)
}

type stockData struct {
	*dashboard.StockPage
	InWatchlist bool
}

func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	symbol, err := watchlist.Normalize(r.PathValue("symbol"))
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid symbol", err.Error())
		return
	}

	page, err := s.loader.Stock(r.Context(), symbol)
	if err != nil {
		s.loadFailed(w, r, err)
		return
	}
	data := stockData{StockPage: page}
	if data.InWatchlist, err = s.store.Contains(r.Context(), symbol); err != nil {
		s.log.Warn("watchlist lookup failed", "symbol", symbol, "error", err)
	}
	s.render(w, r, http.StatusOK, "stock", symbol, data)
}

func (s *Server) handleCrypto(w http.ResponseWriter, r *http.Request) {
	page, err := s.loader.Crypto(r.Context())
	if err != nil {
		s.loadFailed(w, r, err)
		return
	}
	s.renderRefresh(w, r, http.StatusOK, "crypto", "Cryptocurrency", page, int(s.cryptoRefresh.Seconds()))
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	page, err := s.loader.News(r.Context())
	if err != nil {
		s.loadFailed(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "news", "Market News", page)
}

type searchData struct {
	*dashboard.SearchPage
	Types   []dashboard.Option
	Regions []dashboard.Option
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := s.loader.Search(r.Context(), q.Get("q"), q.Get("type"), q.Get("region"))
	if err != nil {
		s.loadFailed(w, r, err)
		return
	}
	if page.Type == "" {
		page.Type = "all"
	}
	if page.Region == "" {
		page.Region = "all"
	}
	s.render(w, r, http.StatusOK, "search", "Search", searchData{
		SearchPage: page,
		Types:      dashboard.SearchTypes,
		Regions:    dashboard.SearchRegions,
	})
}

// ---------------------------------------------------------------------------
// Watchlist page
// ---------------------------------------------------------------------------

// searchHit is an add-to-watchlist search result.
type searchHit struct {
	marketapi.SearchResult
	InWatchlist bool
}

type watchlistData struct {
	*dashboard.WatchlistPage
	Filters []dashboard.WatchlistFilter
	Sorts   []dashboard.WatchlistSort
	Query   string
	Hits    []searchHit
	Error   string
}

var (
	watchlistFilters = []dashboard.WatchlistFilter{dashboard.FilterAll, dashboard.FilterGainers, dashboard.FilterLosers}
	watchlistSorts   = []dashboard.WatchlistSort{dashboard.SortSymbol, dashboard.SortPrice, dashboard.SortChange}
)

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	s.renderWatchlist(w, r, http.StatusOK, "")
}

func (s *Server) renderWatchlist(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	ctx := r.Context()
	q := r.URL.Query()
	filter := dashboard.ParseWatchlistFilter(q.Get("filter"))
	sortBy := dashboard.ParseWatchlistSort(q.Get("sort"))

	symbols, err := s.store.List(ctx)
	if err != nil {
		s.log.Error("listing watchlist", "error", err)
		s.renderError(w, r, http.StatusInternalServerError, "Something went wrong", err.Error())
		return
	}

	page, err := s.loader.Watchlist(ctx, symbols, filter, sortBy)
	if err != nil {
		s.loadFailed(w, r, err)
		return
	}

	data := watchlistData{
		WatchlistPage: page,
		Filters:       watchlistFilters,
		Sorts:         watchlistSorts,
		Query:         strings.TrimSpace(q.Get("q")),
		Error:         errMsg,
	}
	if data.Query != "" {
		sp, err := s.loader.Search(ctx, data.Query, "all", "all")
		if err != nil {
			s.loadFailed(w, r, err)
			return
		}
		listed := make(map[string]bool, len(symbols))
		for _, sym := range symbols {
			listed[sym] = true
		}
		results := sp.Results
		if len(results) > dashboard.MaxWatchlistSearchResults {
			results = results[:dashboard.MaxWatchlistSearchResults]
		}
		for _, res := range results {
			data.Hits = append(data.Hits, searchHit{SearchResult: res, InWatchlist: listed[strings.ToUpper(res.Symbol)]})
		}
	}
	s.render(w, r, status, "watchlist", "My Watchlist", data)
}

func (s *Server) handleWatchlistAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderWatchlist(w, r, http.StatusBadRequest, "invalid form")
		return
	}
	symbol := r.PostForm.Get("symbol")
	if err := s.store.Add(r.Context(), symbol); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, watchlist.ErrDuplicate):
			status = http.StatusConflict
		case errors.Is(err, watchlist.ErrInvalidSymbol):
			status = http.StatusBadRequest
		default:
			s.log.Error("adding to watchlist", "symbol", symbol, "error", err)
		}
		s.renderWatchlist(w, r, status, err.Error())
		return
	}
	s.log.Info("watchlist add", "symbol", symbol)
	http.Redirect(w, r, redirectTarget(r), http.StatusSeeOther)
}

func (s *Server) handleWatchlistDelete(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	if err := s.store.Remove(r.Context(), symbol); err != nil {
		if errors.Is(err, watchlist.ErrInvalidSymbol) {
			s.renderWatchlist(w, r, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error("removing from watchlist", "symbol", symbol, "error", err)
		s.renderWatchlist(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	s.log.Info("watchlist remove", "symbol", symbol)
	http.Redirect(w, r, redirectTarget(r), http.StatusSeeOther)
}

// redirectTarget returns the form's "next" field when it is a local path,
// otherwise /watchlist.
func redirectTarget(r *http.Request) string {
	next := r.FormValue("next")
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/watchlist"
	}
	if strings.ContainsFunc(next, unicode.IsControl) {
		return "/watchlist"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/watchlist"
	}
	return next
}
