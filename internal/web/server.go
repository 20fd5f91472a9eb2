// Package web serves the server-rendered dashboard, the legacy watchlist
// JSON API and a watchlist change stream.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"stockboard/internal/dashboard"
	"stockboard/internal/watchlist"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"home", "stock", "crypto", "watchlist", "news", "search", "error"}

// Server renders dashboard pages from a Loader and a watchlist Store.
type Server struct {
	loader        *dashboard.Loader
	store         watchlist.Store
	log           *slog.Logger
	pages         map[string]*template.Template
	cryptoRefresh time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithCryptoRefresh sets the crypto page auto-refresh interval.
func WithCryptoRefresh(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.cryptoRefresh = d
		}
	}
}

// NewServer parses the embedded templates and returns a Server.
func NewServer(loader *dashboard.Loader, store watchlist.Store, log *slog.Logger, opts ...Option) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		loader:        loader,
		store:         store,
		log:           log,
		pages:         make(map[string]*template.Template, len(pageNames)),
		cryptoRefresh: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, name := range pageNames {
		t, err := template.New(name).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		s.pages[name] = t
	}
	return s, nil
}

// Handler returns an http.Handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /stock/{symbol}", s.handleStock)
	mux.HandleFunc("GET /crypto", s.handleCrypto)
	mux.HandleFunc("GET /watchlist", s.handleWatchlist)
	mux.HandleFunc("POST /watchlist", s.handleWatchlistAdd)
	mux.HandleFunc("POST /watchlist/{symbol}/delete", s.handleWatchlistDelete)
	mux.HandleFunc("GET /news", s.handleNews)
	mux.HandleFunc("GET /search", s.handleSearch)

	mux.HandleFunc("GET /api/watchlist", s.handleAPIWatchlist)
	mux.HandleFunc("POST /api/watchlist", s.handleAPIWatchlistAdd)
	mux.HandleFunc("DELETE /api/watchlist/{symbol}", s.handleAPIWatchlistRemove)
	mux.HandleFunc("GET /api/watchlist/events", s.handleWatchlistEvents)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("/", s.handleNotFound)

	return s.recoverMiddleware(corsMiddleware(mux))
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

// navLink is one navbar entry. Match is the path prefix that marks it active.
type navLink struct {
	Label  string
	Href   string
	Match  string
	Active bool
}

var navLinks = []navLink{
	{Label: "Home", Href: "/", Match: "/"},
	{Label: "Stocks", Href: "/stock/AAPL", Match: "/stock"},
	{Label: "Crypto", Href: "/crypto", Match: "/crypto"},
	{Label: "Watchlist", Href: "/watchlist", Match: "/watchlist"},
	{Label: "News", Href: "/news", Match: "/news"},
	{Label: "Search", Href: "/search", Match: "/search"},
}

// isActive reports whether path is match or lies beneath it.
func isActive(path, match string) bool {
	return path == match || strings.HasPrefix(path, match+"/")
}

func navFor(path string) []navLink {
	links := make([]navLink, len(navLinks))
	for i, l := range navLinks {
		l.Active = isActive(path, l.Match)
		links[i] = l
	}
	return links
}

// pageData is the value passed to every template.
type pageData struct {
	Title   string
	Nav     []navLink
	Refresh int // meta refresh seconds, 0 = off
	Page    any
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name, title string, page any) {
	s.renderRefresh(w, r, status, name, title, page, 0)
}

func (s *Server) renderRefresh(w http.ResponseWriter, r *http.Request, status int, name, title string, page any, refresh int) {
	t, ok := s.pages[name]
	if !ok {
		panic(fmt.Sprintf("unknown template %q", name))
	}
	data := pageData{Title: title, Nav: navFor(r.URL.Path), Refresh: refresh, Page: page}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.log.Error("rendering template", "page", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// errorPage is rendered by the recovery middleware and for load failures.
type errorPage struct {
	Heading string
	Detail  string
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, heading, detail string) {
	s.render(w, r, status, "error", heading, errorPage{Heading: heading, Detail: detail})
}

// loadFailed handles the error a Loader returns, which only happens when
// the request context is done.
func (s *Server) loadFailed(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) {
		s.log.Debug("request cancelled", "path", r.URL.Path)
		return
	}
	s.log.Error("loading page", "path", r.URL.Path, "error", err)
	s.renderError(w, r, http.StatusInternalServerError, "Something went wrong", err.Error())
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusNotFound, "Page not found", r.URL.Path)
}
