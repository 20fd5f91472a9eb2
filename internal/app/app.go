// Package app wires configuration into the clients and stores shared by the
// stockboard binaries.
package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"stockboard/internal/archive"
	"stockboard/internal/config"
	"stockboard/internal/dashboard"
	"stockboard/internal/news"
	"stockboard/internal/util"
	"stockboard/internal/watchlist"
	"stockboard/pkg/marketapi"
)

// App holds the long-lived dependencies of a front end.
type App struct {
	Config    *config.Config
	Log       *slog.Logger
	Client    *marketapi.Client
	News      *news.Aggregator
	Archive   *archive.Store
	Loader    *dashboard.Loader
	Watchlist watchlist.Store

	closeWatchlist func() error
}

// New builds an App from cfg. Close must be called to release the
// watchlist store.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	client := NewClient(cfg)
	agg := NewNews(cfg, client, log)
	arc := archive.NewStore(cfg.Archive.DataDir)
	agg.SetFallback(news.ArchiveSource{Archive: arc})

	store, closeFn, err := watchlist.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	loader := dashboard.NewLoader(client, log,
		dashboard.WithNewsSource(agg),
		dashboard.WithCandleArchive(arc),
		dashboard.WithHomeSymbols(cfg.Dashboard.HomeSymbols),
		dashboard.WithChartDays(cfg.Dashboard.ChartDays),
	)

	return &App{
		Config:         cfg,
		Log:            log,
		Client:         client,
		News:           agg,
		Archive:        arc,
		Loader:         loader,
		Watchlist:      store,
		closeWatchlist: closeFn,
	}, nil
}

// Close releases the watchlist store.
func (a *App) Close() error {
	if a.closeWatchlist == nil {
		return nil
	}
	return a.closeWatchlist()
}

// NewClient builds the market-data client from the backend section.
func NewClient(cfg *config.Config) *marketapi.Client {
	opts := []marketapi.Option{
		marketapi.WithHTTPClient(&http.Client{Timeout: cfg.Backend.Timeout}),
		marketapi.WithRetries(cfg.Backend.Retries, 500*time.Millisecond),
	}
	if cfg.Backend.RateLimitPerMin > 0 {
		opts = append(opts, marketapi.WithRateLimiter(util.NewRateLimiter(cfg.Backend.RateLimitPerMin, 5)))
	}
	return marketapi.NewClient(cfg.Backend.BaseURL, opts...)
}

// NewNews builds the news aggregator. The backend is always the first
// source; Alpaca and Google News RSS are added when enabled.
func NewNews(cfg *config.Config, client *marketapi.Client, log *slog.Logger) *news.Aggregator {
	sources := []news.Source{news.BackendSource{Client: client}}
	if cfg.News.ExtraSources && cfg.Alpaca.Enabled() {
		sources = append(sources, news.AlpacaSource{
			Client: news.NewAlpacaClient(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL),
		})
	}
	if cfg.News.ExtraSources && cfg.News.GoogleRSS {
		sources = append(sources, news.GoogleRSSSource{
			HTTPClient: &http.Client{Timeout: cfg.Backend.Timeout},
		})
	}
	agg := news.NewAggregator(log, sources...)
	log.Debug("news sources", "sources", agg.Sources())
	return agg
}
