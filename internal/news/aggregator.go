package news

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"

	"stockboard/pkg/marketapi"
)

// Aggregator queries every source concurrently and merges the results.
// A failing source is logged and skipped. When every source fails the
// fallback, if set, is consulted; otherwise the joined errors are returned.
type Aggregator struct {
	sources  []Source
	fallback Source
	log      *slog.Logger
}

// NewAggregator creates an Aggregator over sources, queried in order of
// preference: when two sources carry the same story the first one wins.
func NewAggregator(log *slog.Logger, sources ...Source) *Aggregator {
	if log == nil {
		log = slog.Default()
	}
	return &Aggregator{sources: sources, log: log}
}

// Sources returns the names of the configured sources.
func (a *Aggregator) Sources() []string {
	names := make([]string, len(a.sources))
	for i, s := range a.sources {
		names[i] = s.Name()
	}
	return names
}

// SetFallback sets the source used when every live source fails.
func (a *Aggregator) SetFallback(src Source) {
	a.fallback = src
}

// MarketNews returns merged general market news, newest first.
func (a *Aggregator) MarketNews(ctx context.Context) ([]marketapi.NewsItem, error) {
	return a.fetch(ctx, "")
}

// StockNews returns merged news for symbol, newest first.
func (a *Aggregator) StockNews(ctx context.Context, symbol string) ([]marketapi.NewsItem, error) {
	return a.fetch(ctx, strings.ToUpper(symbol))
}

func (a *Aggregator) fetch(ctx context.Context, symbol string) ([]marketapi.NewsItem, error) {
	results := make([][]marketapi.NewsItem, len(a.sources))
	errs := make([]error, len(a.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range a.sources {
		g.Go(func() error {
			items, err := src.Fetch(gctx, symbol)
			if err != nil {
				a.log.Warn("news source failed", "source", src.Name(), "symbol", symbol, "error", err)
				errs[i] = err
				return nil
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if len(a.sources) > 0 && failed == len(a.sources) {
		err := errors.Join(errs...)
		if a.fallback == nil {
			return nil, err
		}
		items, ferr := a.fallback.Fetch(ctx, symbol)
		if ferr != nil || len(items) == 0 {
			if ferr != nil {
				a.log.Warn("news fallback failed", "source", a.fallback.Name(), "error", ferr)
			}
			return nil, err
		}
		a.log.Info("serving fallback news", "source", a.fallback.Name(), "symbol", symbol, "items", len(items))
		return items, nil
	}
	return Merge(results...), nil
}

// Merge concatenates item lists, dropping stories already seen by URL or by
// normalized headline, and sorts newest first. Earlier lists take
// precedence for duplicates.
func Merge(lists ...[]marketapi.NewsItem) []marketapi.NewsItem {
	seenURL := make(map[string]bool)
	seenHeadline := make(map[string]bool)
	var out []marketapi.NewsItem

	for _, list := range lists {
		for _, it := range list {
			h := normalizeHeadline(it.Headline)
			if (it.URL != "" && seenURL[it.URL]) || (h != "" && seenHeadline[h]) {
				continue
			}
			if it.URL != "" {
				seenURL[it.URL] = true
			}
			if h != "" {
				seenHeadline[h] = true
			}
			out = append(out, it)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Datetime > out[j].Datetime
	})
	return out
}

// normalizeHeadline lower-cases and keeps only letters and digits.
func normalizeHeadline(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
