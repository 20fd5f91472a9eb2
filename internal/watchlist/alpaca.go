package watchlist

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	alpacaapi "github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
)

// DefaultAlpacaWatchlist is the broker watchlist name used when none is
// configured.
const DefaultAlpacaWatchlist = "stockboard"

var _ Store = (*AlpacaStore)(nil)

// AlpacaClient is the subset of the Alpaca trading client used for
// watchlists.
type AlpacaClient interface {
	GetWatchlists() ([]alpacaapi.Watchlist, error)
	GetWatchlist(watchlistID string) (*alpacaapi.Watchlist, error)
	CreateWatchlist(req alpacaapi.CreateWatchlistRequest) (*alpacaapi.Watchlist, error)
	AddSymbolToWatchlist(watchlistID string, req alpacaapi.AddSymbolToWatchlistRequest) (*alpacaapi.Watchlist, error)
	RemoveSymbolFromWatchlist(watchlistID string, req alpacaapi.RemoveSymbolFromWatchlistRequest) error
}

// AlpacaStore keeps the watchlist in the user's Alpaca account. The named
// watchlist is looked up, or created, on first use.
type AlpacaStore struct {
	hub

	client AlpacaClient
	name   string
	log    *slog.Logger

	mu sync.Mutex
	id string
}

// NewAlpacaStore creates an AlpacaStore for the watchlist called name.
func NewAlpacaStore(client AlpacaClient, name string, log *slog.Logger) *AlpacaStore {
	if name == "" {
		name = DefaultAlpacaWatchlist
	}
	if log == nil {
		log = slog.Default()
	}
	return &AlpacaStore{client: client, name: name, log: log}
}

// NewAlpacaClient builds a trading client from credentials.
func NewAlpacaClient(apiKey, apiSecret, baseURL string) *alpacaapi.Client {
	return alpacaapi.NewClient(alpacaapi.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   baseURL,
	})
}

// watchlistID gets or creates the named watchlist.
func (s *AlpacaStore) watchlistID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id != "" {
		return s.id, nil
	}

	lists, err := s.client.GetWatchlists()
	if err != nil {
		return "", fmt.Errorf("listing watchlists: %w", err)
	}
	for _, w := range lists {
		if w.Name == s.name {
			s.id = w.ID
			s.log.Info("watchlist found", "name", s.name, "id", w.ID)
			return s.id, nil
		}
	}

	w, err := s.client.CreateWatchlist(alpacaapi.CreateWatchlistRequest{Name: s.name})
	if err != nil {
		return "", fmt.Errorf("creating watchlist %s: %w", s.name, err)
	}
	s.id = w.ID
	s.log.Info("watchlist created", "name", s.name, "id", w.ID)
	return s.id, nil
}

// List returns the broker watchlist's symbols in broker order.
func (s *AlpacaStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, err := s.watchlistID()
	if err != nil {
		return nil, err
	}
	// GetWatchlists doesn't include assets; fetch the full watchlist.
	wl, err := s.client.GetWatchlist(id)
	if err != nil {
		return nil, fmt.Errorf("getting watchlist: %w", err)
	}
	symbols := make([]string, 0, len(wl.Assets))
	for _, a := range wl.Assets {
		symbols = append(symbols, a.Symbol)
	}
	return symbols, nil
}

// Contains reports whether symbol is listed.
func (s *AlpacaStore) Contains(ctx context.Context, symbol string) (bool, error) {
	sym, err := Normalize(symbol)
	if err != nil {
		return false, err
	}
	list, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	return indexOf(list, sym) >= 0, nil
}

// Add appends symbol to the broker watchlist.
func (s *AlpacaStore) Add(ctx context.Context, symbol string) error {
	sym, err := Normalize(symbol)
	if err != nil {
		return err
	}
	ok, err := s.Contains(ctx, sym)
	if err != nil {
		return err
	}
	if ok {
		return duplicate(sym)
	}

	id, err := s.watchlistID()
	if err != nil {
		return err
	}
	wl, err := s.client.AddSymbolToWatchlist(id, alpacaapi.AddSymbolToWatchlistRequest{Symbol: sym})
	if err != nil {
		return fmt.Errorf("adding %s: %w", sym, err)
	}
	s.broadcast(Event{Type: "add", Symbol: sym, Symbols: assetSymbols(wl)})
	return nil
}

// Remove deletes symbol from the broker watchlist if present.
func (s *AlpacaStore) Remove(ctx context.Context, symbol string) error {
	sym, err := Normalize(symbol)
	if err != nil {
		return err
	}
	ok, err := s.Contains(ctx, sym)
	if err != nil || !ok {
		return err
	}

	id, err := s.watchlistID()
	if err != nil {
		return err
	}
	if err := s.client.RemoveSymbolFromWatchlist(id, alpacaapi.RemoveSymbolFromWatchlistRequest{Symbol: sym}); err != nil {
		return fmt.Errorf("removing %s: %w", sym, err)
	}
	list, _ := s.List(ctx)
	s.broadcast(Event{Type: "remove", Symbol: sym, Symbols: list})
	return nil
}

func assetSymbols(wl *alpacaapi.Watchlist) []string {
	if wl == nil {
		return nil
	}
	out := make([]string, 0, len(wl.Assets))
	for _, a := range wl.Assets {
		out = append(out, a.Symbol)
	}
	return out
}
