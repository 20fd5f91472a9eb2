package watchlist

import (
	"context"
	"fmt"
	"log/slog"

	"stockboard/internal/config"
)

// Subscriber is implemented by every store in this package.
type Subscriber interface {
	Subscribe(bufSize int) (int, <-chan Event)
	Unsubscribe(id int)
}

// Open builds the store selected by cfg.Watchlist.Backend and seeds it from
// cfg.Watchlist.ImportYAML when set. The returned close func is never nil.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (Store, func() error, error) {
	noop := func() error { return nil }
	if log == nil {
		log = slog.Default()
	}

	var (
		s       Store
		closeFn = noop
	)
	switch cfg.Watchlist.Backend {
	case "", "file":
		fs, err := NewFileStore(cfg.Watchlist.Path, log)
		if err != nil {
			return nil, noop, err
		}
		s = fs
	case "sqlite":
		ss, err := NewSQLiteStore(cfg.Watchlist.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		s, closeFn = ss, ss.Close
	case "alpaca":
		if !cfg.Alpaca.Enabled() {
			return nil, noop, fmt.Errorf("watchlist backend alpaca requires APCA_API_KEY_ID and APCA_API_SECRET_KEY")
		}
		client := NewAlpacaClient(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL)
		s = NewAlpacaStore(client, cfg.Alpaca.WatchlistName, log)
	default:
		return nil, noop, fmt.Errorf("unknown watchlist backend %q", cfg.Watchlist.Backend)
	}

	if cfg.Watchlist.ImportYAML != "" {
		symbols, err := ImportYAML(cfg.Watchlist.ImportYAML)
		if err != nil {
			closeFn()
			return nil, noop, err
		}
		added, err := AddAll(ctx, s, symbols)
		if err != nil {
			closeFn()
			return nil, noop, fmt.Errorf("seeding watchlist: %w", err)
		}
		log.Info("watchlist seeded", "file", cfg.Watchlist.ImportYAML, "added", len(added))
	}
	return s, closeFn, nil
}
