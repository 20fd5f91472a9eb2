package watchlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var _ Store = (*FileStore)(nil)

// FileStore keeps the watchlist as a single JSON array of symbols. Writes go
// to a temp file that is renamed over the original.
type FileStore struct {
	hub

	mu      sync.RWMutex
	symbols []string
	path    string
	modTime time.Time
	log     *slog.Logger
}

// NewFileStore opens the watchlist at path. A missing file is an empty list.
func NewFileStore(path string, log *slog.Logger) (*FileStore, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &FileStore{path: path, log: log, symbols: []string{}}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// List returns a copy of the symbols, reloading if the file changed on disk.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refresh(); err != nil {
		return nil, err
	}
	return append([]string(nil), s.symbols...), nil
}

// Contains reports whether symbol is listed.
func (s *FileStore) Contains(ctx context.Context, symbol string) (bool, error) {
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

// Add appends symbol and persists the list.
func (s *FileStore) Add(ctx context.Context, symbol string) error {
	sym, err := Normalize(symbol)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if err := s.refresh(); err != nil {
		s.mu.Unlock()
		return err
	}
	if indexOf(s.symbols, sym) >= 0 {
		s.mu.Unlock()
		return duplicate(sym)
	}
	updated := append(append([]string(nil), s.symbols...), sym)
	if err := s.flush(updated); err != nil {
		s.mu.Unlock()
		return err
	}
	s.symbols = updated
	snapshot := append([]string(nil), updated...)
	s.mu.Unlock()

	s.log.Info("watchlist symbol added", "symbol", sym, "count", len(snapshot))
	s.broadcast(Event{Type: "add", Symbol: sym, Symbols: snapshot})
	return nil
}

// Remove deletes symbol and persists the list.
func (s *FileStore) Remove(ctx context.Context, symbol string) error {
	sym, err := Normalize(symbol)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if err := s.refresh(); err != nil {
		s.mu.Unlock()
		return err
	}
	i := indexOf(s.symbols, sym)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	updated := make([]string, 0, len(s.symbols)-1)
	updated = append(updated, s.symbols[:i]...)
	updated = append(updated, s.symbols[i+1:]...)
	if err := s.flush(updated); err != nil {
		s.mu.Unlock()
		return err
	}
	s.symbols = updated
	snapshot := append([]string(nil), updated...)
	s.mu.Unlock()

	s.log.Info("watchlist symbol removed", "symbol", sym, "count", len(snapshot))
	s.broadcast(Event{Type: "remove", Symbol: sym, Symbols: snapshot})
	return nil
}

// load reads the JSON file into memory. Must be called with mu held or
// before the store is shared.
func (s *FileStore) load() error {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.symbols = []string{}
		s.modTime = time.Time{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat watchlist: %w", err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("reading watchlist: %w", err)
	}
	var raw []string
	if len(data) > 0 {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parsing watchlist %s: %w", s.path, err)
		}
	}

	// Normalize and de-duplicate whatever was on disk.
	symbols := make([]string, 0, len(raw))
	for _, r := range raw {
		sym, err := Normalize(r)
		if err != nil {
			s.log.Warn("skipping invalid watchlist entry", "entry", r)
			continue
		}
		if indexOf(symbols, sym) < 0 {
			symbols = append(symbols, sym)
		}
	}
	s.symbols = symbols
	s.modTime = info.ModTime()
	s.log.Debug("loaded watchlist", "path", s.path, "count", len(symbols))
	return nil
}

// refresh reloads the file when another process has rewritten it. Must be
// called with mu held.
func (s *FileStore) refresh() error {
	info, err := os.Stat(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if !s.modTime.IsZero() {
			return s.load()
		}
		return nil
	case err != nil:
		return fmt.Errorf("stat watchlist: %w", err)
	case !info.ModTime().Equal(s.modTime):
		return s.load()
	}
	return nil
}

// flush atomically writes symbols to disk. Must be called with mu held.
func (s *FileStore) flush(symbols []string) error {
	data, err := json.Marshal(symbols)
	if err != nil {
		return fmt.Errorf("marshalling watchlist: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating watchlist dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".watchlist-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing watchlist: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing watchlist: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming watchlist: %w", err)
	}

	if info, err := os.Stat(s.path); err == nil {
		s.modTime = info.ModTime()
	}
	return nil
}
