// Package watchlist persists the user's list of ticker symbols. The list
// keeps insertion order and holds each symbol once.
package watchlist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrDuplicate is returned by Add when the symbol is already present.
	ErrDuplicate = errors.New("already in your watchlist")
	// ErrInvalidSymbol is returned for empty or malformed symbols.
	ErrInvalidSymbol = errors.New("invalid symbol")
)

// Store is a persisted watchlist.
type Store interface {
	List(ctx context.Context) ([]string, error)
	// Add appends symbol, returning ErrDuplicate if it is already listed.
	Add(ctx context.Context, symbol string) error
	// Remove deletes symbol. Removing an absent symbol is not an error.
	Remove(ctx context.Context, symbol string) error
	Contains(ctx context.Context, symbol string) (bool, error)
}

// Normalize trims and upper-cases a symbol and rejects empty values or
// values containing whitespace.
func Normalize(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" || len(s) > 32 || strings.ContainsAny(s, " \t\r\n/") {
		return "", fmt.Errorf("%q: %w", symbol, ErrInvalidSymbol)
	}
	return s, nil
}

func duplicate(symbol string) error {
	return fmt.Errorf("%s is %w", symbol, ErrDuplicate)
}

// AddAll adds every symbol, skipping duplicates. It returns the symbols that
// were actually added.
func AddAll(ctx context.Context, s Store, symbols []string) ([]string, error) {
	var added []string
	for _, sym := range symbols {
		err := s.Add(ctx, sym)
		switch {
		case err == nil:
			n, _ := Normalize(sym)
			added = append(added, n)
		case errors.Is(err, ErrDuplicate):
		default:
			return added, err
		}
	}
	return added, nil
}

// Event describes a change to a watchlist.
type Event struct {
	Type    string   `json:"type"` // "add", "remove"
	Symbol  string   `json:"symbol"`
	Symbols []string `json:"symbols"` // full list after the change
}

// hub fans events out to subscribers. Slow consumers have events dropped.
type hub struct {
	subsMu    sync.Mutex
	nextSubID int
	subs      map[int]chan Event
}

// Subscribe returns a channel that receives change events. bufSize controls
// the channel buffer.
func (h *hub) Subscribe(bufSize int) (int, <-chan Event) {
	ch := make(chan Event, bufSize)
	h.subsMu.Lock()
	if h.subs == nil {
		h.subs = make(map[int]chan Event)
	}
	id := h.nextSubID
	h.nextSubID++
	h.subs[id] = ch
	h.subsMu.Unlock()
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *hub) Unsubscribe(id int) {
	h.subsMu.Lock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
	h.subsMu.Unlock()
}

func (h *hub) broadcast(e Event) {
	h.subsMu.Lock()
	defer h.subsMu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func indexOf(list []string, symbol string) int {
	for i, s := range list {
		if s == symbol {
			return i
		}
	}
	return -1
}
