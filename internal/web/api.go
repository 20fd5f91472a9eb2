package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"stockboard/internal/watchlist"
)

type watchlistRequest struct {
	Symbol string `json:"symbol"`
}

func (s *Server) handleAPIWatchlist(w http.ResponseWriter, r *http.Request) {
	symbols, err := s.store.List(r.Context())
	if err != nil {
		s.log.Error("listing watchlist", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, nonNil(symbols))
}

func (s *Server) handleAPIWatchlistAdd(w http.ResponseWriter, r *http.Request) {
	var req watchlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.store.Add(r.Context(), req.Symbol); err != nil {
		s.writeStoreError(w, req.Symbol, err)
		return
	}
	s.log.Info("watchlist add", "symbol", req.Symbol, "via", "api")
	s.writeList(w, r, http.StatusCreated)
}

func (s *Server) handleAPIWatchlistRemove(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	if err := s.store.Remove(r.Context(), symbol); err != nil {
		s.writeStoreError(w, symbol, err)
		return
	}
	s.log.Info("watchlist remove", "symbol", symbol, "via", "api")
	s.writeList(w, r, http.StatusOK)
}

func (s *Server) writeList(w http.ResponseWriter, r *http.Request, status int) {
	symbols, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(nonNil(symbols))
}

func (s *Server) writeStoreError(w http.ResponseWriter, symbol string, err error) {
	switch {
	case errors.Is(err, watchlist.ErrDuplicate):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, watchlist.ErrInvalidSymbol):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error("watchlist store", "symbol", symbol, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// handleWatchlistEvents streams watchlist changes as server-sent events. The
// first event is a snapshot of the current list.
func (s *Server) handleWatchlistEvents(w http.ResponseWriter, r *http.Request) {
	sub, ok := s.store.(watchlist.Subscriber)
	if !ok {
		writeError(w, http.StatusNotImplemented, "watchlist store does not publish changes")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	subID, ch := sub.Subscribe(64)
	defer sub.Unsubscribe(subID)

	symbols, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, watchlist.Event{Type: "snapshot", Symbols: nonNil(symbols)}); err != nil {
		return
	}
	flusher.Flush()
	s.log.Info("watchlist stream subscribed", "subID", subID)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("watchlist stream disconnected", "subID", subID)
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := writeEvent(w, evt); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, evt watchlist.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data)
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func nonNil(symbols []string) []string {
	if symbols == nil {
		return []string{}
	}
	return symbols
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// wantsJSON reports whether the client asked for a JSON response.
func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}
