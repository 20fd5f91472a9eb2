package watchlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

var _ Store = (*SQLiteStore)(nil)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS watchlist (
	symbol   TEXT PRIMARY KEY,
	added_at INTEGER NOT NULL DEFAULT (unixepoch())
)`

// SQLiteStore keeps the server-side watchlist in a SQLite database. Rows are
// listed in insertion (rowid) order.
type SQLiteStore struct {
	hub
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the watchlist table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(dbPath) + "?_journal_mode=WAL&_busy_timeout=5000"
	if dbPath == ":memory:" {
		dsn = dbPath
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create watchlist table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// List returns symbols in the order they were added.
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol FROM watchlist ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query watchlist: %w", err)
	}
	defer rows.Close()

	symbols := []string{}
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan watchlist: %w", err)
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// Contains reports whether symbol is listed.
func (s *SQLiteStore) Contains(ctx context.Context, symbol string) (bool, error) {
	sym, err := Normalize(symbol)
	if err != nil {
		return false, err
	}
	var one int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM watchlist WHERE symbol = ?`, sym).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query watchlist: %w", err)
	}
	return true, nil
}

// Add inserts symbol; a primary key violation maps to ErrDuplicate.
func (s *SQLiteStore) Add(ctx context.Context, symbol string) error {
	sym, err := Normalize(symbol)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO watchlist (symbol) VALUES (?)`, sym); err != nil {
		if isUniqueViolation(err) {
			return duplicate(sym)
		}
		return fmt.Errorf("insert %s: %w", sym, err)
	}
	s.notify(ctx, "add", sym)
	return nil
}

// Remove deletes symbol if present.
func (s *SQLiteStore) Remove(ctx context.Context, symbol string) error {
	sym, err := Normalize(symbol)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM watchlist WHERE symbol = ?`, sym)
	if err != nil {
		return fmt.Errorf("delete %s: %w", sym, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.notify(ctx, "remove", sym)
	}
	return nil
}

func (s *SQLiteStore) notify(ctx context.Context, typ, sym string) {
	list, err := s.List(ctx)
	if err != nil {
		return
	}
	s.broadcast(Event{Type: typ, Symbol: sym, Symbols: list})
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
