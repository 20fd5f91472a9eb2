package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"stockboard/internal/config"
	"stockboard/pkg/marketapi"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Backend.BaseURL = "http://127.0.0.1:1"
	cfg.Backend.Retries = 1
	cfg.Watchlist.Backend = "file"
	cfg.Watchlist.Path = filepath.Join(dir, "watchlist.json")
	cfg.Archive.DataDir = filepath.Join(dir, "data")
	return cfg
}

func TestNew(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := New(context.Background(), testConfig(t), log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if a.Client.BaseURL() != "http://127.0.0.1:1" {
		t.Errorf("BaseURL = %q", a.Client.BaseURL())
	}
	if a.Loader == nil || a.Watchlist == nil || a.Archive == nil {
		t.Fatal("App has nil components")
	}
}

func TestNewNewsSources(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig(t)
	client := NewClient(cfg)

	if got := NewNews(cfg, client, log).Sources(); len(got) != 1 || got[0] != "backend" {
		t.Errorf("default sources = %v", got)
	}

	cfg.News.ExtraSources = true
	cfg.News.GoogleRSS = true
	cfg.Alpaca.APIKey, cfg.Alpaca.APISecret = "k", "s"
	got := NewNews(cfg, client, log).Sources()
	want := []string{"backend", "alpaca", "google"}
	if len(got) != len(want) {
		t.Fatalf("sources = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sources[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNewsFallsBackToArchive(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := New(context.Background(), testConfig(t), log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	saved := []marketapi.NewsItem{{Headline: "Markets close higher", URL: "https://news.example/a", Datetime: time.Now().Unix()}}
	if _, err := a.Archive.WriteNews(time.Now(), saved); err != nil {
		t.Fatalf("WriteNews: %v", err)
	}

	got, err := a.News.MarketNews(context.Background())
	if err != nil {
		t.Fatalf("MarketNews: %v", err)
	}
	if len(got) != 1 || got[0].URL != "https://news.example/a" {
		t.Errorf("MarketNews = %+v, want the archived item", got)
	}
}
