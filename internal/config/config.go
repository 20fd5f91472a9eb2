// Package config loads stockboard configuration from a YAML file, a .env
// file and environment variables, in that order of increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"stockboard/internal/dashboard"
)

// DefaultPath is used when STOCKBOARD_CONFIG is not set.
const DefaultPath = "config/stockboard.yaml"

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for stockboard.
type Config struct {
	Backend   Backend   `yaml:"backend"`
	Server    Server    `yaml:"server"`
	Watchlist Watchlist `yaml:"watchlist"`
	Alpaca    Alpaca    `yaml:"alpaca"`
	Archive   Archive   `yaml:"archive"`
	News      News      `yaml:"news"`
	Logging   Logging   `yaml:"logging"`
	Dashboard Dashboard `yaml:"dashboard"`
}

// Backend describes the market-data API the dashboard reads from.
type Backend struct {
	BaseURL         string        `yaml:"base_url" env:"STOCKBOARD_API_URL"`
	Timeout         time.Duration `yaml:"timeout" env:"STOCKBOARD_API_TIMEOUT"`
	RateLimitPerMin int           `yaml:"rate_limit_per_min" env:"STOCKBOARD_API_RATE_LIMIT"`
	Retries         int           `yaml:"retries" env:"STOCKBOARD_API_RETRIES"`
}

// Server holds network listener configuration for stockboard-server.
type Server struct {
	Host     string `yaml:"host" env:"STOCKBOARD_HOST"`
	Port     int    `yaml:"port" env:"STOCKBOARD_PORT"`
	GRPCPort int    `yaml:"grpc_port" env:"STOCKBOARD_GRPC_PORT"`
}

// Watchlist selects where the watchlist is persisted.
type Watchlist struct {
	// Backend is one of "file", "sqlite" or "alpaca".
	Backend    string `yaml:"backend" env:"STOCKBOARD_WATCHLIST_BACKEND"`
	Path       string `yaml:"path" env:"STOCKBOARD_WATCHLIST_PATH"`
	SQLitePath string `yaml:"sqlite_path" env:"STOCKBOARD_WATCHLIST_DB"`
	ImportYAML string `yaml:"import_yaml"`
}

// Alpaca holds credentials for the optional broker watchlist and news.
type Alpaca struct {
	APIKey        string `yaml:"api_key" env:"APCA_API_KEY_ID"`
	APISecret     string `yaml:"api_secret" env:"APCA_API_SECRET_KEY"`
	BaseURL       string `yaml:"base_url" env:"ALPACA_BASE_URL"`
	DataURL       string `yaml:"data_url" env:"ALPACA_DATA_URL"`
	WatchlistName string `yaml:"watchlist_name"`
}

// Enabled reports whether Alpaca credentials are present.
func (a Alpaca) Enabled() bool {
	return a.APIKey != "" && a.APISecret != ""
}

// Archive configures the parquet candle/news archive.
type Archive struct {
	DataDir string `yaml:"data_dir" env:"STOCKBOARD_DATA_DIR"`
}

// News controls the optional extra news sources merged with the backend's.
type News struct {
	ExtraSources bool `yaml:"extra_sources" env:"STOCKBOARD_NEWS_EXTRA"`
	GoogleRSS    bool `yaml:"google_rss"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// Dashboard tunes what the pages show.
type Dashboard struct {
	HomeSymbols   []string      `yaml:"home_symbols" env:"STOCKBOARD_HOME_SYMBOLS" envSeparator:","`
	CryptoRefresh time.Duration `yaml:"crypto_refresh"`
	ChartDays     int           `yaml:"chart_days"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Path returns the config file path from STOCKBOARD_CONFIG or DefaultPath.
func Path() string {
	if p := os.Getenv("STOCKBOARD_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads the YAML configuration file at the given path, then applies
// .env and environment variable overrides and fills defaults. A missing
// file is not an error: the result is defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	// .env never overrides variables already set in the process.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "http://localhost:5001"
	}
	c.Backend.BaseURL = strings.TrimRight(c.Backend.BaseURL, "/")
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = 15 * time.Second
	}
	if c.Backend.Retries < 1 {
		c.Backend.Retries = 1
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.GRPCPort == 0 {
		c.Server.GRPCPort = 9090
	}

	if c.Watchlist.Backend == "" {
		c.Watchlist.Backend = "file"
	}
	if c.Watchlist.Path == "" {
		c.Watchlist.Path = filepath.Join(homeDir(), ".stockboard", "watchlist.json")
	}
	if c.Watchlist.SQLitePath == "" {
		c.Watchlist.SQLitePath = filepath.Join(homeDir(), ".stockboard", "watchlist.db")
	}

	if c.Alpaca.WatchlistName == "" {
		c.Alpaca.WatchlistName = "stockboard"
	}

	if c.Archive.DataDir == "" {
		c.Archive.DataDir = filepath.Join(homeDir(), ".stockboard", "data")
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	if len(c.Dashboard.HomeSymbols) == 0 {
		c.Dashboard.HomeSymbols = append([]string(nil), dashboard.DefaultHomeSymbols...)
	}
	for i, s := range c.Dashboard.HomeSymbols {
		c.Dashboard.HomeSymbols[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	if c.Dashboard.CryptoRefresh <= 0 {
		c.Dashboard.CryptoRefresh = 30 * time.Second
	}
	if c.Dashboard.ChartDays <= 0 {
		c.Dashboard.ChartDays = 30
	}

	for _, p := range []*string{&c.Watchlist.Path, &c.Watchlist.SQLitePath, &c.Watchlist.ImportYAML, &c.Archive.DataDir} {
		*p = expandHome(*p)
	}
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if path == "~" {
		return homeDir()
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(homeDir(), rest)
	}
	return path
}

// ListenAddr returns host:port for the HTTP listener.
func (s Server) ListenAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GRPCAddr returns host:grpc_port for the gRPC health listener.
func (s Server) GRPCAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.GRPCPort)
}

func homeDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return h
	}
	return "."
}
