package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"stockboard/internal/app"
	"stockboard/internal/config"
	"stockboard/internal/util"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to bubbletea; log to a dated file instead.
	logFile, err := util.OpenLogFile("stockboard-tui", time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := util.NewLoggerTo(logFile, cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()
	logger.Info("stockboard-tui starting", "backend", cfg.Backend.BaseURL, "watchlist", cfg.Watchlist.Backend)

	p := tea.NewProgram(
		initialModel(ctx, cancel, a.Loader, a.Watchlist, logger, cfg.Dashboard.CryptoRefresh),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
