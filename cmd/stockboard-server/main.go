package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"stockboard/internal/app"
	"stockboard/internal/config"
	"stockboard/internal/util"
	"stockboard/internal/web"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("initializing: %v", err)
	}
	defer a.Close()

	srv, err := web.NewServer(a.Loader, a.Watchlist, logger, web.WithCryptoRefresh(cfg.Dashboard.CryptoRefresh))
	if err != nil {
		log.Fatalf("creating web server: %v", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr())
	if err != nil {
		log.Fatalf("listening for gRPC: %v", err)
	}
	health := web.NewHealthServer(logger)

	go func() {
		if err := health.Serve(lis); err != nil {
			logger.Error("gRPC server error", "error", err)
		}
	}()

	go func() {
		logger.Info("stockboard listening", "addr", httpServer.Addr, "backend", cfg.Backend.BaseURL,
			"watchlist", cfg.Watchlist.Backend)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down stockboard")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	health.Stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
