package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/autoclip/autoclip-agent/internal/api"
	"github.com/autoclip/autoclip-agent/internal/backend"
	"github.com/autoclip/autoclip-agent/internal/config"
	"github.com/autoclip/autoclip-agent/internal/db"
	"github.com/autoclip/autoclip-agent/internal/library"
	"github.com/autoclip/autoclip-agent/internal/logging"
	"github.com/autoclip/autoclip-agent/internal/progress"
	"github.com/autoclip/autoclip-agent/internal/snapshot"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting autoclip agent",
		"version", config.Version, "data_dir", cfg.DataDir(), "backend_url", cfg.BackendURL())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := snapshot.NewRepository(database.Conn())

	client := backend.NewClient(cfg.BackendURL(), cfg.BackendToken(), logger)

	store := library.NewStore(client, logger)
	store.SetDragLeaseTTL(cfg.DragLeaseTTL())

	// Warm the store from the snapshot cache so the library renders
	// before the first backend refresh lands.
	loadCtx, loadCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if cached, err := repo.LoadProjects(loadCtx); err != nil {
		logger.Warn("snapshot cache load failed", "error", err)
	} else if len(cached) > 0 {
		store.ReplaceProjects(cached)
		logger.Info("store warmed from snapshot cache", "project_count", len(cached))
	}
	loadCancel()

	poller := progress.NewPoller(client, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	refresher := library.NewRefresher(store, client, poller, repo,
		cfg.RefreshInterval(), cfg.PollInterval(), logger)
	go refresher.Start(ctx)

	apiServer := api.NewServer(api.ServerConfig{
		Port:      cfg.Port(),
		Store:     store,
		Poller:    poller,
		AuthToken: cfg.APIToken(),
		Logger:    logger,
		StartTime: startTime,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig)

	cancel()
	poller.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
