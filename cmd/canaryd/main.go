package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iconidentify/canary/internal/api"
	"github.com/iconidentify/canary/internal/api/handler"
	"github.com/iconidentify/canary/internal/backup"
	"github.com/iconidentify/canary/internal/cache"
	"github.com/iconidentify/canary/internal/config"
	"github.com/iconidentify/canary/internal/event"
	"github.com/iconidentify/canary/internal/feed"
	"github.com/iconidentify/canary/internal/service"
	"github.com/iconidentify/canary/internal/store"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("canaryd %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting canaryd",
		"version", Version,
		"build_time", BuildTime,
	)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Open the persistent store
	kv, err := store.OpenSQLite(cfg.Storage.Path)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer kv.Close()

	ctx := context.Background()

	// Hydrate the synchronous cache before anything reads from it
	c := cache.New(kv, logger)
	if err := c.Hydrate(ctx); err != nil {
		logger.Error("failed to hydrate cache", "error", err)
		os.Exit(1)
	}

	// A completed restore or clear requested this boot; consume the
	// marker so the next boot is a normal one.
	if marker, ok, err := kv.Get(ctx, store.KeyAppReloaded); err == nil && ok && marker == "true" {
		logger.Info("booting after restore or clear")
		if err := kv.Remove(ctx, store.KeyAppReloaded); err != nil {
			logger.Warn("failed to reset reload marker", "error", err)
		}
	}

	// Initialize dependencies
	bus := event.NewBus()
	feedClient := feed.NewHTTPClient(feed.HTTPClientConfig{
		BaseURL:     cfg.Feed.BaseURL,
		BearerToken: cfg.Feed.BearerToken,
		Timeout:     cfg.Feed.Timeout,
		PageSize:    cfg.Feed.PageSize,
	})

	// Initialize services
	collectionSvc := service.NewCollectionService(kv, logger)
	listSvc := service.NewListService(kv, logger)
	prefs := service.NewPreferences(c, bus, logger)

	remote := backup.NewHTTPRemoteStore(backup.HTTPRemoteStoreConfig{
		BaseURL: cfg.Backup.RemoteURL,
		Timeout: cfg.Backup.Timeout,
	})
	backupEngine := backup.NewEngine(kv, c, remote, bus, logger, backup.Config{
		Passphrase:        cfg.Backup.Passphrase,
		URLBase:           cfg.Backup.ShareURLBase,
		ClearRestartDelay: cfg.Backup.RestartDelay,
		Restart: func() {
			// The supervisor restarts the process on a clean exit.
			logger.Info("restart requested")
			proc, err := os.FindProcess(os.Getpid())
			if err == nil {
				proc.Signal(syscall.SIGTERM)
			}
		},
	})

	// Initialize handlers
	collectionHandler := handler.NewCollectionHandler(collectionSvc, logger)
	listHandler := handler.NewListHandler(listSvc, logger)
	preferencesHandler := handler.NewPreferencesHandler(prefs, logger)
	feedHandler := handler.NewFeedHandler(feedClient, prefs, listSvc, logger)
	backupHandler := handler.NewBackupHandler(backupEngine, logger)
	healthHandler := handler.NewHealthHandler(kv)

	// Setup router
	router := api.NewRouter(
		collectionHandler,
		listHandler,
		preferencesHandler,
		feedHandler,
		backupHandler,
		healthHandler,
		cfg.Server.APIKey,
	)

	// Setup HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop accepting new requests
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// Drain pending cache writes before the store closes
	if err := c.Flush(shutdownCtx); err != nil {
		logger.Error("cache flush error", "error", err)
	}
	c.Close()

	logger.Info("shutdown complete")
}
