package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/rss-buckets/app/api"
	"github.com/lysyi3m/rss-buckets/app/bucket"
	"github.com/lysyi3m/rss-buckets/app/cfg"
	"github.com/lysyi3m/rss-buckets/app/database"
	"github.com/lysyi3m/rss-buckets/app/feed"
	"github.com/lysyi3m/rss-buckets/app/library"
	"github.com/lysyi3m/rss-buckets/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting RSS Buckets server", "version", appCfg.Version)

	db, err := database.Open(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	fetcher := feed.NewFetcher(&http.Client{}, feed.NewParser(), appCfg.UserAgent,
		time.Duration(appCfg.FetchTimeout)*time.Second)

	lib := library.New(database.NewStorage(db), fetcher, appCfg.WorkerCount)
	if err := lib.Load(context.Background()); err != nil {
		slog.Error("Failed to load library", "error", err)
		os.Exit(1)
	}

	configCache := bucket.NewConfigCache(appCfg.BucketsDir)

	scheduler := tasks.NewScheduler(lib, configCache, fetcher, feed.NewContentExtractor(), tasks.Options{
		Interval:       time.Duration(appCfg.SchedulerInterval) * time.Second,
		WorkerCount:    appCfg.WorkerCount,
		ExtractContent: appCfg.ExtractContent,
	})
	scheduler.Start()

	baseURL := appCfg.BaseUrl
	if baseURL == "" {
		baseURL = "http://localhost:" + appCfg.Port
	}

	handler := api.NewHandler(lib, configCache, scheduler, baseURL, appCfg.Version)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port, "base_url", appCfg.BaseUrl)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig)
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	scheduler.Stop()

	if err := lib.Save(shutdownCtx); err != nil {
		slog.Error("Failed to save library on shutdown", "error", err)
	}

	slog.Info("RSS Buckets server shutdown complete")
}
