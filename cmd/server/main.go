package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/pdftables/internal/client"
	"github.com/JonMunkholm/pdftables/internal/config"
	"github.com/JonMunkholm/pdftables/internal/core"
	"github.com/JonMunkholm/pdftables/internal/history"
	"github.com/JonMunkholm/pdftables/internal/logging"
	"github.com/JonMunkholm/pdftables/internal/session"
	"github.com/JonMunkholm/pdftables/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	closeLog := logging.Setup(logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer closeLog()

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"extractor", cfg.Extractor.URL,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"history_enabled", cfg.Database.Enabled(),
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()

	// Cancelled on shutdown to stop background jobs
	jobCtx, cancelJobs := context.WithCancel(ctx)
	defer cancelJobs()

	var recorder history.Recorder = history.Nop{}
	if cfg.Database.Enabled() {
		pool, err := connectDB(ctx, &cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		store := history.NewStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			slog.Error("failed to prepare history schema", "error", err)
			os.Exit(1)
		}
		recorder = store

		go history.RunRetention(jobCtx, store, history.RetentionConfig{
			MaxAge:        cfg.Database.HistoryRetention,
			CheckInterval: cfg.Database.HistoryPruneInterval,
		})
	}

	sessions, err := session.NewStore(cfg.Session.MaxActive)
	if err != nil {
		slog.Error("failed to create session store", "error", err)
		os.Exit(1)
	}
	cache, err := session.NewResultCache(cfg.Session.ResultCacheSize)
	if err != nil {
		slog.Error("failed to create result cache", "error", err)
		os.Exit(1)
	}

	extractor := client.New(cfg.Extractor.URL,
		client.WithTimeout(cfg.Extractor.Timeout),
		client.WithMaxResponseSize(cfg.Extractor.MaxResponseSize),
	)

	service := core.NewService(extractor, core.Options{
		MaxFileSize:   cfg.Upload.MaxFileSize,
		MaxConcurrent: cfg.Upload.MaxConcurrent,
		MaxWait:       cfg.Upload.MaxWaitTime,
		Cache:         cache,
		Recorder:      recorder,
	})

	server := web.NewServer(service, sessions, cfg)

	// Graceful shutdown. Start returns as soon as Shutdown begins, so main
	// waits on done for in-flight extractions to drain.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.UploadLimiterStatus(); status.Active > 0 {
			slog.Info("waiting for extractions to complete", "active", status.Active)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}

func connectDB(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}
