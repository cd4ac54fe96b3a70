package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"schedule_bot/internal/bot"
	"schedule_bot/internal/calsync"
	"schedule_bot/internal/config"
	"schedule_bot/internal/fetcher"
	"schedule_bot/internal/files"
	"schedule_bot/internal/scheduler"
	"schedule_bot/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	fileStore, err := files.NewStore(cfg.FilesDir)
	if err != nil {
		log.Error("open file store", "path", cfg.FilesDir, "error", err)
		os.Exit(1)
	}

	syncCfg := calsync.DefaultConfig()
	syncCfg.Workers = cfg.SyncWorkers
	syncCfg.WriteRetries = cfg.WriteRetries
	syncCfg.BaseURL = cfg.BaseURL
	orch := calsync.New(store, fileStore, syncCfg, log.With("component", "calsync"))

	b, err := bot.New(cfg.TelegramBotToken, store, cfg, orch, log.With("component", "bot"))
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	source := fetcher.New(http.DefaultClient, cfg.ScheduleSourceURL, cfg.Location())
	sched := scheduler.New(source, store, orch, log.With("component", "scheduler"))
	sched.SetTickInterval(cfg.RefreshInterval)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting bot",
		"source", cfg.ScheduleSourceURL,
		"files_dir", cfg.FilesDir,
		"refresh_interval", cfg.RefreshInterval,
		"sync_workers", cfg.SyncWorkers,
	)

	var g errgroup.Group
	g.Go(func() error { return orch.Run(ctx) })
	g.Go(func() error {
		sched.Run(ctx)
		return nil
	})
	g.Go(func() error {
		b.DeliverNotifications(ctx, orch.Notifications())
		return nil
	})
	g.Go(func() error {
		b.Run(ctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("shutdown", "error", err)
	}

	log.Info("bot stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
