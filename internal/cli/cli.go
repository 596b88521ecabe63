// Package cli implements the trendwatch command surface.
package cli

import (
	"fmt"

	"go.uber.org/zap"

	"trendwatch/internal/config"
	"trendwatch/internal/notify"
	"trendwatch/internal/storage"
	"trendwatch/internal/storage/sqlite"
	"trendwatch/internal/types"
)

// app bundles the pieces every command needs.
type app struct {
	cfg    *config.Config
	pool   *storage.Pool
	router *storage.Router
	logger *zap.Logger
}

// newApp loads configuration and wires the shard pool.
func newApp(configPath string, verbose bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	router := storage.NewRouter(cfg.Storage.DataDir, types.SystemClock{})
	pool := storage.NewPool(router, sqlite.Options{
		JournalMode:   cfg.Storage.JournalMode,
		BusyTimeoutMS: cfg.Storage.BusyTimeoutMS,
		Logger:        logger,
	}, logger)

	return &app{cfg: cfg, pool: pool, router: router, logger: logger}, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// close releases pool handles and flushes logs.
func (a *app) close() {
	if err := a.pool.ReleaseAll(); err != nil {
		a.logger.Warn("failed to release shards", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// dispatcher builds the notification dispatcher from configured channels.
func (a *app) dispatcher() *notify.Dispatcher {
	var channels []notify.Channel
	if a.cfg.Notify.TelegramBotToken != "" && a.cfg.Notify.TelegramChatID != "" {
		channels = append(channels, notify.NewTelegram(a.cfg.Notify.TelegramBotToken, a.cfg.Notify.TelegramChatID))
	}
	if a.cfg.Notify.WebhookURL != "" {
		channels = append(channels, notify.NewWebhook(a.cfg.Notify.WebhookURL))
	}
	return notify.NewDispatcher(channels, a.logger)
}
