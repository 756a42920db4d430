// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/olegiv/primer-go/internal/asset"
	"github.com/olegiv/primer-go/internal/cache"
	"github.com/olegiv/primer-go/internal/config"
	"github.com/olegiv/primer-go/internal/i18n"
	"github.com/olegiv/primer-go/internal/logging"
	"github.com/olegiv/primer-go/internal/store"
	"github.com/olegiv/primer-go/internal/theme"
)

// app is the wired runtime shared by all commands.
type app struct {
	cfg     *config.Config
	db      *sql.DB
	cache   cache.Cacher
	catalog *i18n.Catalog
	theme   *theme.Theme
	logger  *slog.Logger
}

// newApp loads configuration, opens the database and sets up the theme.
// Logs go to logOut; warnings and errors are also stored as events.
func newApp(ctx context.Context, logOut io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	queries := store.New(db)

	logger := logging.New(logOut, logging.ParseLevel(cfg.LogLevel), queries)
	slog.SetDefault(logger)

	c := cache.NewCache(cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      cfg.CacheTTLDuration(),
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	}, logger)

	a := &app{cfg: cfg, db: db, cache: c, logger: logger}
	if err := a.setupTheme(ctx, queries); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) setupTheme(ctx context.Context, queries *store.Queries) error {
	catalog, err := i18n.New(a.logger)
	if err != nil {
		return fmt.Errorf("initializing i18n: %w", err)
	}
	a.catalog = catalog

	var overrides *theme.Overrides
	if a.cfg.OverridesPath != "" {
		overrides, err = theme.LoadOverrides(a.cfg.OverridesPath)
		if err != nil {
			return fmt.Errorf("loading overrides: %w", err)
		}
		a.logger.Info("theme overrides loaded", "path", a.cfg.OverridesPath)
	}

	ttl := a.cfg.CacheTTLDuration()
	th, err := theme.New(theme.Config{
		Assets: asset.Options{
			Version:       theme.Version,
			TemplateURI:   a.cfg.TemplateURI,
			StylesheetURI: a.cfg.StylesheetURI,
			IncludesURI:   a.cfg.IncludesURI,
			ScriptDebug:   a.cfg.ScriptDebug,
		},
		DefaultLayout: a.cfg.Layout(),
		Locale:        a.cfg.Locale,
		Content:       cache.NewContentCache(queries, a.cache, ttl),
		Directory:     queries,
		Cache:         a.cache,
		CacheTTL:      ttl,
		Catalog:       catalog,
		Overrides:     overrides,
		Logger:        a.logger,
	})
	if err != nil {
		return fmt.Errorf("creating theme: %w", err)
	}
	if err := th.Setup(ctx); err != nil {
		return fmt.Errorf("setting up theme: %w", err)
	}
	a.theme = th
	return nil
}

// Close releases the cache and the database.
func (a *app) Close() error {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("closing cache", "error", err)
		}
	}
	return a.db.Close()
}
