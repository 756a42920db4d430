// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler serves the theme preview and its JSON inspection API.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/primer-go/internal/cache"
	"github.com/olegiv/primer-go/internal/i18n"
	"github.com/olegiv/primer-go/internal/middleware"
	"github.com/olegiv/primer-go/internal/scheduler"
	"github.com/olegiv/primer-go/internal/theme"
)

// Pinger checks a backing store. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Config holds the handler's collaborators. DB, Cache and Scheduler may be nil.
type Config struct {
	Theme         *theme.Theme
	Catalog       *i18n.Catalog
	DB            Pinger
	Cache         cache.Cacher
	Scheduler     *scheduler.Scheduler
	Logger        *slog.Logger
	IsDevelopment bool
	Timeout       time.Duration

	// Write API limit per client; zero values use 5 rps with a burst of 10.
	RateLimit float64
	RateBurst int
}

// Handler serves preview and API requests.
type Handler struct {
	theme     *theme.Theme
	catalog   *i18n.Catalog
	db        Pinger
	cache     cache.Cacher
	scheduler *scheduler.Scheduler
	logger    *slog.Logger
	isDev     bool
	timeout   time.Duration
	rateLimit float64
	rateBurst int
	startTime time.Time
}

// New creates a handler.
func New(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rateLimit, rateBurst := cfg.RateLimit, cfg.RateBurst
	if rateLimit <= 0 {
		rateLimit = 5
	}
	if rateBurst <= 0 {
		rateBurst = 10
	}
	return &Handler{
		theme:     cfg.Theme,
		catalog:   cfg.Catalog,
		db:        cfg.DB,
		cache:     cfg.Cache,
		scheduler: cfg.Scheduler,
		logger:    logger,
		isDev:     cfg.IsDevelopment,
		timeout:   timeout,
		rateLimit: rateLimit,
		rateBurst: rateBurst,
		startTime: time.Now(),
	}
}

// Routes returns the router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(h.requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(h.timeout))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(h.isDev)))
	if h.catalog != nil {
		r.Use(middleware.Language(h.catalog))
	}

	r.Get("/health", h.Health)
	r.Get("/preview", h.Preview)

	r.Route("/api", func(r chi.Router) {
		r.Get("/layout/{pageID}", h.GetLayout)
		r.Get("/sidebars", h.ListSidebars)
		r.Get("/assets", h.ListAssets)
		r.Get("/regions", h.ListRegions)
		r.Get("/jobs", h.ListJobs)

		r.Group(func(r chi.Router) {
			r.Use(middleware.CSRF(middleware.DefaultCSRFConfig(h.isDev)))
			r.Use(middleware.RateLimit(h.rateLimit, h.rateBurst))
			r.Put("/layout/{pageID}", h.PutLayout)
			r.Post("/jobs/{name}/run", h.RunJob)
		})
	})

	return r
}

// requestLogger logs each request after it completes.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()))
	})
}
