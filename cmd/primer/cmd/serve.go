// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/olegiv/primer-go/internal/handler"
	"github.com/olegiv/primer-go/internal/scheduler"
	"github.com/olegiv/primer-go/internal/store"
	"github.com/olegiv/primer-go/internal/version"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the page preview and inspection API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, os.Stdout)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					a.logger.Error("error closing database connection", "error", err)
				}
			}()

			sched, err := newScheduler(a)
			if err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			h := handler.New(handler.Config{
				Theme:         a.theme,
				Catalog:       a.catalog,
				DB:            a.db,
				Cache:         a.cache,
				Scheduler:     sched,
				Logger:        a.logger,
				IsDevelopment: a.cfg.IsDevelopment(),
				RateLimit:     a.cfg.APIRateLimit,
				RateBurst:     a.cfg.APIRateBurst,
			})

			srv := &http.Server{
				Addr:              a.cfg.ServerAddr(),
				Handler:           h.Routes(),
				ReadTimeout:       15 * time.Second,
				ReadHeaderTimeout: 5 * time.Second,
				WriteTimeout:      60 * time.Second,
				IdleTimeout:       60 * time.Second,
				MaxHeaderBytes:    1 << 20,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("starting server",
					"addr", a.cfg.ServerAddr(), "env", a.cfg.Env, "version", version.Version)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			a.logger.Info("shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
			a.logger.Info("server stopped")
			return nil
		},
	}
}

// newScheduler registers the maintenance jobs. Event pruning is skipped
// when retention is zero.
func newScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.logger)
	if retention := a.cfg.EventRetention(); retention > 0 {
		if err := sched.Add(scheduler.PruneEvents(store.New(a.db), retention, a.logger)); err != nil {
			return nil, err
		}
	}
	if err := sched.Add(scheduler.RefreshCategories(a.theme)); err != nil {
		return nil, err
	}
	return sched, nil
}
