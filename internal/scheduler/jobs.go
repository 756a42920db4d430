// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Job names.
const (
	JobPruneEvents       = "prune-events"
	JobRefreshCategories = "refresh-categories"
)

// EventPruner deletes stored events created before a cutoff.
type EventPruner interface {
	DeleteEventsBefore(ctx context.Context, before time.Time) (int64, error)
}

// PruneEvents deletes events older than retention once a day.
func PruneEvents(store EventPruner, retention time.Duration, logger *slog.Logger) Job {
	return Job{
		Name:        JobPruneEvents,
		Description: "Delete logged events past the retention period",
		Schedule:    "@daily",
		Run: func(ctx context.Context) error {
			n, err := store.DeleteEventsBefore(ctx, time.Now().Add(-retention))
			if err != nil {
				return fmt.Errorf("pruning events: %w", err)
			}
			if n > 0 && logger != nil {
				logger.InfoContext(ctx, "pruned events", "count", n, "retention", retention)
			}
			return nil
		},
	}
}

// CategoryResetter drops the cached categories-in-use flag.
type CategoryResetter interface {
	ResetActiveCategories(ctx context.Context)
}

// RefreshCategories drops the categories-in-use flag every quarter hour so
// changes made outside the theme's event hooks are picked up.
func RefreshCategories(r CategoryResetter) Job {
	return Job{
		Name:        JobRefreshCategories,
		Description: "Recount categories in use",
		Schedule:    "*/15 * * * *",
		Run: func(ctx context.Context) error {
			r.ResetActiveCategories(ctx)
			return nil
		},
	}
}
