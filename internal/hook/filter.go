// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package hook

import "log/slog"

// FilterFunc transforms a value.
type FilterFunc[T any] func(T) T

// Filter is a chain of transforms applied in priority order.
type Filter[T any] struct {
	*Chain[FilterFunc[T]]
}

// NewFilter creates an empty filter. Applying an empty filter returns the
// input unchanged.
func NewFilter[T any](name string, logger *slog.Logger) *Filter[T] {
	return &Filter[T]{Chain: NewChain[FilterFunc[T]](name, logger)}
}

// AddFunc registers fn at DefaultPriority.
func (f *Filter[T]) AddFunc(name string, fn FilterFunc[T]) {
	f.Add(name, DefaultPriority, fn)
}

// Apply threads v through every handler and returns the result.
func (f *Filter[T]) Apply(v T) T {
	for _, e := range f.Entries() {
		if e.Value == nil {
			continue
		}
		v = e.Value(v)
	}
	return v
}
