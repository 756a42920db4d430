// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package hook provides statically registered, priority-ordered handler
// chains. A Chain holds any payload (predicates, renderers); a Filter is a
// Chain of transforms that threads a value through every handler.
package hook

import (
	"log/slog"
	"sync"
)

// DefaultPriority is the priority used by RegisterFunc-style helpers.
const DefaultPriority = 10

// Entry is one registered handler.
type Entry[T any] struct {
	Name     string // handler name, for logging and removal
	Priority int    // lower runs first
	Value    T
}

// Chain is an ordered list of entries. Entries with equal priority keep
// registration order.
type Chain[T any] struct {
	name    string
	entries []Entry[T]
	logger  *slog.Logger
	mu      sync.RWMutex
}

// NewChain creates an empty chain. A nil logger discards debug output.
func NewChain[T any](name string, logger *slog.Logger) *Chain[T] {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Chain[T]{name: name, logger: logger}
}

// Name returns the hook point name.
func (c *Chain[T]) Name() string { return c.name }

// Add registers an entry.
func (c *Chain[T]) Add(name string, priority int, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = append(c.entries, Entry[T]{Name: name, Priority: priority, Value: value})

	// Insertion step: only move past strictly greater priorities so equal
	// priorities stay in registration order.
	for i := len(c.entries) - 1; i > 0; i-- {
		if c.entries[i].Priority < c.entries[i-1].Priority {
			c.entries[i], c.entries[i-1] = c.entries[i-1], c.entries[i]
			continue
		}
		break
	}

	c.logger.Debug("hook registered",
		"hook", c.name,
		"handler", name,
		"priority", priority,
	)
}

// Remove drops every entry with the given name and reports how many went.
func (c *Chain[T]) Remove(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.entries[:0]
	removed := 0
	for _, e := range c.entries {
		if e.Name == name {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	// Clear the tail so removed values can be collected.
	for i := len(kept); i < len(c.entries); i++ {
		c.entries[i] = Entry[T]{}
	}
	c.entries = kept

	if removed > 0 {
		c.logger.Debug("hook unregistered", "hook", c.name, "handler", name, "removed", removed)
	}
	return removed
}

// Entries returns a snapshot of the chain in run order.
func (c *Chain[T]) Entries() []Entry[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Entry[T], len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of registered entries.
func (c *Chain[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Info describes a registered handler.
type Info struct {
	Name     string `json:"name" yaml:"name"`
	Priority int    `json:"priority" yaml:"priority"`
}

// Info lists handler names and priorities in run order.
func (c *Chain[T]) Info() []Info {
	c.mu.RLock()
	defer c.mu.RUnlock()

	infos := make([]Info, len(c.entries))
	for i, e := range c.entries {
		infos[i] = Info{Name: e.Name, Priority: e.Priority}
	}
	return infos
}
