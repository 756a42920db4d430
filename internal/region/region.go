// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package region decides which template partials are injected at a named
// hook point for a given page.
package region

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/olegiv/primer-go/internal/hook"
	"github.com/olegiv/primer-go/internal/pagectx"
)

// HookPoint names a location in the page output.
type HookPoint string

// Hook points.
const (
	AfterHeader HookPoint = "after-header"
)

// Partial ids.
const (
	PartialPageTitle    = "header/page-title"
	PartialBlogTitle    = "blog/title"
	PartialArchiveTitle = "archive/title"
)

// DefaultPriority is the priority of the built-in title rules.
const DefaultPriority = 100

// PageBuilderTemplate is the page template that gets its own title partial.
const PageBuilderTemplate = "page-builder"

// ErrFrozen is returned by Register after Freeze.
var ErrFrozen = errors.New("region composer is frozen")

// Predicate decides whether a rule applies to a page.
type Predicate func(pagectx.Context) bool

// Rule binds a partial to a hook point under a predicate.
type Rule struct {
	HookPoint HookPoint
	Priority  int
	Name      string
	Predicate Predicate
	Partial   string
}

// PartialRenderer writes a partial to w.
type PartialRenderer interface {
	RenderPartial(w io.Writer, partialID string, data any) error
}

// Composer holds the rules of every hook point.
type Composer struct {
	points map[HookPoint]*hook.Chain[Rule]
	frozen bool
	logger *slog.Logger
	mu     sync.RWMutex
}

// NewComposer creates an empty composer.
func NewComposer(logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Composer{
		points: make(map[HookPoint]*hook.Chain[Rule]),
		logger: logger,
	}
}

// Register adds a rule. Rules without a predicate or partial are rejected.
func (c *Composer) Register(rule Rule) error {
	if rule.HookPoint == "" {
		return fmt.Errorf("region rule %q: empty hook point", rule.Name)
	}
	if rule.Predicate == nil {
		return fmt.Errorf("region rule %q: nil predicate", rule.Name)
	}
	if rule.Partial == "" {
		return fmt.Errorf("region rule %q: empty partial", rule.Name)
	}
	if rule.Name == "" {
		rule.Name = rule.Partial
	}

	c.mu.Lock()
	if c.frozen {
		c.mu.Unlock()
		return fmt.Errorf("region rule %q: %w", rule.Name, ErrFrozen)
	}
	chain, ok := c.points[rule.HookPoint]
	if !ok {
		chain = hook.NewChain[Rule](string(rule.HookPoint), c.logger)
		c.points[rule.HookPoint] = chain
	}
	c.mu.Unlock()

	chain.Add(rule.Name, rule.Priority, rule)
	return nil
}

// Freeze rejects further registration.
func (c *Composer) Freeze() {
	c.mu.Lock()
	c.frozen = true
	c.mu.Unlock()
}

func (c *Composer) chain(point HookPoint) *hook.Chain[Rule] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.points[point]
}

// Compose returns the partial of every rule at point whose predicate holds
// for ctx, in priority then registration order. Every match is returned,
// not only the first.
func (c *Composer) Compose(point HookPoint, ctx pagectx.Context) []string {
	chain := c.chain(point)
	if chain == nil {
		return nil
	}

	var partials []string
	for _, e := range chain.Entries() {
		if e.Value.Predicate(ctx) {
			partials = append(partials, e.Value.Partial)
		}
	}
	return partials
}

// Rules lists the registered rule names and priorities at point.
func (c *Composer) Rules(point HookPoint) []hook.Info {
	chain := c.chain(point)
	if chain == nil {
		return nil
	}
	return chain.Info()
}

// Render composes point for pctx and renders each partial once, in order.
func (c *Composer) Render(w io.Writer, point HookPoint, pctx pagectx.Context, r PartialRenderer, data any) error {
	for _, partial := range c.Compose(point, pctx) {
		if err := r.RenderPartial(w, partial, data); err != nil {
			return fmt.Errorf("rendering %s at %s: %w", partial, point, err)
		}
	}
	return nil
}

// DefaultRules returns the title rules injected after the site header.
func DefaultRules() []Rule {
	return []Rule{
		{
			HookPoint: AfterHeader,
			Priority:  DefaultPriority,
			Name:      "page_builder_template_title",
			Predicate: func(ctx pagectx.Context) bool { return ctx.IsPageTemplate(PageBuilderTemplate) },
			Partial:   PartialPageTitle,
		},
		{
			HookPoint: AfterHeader,
			Priority:  DefaultPriority,
			Name:      "blog_title",
			Predicate: func(ctx pagectx.Context) bool { return ctx.IsHome() || ctx.IsSingle() },
			Partial:   PartialBlogTitle,
		},
		{
			HookPoint: AfterHeader,
			Priority:  DefaultPriority,
			Name:      "archive_title",
			Predicate: func(ctx pagectx.Context) bool { return ctx.IsArchive() },
			Partial:   PartialArchiveTitle,
		},
	}
}

// RegisterDefaults registers DefaultRules.
func (c *Composer) RegisterDefaults() error {
	for _, rule := range DefaultRules() {
		if err := c.Register(rule); err != nil {
			return err
		}
	}
	return nil
}
