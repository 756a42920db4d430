// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package layout resolves the column layout of a page and the content width
// that follows from it.
package layout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/olegiv/primer-go/internal/hook"
)

// ErrInvalidVariant is returned when a layout slug is not recognised.
var ErrInvalidVariant = errors.New("invalid layout")

// Variant is a column layout.
type Variant int

// Layout variants. The zero value is not a valid layout.
const (
	Invalid Variant = iota
	OneColumn
	OneColumnWide
	TwoColumnRight
	TwoColumnLeft
	ThreeColumn
	ThreeColumnCenter
	ThreeColumnReversed
)

var variantSlugs = []struct {
	v    Variant
	slug string
}{
	{OneColumnWide, "one-column-wide"},
	{OneColumn, "one-column-narrow"},
	{TwoColumnRight, "two-column-default"},
	{TwoColumnLeft, "two-column-reversed"},
	{ThreeColumn, "three-column-default"},
	{ThreeColumnCenter, "three-column-center"},
	{ThreeColumnReversed, "three-column-reversed"},
}

// Content widths in pixels.
const (
	WideContentWidth    = 1068
	DefaultContentWidth = 688
)

// Storage keys.
const (
	OptionLayout = "primer_layout"  // global default layout
	MetaLayout   = "_primer_layout" // per-page override
)

// String returns the layout slug, or "" for values outside the enum.
func (v Variant) String() string {
	for _, s := range variantSlugs {
		if s.v == v {
			return s.slug
		}
	}
	return ""
}

// Valid reports whether v is one of the defined layouts.
func (v Variant) Valid() bool {
	return v.String() != ""
}

// Columns returns the column count of the layout, 0 for invalid values.
func (v Variant) Columns() int {
	switch v {
	case OneColumn, OneColumnWide:
		return 1
	case TwoColumnRight, TwoColumnLeft:
		return 2
	case ThreeColumn, ThreeColumnCenter, ThreeColumnReversed:
		return 3
	default:
		return 0
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Variant) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Variant) UnmarshalText(text []byte) error {
	parsed, ok := ParseVariant(string(text))
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidVariant, text)
	}
	*v = parsed
	return nil
}

// ParseVariant maps a slug to a Variant.
func ParseVariant(slug string) (Variant, bool) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	for _, s := range variantSlugs {
		if s.slug == slug {
			return s.v, true
		}
	}
	return Invalid, false
}

// Variants returns every defined layout in display order.
func Variants() []Variant {
	out := make([]Variant, len(variantSlugs))
	for i, s := range variantSlugs {
		out[i] = s.v
	}
	return out
}

// ContentStore is the read side of the host's content storage.
// Missing values come back as "" with a nil error.
type ContentStore interface {
	GetOption(ctx context.Context, key string) (string, error)
	GetPostMeta(ctx context.Context, postID int64, key string) (string, error)
}

// Width is the value passed through the content width filter.
type Width struct {
	Pixels  int
	Variant Variant
}

// Resolver resolves layouts and content widths.
type Resolver struct {
	store  ContentStore
	width  *hook.Filter[Width]
	logger *slog.Logger
}

// NewResolver creates a resolver. width may be nil when nothing customises
// the content width.
func NewResolver(store ContentStore, width *hook.Filter[Width], logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if width == nil {
		width = hook.NewFilter[Width]("content_width", logger)
	}
	return &Resolver{store: store, width: width, logger: logger}
}

// WidthFilter exposes the content width filter for registration.
func (r *Resolver) WidthFilter() *hook.Filter[Width] {
	return r.width
}

// GlobalDefault returns the site-wide layout option, or fallback when the
// option is unset or invalid.
func (r *Resolver) GlobalDefault(ctx context.Context, fallback Variant) Variant {
	if r.store == nil {
		return fallback
	}
	raw, err := r.store.GetOption(ctx, OptionLayout)
	if err != nil {
		r.logger.Warn("reading layout option failed", "category", "layout", "error", err)
		return fallback
	}
	if v, ok := ParseVariant(raw); ok {
		return v
	}
	return fallback
}

// ResolveLayout returns the per-page layout override for pageID, or
// globalDefault when there is none or it is not a known layout.
func (r *Resolver) ResolveLayout(ctx context.Context, pageID int64, globalDefault Variant) Variant {
	if r.store == nil || pageID <= 0 {
		return globalDefault
	}
	raw, err := r.store.GetPostMeta(ctx, pageID, MetaLayout)
	if err != nil {
		r.logger.Warn("reading page layout failed",
			"category", "layout", "page_id", pageID, "error", err)
		return globalDefault
	}
	if raw == "" {
		return globalDefault
	}
	v, ok := ParseVariant(raw)
	if !ok {
		r.logger.Debug("ignoring unknown page layout", "page_id", pageID, "layout", raw)
		return globalDefault
	}
	return v
}

// ResolveContentWidth returns the content width for v after filtering.
// Filters that return a non-positive width are ignored.
func (r *Resolver) ResolveContentWidth(v Variant) int {
	base := BaseContentWidth(v)
	out := r.width.Apply(Width{Pixels: base, Variant: v})
	if out.Pixels <= 0 {
		r.logger.Debug("ignoring non-positive content width", "layout", v.String(), "width", out.Pixels)
		return base
	}
	return out.Pixels
}

// BaseContentWidth is the unfiltered width mapping.
func BaseContentWidth(v Variant) int {
	if v == OneColumnWide {
		return WideContentWidth
	}
	return DefaultContentWidth
}

// Sidebar ids shown by each layout family.
const (
	PrimarySidebar   = "sidebar-1"
	SecondarySidebar = "sidebar-2"
)

// Sidebars returns the sidebar ids a layout displays next to the content.
func Sidebars(v Variant) []string {
	switch v.Columns() {
	case 2:
		return []string{PrimarySidebar}
	case 3:
		return []string{PrimarySidebar, SecondarySidebar}
	default:
		return nil
	}
}
