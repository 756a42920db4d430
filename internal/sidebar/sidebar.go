// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package sidebar keeps the widget regions the theme exposes.
package sidebar

import (
	"errors"
	"fmt"
	"html"
	"html/template"
	"log/slog"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/olegiv/primer-go/internal/hook"
)

// Registry errors.
var (
	ErrEmptyID = errors.New("sidebar id is empty")
	ErrFrozen  = errors.New("sidebar registry is frozen")
)

// textPolicy strips all markup from names and descriptions.
var textPolicy = bluemonday.StrictPolicy()

// plainText strips markup and returns unescaped text; templates escape it
// on output.
func plainText(s string) string {
	return html.UnescapeString(textPolicy.Sanitize(s))
}

// Shared wrapper markup. %1$s is the widget id, %2$s its classes.
const (
	DefaultBeforeWidget = `<aside id="%1$s" class="widget %2$s">`
	DefaultAfterWidget  = `</aside>`
	DefaultBeforeTitle  = `<h4 class="widget-title">`
	DefaultAfterTitle   = `</h4>`
)

// Definition describes one widget region.
type Definition struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
	BeforeWidget string `json:"before_widget" yaml:"before_widget"`
	AfterWidget  string `json:"after_widget" yaml:"after_widget"`
	BeforeTitle  string `json:"before_title" yaml:"before_title"`
	AfterTitle   string `json:"after_title" yaml:"after_title"`
}

// WithDefaultWrappers fills empty wrapper fields with the shared markup.
func (d Definition) WithDefaultWrappers() Definition {
	if d.BeforeWidget == "" {
		d.BeforeWidget = DefaultBeforeWidget
	}
	if d.AfterWidget == "" {
		d.AfterWidget = DefaultAfterWidget
	}
	if d.BeforeTitle == "" {
		d.BeforeTitle = DefaultBeforeTitle
	}
	if d.AfterTitle == "" {
		d.AfterTitle = DefaultAfterTitle
	}
	return d
}

// Registry holds registered sidebars in first-registration order.
type Registry struct {
	defs   []Definition
	index  map[string]int
	frozen bool
	logger *slog.Logger
	mu     sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		index:  make(map[string]int),
		logger: logger,
	}
}

// Register adds def, or replaces the metadata of an already registered id
// while keeping its position.
func (r *Registry) Register(def Definition) error {
	def.ID = strings.TrimSpace(def.ID)
	if def.ID == "" {
		return ErrEmptyID
	}
	def.Name = plainText(def.Name)
	def.Description = plainText(def.Description)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("registering %s: %w", def.ID, ErrFrozen)
	}

	if i, ok := r.index[def.ID]; ok {
		r.defs[i] = def
		r.logger.Debug("sidebar replaced", "category", "sidebar", "id", def.ID)
		return nil
	}

	r.index[def.ID] = len(r.defs)
	r.defs = append(r.defs, def)
	r.logger.Debug("sidebar registered", "category", "sidebar", "id", def.ID)
	return nil
}

// RegisterRegion is Register for callers that treat the registry as the
// host's widget subsystem.
func (r *Registry) RegisterRegion(def Definition) error {
	return r.Register(def)
}

// RegisterDefaults passes Defaults(tr) through filter and registers what
// comes back. filter may be nil. An empty result registers nothing.
func (r *Registry) RegisterDefaults(tr func(string) string, filter *hook.Filter[[]Definition]) error {
	defs := Defaults(tr)
	if filter != nil {
		defs = filter.Apply(defs)
	}
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	r.logger.Info("sidebars registered", "category", "sidebar", "count", len(defs))
	return nil
}

// Freeze rejects further registration.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Get returns the sidebar with the given id.
func (r *Registry) Get(id string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[id]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i], true
}

// Definitions returns a copy of every registered sidebar.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Len returns the number of registered sidebars.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// WrapWidget renders the opening and closing wrapper of a widget placed in
// sidebar id.
func (r *Registry) WrapWidget(id, widgetID string, classes ...string) (before, after template.HTML, err error) {
	def, ok := r.Get(id)
	if !ok {
		return "", "", fmt.Errorf("sidebar %q not registered", id)
	}
	class := strings.Join(classes, " ")
	before = template.HTML(expandPlaceholders(def.BeforeWidget,
		template.HTMLEscapeString(widgetID), template.HTMLEscapeString(class)))
	return before, template.HTML(def.AfterWidget), nil
}

// expandPlaceholders substitutes printf-style positional placeholders
// (%1$s, %2$s) in markup.
func expandPlaceholders(markup string, args ...string) string {
	for i, arg := range args {
		markup = strings.ReplaceAll(markup, fmt.Sprintf("%%%d$s", i+1), arg)
	}
	return markup
}

// Defaults returns the theme's five widget regions. tr translates the
// display strings; nil leaves them in English.
func Defaults(tr func(string) string) []Definition {
	if tr == nil {
		tr = func(s string) string { return s }
	}

	def := func(id, name, desc string) Definition {
		return Definition{
			ID:           id,
			Name:         tr(name),
			Description:  tr(desc),
			BeforeWidget: DefaultBeforeWidget,
			AfterWidget:  DefaultAfterWidget,
			BeforeTitle:  DefaultBeforeTitle,
			AfterTitle:   DefaultAfterTitle,
		}
	}

	return []Definition{
		def("sidebar-1", "Sidebar",
			"The primary sidebar appears alongside the content of every page, post, archive, and search template."),
		def("sidebar-2", "Secondary Sidebar",
			"The secondary sidebar will only appear when you have selected a three-column layout."),
		def("footer-1", "Footer 1",
			"This sidebar is the first column of the footer widget area."),
		def("footer-2", "Footer 2",
			"This sidebar is the second column of the footer widget area."),
		def("footer-3", "Footer 3",
			"This sidebar is the third column of the footer widget area."),
	}
}
