// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package theme

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strconv"

	"github.com/olegiv/primer-go/internal/asset"
	"github.com/olegiv/primer-go/internal/layout"
	"github.com/olegiv/primer-go/internal/pagectx"
	"github.com/olegiv/primer-go/internal/region"
	"github.com/olegiv/primer-go/internal/sidebar"
	"github.com/olegiv/primer-go/internal/store"
)

// FooterSidebars are the footer widget columns, left to right.
var FooterSidebars = []string{"footer-1", "footer-2", "footer-3"}

// Page is everything the theme decided for one request.
type Page struct {
	Context          pagectx.Context      `json:"-" yaml:"-"`
	Kind             string               `json:"kind" yaml:"kind"`
	Title            string               `json:"title,omitempty" yaml:"title,omitempty"`
	Lang             string               `json:"lang" yaml:"lang"`
	RTL              bool                 `json:"rtl,omitempty" yaml:"rtl,omitempty"`
	Layout           layout.Variant       `json:"layout" yaml:"layout"`
	ContentWidth     int                  `json:"content_width" yaml:"content_width"`
	Sidebars         []sidebar.Definition `json:"sidebars" yaml:"sidebars"`
	FooterSidebars   []sidebar.Definition `json:"footer_sidebars" yaml:"footer_sidebars"`
	AfterHeader      []string             `json:"after_header" yaml:"after_header"`
	Assets           []asset.Descriptor   `json:"assets" yaml:"assets"`
	Menus            []Menu               `json:"menus" yaml:"menus"`
	Author           *store.Author        `json:"author,omitempty" yaml:"author,omitempty"`
	ActiveCategories bool                 `json:"active_categories" yaml:"active_categories"`
}

type requestKey int

const (
	langKey requestKey = iota
	titleKey
	rtlKey
)

// WithLanguage sets the language Compose translates into.
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey, lang)
}

// WithTitle sets the page title handed to the title partials.
func WithTitle(ctx context.Context, title string) context.Context {
	return context.WithValue(ctx, titleKey, title)
}

// WithRTL marks the request as right-to-left.
func WithRTL(ctx context.Context, rtl bool) context.Context {
	return context.WithValue(ctx, rtlKey, rtl)
}

// LanguageFromContext returns the language set by WithLanguage, or "".
func LanguageFromContext(ctx context.Context) string {
	lang, _ := ctx.Value(langKey).(string)
	return lang
}

func (t *Theme) language(ctx context.Context) string {
	if lang := LanguageFromContext(ctx); lang != "" {
		return t.catalog.MatchLanguage(lang)
	}
	return t.cfg.Locale
}

// Compose resolves the layout, content width, sidebars, after-header
// partials and assets for pctx.
func (t *Theme) Compose(ctx context.Context, pctx pagectx.Context) (*Page, error) {
	if !t.ready.Load() {
		return nil, ErrNotSetup
	}

	global := t.resolver.GlobalDefault(ctx, t.cfg.DefaultLayout)
	v := t.resolver.ResolveLayout(ctx, pctx.PageID, global)

	assets, err := t.assets.Activate(pctx)
	if err != nil {
		return nil, err
	}

	title, _ := ctx.Value(titleKey).(string)
	rtl, _ := ctx.Value(rtlKey).(bool)
	page := &Page{
		Context:          pctx,
		Kind:             pctx.Kind.String(),
		Title:            title,
		Lang:             t.language(ctx),
		RTL:              rtl,
		Layout:           v,
		ContentWidth:     t.resolver.ResolveContentWidth(v),
		Sidebars:         t.lookupSidebars(layout.Sidebars(v)),
		FooterSidebars:   t.lookupSidebars(FooterSidebars),
		AfterHeader:      t.regions.Compose(region.AfterHeader, pctx),
		Assets:           assets,
		Menus:            t.Menus(),
		ActiveCategories: t.HasActiveCategories(ctx),
	}
	if pctx.IsAuthor() {
		page.Author = t.author(ctx, pctx.AuthorID)
	}

	t.logger.DebugContext(ctx, "page composed",
		"kind", page.Kind,
		"layout", v.String(),
		"partials", len(page.AfterHeader),
		"assets", len(page.Assets))
	return page, nil
}

func (t *Theme) lookupSidebars(ids []string) []sidebar.Definition {
	out := make([]sidebar.Definition, 0, len(ids))
	for _, id := range ids {
		if def, ok := t.sidebars.Get(id); ok {
			out = append(out, def)
		}
	}
	return out
}

// RenderAfterHeader composes pctx and renders its after-header partials.
func (t *Theme) RenderAfterHeader(ctx context.Context, w io.Writer, pctx pagectx.Context) error {
	page, err := t.Compose(ctx, pctx)
	if err != nil {
		return err
	}
	return t.writeAfterHeader(w, page)
}

func (t *Theme) writeAfterHeader(w io.Writer, page *Page) error {
	return t.regions.Render(w, region.AfterHeader, page.Context, t.partials, t.partialData(page))
}

// author loads the archive's author through the cache. A missing author is nil.
func (t *Theme) author(ctx context.Context, id int64) *store.Author {
	if t.cfg.Directory == nil || id <= 0 {
		return nil
	}
	a, err := t.authors.GetOrSet(ctx, strconv.FormatInt(id, 10), func() (store.Author, error) {
		return t.cfg.Directory.GetAuthor(ctx, id)
	})
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			t.logger.WarnContext(ctx, "loading author failed", "category", "system", "author_id", id, "error", err)
		}
		return nil
	}
	return &a
}

const activeCategoriesKey = "active"

// HasActiveCategories reports whether more than one category has posts.
// The answer is cached until ResetActiveCategories. A lookup failure
// reports true so category links stay visible.
func (t *Theme) HasActiveCategories(ctx context.Context) bool {
	if t.cfg.Directory == nil {
		return false
	}
	active, err := t.activeCategories.GetOrSet(ctx, activeCategoriesKey, func() (bool, error) {
		n, err := t.cfg.Directory.CountCategoriesInUse(ctx)
		return n > 1, err
	})
	if err != nil {
		t.logger.WarnContext(ctx, "counting categories failed", "category", "cache", "error", err)
		return true
	}
	return active
}

// ResetActiveCategories drops the cached HasActiveCategories answer.
func (t *Theme) ResetActiveCategories(ctx context.Context) {
	if err := t.activeCategories.Delete(ctx, activeCategoriesKey); err != nil {
		t.logger.WarnContext(ctx, "resetting category cache failed", "category", "cache", "error", err)
	}
}

// Event is a content change the theme reacts to.
type Event string

// Content events.
const (
	EventCategoryCreated Event = "category.created"
	EventCategoryEdited  Event = "category.edited"
	EventCategoryDeleted Event = "category.deleted"
	EventPostSaved       Event = "post.saved"
	EventAuthorUpdated   Event = "author.updated"
)

// OnEvent invalidates cached lookups affected by ev. id is the author id
// for EventAuthorUpdated and ignored otherwise.
func (t *Theme) OnEvent(ctx context.Context, ev Event, id int64) {
	switch ev {
	case EventCategoryCreated, EventCategoryEdited, EventCategoryDeleted, EventPostSaved:
		t.ResetActiveCategories(ctx)
	case EventAuthorUpdated:
		if err := t.authors.Delete(ctx, strconv.FormatInt(id, 10)); err != nil {
			t.logger.WarnContext(ctx, "resetting author cache failed", "category", "cache", "error", err)
		}
	default:
		t.logger.DebugContext(ctx, "ignoring event", "event", string(ev))
	}
}

// PageLayout returns the layout a page renders with.
func (t *Theme) PageLayout(ctx context.Context, pageID int64) layout.Variant {
	return t.resolver.ResolveLayout(ctx, pageID, t.resolver.GlobalDefault(ctx, t.cfg.DefaultLayout))
}

// ErrNoContent is returned by writes when the theme has no content store.
var ErrNoContent = errors.New("theme has no content store")

// SetPageLayout stores a per-page override. layout.Invalid clears it.
func (t *Theme) SetPageLayout(ctx context.Context, pageID int64, v layout.Variant) error {
	if t.cfg.Content == nil {
		return ErrNoContent
	}
	if !v.Valid() {
		return t.cfg.Content.DeletePostMeta(ctx, pageID, layout.MetaLayout)
	}
	return t.cfg.Content.SetPostMeta(ctx, pageID, layout.MetaLayout, v.String())
}

// SetGlobalLayout stores the site-wide layout option.
func (t *Theme) SetGlobalLayout(ctx context.Context, v layout.Variant) error {
	if t.cfg.Content == nil {
		return ErrNoContent
	}
	if !v.Valid() {
		return layout.ErrInvalidVariant
	}
	return t.cfg.Content.SetOption(ctx, layout.OptionLayout, v.String())
}
