// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package theme wires the layout resolver, region composer, sidebar registry
// and asset manifest into one bootstrapped theme.
package theme

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/olegiv/primer-go/internal/asset"
	"github.com/olegiv/primer-go/internal/cache"
	"github.com/olegiv/primer-go/internal/hook"
	"github.com/olegiv/primer-go/internal/i18n"
	"github.com/olegiv/primer-go/internal/layout"
	"github.com/olegiv/primer-go/internal/region"
	"github.com/olegiv/primer-go/internal/sidebar"
	"github.com/olegiv/primer-go/internal/store"
)

// Version is the theme version stamped on every asset.
const Version = "1.0.0"

// ErrNotSetup is returned by per-request calls made before Setup.
var ErrNotSetup = errors.New("theme is not set up")

// Content is the theme's view of content storage.
type Content interface {
	layout.ContentStore
	SetOption(ctx context.Context, key, value string) error
	SetPostMeta(ctx context.Context, postID int64, key, value string) error
	DeletePostMeta(ctx context.Context, postID int64, key string) error
}

// Directory looks up taxonomy and author records.
type Directory interface {
	CountCategoriesInUse(ctx context.Context) (int64, error)
	GetAuthor(ctx context.Context, id int64) (store.Author, error)
}

// Menu is a registered navigation menu location.
type Menu struct {
	Location string `json:"location" yaml:"location"`
	Label    string `json:"label" yaml:"label"`
}

// ImageSize is a named thumbnail size.
type ImageSize struct {
	Name   string `json:"name" yaml:"name"`
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
	Crop   bool   `json:"crop" yaml:"crop"`
}

// Config holds the theme's collaborators. Content, Directory and Cache may be nil.
type Config struct {
	Assets        asset.Options
	DefaultLayout layout.Variant
	Locale        string
	Content       Content
	Directory     Directory
	Cache         cache.Cacher
	CacheTTL      time.Duration
	Catalog       *i18n.Catalog
	Overrides     *Overrides
	Logger        *slog.Logger
}

// Theme owns the process-wide registries. They are filled once by Setup and
// only read afterwards.
type Theme struct {
	cfg     Config
	logger  *slog.Logger
	catalog *i18n.Catalog

	widthFilter   *hook.Filter[layout.Width]
	sidebarFilter *hook.Filter[[]sidebar.Definition]
	menuFilter    *hook.Filter[[]Menu]

	resolver *layout.Resolver
	regions  *region.Composer
	sidebars *sidebar.Registry
	assets   *asset.Manifest
	partials *Partials

	activeCategories *cache.TypedCache[bool]
	authors          *cache.TypedCache[store.Author]

	once       sync.Once
	ready      atomic.Bool
	setupErr   error
	menus      []Menu
	supports   map[string][]string
	imageSizes []ImageSize
}

// New creates a theme. Overrides in cfg are registered on the filters
// immediately so they take part in Setup.
func New(cfg Config) (*Theme, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if !cfg.DefaultLayout.Valid() {
		cfg.DefaultLayout = layout.TwoColumnRight
	}
	if cfg.Locale == "" {
		cfg.Locale = i18n.DefaultLanguage
	}
	if cfg.Assets.Version == "" {
		cfg.Assets.Version = Version
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: cfg.CacheTTL})
	}

	catalog := cfg.Catalog
	if catalog == nil {
		c, err := i18n.New(logger)
		if err != nil {
			return nil, fmt.Errorf("loading translations: %w", err)
		}
		catalog = c
	}

	manifest, err := asset.NewManifest(logger)
	if err != nil {
		return nil, err
	}
	partials, err := ParsePartials()
	if err != nil {
		return nil, err
	}

	t := &Theme{
		cfg:           cfg,
		logger:        logger,
		catalog:       catalog,
		widthFilter:   hook.NewFilter[layout.Width]("content_width", logger),
		sidebarFilter: hook.NewFilter[[]sidebar.Definition]("sidebars", logger),
		menuFilter:    hook.NewFilter[[]Menu]("nav_menus", logger),
		regions:       region.NewComposer(logger),
		sidebars:      sidebar.NewRegistry(logger),
		assets:        manifest,
		partials:      partials,
		supports:      make(map[string][]string),

		activeCategories: cache.NewTypedCache[bool](cfg.Cache, "categories", cfg.CacheTTL),
		authors:          cache.NewTypedCache[store.Author](cfg.Cache, "author", cfg.CacheTTL),
	}
	var content layout.ContentStore
	if cfg.Content != nil {
		content = cfg.Content
	}
	t.resolver = layout.NewResolver(content, t.widthFilter, logger)

	if cfg.Overrides != nil {
		if err := cfg.Overrides.register(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Setup registers menus, supports, image sizes, sidebars, assets and region
// rules, then freezes the registries. Only the first call does any work.
func (t *Theme) Setup(ctx context.Context) error {
	t.once.Do(func() {
		t.setupErr = t.setup(ctx)
		if t.setupErr == nil {
			t.ready.Store(true)
		}
	})
	return t.setupErr
}

func (t *Theme) setup(ctx context.Context) error {
	tr := t.catalog.Translator(t.cfg.Locale)

	t.menus = t.menuFilter.Apply([]Menu{
		{Location: "primary", Label: tr("Primary Menu")},
		{Location: "social", Label: tr("Social Menu")},
	})

	t.supports["automatic-feed-links"] = nil
	t.supports["title-tag"] = nil
	t.supports["post-thumbnails"] = nil
	t.supports["html5"] = []string{"search-form", "comment-form", "comment-list", "gallery", "caption"}
	t.supports["post-formats"] = []string{"aside", "image", "video", "quote", "link"}

	t.imageSizes = append(t.imageSizes, ImageSize{Name: "primer-featured", Width: 1600, Height: 900, Crop: true})

	if err := t.sidebars.RegisterDefaults(tr, t.sidebarFilter); err != nil {
		return fmt.Errorf("registering sidebars: %w", err)
	}
	if err := t.assets.RegisterDefaults(t.cfg.Assets); err != nil {
		return fmt.Errorf("registering assets: %w", err)
	}
	if err := t.regions.RegisterDefaults(); err != nil {
		return fmt.Errorf("registering region rules: %w", err)
	}

	t.sidebars.Freeze()
	t.assets.Freeze()
	t.regions.Freeze()

	t.logger.InfoContext(ctx, "theme set up",
		"version", t.cfg.Assets.Version,
		"locale", t.cfg.Locale,
		"menus", len(t.menus),
		"sidebars", t.sidebars.Len(),
		"assets", t.assets.Len())
	return nil
}

// Resolver returns the layout resolver.
func (t *Theme) Resolver() *layout.Resolver { return t.resolver }

// Regions returns the region composer.
func (t *Theme) Regions() *region.Composer { return t.regions }

// Sidebars returns the sidebar registry.
func (t *Theme) Sidebars() *sidebar.Registry { return t.sidebars }

// Assets returns the asset manifest.
func (t *Theme) Assets() *asset.Manifest { return t.assets }

// SidebarFilter is applied to the default sidebars during Setup.
func (t *Theme) SidebarFilter() *hook.Filter[[]sidebar.Definition] { return t.sidebarFilter }

// MenuFilter is applied to the default menus during Setup.
func (t *Theme) MenuFilter() *hook.Filter[[]Menu] { return t.menuFilter }

// WidthFilter is applied to every resolved content width.
func (t *Theme) WidthFilter() *hook.Filter[layout.Width] { return t.widthFilter }

// DefaultLayout returns the configured fallback layout.
func (t *Theme) DefaultLayout() layout.Variant { return t.cfg.DefaultLayout }

// Menus returns the registered menu locations.
func (t *Theme) Menus() []Menu {
	return append([]Menu(nil), t.menus...)
}

// Supports reports whether feature was declared.
func (t *Theme) Supports(feature string) bool {
	_, ok := t.supports[feature]
	return ok
}

// SupportArgs returns the arguments declared with feature.
func (t *Theme) SupportArgs(feature string) []string {
	return append([]string(nil), t.supports[feature]...)
}

// ImageSizes returns the registered image sizes.
func (t *Theme) ImageSizes() []ImageSize {
	return append([]ImageSize(nil), t.imageSizes...)
}
