// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package theme

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"html/template"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/primer-go/internal/asset"
	"github.com/olegiv/primer-go/internal/layout"
	"github.com/olegiv/primer-go/internal/pagectx"
	"github.com/olegiv/primer-go/internal/region"
	"github.com/olegiv/primer-go/internal/sidebar"
	"github.com/olegiv/primer-go/internal/store"
)

type memContent struct {
	mu      sync.Mutex
	options map[string]string
	meta    map[string]string
}

func newMemContent() *memContent {
	return &memContent{options: map[string]string{}, meta: map[string]string{}}
}

func metaKey(id int64, key string) string { return strconv.FormatInt(id, 10) + "/" + key }

func (m *memContent) GetOption(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.options[key], nil
}

func (m *memContent) SetOption(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.options[key] = value
	return nil
}

func (m *memContent) GetPostMeta(_ context.Context, id int64, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.meta[metaKey(id, key)], nil
}

func (m *memContent) SetPostMeta(_ context.Context, id int64, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta[metaKey(id, key)] = value
	return nil
}

func (m *memContent) DeletePostMeta(_ context.Context, id int64, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.meta, metaKey(id, key))
	return nil
}

type fakeDirectory struct {
	categories int64
	countCalls int
	countErr   error
	authors    map[int64]store.Author
}

func (d *fakeDirectory) CountCategoriesInUse(context.Context) (int64, error) {
	d.countCalls++
	return d.categories, d.countErr
}

func (d *fakeDirectory) GetAuthor(_ context.Context, id int64) (store.Author, error) {
	a, ok := d.authors[id]
	if !ok {
		return store.Author{}, sql.ErrNoRows
	}
	return a, nil
}

func testAssets() asset.Options {
	return asset.Options{
		Version:       "1.0.0",
		TemplateURI:   "/themes/primer",
		StylesheetURI: "/themes/primer/style.css",
		IncludesURI:   "/includes",
	}
}

func newTheme(t *testing.T, cfg Config) *Theme {
	t.Helper()
	if cfg.Assets == (asset.Options{}) {
		cfg.Assets = testAssets()
	}
	th, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, th.Setup(context.Background()))
	return th
}

func TestSetup(t *testing.T) {
	th := newTheme(t, Config{})

	assert.Equal(t, []Menu{
		{Location: "primary", Label: "Primary Menu"},
		{Location: "social", Label: "Social Menu"},
	}, th.Menus())

	for _, f := range []string{"automatic-feed-links", "title-tag", "post-thumbnails", "html5", "post-formats"} {
		assert.True(t, th.Supports(f), f)
	}
	assert.False(t, th.Supports("custom-logo"))
	assert.Equal(t, []string{"aside", "image", "video", "quote", "link"}, th.SupportArgs("post-formats"))
	assert.Contains(t, th.SupportArgs("html5"), "comment-list")
	assert.Equal(t, []ImageSize{{Name: "primer-featured", Width: 1600, Height: 900, Crop: true}}, th.ImageSizes())

	assert.Equal(t, 5, th.Sidebars().Len())
	assert.Equal(t, 13, th.Assets().Len())
	assert.Len(t, th.Regions().Rules(region.AfterHeader), 3)
}

func TestSetup_Once(t *testing.T) {
	th := newTheme(t, Config{})
	require.NoError(t, th.Setup(context.Background()))

	assert.Len(t, th.Menus(), 2)
	assert.Equal(t, 5, th.Sidebars().Len())
	assert.Len(t, th.Regions().Rules(region.AfterHeader), 3)
}

func TestSetup_Freezes(t *testing.T) {
	th := newTheme(t, Config{})

	assert.True(t, errors.Is(th.Sidebars().Register(sidebar.Definition{ID: "late"}), sidebar.ErrFrozen))
	assert.True(t, errors.Is(th.Assets().Register(asset.Descriptor{Handle: "late"}), asset.ErrFrozen))
}

func TestSetup_Translated(t *testing.T) {
	th := newTheme(t, Config{Locale: "ru"})

	assert.NotEqual(t, "Primary Menu", th.Menus()[0].Label)
	def, ok := th.Sidebars().Get("sidebar-1")
	require.True(t, ok)
	assert.NotEqual(t, "Sidebar", def.Name)
}

func TestCompose_BeforeSetup(t *testing.T) {
	th, err := New(Config{Assets: testAssets()})
	require.NoError(t, err)

	_, err = th.Compose(context.Background(), pagectx.Context{Kind: pagectx.KindHome})
	assert.True(t, errors.Is(err, ErrNotSetup))
}

func TestCompose_Home(t *testing.T) {
	th := newTheme(t, Config{})

	page, err := th.Compose(context.Background(), pagectx.Context{Kind: pagectx.KindHome})
	require.NoError(t, err)

	assert.Equal(t, layout.TwoColumnRight, page.Layout)
	assert.Equal(t, layout.DefaultContentWidth, page.ContentWidth)
	assert.Equal(t, []string{region.PartialBlogTitle}, page.AfterHeader)
	require.Len(t, page.Sidebars, 1)
	assert.Equal(t, "sidebar-1", page.Sidebars[0].ID)
	assert.Len(t, page.FooterSidebars, 3)
	assert.Len(t, page.Assets, 12)
	assert.Equal(t, "en", page.Lang)
	assert.Nil(t, page.Author)
}

func TestCompose_Archive(t *testing.T) {
	th := newTheme(t, Config{})

	page, err := th.Compose(context.Background(), pagectx.Context{Kind: pagectx.KindArchive, Archive: pagectx.ArchiveCategory})
	require.NoError(t, err)
	assert.Equal(t, []string{region.PartialArchiveTitle}, page.AfterHeader)
}

func TestCompose_LayoutResolution(t *testing.T) {
	content := newMemContent()
	th := newTheme(t, Config{Content: content})
	ctx := context.Background()

	page, err := th.Compose(ctx, pagectx.Context{Kind: pagectx.KindPage, PageID: 42})
	require.NoError(t, err)
	assert.Equal(t, layout.TwoColumnRight, page.Layout, "no override keeps the default")

	require.NoError(t, th.SetGlobalLayout(ctx, layout.ThreeColumn))
	page, err = th.Compose(ctx, pagectx.Context{Kind: pagectx.KindPage, PageID: 42})
	require.NoError(t, err)
	assert.Equal(t, layout.ThreeColumn, page.Layout)
	assert.Len(t, page.Sidebars, 2)

	require.NoError(t, th.SetPageLayout(ctx, 42, layout.OneColumnWide))
	page, err = th.Compose(ctx, pagectx.Context{Kind: pagectx.KindPage, PageID: 42})
	require.NoError(t, err)
	assert.Equal(t, layout.OneColumnWide, page.Layout)
	assert.Equal(t, layout.WideContentWidth, page.ContentWidth)
	assert.Empty(t, page.Sidebars)

	require.NoError(t, th.SetPageLayout(ctx, 42, layout.Invalid))
	assert.Equal(t, layout.ThreeColumn, th.PageLayout(ctx, 42))

	assert.True(t, errors.Is(th.SetGlobalLayout(ctx, layout.Invalid), layout.ErrInvalidVariant))
}

func TestSetLayout_NoContent(t *testing.T) {
	th := newTheme(t, Config{})
	assert.True(t, errors.Is(th.SetPageLayout(context.Background(), 1, layout.OneColumn), ErrNoContent))
	assert.True(t, errors.Is(th.SetGlobalLayout(context.Background(), layout.OneColumn), ErrNoContent))
}

func TestCompose_CommentReply(t *testing.T) {
	th := newTheme(t, Config{})
	handles := func(p *Page) []string {
		var out []string
		for _, d := range p.Assets {
			out = append(out, d.Handle)
		}
		return out
	}

	page, err := th.Compose(context.Background(), pagectx.Context{Kind: pagectx.KindSingle, CommentsOpen: true, ThreadedComments: true})
	require.NoError(t, err)
	assert.Contains(t, handles(page), "comment-reply")

	page, err = th.Compose(context.Background(), pagectx.Context{Kind: pagectx.KindSingle, CommentsOpen: true})
	require.NoError(t, err)
	assert.NotContains(t, handles(page), "comment-reply")
}

func TestCompose_Author(t *testing.T) {
	dir := &fakeDirectory{authors: map[int64]store.Author{7: {ID: 7, Login: "jdoe", DisplayName: "J. Doe"}}}
	th := newTheme(t, Config{Directory: dir})
	ctx := context.Background()

	page, err := th.Compose(ctx, pagectx.Context{Kind: pagectx.KindAuthor, AuthorID: 7})
	require.NoError(t, err)
	require.NotNil(t, page.Author)
	assert.Equal(t, "J. Doe", page.Author.DisplayName)
	assert.Equal(t, []string{region.PartialArchiveTitle}, page.AfterHeader)

	page, err = th.Compose(ctx, pagectx.Context{Kind: pagectx.KindAuthor, AuthorID: 8})
	require.NoError(t, err)
	assert.Nil(t, page.Author)

	dir.authors[7] = store.Author{ID: 7, DisplayName: "Jane Doe"}
	page, _ = th.Compose(ctx, pagectx.Context{Kind: pagectx.KindAuthor, AuthorID: 7})
	assert.Equal(t, "J. Doe", page.Author.DisplayName, "cached")

	th.OnEvent(ctx, EventAuthorUpdated, 7)
	page, _ = th.Compose(ctx, pagectx.Context{Kind: pagectx.KindAuthor, AuthorID: 7})
	assert.Equal(t, "Jane Doe", page.Author.DisplayName)
}

func TestCompose_RequestValues(t *testing.T) {
	th := newTheme(t, Config{})
	ctx := WithTitle(WithRTL(WithLanguage(context.Background(), "ru-RU,ru;q=0.9"), true), "Hello")

	page, err := th.Compose(ctx, pagectx.Context{Kind: pagectx.KindHome})
	require.NoError(t, err)
	assert.Equal(t, "ru", page.Lang)
	assert.True(t, page.RTL)
	assert.Equal(t, "Hello", page.Title)
}

func TestHasActiveCategories(t *testing.T) {
	dir := &fakeDirectory{categories: 1}
	th := newTheme(t, Config{Directory: dir})
	ctx := context.Background()

	assert.False(t, th.HasActiveCategories(ctx))
	dir.categories = 2
	assert.False(t, th.HasActiveCategories(ctx), "cached")
	assert.Equal(t, 1, dir.countCalls)

	th.OnEvent(ctx, EventCategoryCreated, 0)
	assert.True(t, th.HasActiveCategories(ctx))

	dir.categories = 0
	th.OnEvent(ctx, EventPostSaved, 0)
	assert.False(t, th.HasActiveCategories(ctx))

	th.OnEvent(ctx, Event("comment.approved"), 0)
	assert.Equal(t, 3, dir.countCalls)
}

func TestHasActiveCategories_Error(t *testing.T) {
	dir := &fakeDirectory{countErr: errors.New("db down")}
	th := newTheme(t, Config{Directory: dir})

	assert.True(t, th.HasActiveCategories(context.Background()))
	assert.False(t, newTheme(t, Config{}).HasActiveCategories(context.Background()), "no directory")
}

func TestRenderAfterHeader(t *testing.T) {
	dir := &fakeDirectory{authors: map[int64]store.Author{3: {ID: 3, DisplayName: "Ann <b>", Bio: "Writes *fiction*."}}}
	th := newTheme(t, Config{Directory: dir})
	ctx := context.Background()

	tests := []struct {
		name string
		ctx  context.Context
		pctx pagectx.Context
		want []string
	}{
		{"home", ctx, pagectx.Context{Kind: pagectx.KindHome}, []string{`<h2 class="page-title">Blog</h2>`}},
		{"archive", ctx, pagectx.Context{Kind: pagectx.KindArchive}, []string{`<h1 class="page-title">Archives</h1>`}},
		{"archive titled", WithTitle(ctx, "Category: News"), pagectx.Context{Kind: pagectx.KindArchive},
			[]string{`<h1 class="page-title">Category: News</h1>`}},
		{"author", ctx, pagectx.Context{Kind: pagectx.KindAuthor, AuthorID: 3},
			[]string{"Posts by Ann &lt;b&gt;", `<div class="taxonomy-description"><p>Writes <em>fiction</em>.</p></div>`}},
		{"page builder", WithTitle(ctx, "Landing"), pagectx.Context{Kind: pagectx.KindPage, Template: "templates/page-builder.php"},
			[]string{`<h1 class="page-title">Landing</h1>`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, th.RenderAfterHeader(tt.ctx, &buf, tt.pctx))
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
			assert.NotContains(t, buf.String(), "\n\n")
		})
	}

	var buf bytes.Buffer
	require.NoError(t, th.RenderAfterHeader(ctx, &buf, pagectx.Context{Kind: pagectx.KindSearch}))
	assert.Empty(t, buf.String())
}

func TestMarkdown(t *testing.T) {
	assert.Equal(t, template.HTML("<p>Plain <strong>bold</strong></p>"), Markdown("Plain **bold**"))

	out := string(Markdown("<script>alert(1)</script>\n\n[link](javascript:alert(1)) and [ok](https://example.com)"))
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "javascript:")
	assert.Contains(t, out, `href="https://example.com"`)
	assert.Empty(t, Markdown(""))
}

func TestRenderPreview(t *testing.T) {
	th := newTheme(t, Config{})
	pctx := pagectx.Context{Kind: pagectx.KindHome}

	page, err := th.Compose(context.Background(), pctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, th.RenderPreview(&buf, page, asset.ClientModern, "render-1"))
	out := buf.String()

	assert.Contains(t, out, `data-render-id="render-1"`)
	assert.Contains(t, out, `class="layout-two-column-default"`)
	assert.Contains(t, out, `<link rel="stylesheet" id="primer-css" href="/themes/primer/style.css?ver=1.0.0" media="all">`)
	assert.Contains(t, out, `id="primer-navigation-js"`)
	assert.NotContains(t, out, "respond", "legacy assets are dropped for modern clients")
	assert.Contains(t, out, `<h2 class="page-title">Blog</h2>`)
	assert.Contains(t, out, `class="menu menu-primary"`)
	assert.Equal(t, 1, strings.Count(out, `class="widget-area"`))

	buf.Reset()
	require.NoError(t, th.RenderPreview(&buf, page, asset.ClientUnknown, "render-2"))
	assert.Contains(t, buf.String(), "<!--[if lt IE 9]>")
}

func TestPartials(t *testing.T) {
	p, err := ParsePartials()
	require.NoError(t, err)

	assert.Equal(t, "blog-title.html", PartialFile("blog/title"))
	assert.Equal(t, "header-page-title.html", PartialFile("/header/page-title/"))
	for _, id := range []string{region.PartialPageTitle, region.PartialBlogTitle, region.PartialArchiveTitle} {
		assert.True(t, p.Has(id), id)
	}

	err = p.RenderPartial(&bytes.Buffer{}, "missing/part", nil)
	assert.True(t, errors.Is(err, ErrPartialNotFound))
}
