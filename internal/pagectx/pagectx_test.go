// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package pagectx

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredicates(t *testing.T) {
	tests := []struct {
		name     string
		ctx      Context
		home     bool
		single   bool
		singular bool
		archive  bool
		author   bool
	}{
		{name: "home", ctx: Context{Kind: KindHome}, home: true},
		{name: "single", ctx: Context{Kind: KindSingle}, single: true, singular: true},
		{name: "page", ctx: Context{Kind: KindPage}, singular: true},
		{name: "category archive", ctx: Context{Kind: KindArchive, Archive: ArchiveCategory}, archive: true},
		{name: "author archive", ctx: Context{Kind: KindAuthor}, archive: true, author: true},
		{name: "search", ctx: Context{Kind: KindSearch}},
		{name: "zero value", ctx: Context{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.home, tt.ctx.IsHome(), "IsHome")
			assert.Equal(t, tt.single, tt.ctx.IsSingle(), "IsSingle")
			assert.Equal(t, tt.singular, tt.ctx.IsSingular(), "IsSingular")
			assert.Equal(t, tt.archive, tt.ctx.IsArchive(), "IsArchive")
			assert.Equal(t, tt.author, tt.ctx.IsAuthor(), "IsAuthor")
		})
	}
}

func TestIsPageTemplate(t *testing.T) {
	ctx := Context{Kind: KindPage, Template: "templates/page-builder.php"}

	assert.True(t, ctx.IsPageTemplate("page-builder"))
	assert.True(t, ctx.IsPageTemplate("page-builder.html"))
	assert.True(t, ctx.IsPageTemplate("templates/page-builder.php"))
	assert.False(t, ctx.IsPageTemplate("full-width"))

	// Only pages carry templates.
	post := Context{Kind: KindSingle, Template: "page-builder"}
	assert.False(t, post.IsPageTemplate("page-builder"))

	assert.False(t, Context{Kind: KindPage}.IsPageTemplate(""))
}

func TestNormalizeTemplate(t *testing.T) {
	assert.Equal(t, "page-builder", NormalizeTemplate("templates/page-builder.php"))
	assert.Equal(t, "page-builder", NormalizeTemplate(" Page-Builder "))
	assert.Equal(t, "", NormalizeTemplate(""))
}

func TestParseKind(t *testing.T) {
	assert.Equal(t, KindArchive, ParseKind("archive"))
	assert.Equal(t, KindNotFound, ParseKind("404"))
	assert.Equal(t, KindOther, ParseKind("nope"))
	assert.Equal(t, "author", KindAuthor.String())
}

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/preview?kind=page&id=42&template=page-builder&comments=1&threaded=true", nil)
	ctx := FromRequest(r)

	assert.Equal(t, KindPage, ctx.Kind)
	assert.Equal(t, int64(42), ctx.PageID)
	assert.True(t, ctx.IsPageTemplate("page-builder"))
	assert.True(t, ctx.HasComments())
	assert.True(t, ctx.ThreadedCommentsEnabled())
	assert.False(t, ctx.LegacyClient)
}

func TestFromRequest_ArchiveDefaultsToCategory(t *testing.T) {
	r := httptest.NewRequest("GET", "/preview?kind=archive", nil)
	assert.Equal(t, ArchiveCategory, FromRequest(r).Archive)
}

func TestIsLegacyClient(t *testing.T) {
	assert.True(t, IsLegacyClient("Mozilla/4.0 (compatible; MSIE 8.0; Windows NT 6.1; Trident/4.0)"))
	assert.False(t, IsLegacyClient("Mozilla/5.0 (compatible; MSIE 10.0; Windows NT 6.1; Trident/6.0)"))
	assert.False(t, IsLegacyClient("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"))
	assert.False(t, IsLegacyClient(""))
}
