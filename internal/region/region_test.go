// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package region

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/primer-go/internal/pagectx"
)

func defaultComposer(t *testing.T) *Composer {
	t.Helper()
	c := NewComposer(nil)
	require.NoError(t, c.RegisterDefaults())
	return c
}

func TestCompose_SingleMatch(t *testing.T) {
	c := defaultComposer(t)

	tests := []struct {
		name string
		ctx  pagectx.Context
		want []string
	}{
		{"archive", pagectx.Context{Kind: pagectx.KindArchive}, []string{"archive/title"}},
		{"author archive", pagectx.Context{Kind: pagectx.KindAuthor}, []string{"archive/title"}},
		{"home", pagectx.Context{Kind: pagectx.KindHome}, []string{"blog/title"}},
		{"single", pagectx.Context{Kind: pagectx.KindSingle}, []string{"blog/title"}},
		{"page builder", pagectx.Context{Kind: pagectx.KindPage, Template: "templates/page-builder.php"}, []string{"header/page-title"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Compose(AfterHeader, tt.ctx))
		})
	}
}

func TestCompose_NoMatch(t *testing.T) {
	c := defaultComposer(t)

	for _, ctx := range []pagectx.Context{
		{},
		{Kind: pagectx.KindPage},
		{Kind: pagectx.KindPage, Template: "full-width"},
		{Kind: pagectx.KindSearch},
		{Kind: pagectx.KindNotFound},
	} {
		assert.Empty(t, c.Compose(AfterHeader, ctx), ctx.Kind.String())
	}
}

func TestCompose_UnknownHookPoint(t *testing.T) {
	c := defaultComposer(t)
	assert.Nil(t, c.Compose("before-footer", pagectx.Context{Kind: pagectx.KindHome}))
}

func TestCompose_AllMatchesInRegistrationOrder(t *testing.T) {
	c := NewComposer(nil)
	always := func(pagectx.Context) bool { return true }

	require.NoError(t, c.Register(Rule{HookPoint: AfterHeader, Priority: 100, Predicate: always, Partial: "one"}))
	require.NoError(t, c.Register(Rule{HookPoint: AfterHeader, Priority: 100, Predicate: always, Partial: "two"}))
	require.NoError(t, c.Register(Rule{HookPoint: AfterHeader, Priority: 5, Predicate: always, Partial: "zero"}))
	require.NoError(t, c.Register(Rule{HookPoint: AfterHeader, Priority: 100, Predicate: always, Partial: "three"}))

	assert.Equal(t, []string{"zero", "one", "two", "three"}, c.Compose(AfterHeader, pagectx.Context{}))
}

func TestCompose_OverlappingDefaults(t *testing.T) {
	c := defaultComposer(t)
	// Register a rule that also claims home pages; both must fire.
	require.NoError(t, c.Register(Rule{
		HookPoint: AfterHeader,
		Priority:  DefaultPriority,
		Name:      "home_banner",
		Predicate: func(ctx pagectx.Context) bool { return ctx.IsHome() },
		Partial:   "home/banner",
	}))

	assert.Equal(t, []string{"blog/title", "home/banner"}, c.Compose(AfterHeader, pagectx.Context{Kind: pagectx.KindHome}))
}

func TestRegister_Validation(t *testing.T) {
	c := NewComposer(nil)
	always := func(pagectx.Context) bool { return true }

	assert.Error(t, c.Register(Rule{Predicate: always, Partial: "x"}))
	assert.Error(t, c.Register(Rule{HookPoint: AfterHeader, Partial: "x"}))
	assert.Error(t, c.Register(Rule{HookPoint: AfterHeader, Predicate: always}))

	require.NoError(t, c.Register(Rule{HookPoint: AfterHeader, Predicate: always, Partial: "x"}))
	assert.Equal(t, "x", c.Rules(AfterHeader)[0].Name, "name defaults to partial")
}

func TestRules(t *testing.T) {
	c := defaultComposer(t)

	rules := c.Rules(AfterHeader)
	require.Len(t, rules, 3)
	assert.Equal(t, "page_builder_template_title", rules[0].Name)
	assert.Equal(t, "blog_title", rules[1].Name)
	assert.Equal(t, "archive_title", rules[2].Name)
	assert.Nil(t, c.Rules("nowhere"))
}

type recordingRenderer struct {
	calls []string
	fail  string
}

func (r *recordingRenderer) RenderPartial(w io.Writer, partialID string, _ any) error {
	if partialID == r.fail {
		return errors.New("boom")
	}
	r.calls = append(r.calls, partialID)
	_, err := fmt.Fprintf(w, "[%s]", partialID)
	return err
}

func TestRender(t *testing.T) {
	c := defaultComposer(t)
	r := &recordingRenderer{}
	var buf bytes.Buffer

	require.NoError(t, c.Render(&buf, AfterHeader, pagectx.Context{Kind: pagectx.KindArchive}, r, nil))
	assert.Equal(t, "[archive/title]", buf.String())
	assert.Equal(t, []string{"archive/title"}, r.calls)
}

func TestRender_Error(t *testing.T) {
	c := defaultComposer(t)
	r := &recordingRenderer{fail: "blog/title"}

	err := c.Render(io.Discard, AfterHeader, pagectx.Context{Kind: pagectx.KindSingle}, r, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blog/title")
}

func TestFreeze(t *testing.T) {
	c := defaultComposer(t)
	c.Freeze()

	err := c.Register(Rule{HookPoint: AfterHeader, Predicate: func(pagectx.Context) bool { return true }, Partial: "x"})
	assert.True(t, errors.Is(err, ErrFrozen))
	assert.Equal(t, []string{PartialBlogTitle}, c.Compose(AfterHeader, pagectx.Context{Kind: pagectx.KindHome}))
}
