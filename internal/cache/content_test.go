// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	options map[string]string
	meta    map[string]string
	reads   int
	err     error
}

func newCountingSource() *countingSource {
	return &countingSource{options: map[string]string{}, meta: map[string]string{}}
}

func (s *countingSource) GetOption(_ context.Context, key string) (string, error) {
	s.reads++
	return s.options[key], s.err
}

func (s *countingSource) SetOption(_ context.Context, key, value string) error {
	s.options[key] = value
	return nil
}

func (s *countingSource) GetPostMeta(_ context.Context, postID int64, key string) (string, error) {
	s.reads++
	return s.meta[metaKey(postID, key)], s.err
}

func (s *countingSource) SetPostMeta(_ context.Context, postID int64, key, value string) error {
	s.meta[metaKey(postID, key)] = value
	return nil
}

func (s *countingSource) DeletePostMeta(_ context.Context, postID int64, key string) error {
	delete(s.meta, metaKey(postID, key))
	return nil
}

func TestContentCache_ReadThrough(t *testing.T) {
	src := newCountingSource()
	src.options["primer_layout"] = "one-column-wide"
	cc := NewContentCache(src, NewMemoryCache(MemoryCacheOptions{}), time.Minute)
	ctx := context.Background()

	for range 3 {
		v, err := cc.GetOption(ctx, "primer_layout")
		require.NoError(t, err)
		assert.Equal(t, "one-column-wide", v)
	}
	assert.Equal(t, 1, src.reads)

	v, err := cc.GetPostMeta(ctx, 42, "_primer_layout")
	require.NoError(t, err)
	assert.Equal(t, "", v, "missing meta is cached as empty")
	_, _ = cc.GetPostMeta(ctx, 42, "_primer_layout")
	assert.Equal(t, 2, src.reads)
}

func TestContentCache_WritesInvalidate(t *testing.T) {
	src := newCountingSource()
	cc := NewContentCache(src, NewMemoryCache(MemoryCacheOptions{}), time.Minute)
	ctx := context.Background()

	_, _ = cc.GetPostMeta(ctx, 7, "_primer_layout")
	require.NoError(t, cc.SetPostMeta(ctx, 7, "_primer_layout", "three-column-default"))
	v, _ := cc.GetPostMeta(ctx, 7, "_primer_layout")
	assert.Equal(t, "three-column-default", v)

	require.NoError(t, cc.DeletePostMeta(ctx, 7, "_primer_layout"))
	v, _ = cc.GetPostMeta(ctx, 7, "_primer_layout")
	assert.Equal(t, "", v)

	_, _ = cc.GetOption(ctx, "primer_layout")
	require.NoError(t, cc.SetOption(ctx, "primer_layout", "one-column-narrow"))
	v, _ = cc.GetOption(ctx, "primer_layout")
	assert.Equal(t, "one-column-narrow", v)
}

func TestContentCache_Invalidate(t *testing.T) {
	src := newCountingSource()
	src.options["k"] = "old"
	cc := NewContentCache(src, NewMemoryCache(MemoryCacheOptions{}), time.Minute)
	ctx := context.Background()

	_, _ = cc.GetOption(ctx, "k")
	src.options["k"] = "new"
	v, _ := cc.GetOption(ctx, "k")
	assert.Equal(t, "old", v)

	require.NoError(t, cc.Invalidate(ctx, "k"))
	v, _ = cc.GetOption(ctx, "k")
	assert.Equal(t, "new", v)

	src.options["k"] = "newer"
	src.meta[metaKey(1, "m")] = "x"
	_, _ = cc.GetPostMeta(ctx, 1, "m")
	require.NoError(t, cc.InvalidateAll(ctx))
	v, _ = cc.GetOption(ctx, "k")
	assert.Equal(t, "newer", v)
}

func TestContentCache_SourceErrorNotCached(t *testing.T) {
	src := newCountingSource()
	src.err = errors.New("db down")
	cc := NewContentCache(src, NewMemoryCache(MemoryCacheOptions{}), time.Minute)
	ctx := context.Background()

	_, err := cc.GetOption(ctx, "k")
	assert.Error(t, err)

	src.err = nil
	src.options["k"] = "v"
	v, err := cc.GetOption(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}
