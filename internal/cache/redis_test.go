// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	s := miniredis.RunT(t)
	opts := DefaultRedisCacheOptions()
	opts.URL = "redis://" + s.Addr() + "/0"
	opts.Prefix = "test:"
	c, err := NewRedisCache(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, s
}

func TestRedisCache_Basic(t *testing.T) {
	c, s := newTestRedis(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "k")
	assert.True(t, errors.Is(err, ErrCacheMiss))

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	assert.True(t, s.Exists("test:k"), "key is prefixed")

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	ok, err := c.Has(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, "k"))
	ok, err = c.Has(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_TTL(t *testing.T) {
	c, s := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Second))
	s.FastForward(2 * time.Second)

	_, err := c.Get(ctx, "k")
	assert.True(t, errors.Is(err, ErrCacheMiss))
}

func TestRedisCache_PrefixOperations(t *testing.T) {
	c, s := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, s.Set("other:keep", "1"))
	for _, k := range []string{"meta:1", "meta:2", "option:x"} {
		require.NoError(t, c.Set(ctx, k, []byte(k), 0))
	}
	assert.Equal(t, 3, c.Stats().Items)

	require.NoError(t, c.DeleteByPrefix(ctx, "meta:"))
	assert.Equal(t, 1, c.Stats().Items)

	require.NoError(t, c.Clear(ctx))
	assert.Zero(t, c.Stats().Items)
	assert.True(t, s.Exists("other:keep"), "clear only touches the prefix")
}

func TestRedisCache_Closed(t *testing.T) {
	c, _ := newTestRedis(t)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err := c.Get(context.Background(), "k")
	assert.True(t, errors.Is(err, ErrCacheClosed))
	assert.True(t, errors.Is(c.Ping(context.Background()), ErrCacheClosed))
}

func TestNewRedisCache_Errors(t *testing.T) {
	_, err := NewRedisCache(RedisCacheOptions{})
	assert.Error(t, err)

	_, err = NewRedisCache(RedisCacheOptions{URL: "not a url"})
	assert.Error(t, err)
}

func TestNewCache(t *testing.T) {
	t.Run("memory by default", func(t *testing.T) {
		c := NewCache(DefaultConfig(), nil)
		defer func() { _ = c.Close() }()
		assert.IsType(t, &MemoryCache{}, c)
	})

	t.Run("redis when reachable", func(t *testing.T) {
		s := miniredis.RunT(t)
		cfg := DefaultConfig()
		cfg.RedisURL = "redis://" + s.Addr()
		c := NewCache(cfg, nil)
		defer func() { _ = c.Close() }()
		assert.IsType(t, &RedisCache{}, c)
	})

	t.Run("falls back when unreachable", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RedisURL = "redis://127.0.0.1:1"
		c := NewCache(cfg, nil)
		defer func() { _ = c.Close() }()
		assert.IsType(t, &MemoryCache{}, c)
	})
}
