// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"strconv"
	"time"
)

// Source is the content storage behind ContentCache. *store.Queries
// satisfies it.
type Source interface {
	GetOption(ctx context.Context, key string) (string, error)
	SetOption(ctx context.Context, key, value string) error
	GetPostMeta(ctx context.Context, postID int64, key string) (string, error)
	SetPostMeta(ctx context.Context, postID int64, key, value string) error
	DeletePostMeta(ctx context.Context, postID int64, key string) error
}

const (
	optionNamespace = "option"
	metaNamespace   = "meta"
)

// ContentCache is a read-through cache over a Source. Writes go to the
// source first and then drop the cached key.
type ContentCache struct {
	src     Source
	options *TypedCache[string]
	meta    *TypedCache[string]
}

// NewContentCache wraps src with c.
func NewContentCache(src Source, c Cacher, ttl time.Duration) *ContentCache {
	return &ContentCache{
		src:     src,
		options: NewTypedCache[string](c, optionNamespace, ttl),
		meta:    NewTypedCache[string](c, metaNamespace, ttl),
	}
}

func metaKey(postID int64, key string) string {
	return strconv.FormatInt(postID, 10) + ":" + key
}

// GetOption returns the option value, or "" when unset.
func (cc *ContentCache) GetOption(ctx context.Context, key string) (string, error) {
	return cc.options.GetOrSet(ctx, key, func() (string, error) {
		return cc.src.GetOption(ctx, key)
	})
}

// GetPostMeta returns the meta value, or "" when unset.
func (cc *ContentCache) GetPostMeta(ctx context.Context, postID int64, key string) (string, error) {
	return cc.meta.GetOrSet(ctx, metaKey(postID, key), func() (string, error) {
		return cc.src.GetPostMeta(ctx, postID, key)
	})
}

// SetOption stores an option and invalidates its cached value.
func (cc *ContentCache) SetOption(ctx context.Context, key, value string) error {
	if err := cc.src.SetOption(ctx, key, value); err != nil {
		return err
	}
	return cc.options.Delete(ctx, key)
}

// SetPostMeta stores a meta value and invalidates its cached value.
func (cc *ContentCache) SetPostMeta(ctx context.Context, postID int64, key, value string) error {
	if err := cc.src.SetPostMeta(ctx, postID, key, value); err != nil {
		return err
	}
	return cc.meta.Delete(ctx, metaKey(postID, key))
}

// DeletePostMeta removes a meta value and invalidates its cached value.
func (cc *ContentCache) DeletePostMeta(ctx context.Context, postID int64, key string) error {
	if err := cc.src.DeletePostMeta(ctx, postID, key); err != nil {
		return err
	}
	return cc.meta.Delete(ctx, metaKey(postID, key))
}

// Invalidate drops the cached option key.
func (cc *ContentCache) Invalidate(ctx context.Context, key string) error {
	return cc.options.Delete(ctx, key)
}

// InvalidateAll drops every cached option and meta value.
func (cc *ContentCache) InvalidateAll(ctx context.Context) error {
	if err := cc.options.Invalidate(ctx); err != nil {
		return err
	}
	return cc.meta.Invalidate(ctx)
}
