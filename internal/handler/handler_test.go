// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/primer-go/internal/asset"
	"github.com/olegiv/primer-go/internal/cache"
	"github.com/olegiv/primer-go/internal/i18n"
	"github.com/olegiv/primer-go/internal/scheduler"
	"github.com/olegiv/primer-go/internal/store"
	"github.com/olegiv/primer-go/internal/theme"
)

const ie8 = "Mozilla/4.0 (compatible; MSIE 8.0; Windows NT 6.1; Trident/4.0)"
const firefox = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

type testEnv struct {
	server  *httptest.Server
	queries *store.Queries
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "handler.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	q := store.New(db)

	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{})
	t.Cleanup(func() { _ = mem.Close() })

	catalog, err := i18n.New(nil)
	require.NoError(t, err)

	th, err := theme.New(theme.Config{
		Assets: asset.Options{
			Version:       "1.0.0",
			TemplateURI:   "/themes/primer",
			StylesheetURI: "/themes/primer/style.css",
			IncludesURI:   "/includes",
		},
		Content:   cache.NewContentCache(q, mem, time.Minute),
		Directory: q,
		Cache:     mem,
		Catalog:   catalog,
	})
	require.NoError(t, err)
	require.NoError(t, th.Setup(context.Background()))

	sched := scheduler.New(nil)
	require.NoError(t, sched.Add(scheduler.PruneEvents(q, 24*time.Hour, nil)))
	require.NoError(t, sched.Add(scheduler.RefreshCategories(th)))

	h := New(Config{
		Theme:         th,
		Catalog:       catalog,
		DB:            db,
		Cache:         mem,
		Scheduler:     sched,
		IsDevelopment: true,
		RateLimit:     1,
		RateBurst:     5,
	})
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return &testEnv{server: srv, queries: q}
}

func (e *testEnv) do(t *testing.T, method, path, body, ua string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("User-Agent", ua)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	var sb strings.Builder
	_, err := sb.ReadFrom(resp.Body)
	require.NoError(t, err)
	return sb.String()
}

func TestPreview(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/preview?kind=home", "", firefox)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	_, err := uuid.Parse(resp.Header.Get(RenderIDHeader))
	assert.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get("Content-Security-Policy"))

	body := readBody(t, resp)
	assert.Contains(t, body, `<h2 class="page-title">Blog</h2>`)
	assert.Contains(t, body, `id="primer-css"`)
	assert.NotContains(t, body, "primer-respond")
}

func TestPreview_Clients(t *testing.T) {
	env := newTestEnv(t)

	body := readBody(t, env.do(t, http.MethodGet, "/preview?kind=archive&title=News", "", ie8))
	assert.Contains(t, body, `id="primer-respond-js"`)
	assert.NotContains(t, body, "<!--[if")
	assert.Contains(t, body, `<h1 class="page-title">News</h1>`)

	body = readBody(t, env.do(t, http.MethodGet, "/preview?kind=archive", "", ""))
	assert.Contains(t, body, "<!--[if lt IE 9]>")
}

func TestPreview_Language(t *testing.T) {
	env := newTestEnv(t)

	body := readBody(t, env.do(t, http.MethodGet, "/preview?kind=home&lang=ru", "", firefox))
	assert.Contains(t, body, `<html lang="ru"`)
	assert.NotContains(t, body, `<h2 class="page-title">Blog</h2>`)
}

func TestLayoutAPI(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/layout/42", "", firefox)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[map[string]any](t, resp)
	assert.Equal(t, "two-column-default", got["layout"])
	assert.EqualValues(t, 688, got["content_width"])
	assert.Equal(t, []any{"sidebar-1"}, got["sidebars"])

	resp = env.do(t, http.MethodPut, "/api/layout/42", `{"layout":"one-column-wide"}`, firefox)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decode[map[string]any](t, resp)
	assert.Equal(t, "one-column-wide", got["layout"])
	assert.EqualValues(t, 1068, got["content_width"])
	assert.Equal(t, []any{}, got["sidebars"])

	v, err := env.queries.GetPostMeta(context.Background(), 42, "_primer_layout")
	require.NoError(t, err)
	assert.Equal(t, "one-column-wide", v)

	body := readBody(t, env.do(t, http.MethodGet, "/preview?kind=page&id=42", "", firefox))
	assert.Contains(t, body, `class="layout-one-column-wide"`)

	resp = env.do(t, http.MethodPut, "/api/layout/42", `{"layout":""}`, firefox)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "two-column-default", decode[map[string]any](t, resp)["layout"])
}

func TestLayoutAPI_Errors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"bad id", http.MethodGet, "/api/layout/abc", "", http.StatusBadRequest},
		{"zero id", http.MethodGet, "/api/layout/0", "", http.StatusBadRequest},
		{"bad body", http.MethodPut, "/api/layout/1", "{", http.StatusBadRequest},
		{"unknown layout", http.MethodPut, "/api/layout/1", `{"layout":"four-column"}`, http.StatusUnprocessableEntity},
		{"method", http.MethodDelete, "/api/layout/1", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, tt.method, tt.path, tt.body, firefox)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestSidebarsAPI(t *testing.T) {
	env := newTestEnv(t)

	got := decode[struct {
		Sidebars []struct {
			ID string `json:"id"`
		} `json:"sidebars"`
	}](t, env.do(t, http.MethodGet, "/api/sidebars", "", firefox))

	var ids []string
	for _, s := range got.Sidebars {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"sidebar-1", "sidebar-2", "footer-1", "footer-2", "footer-3"}, ids)
}

type assetsResponse struct {
	Kind   string             `json:"kind"`
	Assets []asset.Descriptor `json:"assets"`
}

func TestAssetsAPI(t *testing.T) {
	env := newTestEnv(t)

	all := decode[assetsResponse](t, env.do(t, http.MethodGet, "/api/assets", "", firefox))
	assert.Len(t, all.Assets, 13)

	single := decode[assetsResponse](t, env.do(t, http.MethodGet, "/api/assets?kind=single&comments=1&threaded=1", "", firefox))
	assert.Equal(t, "single", single.Kind)
	assert.Len(t, single.Assets, 13)

	home := decode[assetsResponse](t, env.do(t, http.MethodGet, "/api/assets?kind=home", "", firefox))
	assert.Len(t, home.Assets, 12)
}

func TestRegionsAPI(t *testing.T) {
	env := newTestEnv(t)

	got := decode[map[string]any](t, env.do(t, http.MethodGet, "/api/regions?kind=archive", "", firefox))
	assert.Equal(t, "after-header", got["hook_point"])
	assert.Len(t, got["rules"], 3)
	assert.Equal(t, []any{"archive/title"}, got["partials"])

	got = decode[map[string]any](t, env.do(t, http.MethodGet, "/api/regions?kind=search", "", firefox))
	partials, ok := got["partials"]
	require.True(t, ok, "partials present when a page context is given")
	assert.Equal(t, []any{}, partials)

	got = decode[map[string]any](t, env.do(t, http.MethodGet, "/api/regions?point=before-footer", "", firefox))
	assert.Equal(t, []any{}, got["rules"])
	assert.NotContains(t, got, "partials")
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/health", "", firefox)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[HealthStatus](t, resp)
	assert.Equal(t, "healthy", got.Status)
	assert.Equal(t, "healthy", got.Checks["database"].Status)
	assert.Equal(t, "healthy", got.Checks["theme"].Status)
	assert.NotNil(t, got.Cache)
	assert.NotNil(t, got.System)
}

func TestHealth_NoDatabase(t *testing.T) {
	th, err := theme.New(theme.Config{})
	require.NoError(t, err)
	require.NoError(t, th.Setup(context.Background()))

	rec := httptest.NewRecorder()
	New(Config{Theme: th}).Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var got HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "skipped", got.Checks["database"].Status)
	assert.Nil(t, got.System)
}

func TestLayoutAPI_CrossSite(t *testing.T) {
	env := newTestEnv(t)

	req, err := http.NewRequest(http.MethodPut, env.server.URL+"/api/layout/5", strings.NewReader(`{"layout":"one-column-wide"}`))
	require.NoError(t, err)
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	req.Header.Set("Origin", "https://evil.example")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	v, err := env.queries.GetPostMeta(context.Background(), 5, "_primer_layout")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestLayoutAPI_RateLimit(t *testing.T) {
	env := newTestEnv(t)

	var codes []int
	for range 7 {
		codes = append(codes, env.do(t, http.MethodPut, "/api/layout/9", `{"layout":"one-column-wide"}`, firefox).StatusCode)
	}
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Contains(t, codes, http.StatusTooManyRequests)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/layout/9", "", firefox).StatusCode,
		"reads are not limited")
}

func TestJobsAPI(t *testing.T) {
	env := newTestEnv(t)

	got := decode[struct {
		Jobs []scheduler.JobInfo `json:"jobs"`
	}](t, env.do(t, http.MethodGet, "/api/jobs", "", firefox))
	require.Len(t, got.Jobs, 2)
	assert.Equal(t, scheduler.JobPruneEvents, got.Jobs[0].Name)
	assert.Equal(t, scheduler.JobRefreshCategories, got.Jobs[1].Name)

	resp := env.do(t, http.MethodPost, "/api/jobs/"+scheduler.JobRefreshCategories+"/run", "", firefox)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/jobs/missing/run", "", firefox)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestJobsAPI_NoScheduler(t *testing.T) {
	th, err := theme.New(theme.Config{})
	require.NoError(t, err)
	require.NoError(t, th.Setup(context.Background()))
	routes := New(Config{Theme: th}).Routes()

	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
	assert.JSONEq(t, `{"jobs":[]}`, rec.Body.String())

	rec = httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/jobs/prune-events/run", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
