// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/primer-go/internal/asset"
	"github.com/olegiv/primer-go/internal/hook"
	"github.com/olegiv/primer-go/internal/layout"
	"github.com/olegiv/primer-go/internal/pagectx"
	"github.com/olegiv/primer-go/internal/region"
	"github.com/olegiv/primer-go/internal/theme"
)

// maxBodySize caps request bodies on the write endpoints.
const maxBodySize = 1 << 10

// LayoutResponse describes a page's layout.
type LayoutResponse struct {
	PageID       int64          `json:"page_id"`
	Layout       layout.Variant `json:"layout"`
	Columns      int            `json:"columns"`
	ContentWidth int            `json:"content_width"`
	Sidebars     []string       `json:"sidebars"`
}

// LayoutRequest is the body of PUT /api/layout/{pageID}. An empty layout
// clears the page override.
type LayoutRequest struct {
	Layout string `json:"layout"`
}

func pageIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "pageID"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) layoutResponse(r *http.Request, pageID int64) LayoutResponse {
	v := h.theme.PageLayout(r.Context(), pageID)
	sidebars := layout.Sidebars(v)
	if sidebars == nil {
		sidebars = []string{}
	}
	return LayoutResponse{
		PageID:       pageID,
		Layout:       v,
		Columns:      v.Columns(),
		ContentWidth: h.theme.Resolver().ResolveContentWidth(v),
		Sidebars:     sidebars,
	}
}

// GetLayout handles GET /api/layout/{pageID}.
func (h *Handler) GetLayout(w http.ResponseWriter, r *http.Request) {
	pageID, ok := pageIDParam(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid page id")
		return
	}
	writeJSON(w, http.StatusOK, h.layoutResponse(r, pageID))
}

// PutLayout handles PUT /api/layout/{pageID}.
func (h *Handler) PutLayout(w http.ResponseWriter, r *http.Request) {
	pageID, ok := pageIDParam(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid page id")
		return
	}

	var req LayoutRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	v := layout.Invalid
	if req.Layout != "" {
		parsed, ok := layout.ParseVariant(req.Layout)
		if !ok {
			writeJSONError(w, http.StatusUnprocessableEntity, "unknown layout: "+req.Layout)
			return
		}
		v = parsed
	}

	if err := h.theme.SetPageLayout(r.Context(), pageID, v); err != nil {
		if errors.Is(err, theme.ErrNoContent) {
			writeJSONError(w, http.StatusServiceUnavailable, "no content store")
			return
		}
		h.logger.ErrorContext(r.Context(), "storing page layout failed",
			"category", "layout", "page_id", pageID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "storing layout failed")
		return
	}

	h.logger.InfoContext(r.Context(), "page layout updated", "page_id", pageID, "layout", v.String())
	writeJSON(w, http.StatusOK, h.layoutResponse(r, pageID))
}

// ListSidebars handles GET /api/sidebars.
func (h *Handler) ListSidebars(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"sidebars": nonNil(h.theme.Sidebars().Definitions()),
	})
}

// ListAssets handles GET /api/assets. With page context query parameters
// it returns the activated list for that page, otherwise every asset.
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("kind") == "" {
		writeJSON(w, http.StatusOK, map[string]any{
			"assets": nonNil(h.theme.Assets().Descriptors()),
		})
		return
	}

	pctx := pagectx.FromRequest(r)
	list, err := h.theme.Assets().Activate(pctx)
	if err != nil {
		if errors.Is(err, asset.ErrCycle) || errors.Is(err, asset.ErrMissingDependency) {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "activating assets failed", "category", "asset", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "activating assets failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"kind":   pctx.Kind.String(),
		"assets": nonNil(list),
	})
}

// RegionsResponse lists the rules at a hook point and, when a page context
// is given, the partials composed for it. Partials is nil without a page
// context and an empty list when nothing matches.
type RegionsResponse struct {
	HookPoint region.HookPoint `json:"hook_point"`
	Rules     []hook.Info      `json:"rules"`
	Partials  *[]string        `json:"partials,omitempty"`
}

// ListRegions handles GET /api/regions.
func (h *Handler) ListRegions(w http.ResponseWriter, r *http.Request) {
	point := region.AfterHeader
	if p := r.URL.Query().Get("point"); p != "" {
		point = region.HookPoint(p)
	}

	resp := RegionsResponse{
		HookPoint: point,
		Rules:     nonNil(h.theme.Regions().Rules(point)),
	}
	if r.URL.Query().Get("kind") != "" {
		partials := nonNil(h.theme.Regions().Compose(point, pagectx.FromRequest(r)))
		resp.Partials = &partials
	}
	writeJSON(w, http.StatusOK, resp)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

