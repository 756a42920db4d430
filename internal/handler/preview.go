// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/olegiv/primer-go/internal/asset"
	"github.com/olegiv/primer-go/internal/pagectx"
	"github.com/olegiv/primer-go/internal/theme"
)

// RenderIDHeader carries the id of a preview render.
const RenderIDHeader = "X-Render-ID"

// Preview handles GET /preview: the page skeleton for the page context in
// the query string. See pagectx.FromRequest for the parameters; title and
// rtl are read here.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	pctx := pagectx.FromRequest(r)

	ctx := r.Context()
	if title := strings.TrimSpace(r.URL.Query().Get("title")); title != "" {
		ctx = theme.WithTitle(ctx, title)
	}
	if r.URL.Query().Get("rtl") == "1" {
		ctx = theme.WithRTL(ctx, true)
	}

	page, err := h.theme.Compose(ctx, pctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "composing page failed", "error", err, "kind", pctx.Kind.String())
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	renderID := uuid.NewString()
	var buf bytes.Buffer
	if err := h.theme.RenderPreview(&buf, page, clientFor(r, pctx), renderID); err != nil {
		h.logger.ErrorContext(ctx, "rendering preview failed", "error", err, "render_id", renderID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "page rendered",
		"render_id", renderID,
		"request_id", chimw.GetReqID(ctx),
		"kind", page.Kind,
		"layout", page.Layout.String(),
		"assets", len(page.Assets))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set(RenderIDHeader, renderID)
	_, _ = buf.WriteTo(w)
}

// clientFor decides how conditional assets are emitted. Without a
// User-Agent the conditional comments are left for the browser.
func clientFor(r *http.Request, pctx pagectx.Context) asset.Client {
	switch {
	case pctx.LegacyClient:
		return asset.ClientLegacy
	case r.UserAgent() == "":
		return asset.ClientUnknown
	default:
		return asset.ClientModern
	}
}
