// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/primer-go/internal/scheduler"
)

// ListJobs handles GET /api/jobs.
func (h *Handler) ListJobs(w http.ResponseWriter, _ *http.Request) {
	var jobs []scheduler.JobInfo
	if h.scheduler != nil {
		jobs = h.scheduler.Jobs()
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": nonNil(jobs)})
}

// RunJob handles POST /api/jobs/{name}/run.
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "scheduler not running")
		return
	}

	name := chi.URLParam(r, "name")
	if err := h.scheduler.Trigger(r.Context(), name); err != nil {
		if errors.Is(err, scheduler.ErrUnknownJob) {
			writeJSONError(w, http.StatusNotFound, "job not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "job failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
