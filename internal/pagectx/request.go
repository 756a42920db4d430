// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package pagectx

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mileusna/useragent"
)

// legacyIEMajor is the first Internet Explorer major version that does not
// need the legacy bundle.
const legacyIEMajor = 9

// FromRequest builds a Context from preview query parameters:
//
//	kind=home|single|page|archive|author|search|404
//	archive=category|tag|date|post-type
//	id=<page id>  author=<author id>  template=<name>
//	comments=1  threaded=1
//
// LegacyClient is taken from the User-Agent header.
func FromRequest(r *http.Request) Context {
	q := r.URL.Query()

	ctx := Context{
		Kind:             ParseKind(q.Get("kind")),
		Archive:          ArchiveKind(strings.ToLower(q.Get("archive"))),
		Template:         q.Get("template"),
		CommentsOpen:     parseBool(q.Get("comments")),
		ThreadedComments: parseBool(q.Get("threaded")),
		LegacyClient:     IsLegacyClient(r.UserAgent()),
	}
	if id, err := strconv.ParseInt(q.Get("id"), 10, 64); err == nil && id > 0 {
		ctx.PageID = id
	}
	if id, err := strconv.ParseInt(q.Get("author"), 10, 64); err == nil && id > 0 {
		ctx.AuthorID = id
	}
	if ctx.Kind == KindArchive && ctx.Archive == ArchiveNone {
		ctx.Archive = ArchiveCategory
	}
	return ctx
}

// IsLegacyClient reports whether the user agent is Internet Explorer older
// than version 9.
func IsLegacyClient(uaString string) bool {
	if uaString == "" {
		return false
	}
	ua := useragent.Parse(uaString)
	if ua.Name != useragent.InternetExplorer {
		return false
	}
	major, _, _ := strings.Cut(ua.Version, ".")
	n, err := strconv.Atoi(major)
	if err != nil {
		return false
	}
	return n < legacyIEMajor
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
