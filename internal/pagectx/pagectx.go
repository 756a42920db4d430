// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package pagectx describes what a single page render is about.
//
// A Context is built once per request by the host and never mutated. The
// boolean predicates (IsHome, IsArchive, ...) are the public surface used by
// region rules and asset conditions; internally they switch on a closed Kind.
package pagectx

import (
	"path"
	"strings"
)

// Kind is the class of page being rendered.
type Kind int

// Page kinds.
const (
	KindOther Kind = iota
	KindHome
	KindSingle
	KindPage
	KindArchive
	KindAuthor
	KindSearch
	KindNotFound
)

var kindNames = map[Kind]string{
	KindOther:    "other",
	KindHome:     "home",
	KindSingle:   "single",
	KindPage:     "page",
	KindArchive:  "archive",
	KindAuthor:   "author",
	KindSearch:   "search",
	KindNotFound: "404",
}

// String returns the kind slug.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "other"
}

// ParseKind maps a slug back to a Kind. Unknown slugs are KindOther.
func ParseKind(s string) Kind {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k
		}
	}
	return KindOther
}

// ArchiveKind narrows KindArchive.
type ArchiveKind string

// Archive kinds.
const (
	ArchiveNone     ArchiveKind = ""
	ArchiveCategory ArchiveKind = "category"
	ArchiveTag      ArchiveKind = "tag"
	ArchiveDate     ArchiveKind = "date"
	ArchivePostType ArchiveKind = "post-type"
)

// Context is the read-only page context for one render.
type Context struct {
	Kind             Kind
	Archive          ArchiveKind
	PageID           int64
	AuthorID         int64
	Template         string // page template assigned to a KindPage render
	CommentsOpen     bool
	ThreadedComments bool
	LegacyClient     bool // set by the host when the client is a pre-IE9 browser
}

// IsHome reports whether the blog posts index is being rendered.
func (c Context) IsHome() bool {
	return c.Kind == KindHome
}

// IsSingle reports whether a single post is being rendered.
func (c Context) IsSingle() bool {
	return c.Kind == KindSingle
}

// IsPage reports whether a static page is being rendered.
func (c Context) IsPage() bool {
	return c.Kind == KindPage
}

// IsSingular reports whether a single post or page is being rendered.
func (c Context) IsSingular() bool {
	switch c.Kind {
	case KindSingle, KindPage:
		return true
	default:
		return false
	}
}

// IsArchive reports whether any archive is being rendered. Author archives
// are archives too.
func (c Context) IsArchive() bool {
	switch c.Kind {
	case KindArchive, KindAuthor:
		return true
	default:
		return false
	}
}

// IsAuthor reports whether an author archive is being rendered.
func (c Context) IsAuthor() bool {
	return c.Kind == KindAuthor
}

// IsPageTemplate reports whether the rendered page uses the named template.
// "templates/page-builder.php", "page-builder.html" and "page-builder" all
// name the same template.
func (c Context) IsPageTemplate(name string) bool {
	if c.Kind != KindPage || c.Template == "" {
		return false
	}
	return NormalizeTemplate(c.Template) == NormalizeTemplate(name)
}

// HasComments reports whether comments are open on the rendered entry.
func (c Context) HasComments() bool {
	return c.CommentsOpen
}

// ThreadedCommentsEnabled reports whether threaded comments are on.
func (c Context) ThreadedCommentsEnabled() bool {
	return c.ThreadedComments
}

// NormalizeTemplate strips directories and extensions from a template name.
func NormalizeTemplate(name string) string {
	name = path.Base(strings.TrimSpace(name))
	if ext := path.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	if name == "." || name == "/" {
		return ""
	}
	return strings.ToLower(name)
}
