// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package asset

import "strings"

// LegacyCondition marks the bundle loaded only by pre-IE9 browsers.
const LegacyCondition = "lt IE 9"

// CommentReplyCondition activates the comment reply script.
const CommentReplyCondition = "singular && comments_open && thread_comments"

// Options parameterise the default manifest.
type Options struct {
	Version       string // theme version, used on every descriptor
	TemplateURI   string // base URI of the theme directory
	StylesheetURI string // URI of the main stylesheet
	IncludesURI   string // base URI of host-provided scripts
	ScriptDebug   bool   // load unminified scripts
}

// Suffix returns the minified-file suffix selected by ScriptDebug.
func (o Options) Suffix() string {
	if o.ScriptDebug {
		return ""
	}
	return ".min"
}

func (o Options) uri(path string) string {
	return strings.TrimRight(o.TemplateURI, "/") + "/" + strings.TrimLeft(path, "/")
}

// Defaults returns the theme's asset manifest.
func Defaults(o Options) []Descriptor {
	suffix := o.Suffix()
	legacy := func(handle, path string, deps ...string) Descriptor {
		return Descriptor{
			Handle:    handle,
			Kind:      KindScript,
			Src:       o.uri(path),
			Deps:      deps,
			Version:   o.Version,
			Condition: LegacyCondition,
		}
	}

	return []Descriptor{
		{
			Handle:  "primer",
			Kind:    KindStyle,
			Src:     o.StylesheetURI,
			Version: o.Version,
			RTL:     "replace",
		},
		{
			Handle:   "primer-navigation",
			Kind:     KindScript,
			Src:      o.uri("assets/js/navigation" + suffix + ".js"),
			Version:  o.Version,
			InFooter: true,
		},
		{
			Handle:   "primer-skip-link-focus-fix",
			Kind:     KindScript,
			Src:      o.uri("assets/js/skip-link-focus-fix" + suffix + ".js"),
			Version:  o.Version,
			InFooter: true,
		},
		{
			Handle:   "comment-reply",
			Kind:     KindScript,
			Src:      strings.TrimRight(o.IncludesURI, "/") + "/js/comment-reply" + suffix + ".js",
			Version:  o.Version,
			InFooter: true,
			When:     CommentReplyCondition,
		},
		{
			Handle:    "primer-lt-ie9-style",
			Kind:      KindStyle,
			Src:       o.uri("assets/css/ie.css"),
			Version:   o.Version,
			Condition: LegacyCondition,
		},
		legacy("primer-respond", "assets/js/respond.min.js"),
		legacy("primer-nwmatcher", "assets/js/nwmatcher.min.js"),
		legacy("primer-jquery", "assets/js/jquery.min.js"),
		legacy("primer-html5shiv", "assets/js/html5shiv.min.js"),
		legacy("primer-selectivizr", "assets/js/selectivizr.min.js"),
		legacy("primer-rem", "assets/js/rem.min.js"),
		legacy("primer-jquery-backgroundSize", "assets/js/jquery.backgroundSize.min.js", "primer-jquery"),
		legacy("primer-lt-ie9-script", "assets/js/lt-ie9"+suffix+".js", "primer-jquery"),
	}
}

// RegisterDefaults registers Defaults(o) and validates the graph.
func (m *Manifest) RegisterDefaults(o Options) error {
	for _, d := range Defaults(o) {
		if err := m.Register(d); err != nil {
			return err
		}
	}
	return m.Validate()
}
