// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package asset

import (
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strings"
)

// Pipeline is the host's asset output stage.
type Pipeline interface {
	EnqueueStyle(d Descriptor)
	EnqueueScript(d Descriptor)
	SetConditionalComment(handle, expr string)
}

// Enqueue hands an activated list to p in order.
func Enqueue(p Pipeline, list []Descriptor) {
	for _, d := range list {
		if d.Kind == KindStyle {
			p.EnqueueStyle(d)
		} else {
			p.EnqueueScript(d)
		}
		if d.Condition != "" {
			p.SetConditionalComment(d.Handle, d.Condition)
		}
	}
}

// Client is what the host knows about the requesting browser.
type Client int

// Client kinds.
const (
	ClientUnknown Client = iota // conditional comments are emitted
	ClientModern                // conditional assets are dropped
	ClientLegacy                // conditional assets are emitted plainly
)

// HTMLPipeline renders enqueued assets as link and script tags.
type HTMLPipeline struct {
	Client Client
	RTL    bool

	items      []Descriptor
	conditions map[string]string
}

// NewHTMLPipeline creates an empty pipeline for the given client.
func NewHTMLPipeline(client Client, rtl bool) *HTMLPipeline {
	return &HTMLPipeline{
		Client:     client,
		RTL:        rtl,
		conditions: make(map[string]string),
	}
}

// EnqueueStyle implements Pipeline.
func (p *HTMLPipeline) EnqueueStyle(d Descriptor) {
	d.Kind = KindStyle
	p.items = append(p.items, d)
}

// EnqueueScript implements Pipeline.
func (p *HTMLPipeline) EnqueueScript(d Descriptor) {
	d.Kind = KindScript
	p.items = append(p.items, d)
}

// SetConditionalComment implements Pipeline.
func (p *HTMLPipeline) SetConditionalComment(handle, expr string) {
	p.conditions[handle] = expr
}

// Handles lists the enqueued handles in order.
func (p *HTMLPipeline) Handles() []string {
	out := make([]string, len(p.items))
	for i, d := range p.items {
		out[i] = d.Handle
	}
	return out
}

// Head returns the markup for the document head: every style and every
// script not marked for the footer.
func (p *HTMLPipeline) Head() template.HTML {
	return p.render(func(d Descriptor) bool { return d.Kind == KindStyle || !d.InFooter })
}

// Footer returns the markup for footer scripts.
func (p *HTMLPipeline) Footer() template.HTML {
	return p.render(func(d Descriptor) bool { return d.Kind == KindScript && d.InFooter })
}

// WriteTo writes head then footer markup to w.
func (p *HTMLPipeline) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, string(p.Head())+string(p.Footer()))
	return int64(n), err
}

func (p *HTMLPipeline) render(include func(Descriptor) bool) template.HTML {
	var sb strings.Builder
	for _, d := range p.items {
		if !include(d) || d.Src == "" {
			continue
		}
		tag := p.tag(d)
		cond, conditional := p.conditions[d.Handle]
		switch {
		case !conditional:
			sb.WriteString(tag)
		case p.Client == ClientLegacy:
			sb.WriteString(tag)
		case p.Client == ClientModern:
			// dropped
		default:
			fmt.Fprintf(&sb, "<!--[if %s]>\n%s<![endif]-->\n", template.HTMLEscapeString(cond), tag)
		}
	}
	return template.HTML(sb.String())
}

func (p *HTMLPipeline) tag(d Descriptor) string {
	src := d.Src
	if d.Kind == KindStyle && p.RTL && d.RTL == "replace" && strings.HasSuffix(src, ".css") {
		src = strings.TrimSuffix(src, ".css") + "-rtl.css"
	}
	src = versioned(src, d.Version)
	id := template.HTMLEscapeString(d.Handle)

	if d.Kind == KindStyle {
		return fmt.Sprintf("<link rel=\"stylesheet\" id=\"%s-css\" href=\"%s\" media=\"all\">\n",
			id, template.HTMLEscapeString(src))
	}
	return fmt.Sprintf("<script id=\"%s-js\" src=\"%s\"></script>\n", id, template.HTMLEscapeString(src))
}

// versioned appends the cache-busting ver query parameter.
func versioned(src, version string) string {
	if version == "" {
		return src
	}
	sep := "?"
	if strings.Contains(src, "?") {
		sep = "&"
	}
	return src + sep + "ver=" + url.QueryEscape(version)
}
