// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package theme

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"regexp"
	"strings"

	"github.com/olegiv/primer-go/internal/asset"
)

//go:embed templates
var templatesFS embed.FS

// ErrPartialNotFound is returned for a partial id with no template.
var ErrPartialNotFound = errors.New("partial not found")

// blankLinesRegex matches two or more consecutive newlines (with optional whitespace between).
var blankLinesRegex = regexp.MustCompile(`(\r?\n\s*){2,}`)

const previewTemplate = "preview.html"

// Partials holds the parsed template parts and the preview layout.
type Partials struct {
	tmpl *template.Template
}

// ParsePartials parses the embedded templates.
func ParsePartials() (*Partials, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/parts/*.html", "templates/layouts/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Partials{tmpl: tmpl}, nil
}

// PartialFile maps a partial id to its template name: "blog/title" is
// parts/blog-title.html.
func PartialFile(id string) string {
	return strings.ReplaceAll(strings.Trim(id, "/"), "/", "-") + ".html"
}

// Has reports whether a template exists for the partial id.
func (p *Partials) Has(id string) bool {
	return p.tmpl.Lookup(PartialFile(id)) != nil
}

// RenderPartial executes the partial for id with data.
func (p *Partials) RenderPartial(w io.Writer, id string, data any) error {
	name := PartialFile(id)
	if p.tmpl.Lookup(name) == nil {
		return fmt.Errorf("%w: %s", ErrPartialNotFound, id)
	}
	return p.execute(w, name, data)
}

func (p *Partials) execute(w io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}

	// Strip consecutive blank lines from the rendered HTML
	compacted := blankLinesRegex.ReplaceAll(buf.Bytes(), []byte("\n"))
	_, err := w.Write(compacted)
	return err
}

// PartialData is what every partial receives.
type PartialData struct {
	Page  *Page
	Title string
	T     func(id string, args ...any) string
}

// PreviewData is what the preview layout receives.
type PreviewData struct {
	PartialData
	RenderID    string
	Head        template.HTML
	AfterHeader template.HTML
	Footer      template.HTML
}

// RenderPreview renders a complete page skeleton for page: enqueued assets,
// the after-header region, the content column and the visible sidebars.
func (t *Theme) RenderPreview(w io.Writer, page *Page, client asset.Client, renderID string) error {
	pipeline := asset.NewHTMLPipeline(client, page.RTL)
	asset.Enqueue(pipeline, page.Assets)

	data := PreviewData{
		PartialData: t.partialData(page),
		RenderID:    renderID,
		Head:        pipeline.Head(),
		Footer:      pipeline.Footer(),
	}

	var region bytes.Buffer
	if err := t.writeAfterHeader(&region, page); err != nil {
		return err
	}
	data.AfterHeader = template.HTML(region.String())

	return t.partials.execute(w, previewTemplate, data)
}

func (t *Theme) partialData(page *Page) PartialData {
	return PartialData{
		Page:  page,
		Title: page.Title,
		T: func(id string, args ...any) string {
			return t.catalog.T(page.Lang, id, args...)
		},
	}
}
