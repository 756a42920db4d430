// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/olegiv/primer-go/internal/asset"
	"github.com/olegiv/primer-go/internal/pagectx"
)

type manifestOptions struct {
	kind     string
	archive  string
	template string
	pageID   int64
	comments bool
	threaded bool
	legacy   bool
	html     bool
	client   string
	rtl      bool
}

func (o manifestOptions) pageContext() pagectx.Context {
	pctx := pagectx.Context{
		Kind:             pagectx.ParseKind(o.kind),
		Archive:          pagectx.ArchiveKind(strings.ToLower(o.archive)),
		PageID:           o.pageID,
		Template:         o.template,
		CommentsOpen:     o.comments,
		ThreadedComments: o.threaded,
		LegacyClient:     o.legacy,
	}
	if pctx.Kind == pagectx.KindArchive && pctx.Archive == pagectx.ArchiveNone {
		pctx.Archive = pagectx.ArchiveCategory
	}
	return pctx
}

func parseClient(s string) (asset.Client, error) {
	switch strings.ToLower(s) {
	case "", "unknown":
		return asset.ClientUnknown, nil
	case "modern":
		return asset.ClientModern, nil
	case "legacy":
		return asset.ClientLegacy, nil
	default:
		return 0, fmt.Errorf("unknown client %q (want unknown, modern or legacy)", s)
	}
}

func newManifestCmd() *cobra.Command {
	var opts manifestOptions

	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Print the assets activated for a page",
		Long: `Prints the stylesheets and scripts a page needs, in dependency order, as
YAML. With --html the list is rendered as the head and footer markup instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := parseClient(opts.client)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			list, err := a.theme.Assets().Activate(opts.pageContext())
			if err != nil {
				return fmt.Errorf("activating assets: %w", err)
			}

			out := cmd.OutOrStdout()
			if opts.html {
				p := asset.NewHTMLPipeline(client, opts.rtl)
				asset.Enqueue(p, list)
				_, err := p.WriteTo(out)
				return err
			}
			return writeYAML(out, list)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.kind, "kind", "home", "page kind: home, single, page, archive, author, search, 404")
	f.StringVar(&opts.archive, "archive", "", "archive kind: category, tag, date, post-type")
	f.StringVar(&opts.template, "template", "", "page template name")
	f.Int64Var(&opts.pageID, "id", 0, "page id")
	f.BoolVar(&opts.comments, "comments", false, "comments are open")
	f.BoolVar(&opts.threaded, "threaded", false, "threaded comments are enabled")
	f.BoolVar(&opts.legacy, "legacy", false, "the client is a legacy browser")
	f.BoolVar(&opts.html, "html", false, "print link and script markup")
	f.StringVar(&opts.client, "client", "unknown", "markup client: unknown, modern, legacy")
	f.BoolVar(&opts.rtl, "rtl", false, "use right-to-left stylesheets")
	return cmd
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}
