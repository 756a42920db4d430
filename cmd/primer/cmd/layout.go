// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/olegiv/primer-go/internal/layout"
)

func newLayoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Inspect and change page layouts",
	}
	cmd.AddCommand(newLayoutGetCmd(), newLayoutSetCmd(), newLayoutDefaultCmd(), newLayoutListCmd())
	return cmd
}

func parsePageID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid page id %q", s)
	}
	return id, nil
}

func parseLayout(s string) (layout.Variant, error) {
	v, ok := layout.ParseVariant(s)
	if !ok {
		return layout.Invalid, fmt.Errorf("%w: %q", layout.ErrInvalidVariant, s)
	}
	return v, nil
}

func newLayoutGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <page-id>",
		Short: "Print the layout and content width of a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pageID, err := parsePageID(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			v := a.theme.PageLayout(cmd.Context(), pageID)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n",
				v, a.theme.Resolver().ResolveContentWidth(v), strings.Join(layout.Sidebars(v), ","))
			return err
		},
	}
}

func newLayoutSetCmd() *cobra.Command {
	var clearOverride bool

	cmd := &cobra.Command{
		Use:   "set <page-id> [layout]",
		Short: "Set or clear a page's layout override",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pageID, err := parsePageID(args[0])
			if err != nil {
				return err
			}
			v := layout.Invalid
			switch {
			case len(args) == 2 && clearOverride:
				return fmt.Errorf("--clear takes no layout argument")
			case len(args) == 2:
				if v, err = parseLayout(args[1]); err != nil {
					return err
				}
			case !clearOverride:
				return fmt.Errorf("a layout or --clear is required")
			}

			a, err := newApp(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := a.theme.SetPageLayout(cmd.Context(), pageID, v); err != nil {
				return fmt.Errorf("storing layout: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), a.theme.PageLayout(cmd.Context(), pageID))
			return err
		},
	}
	cmd.Flags().BoolVar(&clearOverride, "clear", false, "remove the page override")
	return cmd
}

func newLayoutDefaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "default [layout]",
		Short: "Print or set the site-wide default layout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var v layout.Variant
			if len(args) == 1 {
				var err error
				if v, err = parseLayout(args[0]); err != nil {
					return err
				}
			}

			a, err := newApp(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if v.Valid() {
				if err := a.theme.SetGlobalLayout(cmd.Context(), v); err != nil {
					return fmt.Errorf("storing layout: %w", err)
				}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(),
				a.theme.Resolver().GlobalDefault(cmd.Context(), a.theme.DefaultLayout()))
			return err
		},
	}
}

func newLayoutListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the known layouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, v := range layout.Variants() {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d columns\n", v, v.Columns()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
