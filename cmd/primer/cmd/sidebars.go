// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

func newSidebarsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sidebars",
		Short: "Print the registered widget sidebars as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			return writeYAML(cmd.OutOrStdout(), a.theme.Sidebars().Definitions())
		},
	}
}
