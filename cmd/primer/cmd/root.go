// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cmd implements the primer command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/olegiv/primer-go/internal/version"
)

// envFile is loaded before every command when present.
var envFile = ".env"

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "primer",
		Short: "Primer theme runtime",
		Long: `primer resolves page layouts, composes after-header regions, registers
widget sidebars and builds the per-page asset manifest of the Primer theme.

Configuration is read from PRIMER_* environment variables and an optional
.env file in the working directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Missing .env is fine; real environment variables take precedence.
			_ = godotenv.Load(envFile)
			return nil
		},
	}

	root.AddCommand(
		newServeCmd(),
		newManifestCmd(),
		newSidebarsCmd(),
		newLayoutCmd(),
		newImagesCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
		},
	}
}

// Execute runs the root command.
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
