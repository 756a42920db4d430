// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/olegiv/primer-go/internal/imaging"
	"github.com/olegiv/primer-go/internal/theme"
)

func imagingSizes(sizes []theme.ImageSize) []imaging.Size {
	out := make([]imaging.Size, len(sizes))
	for i, s := range sizes {
		out[i] = imaging.Size{Name: s.Name, Width: s.Width, Height: s.Height, Crop: s.Crop}
	}
	return out
}

func newImagesCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "images <source>",
		Short: "Generate the theme's image sizes for a source image",
		Long: `Writes one file per registered image size next to the source, or into
--out. Sizes that would not shrink the image are skipped. Results are printed
as YAML.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			dir := outDir
			if dir == "" {
				dir = filepath.Dir(args[0])
			}
			results, err := imaging.NewProcessor(dir).Generate(args[0], imagingSizes(a.theme.ImageSizes()))
			if err != nil {
				return fmt.Errorf("generating image sizes: %w", err)
			}
			a.logger.Info("image sizes generated", "source", args[0], "count", len(results))
			if results == nil {
				results = []imaging.Result{}
			}
			return writeYAML(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory")
	return cmd
}
