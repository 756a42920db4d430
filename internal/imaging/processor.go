// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging generates the theme's registered image sizes from a
// source image.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder
)

// ErrUnsupportedFormat is returned for sources that are not JPEG, PNG, GIF or WebP.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// DefaultQuality is the JPEG quality used for generated sizes.
const DefaultQuality = 85

// Size is a named output size. Crop fills the exact box, otherwise the
// image is scaled to fit inside it.
type Size struct {
	Name   string
	Width  int
	Height int
	Crop   bool
}

// Result describes one generated file.
type Result struct {
	Size   string `json:"size" yaml:"size"`
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
	Bytes  int64  `json:"bytes" yaml:"bytes"`
	Path   string `json:"path" yaml:"path"`
}

// Processor writes generated sizes into an output directory.
type Processor struct {
	outDir  string
	quality int
}

// NewProcessor creates a processor writing into outDir.
func NewProcessor(outDir string) *Processor {
	return &Processor{outDir: outDir, quality: DefaultQuality}
}

// Generate decodes src and writes one file per size, named
// <base>-<width>x<height>.<ext>. Sizes that would not make the image
// smaller are skipped.
func (p *Processor) Generate(src string, sizes []Size) ([]Result, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}
	format := detectFormat(data)
	if format == "" {
		return nil, ErrUnsupportedFormat
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	if format == "jpeg" {
		img = applyOrientation(img, readExifOrientation(data))
	}

	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	outFormat, ext := outputFormat(format)

	var results []Result
	for _, s := range sizes {
		resized, ok := Resize(img, s)
		if !ok {
			continue
		}
		b := resized.Bounds()
		encoded, err := encodeImage(resized, outFormat, p.quality)
		if err != nil {
			return results, fmt.Errorf("encoding %s: %w", s.Name, err)
		}
		name := fmt.Sprintf("%s-%dx%d.%s", base, b.Dx(), b.Dy(), ext)
		path, err := p.save(name, encoded)
		if err != nil {
			return results, err
		}
		results = append(results, Result{
			Size:   s.Name,
			Width:  b.Dx(),
			Height: b.Dy(),
			Bytes:  int64(len(encoded)),
			Path:   path,
		})
	}
	return results, nil
}

// Resize scales img to s. It reports false when the output would be no
// smaller than img. Crops never upscale: a source smaller than the box is
// cropped to its own smaller dimension.
func Resize(img image.Image, s Size) (image.Image, bool) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if s.Width <= 0 && s.Height <= 0 {
		return nil, false
	}

	if s.Crop {
		tw, th := min(s.Width, w), min(s.Height, h)
		if tw <= 0 || th <= 0 || (tw == w && th == h) {
			return nil, false
		}
		return imaging.Fill(img, tw, th, imaging.Center, imaging.Lanczos), true
	}

	if (s.Width <= 0 || w <= s.Width) && (s.Height <= 0 || h <= s.Height) {
		return nil, false
	}
	return imaging.Fit(img, orMax(s.Width, w), orMax(s.Height, h), imaging.Lanczos), true
}

// orMax treats a zero bound as unconstrained.
func orMax(bound, fallback int) int {
	if bound <= 0 {
		return fallback
	}
	return bound
}

// readExifOrientation returns the EXIF orientation tag, or 1 when absent.
func readExifOrientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

// applyOrientation undoes an EXIF orientation:
// 2 flip H, 3 rotate 180, 4 flip V, 5 transpose, 6 rotate 90 CW,
// 7 transverse, 8 rotate 90 CCW.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// outputFormat maps a source format to the written format and extension.
// WebP has no pure Go encoder, so it is written as JPEG.
func outputFormat(format string) (string, string) {
	switch format {
	case "png":
		return "png", "png"
	case "gif":
		return "gif", "gif"
	default:
		return "jpeg", "jpg"
	}
}

func encodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	}
	return buf.Bytes(), err
}

// detectFormat sniffs the image format. TIFF is rejected
// (CVE-2023-36308 in disintegration/imaging).
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	switch {
	case strings.Contains(contentType, "tiff"):
		return ""
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}

// save writes data to outDir/name. name must be a plain file name.
func (p *Processor) save(name string, data []byte) (string, error) {
	safe := filepath.Base(name)
	if safe != name || safe == "." || safe == ".." {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	if err := os.MkdirAll(p.outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(p.outDir, safe)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", safe, err)
	}
	return path, nil
}
