// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 7 {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	path := filepath.Join(dir, "photo.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	src := writePNG(t, dir, 2000, 1200)
	out := filepath.Join(dir, "out")

	results, err := NewProcessor(out).Generate(src, []Size{
		{Name: "primer-featured", Width: 1600, Height: 900, Crop: true},
		{Name: "thumb", Width: 300, Height: 300},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "primer-featured", results[0].Size)
	assert.Equal(t, 1600, results[0].Width)
	assert.Equal(t, 900, results[0].Height)
	assert.Equal(t, filepath.Join(out, "photo-1600x900.png"), results[0].Path)
	assert.FileExists(t, results[0].Path)

	assert.Equal(t, 300, results[1].Width)
	assert.Equal(t, 180, results[1].Height)
	assert.Positive(t, results[1].Bytes)
}

func TestGenerate_SkipsUpscale(t *testing.T) {
	dir := t.TempDir()
	src := writePNG(t, dir, 800, 600)

	results, err := NewProcessor(dir).Generate(src, []Size{
		{Name: "primer-featured", Width: 1600, Height: 900, Crop: true},
		{Name: "large", Width: 1024, Height: 1024},
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestGenerate_Unsupported(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(src, []byte("not an image"), 0o644))

	_, err := NewProcessor(dir).Generate(src, []Size{{Name: "x", Width: 10, Height: 10}})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestResize(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1000, 500))

	tests := []struct {
		name string
		size Size
		ok   bool
		w, h int
	}{
		{"crop exact", Size{Width: 400, Height: 400, Crop: true}, true, 400, 400},
		{"crop limited by source", Size{Width: 1600, Height: 300, Crop: true}, true, 1000, 300},
		{"crop same as source", Size{Width: 1000, Height: 500, Crop: true}, false, 0, 0},
		{"fit width", Size{Width: 500, Height: 500}, true, 500, 250},
		{"fit height only", Size{Height: 100}, true, 200, 100},
		{"fit larger", Size{Width: 2000, Height: 2000}, false, 0, 0},
		{"empty", Size{}, false, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ok := Resize(img, tt.size)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.w, out.Bounds().Dx())
				assert.Equal(t, tt.h, out.Bounds().Dy())
			}
		})
	}
}

func TestApplyOrientation(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))

	assert.Equal(t, 20, applyOrientation(img, 1).Bounds().Dx())
	assert.Equal(t, 10, applyOrientation(img, 6).Bounds().Dx())
	assert.Equal(t, 10, applyOrientation(img, 8).Bounds().Dx())
	assert.Equal(t, 20, applyOrientation(img, 3).Bounds().Dx())
}

func TestOutputFormat(t *testing.T) {
	f, ext := outputFormat("webp")
	assert.Equal(t, "jpeg", f)
	assert.Equal(t, "jpg", ext)

	f, ext = outputFormat("png")
	assert.Equal(t, "png", f)
	assert.Equal(t, "png", ext)
}
