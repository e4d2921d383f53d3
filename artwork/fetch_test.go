// Copyright 2024 The nowbar Authors
// SPDX-License-Identifier: GPL-3.0-only

package artwork

import (
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cover.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))
	return path
}

func TestFetchPlainPath(t *testing.T) {
	path := writeTestPNG(t, 8, 8)

	img, err := Fetch(path)
	assert.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
}

func TestFetchFileURL(t *testing.T) {
	path := writeTestPNG(t, 8, 4)

	img, err := Fetch("file://" + path)
	assert.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dy())
}

func TestFetchHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		png.Encode(w, image.NewRGBA(image.Rect(0, 0, 16, 16)))
	}))
	defer srv.Close()

	img, err := Fetch(srv.URL + "/cover.png")
	assert.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
}

func TestFetchHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := Fetch(srv.URL + "/missing.png")
	assert.Error(t, err)
}

func TestFetchMissingFile(t *testing.T) {
	_, err := Fetch(filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}

func TestFetchUndecodableData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-an-image.png")
	require.NoError(t, os.WriteFile(path, []byte("junk"), 0o600))

	_, err := Fetch(path)
	assert.Error(t, err)
}

func TestScaleShrinksLargeImages(t *testing.T) {
	img := Scale(image.NewRGBA(image.Rect(0, 0, 600, 300)), 60, 60)
	assert.LessOrEqual(t, img.Bounds().Dx(), 60)
	assert.LessOrEqual(t, img.Bounds().Dy(), 60)
}

func TestScaleKeepsSmallImages(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	img := Scale(src, 60, 60)
	assert.Equal(t, 10, img.Bounds().Dx())
}
