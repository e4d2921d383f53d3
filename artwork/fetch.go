// Copyright 2024 The nowbar Authors
// SPDX-License-Identifier: GPL-3.0-only

package artwork

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/nfnt/resize"
)

// Fetch resolves an artwork reference into a decoded image. References
// are what players put into their artwork fields: file:// URLs, plain
// file paths, or http(s) URLs.
func Fetch(ref string) (image.Image, error) {
	data, err := readRef(ref)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding artwork %s: %w", ref, err)
	}
	return img, nil
}

func readRef(ref string) ([]byte, error) {
	switch {
	case strings.HasPrefix(ref, "file://"):
		return os.ReadFile(strings.TrimPrefix(ref, "file://"))

	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		resp, err := http.Get(ref)
		if err != nil {
			return nil, fmt.Errorf("downloading artwork: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("artwork download failed with status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)

	default:
		return os.ReadFile(ref)
	}
}

// Scale fits img into maxWidth x maxHeight, keeping the aspect ratio.
// Images already small enough are returned unchanged.
func Scale(img image.Image, maxWidth, maxHeight uint) image.Image {
	return resize.Thumbnail(maxWidth, maxHeight, img, resize.Lanczos3)
}
