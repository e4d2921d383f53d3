// Copyright 2024 The nowbar Authors
// SPDX-License-Identifier: GPL-3.0-only

package mpdplayer

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fhs/gompd/v2/mpd"

	"nowbar/metasync"
)

// isPlayingState reports whether an MPD status "state" attribute means
// audio is advancing. MPD uses "play", "pause" and "stop".
func isPlayingState(state string) bool {
	return state == "play"
}

// secondsToMillis converts MPD's fractional-seconds attributes ("123.456")
// to integer milliseconds. Absent or malformed values become 0.
func secondsToMillis(s string) int64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(f * 1000)
}

// songMetadata builds display metadata from a currentsong response. When
// a track carries no Title tag the file path stands in, which is what MPD
// clients conventionally show.
//
// MPD has no artwork URL concept. With a configured local music directory
// the ref points at a cover.jpg next to the track; resolution failures are
// swallowed downstream, so tracks without one just keep the display as is.
func songMetadata(song mpd.Attrs, musicDir string) (metasync.Metadata, bool) {
	if len(song) == 0 {
		return metasync.Metadata{}, false
	}
	meta := metasync.Metadata{
		Title:      song["Title"],
		Subtitle:   song["Artist"],
		ArtworkRef: coverRef(musicDir, song["file"]),
	}
	if meta.Title == "" {
		meta.Title = song["file"]
	}
	if meta == (metasync.Metadata{}) {
		return metasync.Metadata{}, false
	}
	return meta, true
}

// coverRef derives an artwork reference for a song file relative to the
// music directory. Streams and unconfigured setups yield no reference.
func coverRef(musicDir, file string) string {
	if musicDir == "" || file == "" || strings.Contains(file, "://") {
		return ""
	}
	return filepath.Join(musicDir, filepath.Dir(file), "cover.jpg")
}
