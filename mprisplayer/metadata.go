// Copyright 2024 The nowbar Authors
// SPDX-License-Identifier: GPL-3.0-only

package mprisplayer

import (
	"strings"

	"github.com/godbus/dbus/v5"

	"nowbar/metasync"
)

// parseMetadata extracts displayable fields from an MPRIS metadata map.
// Players are sloppy about types here: xesam:artist may be a string or a
// string list, mpris:length may be any integer width. ok is false when the
// map carries nothing displayable, which players signal with an empty or
// absent Metadata property.
func parseMetadata(raw map[string]dbus.Variant) (meta metasync.Metadata, lengthMS int64, ok bool) {
	if len(raw) == 0 {
		return
	}

	if v, found := raw["xesam:title"]; found {
		if s, isStr := v.Value().(string); isStr {
			meta.Title = s
		}
	}
	if v, found := raw["xesam:artist"]; found {
		switch artists := v.Value().(type) {
		case []string:
			meta.Subtitle = strings.Join(artists, ", ")
		case string:
			meta.Subtitle = artists
		}
	}
	if v, found := raw["mpris:artUrl"]; found {
		if s, isStr := v.Value().(string); isStr {
			meta.ArtworkRef = s
		}
	}
	if v, found := raw["mpris:length"]; found {
		lengthMS = lengthToMillis(v.Value())
	}

	ok = meta != (metasync.Metadata{})
	return
}

// lengthToMillis converts an mpris:length value (microseconds) to
// milliseconds, tolerating the integer types seen in the wild.
func lengthToMillis(value interface{}) int64 {
	switch l := value.(type) {
	case int64:
		return l / 1000
	case uint64:
		return int64(l / 1000)
	case int32:
		return int64(l) / 1000
	case uint32:
		return int64(l) / 1000
	case int:
		return int64(l) / 1000
	case float64:
		return int64(l) / 1000
	}
	return 0
}
