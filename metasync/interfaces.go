// Copyright 2024 The nowbar Authors
// SPDX-License-Identifier: GPL-3.0-only

package metasync

// Metadata is a snapshot of a track's displayable fields. Two snapshots
// compare equal when all fields match; the controller uses that to skip
// redundant display writes.
type Metadata struct {
	Title      string
	Subtitle   string
	ArtworkRef string
}

// PlaybackObserver receives change notifications from a PlaybackModel.
// All callbacks must be delivered on the single event thread that also
// calls the Controller's methods.
type PlaybackObserver interface {
	// OnPlaybackStateChanged reports play/pause/buffering transitions.
	OnPlaybackStateChanged()
	// OnSourceChanged reports that the session switched to a different
	// underlying source, even if the visible metadata looks the same.
	OnSourceChanged()
	// OnMetadataChanged reports a metadata update for the current source.
	OnMetadataChanged()
}

// PlaybackModel is a live playback session the controller mirrors.
// Progress and MaxProgress are read freshly on every refresh; they are
// never cached by the controller.
type PlaybackModel interface {
	// Metadata returns the current track metadata. ok is false when
	// nothing is loaded.
	Metadata() (meta Metadata, ok bool)
	IsPlaying() bool
	// Progress returns the playback position in milliseconds.
	Progress() int64
	// MaxProgress returns the track duration in milliseconds, or 0 when
	// the duration is unknown (live streams).
	MaxProgress() int64

	RegisterObserver(PlaybackObserver)
	UnregisterObserver(PlaybackObserver)
}

// TextTarget is a text display element owned by the surrounding UI.
type TextTarget interface {
	SetText(string)
	SetVisible(bool)
}

// RangeTarget is a progress-bar style display element.
type RangeTarget interface {
	SetMax(int)
	SetValue(int)
	SetVisible(bool)
}

// ArtworkTarget asynchronously resolves an artwork reference and renders
// it. An empty ref clears the image. Implementations must swallow
// resolution failures; they never propagate back to the controller.
type ArtworkTarget interface {
	RenderArtwork(ref string)
}
