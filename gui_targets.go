// Copyright 2024 The nowbar Authors
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"time"

	"github.com/rivo/tview"

	"nowbar/artwork"
)

// textTarget adapts a tview.TextView to the sync controller. TextViews
// have no native hide, so hiding clears the displayed text and showing
// restores the last value set.
type textTarget struct {
	view    *tview.TextView
	text    string
	visible bool
}

func (t *textTarget) SetText(s string) {
	t.text = s
	t.apply()
}

func (t *textTarget) SetVisible(visible bool) {
	t.visible = visible
	t.apply()
}

func (t *textTarget) apply() {
	if !t.visible {
		t.view.SetText("")
		return
	}
	// escape anything a player might put in a tag that tview would
	// otherwise eat as a color code
	t.view.SetText(tview.Escape(t.text))
}

// artworkTarget puts cover art on a tview.Image, resolving references
// through the artwork cache. Cache misses render asynchronously via the
// cache's fetched callback (see Ui.artworkFetched), which checks current
// so that a slow fetch can't overwrite a newer track's cover.
type artworkTarget struct {
	view    *tview.Image
	cache   *artwork.Cache
	current string
}

func (a *artworkTarget) RenderArtwork(ref string) {
	a.current = ref
	if ref == "" {
		a.view.SetImage(nil)
		return
	}
	if img, ok := a.cache.Get(ref); ok {
		a.view.SetImage(artwork.Scale(img, artMaxPixels, artMaxPixels))
	}
	// on a miss the previous cover stays up until the fetch lands
}

// guiScheduler runs the controller's progress ticks on the tview event
// thread.
type guiScheduler struct {
	app *tview.Application
}

func (s *guiScheduler) ScheduleAfter(d time.Duration, fn func()) (cancel func()) {
	timer := time.AfterFunc(d, func() {
		s.app.QueueUpdateDraw(fn)
	})
	// Stop can lose the race against a timer that already queued its
	// update; the controller re-validates at tick time, so the stray
	// tick is harmless.
	return func() { timer.Stop() }
}
