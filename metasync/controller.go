// Copyright 2024 The nowbar Authors
// SPDX-License-Identifier: GPL-3.0-only

package metasync

import (
	"fmt"
	"time"

	"nowbar/logger"
)

// progressInterval is the delay between progress refreshes while playback
// is active.
const progressInterval = 1000 * time.Millisecond

// Controller keeps a set of display elements in sync with a playback
// model: title and subtitle text, optional elapsed/total time text, a
// progress bar and an optional artwork surface.
//
// The controller never creates or destroys its display targets; it only
// writes their content and visibility. It is not safe for concurrent use:
// every method, observer notification and scheduler tick must run on one
// event thread.
type Controller struct {
	title    TextTarget
	subtitle TextTarget
	timeText TextTarget // may be nil
	progress RangeTarget
	artwork  ArtworkTarget // may be nil

	model    PlaybackModel
	current  *Metadata // last rendered metadata, nil when none was rendered
	observer *modelObserver

	scheduler  Scheduler
	cancelTick func() // non-nil while a tick is scheduled

	logger logger.LoggerInterface
}

// NewController creates a controller writing to the given display targets.
// title, subtitle and progress are required; timeText and artwork may be
// nil, in which case the logic touching them is skipped.
func NewController(title, subtitle, timeText TextTarget, progress RangeTarget,
	artwork ArtworkTarget, scheduler Scheduler, log logger.LoggerInterface) *Controller {
	c := &Controller{
		title:     title,
		subtitle:  subtitle,
		timeText:  timeText,
		progress:  progress,
		artwork:   artwork,
		scheduler: scheduler,
		logger:    log,
	}
	c.observer = &modelObserver{c}
	return c
}

// Attach subscribes the controller to model, detaching from any previously
// attached model first so that at most one model is ever subscribed.
// Passing nil detaches entirely, stops the progress loop and hides the
// progress display.
//
// Attaching does not force an immediate render: the first display update
// happens when the model delivers a notification. All bundled models
// notify their observer once upon registration, so attaching one renders
// the current state right away.
func (c *Controller) Attach(model PlaybackModel) {
	if c.model != nil {
		c.model.UnregisterObserver(c.observer)
	}
	c.model = model
	if c.model != nil {
		c.model.RegisterObserver(c.observer)
		c.logger.Print("metasync: model attached")
	} else {
		c.stopTick()
		c.updateProgress()
		c.logger.Print("metasync: model detached")
	}
}

// modelObserver keeps the PlaybackObserver methods off the Controller's
// public API. Its identity is stable across Attach calls so unregistering
// always matches the earlier registration.
type modelObserver struct {
	c *Controller
}

func (o *modelObserver) OnPlaybackStateChanged() {
	o.c.updateState()
}

func (o *modelObserver) OnSourceChanged() {
	o.c.updateState()
	// The source changed, so re-render metadata even if it compares equal
	// to what is already displayed.
	o.c.renderMetadata(o.c.readMetadata())
}

func (o *modelObserver) OnMetadataChanged() {
	o.c.updateMetadata()
}

// updateState refreshes the progress display and starts or stops the
// progress loop. The loop runs if and only if a model is attached and it
// reports playing.
func (c *Controller) updateState() {
	c.updateProgress()

	if c.model != nil && c.model.IsPlaying() {
		c.startTick()
	} else {
		c.stopTick()
	}
}

func (c *Controller) readMetadata() *Metadata {
	if c.model == nil {
		return nil
	}
	meta, ok := c.model.Metadata()
	if !ok {
		return nil
	}
	return &meta
}

// updateMetadata renders the model's metadata, skipping the write when it
// is value-equal to what was rendered last.
func (c *Controller) updateMetadata() {
	meta := c.readMetadata()
	if metadataEqual(c.current, meta) {
		return
	}
	c.renderMetadata(meta)
}

func (c *Controller) renderMetadata(meta *Metadata) {
	c.current = meta

	var title, subtitle, artworkRef string
	if meta != nil {
		title = meta.Title
		subtitle = meta.Subtitle
		artworkRef = meta.ArtworkRef
	}
	c.title.SetText(title)
	c.subtitle.SetText(subtitle)
	if c.artwork != nil {
		c.artwork.RenderArtwork(artworkRef)
	}
}

// updateProgress reads position and duration freshly from the model and
// pushes them to the time text and the progress bar. With no model
// attached both elements are hidden; with an unknown duration
// (MaxProgress <= 0) they are hidden as well.
func (c *Controller) updateProgress() {
	if c.model == nil {
		if c.timeText != nil {
			c.timeText.SetVisible(false)
		}
		c.progress.SetVisible(false)
		return
	}

	maxProgress := c.model.MaxProgress()
	progress := c.model.Progress()
	visible := maxProgress > 0

	if c.timeText != nil {
		c.timeText.SetText(fmt.Sprintf("%s / %s",
			formatProgress(progress), formatProgress(maxProgress)))
		c.timeText.SetVisible(visible)
	}
	c.progress.SetVisible(visible)
	c.progress.SetMax(int(maxProgress))
	c.progress.SetValue(int(progress))
}

// startTick schedules the next progress tick unless one is already
// pending, making starts idempotent.
func (c *Controller) startTick() {
	if c.cancelTick != nil {
		return
	}
	c.cancelTick = c.scheduler.ScheduleAfter(progressInterval, c.tick)
}

func (c *Controller) stopTick() {
	if c.cancelTick != nil {
		c.cancelTick()
		c.cancelTick = nil
	}
}

// tick is one execution of the progress loop. It re-validates that a model
// is still attached and still playing before doing anything, so a tick
// that slipped past a cancel is a harmless no-op. While validation passes
// it reschedules itself.
func (c *Controller) tick() {
	c.cancelTick = nil
	if c.model == nil || !c.model.IsPlaying() {
		return
	}
	c.updateProgress()
	c.cancelTick = c.scheduler.ScheduleAfter(progressInterval, c.tick)
}

func metadataEqual(a, b *Metadata) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
