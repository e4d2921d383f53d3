// Copyright 2024 The nowbar Authors
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"image"

	"github.com/rivo/tview"

	"nowbar/artwork"
	"nowbar/logger"
	"nowbar/metasync"
)

// artMaxPixels bounds the source resolution handed to the terminal image
// renderer; covers come in anything up to print resolution.
const artMaxPixels = 300

// artCacheSize is how many decoded covers are kept around.
const artCacheSize = 24

// PlayerControls is the control surface of a playback backend. The panel
// works fine without one; keys that need it just log a message.
type PlayerControls interface {
	PlayPause() error
	NextTrack() error
	PreviousTrack() error
}

// struct contains all the updatable elements of the Ui
type Ui struct {
	app   *tview.Application
	pages *tview.Pages

	// now playing page
	titleText    *tview.TextView
	subtitleText *tview.TextView
	timeText     *tview.TextView
	progressBar  *ProgressBar
	artView      *tview.Image
	artTarget    *artworkTarget

	// bottom bar
	menuText *tview.TextView

	// log page
	logPage *LogPage

	controller *metasync.Controller
	model      metasync.PlaybackModel
	controls   PlayerControls
	artCache   *artwork.Cache

	logger *logger.Logger
}

const (
	// page identifiers (use these instead of hardcoding page names)
	PageNowPlaying = "nowplaying"
	PageLog        = "log"
)

func InitGui(showArtwork bool, logger *logger.Logger) (ui *Ui) {
	ui = &Ui{
		logger: logger,
	}

	ui.app = tview.NewApplication()
	ui.pages = tview.NewPages()

	ui.titleText = tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true).
		SetScrollable(false)
	ui.subtitleText = tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true).
		SetScrollable(false)
	ui.timeText = tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true).
		SetScrollable(false)
	ui.progressBar = NewProgressBar()

	nowPlaying := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false)
	if showArtwork {
		ui.artView = tview.NewImage()
		nowPlaying.AddItem(ui.artView, 0, 3, false)
		nowPlaying.AddItem(nil, 1, 0, false)
	}
	nowPlaying.
		AddItem(ui.titleText, 1, 0, false).
		AddItem(ui.subtitleText, 1, 0, false).
		AddItem(nil, 1, 0, false).
		AddItem(ui.progressBar, 1, 0, false).
		AddItem(ui.timeText, 1, 0, false).
		AddItem(nil, 0, 1, false)

	// log page
	ui.logPage = ui.createLogPage()

	ui.pages.AddPage(PageNowPlaying, nowPlaying, true, true).
		AddPage(PageLog, ui.logPage.Root, true, false)

	// bottom bar: key help
	ui.menuText = tview.NewTextView().
		SetText("p: play/pause   >: next   <: previous   l: log   q: quit").
		SetTextAlign(tview.AlignCenter).
		SetScrollable(false)

	rootFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(ui.pages, 0, 1, true).
		AddItem(ui.menuText, 1, 0, false)

	// add main input handler
	rootFlex.SetInputCapture(ui.handlePageInput)

	ui.app.SetRoot(rootFlex, true).
		SetFocus(rootFlex)

	// wire the display targets into the sync controller
	var timeTarget metasync.TextTarget = &textTarget{view: ui.timeText, visible: true}
	var artTarget metasync.ArtworkTarget
	if ui.artView != nil {
		ui.artCache = artwork.NewCache(artwork.Fetch, ui.artworkFetched, artCacheSize, logger)
		ui.artTarget = &artworkTarget{view: ui.artView, cache: ui.artCache}
		artTarget = ui.artTarget
	}
	ui.controller = metasync.NewController(
		&textTarget{view: ui.titleText, visible: true},
		&textTarget{view: ui.subtitleText, visible: true},
		timeTarget,
		ui.progressBar,
		artTarget,
		&guiScheduler{app: ui.app},
		logger,
	)

	return ui
}

// Dispatch runs fn on the UI event thread. Backends use it to deliver
// observer notifications.
func (ui *Ui) Dispatch(fn func()) {
	ui.app.QueueUpdateDraw(fn)
}

// SetPlayer hands the playback model (and its optional control surface)
// to the UI. Must be called before Run.
func (ui *Ui) SetPlayer(model metasync.PlaybackModel, controls PlayerControls) {
	ui.model = model
	ui.controls = controls
}

func (ui *Ui) Run() error {
	// forward log lines to the log page
	go ui.logLoop()

	// the model delivers an initial notification on subscribe, so this
	// renders the current state before the main loop starts
	ui.controller.Attach(ui.model)

	// gui main loop (blocking)
	return ui.app.Run()
}

func (ui *Ui) Quit() {
	ui.controller.Attach(nil)
	if ui.artCache != nil {
		ui.artCache.Close()
	}
	ui.app.Stop()
}

func (ui *Ui) logLoop() {
	for msg := range ui.logger.Prints {
		ui.logPage.Print(msg)
	}
}

// artworkFetched is called by the artwork cache when an asynchronous fetch
// finished. The image is dropped if the display moved on to another track
// while the fetch was in flight.
func (ui *Ui) artworkFetched(ref string, img image.Image) {
	ui.app.QueueUpdateDraw(func() {
		if ui.artTarget != nil && ui.artTarget.current == ref {
			ui.artView.SetImage(artwork.Scale(img, artMaxPixels, artMaxPixels))
		}
	})
}
