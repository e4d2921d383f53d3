// Copyright 2024 The nowbar Authors
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"github.com/gdamore/tcell/v2"
)

func (ui *Ui) handlePageInput(event *tcell.EventKey) *tcell.EventKey {
	switch event.Rune() {
	case '1':
		ui.ShowPage(PageNowPlaying)

	case '2':
		ui.ShowPage(PageLog)

	case 'l':
		// toggle between the log and the now-playing page
		if name, _ := ui.pages.GetFrontPage(); name == PageLog {
			ui.ShowPage(PageNowPlaying)
		} else {
			ui.ShowPage(PageLog)
		}

	case 'q', 'Q':
		ui.Quit()

	case 'p':
		if ui.controls == nil {
			ui.logger.Print("this backend has no play/pause control")
			return nil
		}
		if err := ui.controls.PlayPause(); err != nil {
			ui.logger.PrintError("handlePageInput: PlayPause", err)
		}

	case '>':
		if ui.controls == nil {
			return nil
		}
		if err := ui.controls.NextTrack(); err != nil {
			ui.logger.PrintError("handlePageInput: NextTrack", err)
		}

	case '<':
		if ui.controls == nil {
			return nil
		}
		if err := ui.controls.PreviousTrack(); err != nil {
			ui.logger.PrintError("handlePageInput: PreviousTrack", err)
		}

	default:
		return event
	}

	return nil
}

func (ui *Ui) ShowPage(name string) {
	ui.pages.SwitchToPage(name)
}
