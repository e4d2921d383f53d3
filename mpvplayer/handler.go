// Copyright 2024 The nowbar Authors
// SPDX-License-Identifier: GPL-3.0-only

package mpvplayer

import (
	"github.com/supersonic-app/go-mpv"
)

// eventLoop translates mpv engine events into observer notifications. It
// runs until Quit pushes the nil sentinel.
func (p *Player) eventLoop() {
	if err := p.instance.ObserveProperty(0, "pause", mpv.FORMAT_FLAG); err != nil {
		p.logger.PrintError("ObserveProperty pause", err)
	}
	if err := p.instance.ObserveProperty(0, "media-title", mpv.FORMAT_STRING); err != nil {
		p.logger.PrintError("ObserveProperty media-title", err)
	}

	for evt := range p.mpvEvents {
		if evt == nil {
			// quit signal
			break
		} else if evt.Event_Id == mpv.EVENT_PROPERTY_CHANGE {
			// mpv does not say here which observed property changed.
			// Notifying for both concerns is harmless: the controller
			// skips value-equal metadata and loop starts are idempotent.
			p.dispatch(func() {
				p.notifyMetadata()
				p.notifyState()
			})
		} else if evt.Event_Id == mpv.EVENT_START_FILE {
			p.logger.Print("mpv: file started")
			p.dispatch(func() {
				p.notifySource()
			})
		} else if evt.Event_Id == mpv.EVENT_END_FILE {
			p.logger.Print("mpv: file ended")
			p.dispatch(func() {
				p.notifyState()
				p.notifyMetadata()
			})
		} else if evt.Event_Id == mpv.EVENT_IDLE || evt.Event_Id == mpv.EVENT_NONE {
			continue
		} else {
			p.logger.Printf("mpv.eventLoop: unhandled event id %v", evt.Event_Id)
		}
	}
}
