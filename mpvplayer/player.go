// Copyright 2024 The nowbar Authors
// SPDX-License-Identifier: GPL-3.0-only

package mpvplayer

import (
	"errors"

	"github.com/supersonic-app/go-mpv"

	"nowbar/logger"
	"nowbar/metasync"
)

// Player is a playback model backed by an embedded mpv instance. It exists
// so the panel can be pointed at a local file or stream URL directly
// instead of observing an external player.
//
// State queries read mpv properties freshly on every call; libmpv property
// access is safe from any thread. Observer notifications are handed to the
// dispatch function, which must execute them on the UI event thread.
type Player struct {
	instance  *mpv.Mpv
	mpvEvents chan *mpv.Event
	dispatch  func(func())
	logger    logger.LoggerInterface

	// Only touched on the event thread.
	observers []metasync.PlaybackObserver
}

// NewPlayer initializes an mpv engine configured for audio-only playback.
func NewPlayer(dispatch func(func()), log logger.LoggerInterface) (*Player, error) {
	mpvInstance := mpv.Create()

	if err := mpvInstance.SetOptionString("audio-display", "no"); err != nil {
		mpvInstance.TerminateDestroy()
		return nil, err
	}
	if err := mpvInstance.SetOptionString("video", "no"); err != nil {
		mpvInstance.TerminateDestroy()
		return nil, err
	}
	if err := mpvInstance.Initialize(); err != nil {
		mpvInstance.TerminateDestroy()
		return nil, err
	}

	p := &Player{
		instance:  mpvInstance,
		mpvEvents: make(chan *mpv.Event),
		dispatch:  dispatch,
		logger:    log,
	}

	go p.mpvEngineEventHandler(mpvInstance)
	go p.eventLoop()
	return p, nil
}

func (p *Player) mpvEngineEventHandler(instance *mpv.Mpv) {
	for {
		evt := instance.WaitEvent(1)
		p.mpvEvents <- evt
	}
}

// Quit stops the event loop and tears down the mpv engine.
func (p *Player) Quit() {
	p.mpvEvents <- nil
	p.instance.TerminateDestroy()
}

// Play replaces whatever is loaded with the given file path or URL and
// starts playback.
func (p *Player) Play(uri string) error {
	if err := p.instance.Command([]string{"loadfile", uri}); err != nil {
		return err
	}
	return p.instance.SetProperty("pause", mpv.FORMAT_FLAG, false)
}

func (p *Player) Metadata() (metasync.Metadata, bool) {
	idle, err := p.getPropertyBool("idle-active")
	if err != nil || idle {
		return metasync.Metadata{}, false
	}
	title, err := p.getPropertyString("media-title")
	if err != nil || title == "" {
		return metasync.Metadata{}, false
	}
	// Best effort; not every container carries an artist tag.
	artist, _ := p.getPropertyString("metadata/by-key/artist")
	return metasync.Metadata{Title: title, Subtitle: artist}, true
}

func (p *Player) IsPlaying() bool {
	idle, err := p.getPropertyBool("idle-active")
	if err != nil || idle {
		return false
	}
	paused, err := p.getPropertyBool("pause")
	if err != nil {
		return false
	}
	return !paused
}

// Progress reads mpv's playback-time, reported in whole seconds.
func (p *Player) Progress() int64 {
	position, err := p.getPropertyInt64("playback-time")
	if err != nil {
		return 0
	}
	return position * 1000
}

// MaxProgress reads the track duration. Live streams have none, which mpv
// reports as an error; that maps to 0 here and hides the progress display.
func (p *Player) MaxProgress() int64 {
	duration, err := p.getPropertyInt64("duration")
	if err != nil {
		return 0
	}
	return duration * 1000
}

// RegisterObserver subscribes o and delivers one OnSourceChanged so a
// freshly attached controller renders the current state immediately.
func (p *Player) RegisterObserver(o metasync.PlaybackObserver) {
	p.observers = append(p.observers, o)
	o.OnSourceChanged()
}

func (p *Player) UnregisterObserver(o metasync.PlaybackObserver) {
	for i, reg := range p.observers {
		if reg == o {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			return
		}
	}
}

func (p *Player) notifyState() {
	for _, o := range p.observers {
		o.OnPlaybackStateChanged()
	}
}

func (p *Player) notifySource() {
	for _, o := range p.observers {
		o.OnSourceChanged()
	}
}

func (p *Player) notifyMetadata() {
	for _, o := range p.observers {
		o.OnMetadataChanged()
	}
}

// PlayPause toggles the pause flag of the loaded track.
func (p *Player) PlayPause() error {
	idle, err := p.getPropertyBool("idle-active")
	if err != nil {
		return err
	}
	if idle {
		return errors.New("nothing loaded")
	}
	return p.instance.Command([]string{"cycle", "pause"})
}

// NextTrack is unsupported: this backend plays a single URI.
func (p *Player) NextTrack() error {
	return errors.New("single-track playback")
}

// PreviousTrack is unsupported: this backend plays a single URI.
func (p *Player) PreviousTrack() error {
	return errors.New("single-track playback")
}

func (p *Player) getPropertyInt64(name string) (int64, error) {
	value, err := p.instance.GetProperty(name, mpv.FORMAT_INT64)
	if err != nil {
		return 0, err
	} else if value == nil {
		return 0, errors.New("nil value")
	}
	return value.(int64), err
}

func (p *Player) getPropertyBool(name string) (bool, error) {
	value, err := p.instance.GetProperty(name, mpv.FORMAT_FLAG)
	if err != nil {
		return false, err
	} else if value == nil {
		return false, errors.New("nil value")
	}
	return value.(bool), err
}

func (p *Player) getPropertyString(name string) (string, error) {
	value, err := p.instance.GetProperty(name, mpv.FORMAT_STRING)
	if err != nil {
		return "", err
	} else if value == nil {
		return "", errors.New("nil value")
	}
	return value.(string), err
}
