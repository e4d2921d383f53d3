// Copyright 2024 The nowbar Authors
// SPDX-License-Identifier: GPL-3.0-only

package mpdplayer

import (
	"fmt"
	"sync"
	"time"

	"github.com/fhs/gompd/v2/mpd"

	"nowbar/logger"
	"nowbar/metasync"
)

// Player is a playback model backed by an MPD server. Change
// notifications come from MPD's idle protocol (a watcher on the "player"
// subsystem); position and duration are read with a fresh status query on
// every call.
//
// Observer notifications are handed to the dispatch function, which must
// execute them on the UI event thread.
type Player struct {
	addr     string
	password string
	musicDir string
	dispatch func(func())
	logger   logger.LoggerInterface

	mu      sync.Mutex // guards client, which is not goroutine-safe
	client  *mpd.Client
	watcher *mpd.Watcher

	// The fields below are only touched on the event thread.
	observers []metasync.PlaybackObserver
	meta      metasync.Metadata
	hasMeta   bool
	playing   bool
	songID    string
}

// NewPlayer connects to the MPD server at addr and starts watching the
// player subsystem. musicDir, when non-empty, is the local path of the
// server's music directory and enables cover art lookup.
func NewPlayer(addr, password, musicDir string, dispatch func(func()), log logger.LoggerInterface) (*Player, error) {
	p := &Player{
		addr:     addr,
		password: password,
		musicDir: musicDir,
		dispatch: dispatch,
		logger:   log,
	}

	if err := p.connect(); err != nil {
		return nil, err
	}

	status, song, err := p.querySnapshot()
	if err != nil {
		p.logger.PrintError("mpd initial status", err)
	} else {
		p.meta, p.hasMeta = songMetadata(song, p.musicDir)
		p.playing = isPlayingState(status["state"])
		p.songID = song["Id"]
	}

	watcher, err := mpd.NewWatcher("tcp", addr, password, "player")
	if err != nil {
		p.closeClient()
		return nil, fmt.Errorf("creating MPD watcher: %w", err)
	}
	p.watcher = watcher
	go p.watchLoop()

	return p, nil
}

func (p *Player) connect() error {
	client, err := mpd.Dial("tcp", p.addr)
	if err != nil {
		return fmt.Errorf("connecting to MPD at %s: %w", p.addr, err)
	}
	if p.password != "" {
		if err := client.Command("password %s", p.password).OK(); err != nil {
			client.Close()
			return fmt.Errorf("MPD authentication: %w", err)
		}
	}
	p.client = client
	return nil
}

// ensureConnected pings the server and reconnects when the connection was
// lost. Callers must hold p.mu.
func (p *Player) ensureConnected() error {
	if p.client == nil {
		return p.connect()
	}
	if err := p.client.Ping(); err != nil {
		p.logger.Printf("mpd: connection lost, reconnecting: %s", err)
		p.client.Close()
		p.client = nil
		return p.connect()
	}
	return nil
}

func (p *Player) closeClient() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
}

// Close shuts down the watcher and the client connection.
func (p *Player) Close() {
	if p.watcher != nil {
		if err := p.watcher.Close(); err != nil {
			p.logger.PrintError("mpd watcher Close", err)
		}
	}
	p.closeClient()
}

func (p *Player) status() (mpd.Attrs, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureConnected(); err != nil {
		return nil, err
	}
	return p.client.Status()
}

func (p *Player) querySnapshot() (status, song mpd.Attrs, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err = p.ensureConnected(); err != nil {
		return
	}
	if status, err = p.client.Status(); err != nil {
		return
	}
	song, err = p.client.CurrentSong()
	return
}

// watchLoop turns MPD idle events into observer notifications. A "player"
// event fires on play/pause/stop and on track changes, so both state and
// metadata are refreshed for every event and the controller's own change
// detection sorts out what actually needs re-rendering.
func (p *Player) watchLoop() {
	for {
		select {
		case subsystem, ok := <-p.watcher.Event:
			if !ok {
				return
			}
			if subsystem != "player" {
				continue
			}
			status, song, err := p.querySnapshot()
			if err != nil {
				p.logger.PrintError("mpd status after idle", err)
				continue
			}

			meta, hasMeta := songMetadata(song, p.musicDir)
			playing := isPlayingState(status["state"])
			songID := song["Id"]

			p.dispatch(func() {
				songChanged := songID != p.songID
				p.meta, p.hasMeta, p.playing, p.songID = meta, hasMeta, playing, songID
				if songChanged {
					p.notifyMetadata()
				}
				p.notifyState()
			})

		case err, ok := <-p.watcher.Error:
			if !ok {
				return
			}
			p.logger.PrintError("mpd watcher", err)
			time.Sleep(time.Second)
		}
	}
}

func (p *Player) Metadata() (metasync.Metadata, bool) {
	return p.meta, p.hasMeta
}

func (p *Player) IsPlaying() bool {
	return p.playing
}

// Progress queries the server for the current elapsed time. MPD reports
// fractional seconds; the result is truncated to milliseconds.
func (p *Player) Progress() int64 {
	status, err := p.status()
	if err != nil {
		p.logger.PrintError("mpd Progress", err)
		return 0
	}
	return secondsToMillis(status["elapsed"])
}

// MaxProgress queries the server for the current track duration. Streams
// without a known duration yield 0.
func (p *Player) MaxProgress() int64 {
	status, err := p.status()
	if err != nil {
		p.logger.PrintError("mpd MaxProgress", err)
		return 0
	}
	return secondsToMillis(status["duration"])
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

func (p *Player) notifyMetadata() {
	for _, o := range p.observers {
		o.OnMetadataChanged()
	}
}

// PlayPause resumes, pauses or starts playback depending on the server
// state.
func (p *Player) PlayPause() error {
	status, err := p.status()
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureConnected(); err != nil {
		return err
	}
	switch status["state"] {
	case "play":
		return p.client.Pause(true)
	case "pause":
		return p.client.Pause(false)
	default:
		return p.client.Play(-1)
	}
}

func (p *Player) NextTrack() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureConnected(); err != nil {
		return err
	}
	return p.client.Next()
}

func (p *Player) PreviousTrack() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureConnected(); err != nil {
		return err
	}
	return p.client.Previous()
}
