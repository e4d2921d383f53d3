// Copyright 2024 The nowbar Authors
// SPDX-License-Identifier: GPL-3.0-only

package mprisplayer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"

	"nowbar/logger"
	"nowbar/metasync"
)

const (
	mprisPrefix     = "org.mpris.MediaPlayer2."
	mprisPath       = "/org/mpris/MediaPlayer2"
	playerInterface = "org.mpris.MediaPlayer2.Player"
	propsInterface  = "org.freedesktop.DBus.Properties"
)

// Player is a playback model backed by an MPRIS2 player on the session
// bus. It mirrors the tracked player's PlaybackStatus and Metadata
// properties and polls Position on demand.
//
// Observer notifications are handed to the dispatch function, which must
// execute them on the UI event thread.
type Player struct {
	conn     *dbus.Conn
	busName  string
	obj      dbus.BusObject
	dispatch func(func())
	logger   logger.LoggerInterface

	signals chan *dbus.Signal

	// The fields below are only touched on the event thread.
	observers []metasync.PlaybackObserver
	meta      metasync.Metadata
	hasMeta   bool
	playing   bool
	lengthMS  int64
}

// NewPlayer connects to the session bus and starts tracking an MPRIS
// player. playerName may be a short name ("mpd", "spotify"), a full bus
// name, or empty to pick the first MPRIS player found on the bus.
func NewPlayer(playerName string, dispatch func(func()), log logger.LoggerInterface) (*Player, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to session bus: %w", err)
	}

	busName, err := resolveBusName(conn, playerName)
	if err != nil {
		conn.Close()
		return nil, err
	}

	p := &Player{
		conn:     conn,
		busName:  busName,
		obj:      conn.Object(busName, mprisPath),
		dispatch: dispatch,
		logger:   log,
		signals:  make(chan *dbus.Signal, 16),
	}

	p.meta, p.hasMeta, p.playing, p.lengthMS = p.fetchState()

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(propsInterface),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchObjectPath(mprisPath),
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribing to PropertiesChanged: %w", err)
	}
	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.DBus"),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg(0, busName),
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribing to NameOwnerChanged: %w", err)
	}
	conn.Signal(p.signals)
	go p.signalLoop()

	return p, nil
}

// resolveBusName expands a short player name and verifies the player is
// present on the bus. An empty name picks the first MPRIS player found.
func resolveBusName(conn *dbus.Conn, playerName string) (string, error) {
	var names []string
	if err := conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		return "", fmt.Errorf("listing bus names: %w", err)
	}

	if playerName == "" {
		for _, name := range names {
			if strings.HasPrefix(name, mprisPrefix) {
				return name, nil
			}
		}
		return "", errors.New("no MPRIS player found on the session bus")
	}

	want := playerName
	if !strings.HasPrefix(want, mprisPrefix) {
		want = mprisPrefix + want
	}
	for _, name := range names {
		if name == want {
			return name, nil
		}
	}
	// The player may appear later; track the name anyway.
	return want, nil
}

// Close detaches from the session bus. No observer notifications are
// delivered afterwards.
func (p *Player) Close() {
	if err := p.conn.Close(); err != nil {
		p.logger.PrintError("mpris Close", err)
	}
}

func (p *Player) signalLoop() {
	for sig := range p.signals {
		switch sig.Name {
		case propsInterface + ".PropertiesChanged":
			p.handlePropertiesChanged(sig)
		case "org.freedesktop.DBus.NameOwnerChanged":
			p.handleOwnerChanged(sig)
		}
	}
}

func (p *Player) handlePropertiesChanged(sig *dbus.Signal) {
	if len(sig.Body) < 2 {
		return
	}
	iface, ok := sig.Body[0].(string)
	if !ok || iface != playerInterface {
		return
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return
	}

	var (
		newMeta   metasync.Metadata
		newLength int64
		hasMeta   bool
		metaSeen  bool

		playing    bool
		statusSeen bool
	)
	if v, found := changed["Metadata"]; found {
		if raw, isMap := v.Value().(map[string]dbus.Variant); isMap {
			newMeta, newLength, hasMeta = parseMetadata(raw)
			metaSeen = true
		}
	}
	if v, found := changed["PlaybackStatus"]; found {
		if s, isStr := v.Value().(string); isStr {
			playing = s == "Playing"
			statusSeen = true
		}
	}
	if !metaSeen && !statusSeen {
		return
	}

	p.dispatch(func() {
		if metaSeen {
			p.meta, p.hasMeta, p.lengthMS = newMeta, hasMeta, newLength
			p.notifyMetadata()
		}
		if statusSeen {
			p.playing = playing
			p.notifyState()
		}
	})
}

// handleOwnerChanged fires when the tracked player appears, disappears or
// restarts. All three are a source change from the display's perspective.
func (p *Player) handleOwnerChanged(sig *dbus.Signal) {
	if len(sig.Body) < 3 {
		return
	}
	newOwner, _ := sig.Body[2].(string)

	if newOwner == "" {
		p.logger.Printf("mpris: player %s left the bus", p.busName)
		p.dispatch(func() {
			p.meta, p.hasMeta, p.playing, p.lengthMS = metasync.Metadata{}, false, false, 0
			p.notifySource()
		})
		return
	}

	meta, hasMeta, playing, length := p.fetchState()
	p.dispatch(func() {
		p.meta, p.hasMeta, p.playing, p.lengthMS = meta, hasMeta, playing, length
		p.notifySource()
	})
}

// fetchState reads the full player state from the bus. Failures degrade to
// an empty state; a player that is mid-restart answers later through
// PropertiesChanged anyway.
func (p *Player) fetchState() (meta metasync.Metadata, hasMeta, playing bool, lengthMS int64) {
	if v, err := p.obj.GetProperty(playerInterface + ".Metadata"); err == nil {
		if raw, ok := v.Value().(map[string]dbus.Variant); ok {
			meta, lengthMS, hasMeta = parseMetadata(raw)
		}
	} else {
		p.logger.PrintError("mpris Metadata", err)
	}
	if v, err := p.obj.GetProperty(playerInterface + ".PlaybackStatus"); err == nil {
		if s, ok := v.Value().(string); ok {
			playing = s == "Playing"
		}
	} else {
		p.logger.PrintError("mpris PlaybackStatus", err)
	}
	return
}

func (p *Player) Metadata() (metasync.Metadata, bool) {
	return p.meta, p.hasMeta
}

func (p *Player) IsPlaying() bool {
	return p.playing
}

// Progress polls the player's Position property. MPRIS emits no change
// signals for it, so every read goes to the bus.
func (p *Player) Progress() int64 {
	v, err := p.obj.GetProperty(playerInterface + ".Position")
	if err != nil {
		p.logger.PrintError("mpris Position", err)
		return 0
	}
	if us, ok := v.Value().(int64); ok {
		return us / 1000
	}
	return 0
}

func (p *Player) MaxProgress() int64 {
	return p.lengthMS
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

// PlayPause toggles playback on the tracked player.
func (p *Player) PlayPause() error {
	return p.obj.Call(playerInterface+".PlayPause", 0).Err
}

func (p *Player) NextTrack() error {
	return p.obj.Call(playerInterface+".Next", 0).Err
}

func (p *Player) PreviousTrack() error {
	return p.obj.Call(playerInterface+".Previous", 0).Err
}
