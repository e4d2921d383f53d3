// Copyright 2024 The nowbar Authors
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// ProgressBar is a one-line playback position bar. It implements the
// sync controller's range target, so max and value are track positions
// in milliseconds.
type ProgressBar struct {
	*tview.Box

	max     int
	value   int
	visible bool

	filledStyle tcell.Style
	emptyStyle  tcell.Style
}

func NewProgressBar() *ProgressBar {
	return &ProgressBar{
		Box:         tview.NewBox(),
		visible:     true,
		filledStyle: tcell.StyleDefault.Foreground(tcell.ColorGreen),
		emptyStyle:  tcell.StyleDefault.Foreground(tcell.ColorGray),
	}
}

func (p *ProgressBar) SetMax(max int) {
	p.max = max
}

func (p *ProgressBar) SetValue(value int) {
	p.value = value
}

func (p *ProgressBar) SetVisible(visible bool) {
	p.visible = visible
}

func (p *ProgressBar) Draw(screen tcell.Screen) {
	p.Box.DrawForSubclass(screen, p)
	if !p.visible || p.max <= 0 {
		return
	}

	x, y, width, height := p.GetInnerRect()
	if width <= 0 || height <= 0 {
		return
	}

	filled := p.value * width / p.max
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	for i := 0; i < width; i++ {
		if i < filled {
			screen.SetContent(x+i, y, '█', nil, p.filledStyle)
		} else {
			screen.SetContent(x+i, y, '─', nil, p.emptyStyle)
		}
	}
}
