// Copyright 2024 The nowbar Authors
// SPDX-License-Identifier: GPL-3.0-only

package metasync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"nowbar/logger"
)

type fakeText struct {
	text     string
	visible  bool
	setCalls int
}

func (f *fakeText) SetText(s string)  { f.text = s; f.setCalls++ }
func (f *fakeText) SetVisible(v bool) { f.visible = v }

type fakeRange struct {
	max, value int
	visible    bool
}

func (f *fakeRange) SetMax(m int)      { f.max = m }
func (f *fakeRange) SetValue(v int)    { f.value = v }
func (f *fakeRange) SetVisible(v bool) { f.visible = v }

type fakeArtwork struct {
	refs []string
}

func (f *fakeArtwork) RenderArtwork(ref string) { f.refs = append(f.refs, ref) }

type fakeModel struct {
	meta      *Metadata
	playing   bool
	progress  int64
	duration  int64
	observers []PlaybackObserver
}

func (m *fakeModel) Metadata() (Metadata, bool) {
	if m.meta == nil {
		return Metadata{}, false
	}
	return *m.meta, true
}

func (m *fakeModel) IsPlaying() bool    { return m.playing }
func (m *fakeModel) Progress() int64    { return m.progress }
func (m *fakeModel) MaxProgress() int64 { return m.duration }

func (m *fakeModel) RegisterObserver(o PlaybackObserver) {
	m.observers = append(m.observers, o)
}

func (m *fakeModel) UnregisterObserver(o PlaybackObserver) {
	for i, reg := range m.observers {
		if reg == o {
			m.observers = append(m.observers[:i], m.observers[i+1:]...)
			return
		}
	}
}

func (m *fakeModel) notifyState() {
	for _, o := range m.observers {
		o.OnPlaybackStateChanged()
	}
}

func (m *fakeModel) notifySource() {
	for _, o := range m.observers {
		o.OnSourceChanged()
	}
}

func (m *fakeModel) notifyMetadata() {
	for _, o := range m.observers {
		o.OnMetadataChanged()
	}
}

type scheduledTask struct {
	fn        func()
	delay     time.Duration
	cancelled bool
}

// manualScheduler queues tasks and fires them only when the test says so.
type manualScheduler struct {
	tasks []*scheduledTask
}

func (s *manualScheduler) ScheduleAfter(d time.Duration, fn func()) func() {
	t := &scheduledTask{fn: fn, delay: d}
	s.tasks = append(s.tasks, t)
	return func() { t.cancelled = true }
}

func (s *manualScheduler) pending() int {
	n := 0
	for _, t := range s.tasks {
		if !t.cancelled && t.fn != nil {
			n++
		}
	}
	return n
}

// fire runs the oldest pending task, clearing it first so a reschedule
// shows up as a new entry. Cancelled tasks are skipped, mirroring a timer
// that was stopped before firing.
func (s *manualScheduler) fire() bool {
	for _, t := range s.tasks {
		if t.cancelled || t.fn == nil {
			continue
		}
		fn := t.fn
		t.fn = nil
		fn()
		return true
	}
	return false
}

// fireStale runs the oldest task even if it was cancelled, emulating a
// tick that was already queued on the event thread when cancel ran.
func (s *manualScheduler) fireStale() bool {
	for _, t := range s.tasks {
		if t.fn == nil {
			continue
		}
		fn := t.fn
		t.fn = nil
		fn()
		return true
	}
	return false
}

type harness struct {
	title     *fakeText
	subtitle  *fakeText
	timeText  *fakeText
	progress  *fakeRange
	artwork   *fakeArtwork
	scheduler *manualScheduler
	ctrl      *Controller
}

func newHarness() *harness {
	h := &harness{
		title:     &fakeText{visible: true},
		subtitle:  &fakeText{visible: true},
		timeText:  &fakeText{visible: true},
		progress:  &fakeRange{visible: true},
		artwork:   &fakeArtwork{},
		scheduler: &manualScheduler{},
	}
	h.ctrl = NewController(h.title, h.subtitle, h.timeText, h.progress,
		h.artwork, h.scheduler, logger.Init())
	return h
}

func playingModel() *fakeModel {
	return &fakeModel{
		meta:     &Metadata{Title: "Blue in Green", Subtitle: "Miles Davis", ArtworkRef: "file:///art/kob.png"},
		playing:  true,
		progress: 5000,
		duration: 180000,
	}
}

func TestAttachSubscribesAtMostOneModel(t *testing.T) {
	h := newHarness()
	a := playingModel()
	b := playingModel()

	h.ctrl.Attach(a)
	assert.Len(t, a.observers, 1)

	h.ctrl.Attach(b)
	assert.Empty(t, a.observers, "previous model must be unsubscribed first")
	assert.Len(t, b.observers, 1)

	h.ctrl.Attach(nil)
	assert.Empty(t, b.observers)
}

func TestDetachHidesProgressDisplay(t *testing.T) {
	h := newHarness()
	m := playingModel()

	h.ctrl.Attach(m)
	m.notifyState()
	assert.True(t, h.timeText.visible)
	assert.True(t, h.progress.visible)

	h.ctrl.Attach(nil)
	assert.False(t, h.timeText.visible)
	assert.False(t, h.progress.visible)
}

func TestUnknownDurationHidesProgressDisplay(t *testing.T) {
	h := newHarness()
	m := playingModel()
	m.duration = 0
	m.progress = 50

	h.ctrl.Attach(m)
	m.notifyState()

	assert.False(t, h.timeText.visible)
	assert.False(t, h.progress.visible)
}

func TestStateChangeProjectsProgress(t *testing.T) {
	h := newHarness()
	m := playingModel()

	h.ctrl.Attach(m)
	m.notifyState()

	assert.Equal(t, "0:05 / 3:00", h.timeText.text)
	assert.Equal(t, 180000, h.progress.max)
	assert.Equal(t, 5000, h.progress.value)
	assert.True(t, h.timeText.visible)
	assert.True(t, h.progress.visible)
	assert.Equal(t, 1, h.scheduler.pending(), "progress loop must be scheduled")
}

func TestTimeTextFormatting(t *testing.T) {
	h := newHarness()
	m := playingModel()
	m.progress = 7000
	m.duration = 225000

	h.ctrl.Attach(m)
	m.notifyState()

	assert.Equal(t, "0:07 / 3:45", h.timeText.text)
}

func TestMetadataRenderSkippedWhenUnchanged(t *testing.T) {
	h := newHarness()
	m := playingModel()

	h.ctrl.Attach(m)
	m.notifyMetadata()
	assert.Equal(t, "Blue in Green", h.title.text)
	assert.Equal(t, "Miles Davis", h.subtitle.text)
	assert.Len(t, h.artwork.refs, 1)

	// Same value again: no further display writes.
	m.meta = &Metadata{Title: "Blue in Green", Subtitle: "Miles Davis", ArtworkRef: "file:///art/kob.png"}
	m.notifyMetadata()
	assert.Equal(t, 1, h.title.setCalls)
	assert.Equal(t, 1, h.subtitle.setCalls)
	assert.Len(t, h.artwork.refs, 1)

	// A different value renders again.
	m.meta = &Metadata{Title: "So What", Subtitle: "Miles Davis", ArtworkRef: "file:///art/kob.png"}
	m.notifyMetadata()
	assert.Equal(t, "So What", h.title.text)
	assert.Equal(t, 2, h.title.setCalls)
}

func TestSourceChangeForcesMetadataRender(t *testing.T) {
	h := newHarness()
	m := playingModel()

	h.ctrl.Attach(m)
	m.notifyMetadata()
	assert.Equal(t, 1, h.title.setCalls)

	// Value-equal metadata, but the source changed: render anyway.
	m.notifySource()
	assert.Equal(t, 2, h.title.setCalls)
	assert.Len(t, h.artwork.refs, 2)
}

func TestMetadataClearedWhenModelHasNone(t *testing.T) {
	h := newHarness()
	m := playingModel()

	h.ctrl.Attach(m)
	m.notifyMetadata()

	m.meta = nil
	m.notifyMetadata()
	assert.Equal(t, "", h.title.text)
	assert.Equal(t, "", h.subtitle.text)
	assert.Equal(t, "", h.artwork.refs[len(h.artwork.refs)-1])
}

func TestOptionalTargetsMayBeAbsent(t *testing.T) {
	scheduler := &manualScheduler{}
	ctrl := NewController(&fakeText{}, &fakeText{}, nil, &fakeRange{},
		nil, scheduler, logger.Init())
	m := playingModel()

	ctrl.Attach(m)
	m.notifySource()
	m.notifyState()
	m.notifyMetadata()
	ctrl.Attach(nil)
	// No panic is the assertion here.
}

func TestLoopStartIsIdempotent(t *testing.T) {
	h := newHarness()
	m := playingModel()

	h.ctrl.Attach(m)
	m.notifyState()
	m.notifyState()
	m.notifyState()

	assert.Equal(t, 1, h.scheduler.pending())
}

func TestLoopReschedulesWhilePlaying(t *testing.T) {
	h := newHarness()
	m := playingModel()

	h.ctrl.Attach(m)
	m.notifyState()

	m.progress = 6000
	assert.True(t, h.scheduler.fire())
	assert.Equal(t, "0:06 / 3:00", h.timeText.text)
	assert.Equal(t, 6000, h.progress.value)
	assert.Equal(t, 1, h.scheduler.pending(), "loop must reschedule itself")
}

func TestLoopStopsWhenPlaybackPauses(t *testing.T) {
	h := newHarness()
	m := playingModel()

	h.ctrl.Attach(m)
	m.notifyState()
	assert.Equal(t, 1, h.scheduler.pending())

	m.playing = false
	m.notifyState()
	assert.Equal(t, 0, h.scheduler.pending(), "pending tick must be cancelled")
}

func TestLoopTerminatesOnSelfCheckFailure(t *testing.T) {
	h := newHarness()
	m := playingModel()

	h.ctrl.Attach(m)
	m.notifyState()

	// Playback stops without any notification reaching the controller;
	// the next tick notices and terminates without rescheduling.
	m.playing = false
	assert.True(t, h.scheduler.fire())
	assert.Equal(t, 0, h.scheduler.pending())
}

func TestLoopStopsOnDetach(t *testing.T) {
	h := newHarness()
	m := playingModel()

	h.ctrl.Attach(m)
	m.notifyState()
	assert.Equal(t, 1, h.scheduler.pending())

	h.ctrl.Attach(nil)
	assert.Equal(t, 0, h.scheduler.pending())
}

func TestStaleTickAfterDetachIsNoOp(t *testing.T) {
	h := newHarness()
	m := playingModel()

	h.ctrl.Attach(m)
	m.notifyState()
	h.ctrl.Attach(nil)

	progressWrites := h.timeText.setCalls
	// The tick was cancelled but had already been queued; firing it must
	// neither write to the display nor reschedule.
	assert.True(t, h.scheduler.fireStale())
	assert.Equal(t, progressWrites, h.timeText.setCalls)
	assert.Equal(t, 0, h.scheduler.pending())
}

func TestNoTicksBeforeAttach(t *testing.T) {
	h := newHarness()
	assert.Equal(t, 0, h.scheduler.pending())
	assert.False(t, h.scheduler.fire())
}

func TestAttachDoesNotRenderWithoutNotification(t *testing.T) {
	h := newHarness()
	m := playingModel()

	h.ctrl.Attach(m)
	assert.Equal(t, 0, h.title.setCalls)
	assert.Equal(t, 0, h.timeText.setCalls)
	assert.Equal(t, 0, h.scheduler.pending())
}

func TestReattachRestartsLoop(t *testing.T) {
	h := newHarness()
	a := playingModel()
	b := playingModel()
	b.progress = 65000
	b.duration = 723000

	h.ctrl.Attach(a)
	a.notifyState()
	h.ctrl.Attach(b)
	b.notifyState()

	assert.Equal(t, "1:05 / 12:03", h.timeText.text)
	assert.Equal(t, 1, h.scheduler.pending())
}
