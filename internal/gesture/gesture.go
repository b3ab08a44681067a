// Package gesture implements the pointer-drag state machines used to trim and
// move timeline clips.
//
// Each machine is Idle until Begin captures a baseline clip, stays Dragging
// while Update computes preview candidates from the pointer displacement, and
// returns to Idle on End (commit) or Cancel. The committed timeline is never
// touched here: callers apply the candidate returned by End.
//
// Pointer capture is acquired on Begin and released exactly once on every
// exit path.
package gesture

import (
	"errors"
	"sync"
)

var (
	ErrNotDragging     = errors.New("no drag in progress")
	ErrAlreadyDragging = errors.New("drag already in progress")
)

const (
	DefaultPixelsPerSecond = 50.0
	DefaultSnapThreshold   = 0.3
	DefaultTrackSwitchPx   = 50.0
)

// State is the state of a drag machine.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Capture grabs the pointer for the duration of a drag.
type Capture interface {
	Acquire() (release func())
}

// NopCapture is a Capture for callers without a pointer device, such as the
// HTTP API and tests.
type NopCapture struct{}

func (NopCapture) Acquire() func() { return func() {} }

// CaptureFunc adapts a function to Capture.
type CaptureFunc func() func()

func (f CaptureFunc) Acquire() func() { return f() }

// Options controls how pointer pixels map to timeline edits.
type Options struct {
	PixelsPerSecond float64
	// SnapThreshold in seconds. Zero disables snapping.
	SnapThreshold float64
	// TrackSwitchPx is the vertical displacement that moves a clip to the
	// other track.
	TrackSwitchPx float64
}

// DefaultOptions returns the editor defaults.
func DefaultOptions() Options {
	return Options{
		PixelsPerSecond: DefaultPixelsPerSecond,
		SnapThreshold:   DefaultSnapThreshold,
		TrackSwitchPx:   DefaultTrackSwitchPx,
	}
}

func (o Options) withDefaults() Options {
	if o.PixelsPerSecond <= 0 {
		o.PixelsPerSecond = DefaultPixelsPerSecond
	}
	if o.TrackSwitchPx <= 0 {
		o.TrackSwitchPx = DefaultTrackSwitchPx
	}
	if o.SnapThreshold < 0 {
		o.SnapThreshold = 0
	}
	return o
}

// drag holds the state and capture release both machines share.
type drag struct {
	state   State
	opts    Options
	release func()
	once    *sync.Once
}

func (d *drag) begin(capture Capture, opts Options) error {
	if d.state == Dragging {
		return ErrAlreadyDragging
	}
	if capture == nil {
		capture = NopCapture{}
	}
	d.state = Dragging
	d.opts = opts.withDefaults()
	d.release = capture.Acquire()
	d.once = &sync.Once{}
	return nil
}

func (d *drag) finish() {
	if d.once != nil && d.release != nil {
		d.once.Do(d.release)
	}
	d.state = Idle
	d.release = nil
	d.once = nil
}

// State reports Idle or Dragging.
func (d *drag) State() State { return d.state }

// Active reports whether a drag is in progress.
func (d *drag) Active() bool { return d.state == Dragging }
