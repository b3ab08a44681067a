package gesture

import (
	"math"

	"github.com/framecut/framecut/internal/timeline"
)

// MoveCandidate is the preview position of a clip being moved.
type MoveCandidate struct {
	Clip timeline.Clip
	// Snap is the single active snap target, nil when unsnapped.
	Snap *timeline.SnapTarget
}

// Move drags a clip along the timeline and between tracks.
type Move struct {
	drag

	capture   Capture
	base      timeline.Clip
	switched  bool
	candidate MoveCandidate
}

// NewMove creates an idle move machine.
func NewMove(capture Capture) *Move {
	return &Move{capture: capture}
}

// Begin starts moving base.
func (m *Move) Begin(base timeline.Clip, opts Options) error {
	if err := m.begin(m.capture, opts); err != nil {
		return err
	}
	m.base = base
	m.switched = false
	m.candidate = MoveCandidate{Clip: base}
	return nil
}

// Update recomputes the candidate for a pointer displacement of (dx, dy)
// pixels since Begin.
//
// Track switching is a two-state hysteresis: the clip jumps to the other track
// once |dy| exceeds the switch threshold and only returns when |dy| falls
// below half of it.
func (m *Move) Update(dx, dy float64, tl timeline.Timeline) (MoveCandidate, error) {
	if !m.Active() {
		return MoveCandidate{}, ErrNotDragging
	}

	ady := math.Abs(dy)
	switch {
	case !m.switched && ady > m.opts.TrackSwitchPx:
		m.switched = true
	case m.switched && ady < m.opts.TrackSwitchPx/2:
		m.switched = false
	}

	track := m.base.Track
	if m.switched {
		track = track.Other()
	}

	start := math.Max(0, m.base.StartTime+dx/m.opts.PixelsPerSecond)
	var target *timeline.SnapTarget
	if m.opts.SnapThreshold > 0 {
		start, target = timeline.SnapOnTrack(tl, track, m.base.ID, start, m.opts.SnapThreshold)
	}

	c := m.base
	c.Track = track
	c.StartTime = start
	m.candidate = MoveCandidate{Clip: c, Snap: target}
	return m.candidate, nil
}

// End finishes the drag and returns the final candidate.
func (m *Move) End() (MoveCandidate, error) {
	if !m.Active() {
		return MoveCandidate{}, ErrNotDragging
	}
	res := m.candidate
	m.reset()
	return res, nil
}

// Cancel abandons the drag. It is safe to call when idle.
func (m *Move) Cancel() {
	m.reset()
}

func (m *Move) reset() {
	m.finish()
	m.base = timeline.Clip{}
	m.switched = false
	m.candidate = MoveCandidate{}
}

func (m *Move) Candidate() (MoveCandidate, bool) {
	return m.candidate, m.Active()
}
