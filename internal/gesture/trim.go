package gesture

import (
	"math"

	"github.com/framecut/framecut/internal/timeline"
)

// Trim drags one edge of a clip.
type Trim struct {
	drag

	capture     Capture
	edge        timeline.Edge
	base        timeline.Clip
	srcDuration float64
	candidate   timeline.TrimResult
	snap        *timeline.SnapTarget
}

// NewTrim creates an idle trim machine.
func NewTrim(capture Capture) *Trim {
	return &Trim{capture: capture}
}

// Begin starts dragging edge of base. srcDuration bounds the end handle.
func (t *Trim) Begin(base timeline.Clip, edge timeline.Edge, srcDuration float64, opts Options) error {
	if err := t.begin(t.capture, opts); err != nil {
		return err
	}
	t.edge = edge
	t.base = base
	t.srcDuration = srcDuration
	t.candidate = timeline.Trim(base, edge, 0, srcDuration)
	t.snap = nil
	return nil
}

// Update recomputes the candidate for a horizontal pointer displacement of
// dx pixels since Begin. tl supplies snap targets on the clip's track.
func (t *Trim) Update(dx float64, tl timeline.Timeline) (timeline.TrimResult, error) {
	if !t.Active() {
		return timeline.TrimResult{}, ErrNotDragging
	}

	dt := dx / t.opts.PixelsPerSecond
	t.snap = nil

	if t.opts.SnapThreshold > 0 {
		edgeTime := t.base.StartTime
		if t.edge == timeline.EdgeEnd {
			edgeTime = t.base.End()
		}
		snapped, target := timeline.SnapOnTrack(tl, t.base.Track, t.base.ID, edgeTime+dt, t.opts.SnapThreshold)
		if target != nil {
			dt = snapped - edgeTime
		}
		res := timeline.Trim(t.base, t.edge, dt, t.srcDuration)
		if target != nil && math.Abs(t.edgeOf(res.Clip)-target.Time) < 1e-9 {
			t.snap = target
		}
		t.candidate = res
		return res, nil
	}

	t.candidate = timeline.Trim(t.base, t.edge, dt, t.srcDuration)
	return t.candidate, nil
}

func (t *Trim) edgeOf(c timeline.Clip) float64 {
	if t.edge == timeline.EdgeEnd {
		return c.End()
	}
	return c.StartTime
}

// End finishes the drag and returns the clip to commit.
func (t *Trim) End() (timeline.TrimResult, error) {
	if !t.Active() {
		return timeline.TrimResult{}, ErrNotDragging
	}
	res := t.candidate
	t.reset()
	return res, nil
}

// Cancel abandons the drag. It is safe to call when idle.
func (t *Trim) Cancel() {
	t.reset()
}

func (t *Trim) reset() {
	t.finish()
	t.base = timeline.Clip{}
	t.candidate = timeline.TrimResult{}
	t.snap = nil
}

// Edge is the handle being dragged.
func (t *Trim) Edge() timeline.Edge { return t.edge }

// Candidate is the current preview result.
func (t *Trim) Candidate() (timeline.TrimResult, bool) {
	return t.candidate, t.Active()
}

// SnapTarget is the target the dragged edge is currently aligned to.
func (t *Trim) SnapTarget() *timeline.SnapTarget { return t.snap }
