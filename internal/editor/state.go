package editor

import (
	"github.com/framecut/framecut/internal/history"
	"github.com/framecut/framecut/internal/selection"
	"github.com/framecut/framecut/internal/timeline"
)

// ChangeKind tags what a published change touched.
type ChangeKind string

const (
	ChangeTimeline  ChangeKind = "timeline"
	ChangePlayhead  ChangeKind = "playhead"
	ChangeSelection ChangeKind = "selection"
	ChangeGesture   ChangeKind = "gesture"
	ChangeHistory   ChangeKind = "history"
	ChangeTransport ChangeKind = "transport"
)

// Change is delivered to subscribers after every state transition.
type Change struct {
	Kind  ChangeKind `json:"kind"`
	State State      `json:"state"`
}

// GestureKind names the drag in progress.
type GestureKind string

const (
	GestureNone GestureKind = ""
	GestureTrim GestureKind = "trim"
	GestureMove GestureKind = "move"
)

// GesturePreview is the uncommitted candidate shown while dragging.
type GesturePreview struct {
	Kind GestureKind   `json:"kind"`
	Clip timeline.Clip `json:"clip"`
	// Edge is set for trims.
	Edge string `json:"edge,omitempty"`
	// SourceSeek is the source time the preview should show during a trim.
	SourceSeek float64              `json:"source_seek"`
	Snap       *timeline.SnapTarget `json:"snap,omitempty"`
	// TotalDuration is the timeline duration with the candidate applied, so
	// the ruler covers a playhead following an extended edge.
	TotalDuration float64 `json:"total_duration"`
}

// State is an immutable copy of the session.
type State struct {
	Version     uint64                `json:"version"`
	Timeline    timeline.Timeline     `json:"timeline"`
	Playhead    float64               `json:"playhead"`
	Playing     bool                  `json:"playing"`
	Selection   selection.State       `json:"selection"`
	Affordances selection.Affordances `json:"affordances"`
	CanUndo     bool                  `json:"can_undo"`
	CanRedo     bool                  `json:"can_redo"`
	NextUndo    *history.EntryInfo    `json:"next_undo,omitempty"`
	NextRedo    *history.EntryInfo    `json:"next_redo,omitempty"`
	Gesture     *GesturePreview       `json:"gesture,omitempty"`
}

// DisplayClips returns the clips as they should be drawn: the committed
// timeline with the dragged clip replaced by its preview candidate.
func (s State) DisplayClips() []timeline.Clip {
	clips := make([]timeline.Clip, len(s.Timeline.Clips))
	copy(clips, s.Timeline.Clips)
	if s.Gesture == nil {
		return clips
	}
	for i := range clips {
		if clips[i].ID == s.Gesture.Clip.ID {
			clips[i] = s.Gesture.Clip
		}
	}
	return clips
}
