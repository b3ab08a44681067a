// Package selection tracks which clip the user has selected. A timeline clip
// and a library clip can never be selected at the same time.
package selection

import "github.com/framecut/framecut/internal/timeline"

// Kind says what, if anything, is selected.
type Kind int

const (
	None Kind = iota
	TimelineClip
	LibraryClip
)

func (k Kind) String() string {
	switch k {
	case TimelineClip:
		return "timeline"
	case LibraryClip:
		return "library"
	default:
		return "none"
	}
}

// Selection is a value type; the zero value selects nothing.
type Selection struct {
	kind Kind
	id   string
}

// Timeline selects a timeline placement, clearing any library selection.
func Timeline(clipID string) Selection {
	if clipID == "" {
		return Selection{}
	}
	return Selection{kind: TimelineClip, id: clipID}
}

// Library selects an imported source clip, clearing any timeline selection.
func Library(sourceID string) Selection {
	if sourceID == "" {
		return Selection{}
	}
	return Selection{kind: LibraryClip, id: sourceID}
}

func (s Selection) Kind() Kind { return s.kind }

func (s Selection) IsEmpty() bool { return s.kind == None }

// TimelineClipID returns the selected placement id, or "".
func (s Selection) TimelineClipID() string {
	if s.kind != TimelineClip {
		return ""
	}
	return s.id
}

// LibraryClipID returns the selected source clip id, or "".
func (s Selection) LibraryClipID() string {
	if s.kind != LibraryClip {
		return ""
	}
	return s.id
}

// Prune clears a timeline selection whose clip no longer exists in tl.
func (s Selection) Prune(tl timeline.Timeline) Selection {
	if s.kind != TimelineClip {
		return s
	}
	if _, _, ok := tl.Find(s.id); !ok {
		return Selection{}
	}
	return s
}

// Affordances lists which edit actions are currently available.
type Affordances struct {
	CanSplit  bool `json:"can_split"`
	CanDelete bool `json:"can_delete"`
	CanTrim   bool `json:"can_trim"`
	CanMove   bool `json:"can_move"`
}

// Affordances evaluates the selection against tl and the playhead.
func (s Selection) Affordances(tl timeline.Timeline, playhead float64) Affordances {
	c, _, ok := tl.Find(s.TimelineClipID())
	if !ok {
		return Affordances{}
	}
	return Affordances{
		CanSplit:  timeline.CanSplit(c, playhead),
		CanDelete: true,
		CanTrim:   true,
		CanMove:   true,
	}
}

// State is the serialisable form of a Selection.
type State struct {
	Kind           string `json:"kind"`
	TimelineClipID string `json:"timeline_clip_id,omitempty"`
	LibraryClipID  string `json:"library_clip_id,omitempty"`
}

func (s Selection) State() State {
	return State{
		Kind:           s.kind.String(),
		TimelineClipID: s.TimelineClipID(),
		LibraryClipID:  s.LibraryClipID(),
	}
}
