package playback

import (
	"github.com/framecut/framecut/internal/editor"
	"github.com/framecut/framecut/internal/timeline"
)

// PreviewMode says what the preview is showing and why.
type PreviewMode string

const (
	// PreviewEmpty: nothing on the timeline and nothing selected.
	PreviewEmpty PreviewMode = "empty"
	// PreviewTimeline: the Main clip under the playhead.
	PreviewTimeline PreviewMode = "timeline"
	// PreviewGap: the playhead sits where no playable Main clip is.
	PreviewGap PreviewMode = "gap"
	// PreviewSelectedClip: paused with a timeline clip selected away from the
	// playhead, or a trim in progress. Shows a frame of that clip.
	PreviewSelectedClip PreviewMode = "selected_clip"
	// PreviewLibraryClip: a library clip is selected and shown on its own.
	PreviewLibraryClip PreviewMode = "library_clip"
)

// Frame is what the preview should display for one tick.
type Frame struct {
	Mode               PreviewMode `json:"mode"`
	Playhead           float64     `json:"playhead"`
	Playing            bool        `json:"playing"`
	ActiveClipID       string      `json:"active_clip_id,omitempty"`
	ActiveClipSourceID string      `json:"active_clip_source_id,omitempty"`
	SourceSeekTime     float64     `json:"source_seek_time"`

	OverlayClipID       string   `json:"overlay_clip_id,omitempty"`
	OverlayClipSourceID string   `json:"overlay_clip_source_id,omitempty"`
	OverlaySeekTime     *float64 `json:"overlay_seek_time,omitempty"`
}

// ResolvePreview derives the preview frame from session state. loopPosition is
// the source time of a looping library clip, if any.
//
// Clips whose source is missing from registry are treated as absent.
func ResolvePreview(st editor.State, registry timeline.SourceRegistry, loopPosition float64) Frame {
	f := Frame{Playhead: st.Playhead, Playing: st.Playing}

	playable := func(c timeline.Clip) bool {
		_, ok := registry.Lookup(c.SourceID)
		return ok
	}

	if g := st.Gesture; g != nil && g.Kind == editor.GestureTrim && playable(g.Clip) {
		f.Mode = PreviewSelectedClip
		f.ActiveClipID = g.Clip.ID
		f.ActiveClipSourceID = g.Clip.SourceID
		f.SourceSeekTime = g.SourceSeek
		return f
	}

	if lib := st.Selection.LibraryClipID; lib != "" && !st.Playing {
		if _, ok := registry.Lookup(lib); ok {
			f.Mode = PreviewLibraryClip
			f.ActiveClipSourceID = lib
			f.SourceSeekTime = loopPosition
			return f
		}
	}

	tl := timeline.Timeline{Clips: st.DisplayClips(), TotalDuration: st.Timeline.TotalDuration}
	if tl.IsEmpty() {
		f.Mode = PreviewEmpty
		return f
	}

	if id := st.Selection.TimelineClipID; id != "" && !st.Playing {
		if c, _, ok := tl.Find(id); ok && playable(c) && !c.Contains(st.Playhead) {
			f.Mode = PreviewSelectedClip
			f.ActiveClipID = c.ID
			f.ActiveClipSourceID = c.SourceID
			f.SourceSeekTime = c.TrimStart
			return f
		}
	}

	if c, ok := tl.ClipAtWhere(timeline.TrackMain, st.Playhead, playable); ok {
		f.Mode = PreviewTimeline
		f.ActiveClipID = c.ID
		f.ActiveClipSourceID = c.SourceID
		f.SourceSeekTime = c.SourceTimeAt(st.Playhead)
	} else {
		f.Mode = PreviewGap
	}

	if o, ok := tl.ClipAtWhere(timeline.TrackOverlay, st.Playhead, playable); ok {
		seek := o.SourceTimeAt(st.Playhead)
		f.OverlayClipID = o.ID
		f.OverlayClipSourceID = o.SourceID
		f.OverlaySeekTime = &seek
	}
	return f
}
