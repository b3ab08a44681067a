// Package timeline holds the two-track clip placement model and the pure edit
// operations that transform it. Every function here returns a new Timeline and
// leaves its input untouched.
package timeline

import (
	"errors"
	"math"

	"github.com/google/uuid"
)

const (
	// MinClipDuration is the shortest playable range a placement may have.
	MinClipDuration = 0.1

	// MinTimelineDuration keeps the ruler usable on an empty timeline.
	MinTimelineDuration = 10.0

	// DefaultSnapThreshold is the magnetic snap distance in seconds.
	DefaultSnapThreshold = 0.3

	// epsilon absorbs float noise when comparing against MinClipDuration.
	epsilon = 1e-9
)

var (
	ErrClipNotFound    = errors.New("timeline clip not found")
	ErrUnknownSource   = errors.New("unknown source clip")
	ErrSourceTooShort  = errors.New("source clip shorter than minimum clip duration")
	ErrSplitOutOfRange = errors.New("split point outside clip bounds")
	ErrInvalidTrack    = errors.New("invalid track")
)

type Track int

const (
	TrackMain    Track = 0
	TrackOverlay Track = 1
)

func (t Track) Valid() bool {
	return t == TrackMain || t == TrackOverlay
}

// Other returns the opposite lane.
func (t Track) Other() Track {
	if t == TrackMain {
		return TrackOverlay
	}
	return TrackMain
}

func (t Track) String() string {
	switch t {
	case TrackMain:
		return "main"
	case TrackOverlay:
		return "overlay"
	default:
		return "unknown"
	}
}

// SourceClip is the imported media a placement refers to.
type SourceClip struct {
	ID       string  `json:"id"`
	Duration float64 `json:"duration"`
	Path     string  `json:"path"`
}

// SourceRegistry resolves source clips by id. Implementations must be safe
// to call from any goroutine.
type SourceRegistry interface {
	Lookup(id string) (SourceClip, bool)
}

// Clip is a placement of a source range on a track.
type Clip struct {
	ID        string  `json:"id"`
	SourceID  string  `json:"source_id"`
	Track     Track   `json:"track"`
	StartTime float64 `json:"start_time"`
	TrimStart float64 `json:"trim_start"`
	TrimEnd   float64 `json:"trim_end"`
}

func (c Clip) Duration() float64 {
	return c.TrimEnd - c.TrimStart
}

// End is the timeline time just past the clip's last frame.
func (c Clip) End() float64 {
	return c.StartTime + c.Duration()
}

// Contains reports whether t falls in [StartTime, End).
func (c Clip) Contains(t float64) bool {
	return t >= c.StartTime && t < c.End()
}

// SourceTimeAt maps a timeline time onto the clip's source media.
func (c Clip) SourceTimeAt(t float64) float64 {
	return c.TrimStart + (t - c.StartTime)
}

// TimelineTimeAt maps a source time back onto the timeline.
func (c Clip) TimelineTimeAt(sourceTime float64) float64 {
	return c.StartTime + (sourceTime - c.TrimStart)
}

type Timeline struct {
	Clips         []Clip  `json:"clips"`
	TotalDuration float64 `json:"total_duration"`
}

// New returns an empty timeline with the minimum ruler duration.
func New() Timeline {
	return Timeline{Clips: []Clip{}, TotalDuration: MinTimelineDuration}
}

// FromClips builds a timeline around a copy of clips.
func FromClips(clips []Clip) Timeline {
	cp := make([]Clip, len(clips))
	copy(cp, clips)
	return Timeline{Clips: cp, TotalDuration: ComputeTotalDuration(cp)}
}

// ComputeTotalDuration is max(start+duration) over clips, floored at
// MinTimelineDuration.
func ComputeTotalDuration(clips []Clip) float64 {
	total := MinTimelineDuration
	for _, c := range clips {
		if end := c.End(); end > total {
			total = end
		}
	}
	return total
}

// ContentEnd is the end of the last clip without the ruler floor.
func (t Timeline) ContentEnd() float64 {
	end := 0.0
	for _, c := range t.Clips {
		if e := c.End(); e > end {
			end = e
		}
	}
	return end
}

func (t Timeline) Clone() Timeline {
	return FromClips(t.Clips)
}

func (t Timeline) Len() int {
	return len(t.Clips)
}

func (t Timeline) IsEmpty() bool {
	return len(t.Clips) == 0
}

// Find returns the clip with id and its index in store order.
func (t Timeline) Find(id string) (Clip, int, bool) {
	for i, c := range t.Clips {
		if c.ID == id {
			return c, i, true
		}
	}
	return Clip{}, -1, false
}

// OnTrack returns the clips on track in store order.
func (t Timeline) OnTrack(track Track) []Clip {
	out := make([]Clip, 0, len(t.Clips))
	for _, c := range t.Clips {
		if c.Track == track {
			out = append(out, c)
		}
	}
	return out
}

// ClipAt returns the first clip in store order on track whose span contains at.
func (t Timeline) ClipAt(track Track, at float64) (Clip, bool) {
	return t.ClipAtWhere(track, at, nil)
}

// ClipAtWhere is ClipAt restricted to clips accepted by keep. A nil keep
// accepts every clip.
func (t Timeline) ClipAtWhere(track Track, at float64, keep func(Clip) bool) (Clip, bool) {
	for _, c := range t.Clips {
		if c.Track != track || !c.Contains(at) {
			continue
		}
		if keep == nil || keep(c) {
			return c, true
		}
	}
	return Clip{}, false
}

// NextOnTrack returns the clip on track with the smallest StartTime >= after,
// skipping excludeID. Ties go to the earliest clip in store order.
func (t Timeline) NextOnTrack(track Track, after float64, excludeID string) (Clip, bool) {
	return t.NextOnTrackWhere(track, after, func(c Clip) bool { return c.ID != excludeID })
}

// NextOnTrackWhere is NextOnTrack restricted to clips accepted by keep.
func (t Timeline) NextOnTrackWhere(track Track, after float64, keep func(Clip) bool) (Clip, bool) {
	var best Clip
	found := false
	for _, c := range t.Clips {
		if c.Track != track || c.StartTime+epsilon < after {
			continue
		}
		if keep != nil && !keep(c) {
			continue
		}
		if !found || c.StartTime < best.StartTime {
			best = c
			found = true
		}
	}
	return best, found
}

// ClampPlayhead bounds a playhead to [0, TotalDuration].
func (t Timeline) ClampPlayhead(at float64) float64 {
	if math.IsNaN(at) || at < 0 {
		return 0
	}
	if at > t.TotalDuration {
		return t.TotalDuration
	}
	return at
}

// Placement describes a new clip to add.
type Placement struct {
	SourceID  string
	Track     Track
	StartTime float64
	TrimStart float64
	TrimEnd   float64
}

// FullPlacement places the whole source range at start.
func FullPlacement(src SourceClip, track Track, start float64) Placement {
	return Placement{
		SourceID:  src.ID,
		Track:     track,
		StartTime: start,
		TrimStart: 0,
		TrimEnd:   src.Duration,
	}
}

// Patch holds the fields UpdateClip may change. Nil fields are left alone.
type Patch struct {
	Track     *Track
	StartTime *float64
	TrimStart *float64
	TrimEnd   *float64
}

func Float(v float64) *float64 { return &v }

func TrackPtr(t Track) *Track { return &t }

// NewClipID generates a fresh placement id.
func NewClipID() string {
	return uuid.NewString()
}

// AddClip appends a clamped placement and returns the new timeline and clip.
func AddClip(t Timeline, p Placement, reg SourceRegistry) (Timeline, Clip, error) {
	if !p.Track.Valid() {
		return t, Clip{}, ErrInvalidTrack
	}
	src, ok := reg.Lookup(p.SourceID)
	if !ok {
		return t, Clip{}, ErrUnknownSource
	}
	if src.Duration+epsilon < MinClipDuration {
		return t, Clip{}, ErrSourceTooShort
	}

	c := normalize(Clip{
		ID:        NewClipID(),
		SourceID:  p.SourceID,
		Track:     p.Track,
		StartTime: p.StartTime,
		TrimStart: p.TrimStart,
		TrimEnd:   p.TrimEnd,
	}, src.Duration)

	clips := make([]Clip, 0, len(t.Clips)+1)
	clips = append(clips, t.Clips...)
	clips = append(clips, c)
	return Timeline{Clips: clips, TotalDuration: ComputeTotalDuration(clips)}, c, nil
}

// RemoveClip drops the clip with id.
func RemoveClip(t Timeline, id string) (Timeline, error) {
	_, idx, ok := t.Find(id)
	if !ok {
		return t, ErrClipNotFound
	}
	clips := make([]Clip, 0, len(t.Clips)-1)
	clips = append(clips, t.Clips[:idx]...)
	clips = append(clips, t.Clips[idx+1:]...)
	return Timeline{Clips: clips, TotalDuration: ComputeTotalDuration(clips)}, nil
}

// UpdateClip applies patch to the clip with id, clamping the result so every
// invariant still holds. A missing source keeps the current trim range as the
// upper bound.
func UpdateClip(t Timeline, id string, patch Patch, reg SourceRegistry) (Timeline, Clip, error) {
	cur, idx, ok := t.Find(id)
	if !ok {
		return t, Clip{}, ErrClipNotFound
	}

	next := cur
	if patch.Track != nil && patch.Track.Valid() {
		next.Track = *patch.Track
	}
	if patch.StartTime != nil {
		next.StartTime = *patch.StartTime
	}
	if patch.TrimStart != nil {
		next.TrimStart = *patch.TrimStart
	}
	if patch.TrimEnd != nil {
		next.TrimEnd = *patch.TrimEnd
	}

	srcDuration, known := sourceDuration(reg, cur)
	if !known {
		// Without the source we cannot grow the range past what it already was.
		srcDuration = cur.TrimEnd
	}
	next = normalize(next, srcDuration)

	clips := make([]Clip, len(t.Clips))
	copy(clips, t.Clips)
	clips[idx] = next
	return Timeline{Clips: clips, TotalDuration: ComputeTotalDuration(clips)}, next, nil
}

func sourceDuration(reg SourceRegistry, c Clip) (float64, bool) {
	if reg == nil {
		return 0, false
	}
	src, ok := reg.Lookup(c.SourceID)
	if !ok {
		return 0, false
	}
	return src.Duration, true
}

// normalize clamps c into a valid placement for a source of srcDuration.
func normalize(c Clip, srcDuration float64) Clip {
	if math.IsNaN(c.StartTime) || c.StartTime < 0 {
		c.StartTime = 0
	}
	if math.IsNaN(c.TrimStart) || c.TrimStart < 0 {
		c.TrimStart = 0
	}
	if math.IsNaN(c.TrimEnd) {
		c.TrimEnd = c.TrimStart + MinClipDuration
	}
	if c.TrimEnd > srcDuration {
		c.TrimEnd = srcDuration
	}
	if c.TrimEnd-c.TrimStart < MinClipDuration-epsilon {
		c.TrimEnd = c.TrimStart + MinClipDuration
		if c.TrimEnd > srcDuration {
			c.TrimEnd = srcDuration
			c.TrimStart = math.Max(0, srcDuration-MinClipDuration)
		}
	}
	return c
}

// Valid reports whether c satisfies every placement invariant for a source of
// srcDuration.
func (c Clip) Valid(srcDuration float64) bool {
	return c.StartTime >= 0 &&
		c.TrimStart >= 0 &&
		c.TrimStart < c.TrimEnd &&
		c.TrimEnd <= srcDuration+epsilon &&
		c.Duration() >= MinClipDuration-epsilon
}
