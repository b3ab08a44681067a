package timeline

import (
	"math"
	"sort"
)

// Edge names the clip handle a trim gesture drags.
type Edge int

const (
	EdgeStart Edge = iota
	EdgeEnd
)

func (e Edge) String() string {
	if e == EdgeStart {
		return "start"
	}
	return "end"
}

// TrimResult is a candidate trim computed from a baseline clip.
type TrimResult struct {
	Clip Clip
	// Playhead is where the live playhead should sit while dragging.
	Playhead float64
	// SourceSeek is the source time the preview should show.
	SourceSeek float64
}

// TrimStartCandidate moves the start handle of base by dt seconds.
func TrimStartCandidate(base Clip, dt float64) TrimResult {
	c := base
	c.TrimStart = clamp(base.TrimStart+dt, 0, base.TrimEnd-MinClipDuration)
	c.StartTime = math.Max(0, base.StartTime+dt)
	return TrimResult{Clip: c, Playhead: c.StartTime, SourceSeek: c.TrimStart}
}

// TrimEndCandidate moves the end handle of base by dt seconds, bounded by the
// source duration.
func TrimEndCandidate(base Clip, dt, srcDuration float64) TrimResult {
	c := base
	upper := srcDuration
	if upper < base.TrimStart+MinClipDuration {
		upper = base.TrimStart + MinClipDuration
	}
	c.TrimEnd = clamp(base.TrimEnd+dt, base.TrimStart+MinClipDuration, upper)
	return TrimResult{
		Clip:       c,
		Playhead:   c.StartTime + (c.TrimEnd - c.TrimStart),
		SourceSeek: c.TrimEnd,
	}
}

// Trim computes the candidate for edge.
func Trim(base Clip, edge Edge, dt, srcDuration float64) TrimResult {
	if edge == EdgeStart {
		return TrimStartCandidate(base, dt)
	}
	return TrimEndCandidate(base, dt, srcDuration)
}

// CommitTrim writes a trim candidate into the timeline.
func CommitTrim(t Timeline, candidate Clip, reg SourceRegistry) (Timeline, Clip, error) {
	return UpdateClip(t, candidate.ID, Patch{
		StartTime: Float(candidate.StartTime),
		TrimStart: Float(candidate.TrimStart),
		TrimEnd:   Float(candidate.TrimEnd),
	}, reg)
}

// CanSplit reports whether at lies inside c with MinClipDuration to spare on
// both sides.
func CanSplit(c Clip, at float64) bool {
	offset := at - c.StartTime
	return offset >= MinClipDuration-epsilon && c.Duration()-offset >= MinClipDuration-epsilon
}

// Split replaces the clip with id by two contiguous halves cut at at.
func Split(t Timeline, id string, at float64) (Timeline, Clip, Clip, error) {
	c, idx, ok := t.Find(id)
	if !ok {
		return t, Clip{}, Clip{}, ErrClipNotFound
	}
	if !CanSplit(c, at) {
		return t, Clip{}, Clip{}, ErrSplitOutOfRange
	}

	offset := at - c.StartTime
	cut := c.TrimStart + offset
	left := Clip{
		ID:        NewClipID(),
		SourceID:  c.SourceID,
		Track:     c.Track,
		StartTime: c.StartTime,
		TrimStart: c.TrimStart,
		TrimEnd:   cut,
	}
	right := Clip{
		ID:        NewClipID(),
		SourceID:  c.SourceID,
		Track:     c.Track,
		StartTime: at,
		TrimStart: cut,
		TrimEnd:   c.TrimEnd,
	}

	clips := make([]Clip, 0, len(t.Clips)+1)
	clips = append(clips, t.Clips[:idx]...)
	clips = append(clips, left, right)
	clips = append(clips, t.Clips[idx+1:]...)
	return Timeline{Clips: clips, TotalDuration: ComputeTotalDuration(clips)}, left, right, nil
}

// Move relocates the clip with id to start on track.
func Move(t Timeline, id string, track Track, start float64, reg SourceRegistry) (Timeline, Clip, error) {
	if !track.Valid() {
		return t, Clip{}, ErrInvalidTrack
	}
	return UpdateClip(t, id, Patch{Track: TrackPtr(track), StartTime: Float(start)}, reg)
}

// Delete removes the clip with id without shifting later clips.
func Delete(t Timeline, id string) (Timeline, error) {
	return RemoveClip(t, id)
}

// ExportClip is one resolved entry of the list handed to export.
type ExportClip struct {
	ClipID     string  `json:"clip_id"`
	SourceID   string  `json:"source_id"`
	SourcePath string  `json:"source_path"`
	Track      Track   `json:"track"`
	StartTime  float64 `json:"start_time"`
	TrimStart  float64 `json:"trim_start"`
	TrimEnd    float64 `json:"trim_end"`
}

// ExportList orders clips by start time, then track, then store order, and
// resolves their source paths. Clips whose source is unknown are returned
// separately by id.
func ExportList(t Timeline, reg SourceRegistry) ([]ExportClip, []string) {
	type indexed struct {
		clip  Clip
		order int
	}
	items := make([]indexed, len(t.Clips))
	for i, c := range t.Clips {
		items[i] = indexed{clip: c, order: i}
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].clip, items[j].clip
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		if a.Track != b.Track {
			return a.Track < b.Track
		}
		return items[i].order < items[j].order
	})

	out := make([]ExportClip, 0, len(items))
	var unresolved []string
	for _, it := range items {
		c := it.clip
		src, ok := reg.Lookup(c.SourceID)
		if !ok {
			unresolved = append(unresolved, c.ID)
			continue
		}
		out = append(out, ExportClip{
			ClipID:     c.ID,
			SourceID:   c.SourceID,
			SourcePath: src.Path,
			Track:      c.Track,
			StartTime:  c.StartTime,
			TrimStart:  c.TrimStart,
			TrimEnd:    c.TrimEnd,
		})
	}
	return out, unresolved
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
