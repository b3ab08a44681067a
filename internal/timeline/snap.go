package timeline

import "math"

type SnapKind int

const (
	SnapOrigin SnapKind = iota
	SnapClipStart
	SnapClipEnd
)

func (k SnapKind) String() string {
	switch k {
	case SnapOrigin:
		return "origin"
	case SnapClipStart:
		return "clip_start"
	case SnapClipEnd:
		return "clip_end"
	default:
		return "unknown"
	}
}

// SnapTarget is one magnetic position on a track.
type SnapTarget struct {
	Kind   SnapKind `json:"kind"`
	ClipID string   `json:"clip_id,omitempty"`
	Time   float64  `json:"time"`
}

// SnapTargets enumerates origin followed by the start and end of every clip on
// track in store order, skipping excludeID.
func SnapTargets(t Timeline, track Track, excludeID string) []SnapTarget {
	targets := []SnapTarget{{Kind: SnapOrigin, Time: 0}}
	for _, c := range t.Clips {
		if c.Track != track || c.ID == excludeID {
			continue
		}
		targets = append(targets,
			SnapTarget{Kind: SnapClipStart, ClipID: c.ID, Time: c.StartTime},
			SnapTarget{Kind: SnapClipEnd, ClipID: c.ID, Time: c.End()},
		)
	}
	return targets
}

// Snap returns the closest target within threshold of candidate. Only a
// strictly closer target replaces an earlier one, so ties keep the first
// enumerated.
func Snap(candidate float64, targets []SnapTarget, threshold float64) (SnapTarget, bool) {
	var best SnapTarget
	bestDist := math.Inf(1)
	found := false
	for _, tg := range targets {
		d := math.Abs(candidate - tg.Time)
		if d > threshold+epsilon {
			continue
		}
		if d < bestDist {
			best = tg
			bestDist = d
			found = true
		}
	}
	return best, found
}

// SnapOnTrack snaps candidate against the targets of track.
func SnapOnTrack(t Timeline, track Track, excludeID string, candidate, threshold float64) (float64, *SnapTarget) {
	tg, ok := Snap(candidate, SnapTargets(t, track, excludeID), threshold)
	if !ok {
		return candidate, nil
	}
	return tg.Time, &tg
}
