package timeline

import "testing"

func twoMainClips() Timeline {
	return FromClips([]Clip{
		{ID: "a", Track: TrackMain, StartTime: 0, TrimEnd: 5},
		{ID: "b", Track: TrackMain, StartTime: 8, TrimEnd: 4},
		{ID: "drag", Track: TrackMain, StartTime: 20, TrimEnd: 2},
	})
}

func TestSnapOnTrack_SnapsToClipEnd(t *testing.T) {
	tl := twoMainClips()

	got, target := SnapOnTrack(tl, TrackMain, "drag", 5.1, DefaultSnapThreshold)

	if got != 5 {
		t.Fatalf("snapped start = %v, want 5", got)
	}
	if target == nil || target.Kind != SnapClipEnd || target.ClipID != "a" {
		t.Fatalf("target = %+v, want end of clip a", target)
	}
}

func TestSnapOnTrack_OutsideThreshold(t *testing.T) {
	tl := twoMainClips()
	got, target := SnapOnTrack(tl, TrackMain, "drag", 6.5, DefaultSnapThreshold)
	if got != 6.5 || target != nil {
		t.Fatalf("SnapOnTrack() = %v %+v, want unsnapped 6.5", got, target)
	}
}

func TestSnapOnTrack_IgnoresOtherTrackAndSelf(t *testing.T) {
	tl := FromClips([]Clip{
		{ID: "over", Track: TrackOverlay, StartTime: 3, TrimEnd: 1},
		{ID: "drag", Track: TrackMain, StartTime: 3.1, TrimEnd: 1},
	})
	got, target := SnapOnTrack(tl, TrackMain, "drag", 3.05, DefaultSnapThreshold)
	if target != nil {
		t.Fatalf("snapped to %+v, want no target", target)
	}
	if got != 3.05 {
		t.Fatalf("got %v, want 3.05", got)
	}

	got, target = SnapOnTrack(tl, TrackOverlay, "drag", 3.05, DefaultSnapThreshold)
	if target == nil || target.ClipID != "over" || got != 3 {
		t.Fatalf("overlay snap = %v %+v, want start of over", got, target)
	}
}

func TestSnap_TieKeepsFirstEnumerated(t *testing.T) {
	targets := []SnapTarget{
		{Kind: SnapOrigin, Time: 0},
		{Kind: SnapClipEnd, ClipID: "x", Time: 4.75},
		{Kind: SnapClipStart, ClipID: "y", Time: 5.25},
	}
	for i := 0; i < 50; i++ {
		tg, ok := Snap(5.0, targets, DefaultSnapThreshold)
		if !ok || tg.ClipID != "x" {
			t.Fatalf("run %d: target = %+v, want x", i, tg)
		}
	}
}

func TestSnapTargets_StoreOrder(t *testing.T) {
	targets := SnapTargets(twoMainClips(), TrackMain, "drag")
	want := []float64{0, 0, 5, 8, 12}
	if len(targets) != len(want) {
		t.Fatalf("len(targets) = %d, want %d", len(targets), len(want))
	}
	for i, w := range want {
		if targets[i].Time != w {
			t.Errorf("targets[%d].Time = %v, want %v", i, targets[i].Time, w)
		}
	}
	if targets[0].Kind != SnapOrigin {
		t.Error("origin should be enumerated first")
	}
}
