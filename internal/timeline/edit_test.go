package timeline

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func singleClip(start, trimStart, trimEnd float64) (Timeline, Clip) {
	c := Clip{ID: "c1", SourceID: "src-10", Track: TrackMain, StartTime: start, TrimStart: trimStart, TrimEnd: trimEnd}
	return FromClips([]Clip{c}), c
}

func TestSplit_AtPlayhead(t *testing.T) {
	tl, c := singleClip(0, 0, 10)

	tl, left, right, err := Split(tl, c.ID, 4)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}

	if left.StartTime != 0 || left.TrimStart != 0 || left.TrimEnd != 4 {
		t.Errorf("left = %+v, want {start 0, trim [0,4]}", left)
	}
	if right.StartTime != 4 || right.TrimStart != 4 || right.TrimEnd != 10 {
		t.Errorf("right = %+v, want {start 4, trim [4,10]}", right)
	}
	if len(tl.Clips) != 2 {
		t.Fatalf("clip count = %d, want 2", len(tl.Clips))
	}
	if tl.Clips[0].ID != left.ID || tl.Clips[1].ID != right.ID {
		t.Error("halves should replace the original in place, left first")
	}
	if left.ID == c.ID || right.ID == c.ID || left.ID == right.ID {
		t.Error("halves need fresh distinct ids")
	}
	if left.SourceID != c.SourceID || right.Track != c.Track {
		t.Error("halves must inherit source and track")
	}
}

func TestSplit_Reversible(t *testing.T) {
	cases := []struct {
		start, trimStart, trimEnd, at float64
	}{
		{0, 0, 10, 4},
		{2.5, 1.25, 7.75, 5.1},
		{100.3, 3.3, 9.9, 103.7},
	}
	for _, tc := range cases {
		tl, c := singleClip(tc.start, tc.trimStart, tc.trimEnd)
		_, left, right, err := Split(tl, c.ID, tc.at)
		if err != nil {
			t.Fatalf("Split(%v) error = %v", tc.at, err)
		}
		if left.TrimEnd != right.TrimStart {
			t.Errorf("left.TrimEnd %v != right.TrimStart %v", left.TrimEnd, right.TrimStart)
		}
		if right.StartTime != tc.at {
			t.Errorf("right.StartTime = %v, want %v", right.StartTime, tc.at)
		}
		merged := Clip{StartTime: left.StartTime, TrimStart: left.TrimStart, TrimEnd: right.TrimEnd}
		if merged.StartTime != c.StartTime || merged.TrimStart != c.TrimStart || merged.TrimEnd != c.TrimEnd {
			t.Errorf("merged = %+v, want original %+v", merged, c)
		}
	}
}

func TestSplit_RejectsNearEdges(t *testing.T) {
	tl, c := singleClip(2, 0, 10)
	for _, at := range []float64{1, 2, 2.05, 11.95, 12, 13} {
		got, _, _, err := Split(tl, c.ID, at)
		if !errors.Is(err, ErrSplitOutOfRange) {
			t.Errorf("Split(%v) error = %v, want ErrSplitOutOfRange", at, err)
		}
		if len(got.Clips) != 1 {
			t.Errorf("Split(%v) changed the timeline", at)
		}
	}
}

func TestTrimEnd_ClampsToSourceDuration(t *testing.T) {
	_, c := singleClip(0, 0, 10)

	res := TrimEndCandidate(c, 3, 10)

	if res.Clip.TrimEnd != 10 {
		t.Errorf("TrimEnd = %v, want 10", res.Clip.TrimEnd)
	}
	if res.Clip.Duration() != 10 {
		t.Errorf("Duration() = %v, want 10", res.Clip.Duration())
	}
	if res.Playhead != 10 || res.SourceSeek != 10 {
		t.Errorf("live playhead/seek = %v/%v, want 10/10", res.Playhead, res.SourceSeek)
	}
}

func TestTrimEnd_StopsAtMinimumDuration(t *testing.T) {
	_, c := singleClip(3, 2, 8)
	res := TrimEndCandidate(c, -20, 10)
	if math.Abs(res.Clip.Duration()-MinClipDuration) > 1e-9 {
		t.Errorf("Duration() = %v, want %v", res.Clip.Duration(), MinClipDuration)
	}
	if res.Playhead != res.Clip.End() {
		t.Errorf("Playhead = %v, want clip end %v", res.Playhead, res.Clip.End())
	}
}

func TestTrimStart(t *testing.T) {
	tests := []struct {
		name          string
		dt            float64
		wantTrimStart float64
		wantStartTime float64
	}{
		{"shrink", 2, 3, 7},
		{"extend", -0.5, 0.5, 4.5},
		{"clamped at source origin", -3, 0, 2},
		{"clamped at minimum duration", 20, 7.9, 25},
		{"start time floored at zero", -6, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := singleClip(5, 1, 8)
			res := TrimStartCandidate(c, tt.dt)
			if math.Abs(res.Clip.TrimStart-tt.wantTrimStart) > 1e-9 {
				t.Errorf("TrimStart = %v, want %v", res.Clip.TrimStart, tt.wantTrimStart)
			}
			if math.Abs(res.Clip.StartTime-tt.wantStartTime) > 1e-9 {
				t.Errorf("StartTime = %v, want %v", res.Clip.StartTime, tt.wantStartTime)
			}
			if res.Playhead != res.Clip.StartTime || res.SourceSeek != res.Clip.TrimStart {
				t.Errorf("live playhead/seek = %v/%v, want %v/%v", res.Playhead, res.SourceSeek, res.Clip.StartTime, res.Clip.TrimStart)
			}
		})
	}
}

func TestMove_ChangesTrackAndStart(t *testing.T) {
	reg := NewStaticRegistry(SourceClip{ID: "src-10", Duration: 10})
	tl, c := singleClip(5, 0, 4)

	tl, moved, err := Move(tl, c.ID, TrackOverlay, 5, reg)
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if moved.Track != TrackOverlay || moved.StartTime != 5 {
		t.Errorf("moved = %+v, want overlay at 5", moved)
	}
	if tl.Clips[0].Track != TrackOverlay {
		t.Error("timeline not updated")
	}
}

func TestDelete_NoRipple(t *testing.T) {
	tl := FromClips([]Clip{
		{ID: "a", StartTime: 0, TrimEnd: 5},
		{ID: "b", StartTime: 5, TrimEnd: 5},
		{ID: "c", StartTime: 10, TrimEnd: 5},
	})
	tl, err := Delete(tl, "b")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	c, _, _ := tl.Find("c")
	if c.StartTime != 10 {
		t.Errorf("later clip shifted to %v, want 10", c.StartTime)
	}
	if tl.TotalDuration != 15 {
		t.Errorf("TotalDuration = %v, want 15", tl.TotalDuration)
	}
}

func TestExportList_OrderAndUnresolved(t *testing.T) {
	reg := NewStaticRegistry(
		SourceClip{ID: "s1", Duration: 10, Path: "/a.mp4"},
		SourceClip{ID: "s2", Duration: 10, Path: "/b.mp4"},
	)
	tl := FromClips([]Clip{
		{ID: "late", SourceID: "s1", Track: TrackMain, StartTime: 8, TrimEnd: 2},
		{ID: "over", SourceID: "s2", Track: TrackOverlay, StartTime: 0, TrimEnd: 3},
		{ID: "first", SourceID: "s2", Track: TrackMain, StartTime: 0, TrimEnd: 4},
		{ID: "ghost", SourceID: "gone", Track: TrackMain, StartTime: 4, TrimEnd: 1},
	})

	list, unresolved := ExportList(tl, reg)

	wantOrder := []string{"first", "over", "late"}
	if len(list) != len(wantOrder) {
		t.Fatalf("len(list) = %d, want %d", len(list), len(wantOrder))
	}
	for i, id := range wantOrder {
		if list[i].ClipID != id {
			t.Errorf("list[%d] = %s, want %s", i, list[i].ClipID, id)
		}
	}
	if list[0].SourcePath != "/b.mp4" {
		t.Errorf("SourcePath = %s, want /b.mp4", list[0].SourcePath)
	}
	if len(unresolved) != 1 || unresolved[0] != "ghost" {
		t.Errorf("unresolved = %v, want [ghost]", unresolved)
	}
}

// Random edit sequences must never produce an invalid clip or a stale
// duration.
func TestEditSequencesPreserveInvariants(t *testing.T) {
	reg := NewStaticRegistry(
		SourceClip{ID: "a", Duration: 7.5},
		SourceClip{ID: "b", Duration: 12},
		SourceClip{ID: "c", Duration: 0.4},
	)
	sources := []string{"a", "b", "c"}
	rng := rand.New(rand.NewSource(42))

	tl := New()
	for step := 0; step < 2000; step++ {
		switch op := rng.Intn(5); {
		case op == 0 || tl.IsEmpty():
			src := sources[rng.Intn(len(sources))]
			p := Placement{
				SourceID:  src,
				Track:     Track(rng.Intn(2)),
				StartTime: rng.Float64()*40 - 5,
				TrimStart: rng.Float64()*14 - 2,
				TrimEnd:   rng.Float64()*14 - 2,
			}
			tl, _, _ = AddClip(tl, p, reg)
		case op == 1:
			c := tl.Clips[rng.Intn(len(tl.Clips))]
			src, _ := reg.Lookup(c.SourceID)
			res := Trim(c, Edge(rng.Intn(2)), rng.Float64()*20-10, src.Duration)
			tl, _, _ = CommitTrim(tl, res.Clip, reg)
		case op == 2:
			c := tl.Clips[rng.Intn(len(tl.Clips))]
			at := c.StartTime + rng.Float64()*c.Duration()
			tl, _, _, _ = Split(tl, c.ID, at)
		case op == 3:
			c := tl.Clips[rng.Intn(len(tl.Clips))]
			tl, _, _ = Move(tl, c.ID, Track(rng.Intn(2)), rng.Float64()*30-5, reg)
		case op == 4:
			c := tl.Clips[rng.Intn(len(tl.Clips))]
			tl, _ = Delete(tl, c.ID)
		}

		for _, c := range tl.Clips {
			src, _ := reg.Lookup(c.SourceID)
			if !c.Valid(src.Duration) {
				t.Fatalf("step %d: invalid clip %+v for source duration %v", step, c, src.Duration)
			}
		}
		if want := ComputeTotalDuration(tl.Clips); tl.TotalDuration != want {
			t.Fatalf("step %d: TotalDuration = %v, want %v", step, tl.TotalDuration, want)
		}
	}
}
