package selection

import (
	"testing"

	"github.com/framecut/framecut/internal/timeline"
)

func TestSelection_MutuallyExclusive(t *testing.T) {
	s := Timeline("clip-1")
	if s.TimelineClipID() != "clip-1" || s.LibraryClipID() != "" {
		t.Fatalf("timeline selection = %+v", s.State())
	}

	s = Library("src-1")
	if s.LibraryClipID() != "src-1" || s.TimelineClipID() != "" {
		t.Fatalf("library selection = %+v", s.State())
	}

	if !Timeline("").IsEmpty() || !Library("").IsEmpty() {
		t.Error("empty ids should select nothing")
	}
}

func TestSelection_Prune(t *testing.T) {
	tl := timeline.FromClips([]timeline.Clip{{ID: "a", TrimEnd: 5}})

	if got := Timeline("a").Prune(tl); got.TimelineClipID() != "a" {
		t.Error("existing clip should stay selected")
	}
	if got := Timeline("gone").Prune(tl); !got.IsEmpty() {
		t.Error("missing clip should be deselected")
	}
	if got := Library("src").Prune(tl); got.LibraryClipID() != "src" {
		t.Error("library selection is unaffected by the timeline")
	}
}

func TestSelection_Affordances(t *testing.T) {
	tl := timeline.FromClips([]timeline.Clip{{ID: "a", StartTime: 0, TrimEnd: 10}})

	tests := []struct {
		name      string
		sel       Selection
		playhead  float64
		wantSplit bool
		wantDel   bool
	}{
		{"nothing selected", Selection{}, 5, false, false},
		{"library clip", Library("src"), 5, false, false},
		{"inside clip", Timeline("a"), 5, true, true},
		{"at clip edge", Timeline("a"), 0.05, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.sel.Affordances(tl, tt.playhead)
			if a.CanSplit != tt.wantSplit || a.CanDelete != tt.wantDel {
				t.Errorf("Affordances() = %+v, want split=%v delete=%v", a, tt.wantSplit, tt.wantDel)
			}
		})
	}
}
