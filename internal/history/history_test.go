package history

import (
	"reflect"
	"testing"

	"github.com/framecut/framecut/internal/timeline"
)

func snap(playhead float64, clips ...timeline.Clip) Snapshot {
	return Capture(timeline.FromClips(clips), playhead)
}

func TestUndo_EmptyReturnsFalse(t *testing.T) {
	m := New(0)
	if _, ok := m.Undo(Snapshot{}); ok {
		t.Error("Undo() on empty history should return false")
	}
	if _, ok := m.Redo(Snapshot{}); ok {
		t.Error("Redo() on empty history should return false")
	}
	if m.capacity != DefaultCapacity {
		t.Errorf("capacity = %d, want %d", m.capacity, DefaultCapacity)
	}
}

func TestUndoRedo_RoundTrip(t *testing.T) {
	m := New(10)
	before := snap(1, timeline.Clip{ID: "a", TrimEnd: 5})
	after := snap(3, timeline.Clip{ID: "a", StartTime: 2, TrimEnd: 5})

	m.SaveState(before, "move")

	restored, ok := m.Undo(after)
	if !ok {
		t.Fatal("Undo() returned false")
	}
	if !reflect.DeepEqual(restored, before) {
		t.Fatalf("Undo() = %+v, want %+v", restored, before)
	}

	redone, ok := m.Redo(restored)
	if !ok {
		t.Fatal("Redo() returned false")
	}
	if !reflect.DeepEqual(redone, after) {
		t.Fatalf("Redo() = %+v, want %+v", redone, after)
	}
	if len(m.undoStack) != 1 || len(m.redoStack) != 0 {
		t.Errorf("stack sizes = %d/%d, want 1/0", len(m.undoStack), len(m.redoStack))
	}
}

func TestSaveState_ClearsRedo(t *testing.T) {
	m := New(10)
	m.SaveState(snap(0), "a")
	m.Undo(snap(1))
	if !m.CanRedo() {
		t.Fatal("expected redo after undo")
	}

	m.SaveState(snap(2), "b")
	if m.CanRedo() {
		t.Error("SaveState() should clear the redo stack")
	}
}

func TestSaveState_EvictsOldest(t *testing.T) {
	m := New(50)
	for i := 0; i < 60; i++ {
		m.SaveState(snap(float64(i)), "edit")
	}
	if len(m.undoStack) != 50 {
		t.Fatalf("undo depth = %d, want 50", len(m.undoStack))
	}

	var last Snapshot
	cur := snap(100)
	for m.CanUndo() {
		last, _ = m.Undo(cur)
		cur = last
	}
	if last.Playhead != 10 {
		t.Errorf("oldest surviving snapshot playhead = %v, want 10", last.Playhead)
	}
}

func TestSnapshotsAreIndependent(t *testing.T) {
	m := New(5)
	s := snap(0, timeline.Clip{ID: "a", TrimEnd: 5})
	m.SaveState(s, "edit")

	s.Clips[0].TrimEnd = 1

	restored, _ := m.Undo(Snapshot{})
	if restored.Clips[0].TrimEnd != 5 {
		t.Fatalf("snapshot aliased caller memory: TrimEnd = %v", restored.Clips[0].TrimEnd)
	}

	tl := restored.Timeline()
	tl.Clips[0].StartTime = 9
	if restored.Clips[0].StartTime != 0 {
		t.Fatal("Timeline() aliased snapshot memory")
	}
}

func TestPeek(t *testing.T) {
	m := New(5)
	if _, ok := m.PeekUndo(); ok {
		t.Error("PeekUndo() on empty history should return false")
	}
	m.SaveState(snap(0), "split")
	m.SaveState(snap(1), "trim")
	if info, ok := m.PeekUndo(); !ok || info.Label != "trim" || info.SavedAt.IsZero() {
		t.Errorf("PeekUndo() = %+v %v, want trim", info, ok)
	}
	if _, ok := m.PeekRedo(); ok {
		t.Error("PeekRedo() before any undo should return false")
	}

	m.Undo(snap(2))
	if info, ok := m.PeekRedo(); !ok || info.Label != "trim" {
		t.Errorf("PeekRedo() = %+v %v, want trim", info, ok)
	}
	if info, _ := m.PeekUndo(); info.Label != "split" {
		t.Errorf("PeekUndo() after undo = %q, want split", info.Label)
	}
}
