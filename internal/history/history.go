// Package history provides snapshot-based undo/redo for the timeline editor.
//
// A Snapshot is a deep copy of the editable state taken before a user gesture
// mutates it. The undo stack is bounded: once it holds more than its capacity
// the oldest snapshots are dropped. Saving a new snapshot clears the redo
// stack, so history is strictly linear.
//
//	h := history.New(50)
//	h.SaveState(current)          // before the edit
//	prev, ok := h.Undo(current)   // restore prev if ok
//	next, ok := h.Redo(prev)
//
// Playback position updates never go through history.
package history

import (
	"sync"
	"time"

	"github.com/framecut/framecut/internal/timeline"
)

// DefaultCapacity is the undo depth used when none is configured.
const DefaultCapacity = 50

// Snapshot is an independent copy of the editable session state.
type Snapshot struct {
	Clips         []timeline.Clip `json:"clips"`
	TotalDuration float64         `json:"total_duration"`
	Playhead      float64         `json:"playhead"`
}

// Capture copies tl and playhead into a Snapshot that shares no memory with tl.
func Capture(tl timeline.Timeline, playhead float64) Snapshot {
	clips := make([]timeline.Clip, len(tl.Clips))
	copy(clips, tl.Clips)
	return Snapshot{Clips: clips, TotalDuration: tl.TotalDuration, Playhead: playhead}
}

// Timeline rebuilds an independent timeline from the snapshot.
func (s Snapshot) Timeline() timeline.Timeline {
	clips := make([]timeline.Clip, len(s.Clips))
	copy(clips, s.Clips)
	return timeline.Timeline{Clips: clips, TotalDuration: s.TotalDuration}
}

func (s Snapshot) clone() Snapshot {
	clips := make([]timeline.Clip, len(s.Clips))
	copy(clips, s.Clips)
	return Snapshot{Clips: clips, TotalDuration: s.TotalDuration, Playhead: s.Playhead}
}

type entry struct {
	snapshot Snapshot
	label    string
	savedAt  time.Time
}

// EntryInfo describes a history entry for display.
type EntryInfo struct {
	Label   string    `json:"label"`
	SavedAt time.Time `json:"saved_at"`
}

// Manager holds the undo and redo stacks.
type Manager struct {
	mu sync.Mutex

	undoStack []entry
	redoStack []entry
	capacity  int
}

// New creates a Manager holding at most capacity undo snapshots.
func New(capacity int) *Manager {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Manager{capacity: capacity}
}

// SaveState pushes a copy of s onto the undo stack and clears redo.
func (m *Manager) SaveState(s Snapshot, label string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.undoStack = append(m.undoStack, entry{snapshot: s.clone(), label: label, savedAt: time.Now()})
	m.redoStack = nil

	if len(m.undoStack) > m.capacity {
		excess := len(m.undoStack) - m.capacity
		m.undoStack = append([]entry(nil), m.undoStack[excess:]...)
	}
}

// Undo pops the last snapshot and pushes current onto the redo stack.
// It returns false when there is nothing to undo.
func (m *Manager) Undo(current Snapshot) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.undoStack) == 0 {
		return Snapshot{}, false
	}

	top := m.undoStack[len(m.undoStack)-1]
	m.undoStack = m.undoStack[:len(m.undoStack)-1]
	m.redoStack = append(m.redoStack, entry{snapshot: current.clone(), label: top.label, savedAt: time.Now()})
	return top.snapshot.clone(), true
}

// Redo is the mirror of Undo.
func (m *Manager) Redo(current Snapshot) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.redoStack) == 0 {
		return Snapshot{}, false
	}

	top := m.redoStack[len(m.redoStack)-1]
	m.redoStack = m.redoStack[:len(m.redoStack)-1]
	m.undoStack = append(m.undoStack, entry{snapshot: current.clone(), label: top.label, savedAt: time.Now()})
	return top.snapshot.clone(), true
}

func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undoStack) > 0
}

func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redoStack) > 0
}

// PeekUndo describes the next undo without popping it.
func (m *Manager) PeekUndo() (EntryInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return peek(m.undoStack)
}

// PeekRedo describes the next redo without popping it.
func (m *Manager) PeekRedo() (EntryInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return peek(m.redoStack)
}

func peek(stack []entry) (EntryInfo, bool) {
	if len(stack) == 0 {
		return EntryInfo{}, false
	}
	e := stack[len(stack)-1]
	return EntryInfo{Label: e.label, SavedAt: e.savedAt}, true
}
