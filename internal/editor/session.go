// Package editor owns the mutable editing session: the committed timeline,
// playhead, selection, undo history and any drag in progress.
//
// Session is the single writer. HTTP handlers, tray callbacks and the
// playback loop all go through its methods, which serialise on one mutex.
// Readers either take a State copy or Subscribe to changes. Subscribers are
// called after the lock is released and must not block.
//
// Edits whose preconditions fail (no selection, playhead outside the clip,
// unknown source) are logged at debug and leave the session untouched; the
// error is returned so callers can report applied=false.
package editor

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/framecut/framecut/internal/gesture"
	"github.com/framecut/framecut/internal/history"
	"github.com/framecut/framecut/internal/selection"
	"github.com/framecut/framecut/internal/timeline"
)

var (
	ErrNoSelection = errors.New("no timeline clip selected")
	ErrNoGesture   = errors.New("no matching gesture in progress")
)

// Options configures a Session.
type Options struct {
	UndoCapacity int
	Gesture      gesture.Options
	// Capture is acquired for the length of every drag.
	Capture gesture.Capture
}

type Session struct {
	mu     sync.Mutex
	logger *slog.Logger

	registry timeline.SourceRegistry
	history  *history.Manager
	opts     gesture.Options

	tl       timeline.Timeline
	playhead float64
	playing  bool
	sel      selection.Selection
	version  uint64

	trim *gesture.Trim
	move *gesture.Move
	// pending is the state before the active drag; it becomes the undo
	// snapshot when the drag commits.
	pending *history.Snapshot

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

// New creates an empty session resolving sources through registry.
func New(registry timeline.SourceRegistry, opts Options, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Capture == nil {
		opts.Capture = gesture.NopCapture{}
	}
	if opts.Gesture == (gesture.Options{}) {
		opts.Gesture = gesture.DefaultOptions()
	}
	return &Session{
		logger:   logger,
		registry: registry,
		history:  history.New(opts.UndoCapacity),
		opts:     opts.Gesture,
		tl:       timeline.New(),
		trim:     gesture.NewTrim(opts.Capture),
		move:     gesture.NewMove(opts.Capture),
		subs:     make(map[int]func(Change)),
	}
}

// Subscribe registers fn for every change and returns a function that
// removes it.
func (s *Session) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Session) notify(kind ChangeKind, st State) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	ch := Change{Kind: kind, State: st}
	for _, fn := range fns {
		fn(ch)
	}
}

// update runs fn under the lock and publishes the resulting state when fn
// succeeds.
func (s *Session) update(op string, kind ChangeKind, fn func() error) error {
	s.mu.Lock()
	err := fn()
	if err != nil {
		s.mu.Unlock()
		s.logger.Debug("edit not applied", "op", op, "error", err)
		return err
	}
	s.version++
	st := s.stateLocked()
	s.mu.Unlock()

	s.notify(kind, st)
	return nil
}

func (s *Session) stateLocked() State {
	st := State{
		Version:     s.version,
		Timeline:    s.tl.Clone(),
		Playhead:    s.playhead,
		Playing:     s.playing,
		Selection:   s.sel.State(),
		Affordances: s.sel.Affordances(s.tl, s.playhead),
		CanUndo:     s.history.CanUndo(),
		CanRedo:     s.history.CanRedo(),
	}
	if e, ok := s.history.PeekUndo(); ok {
		st.NextUndo = &e
	}
	if e, ok := s.history.PeekRedo(); ok {
		st.NextRedo = &e
	}
	if c, ok := s.trim.Candidate(); ok {
		st.Gesture = &GesturePreview{
			Kind:          GestureTrim,
			Clip:          c.Clip,
			Edge:          s.trim.Edge().String(),
			SourceSeek:    c.SourceSeek,
			Snap:          s.trim.SnapTarget(),
			TotalDuration: previewDuration(s.tl, c.Clip),
		}
	} else if c, ok := s.move.Candidate(); ok {
		st.Gesture = &GesturePreview{
			Kind:          GestureMove,
			Clip:          c.Clip,
			Snap:          c.Snap,
			TotalDuration: previewDuration(s.tl, c.Clip),
		}
	}
	return st
}

// State returns a copy of the current session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) Timeline() timeline.Timeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tl.Clone()
}

func (s *Session) Playhead() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playhead
}

func (s *Session) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *Session) Selection() selection.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

// Registry is the source registry the session resolves clips against.
func (s *Session) Registry() timeline.SourceRegistry {
	return s.registry
}

func (s *Session) snapshotLocked() history.Snapshot {
	return history.Capture(s.tl, s.playhead)
}

func (s *Session) saveLocked(label string) {
	s.history.SaveState(s.snapshotLocked(), label)
}

// abortGesturesLocked cancels any drag in progress and restores the playhead
// a trim may have moved.
func (s *Session) abortGesturesLocked() {
	if s.trim.Active() {
		s.trim.Cancel()
		if s.pending != nil {
			s.playhead = s.tl.ClampPlayhead(s.pending.Playhead)
		}
	}
	if s.move.Active() {
		s.move.Cancel()
	}
	s.pending = nil
}

// DropClip places the whole of source sourceID on track at x pixels from the
// timeline origin.
func (s *Session) DropClip(sourceID string, track timeline.Track, xPx float64) (timeline.Clip, error) {
	var added timeline.Clip
	err := s.update("drop_clip", ChangeTimeline, func() error {
		src, ok := s.registry.Lookup(sourceID)
		if !ok {
			return fmt.Errorf("drop %s: %w", sourceID, timeline.ErrUnknownSource)
		}
		start := xPx / s.opts.PixelsPerSecond
		tl, c, err := timeline.AddClip(s.tl, timeline.FullPlacement(src, track, start), s.registry)
		if err != nil {
			return fmt.Errorf("drop %s: %w", sourceID, err)
		}
		s.abortGesturesLocked()
		s.saveLocked("add clip")
		s.tl = tl
		s.playhead = s.tl.ClampPlayhead(s.playhead)
		added = c
		return nil
	})
	return added, err
}

// Seek moves the playhead on user request. It is not recorded in history.
func (s *Session) Seek(t float64) float64 {
	var at float64
	_ = s.update("seek", ChangePlayhead, func() error {
		s.playhead = s.tl.ClampPlayhead(t)
		at = s.playhead
		return nil
	})
	return at
}

// SetPlayback records a position derived by the playback loop.
func (s *Session) SetPlayback(playhead float64, playing bool) {
	_ = s.update("set_playback", ChangePlayhead, func() error {
		s.playhead = s.tl.ClampPlayhead(playhead)
		s.playing = playing
		return nil
	})
}

// SetPlaying flips the transport flag without moving the playhead.
func (s *Session) SetPlaying(playing bool) {
	_ = s.update("set_playing", ChangeTransport, func() error {
		s.playing = playing
		return nil
	})
}

func (s *Session) SelectTimelineClip(id string) error {
	return s.update("select_timeline_clip", ChangeSelection, func() error {
		if _, _, ok := s.tl.Find(id); !ok {
			return fmt.Errorf("select %s: %w", id, timeline.ErrClipNotFound)
		}
		s.sel = selection.Timeline(id)
		return nil
	})
}

func (s *Session) SelectLibraryClip(sourceID string) error {
	return s.update("select_library_clip", ChangeSelection, func() error {
		if _, ok := s.registry.Lookup(sourceID); !ok {
			return fmt.Errorf("select %s: %w", sourceID, timeline.ErrUnknownSource)
		}
		s.sel = selection.Library(sourceID)
		return nil
	})
}

func (s *Session) ClearSelection() {
	_ = s.update("clear_selection", ChangeSelection, func() error {
		s.sel = selection.Selection{}
		return nil
	})
}

// BeginTrim starts dragging edge of clip id. Any drag already in progress is
// cancelled first.
func (s *Session) BeginTrim(id string, edge timeline.Edge) error {
	return s.update("begin_trim", ChangeGesture, func() error {
		c, _, ok := s.tl.Find(id)
		if !ok {
			return fmt.Errorf("trim %s: %w", id, timeline.ErrClipNotFound)
		}
		srcDuration := c.TrimEnd
		if src, ok := s.registry.Lookup(c.SourceID); ok {
			srcDuration = src.Duration
		}

		s.abortGesturesLocked()
		snap := s.snapshotLocked()
		if err := s.trim.Begin(c, edge, srcDuration, s.opts); err != nil {
			return err
		}
		s.pending = &snap
		s.playing = false
		s.sel = selection.Timeline(id)
		return nil
	})
}

// DragTrim updates the trim preview for a horizontal displacement of dx pixels
// since BeginTrim. The playhead follows the dragged edge.
func (s *Session) DragTrim(dx float64) (timeline.TrimResult, error) {
	var res timeline.TrimResult
	err := s.update("drag_trim", ChangeGesture, func() error {
		r, err := s.trim.Update(dx, s.tl)
		if err != nil {
			return err
		}
		res = r
		s.playhead = math.Min(math.Max(r.Playhead, 0), previewDuration(s.tl, r.Clip))
		return nil
	})
	return res, err
}

// EndTrim commits the trim candidate.
func (s *Session) EndTrim() (timeline.Clip, error) {
	var committed timeline.Clip
	err := s.update("end_trim", ChangeTimeline, func() error {
		if !s.trim.Active() {
			return ErrNoGesture
		}
		res, err := s.trim.End()
		if err != nil {
			return err
		}
		pending := s.pending
		s.pending = nil

		tl, c, err := timeline.CommitTrim(s.tl, res.Clip, s.registry)
		if err != nil {
			return fmt.Errorf("commit trim: %w", err)
		}
		if pending != nil {
			s.history.SaveState(*pending, "trim")
		}
		s.tl = tl
		s.playhead = s.tl.ClampPlayhead(res.Playhead)
		committed = c
		return nil
	})
	return committed, err
}

// CancelTrim drops the trim preview and restores the playhead.
func (s *Session) CancelTrim() error {
	return s.update("cancel_trim", ChangeGesture, func() error {
		if !s.trim.Active() {
			return ErrNoGesture
		}
		s.abortGesturesLocked()
		return nil
	})
}

// BeginMove starts dragging clip id. Any drag already in progress is
// cancelled first.
func (s *Session) BeginMove(id string) error {
	return s.update("begin_move", ChangeGesture, func() error {
		c, _, ok := s.tl.Find(id)
		if !ok {
			return fmt.Errorf("move %s: %w", id, timeline.ErrClipNotFound)
		}
		s.abortGesturesLocked()
		snap := s.snapshotLocked()
		if err := s.move.Begin(c, s.opts); err != nil {
			return err
		}
		s.pending = &snap
		s.sel = selection.Timeline(id)
		return nil
	})
}

// DragMove updates the move preview for a pointer displacement of (dx, dy)
// pixels since BeginMove.
func (s *Session) DragMove(dx, dy float64) (gesture.MoveCandidate, error) {
	var cand gesture.MoveCandidate
	err := s.update("drag_move", ChangeGesture, func() error {
		c, err := s.move.Update(dx, dy, s.tl)
		if err != nil {
			return err
		}
		cand = c
		return nil
	})
	return cand, err
}

// EndMove commits the move candidate. Overlap with other clips is accepted.
func (s *Session) EndMove() (timeline.Clip, error) {
	var committed timeline.Clip
	err := s.update("end_move", ChangeTimeline, func() error {
		if !s.move.Active() {
			return ErrNoGesture
		}
		cand, err := s.move.End()
		if err != nil {
			return err
		}
		pending := s.pending
		s.pending = nil

		tl, c, err := timeline.Move(s.tl, cand.Clip.ID, cand.Clip.Track, cand.Clip.StartTime, s.registry)
		if err != nil {
			return fmt.Errorf("commit move: %w", err)
		}
		if pending != nil {
			s.history.SaveState(*pending, "move")
		}
		s.tl = tl
		s.playhead = s.tl.ClampPlayhead(s.playhead)
		committed = c
		return nil
	})
	return committed, err
}

func (s *Session) CancelMove() error {
	return s.update("cancel_move", ChangeGesture, func() error {
		if !s.move.Active() {
			return ErrNoGesture
		}
		s.abortGesturesLocked()
		return nil
	})
}

// Split cuts the selected clip at the playhead, selects the right half and
// leaves the playhead on the cut.
func (s *Session) Split() (left, right timeline.Clip, err error) {
	err = s.update("split", ChangeTimeline, func() error {
		id := s.sel.TimelineClipID()
		if id == "" {
			return ErrNoSelection
		}
		at := s.playhead
		tl, l, r, err := timeline.Split(s.tl, id, at)
		if err != nil {
			return fmt.Errorf("split %s at %.3f: %w", id, at, err)
		}
		s.abortGesturesLocked()
		s.saveLocked("split")
		s.tl = tl
		s.sel = selection.Timeline(r.ID)
		s.playhead = s.tl.ClampPlayhead(at)
		left, right = l, r
		return nil
	})
	return left, right, err
}

// DeleteSelected removes the selected clip without shifting later clips.
func (s *Session) DeleteSelected() error {
	return s.update("delete", ChangeTimeline, func() error {
		id := s.sel.TimelineClipID()
		if id == "" {
			return ErrNoSelection
		}
		return s.deleteLocked(id)
	})
}

// DeleteClip removes clip id whether or not it is selected.
func (s *Session) DeleteClip(id string) error {
	return s.update("delete", ChangeTimeline, func() error {
		return s.deleteLocked(id)
	})
}

func (s *Session) deleteLocked(id string) error {
	tl, err := timeline.Delete(s.tl, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	s.abortGesturesLocked()
	s.saveLocked("delete")
	s.tl = tl
	s.sel = s.sel.Prune(s.tl)
	s.playhead = s.tl.ClampPlayhead(s.playhead)
	return nil
}

// Undo restores the previous snapshot. It reports false when history is
// empty.
func (s *Session) Undo() bool {
	return s.restore("undo", s.history.CanUndo, s.history.Undo)
}

// Redo re-applies the last undone snapshot.
func (s *Session) Redo() bool {
	return s.restore("redo", s.history.CanRedo, s.history.Redo)
}

func (s *Session) restore(op string, can func() bool, pop func(history.Snapshot) (history.Snapshot, bool)) bool {
	err := s.update(op, ChangeHistory, func() error {
		if !can() {
			return fmt.Errorf("%s: history empty", op)
		}
		s.abortGesturesLocked()
		snap, ok := pop(s.snapshotLocked())
		if !ok {
			return fmt.Errorf("%s: history empty", op)
		}
		s.tl = snap.Timeline()
		s.playhead = s.tl.ClampPlayhead(snap.Playhead)
		s.sel = s.sel.Prune(s.tl)
		return nil
	})
	return err == nil
}

// previewDuration is the total duration of tl with candidate in place of the
// clip it was derived from.
func previewDuration(tl timeline.Timeline, candidate timeline.Clip) float64 {
	clips := make([]timeline.Clip, len(tl.Clips))
	for i, c := range tl.Clips {
		if c.ID == candidate.ID {
			c = candidate
		}
		clips[i] = c
	}
	return timeline.ComputeTotalDuration(clips)
}

// ExportList returns the committed clips in export order together with the
// ids of clips whose source could not be resolved.
func (s *Session) ExportList() ([]timeline.ExportClip, []string) {
	s.mu.Lock()
	tl := s.tl.Clone()
	s.mu.Unlock()
	return timeline.ExportList(tl, s.registry)
}
