package playback

import (
	"log/slog"
	"sync"

	"github.com/framecut/framecut/internal/timeline"
)

// endEpsilon treats a source position this close to trimEnd as finished.
const endEpsilon = 1e-3

// Session is the state the transport reads and writes. *editor.Session
// satisfies it.
type Session interface {
	Timeline() timeline.Timeline
	Playhead() float64
	Playing() bool
	SetPlayback(playhead float64, playing bool)
	SetPlaying(playing bool)
}

// Sync keeps the session playhead locked to the preview video while the
// timeline plays.
//
// Each frame it reads the source position, maps it through the active Main
// clip back to timeline time and writes that to the session. When the clip
// reaches its trimEnd the next Main clip starting at or after its end is
// loaded; when there is none playback stops. Every tick is a one-shot frame
// request that re-registers itself while playing.
//
// Sync calls into Session while holding its own lock. Session subscribers must
// therefore never call back into Sync synchronously.
type Sync struct {
	mu sync.Mutex

	session  Session
	registry timeline.SourceRegistry
	video    Video
	sched    FrameScheduler
	logger   *slog.Logger

	running bool
	// active is the Main clip as it was when loaded into the preview.
	active timeline.Clip
	cancel func()
	gen    uint64
}

func NewSync(session Session, registry timeline.SourceRegistry, video Video, sched FrameScheduler, logger *slog.Logger) *Sync {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sync{
		session:  session,
		registry: registry,
		video:    video,
		sched:    sched,
		logger:   logger,
	}
}

// Running reports whether the loop is active.
func (s *Sync) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// ActiveClipID is the Main clip currently loaded in the preview.
func (s *Sync) ActiveClipID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active.ID
}

func (s *Sync) playable(c timeline.Clip) bool {
	_, ok := s.registry.Lookup(c.SourceID)
	return ok
}

// resolve finds the Main clip to play from playhead: the clip under it, or
// the next clip after a gap. Clips with missing sources are skipped.
func (s *Sync) resolve(tl timeline.Timeline, playhead float64) (timeline.Clip, float64, bool) {
	if c, ok := tl.ClipAtWhere(timeline.TrackMain, playhead, s.playable); ok {
		return c, playhead, true
	}
	if c, ok := tl.NextOnTrackWhere(timeline.TrackMain, playhead, s.playable); ok {
		return c, c.StartTime, true
	}
	return timeline.Clip{}, 0, false
}

// Play starts timeline playback from the session playhead. A playhead at the
// end of the content rewinds to zero. It returns false, leaving everything
// untouched, when the timeline has nothing playable on Main.
func (s *Sync) Play() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return true
	}

	tl := s.session.Timeline()
	if tl.IsEmpty() {
		return false
	}

	playhead := s.session.Playhead()
	if playhead >= tl.ContentEnd()-endEpsilon {
		playhead = 0
	}

	clip, at, ok := s.resolve(tl, playhead)
	if !ok {
		s.logger.Debug("nothing playable on main track", "playhead", playhead)
		return false
	}
	if !s.loadLocked(clip, clip.SourceTimeAt(at)) {
		return false
	}

	s.running = true
	s.session.SetPlayback(at, true)
	s.scheduleLocked()
	return true
}

// Pause stops the loop and the video, keeping the playhead where it is.
func (s *Sync) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.stopLocked()
	s.session.SetPlaying(false)
}

// Toggle plays when paused and pauses when playing. It reports whether the
// timeline is playing afterwards.
func (s *Sync) Toggle() bool {
	if s.Running() {
		s.Pause()
		return false
	}
	return s.Play()
}

// Resync reloads the preview from the session playhead after a seek or an
// edit. It does nothing while paused.
func (s *Sync) Resync() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	tl := s.session.Timeline()
	clip, at, ok := s.resolve(tl, s.session.Playhead())
	if !ok || !s.loadLocked(clip, clip.SourceTimeAt(at)) {
		s.stopLocked()
		s.session.SetPlaying(false)
		return
	}
	s.session.SetPlayback(at, true)
}

func (s *Sync) loadLocked(clip timeline.Clip, sourceTime float64) bool {
	src, ok := s.registry.Lookup(clip.SourceID)
	if !ok {
		return false
	}
	if cur, loaded := s.video.Source(); !loaded || cur.ID != src.ID {
		if err := s.video.Load(src); err != nil {
			s.logger.Warn("failed to load preview source", "source_id", src.ID, "error", err)
			return false
		}
	}
	s.video.Seek(sourceTime)
	s.video.Play()
	s.active = clip
	return true
}

func (s *Sync) scheduleLocked() {
	s.gen++
	gen := s.gen
	s.cancel = s.sched.Request(func() { s.tick(gen) })
}

func (s *Sync) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	s.running = false
	s.active = timeline.Clip{}
	s.video.Pause()
}

func (s *Sync) tick(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || gen != s.gen {
		return
	}
	// Someone else paused through the session, e.g. a trim drag began.
	if !s.session.Playing() {
		s.stopLocked()
		return
	}

	tl := s.session.Timeline()
	playhead := s.session.Playhead()
	clip, _, ok := tl.Find(s.active.ID)
	if !ok || clip != s.active || clip.Track != timeline.TrackMain ||
		!clip.Contains(playhead) || !s.playable(clip) {
		// The active clip was edited since it was loaded; pick up from the
		// playhead.
		next, at, found := s.resolve(tl, playhead)
		if !found || !s.loadLocked(next, next.SourceTimeAt(at)) {
			s.stopLocked()
			s.session.SetPlayback(playhead, false)
			return
		}
		s.session.SetPlayback(at, true)
		s.scheduleLocked()
		return
	}

	srcTime := s.video.CurrentTime()
	if srcTime < clip.TrimEnd-endEpsilon {
		s.session.SetPlayback(clip.TimelineTimeAt(srcTime), true)
		s.scheduleLocked()
		return
	}

	next, ok := tl.NextOnTrackWhere(timeline.TrackMain, clip.End(), func(c timeline.Clip) bool {
		return c.ID != clip.ID && s.playable(c)
	})
	if ok && s.loadLocked(next, next.TrimStart) {
		s.session.SetPlayback(next.StartTime, true)
		s.scheduleLocked()
		return
	}

	end := clip.End()
	s.stopLocked()
	s.session.SetPlayback(end, false)
}
