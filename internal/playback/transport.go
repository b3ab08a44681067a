package playback

import (
	"log/slog"

	"github.com/framecut/framecut/internal/editor"
	"github.com/framecut/framecut/internal/timeline"
)

// Mode is the transport's current playback mode.
type Mode string

const (
	ModeStopped    Mode = "stopped"
	ModeTimeline   Mode = "timeline"
	ModeSourceLoop Mode = "source_loop"
)

// Transport is the play/pause control shared by the API and the tray. It
// plays the timeline when it has clips and falls back to looping the selected
// library clip.
type Transport struct {
	session  *editor.Session
	registry timeline.SourceRegistry
	sync     *Sync
	loop     *Looper
	logger   *slog.Logger
}

func NewTransport(session *editor.Session, registry timeline.SourceRegistry, video Video, sched FrameScheduler, logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Transport{
		session:  session,
		registry: registry,
		sync:     NewSync(session, registry, video, sched, logger),
		loop:     NewLooper(video, sched),
		logger:   logger,
	}
}

// Play starts playback and reports the resulting mode.
func (t *Transport) Play() Mode {
	if t.sync.Running() {
		return ModeTimeline
	}
	t.loop.Stop()
	if t.sync.Play() {
		t.logger.Debug("timeline playback started", "playhead", t.session.Playhead())
		return ModeTimeline
	}

	lib := t.session.Selection().LibraryClipID()
	if lib == "" {
		return ModeStopped
	}
	src, ok := t.registry.Lookup(lib)
	if !ok {
		return ModeStopped
	}
	if err := t.loop.Start(src); err != nil {
		t.logger.Warn("failed to loop library clip", "source_id", lib, "error", err)
		return ModeStopped
	}
	return ModeSourceLoop
}

// Pause stops whichever mode is running.
func (t *Transport) Pause() {
	t.sync.Pause()
	t.loop.Stop()
}

// Toggle flips between playing and paused.
func (t *Transport) Toggle() Mode {
	if t.Mode() != ModeStopped {
		t.Pause()
		return ModeStopped
	}
	return t.Play()
}

// Seek moves the playhead and, while the timeline plays, the preview with it.
func (t *Transport) Seek(at float64) float64 {
	pos := t.session.Seek(at)
	t.sync.Resync()
	return pos
}

func (t *Transport) Mode() Mode {
	if t.sync.Running() {
		return ModeTimeline
	}
	if _, ok := t.loop.Running(); ok {
		return ModeSourceLoop
	}
	return ModeStopped
}

// Frame resolves the preview for the current session state.
func (t *Transport) Frame() Frame {
	return t.FrameFor(t.session.State())
}

// FrameFor resolves the preview for st, using the live loop position.
func (t *Transport) FrameFor(st editor.State) Frame {
	return ResolvePreview(st, t.registry, t.loop.Position())
}

// Sync exposes the timeline loop.
func (t *Transport) Sync() *Sync { return t.sync }
