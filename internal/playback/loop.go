package playback

import (
	"sync"

	"github.com/framecut/framecut/internal/timeline"
)

// Looper plays a single library clip over its whole range, restarting at zero
// whenever it reaches the end. It never touches the timeline playhead.
type Looper struct {
	mu sync.Mutex

	video Video
	sched FrameScheduler

	running  bool
	sourceID string
	cancel   func()
	gen      uint64
}

func NewLooper(video Video, sched FrameScheduler) *Looper {
	return &Looper{video: video, sched: sched}
}

// Start loads src and loops it until Stop.
func (l *Looper) Start(src timeline.SourceClip) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stopLocked()
	if err := l.video.Load(src); err != nil {
		return err
	}
	l.video.Seek(0)
	l.video.Play()
	l.running = true
	l.sourceID = src.ID
	l.scheduleLocked()
	return nil
}

func (l *Looper) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
}

// Running reports whether a clip is looping and which one.
func (l *Looper) Running() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sourceID, l.running
}

// Position is the source time of the looping clip.
func (l *Looper) Position() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return 0
	}
	return l.video.CurrentTime()
}

func (l *Looper) stopLocked() {
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	if l.running {
		l.video.Pause()
	}
	l.gen++
	l.running = false
	l.sourceID = ""
}

func (l *Looper) scheduleLocked() {
	l.gen++
	gen := l.gen
	l.cancel = l.sched.Request(func() { l.tick(gen) })
}

func (l *Looper) tick(gen uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running || gen != l.gen {
		return
	}
	src, ok := l.video.Source()
	if !ok {
		l.stopLocked()
		return
	}
	if l.video.CurrentTime() >= src.Duration-endEpsilon {
		l.video.Seek(0)
	}
	l.scheduleLocked()
}
