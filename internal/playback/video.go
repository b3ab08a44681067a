package playback

import (
	"errors"
	"sync"
	"time"

	"github.com/framecut/framecut/internal/timeline"
)

var ErrNoSource = errors.New("no source loaded")

// Video is the preview element the transport drives. Times are in source
// seconds.
type Video interface {
	Load(src timeline.SourceClip) error
	Source() (timeline.SourceClip, bool)
	CurrentTime() float64
	Seek(t float64)
	Play()
	Pause()
	Paused() bool
}

// Clock returns the current time.
type Clock func() time.Time

// ClockVideo is a headless Video whose position advances with a clock while
// playing and stops at the end of the source.
type ClockVideo struct {
	mu  sync.Mutex
	now Clock

	src     timeline.SourceClip
	loaded  bool
	pos     float64
	playing bool
	since   time.Time
}

func NewClockVideo(now Clock) *ClockVideo {
	if now == nil {
		now = time.Now
	}
	return &ClockVideo{now: now}
}

func (v *ClockVideo) Load(src timeline.SourceClip) error {
	if src.ID == "" {
		return ErrNoSource
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.src = src
	v.loaded = true
	v.pos = 0
	v.playing = false
	return nil
}

func (v *ClockVideo) Source() (timeline.SourceClip, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.src, v.loaded
}

func (v *ClockVideo) CurrentTime() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.positionLocked()
}

func (v *ClockVideo) positionLocked() float64 {
	if !v.playing {
		return v.pos
	}
	p := v.pos + v.now().Sub(v.since).Seconds()
	if v.loaded && p > v.src.Duration {
		p = v.src.Duration
	}
	return p
}

func (v *ClockVideo) Seek(t float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if t < 0 {
		t = 0
	}
	if v.loaded && t > v.src.Duration {
		t = v.src.Duration
	}
	v.pos = t
	v.since = v.now()
}

func (v *ClockVideo) Play() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.playing || !v.loaded {
		return
	}
	v.playing = true
	v.since = v.now()
}

func (v *ClockVideo) Pause() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.playing {
		return
	}
	v.pos = v.positionLocked()
	v.playing = false
}

func (v *ClockVideo) Paused() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return !v.playing
}
