package playback

import (
	"sync"
	"time"
)

// DefaultFrameRate drives the preview loop when none is configured.
const DefaultFrameRate = 30.0

// FrameScheduler runs a callback once at the next frame boundary. Loops that
// need continuous ticks re-request from inside the callback.
type FrameScheduler interface {
	Request(fn func()) (cancel func())
}

// TimerScheduler schedules each frame as a one-shot timer.
type TimerScheduler struct {
	interval time.Duration
}

func NewTimerScheduler(fps float64) *TimerScheduler {
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	return &TimerScheduler{interval: time.Duration(float64(time.Second) / fps)}
}

func (s *TimerScheduler) Interval() time.Duration { return s.interval }

func (s *TimerScheduler) Request(fn func()) func() {
	t := time.AfterFunc(s.interval, fn)
	return func() { t.Stop() }
}

// ManualScheduler queues requests until Step is called. It lets callers drive
// the loop deterministically, one frame at a time.
type ManualScheduler struct {
	mu      sync.Mutex
	pending []*manualRequest
}

type manualRequest struct {
	fn        func()
	cancelled bool
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) Request(fn func()) func() {
	req := &manualRequest{fn: fn}
	s.mu.Lock()
	s.pending = append(s.pending, req)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		req.cancelled = true
		s.mu.Unlock()
	}
}

// Step runs every callback requested before the call and returns how many
// ran. Callbacks requested while stepping wait for the next Step.
func (s *ManualScheduler) Step() int {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	ran := 0
	for _, req := range batch {
		s.mu.Lock()
		cancelled := req.cancelled
		s.mu.Unlock()
		if cancelled {
			continue
		}
		req.fn()
		ran++
	}
	return ran
}

// Pending counts live requests.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, req := range s.pending {
		if !req.cancelled {
			n++
		}
	}
	return n
}
