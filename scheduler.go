package ink

import (
	"sync"
	"time"
)

// DefaultFrameInterval approximates a 60Hz display refresh.
const DefaultFrameInterval = 16 * time.Millisecond

// Scheduler coalesces bursts of repaint requests.
//
// The contract is: at most one callback is pending at a time, and when
// it fires it observes the latest state. A burst of requests within
// one frame collapses into a single callback; the callback itself
// reads current state, so the final request of the burst is never
// lost. Cancel drops a pending callback without side effects.
type Scheduler interface {
	// Request schedules fn to run soon. If a callback is already
	// pending, fn replaces it rather than queueing a second one.
	Request(fn func())

	// Cancel drops the pending callback, if any.
	Cancel()
}

// FrameScheduler coalesces requests onto a fixed frame cadence using a
// timer. The callback fires on the timer's goroutine.
type FrameScheduler struct {
	mu       sync.Mutex
	interval time.Duration
	pending  bool
	fn       func()
}

// NewFrameScheduler creates a scheduler that fires at most once per
// interval. Non-positive intervals use DefaultFrameInterval.
func NewFrameScheduler(interval time.Duration) *FrameScheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &FrameScheduler{interval: interval}
}

// Request implements Scheduler.
func (s *FrameScheduler) Request(fn func()) {
	s.mu.Lock()
	s.fn = fn
	if s.pending {
		s.mu.Unlock()
		return
	}
	s.pending = true
	s.mu.Unlock()

	time.AfterFunc(s.interval, s.fire)
}

func (s *FrameScheduler) fire() {
	s.mu.Lock()
	fn := s.fn
	s.fn = nil
	s.pending = false
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Cancel implements Scheduler. A timer may still fire after Cancel,
// but it finds no callback and does nothing.
func (s *FrameScheduler) Cancel() {
	s.mu.Lock()
	s.fn = nil
	s.mu.Unlock()
}

// DirectScheduler runs every request synchronously with no
// coalescing. Useful in tests and batch export paths where there is
// no display to pace against.
type DirectScheduler struct{}

// Request implements Scheduler by invoking fn immediately.
func (DirectScheduler) Request(fn func()) {
	if fn != nil {
		fn()
	}
}

// Cancel implements Scheduler as a no-op.
func (DirectScheduler) Cancel() {}
