package chain

import (
	"slices"
	"sync"
	"time"
)

// Scheduler runs deferred callbacks. At most one callback per key is
// outstanding; scheduling an existing key replaces the previous callback.
type Scheduler interface {
	// Schedule arranges for fn to run once after delay.
	Schedule(key string, delay time.Duration, fn func())

	// Cancel drops the callback for key and reports whether one was pending.
	Cancel(key string) bool
}

// =============================================================================
// Timeline - virtual clock
// =============================================================================

// Timeline is a Scheduler driven by an explicit virtual clock. Callbacks run
// synchronously inside Advance or Flush on the caller's goroutine, in due-time
// order with ties broken by scheduling order.
//
// Timeline is not safe for concurrent use.
type Timeline struct {
	now     time.Duration
	seq     uint64
	pending map[string]*pendingCall
}

type pendingCall struct {
	key string
	at  time.Duration
	seq uint64
	fn  func()
}

// maxFlushSteps bounds Flush against callbacks that keep rescheduling.
const maxFlushSteps = 10_000

// NewTimeline creates a timeline starting at zero.
func NewTimeline() *Timeline {
	return &Timeline{pending: make(map[string]*pendingCall)}
}

// Now returns the current virtual time.
func (t *Timeline) Now() time.Duration { return t.now }

// Pending returns the number of outstanding callbacks.
func (t *Timeline) Pending() int { return len(t.pending) }

// Schedule implements Scheduler.
func (t *Timeline) Schedule(key string, delay time.Duration, fn func()) {
	if delay < 0 {
		delay = 0
	}
	t.seq++
	t.pending[key] = &pendingCall{key: key, at: t.now + delay, seq: t.seq, fn: fn}
}

// Cancel implements Scheduler.
func (t *Timeline) Cancel(key string) bool {
	if _, ok := t.pending[key]; !ok {
		return false
	}
	delete(t.pending, key)
	return true
}

// Advance moves the clock forward by d, running every callback that falls due,
// including callbacks scheduled by earlier callbacks within the window.
// It returns the number of callbacks run.
func (t *Timeline) Advance(d time.Duration) int {
	if d < 0 {
		d = 0
	}
	target := t.now + d
	fired := 0
	for {
		next := t.earliest()
		if next == nil || next.at > target {
			break
		}
		delete(t.pending, next.key)
		t.now = next.at
		next.fn()
		fired++
	}
	t.now = target
	return fired
}

// Flush runs callbacks until none are pending, advancing the clock to each
// due time. It returns the number of callbacks run.
func (t *Timeline) Flush() int {
	fired := 0
	for fired < maxFlushSteps {
		next := t.earliest()
		if next == nil {
			break
		}
		fired += t.Advance(next.at - t.now)
	}
	return fired
}

func (t *Timeline) earliest() *pendingCall {
	if len(t.pending) == 0 {
		return nil
	}
	calls := make([]*pendingCall, 0, len(t.pending))
	for _, c := range t.pending {
		calls = append(calls, c)
	}
	return slices.MinFunc(calls, func(a, b *pendingCall) int {
		if a.at != b.at {
			if a.at < b.at {
				return -1
			}
			return 1
		}
		if a.seq < b.seq {
			return -1
		}
		if a.seq > b.seq {
			return 1
		}
		return 0
	})
}

var _ Scheduler = (*Timeline)(nil)

// =============================================================================
// TimerScheduler - wall clock
// =============================================================================

// TimerScheduler is a Scheduler backed by time.AfterFunc. Each callback runs
// while holding the Locker given to NewTimerScheduler, so callbacks serialize
// with any other code that takes the same lock before touching the Builder.
type TimerScheduler struct {
	mu     sync.Mutex
	lock   sync.Locker
	timers map[string]*time.Timer
}

// NewTimerScheduler creates a wall-clock scheduler guarded by lock.
func NewTimerScheduler(lock sync.Locker) *TimerScheduler {
	return &TimerScheduler{
		lock:   lock,
		timers: make(map[string]*time.Timer),
	}
}

// Schedule implements Scheduler.
func (s *TimerScheduler) Schedule(key string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.timers[key]; ok {
		prev.Stop()
	}
	var tm *time.Timer
	tm = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.timers[key] != tm {
			s.mu.Unlock()
			return
		}
		delete(s.timers, key)
		s.mu.Unlock()

		s.lock.Lock()
		defer s.lock.Unlock()
		fn()
	})
	s.timers[key] = tm
}

// Cancel implements Scheduler.
func (s *TimerScheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	tm, ok := s.timers[key]
	if !ok {
		return false
	}
	delete(s.timers, key)
	return tm.Stop()
}

// Pending returns the number of outstanding callbacks.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every outstanding callback.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, tm := range s.timers {
		tm.Stop()
		delete(s.timers, key)
	}
}

var _ Scheduler = (*TimerScheduler)(nil)
