// Package autosave debounces editor changes into a single deferred save.
package autosave

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultDelay is the idle gap after the last user edit before saving.
const DefaultDelay = 2 * time.Second

// Origin tags where an edit came from.
type Origin string

const (
	// OriginUser is typing or pasting by the person at the keyboard.
	OriginUser Origin = "user"
	// OriginAPI is content set programmatically, such as loading a saved draft.
	OriginAPI Origin = "api"
	// OriginSilent is a programmatic change that should not even be observed.
	OriginSilent Origin = "silent"
)

// Scheduler runs its action once after a quiet period following the last
// user edit. Each Arm replaces the pending timer; a generation counter keeps a
// timer that already fired in the background from running a stale action.
// At most one action runs at a time; Exclusive waits for it.
type Scheduler struct {
	mu      sync.Mutex
	run     sync.Mutex
	clock   Clock
	delay   time.Duration
	action  func()
	timer   Timer
	gen     uint64
	stopped bool

	logger zerolog.Logger
}

type Option func(*Scheduler)

func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// New returns a Scheduler that calls action delay after the last user edit.
// A non-positive delay runs the action on every user edit.
func New(delay time.Duration, action func(), opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:  RealClock(),
		delay:  delay,
		action: action,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify reports an edit. Only user edits arm the timer; the return value
// says whether this one did.
func (s *Scheduler) Notify(origin Origin) bool {
	if origin != OriginUser {
		s.logger.Trace().Str("origin", string(origin)).Msg("Ignoring programmatic edit")
		return false
	}
	return s.Arm()
}

// Arm (re)starts the timer, cancelling any pending run.
func (s *Scheduler) Arm() bool {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	s.cancelLocked()

	if s.delay <= 0 {
		s.mu.Unlock()
		s.run.Lock()
		defer s.run.Unlock()
		s.action()
		return true
	}

	gen := s.gen
	s.timer = s.clock.AfterFunc(s.delay, func() { s.fire(gen) })
	s.mu.Unlock()
	return true
}

func (s *Scheduler) fire(gen uint64) {
	s.run.Lock()
	defer s.run.Unlock()

	s.mu.Lock()
	if gen != s.gen || s.timer == nil {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	s.logger.Debug().Dur("delay", s.delay).Msg("Autosave timer elapsed")
	s.action()
}

// CancelPending drops a scheduled run, if any.
func (s *Scheduler) CancelPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked()
}

func (s *Scheduler) cancelLocked() bool {
	s.gen++
	if s.timer == nil {
		return false
	}
	s.timer.Stop()
	s.timer = nil
	return true
}

// Pending reports whether a run is scheduled.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Flush runs a pending action now instead of waiting for the timer.
func (s *Scheduler) Flush() bool {
	s.mu.Lock()
	if !s.cancelLocked() {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	s.run.Lock()
	defer s.run.Unlock()
	s.action()
	return true
}

// Exclusive cancels any pending run, waits for a running action to finish
// and calls fn before another action can start. fn must not call Flush or
// Exclusive.
func (s *Scheduler) Exclusive(fn func()) {
	s.CancelPending()

	s.run.Lock()
	defer s.run.Unlock()
	fn()
}

// Stop cancels any pending run and ignores later edits.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.stopped = true
}
