package autosave

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	calls int
	state *string
	seen  []string
}

func (r *recorder) action() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.state != nil {
		r.seen = append(r.seen, *r.state)
	}
}

func TestSchedulerDebouncesUserEdits(t *testing.T) {
	clock := NewFakeClock()
	state := ""
	rec := &recorder{state: &state}
	s := New(DefaultDelay, rec.action, WithClock(clock))

	for _, text := range []string{"H", "Ha", "Hal", "Hallo"} {
		state = text
		if !s.Notify(OriginUser) {
			t.Fatal("Expected user edit to arm the timer")
		}
		clock.Advance(500 * time.Millisecond)
	}

	if rec.calls != 0 {
		t.Fatalf("Expected no save while edits keep coming, got %d", rec.calls)
	}

	clock.Advance(1500 * time.Millisecond)

	if rec.calls != 1 {
		t.Fatalf("Expected exactly one save, got %d", rec.calls)
	}
	if rec.seen[0] != "Hallo" {
		t.Errorf("Expected save of the last state, got %q", rec.seen[0])
	}
	if s.Pending() {
		t.Error("Expected nothing pending after the save")
	}

	clock.Advance(10 * time.Second)
	if rec.calls != 1 {
		t.Errorf("Expected no further saves, got %d", rec.calls)
	}
}

func TestSchedulerIgnoresProgrammaticEdits(t *testing.T) {
	clock := NewFakeClock()
	rec := &recorder{}
	s := New(DefaultDelay, rec.action, WithClock(clock))

	for _, origin := range []Origin{OriginAPI, OriginSilent, Origin("")} {
		if s.Notify(origin) {
			t.Errorf("Expected origin %q not to arm the timer", origin)
		}
	}
	clock.Advance(time.Minute)

	if rec.calls != 0 {
		t.Errorf("Expected no saves, got %d", rec.calls)
	}
}

func TestSchedulerProgrammaticEditDoesNotCancel(t *testing.T) {
	clock := NewFakeClock()
	rec := &recorder{}
	s := New(DefaultDelay, rec.action, WithClock(clock))

	s.Notify(OriginUser)
	clock.Advance(time.Second)
	s.Notify(OriginAPI)
	clock.Advance(time.Second)

	if rec.calls != 1 {
		t.Errorf("Expected the pending user save to run on schedule, got %d", rec.calls)
	}
}

func TestSchedulerCancelPending(t *testing.T) {
	clock := NewFakeClock()
	rec := &recorder{}
	s := New(DefaultDelay, rec.action, WithClock(clock))

	s.Arm()
	if !s.CancelPending() {
		t.Error("Expected CancelPending to report a pending run")
	}
	if s.CancelPending() {
		t.Error("Expected second CancelPending to find nothing")
	}
	clock.Advance(time.Minute)

	if rec.calls != 0 {
		t.Errorf("Expected cancelled run not to happen, got %d", rec.calls)
	}
	if clock.Pending() != 0 {
		t.Errorf("Expected underlying timer to be stopped, %d pending", clock.Pending())
	}
}

func TestSchedulerFlush(t *testing.T) {
	clock := NewFakeClock()
	rec := &recorder{}
	s := New(DefaultDelay, rec.action, WithClock(clock))

	if s.Flush() {
		t.Error("Expected Flush with nothing pending to do nothing")
	}

	s.Notify(OriginUser)
	if !s.Flush() {
		t.Error("Expected Flush to run the pending action")
	}
	clock.Advance(time.Minute)

	if rec.calls != 1 {
		t.Errorf("Expected exactly one run, got %d", rec.calls)
	}
}

func TestSchedulerStop(t *testing.T) {
	clock := NewFakeClock()
	rec := &recorder{}
	s := New(DefaultDelay, rec.action, WithClock(clock))

	s.Notify(OriginUser)
	s.Stop()
	if s.Notify(OriginUser) {
		t.Error("Expected a stopped scheduler to ignore edits")
	}
	clock.Advance(time.Minute)

	if rec.calls != 0 {
		t.Errorf("Expected no runs after Stop, got %d", rec.calls)
	}
}

func TestSchedulerStaleFireIsDropped(t *testing.T) {
	clock := NewFakeClock()
	rec := &recorder{}
	s := New(DefaultDelay, rec.action, WithClock(clock))

	s.Arm()
	stale := s.gen
	s.Arm()

	// A timer that raced past Stop still calls fire with its old generation.
	s.fire(stale)
	if rec.calls != 0 {
		t.Fatalf("Expected stale fire to be ignored, got %d", rec.calls)
	}

	clock.Advance(DefaultDelay)
	if rec.calls != 1 {
		t.Errorf("Expected the current timer to run once, got %d", rec.calls)
	}
}

func TestSchedulerExclusive(t *testing.T) {
	t.Run("Cancels the pending run", func(t *testing.T) {
		clock := NewFakeClock()
		rec := &recorder{}
		s := New(DefaultDelay, rec.action, WithClock(clock))

		s.Notify(OriginUser)
		ran := false
		s.Exclusive(func() { ran = true })
		clock.Advance(DefaultDelay)

		if !ran {
			t.Error("Expected fn to run")
		}
		if rec.calls != 0 {
			t.Errorf("Expected the pending save to be dropped, got %d calls", rec.calls)
		}
	})

	t.Run("Waits for an action already running", func(t *testing.T) {
		clock := NewFakeClock()
		started := make(chan struct{})
		release := make(chan struct{})
		var order []string
		var mu sync.Mutex
		note := func(what string) {
			mu.Lock()
			order = append(order, what)
			mu.Unlock()
		}

		s := New(DefaultDelay, func() {
			close(started)
			<-release
			note("save")
		}, WithClock(clock))

		s.Notify(OriginUser)
		go clock.Advance(DefaultDelay)
		<-started

		done := make(chan struct{})
		go func() {
			s.Exclusive(func() { note("reset") })
			close(done)
		}()

		select {
		case <-done:
			t.Fatal("Expected Exclusive to wait for the running save")
		case <-time.After(50 * time.Millisecond):
		}

		close(release)
		<-done

		mu.Lock()
		defer mu.Unlock()
		if len(order) != 2 || order[0] != "save" || order[1] != "reset" {
			t.Errorf("Expected save before reset, got %v", order)
		}
	})
}

func TestSchedulerZeroDelayRunsImmediately(t *testing.T) {
	rec := &recorder{}
	s := New(0, rec.action)

	s.Notify(OriginUser)
	if rec.calls != 1 {
		t.Errorf("Expected immediate run, got %d", rec.calls)
	}
}

func TestSchedulerRealClock(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{})
	s := New(20*time.Millisecond, func() {
		if calls.Add(1) == 1 {
			close(done)
		}
	})

	for i := 0; i < 5; i++ {
		s.Notify(OriginUser)
		time.Sleep(2 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for the debounced action")
	}
	time.Sleep(60 * time.Millisecond)

	if n := calls.Load(); n != 1 {
		t.Errorf("Expected exactly one run, got %d", n)
	}
}
