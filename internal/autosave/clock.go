package autosave

import "time"

// Clock schedules deferred callbacks. Tests substitute a fake that fires on demand.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc callback.
type Timer interface {
	// Stop prevents the callback from running and reports whether it was still pending.
	Stop() bool
}

type realClock struct{}

// RealClock is backed by time.AfterFunc.
func RealClock() Clock {
	return realClock{}
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
