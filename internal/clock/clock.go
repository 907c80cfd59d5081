// Package clock abstracts wall time and periodic scheduling so that the
// synchronization loop can run against virtual time in tests.
package clock

import "time"

// Clock allows injecting time and timers into the sync loop.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
	AfterFunc(d time.Duration, f func()) Timer
}

// Ticker delivers ticks at a fixed period. Like time.Ticker, slow receivers
// miss ticks rather than queueing them.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Timer is a cancellable one-shot callback.
type Timer interface {
	Stop() bool
}

type systemClock struct{}

// System returns a clock backed by the time package.
func System() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) NewTicker(d time.Duration) Ticker {
	return systemTicker{t: time.NewTicker(d)}
}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type systemTicker struct {
	t *time.Ticker
}

func (s systemTicker) C() <-chan time.Time { return s.t.C }
func (s systemTicker) Stop()               { s.t.Stop() }
