package clock

import (
	"sync"
	"time"
)

// Fake is a manually advanced clock.
//
// Tickers and timers registered on a Fake fire only from Advance, in
// chronological order. Tickers use a one-slot channel and drop ticks when the
// receiver is behind, matching time.Ticker.
//
// Thread-safety: all methods are safe for concurrent use. Timer callbacks run
// on the goroutine that called Advance, outside the internal lock.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
	timers  []*fakeTimer
}

// NewFake creates a fake clock starting at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the current virtual time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// NewTicker registers a ticker whose first tick is due one period from now.
// Panics if d is not positive, like time.NewTicker.
func (f *Fake) NewTicker(d time.Duration) Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	t := &fakeTicker{
		clock:  f,
		period: d,
		next:   f.now.Add(d),
		ch:     make(chan time.Time, 1),
	}
	f.tickers = append(f.tickers, t)
	return t
}

// AfterFunc schedules fn to run once d has elapsed in virtual time.
func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()

	t := &fakeTimer{clock: f, at: f.now.Add(d), fn: fn}
	f.timers = append(f.timers, t)
	return t
}

// Tickers returns the number of active tickers.
// Tests use it to wait until a goroutine has finished its setup.
func (f *Fake) Tickers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tickers)
}

// PendingTimers returns the number of timers that have not fired or been stopped.
func (f *Fake) PendingTimers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}

// Advance moves virtual time forward by d, firing every ticker and timer
// that falls due along the way in chronological order.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)

	for {
		at, ticker, timer := f.nextDueLocked(target)
		if ticker == nil && timer == nil {
			break
		}
		f.now = at

		if ticker != nil {
			select {
			case ticker.ch <- at:
			default:
			}
			ticker.next = ticker.next.Add(ticker.period)
			continue
		}

		f.removeTimerLocked(timer)
		f.mu.Unlock()
		timer.fn()
		f.mu.Lock()
	}

	f.now = target
	f.mu.Unlock()
}

// nextDueLocked returns the earliest ticker or timer due at or before target.
// Timers win ties so that a dismissal scheduled for the same instant as a
// tick runs first.
func (f *Fake) nextDueLocked(target time.Time) (time.Time, *fakeTicker, *fakeTimer) {
	var (
		best       time.Time
		bestTicker *fakeTicker
		bestTimer  *fakeTimer
	)
	for _, t := range f.timers {
		if t.at.After(target) {
			continue
		}
		if bestTimer == nil || t.at.Before(best) {
			best, bestTimer = t.at, t
		}
	}
	for _, t := range f.tickers {
		if t.next.After(target) {
			continue
		}
		if (bestTimer == nil && bestTicker == nil) || t.next.Before(best) {
			best, bestTicker, bestTimer = t.next, t, nil
		}
	}
	return best, bestTicker, bestTimer
}

func (f *Fake) removeTimerLocked(t *fakeTimer) bool {
	for i, other := range f.timers {
		if other == t {
			f.timers = append(f.timers[:i], f.timers[i+1:]...)
			return true
		}
	}
	return false
}

func (f *Fake) removeTicker(t *fakeTicker) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, other := range f.tickers {
		if other == t {
			f.tickers = append(f.tickers[:i], f.tickers[i+1:]...)
			return
		}
	}
}

type fakeTicker struct {
	clock  *Fake
	period time.Duration
	next   time.Time
	ch     chan time.Time
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               { t.clock.removeTicker(t) }

type fakeTimer struct {
	clock *Fake
	at    time.Time
	fn    func()
}

// Stop cancels the timer. Returns false if it already fired or was stopped.
func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	return t.clock.removeTimerLocked(t)
}
