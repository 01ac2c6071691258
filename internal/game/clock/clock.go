// Package clock abstracts wall-clock time so that fire-rate gates, reload
// timers, and per-actor movement deltas can be driven deterministically in tests.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Clock is the time provider for the combat simulation.
//
// Implementations MUST be safe for concurrent use.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// After returns a channel that receives the current time once d has elapsed.
	After(d time.Duration) <-chan time.Time
	// NewTicker returns a Ticker delivering a tick every d.
	NewTicker(d time.Duration) Ticker
}

// Ticker delivers periodic ticks on C until stopped. Like time.Ticker, a slow
// reader drops ticks rather than queueing them.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type systemClock struct{}

// System returns a Clock backed by the time package.
func System() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (systemClock) NewTicker(d time.Duration) Ticker { return systemTicker{t: time.NewTicker(d)} }

type systemTicker struct{ t *time.Ticker }

func (s systemTicker) C() <-chan time.Time { return s.t.C }

func (s systemTicker) Stop() { s.t.Stop() }

type waiter struct {
	deadline time.Time
	ch       chan time.Time
}

// Manual is a Clock whose time only moves when Advance or Set is called.
//
// Invariant: every pending After channel whose deadline is <= Now has been fired.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	waiters []waiter
	tickers map[*manualTicker]struct{}
}

type manualTicker struct {
	m      *Manual
	period time.Duration
	next   time.Time
	ch     chan time.Time
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	delete(t.m.tickers, t)
}

// NewManual returns a Manual clock reading start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start, tickers: make(map[*manualTicker]struct{})}
}

// Now returns the manual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// After returns a buffered channel fired when the manual time reaches now+d.
//
// Postcondition: for d <= 0 the channel has already received a value.
func (m *Manual) After(d time.Duration) <-chan time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan time.Time, 1)
	deadline := m.now.Add(d)
	if d <= 0 {
		ch <- m.now
		return ch
	}
	m.waiters = append(m.waiters, waiter{deadline: deadline, ch: ch})
	return ch
}

// NewTicker returns a Ticker that fires each time the manual time crosses the
// next multiple of d after the ticker was created. One Advance spanning several
// periods delivers a single tick.
//
// Precondition: d > 0.
func (m *Manual) NewTicker(d time.Duration) Ticker {
	if d <= 0 {
		panic("clock.Manual.NewTicker: d must be > 0")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTicker{m: m, period: d, next: m.now.Add(d), ch: make(chan time.Time, 1)}
	m.tickers[t] = struct{}{}
	return t
}

// Advance moves the clock forward by d and fires any due waiters.
//
// Precondition: d >= 0.
func (m *Manual) Advance(d time.Duration) {
	if d < 0 {
		panic("clock.Manual.Advance: d must be >= 0")
	}
	m.mu.Lock()
	t := m.now.Add(d)
	m.mu.Unlock()
	m.Set(t)
}

// Set moves the clock to t and fires any due waiters and tickers. Moving backwards is allowed
// and fires nothing.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	var due, pending []waiter
	for _, w := range m.waiters {
		if !w.deadline.After(t) {
			due = append(due, w)
		} else {
			pending = append(pending, w)
		}
	}
	m.waiters = pending

	var ticks []chan time.Time
	for tk := range m.tickers {
		if tk.next.After(t) {
			continue
		}
		for !tk.next.After(t) {
			tk.next = tk.next.Add(tk.period)
		}
		ticks = append(ticks, tk.ch)
	}
	m.mu.Unlock()

	for _, ch := range ticks {
		select {
		case ch <- t:
		default:
		}
	}

	sort.Slice(due, func(i, j int) bool { return due[i].deadline.Before(due[j].deadline) })
	for _, w := range due {
		w.ch <- t
	}
}

// Pending returns the number of After channels not yet fired.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waiters)
}
