package clock

import (
	"slices"
	"sync"
	"time"
)

// FakeClock is a deterministic Clock for tests. Time moves only when
// Advance is called. It is safe for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	seq     uint64
	waiters []*fakeWaiter
}

type fakeWaiter struct {
	deadline time.Time
	seq      uint64 // registration order, breaks deadline ties
	callback func()
	stopped  bool
	fired    bool
}

// Fake returns a FakeClock set to initial.
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Since returns the fake time elapsed since t.
func (c *FakeClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// AfterFunc registers f to run once the clock has advanced by d. A
// non-positive d fires on the next Advance.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d < 0 {
		d = 0
	}
	c.seq++
	w := &fakeWaiter{
		deadline: c.current.Add(d),
		seq:      c.seq,
		callback: f,
	}
	c.waiters = append(c.waiters, w)
	return &fakeTimer{clock: c, waiter: w}
}

// Advance moves the clock forward by d and runs every callback whose
// deadline is reached, in deadline order. Before each callback the clock is
// set to that callback's deadline, so timers armed by a callback count from
// the moment it fired; those also run before Advance returns when their
// deadline falls within d. Callbacks run synchronously on the calling
// goroutine.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.current.Add(d)
	c.mu.Unlock()

	for {
		w := c.popDue(target)
		if w == nil {
			break
		}
		w.callback()
	}

	c.mu.Lock()
	if target.After(c.current) {
		c.current = target
	}
	c.mu.Unlock()
}

// popDue removes the earliest waiter due by target, moves the clock to its
// deadline and returns it. It returns nil when nothing is due.
func (c *FakeClock) popDue(target time.Time) *fakeWaiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := -1
	for i, w := range c.waiters {
		if w.stopped || w.deadline.After(target) {
			continue
		}
		if next < 0 || w.deadline.Before(c.waiters[next].deadline) ||
			(w.deadline.Equal(c.waiters[next].deadline) && w.seq < c.waiters[next].seq) {
			next = i
		}
	}
	if next < 0 {
		c.waiters = slices.DeleteFunc(c.waiters, func(w *fakeWaiter) bool { return w.stopped })
		return nil
	}

	w := c.waiters[next]
	c.waiters = slices.Delete(c.waiters, next, next+1)
	w.fired = true
	if w.deadline.After(c.current) {
		c.current = w.deadline
	}
	return w
}

// PendingCount returns the number of timers armed and not yet fired or stopped.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, w := range c.waiters {
		if !w.stopped {
			n++
		}
	}
	return n
}

// NextDeadline returns the time until the earliest pending timer fires.
// ok is false when nothing is pending.
func (c *FakeClock) NextDeadline() (d time.Duration, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var earliest time.Time
	for _, w := range c.waiters {
		if w.stopped {
			continue
		}
		if !ok || w.deadline.Before(earliest) {
			earliest = w.deadline
			ok = true
		}
	}
	if !ok {
		return 0, false
	}
	return earliest.Sub(c.current), true
}

type fakeTimer struct {
	clock  *FakeClock
	waiter *fakeWaiter
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.waiter.stopped || t.waiter.fired {
		return false
	}
	t.waiter.stopped = true
	return true
}
