// Package clock provides an injectable time source for the shipper.
//
// The scheduler never calls the time package directly. Production code uses
// Real(); tests use Fake() and move time forward explicitly with Advance, so
// linger and back-off delays can be asserted without sleeping.
//
// # Usage
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	t := c.AfterFunc(500*time.Millisecond, flush)
//	c.Advance(500 * time.Millisecond) // flush runs here, synchronously
//
// Unlike time.AfterFunc, the fake never runs a callback from inside
// AfterFunc itself, even for a zero delay: the callback runs on the next
// Advance call (Advance(0) is enough). Callers may therefore arm timers while
// holding their own locks.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package clock
