package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/logship/pkg/clock"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestScheduler_Defaults(t *testing.T) {
	s := NewScheduler(clock.Fake(epoch), SchedulerConfig{})

	assert.Equal(t, ModeLinger, s.Mode())
	assert.Equal(t, DefaultLinger, s.Linger())
	assert.False(t, s.IsScheduled())
}

func TestScheduler_DelayPerMode(t *testing.T) {
	c := clock.Fake(epoch)
	s := NewScheduler(c, SchedulerConfig{Linger: 250 * time.Millisecond})

	assert.Equal(t, 250*time.Millisecond, s.Schedule(func(uint64) {}))

	s.SetMode(ModeImmediate)
	assert.Equal(t, time.Duration(0), s.Schedule(func(uint64) {}))

	s.SetMode(ModeError)
	assert.Equal(t, DefaultBackoffBase, s.Schedule(func(uint64) {}))

	assert.Equal(t, 1, c.PendingCount(), "rescheduling must cancel the previous timer")
}

func TestScheduler_BackoffSequence(t *testing.T) {
	s := NewScheduler(clock.Fake(epoch), SchedulerConfig{
		BackoffBase: 500 * time.Millisecond,
		BackoffMax:  30 * time.Second,
	})
	s.SetMode(ModeError)

	want := []time.Duration{
		500 * time.Millisecond,
		time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}
	for i, w := range want {
		assert.Equal(t, w, s.Schedule(func(uint64) {}), "attempt %d", i+1)
	}
	assert.Equal(t, len(want), s.Attempt())

	s.SetMode(ModeLinger)
	assert.Zero(t, s.Attempt())

	s.SetMode(ModeError)
	assert.Equal(t, 500*time.Millisecond, s.Schedule(func(uint64) {}))
}

func TestScheduler_BackoffCapNoOverflow(t *testing.T) {
	s := NewScheduler(clock.Fake(epoch), SchedulerConfig{BackoffBase: time.Hour, BackoffMax: 24 * time.Hour})
	s.SetMode(ModeError)
	for range 200 {
		s.Schedule(func(uint64) {})
	}
	assert.Equal(t, 24*time.Hour, s.Schedule(func(uint64) {}))
}

func TestScheduler_Jitter(t *testing.T) {
	s := NewScheduler(clock.Fake(epoch), SchedulerConfig{BackoffBase: time.Second, Jitter: 0.2})
	s.SetMode(ModeError)

	d := s.Schedule(func(uint64) {})
	assert.GreaterOrEqual(t, d, 800*time.Millisecond)
	assert.LessOrEqual(t, d, 1200*time.Millisecond)
}

func TestScheduler_ClaimRejectsStaleTimers(t *testing.T) {
	c := clock.Fake(epoch)
	s := NewScheduler(c, SchedulerConfig{Linger: time.Second})

	var fired []uint64
	fire := func(seq uint64) { fired = append(fired, seq) }

	s.Schedule(fire)
	first := s.seq
	s.Schedule(fire)
	second := s.seq

	c.Advance(time.Second)
	require.Equal(t, []uint64{second}, fired, "canceled timer must not fire")

	assert.False(t, s.Claim(first))
	assert.True(t, s.Claim(second))
	assert.False(t, s.Claim(second), "a timer can be claimed once")
	assert.False(t, s.IsScheduled())
}

func TestScheduler_CancelPending(t *testing.T) {
	c := clock.Fake(epoch)
	s := NewScheduler(c, SchedulerConfig{})

	fired := false
	s.Schedule(func(uint64) { fired = true })
	s.CancelPending()

	c.Advance(time.Minute)
	assert.False(t, fired)
	assert.False(t, s.IsScheduled())
	assert.Zero(t, c.PendingCount())
}

func TestScheduler_SetLingerIgnoresNegative(t *testing.T) {
	s := NewScheduler(clock.Fake(epoch), SchedulerConfig{Linger: time.Second})
	s.SetLinger(-time.Second)
	assert.Equal(t, time.Second, s.Linger())
	s.SetLinger(0)
	assert.Zero(t, s.Linger())
}
