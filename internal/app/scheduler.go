package app

import (
	"math/rand"
	"time"

	"github.com/bft-labs/logship/pkg/clock"
)

// Default scheduling values.
const (
	DefaultLinger      = 500 * time.Millisecond
	DefaultBackoffBase = 500 * time.Millisecond
	DefaultBackoffMax  = 30 * time.Second
)

// Mode selects how long the Scheduler waits before the next flush.
type Mode int

const (
	// ModeLinger waits the linger period so close-together records share a batch.
	ModeLinger Mode = iota
	// ModeImmediate fires on the next tick to drain a backlog.
	ModeImmediate
	// ModeError backs off exponentially while the endpoint is failing.
	ModeError
)

// String returns a human-readable representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeLinger:
		return "linger"
	case ModeImmediate:
		return "immediate"
	case ModeError:
		return "error"
	default:
		return "unknown"
	}
}

// SchedulerConfig configures a Scheduler. Zero durations take the defaults.
type SchedulerConfig struct {
	Linger      time.Duration
	BackoffBase time.Duration
	BackoffMax  time.Duration
	// Jitter spreads error-mode delays by ±Jitter (0.2 = ±20%). Zero keeps
	// the back-off sequence exact.
	Jitter float64
}

// Scheduler decides when the next flush runs. It owns at most one pending
// timer; arming a new one cancels the previous.
//
// Scheduler is not safe for concurrent use; the Dispatcher guards it.
type Scheduler struct {
	clock   clock.Clock
	linger  time.Duration
	base    time.Duration
	max     time.Duration
	jitter  float64
	mode    Mode
	attempt int
	timer   clock.Timer
	seq     uint64
}

// NewScheduler creates a scheduler in linger mode.
func NewScheduler(c clock.Clock, cfg SchedulerConfig) *Scheduler {
	if c == nil {
		c = clock.Real()
	}
	if cfg.Linger <= 0 {
		cfg.Linger = DefaultLinger
	}
	s := &Scheduler{clock: c, mode: ModeLinger, linger: cfg.Linger, jitter: cfg.Jitter}
	s.SetBackoff(cfg.BackoffBase, cfg.BackoffMax)
	return s
}

// Schedule arms the flush timer for the delay of the current mode and
// returns that delay. fire receives the arming sequence number, which must
// be passed to Claim before acting.
func (s *Scheduler) Schedule(fire func(seq uint64)) time.Duration {
	s.CancelPending()

	d := s.nextDelay()
	s.seq++
	seq := s.seq
	s.timer = s.clock.AfterFunc(d, func() { fire(seq) })
	return d
}

// Claim consumes the pending timer if seq identifies it. It returns false for
// a timer that was canceled or replaced after it started firing.
func (s *Scheduler) Claim(seq uint64) bool {
	if s.timer == nil || seq != s.seq {
		return false
	}
	s.timer = nil
	return true
}

// CancelPending stops the pending timer without firing it.
func (s *Scheduler) CancelPending() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// IsScheduled reports whether a timer is pending.
func (s *Scheduler) IsScheduled() bool {
	return s.timer != nil
}

// SetMode switches mode. Leaving error mode resets the back-off.
func (s *Scheduler) SetMode(m Mode) {
	s.mode = m
	if m != ModeError {
		s.attempt = 0
	}
}

// Mode returns the current mode.
func (s *Scheduler) Mode() Mode {
	return s.mode
}

// Attempt returns the number of consecutive error-mode schedules.
func (s *Scheduler) Attempt() int {
	return s.attempt
}

// SetLinger changes the linger period. Negative values are ignored.
func (s *Scheduler) SetLinger(d time.Duration) {
	if d >= 0 {
		s.linger = d
	}
}

// Linger returns the linger period.
func (s *Scheduler) Linger() time.Duration {
	return s.linger
}

// SetBackoff changes the back-off bounds. Non-positive values take the defaults.
func (s *Scheduler) SetBackoff(base, max time.Duration) {
	if base <= 0 {
		base = DefaultBackoffBase
	}
	if max <= 0 {
		max = DefaultBackoffMax
	}
	if max < base {
		max = base
	}
	s.base = base
	s.max = max
}

func (s *Scheduler) nextDelay() time.Duration {
	switch s.mode {
	case ModeImmediate:
		return 0
	case ModeError:
		s.attempt++
		return s.withJitter(s.backoff(s.attempt))
	default:
		return s.linger
	}
}

// backoff returns min(base * 2^(attempt-1), max).
func (s *Scheduler) backoff(attempt int) time.Duration {
	d := s.base
	for i := 1; i < attempt; i++ {
		if d >= s.max/2 {
			return s.max
		}
		d *= 2
	}
	return min(d, s.max)
}

func (s *Scheduler) withJitter(d time.Duration) time.Duration {
	if s.jitter <= 0 {
		return d
	}
	j := float64(d) * s.jitter * (rand.Float64()*2 - 1)
	return time.Duration(float64(d) + j)
}
