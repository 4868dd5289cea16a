package domain

import "github.com/hyp3rd/ewrap"

// Domain errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = ewrap.New("logship: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = ewrap.New("logship: not running")

	// ErrShutdownTimeout is returned when the shutdown drain does not finish in time.
	ErrShutdownTimeout = ewrap.New("logship: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = ewrap.New("logship: invalid configuration")

	// ErrFlushFailed is returned by a synchronous flush when a send fails.
	// The failed records are back at the head of the queue.
	ErrFlushFailed = ewrap.New("logship: flush failed")

	// ErrSerialize is attached to records whose fields could not be encoded.
	ErrSerialize = ewrap.New("logship: record serialization failed")
)
