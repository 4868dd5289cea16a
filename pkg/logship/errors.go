package logship

import "github.com/bft-labs/logship/internal/domain"

// Errors returned by the Shipper. Check them with errors.Is.
var (
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
	ErrInvalidConfig   = domain.ErrInvalidConfig
	ErrFlushFailed     = domain.ErrFlushFailed
)
