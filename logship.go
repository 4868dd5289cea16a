// Package logship ships log records from a Go program, or any line-oriented
// input, to a Logmatic-compatible HTTP intake.
//
// Example usage:
//
//	cfg := logship.DefaultConfig()
//	cfg.APIKey = "your-api-key"
//	if err := logship.Run(ctx, cfg, os.Stdin); err != nil {
//	    log.Fatal(err)
//	}
//
// Programs that log directly should use the embeddable Shipper from
// pkg/logship.
package logship

import (
	"context"
	"errors"
	"io"

	"github.com/hyp3rd/ewrap"

	"github.com/bft-labs/logship/pkg/logship"
)

// Config holds the configuration of a Shipper.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = logship.Config

// Shipper batches log records and ships them to the intake.
type Shipper = logship.Shipper

// Option configures optional behavior of a Shipper.
type Option = logship.Option

// Errors returned by Shipper operations.
var (
	ErrAlreadyRunning  = logship.ErrAlreadyRunning
	ErrNotRunning      = logship.ErrNotRunning
	ErrShutdownTimeout = logship.ErrShutdownTimeout
	ErrInvalidConfig   = logship.ErrInvalidConfig
	ErrFlushFailed     = logship.ErrFlushFailed
)

// DefaultInputURL is the intake URL the API key is appended to.
const DefaultInputURL = logship.DefaultInputURL

// DefaultConfig returns a Config with sensible default values.
// At minimum, you must set APIKey or Endpoint before calling New or Run.
func DefaultConfig() Config {
	return logship.DefaultConfig()
}

// New creates a stopped Shipper.
func New(cfg Config, opts ...Option) (*Shipper, error) {
	return logship.New(cfg, opts...)
}

// Run ships every line read from r until EOF, then stops the shipper,
// draining what is still queued. Lines holding a JSON object are shipped
// as-is; other lines become "info" records. Canceling ctx stops shipping
// once the current read returns.
func Run(ctx context.Context, cfg Config, r io.Reader, opts ...Option) error {
	s, err := logship.New(cfg, opts...)
	if err != nil {
		return err
	}
	if err := s.Start(context.WithoutCancel(ctx)); err != nil {
		return err
	}

	w := s.Writer()
	_, copyErr := io.Copy(w, contextReader{ctx: ctx, r: r})
	_ = w.Close()

	if err := s.Stop(); err != nil {
		return err
	}
	if copyErr != nil && !errors.Is(copyErr, context.Canceled) {
		return ewrap.Wrap(copyErr, "read input")
	}
	return nil
}

// contextReader stops reading once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
