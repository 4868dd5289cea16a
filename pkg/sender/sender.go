package sender

import (
	"context"
	"net/http"
)

// Sender delivers one batch payload, a JSON array of records.
type Sender interface {
	Send(ctx context.Context, payload []byte) Result
}

// Func adapts a plain function to the Sender interface.
type Func func(ctx context.Context, payload []byte) Result

// Send calls f(ctx, payload).
func (f Func) Send(ctx context.Context, payload []byte) Result {
	return f(ctx, payload)
}

// Result is the terminal status of one delivery attempt.
// A zero StatusCode with a nil Err means there was nothing to deliver.
type Result struct {
	StatusCode int
	Err        error
}

// OK returns a successful result.
func OK() Result {
	return Result{StatusCode: http.StatusOK}
}

// Failed returns a failed result for an attempt that got no status.
func Failed(err error) Result {
	return Result{StatusCode: -1, Err: err}
}
