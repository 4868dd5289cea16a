package ports

import (
	"context"

	"github.com/bft-labs/logship/internal/domain"
)

// Transport delivers batches to the remote ingestion service.
// Implementations handle encoding, compression and authentication.
type Transport interface {
	// Send posts one batch payload and reports how the attempt ended.
	// It never retries; retry timing belongs to the caller. A transport
	// failure without an HTTP response is reported as a failed Outcome,
	// not as a panic.
	Send(ctx context.Context, payload []byte) domain.Outcome
}

// TransportFunc adapts a plain function to the Transport interface.
type TransportFunc func(ctx context.Context, payload []byte) domain.Outcome

// Send calls f(ctx, payload).
func (f TransportFunc) Send(ctx context.Context, payload []byte) domain.Outcome {
	return f(ctx, payload)
}
