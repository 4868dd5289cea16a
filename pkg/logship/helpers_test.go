package logship_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bft-labs/logship/pkg/logship"
	"github.com/bft-labs/logship/pkg/sender"
)

// recordingSender captures every batch and fails the first n sends.
type recordingSender struct {
	mu      sync.Mutex
	batches [][]map[string]any
	fail    int
}

func (r *recordingSender) Send(_ context.Context, payload []byte) sender.Result {
	var batch []map[string]any
	if err := json.Unmarshal(payload, &batch); err != nil {
		return sender.Failed(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, batch)
	if r.fail > 0 {
		r.fail--
		return sender.Result{StatusCode: 503}
	}
	return sender.OK()
}

func (r *recordingSender) Batches() [][]map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]map[string]any{}, r.batches...)
}

func (r *recordingSender) Records() []map[string]any {
	var out []map[string]any
	for _, b := range r.Batches() {
		out = append(out, b...)
	}
	return out
}

// eventRecorder captures shipper events.
type eventRecorder struct {
	logship.BaseEventHandler

	mu      sync.Mutex
	states  []logship.StateChangeEvent
	sent    []logship.SendSuccessEvent
	errors  []logship.SendErrorEvent
	dropped []logship.RecordDroppedEvent
}

func (e *eventRecorder) OnStateChange(ev logship.StateChangeEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.states = append(e.states, ev)
}

func (e *eventRecorder) OnSendSuccess(ev logship.SendSuccessEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, ev)
}

func (e *eventRecorder) OnSendError(ev logship.SendErrorEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errors = append(e.errors, ev)
}

func (e *eventRecorder) OnRecordDropped(ev logship.RecordDroppedEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dropped = append(e.dropped, ev)
}

func (e *eventRecorder) States() []logship.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]logship.State, 0, len(e.states))
	for _, ev := range e.states {
		out = append(out, ev.Current)
	}
	return out
}

func (e *eventRecorder) Dropped() []logship.RecordDroppedEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]logship.RecordDroppedEvent{}, e.dropped...)
}

func testConfig() logship.Config {
	cfg := logship.DefaultConfig()
	cfg.APIKey = "test-key"
	return cfg
}

func newShipper(t *testing.T, cfg logship.Config, opts ...logship.Option) (*logship.Shipper, *recordingSender) {
	t.Helper()
	rec := &recordingSender{}
	s, err := logship.New(cfg, append([]logship.Option{logship.WithSender(rec)}, opts...)...)
	require.NoError(t, err)
	return s, rec
}
