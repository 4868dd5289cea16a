package logship

import (
	"time"

	"github.com/bft-labs/logship/internal/app"
)

// State is the lifecycle state of a Shipper.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	return app.State(s).String()
}

// Reasons reported in RecordDroppedEvent.
const (
	DropReasonQueueOverflow = app.DropReasonOverflow
	DropReasonOversized     = app.DropReasonOversize
)

// StateChangeEvent is emitted on every lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// SendSuccessEvent is emitted after a batch was accepted.
type SendSuccessEvent struct {
	RecordCount int
	BytesSent   int
	Duration    time.Duration
}

// SendErrorEvent is emitted after a batch was rejected or could not be sent.
// The records are queued again and retried after a back-off delay.
type SendErrorEvent struct {
	Error       error
	StatusCode  int
	RecordCount int
}

// RecordDroppedEvent is emitted when records are discarded, either evicted
// by the queue bound or replaced by a size warning.
type RecordDroppedEvent struct {
	Reason string
	Count  int
}

// EventHandler receives shipper events. Methods are called synchronously
// from the goroutine that caused the event, never while internal locks are
// held; implementations should return quickly.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnSendSuccess(event SendSuccessEvent)
	OnSendError(event SendErrorEvent)
	OnRecordDropped(event RecordDroppedEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to handle
// only some events.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent)     {}
func (BaseEventHandler) OnSendSuccess(SendSuccessEvent)     {}
func (BaseEventHandler) OnSendError(SendErrorEvent)         {}
func (BaseEventHandler) OnRecordDropped(RecordDroppedEvent) {}

// eventEmitter adapts EventHandler to the internal emitter interfaces.
type eventEmitter struct {
	handler EventHandler
}

func (e eventEmitter) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: State(previous),
		Current:  State(current),
		Reason:   reason,
	})
}

func (e eventEmitter) OnSendSuccess(recordCount, bytesSent int, duration time.Duration) {
	if e.handler == nil {
		return
	}
	e.handler.OnSendSuccess(SendSuccessEvent{
		RecordCount: recordCount,
		BytesSent:   bytesSent,
		Duration:    duration,
	})
}

func (e eventEmitter) OnSendError(err error, statusCode, recordCount int) {
	if e.handler == nil {
		return
	}
	e.handler.OnSendError(SendErrorEvent{
		Error:       err,
		StatusCode:  statusCode,
		RecordCount: recordCount,
	})
}

func (e eventEmitter) OnRecordDropped(reason string, count int) {
	if e.handler == nil {
		return
	}
	e.handler.OnRecordDropped(RecordDroppedEvent{Reason: reason, Count: count})
}
