package app

import (
	"context"
	"sync"
	"time"

	"github.com/hyp3rd/ewrap"

	"github.com/bft-labs/logship/internal/domain"
	"github.com/bft-labs/logship/internal/ports"
	"github.com/bft-labs/logship/pkg/clock"
)

// Reasons reported to DispatchEventEmitter.OnRecordDropped.
const (
	DropReasonOverflow = "queue_overflow"
	DropReasonOversize = "oversized"
)

// BulkOptions are the batching parameters that may change at runtime.
type BulkOptions struct {
	Linger          time.Duration
	MaxPostCount    int
	MaxWaitingCount int
	MaxContentSize  int
}

// DefaultBulkOptions returns the default batching parameters.
func DefaultBulkOptions() BulkOptions {
	return BulkOptions{
		Linger:          DefaultLinger,
		MaxPostCount:    DefaultMaxPostCount,
		MaxWaitingCount: Unbounded,
		MaxContentSize:  DefaultMaxContentSize,
	}
}

// DispatcherConfig contains configuration for the dispatcher.
type DispatcherConfig struct {
	Bulk          BulkOptions
	BackoffBase   time.Duration
	BackoffMax    time.Duration
	BackoffJitter float64

	// DropWarning builds the record that replaces an oversized one.
	DropWarning func(limit int) domain.Record
}

// DispatchEventEmitter is called on send results and dropped records.
type DispatchEventEmitter interface {
	OnSendSuccess(recordCount, bytesSent int, duration time.Duration)
	OnSendError(err error, statusCode, recordCount int)
	OnRecordDropped(reason string, count int)
}

// Dispatcher drives the queue, scheduler, assembler and transport.
//
// At most one flush timer is pending and at most one send is in flight.
// The transport is called without holding the lock, and events are emitted
// after it is released.
type Dispatcher struct {
	mu        sync.Mutex
	queue     *Queue
	scheduler *Scheduler
	assembler *Assembler
	transport ports.Transport
	clock     clock.Clock
	logger    ports.Logger
	emitter   DispatchEventEmitter

	ctx      context.Context
	running  bool
	inFlight bool
	sendDone chan struct{}
}

// NewDispatcher creates a stopped dispatcher. Records may be enqueued before
// Start; they are scheduled once it runs.
func NewDispatcher(
	config DispatcherConfig,
	transport ports.Transport,
	clk clock.Clock,
	logger ports.Logger,
	emitter DispatchEventEmitter,
) *Dispatcher {
	if clk == nil {
		clk = clock.Real()
	}
	bulk := normalizeBulk(config.Bulk)
	return &Dispatcher{
		queue: NewQueue(bulk.MaxWaitingCount),
		scheduler: NewScheduler(clk, SchedulerConfig{
			Linger:      bulk.Linger,
			BackoffBase: config.BackoffBase,
			BackoffMax:  config.BackoffMax,
			Jitter:      config.BackoffJitter,
		}),
		assembler: NewAssembler(bulk.MaxPostCount, bulk.MaxContentSize, config.DropWarning),
		transport: transport,
		clock:     clk,
		logger:    logger,
		emitter:   emitter,
		ctx:       context.Background(),
	}
}

// Start enables timed flushing. ctx is passed to every send.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.ctx = ctx
	d.running = true
	if !d.queue.IsEmpty() {
		d.requestFlushLocked()
	}
}

// Enqueue appends a record and schedules a flush if none is pending or in
// flight. It never blocks on the network.
func (d *Dispatcher) Enqueue(r domain.Record) {
	d.mu.Lock()
	evicted := d.queue.Push(r)
	d.requestFlushLocked()
	d.mu.Unlock()

	d.dropped(DropReasonOverflow, len(evicted))
}

// requestFlushLocked arms the scheduler in its current mode unless a timer
// is pending or a send is in flight.
func (d *Dispatcher) requestFlushLocked() {
	if !d.running || d.inFlight || d.scheduler.IsScheduled() {
		return
	}
	d.scheduler.Schedule(d.flushTick)
}

// flushTick runs when the scheduler's timer fires.
func (d *Dispatcher) flushTick(seq uint64) {
	d.mu.Lock()
	if !d.scheduler.Claim(seq) || !d.running || d.inFlight {
		d.mu.Unlock()
		return
	}
	d.runOnce(d.ctx)
}

// runOnce takes one batch and sends it. It must be called with d.mu held
// and returns with it released.
func (d *Dispatcher) runOnce(ctx context.Context) domain.Outcome {
	batch, drop := d.assembler.Take(d.queue)
	if batch.Empty() {
		outcome := domain.NoContent()
		evicted := d.onOutcomeLocked(outcome, batch)
		d.mu.Unlock()

		if drop != nil {
			d.logger.Warn("dropped oversized record",
				ports.Bytes(drop.Size),
				ports.Int("limit", d.assemblerLimit()),
				ports.Bool("warning_queued", drop.WarningQueued),
			)
			d.dropped(DropReasonOversize, 1)
		}
		d.dropped(DropReasonOverflow, len(evicted))
		return outcome
	}

	d.inFlight = true
	done := make(chan struct{})
	d.sendDone = done
	d.mu.Unlock()

	start := d.clock.Now()
	outcome := d.send(ctx, batch)
	duration := d.clock.Since(start)

	d.mu.Lock()
	d.inFlight = false
	d.sendDone = nil
	close(done)
	evicted := d.onOutcomeLocked(outcome, batch)
	mode := d.scheduler.Mode()
	d.mu.Unlock()

	if outcome.Success() {
		d.logger.Info("sent batch",
			ports.Records(batch.Size()),
			ports.Bytes(batch.TotalBytes),
			ports.Duration("duration", duration),
		)
		if d.emitter != nil {
			d.emitter.OnSendSuccess(batch.Size(), batch.TotalBytes, duration)
		}
	} else {
		d.logger.Error("send failed",
			ports.Err(outcome.Err),
			ports.Status(outcome.StatusCode),
			ports.Records(batch.Size()),
			ports.String("mode", mode.String()),
		)
		if d.emitter != nil {
			d.emitter.OnSendError(outcome.Err, outcome.StatusCode, batch.Size())
		}
	}
	d.dropped(DropReasonOverflow, len(evicted))
	return outcome
}

// onOutcomeLocked adapts the scheduler mode to the outcome and schedules the
// next flush while records remain. A failed batch goes back to the head of
// the queue; the records evicted by that are returned.
func (d *Dispatcher) onOutcomeLocked(outcome domain.Outcome, batch *domain.Batch) []domain.Record {
	var evicted []domain.Record
	switch {
	case !outcome.Success():
		evicted = d.queue.Requeue(batch.Records)
		d.scheduler.SetMode(ModeError)
	case d.queue.IsEmpty():
		d.scheduler.SetMode(ModeLinger)
	default:
		d.scheduler.SetMode(ModeImmediate)
	}

	d.scheduler.CancelPending()
	if !d.queue.IsEmpty() {
		d.requestFlushLocked()
	}
	return evicted
}

// send calls the transport, turning a panic into a failed outcome so every
// send yields exactly one outcome.
func (d *Dispatcher) send(ctx context.Context, batch *domain.Batch) (outcome domain.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = domain.Failure(ewrap.Newf("transport panic: %v", r))
		}
	}()
	return d.transport.Send(ctx, batch.Payload())
}

// Flush sends batches synchronously until the queue is empty. It waits for
// an in-flight send first and stops at the first failed send, returning an
// error wrapping ErrFlushFailed; the failed records stay queued.
func (d *Dispatcher) Flush(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return ewrap.Wrap(err, "flush interrupted").WithMetadata("pending", d.Pending())
		}

		d.mu.Lock()
		if d.inFlight {
			done := d.sendDone
			d.mu.Unlock()
			select {
			case <-done:
				continue
			case <-ctx.Done():
				return ewrap.Wrap(ctx.Err(), "waiting for in-flight send")
			}
		}
		if d.queue.IsEmpty() {
			d.mu.Unlock()
			return nil
		}

		d.scheduler.CancelPending()
		outcome := d.runOnce(ctx)
		if !outcome.Success() {
			err := ewrap.Wrapf(domain.ErrFlushFailed, "status %d", outcome.StatusCode)
			if outcome.Err != nil {
				err = err.WithMetadata("cause", outcome.Err.Error())
			}
			return err
		}
	}
}

// Stop disables timed flushing, waits for the in-flight send and drains the
// queue. ctx bounds the whole operation.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	d.running = false
	d.scheduler.CancelPending()
	done := d.sendDone
	d.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return ewrap.Wrap(domain.ErrShutdownTimeout, "waiting for in-flight send")
		}
	}

	if err := d.Flush(ctx); err != nil {
		d.logger.Warn("records left undelivered at shutdown",
			ports.Err(err),
			ports.Int("pending", d.Pending()),
		)
		return err
	}
	return nil
}

// Configure applies new batching parameters. They take effect at the next
// schedule and the next assembly; lowering the waiting bound evicts the
// oldest records at once. A negative linger keeps the current one.
func (d *Dispatcher) Configure(opts BulkOptions) {
	opts = normalizeBulk(opts)

	d.mu.Lock()
	d.scheduler.SetLinger(opts.Linger)
	d.assembler.SetLimits(opts.MaxPostCount, opts.MaxContentSize)
	evicted := d.queue.SetMaxWaiting(opts.MaxWaitingCount)
	d.mu.Unlock()

	d.logger.Debug("bulk options updated",
		ports.Duration("linger", opts.Linger),
		ports.Int("max_post_count", opts.MaxPostCount),
		ports.Int("max_waiting_count", opts.MaxWaitingCount),
		ports.Int("max_content_size", opts.MaxContentSize),
	)
	d.dropped(DropReasonOverflow, len(evicted))
}

// BulkOptions returns the batching parameters in effect.
func (d *Dispatcher) BulkOptions() BulkOptions {
	d.mu.Lock()
	defer d.mu.Unlock()
	return BulkOptions{
		Linger:          d.scheduler.Linger(),
		MaxPostCount:    d.assembler.MaxPostCount(),
		MaxWaitingCount: d.queue.MaxWaiting(),
		MaxContentSize:  d.assembler.MaxContentSize(),
	}
}

// Pending returns the number of queued records.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queue.Len()
}

// Mode returns the scheduler mode.
func (d *Dispatcher) Mode() Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scheduler.Mode()
}

// Idle reports whether no timer is pending and no send is in flight.
func (d *Dispatcher) Idle() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.inFlight && !d.scheduler.IsScheduled()
}

func (d *Dispatcher) assemblerLimit() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.assembler.MaxContentSize()
}

func (d *Dispatcher) dropped(reason string, n int) {
	if n == 0 {
		return
	}
	if reason == DropReasonOverflow {
		d.logger.Debug("evicted oldest records", ports.Int("count", n))
	}
	if d.emitter != nil {
		d.emitter.OnRecordDropped(reason, n)
	}
}

func normalizeBulk(opts BulkOptions) BulkOptions {
	opts.MaxPostCount = max(opts.MaxPostCount, 1)
	if opts.MaxWaitingCount < 0 {
		opts.MaxWaitingCount = Unbounded
	}
	return opts
}
