package logship

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"sync"

	"github.com/hyp3rd/ewrap"

	httpAdapter "github.com/bft-labs/logship/internal/adapters/http"
	"github.com/bft-labs/logship/internal/app"
	"github.com/bft-labs/logship/internal/domain"
	"github.com/bft-labs/logship/internal/ports"
	"github.com/bft-labs/logship/pkg/clock"
	"github.com/bft-labs/logship/pkg/log"
	"github.com/bft-labs/logship/pkg/sender"
)

// Shipper batches log records and ships them to the ingestion endpoint.
// Use New() to create an instance and Start() to begin shipping. Records
// logged before Start are kept and shipped once it runs.
//
// All methods are safe for concurrent use.
type Shipper struct {
	config     Config
	lifecycle  *app.Lifecycle
	dispatcher *app.Dispatcher
	logger     ports.Logger
	plugins    []Plugin

	metaMu sync.RWMutex
	metas  map[string]any

	mu sync.Mutex
}

// New creates a Shipper in StateStopped.
// Returns an error wrapping ErrInvalidConfig if the configuration is invalid.
func New(cfg Config, opts ...Option) (*Shipper, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.NewNoopLogger()
	}
	if o.clock == nil {
		o.clock = clock.Real()
	}

	s := &Shipper{
		config:  cfg,
		logger:  o.logger,
		plugins: o.plugins,
		metas:   maps.Clone(cfg.Metas),
	}
	if s.metas == nil {
		s.metas = make(map[string]any)
	}

	emitter := eventEmitter{handler: o.eventHandler}
	s.lifecycle = app.NewLifecycle(s.logger, emitter)
	s.dispatcher = app.NewDispatcher(app.DispatcherConfig{
		Bulk:          cfg.BulkOptions(),
		BackoffBase:   cfg.BackoffBase,
		BackoffMax:    cfg.BackoffMax,
		BackoffJitter: cfg.BackoffJitter,
		DropWarning:   s.dropWarning,
	}, s.transport(o), o.clock, s.logger, emitter)

	return s, nil
}

func (s *Shipper) transport(o options) ports.Transport {
	if o.sender != nil {
		return senderTransport{o.sender}
	}
	client := o.httpClient
	if client == nil {
		client = &http.Client{Timeout: max(s.config.HTTPTimeout, 0)}
	}
	return httpAdapter.NewTransport(client, httpAdapter.TransportConfig{
		URL:               s.config.InputURL(),
		IPTracking:        s.config.IPTracking,
		UserAgentTracking: s.config.UserAgentTracking,
		Compress:          s.config.Compress,
		UserAgent:         s.config.UserAgent,
	}, s.logger)
}

// Start begins timed flushing and initializes plugins.
// When ctx is canceled the shipper stops on its own, draining pending
// records within ShutdownTimeout.
func (s *Shipper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := s.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.lifecycle.SetCancel(cancel)

	pluginCfg := PluginConfig{
		InputURL:       s.config.InputURL(),
		Logger:         s.logger,
		BulkOptions:    s.BulkOptions,
		SetBulkOptions: s.SetBulkOptions,
	}
	for i, p := range s.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			s.logger.Error("plugin initialization failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			s.shutdownPlugins(context.WithoutCancel(ctx), s.plugins[:i])
			cancel()
			_ = s.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+p.Name())
			return ewrap.Wrap(err, "initialize plugin").WithMetadata("plugin", p.Name())
		}
		s.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
	}

	s.dispatcher.Start(runCtx)
	if err := s.lifecycle.TransitionTo(app.StateRunning, "shipper started"); err != nil {
		return err
	}

	s.lifecycle.Go(func() {
		<-runCtx.Done()
		if ctx.Err() == nil {
			return
		}
		stopCtx, stopCancel := context.WithTimeout(context.WithoutCancel(ctx), app.ShutdownTimeout)
		defer stopCancel()
		if err := s.stop(stopCtx, "context canceled"); err != nil && !errors.Is(err, domain.ErrNotRunning) {
			s.logger.Error("shutdown after context cancellation failed", ports.Err(err))
		}
	})

	return nil
}

// Stop gracefully shuts down the shipper: pending records are sent and
// plugins shut down. It waits up to ShutdownTimeout.
// Returns ErrNotRunning if the shipper is not running, and an error wrapping
// ErrFlushFailed when the endpoint rejected the final drain; undelivered
// records stay queued for a later Start.
func (s *Shipper) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), app.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}

// Shutdown is Stop bounded by ctx instead of ShutdownTimeout.
func (s *Shipper) Shutdown(ctx context.Context) error {
	if err := s.stop(ctx, "Stop() called"); err != nil {
		return err
	}
	return s.lifecycle.Wait(ctx)
}

func (s *Shipper) stop(ctx context.Context, reason string) error {
	s.mu.Lock()
	if !s.lifecycle.CanStop() {
		s.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := s.lifecycle.TransitionTo(app.StateStopping, reason); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	err := s.dispatcher.Stop(ctx)
	s.lifecycle.Cancel()
	s.shutdownPlugins(context.WithoutCancel(ctx), s.plugins)

	switch {
	case err == nil:
		_ = s.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	case ctx.Err() != nil || errors.Is(err, domain.ErrShutdownTimeout):
		_ = s.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	default:
		_ = s.lifecycle.TransitionTo(app.StateStopped, "shutdown with undelivered records")
	}
	return err
}

// shutdownPlugins shuts plugins down in reverse order.
func (s *Shipper) shutdownPlugins(ctx context.Context, plugins []Plugin) {
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := p.Shutdown(ctx); err != nil {
			s.logger.Error("plugin shutdown failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			continue
		}
		s.logger.Info("plugin shutdown complete", ports.String("plugin", p.Name()))
	}
}

// Status returns the current lifecycle state.
func (s *Shipper) Status() State {
	return State(s.lifecycle.State())
}

// Flush sends every pending record now and returns when the queue is empty,
// a send fails (ErrFlushFailed) or ctx is done.
func (s *Shipper) Flush(ctx context.Context) error {
	return s.dispatcher.Flush(ctx)
}

// Pending returns the number of records waiting to be sent.
func (s *Shipper) Pending() int {
	return s.dispatcher.Pending()
}

// Enqueue queues a pre-serialized record (a JSON object). It never blocks
// on the network and never fails; under overload the oldest records are
// dropped.
func (s *Shipper) Enqueue(record string) {
	s.dispatcher.Enqueue(domain.Record(record))
}

// SetBulkOptions replaces the batching parameters. They apply from the next
// flush; lowering MaxWaitingCount evicts the oldest records at once. A
// negative Linger keeps the current one.
func (s *Shipper) SetBulkOptions(opts BulkOptions) {
	s.dispatcher.Configure(opts)
}

// BulkOptions returns the batching parameters in effect.
func (s *Shipper) BulkOptions() BulkOptions {
	return s.dispatcher.BulkOptions()
}

// dropWarning builds the record that replaces an oversized one.
func (s *Shipper) dropWarning(limit int) domain.Record {
	return domain.DropWarning(s.config.LevelKey, limit, s.metasSnapshot())
}

// senderTransport adapts a pkg/sender Sender to the transport port.
type senderTransport struct {
	sender Sender
}

func (t senderTransport) Send(ctx context.Context, payload []byte) domain.Outcome {
	r := t.sender.Send(ctx, payload)
	return domain.Outcome{StatusCode: r.StatusCode, Err: r.Err}
}

// validateModuleVersions checks that all sub-package versions are compatible.
func validateModuleVersions() error {
	modules := map[string]struct {
		version    string
		minVersion string
	}{
		"log":    {log.Version, log.MinCompatibleVersion},
		"clock":  {clock.Version, clock.MinCompatibleVersion},
		"sender": {sender.Version, sender.MinCompatibleVersion},
	}

	for name, m := range modules {
		if !isVersionCompatible(m.version, m.minVersion) {
			return ewrap.Newf("module %s version %s is below minimum compatible version %s",
				name, m.version, m.minVersion)
		}
	}
	return nil
}

// isVersionCompatible checks if version >= minVersion.
// Versions are "major.minor.patch".
func isVersionCompatible(version, minVersion string) bool {
	var vMajor, vMinor, vPatch int
	var mMajor, mMinor, mPatch int

	_, _ = fmt.Sscanf(version, "%d.%d.%d", &vMajor, &vMinor, &vPatch)
	_, _ = fmt.Sscanf(minVersion, "%d.%d.%d", &mMajor, &mMinor, &mPatch)

	if vMajor != mMajor {
		return vMajor > mMajor
	}
	if vMinor != mMinor {
		return vMinor > mMinor
	}
	return vPatch >= mPatch
}
