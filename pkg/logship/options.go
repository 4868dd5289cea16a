package logship

import (
	"github.com/bft-labs/logship/pkg/clock"
	"github.com/bft-labs/logship/pkg/log"
	"github.com/bft-labs/logship/pkg/sender"
)

// Re-exported types of the sub-packages, so most programs need only this
// package.
type (
	// Logger is the structured logger interface from pkg/log.
	Logger = log.Logger

	// LogField is a structured log field from pkg/log.
	LogField = log.Field

	// HTTPClient is the HTTP client interface from pkg/sender.
	HTTPClient = sender.HTTPClient

	// Sender delivers batches instead of the default HTTP transport.
	Sender = sender.Sender

	// Clock is the time source from pkg/clock.
	Clock = clock.Clock
)

// Option configures optional behavior of a Shipper.
type Option func(*options)

type options struct {
	httpClient   HTTPClient
	sender       Sender
	logger       Logger
	clock        Clock
	eventHandler EventHandler
	plugins      []Plugin
}

func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
		clock:  clock.Real(),
	}
}

// WithHTTPClient sets the HTTP client of the default transport.
// If not provided, a client with the configured timeout is used.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithSender replaces the HTTP transport. HTTP settings of the Config are
// then ignored.
func WithSender(s Sender) Option {
	return func(o *options) {
		o.sender = s
	}
}

// WithLogger sets the logger for the shipper's own diagnostics.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock sets the time source of the flush scheduler.
// Tests pass clock.Fake to drive flushes deterministically.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithEventHandler sets a handler for shipper events.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when the shipper starts.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}
