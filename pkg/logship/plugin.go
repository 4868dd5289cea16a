package logship

import "context"

// Plugin extends a Shipper with optional behavior. Plugins are initialized
// on Start in registration order and shut down on Stop in reverse order.
type Plugin interface {
	// Name returns a unique identifier used in logs.
	Name() string

	// Initialize is called during Start. ctx is canceled when the shipper
	// stops. A returned error aborts Start.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown is called during Stop.
	Shutdown(ctx context.Context) error
}

// PluginConfig gives plugins access to the shipper they extend.
type PluginConfig struct {
	// InputURL is where batches are posted.
	InputURL string

	// Logger is the shipper's logger.
	Logger Logger

	// BulkOptions returns the batching parameters in effect.
	BulkOptions func() BulkOptions

	// SetBulkOptions replaces the batching parameters.
	SetBulkOptions func(BulkOptions)
}
