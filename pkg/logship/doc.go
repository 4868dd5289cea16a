// Package logship provides an embeddable client-side log shipper.
//
// A Shipper accumulates structured log records produced by the host program
// and forwards them in batches to an HTTP ingestion endpoint. Logging never
// blocks on the network: records are queued, batched under a count and a
// byte cap, and sent by a background scheduler that lingers briefly while
// healthy, drains fast after a recovery and backs off exponentially while
// the endpoint fails.
//
// # Basic Usage
//
//	cfg := logship.DefaultConfig()
//	cfg.APIKey = "your-api-key"
//
//	shipper, err := logship.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := shipper.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer shipper.Stop()
//
//	shipper.Info("user signed in", map[string]any{"user": id})
//
// # Capturing Output
//
// Instead of replacing global functions, the shipper exposes hooks the
// program opts into:
//
//	zl := zerolog.New(shipper.Writer())          // JSON lines shipped as-is
//	stdlog.SetOutput(shipper.ConsoleWriter("warn")) // plain lines wrapped
//	defer shipper.RecoverAndReport()             // report panics
//
// # Delivery Guarantees
//
// Delivery is best effort. When MaxWaitingCount is exceeded the oldest
// records are dropped; a record larger than MaxContentSize is replaced by a
// warning record. Both are reported to the [EventHandler] as
// [RecordDroppedEvent]. Failed batches are retried indefinitely with capped
// exponential back-off. Nothing is persisted across restarts.
//
// # Lifecycle States
//
// A Shipper is in one of five states: [StateStopped], [StateStarting],
// [StateRunning], [StateStopping] or [StateCrashed]. Use [Shipper.Status] to
// query it. Stop drains the queue before returning.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package logship
