// Package log provides the logging abstraction used by logship components.
//
// The shipper itself logs through the Logger interface so hosts can plug in
// their own logging stack. A zerolog adapter and a no-op logger are provided.
//
// # Usage
//
//	logger := log.NewZerologAdapterWithLogger(zerolog.New(os.Stderr))
//	s, err := logship.New(cfg, logship.WithLogger(logger))
//
// Do not point the shipper's own diagnostics at the shipper's Writer: send
// failures would be logged, shipped, fail again and grow the queue.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package log
