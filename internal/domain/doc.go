// Package domain contains the core entities of the log shipper.
//
// It has no dependencies on infrastructure (HTTP, clocks, logging) and holds
// only values and rules:
//
//   - [Record]: one already-serialized log event, immutable once enqueued
//   - [Batch]: records drawn from the head of the queue for one send
//   - [Outcome]: the terminal status of one send attempt
//
// The drop warning that replaces an oversized record is built here so the
// wire format of that synthetic record lives next to the record type.
package domain
