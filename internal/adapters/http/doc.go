// Package http implements the batch transport over HTTP.
//
// Each batch is one POST whose body is a JSON array of the batch's records,
// optionally gzip-compressed. The transport never retries; the dispatcher
// decides when to try again based on the returned outcome.
package http
