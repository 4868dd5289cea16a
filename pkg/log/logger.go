package log

import "time"

// Logger is the structured logger of the shipper and its plugins.
// A shipper never logs through itself; give it a logger that writes
// somewhere else (stderr, a file) to avoid feeding its own diagnostics
// back into the queue.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is a key-value pair attached to a log line.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field { return Field{Key: key, Value: value} }
func Int(key string, value int) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }
func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value} }

// Err attaches err under "error".
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// Records is the number of records a line is about.
func Records(n int) Field {
	return Field{Key: "records", Value: n}
}

// Bytes is a payload or record size.
func Bytes(n int) Field {
	return Field{Key: "bytes", Value: n}
}

// Status is the HTTP status of a send; -1 when no response arrived.
func Status(code int) Field {
	return Field{Key: "status", Value: code}
}
