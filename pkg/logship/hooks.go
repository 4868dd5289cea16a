package logship

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime/debug"
	"sync"
	"time"

	"github.com/hyp3rd/ewrap"
)

// panicFlushTimeout bounds the flush RecoverAndReport does before re-panicking.
const panicFlushTimeout = 5 * time.Second

// Writer returns an io.WriteCloser that turns every line written to it into
// a record. Lines holding a JSON object are queued verbatim, so structured
// loggers (zerolog, slog's JSON handler) can write to it directly; other
// lines are logged with severity "info". Close flushes a trailing partial
// line.
func (s *Shipper) Writer() io.WriteCloser {
	return &lineWriter{ship: func(line []byte) {
		if isJSONObject(line) {
			s.Enqueue(string(line))
			return
		}
		s.Log(SeverityInfo, string(line), nil)
	}}
}

// ConsoleWriter returns an io.WriteCloser that logs every line written to it
// with the given severity. Point os.Stderr-style output at it to capture
// console messages.
func (s *Shipper) ConsoleWriter(severity string) io.WriteCloser {
	return &lineWriter{ship: func(line []byte) {
		s.Log(severity, string(line), nil)
	}}
}

// ReportError logs err with severity "error". The error is described under
// ErrorKey as {mode, type, message}.
func (s *Shipper) ReportError(err error, fields map[string]any) {
	s.reportError(err, "GoError", fields)
}

// RecoverAndReport reports a panic of the calling goroutine, flushes and
// re-panics. Use it deferred:
//
//	defer shipper.RecoverAndReport()
func (s *Shipper) RecoverAndReport() {
	r := recover()
	if r == nil {
		return
	}
	err, ok := r.(error)
	if !ok {
		err = ewrap.Newf("%v", r)
	}
	s.reportError(err, "GoPanic", map[string]any{"stack": string(debug.Stack())})

	ctx, cancel := context.WithTimeout(context.Background(), panicFlushTimeout)
	defer cancel()
	_ = s.Flush(ctx)

	panic(r)
}

func (s *Shipper) reportError(err error, mode string, fields map[string]any) {
	if err == nil {
		return
	}
	merged := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	merged[s.config.ErrorKey] = map[string]any{
		"mode":    mode,
		"type":    fmt.Sprintf("%T", err),
		"message": err.Error(),
	}
	s.Log(SeverityError, err.Error(), merged)
}

// lineWriter splits written bytes into lines.
type lineWriter struct {
	mu   sync.Mutex
	buf  []byte
	ship func(line []byte)
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	if len(w.buf) == 0 {
		w.buf = nil
	}
	return len(p), nil
}

func (w *lineWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.buf) > 0 {
		w.emit(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *lineWriter) emit(line []byte) {
	line = bytes.TrimRight(line, "\r")
	if len(bytes.TrimSpace(line)) == 0 {
		return
	}
	w.ship(bytes.Clone(line))
}

func isJSONObject(line []byte) bool {
	trimmed := bytes.TrimSpace(line)
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}
