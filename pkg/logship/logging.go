package logship

import (
	"maps"

	"github.com/bft-labs/logship/internal/domain"
	"github.com/bft-labs/logship/internal/ports"
)

// Severities used by the helper methods.
const (
	SeverityTrace = "trace"
	SeverityDebug = "debug"
	SeverityInfo  = "info"
	SeverityWarn  = "warn"
	SeverityError = "error"
)

// Log queues a record {message, <LevelKey>: severity} with fields and the
// shipper's metas merged in. On key collisions metas win, then message and
// severity, then fields. An empty severity means "info".
func (s *Shipper) Log(severity, message string, fields map[string]any) {
	if severity == "" {
		severity = SeverityInfo
	}
	rec := make(map[string]any, len(fields)+2)
	maps.Copy(rec, fields)
	rec["message"] = message
	rec[s.config.LevelKey] = severity
	s.metaMu.RLock()
	maps.Copy(rec, s.metas)
	s.metaMu.RUnlock()

	s.enqueueFields(rec)
}

func (s *Shipper) enqueueFields(fields map[string]any) {
	r, err := domain.NewRecord(fields)
	if err != nil {
		s.logger.Warn("record serialization failed", ports.Err(err))
	}
	s.dispatcher.Enqueue(r)
}

// Trace logs message with severity "trace".
func (s *Shipper) Trace(message string, fields map[string]any) {
	s.Log(SeverityTrace, message, fields)
}

// Debug logs message with severity "debug".
func (s *Shipper) Debug(message string, fields map[string]any) {
	s.Log(SeverityDebug, message, fields)
}

// Info logs message with severity "info".
func (s *Shipper) Info(message string, fields map[string]any) {
	s.Log(SeverityInfo, message, fields)
}

// Warn logs message with severity "warn".
func (s *Shipper) Warn(message string, fields map[string]any) {
	s.Log(SeverityWarn, message, fields)
}

// Error logs message with severity "error".
func (s *Shipper) Error(message string, fields map[string]any) {
	s.Log(SeverityError, message, fields)
}

// SetMetas replaces the metadata merged into every record.
func (s *Shipper) SetMetas(metas map[string]any) {
	s.metaMu.Lock()
	defer s.metaMu.Unlock()
	s.metas = maps.Clone(metas)
	if s.metas == nil {
		s.metas = make(map[string]any)
	}
}

// AddMeta sets one metadata attribute merged into every record.
func (s *Shipper) AddMeta(key string, value any) {
	s.metaMu.Lock()
	defer s.metaMu.Unlock()
	s.metas[key] = value
}

func (s *Shipper) metasSnapshot() map[string]any {
	s.metaMu.RLock()
	defer s.metaMu.RUnlock()
	return maps.Clone(s.metas)
}
