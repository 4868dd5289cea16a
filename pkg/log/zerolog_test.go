package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestZerologAdapterFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologAdapterWithLogger(zerolog.New(&buf))

	logger.Warn("send failed",
		String("mode", "error"),
		Records(10),
		Bytes(2048),
		Status(503),
		Int("attempt", 2),
		Bool("retry", true),
		Duration("delay", time.Second),
		Err(errors.New("boom")),
	)

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}
	checks := map[string]any{
		"level":   "warn",
		"message": "send failed",
		"mode":    "error",
		"records": float64(10),
		"bytes":   float64(2048),
		"status":  float64(503),
		"attempt": float64(2),
		"retry":   true,
		"error":   "boom",
	}
	for k, want := range checks {
		if got[k] != want {
			t.Errorf("%s = %v, want %v", k, got[k], want)
		}
	}
}

func TestZerologAdapterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologAdapterWithLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	logger.Debug("hidden", String("k", "v"))
	if buf.Len() != 0 {
		t.Fatalf("debug message written below level: %q", buf.String())
	}
}

func TestNewCLILoggerNonTerminalWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewCLILogger(&buf)
	logger.Info().Msg("hello")

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("expected JSON output, got %q", buf.String())
	}
	if _, ok := got["time"]; !ok {
		t.Error("timestamp missing")
	}
}
