package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type lineCollector struct {
	mu    sync.Mutex
	lines []string
}

func (c *lineCollector) emit(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
}

func (c *lineCollector) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

func TestReadLines(t *testing.T) {
	var c lineCollector
	err := readLines(context.Background(), strings.NewReader("one\ntwo\n\nthree"), c.emit)
	if err != nil {
		t.Fatalf("readLines() error = %v", err)
	}

	want := []string{"one", "two", "", "three"}
	got := c.Lines()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("lines = %q, want %q", got, want)
	}
}

func TestReadLines_TooLong(t *testing.T) {
	var c lineCollector
	long := strings.Repeat("x", maxLineSize+1)
	if err := readLines(context.Background(), strings.NewReader(long), c.emit); err == nil {
		t.Error("readLines() expected error for oversized line")
	}
}

func TestReadLines_Canceled(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe failed: %v", err)
	}
	defer r.Close()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	var c lineCollector
	go func() { done <- readLines(ctx, r, c.emit) }()

	if _, err := w.WriteString("first\n"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for len(c.Lines()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("line was not read")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("readLines() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("readLines did not return after cancellation")
	}
}

func TestTailFiles_ReadsToEOF(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.log")
	b := filepath.Join(dir, "b.log")
	if err := os.WriteFile(a, []byte("a1\na2\n"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := os.WriteFile(b, []byte("b1\n"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var c lineCollector
	err := tailFiles(context.Background(), []string{a, b}, tailOptions{}, c.emit, zerolog.Nop())
	if err != nil {
		t.Fatalf("tailFiles() error = %v", err)
	}

	got := map[string]bool{}
	for _, l := range c.Lines() {
		got[l] = true
	}
	for _, want := range []string{"a1", "a2", "b1"} {
		if !got[want] {
			t.Errorf("line %q missing from %v", want, c.Lines())
		}
	}
}

func TestTailFiles_MissingFile(t *testing.T) {
	var c lineCollector
	err := tailFiles(context.Background(), []string{filepath.Join(t.TempDir(), "missing.log")}, tailOptions{}, c.emit, zerolog.Nop())
	if err == nil {
		t.Error("tailFiles() expected error for missing file")
	}
}

func TestTailFile_Follow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte("old\n"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var c lineCollector
	done := make(chan error, 1)
	go func() {
		done <- tailFile(ctx, path, tailOptions{Follow: true, FromStart: true, Poll: true}, c.emit, zerolog.Nop())
	}()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if _, err := f.WriteString("new\n"); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	f.Close()

	deadline := time.Now().Add(5 * time.Second)
	for len(c.Lines()) < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("lines = %q, want old and new", c.Lines())
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("tailFile() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tailFile did not return after cancellation")
	}
	if got := c.Lines(); got[0] != "old" || got[1] != "new" {
		t.Errorf("lines = %q, want [old new]", got)
	}
}
