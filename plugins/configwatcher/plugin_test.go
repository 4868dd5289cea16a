package configwatcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/bft-labs/logship/pkg/log"
	"github.com/bft-labs/logship/pkg/logship"
	"github.com/bft-labs/logship/pkg/sender"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

// startPlugin initializes p with a PluginConfig that reports applied options
// on the returned channel.
func startPlugin(t *testing.T, p *Plugin) <-chan logship.BulkOptions {
	t.Helper()
	applied := make(chan logship.BulkOptions, 16)

	ctx, cancel := context.WithCancel(context.Background())
	err := p.Initialize(ctx, logship.PluginConfig{
		Logger:         log.NewNoopLogger(),
		SetBulkOptions: func(o logship.BulkOptions) { applied <- o },
	})
	if err != nil {
		cancel()
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		if err := p.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown failed: %v", err)
		}
	})
	return applied
}

func TestPlugin_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, "max_post_count = 10\n")

	p := New(Config{Path: path, DebounceDelay: 20 * time.Millisecond})
	applied := startPlugin(t, p)

	writeConfig(t, path, "max_post_count = 3\nlinger = \"2s\"\nmax_waiting_count = 100\n")

	select {
	case got := <-applied:
		if got.MaxPostCount != 3 {
			t.Errorf("MaxPostCount = %d, want 3", got.MaxPostCount)
		}
		if got.Linger != 2*time.Second {
			t.Errorf("Linger = %v, want 2s", got.Linger)
		}
		if got.MaxWaitingCount != 100 {
			t.Errorf("MaxWaitingCount = %d, want 100", got.MaxWaitingCount)
		}
		if got.MaxContentSize != logship.DefaultMaxContentSize {
			t.Errorf("MaxContentSize = %d, want default", got.MaxContentSize)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("bulk options were not reloaded")
	}

	if p.Reloads() < 1 {
		t.Errorf("Reloads() = %d, want at least 1", p.Reloads())
	}
}

func TestPlugin_DebouncesBursts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, "max_post_count = 1\n")

	p := New(Config{Path: path, DebounceDelay: 200 * time.Millisecond})
	applied := startPlugin(t, p)

	for i := 2; i <= 5; i++ {
		writeConfig(t, path, "max_post_count = "+strconv.Itoa(i)+"\n")
	}

	select {
	case got := <-applied:
		if got.MaxPostCount != 5 {
			t.Errorf("MaxPostCount = %d, want the last written value 5", got.MaxPostCount)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("bulk options were not reloaded")
	}

	select {
	case got := <-applied:
		t.Errorf("unexpected second reload: %+v", got)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestPlugin_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, "max_post_count = 10\n")

	p := New(Config{Path: path, DebounceDelay: 10 * time.Millisecond})
	applied := startPlugin(t, p)

	writeConfig(t, filepath.Join(dir, "other.toml"), "max_post_count = 99\n")

	select {
	case got := <-applied:
		t.Fatalf("reloaded after unrelated change: %+v", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestPlugin_KeepsOptionsOnLoadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, "max_post_count = 10\n")

	loads := make(chan struct{}, 16)
	p := New(Config{
		Path:          path,
		DebounceDelay: 10 * time.Millisecond,
		Load: func(string) (logship.BulkOptions, error) {
			loads <- struct{}{}
			return logship.BulkOptions{}, errors.New("broken file")
		},
	})
	applied := startPlugin(t, p)

	writeConfig(t, path, "not toml at all ===\n")

	select {
	case <-loads:
	case <-time.After(5 * time.Second):
		t.Fatal("file was not reloaded")
	}
	select {
	case got := <-applied:
		t.Fatalf("options applied despite load error: %+v", got)
	case <-time.After(100 * time.Millisecond):
	}
	if p.Reloads() != 0 {
		t.Errorf("Reloads() = %d, want 0", p.Reloads())
	}
}

func TestPlugin_DisabledWithoutPath(t *testing.T) {
	p := New(Config{})
	if err := p.Initialize(context.Background(), logship.PluginConfig{
		SetBulkOptions: func(logship.BulkOptions) {},
	}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
}

func TestPlugin_MissingDirectory(t *testing.T) {
	p := New(Config{Path: filepath.Join(t.TempDir(), "missing", "config.toml")})
	err := p.Initialize(context.Background(), logship.PluginConfig{
		SetBulkOptions: func(logship.BulkOptions) {},
	})
	if err == nil {
		t.Fatal("Initialize() expected error for missing directory")
	}
}

func TestLoadBulkOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, "linger = \"1s\"\nmax_post_count = 0\nmax_content_size = -1\n")

	got, err := LoadBulkOptions(path)
	if err != nil {
		t.Fatalf("LoadBulkOptions() error = %v", err)
	}
	want := logship.BulkOptions{
		Linger:          time.Second,
		MaxPostCount:    logship.DefaultMaxPostCount,
		MaxWaitingCount: logship.Unbounded,
		MaxContentSize:  -1,
	}
	if got != want {
		t.Errorf("LoadBulkOptions() = %+v, want %+v", got, want)
	}

	writeConfig(t, path, "linger = \"0s\"\nmax_waiting_count = 0\n")
	got, err = LoadBulkOptions(path)
	if err != nil {
		t.Fatalf("LoadBulkOptions() error = %v", err)
	}
	if got.Linger != 0 || got.MaxWaitingCount != 0 {
		t.Errorf("LoadBulkOptions() = %+v, want zero linger and zero bound", got)
	}

	writeConfig(t, path, "linger = \"later\"\n")
	if _, err := LoadBulkOptions(path); err == nil {
		t.Error("LoadBulkOptions() expected error for invalid duration")
	}
}

func TestWithConfigWatcher_UpdatesShipper(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, "max_post_count = 10\n")

	cfg := logship.DefaultConfig()
	cfg.APIKey = "test-key"
	s, err := logship.New(cfg,
		logship.WithSender(sender.Func(func(context.Context, []byte) sender.Result { return sender.OK() })),
		WithConfigWatcher(Config{Path: path, DebounceDelay: 10 * time.Millisecond}),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer func() {
		if err := s.Stop(); err != nil {
			t.Errorf("Stop failed: %v", err)
		}
	}()

	writeConfig(t, path, "max_post_count = 4\n")

	deadline := time.Now().Add(5 * time.Second)
	for s.BulkOptions().MaxPostCount != 4 {
		if time.Now().After(deadline) {
			t.Fatalf("MaxPostCount = %d, want 4", s.BulkOptions().MaxPostCount)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
