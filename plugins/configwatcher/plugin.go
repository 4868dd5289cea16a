// Package configwatcher reloads a shipper's bulk options when its TOML
// configuration file changes.
package configwatcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hyp3rd/ewrap"

	"github.com/bft-labs/logship/internal/cliconfig"
	"github.com/bft-labs/logship/pkg/log"
	"github.com/bft-labs/logship/pkg/logship"
)

// DefaultDebounceDelay is how long the plugin waits after the last change
// before reloading.
const DefaultDebounceDelay = 100 * time.Millisecond

// LoadFunc reads the bulk options from the file at path.
type LoadFunc func(path string) (logship.BulkOptions, error)

// Config holds configuration options for the config watcher plugin.
type Config struct {
	// Path is the configuration file to watch. Empty disables the plugin.
	Path string

	// DebounceDelay is the delay to wait after a file change before reloading.
	// Default: 100 milliseconds
	DebounceDelay time.Duration

	// Load reads the file. Default: LoadBulkOptions.
	Load LoadFunc
}

// DefaultConfig returns a Config watching the CLI's default config file.
func DefaultConfig() Config {
	return Config{
		Path:          cliconfig.DefaultConfigPath(),
		DebounceDelay: DefaultDebounceDelay,
	}
}

// LoadBulkOptions reads the bulk options of a logship TOML file, layered
// over defaults and the LOGSHIP_* environment.
func LoadBulkOptions(path string) (logship.BulkOptions, error) {
	cfg, err := cliconfig.Resolve(cliconfig.DefaultConfig(), path, nil)
	if err != nil {
		return logship.BulkOptions{}, err
	}
	return cfg.BulkOptions(), nil
}

// Plugin watches a configuration file and applies its bulk options to the
// shipper whenever it changes.
type Plugin struct {
	mu sync.Mutex

	path          string
	debounceDelay time.Duration
	load          LoadFunc

	logger   logship.Logger
	apply    func(logship.BulkOptions)
	watcher  *fsnotify.Watcher
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
	reloads  int
}

// New creates a new config watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = DefaultDebounceDelay
	}
	if cfg.Load == nil {
		cfg.Load = LoadBulkOptions
	}
	return &Plugin{
		path:          cfg.Path,
		debounceDelay: cfg.DebounceDelay,
		load:          cfg.Load,
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "configwatcher"
}

// Initialize starts watching the file's directory. Editors often replace
// files instead of writing them in place, so the directory is watched and
// events are filtered by file name.
func (p *Plugin) Initialize(ctx context.Context, cfg logship.PluginConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.logger = cfg.Logger
	if p.logger == nil {
		p.logger = log.NewNoopLogger()
	}
	p.apply = cfg.SetBulkOptions

	if p.path == "" || p.apply == nil {
		p.logger.Warn("config watcher disabled: no config file")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return ewrap.Wrap(err, "create config watcher")
	}
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		_ = watcher.Close()
		return ewrap.Wrap(err, "watch config directory").WithMetadata("path", p.path)
	}
	p.watcher = watcher

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)

	p.logger.Info("config watcher started", log.String("path", p.path))
	return nil
}

// Shutdown stops the watcher and any pending reload.
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	if p.debounce != nil {
		p.debounce.Stop()
		p.debounce = nil
	}
	p.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ewrap.Wrap(ctx.Err(), "config watcher shutdown")
	}
}

// Reloads returns how many times the options were applied.
func (p *Plugin) Reloads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reloads
}

func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	name := filepath.Base(p.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			p.scheduleReload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("config watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) scheduleReload(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.debounce = time.AfterFunc(p.debounceDelay, func() {
		if ctx.Err() != nil {
			return
		}
		p.reload()
	})
}

func (p *Plugin) reload() {
	opts, err := p.load(p.path)
	if err != nil {
		p.logger.Error("config reload failed", log.String("path", p.path), log.Err(err))
		return
	}

	p.mu.Lock()
	apply := p.apply
	p.reloads++
	p.mu.Unlock()

	apply(opts)
	p.logger.Info("bulk options reloaded",
		log.String("path", p.path),
		log.Duration("linger", opts.Linger),
		log.Int("max_post_count", opts.MaxPostCount),
		log.Int("max_waiting_count", opts.MaxWaitingCount),
		log.Int("max_content_size", opts.MaxContentSize),
	)
}

var _ logship.Plugin = (*Plugin)(nil)
