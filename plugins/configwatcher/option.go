package configwatcher

import "github.com/bft-labs/logship/pkg/logship"

// WithConfigWatcher returns a logship Option that reloads bulk options from
// cfg.Path whenever the file changes.
//
// Usage:
//
//	s, err := logship.New(cfg,
//	    configwatcher.WithConfigWatcher(configwatcher.Config{
//	        Path:          "/etc/logship/config.toml",
//	        DebounceDelay: 100 * time.Millisecond,
//	    }),
//	)
func WithConfigWatcher(cfg Config) logship.Option {
	return logship.WithPlugin(New(cfg))
}

// WithDefaultConfigWatcher watches ~/.logship/config.toml.
func WithDefaultConfigWatcher() logship.Option {
	return WithConfigWatcher(DefaultConfig())
}
