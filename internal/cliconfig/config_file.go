package cliconfig

import (
	"os"
	"path/filepath"

	"github.com/hyp3rd/ewrap"
	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations and pointers for
// values whose zero is meaningful.
type FileConfig struct {
	Endpoint          string         `toml:"endpoint"`
	APIKey            string         `toml:"api_key"`
	Linger            string         `toml:"linger"`
	MaxPostCount      *int           `toml:"max_post_count"`
	MaxWaitingCount   *int           `toml:"max_waiting_count"`
	MaxContentSize    *int           `toml:"max_content_size"`
	BackoffBase       string         `toml:"backoff_base"`
	BackoffMax        string         `toml:"backoff_max"`
	HTTPTimeout       string         `toml:"http_timeout"`
	LevelKey          string         `toml:"level_key"`
	ErrorKey          string         `toml:"error_key"`
	Severity          string         `toml:"severity"`
	IPTracking        string         `toml:"ip_tracking"`
	UserAgentTracking string         `toml:"user_agent_tracking"`
	Compress          *bool          `toml:"compress"`
	JSON              *bool          `toml:"json"`
	Follow            *bool          `toml:"follow"`
	Meta              map[string]any `toml:"meta"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, ewrap.Wrap(err, "read config file").WithMetadata("path", path)
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, ewrap.Wrap(err, "parse config file").WithMetadata("path", path)
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.logship/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".logship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("endpoint", fc.Endpoint, &cfg.Endpoint)
	s.setString("api-key", fc.APIKey, &cfg.APIKey)
	s.setString("level-key", fc.LevelKey, &cfg.LevelKey)
	s.setString("error-key", fc.ErrorKey, &cfg.ErrorKey)
	s.setString("severity", fc.Severity, &cfg.Severity)
	s.setString("ip-tracking", fc.IPTracking, &cfg.IPTracking)
	s.setString("user-agent-tracking", fc.UserAgentTracking, &cfg.UserAgentTracking)

	if err := s.setDuration("linger", fc.Linger, &cfg.Linger); err != nil {
		return err
	}
	if err := s.setDuration("backoff-base", fc.BackoffBase, &cfg.BackoffBase); err != nil {
		return err
	}
	if err := s.setDuration("backoff-max", fc.BackoffMax, &cfg.BackoffMax); err != nil {
		return err
	}
	if err := s.setDuration("http-timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}

	s.setInt("max-post-count", fc.MaxPostCount, &cfg.MaxPostCount)
	s.setInt("max-waiting-count", fc.MaxWaitingCount, &cfg.MaxWaitingCount)
	s.setInt("max-content-size", fc.MaxContentSize, &cfg.MaxContentSize)

	s.setBool("compress", fc.Compress, &cfg.Compress)
	s.setBool("json", fc.JSON, &cfg.JSON)
	s.setBool("follow", fc.Follow, &cfg.Follow)

	s.setMeta("meta", fc.Meta, &cfg.Meta)

	return nil
}

// Resolve layers the file at path (when it exists) and the environment over
// base. Flags named in changed keep their value from base.
func Resolve(base Config, path string, changed map[string]bool) (Config, error) {
	cfg := base
	if path != "" && FileExists(path) {
		fc, err := LoadFileConfig(path)
		if err != nil {
			return base, err
		}
		if err := ApplyFileConfig(&cfg, fc, changed); err != nil {
			return base, err
		}
	}
	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		return base, err
	}
	return cfg, nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
