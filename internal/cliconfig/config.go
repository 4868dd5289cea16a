package cliconfig

import (
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/hyp3rd/ewrap"

	"github.com/bft-labs/logship/pkg/logship"
)

// DefaultSeverity is the severity of plain input lines.
const DefaultSeverity = logship.SeverityInfo

// Config holds CLI configuration for logship.
type Config struct {
	Endpoint string
	APIKey   string

	Linger          time.Duration
	MaxPostCount    int
	MaxWaitingCount int
	MaxContentSize  int
	BackoffBase     time.Duration
	BackoffMax      time.Duration
	HTTPTimeout     time.Duration

	LevelKey string
	ErrorKey string
	Severity string

	IPTracking        string
	UserAgentTracking string
	Compress          bool

	JSON   bool
	Follow bool

	Meta map[string]any
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Linger:          logship.DefaultLinger,
		MaxPostCount:    logship.DefaultMaxPostCount,
		MaxWaitingCount: logship.Unbounded,
		MaxContentSize:  logship.DefaultMaxContentSize,
		BackoffBase:     logship.DefaultBackoffBase,
		BackoffMax:      logship.DefaultBackoffMax,
		HTTPTimeout:     logship.DefaultHTTPTimeout,
		LevelKey:        logship.DefaultLevelKey,
		ErrorKey:        logship.DefaultErrorKey,
		Severity:        DefaultSeverity,
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.Severity == "" {
		c.Severity = DefaultSeverity
	}
	c.Endpoint = strings.TrimSpace(c.Endpoint)

	lc := c.ToLogship()
	lc.SetDefaults()
	if err := lc.Validate(); err != nil {
		return ewrap.Wrap(err, "invalid configuration")
	}
	return nil
}

// ToLogship converts the CLI configuration into a library Config.
// An HTTP timeout of zero disables the timeout.
func (c Config) ToLogship() logship.Config {
	timeout := c.HTTPTimeout
	if timeout == 0 {
		timeout = -1
	}
	return logship.Config{
		APIKey:            c.APIKey,
		Endpoint:          c.Endpoint,
		Linger:            c.Linger,
		MaxPostCount:      c.MaxPostCount,
		MaxWaitingCount:   c.MaxWaitingCount,
		MaxContentSize:    c.MaxContentSize,
		BackoffBase:       c.BackoffBase,
		BackoffMax:        c.BackoffMax,
		HTTPTimeout:       timeout,
		LevelKey:          c.LevelKey,
		ErrorKey:          c.ErrorKey,
		IPTracking:        c.IPTracking,
		UserAgentTracking: c.UserAgentTracking,
		Compress:          c.Compress,
		Metas:             maps.Clone(c.Meta),
	}
}

// BulkOptions returns the batching parameters, with defaults applied.
func (c Config) BulkOptions() logship.BulkOptions {
	lc := c.ToLogship()
	lc.SetDefaults()
	return lc.BulkOptions()
}

// Masked returns a copy safe to log.
func (c Config) Masked() Config {
	if c.APIKey != "" {
		c.APIKey = "*****"
	}
	return c
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value from a pointer if not nil and flag not changed.
func (s *configSetter) setInt(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return ewrap.Wrapf(err, "parse %s", flag)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setMeta merges attributes into dst if flag not changed.
func (s *configSetter) setMeta(flag string, value map[string]any, dst *map[string]any) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	if *dst == nil {
		*dst = make(map[string]any, len(value))
	}
	maps.Copy(*dst, value)
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return ewrap.Wrapf(err, "parse %s", flag)
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}

// ParseMeta parses "key=value" pairs separated by commas.
func ParseMeta(value string) (map[string]any, error) {
	out := make(map[string]any)
	for pair := range strings.SplitSeq(value, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, ewrap.Newf("invalid meta pair %q, want key=value", pair)
		}
		out[k] = v
	}
	return out, nil
}
