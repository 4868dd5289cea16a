package cliconfig

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "LOGSHIP"

// newEnv returns a viper instance resolving flag names such as "api-key"
// to LOGSHIP_API_KEY.
func newEnv() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// ApplyEnvConfig applies configuration from environment variables (LOGSHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	v := newEnv()
	s := newConfigSetter(changed)

	s.setString("endpoint", v.GetString("endpoint"), &cfg.Endpoint)
	s.setString("api-key", v.GetString("api-key"), &cfg.APIKey)
	s.setString("level-key", v.GetString("level-key"), &cfg.LevelKey)
	s.setString("error-key", v.GetString("error-key"), &cfg.ErrorKey)
	s.setString("severity", v.GetString("severity"), &cfg.Severity)
	s.setString("ip-tracking", v.GetString("ip-tracking"), &cfg.IPTracking)
	s.setString("user-agent-tracking", v.GetString("user-agent-tracking"), &cfg.UserAgentTracking)

	for flag, dst := range map[string]*int{
		"max-post-count":    &cfg.MaxPostCount,
		"max-waiting-count": &cfg.MaxWaitingCount,
		"max-content-size":  &cfg.MaxContentSize,
	} {
		if err := s.setIntFromString(flag, v.GetString(flag), dst); err != nil {
			return err
		}
	}

	if err := s.setDuration("linger", v.GetString("linger"), &cfg.Linger); err != nil {
		return err
	}
	if err := s.setDuration("backoff-base", v.GetString("backoff-base"), &cfg.BackoffBase); err != nil {
		return err
	}
	if err := s.setDuration("backoff-max", v.GetString("backoff-max"), &cfg.BackoffMax); err != nil {
		return err
	}
	if err := s.setDuration("http-timeout", v.GetString("http-timeout"), &cfg.HTTPTimeout); err != nil {
		return err
	}

	s.setBoolFromString("compress", v.GetString("compress"), &cfg.Compress)
	s.setBoolFromString("json", v.GetString("json"), &cfg.JSON)
	s.setBoolFromString("follow", v.GetString("follow"), &cfg.Follow)

	if raw := v.GetString("meta"); raw != "" {
		meta, err := ParseMeta(raw)
		if err != nil {
			return err
		}
		s.setMeta("meta", meta, &cfg.Meta)
	}

	return nil
}
