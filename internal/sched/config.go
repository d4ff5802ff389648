package sched

import (
	"os"

	yaml "github.com/goccy/go-yaml"

	"ticksched/internal/errors"
)

// DefaultGroup is the group of tasks spawned without one.
const DefaultGroup = "default"

// Config mirrors the wheel section of config.yml
type Config struct {
	Name              string `yaml:"name"`                // random short id when empty
	IDLimit           uint64 `yaml:"id_limit"`            // 0 (unlimited) by default
	OutcomeCapacity   int    `yaml:"outcome_capacity"`    // 128 by default
	DefaultGroup      string `yaml:"default_group"`       // "default" by default
	StopWhenSuspended bool   `yaml:"stop_when_suspended"` // true by default
	LogLevel          string `yaml:"log_level"`           // "info" by default
	LogFormat         string `yaml:"log_format"`          // "text" by default
}

// DefaultConfig is used when no config file is given.
func DefaultConfig() Config {
	return Config{
		OutcomeCapacity:   128,
		DefaultGroup:      DefaultGroup,
		StopWhenSuspended: true,
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// Load reads YAML and overrides defaults; empty path or a missing file means defaults only.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}

	if err != nil {
		return cfg, errors.WithStackTrace(err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), errors.Errorf("parsing %s: %w", path, err)
	}

	return cfg.sanitized(), nil
}

// sanity clamps
func (cfg Config) sanitized() Config {
	if cfg.OutcomeCapacity <= 0 {
		cfg.OutcomeCapacity = 128
	}

	if cfg.DefaultGroup == "" {
		cfg.DefaultGroup = DefaultGroup
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}

	return cfg
}
