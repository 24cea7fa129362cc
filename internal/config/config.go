// Package config loads the YAML configuration of the bpmx command.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/bpmx/pkg/history"
)

type Config struct {
	Connector ConnectorConfig `yaml:"connector"`
	History   HistoryConfig   `yaml:"history"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Log       LogConfig       `yaml:"log"`
}

type ConnectorConfig struct {
	ID          string `yaml:"id"`
	Adapter     string `yaml:"adapter"`
	Path        string `yaml:"path"`
	ReadOnly    bool   `yaml:"read_only"`
	MustExist   bool   `yaml:"must_exist"`
	EventBuffer int    `yaml:"event_buffer"`
}

type HistoryConfig struct {
	// Level is a built-in level name, a custom level name or "per-process".
	Level        string        `yaml:"level"`
	Property     string        `yaml:"property"`
	Fallback     string        `yaml:"fallback"`
	EvictOnEnd   *bool         `yaml:"evict_on_end"`
	CustomLevels []CustomLevel `yaml:"custom_levels"`

	// Store is "memory" or a SQLite DSN.
	Store string `yaml:"store"`
}

// CustomLevel declares a variable-filter level.
type CustomLevel struct {
	ID        int      `yaml:"id"`
	Name      string   `yaml:"name"`
	Variables []string `yaml:"variables"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Connector.ID == "" {
		c.Connector.ID = "default"
	}
	if c.Connector.Adapter == "" {
		c.Connector.Adapter = "fs"
	}
	if c.Connector.Adapter == "fs" && c.Connector.Path == "" {
		c.Connector.Path = "."
	}
	if c.History.Level == "" {
		c.History.Level = history.PerProcessName
	}
	if c.History.Property == "" {
		c.History.Property = history.DefaultPropertyName
	}
	if c.History.Fallback == "" {
		c.History.Fallback = history.NameNone
	}
	if c.History.EvictOnEnd == nil {
		evict := true
		c.History.EvictOnEnd = &evict
	}
	if c.History.Store == "" {
		c.History.Store = "memory"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "bpmx"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 10
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 3
	}
}

func (c *Config) validate() error {
	switch c.Connector.Adapter {
	case "fs", "memory":
	default:
		return fmt.Errorf("connector.adapter must be fs or memory, got %q", c.Connector.Adapter)
	}
	if c.Connector.EventBuffer < 0 {
		return errors.New("connector.event_buffer must not be negative")
	}

	known := make(map[string]bool)
	ids := make(map[int]string)
	for _, l := range history.BuiltinLevels() {
		known[l.Name()] = true
		ids[l.ID()] = l.Name()
	}
	ids[history.PerProcessID] = history.PerProcessName

	for i, l := range c.History.CustomLevels {
		if l.Name == "" {
			return fmt.Errorf("history.custom_levels[%d].name is required", i)
		}
		if l.Name == history.PerProcessName || known[l.Name] {
			return fmt.Errorf("history.custom_levels[%d]: name %q is already taken", i, l.Name)
		}
		if other, ok := ids[l.ID]; ok {
			return fmt.Errorf("history.custom_levels[%d]: id %d is already used by %q", i, l.ID, other)
		}
		known[l.Name] = true
		ids[l.ID] = l.Name
	}

	if c.History.Level != history.PerProcessName && !known[c.History.Level] {
		return fmt.Errorf("history.level %q is unknown", c.History.Level)
	}
	if !known[c.History.Fallback] {
		return fmt.Errorf("history.fallback %q is unknown", c.History.Fallback)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is unknown", c.Log.Level)
	}
	return nil
}
