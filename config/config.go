// Package config provides the simulator's JSON configuration.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sarchlab/pipesim/timing/cache"
	"github.com/sarchlab/pipesim/timing/pipeline"
	"github.com/sarchlab/pipesim/trace"
)

// DCacheConfig configures the optional data-cache statistics model.
type DCacheConfig struct {
	// Enabled attaches the model to the MEM stage. Default: false.
	Enabled bool `json:"enabled"`

	cache.Config
}

// Config holds simulator settings.
type Config struct {
	// MaxCycles aborts a run after this many cycles. 0 disables the guard.
	// Default: 1000000.
	MaxCycles uint64 `json:"max_cycles"`

	// TraceFormat is one of text, markdown, csv or html. Default: text.
	TraceFormat string `json:"trace_format"`

	// LogLevel is one of debug, info, warn or error. Default: warn.
	LogLevel string `json:"log_level"`

	// DCache configures the data-cache statistics model.
	DCache DCacheConfig `json:"dcache"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		MaxCycles:   1000000,
		TraceFormat: string(trace.FormatText),
		LogLevel:    "warn",
		DCache: DCacheConfig{
			Enabled: false,
			Config:  cache.DefaultConfig(),
		},
	}
}

// LoadConfig loads a Config from a JSON file. Missing fields keep their
// default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// SaveConfig writes the Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	if _, err := trace.ParseFormat(c.TraceFormat); err != nil {
		return err
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}

	if !c.DCache.Enabled {
		return nil
	}

	d := c.DCache.Config
	if d.Size <= 0 || d.Associativity <= 0 || d.BlockSize <= 0 {
		return fmt.Errorf("dcache size, associativity and block_size must be > 0")
	}
	if d.BlockSize%cache.WordSize != 0 {
		return fmt.Errorf("dcache block_size must be a multiple of %d", cache.WordSize)
	}
	if d.Size%(d.Associativity*d.BlockSize) != 0 {
		return fmt.Errorf("dcache size must be a multiple of associativity * block_size")
	}

	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// PipelineOptions translates the Config into pipeline options.
func (c *Config) PipelineOptions() []pipeline.PipelineOption {
	opts := []pipeline.PipelineOption{
		pipeline.WithMaxCycles(c.MaxCycles),
	}
	if c.DCache.Enabled {
		opts = append(opts, pipeline.WithDCache(c.DCache.Config))
	}
	return opts
}

// ParseLogLevel converts a level name into a slog level. The empty string
// means warn.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning", "":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}
