// Package config loads the YAML-based engine configuration a CLI driver
// or long-running service wires into index.Open.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EngineConfig is the top-level configuration for an index engine
// instance: where its primary store lives, its page/cache tuning, and
// its shard routing range.
type EngineConfig struct {
	// Path is the primary store's file path; shard files are
	// Path+".0", Path+".1", and so on.
	Path string `yaml:"path"`
	// ReadOnly opens every store without write permission.
	ReadOnly bool `yaml:"read_only"`
	// PageSize is the underlying store's page size in bytes. Zero
	// selects the store library's default.
	PageSize int `yaml:"page_size"`
	// CacheSize is the memory budget, in bytes, split across the
	// primary and every opened shard store.
	CacheSize int `yaml:"cache_size"`
	// SubCount is the shard count; zero disables routing.
	SubCount int `yaml:"subcount"`
	// SubMin and SubMax bound the shard range this process opens.
	// SubMax >= SubCount disables routing (the wraparound case).
	SubMin int `yaml:"submin"`
	SubMax int `yaml:"submax"`
	// DefaultMode names the query mode a chatbot adapter or CLI driver
	// falls back to when the caller doesn't specify one: "exact",
	// "fuzzy", "part", or "not".
	DefaultMode string `yaml:"default_mode"`
}

const defaultCacheSizeReadOnly = 16 << 20 // 16 MiB, per the resource model's read-only default.

// Load reads and unmarshals a YAML file into an EngineConfig, applying
// the resource model's defaults for any field the file leaves zero.
func Load(path string) (EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg EngineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return EngineConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *EngineConfig) applyDefaults() {
	if c.CacheSize == 0 && c.ReadOnly {
		c.CacheSize = defaultCacheSizeReadOnly
	}
	if c.DefaultMode == "" {
		c.DefaultMode = "fuzzy"
	}
	if c.SubMax == 0 && c.SubCount > 0 {
		c.SubMax = c.SubCount - 1
	}
}
