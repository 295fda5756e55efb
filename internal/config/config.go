// Package config handles loading the service configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/woozymasta/shpjson/internal/cache"
	"github.com/woozymasta/shpjson/internal/converter"

	"gopkg.in/yaml.v3"
)

// Config represents the root configuration file structure.
type Config struct {
	// Applied when a request leaves epsg or cpg unset. A non-empty cpg
	// overrides the .cpg member of every bundle.
	EPSG      int      `yaml:"epsg,omitempty"`
	CPG       string   `yaml:"cpg,omitempty"`
	AllowList []string `yaml:"allow_list,omitempty"`

	CacheSize int           `yaml:"cache_size,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`  // remote fetch timeout
	MaxBody   int64         `yaml:"max_body,omitempty"` // upload limit in bytes

	Minify     bool `yaml:"minify,omitempty"`
	AllowLocal bool `yaml:"allow_local,omitempty"` // accept disk paths as src
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		CacheSize: cache.DefaultCapacity,
		Timeout:   30 * time.Second,
		MaxBody:   64 << 20,
	}
}

// Load reads and parses the YAML configuration file from the specified path.
// Keys missing from the file keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if cfg.CacheSize <= 0 {
		cfg.CacheSize = cache.DefaultCapacity
	}
	if cfg.EPSG < 0 {
		return nil, fmt.Errorf("parse %s: negative epsg %d", path, cfg.EPSG)
	}

	return cfg, nil
}

// Options returns the conversion defaults carried by the configuration.
func (c *Config) Options() converter.Options {
	return converter.Options{
		EPSG:      c.EPSG,
		CPG:       c.CPG,
		AllowList: c.AllowList,
	}
}
