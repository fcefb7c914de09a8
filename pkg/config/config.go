// Package config loads graphplan settings from YAML with environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/graphplan/pkg/logging"
	"github.com/dd0wney/graphplan/pkg/validation"
)

// Config is the top-level configuration
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Storage StorageConfig `yaml:"storage"`
	Query   QueryConfig   `yaml:"query"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

type StorageConfig struct {
	// DataDir enables badger persistence when set
	DataDir    string `yaml:"data_dir"`
	InMemory   bool   `yaml:"in_memory"`
	SyncWrites bool   `yaml:"sync_writes"`
}

type QueryConfig struct {
	// Timeout bounds a single query; zero disables it
	Timeout          time.Duration `yaml:"timeout" validate:"min=0"`
	ResultSetMaxSize int           `yaml:"result_set_max_size" validate:"min=0"`
	ParallelScans    bool          `yaml:"parallel_scans"`
	ParseCacheSize   int           `yaml:"parse_cache_size" validate:"min=0,max=1000000"`
	MaxParallelScans int           `yaml:"max_parallel_scans" validate:"min=0,max=1024"`
}

type MetricsConfig struct {
	Enabled            bool          `yaml:"enabled"`
	SlowQueryThreshold time.Duration `yaml:"slow_query_threshold" validate:"min=0"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Storage: StorageConfig{},
		Query: QueryConfig{
			ParseCacheSize:   256,
			MaxParallelScans: 4,
		},
		Metrics: MetricsConfig{
			Enabled:            true,
			SlowQueryThreshold: time.Second,
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path yields the defaults plus overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("GRAPHPLAN_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("GRAPHPLAN_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("GRAPHPLAN_QUERY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Query.Timeout = d
		}
	}
}

// Validate checks struct tags first and then cross-field rules.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return validation.NewConfigValidator("Config").
		When(c.Storage.InMemory, func(cv *validation.ConfigValidator) {
			cv.Custom("storage.data_dir", func() error {
				if c.Storage.DataDir != "" {
					return fmt.Errorf("in_memory and data_dir are mutually exclusive")
				}
				return nil
			})
		}).
		When(c.Query.ParallelScans, func(cv *validation.ConfigValidator) {
			cv.Custom("query.max_parallel_scans", func() error {
				if c.Query.MaxParallelScans < 1 {
					return fmt.Errorf("must be at least 1 when parallel_scans is enabled")
				}
				return nil
			})
		}).
		Validate()
}

// Logger builds the configured logger writing to stderr.
func (c *Config) Logger() logging.Logger {
	return logging.NewLogger(os.Stderr, logging.ParseLevel(c.Log.Level), logging.Format(c.Log.Format))
}
