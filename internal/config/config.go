// Package config loads the YAML configuration of the command line tool.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/rstar/codec"
)

// Config is the root of the configuration file.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Index   IndexConfig   `yaml:"index"`
	Ingest  IngestConfig  `yaml:"ingest"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig selects and configures the blob backend.
type StorageConfig struct {
	Backend       string `yaml:"backend"`  // memory | local | s3 | minio | sqlite
	Path          string `yaml:"path"`     // local directory or sqlite file
	Bucket        string `yaml:"bucket"`   // s3 / minio bucket
	Prefix        string `yaml:"prefix"`   // key prefix inside the bucket
	Endpoint      string `yaml:"endpoint"` // s3 compatible or minio endpoint
	Region        string `yaml:"region"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	Secure        bool   `yaml:"secure"`
	DDBTable      string `yaml:"ddb_table"` // DynamoDB table for s3 metadata commits
	BlockSize     int    `yaml:"block_size"`
	Compression   string `yaml:"compression"` // none | lz4 | zstd
	Codec         string `yaml:"codec"`       // metadata codec: json | yaml
	CacheBytes    int64  `yaml:"cache_bytes"`
	IOBytesPerSec int64  `yaml:"io_bytes_per_sec"`
	MaxWorkers    int64  `yaml:"max_workers"`
}

// IndexConfig configures the tree.
type IndexConfig struct {
	Dimensions int `yaml:"dimensions"`
	MaxEntries int `yaml:"max_entries"`
}

// IngestConfig configures CSV loading.
type IngestConfig struct {
	Delimiter          string `yaml:"delimiter"`
	SkipHeader         bool   `yaml:"skip_header"`
	MaxRecordsPerBlock int    `yaml:"max_records_per_block"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{
		Storage: StorageConfig{
			Backend:     "local",
			Path:        "rstar_data",
			BlockSize:   32 * 1024,
			Compression: "none",
			Codec:       "json",
			CacheBytes:  8 << 20,
		},
		Index: IndexConfig{
			Dimensions: 2,
			MaxEntries: 4,
		},
		Ingest: IngestConfig{
			Delimiter: ",",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
	return cfg
}

// Load reads configPath over the defaults. An empty path tries rstar.yaml and
// configs/rstar.yaml and falls back to the defaults when neither exists.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		for _, p := range []string{"rstar.yaml", "configs/rstar.yaml"} {
			data, err := os.ReadFile(p)
			if err == nil {
				if err := yaml.Unmarshal(data, cfg); err != nil {
					return cfg, fmt.Errorf("parse %s: %w", p, err)
				}
				applyDefaults(cfg)
				return cfg, cfg.Validate()
			}
		}
		applyDefaults(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", configPath, err)
	}
	applyDefaults(cfg)
	return cfg, cfg.Validate()
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "local"
	}
	if cfg.Storage.BlockSize <= 0 {
		cfg.Storage.BlockSize = 32 * 1024
	}
	if cfg.Storage.Compression == "" {
		cfg.Storage.Compression = "none"
	}
	if cfg.Storage.Codec == "" {
		cfg.Storage.Codec = "json"
	}
	if cfg.Storage.CacheBytes < 0 {
		cfg.Storage.CacheBytes = 0
	}
	if cfg.Index.MaxEntries <= 0 {
		cfg.Index.MaxEntries = 4
	}
	if cfg.Ingest.Delimiter == "" {
		cfg.Ingest.Delimiter = ","
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// Validate checks values that have no sensible default.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Storage.Backend) {
	case "memory":
	case "local", "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the %s backend", c.Storage.Backend)
		}
	case "s3", "minio":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for the %s backend", c.Storage.Backend)
		}
		if c.Storage.Backend == "minio" && c.Storage.Endpoint == "" {
			return fmt.Errorf("storage.endpoint is required for the minio backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if _, ok := codec.ByName(c.Storage.Codec); !ok {
		return fmt.Errorf("unknown metadata codec %q", c.Storage.Codec)
	}
	if c.Index.Dimensions <= 0 {
		return fmt.Errorf("index.dimensions must be positive, got %d", c.Index.Dimensions)
	}
	if c.Index.MaxEntries < 3 {
		return fmt.Errorf("index.max_entries must be at least 3, got %d", c.Index.MaxEntries)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}
