// Package config loads the YAML configuration of the document engine.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"linmodel/linear"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Config is the root configuration.
type Config struct {
	Log       Log       `yaml:"log"`
	Processor Processor `yaml:"processor"`
	History   History   `yaml:"history"`
	Storage   Storage   `yaml:"storage"`
}

// Log configures the process logger.
type Log struct {
	Level      string `yaml:"level"`
	ShowCaller bool   `yaml:"show_caller"`
}

// Processor configures the transaction processor.
type Processor struct {
	// SpliceBatchSize bounds how many items or nodes are moved per splice step.
	SpliceBatchSize int `yaml:"splice_batch_size"`
}

// History configures undo and redo.
type History struct {
	// MaxDepth bounds the undo stack; 0 keeps everything.
	MaxDepth int `yaml:"max_depth"`
}

// Storage selects and configures the snapshot backend.
type Storage struct {
	Backend string `yaml:"backend"`
	Badger  Badger `yaml:"badger"`
	Redis   Redis  `yaml:"redis"`
	Mongo   Mongo  `yaml:"mongo"`
}

// Badger configures the badger backend.
type Badger struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

// Redis configures the redis backend.
type Redis struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// Mongo configures the mongo backend.
type Mongo struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Log: Log{
			Level: "info",
		},
		Processor: Processor{
			SpliceBatchSize: linear.DefaultBatchSize,
		},
		Storage: Storage{
			Backend: BackendMemory,
			Badger: Badger{
				Path: "./linmodel-data",
			},
			Redis: Redis{
				Addr:      "localhost:6379",
				KeyPrefix: "linmodel",
			},
			Mongo: Mongo{
				URI:        "mongodb://localhost:27017",
				Database:   "linmodel",
				Collection: "snapshots",
			},
		},
	}
}

// Load reads the file at path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that have no usable fallback.
func (c *Config) Validate() error {
	if c.Processor.SpliceBatchSize < 0 {
		return errors.Errorf("processor.splice_batch_size must not be negative, got %d", c.Processor.SpliceBatchSize)
	}
	if c.History.MaxDepth < 0 {
		return errors.Errorf("history.max_depth must not be negative, got %d", c.History.MaxDepth)
	}
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendBadger:
		if c.Storage.Badger.Path == "" && !c.Storage.Badger.InMemory {
			return errors.New("storage.badger.path is required unless in_memory is set")
		}
	case BackendRedis:
		if c.Storage.Redis.Addr == "" {
			return errors.New("storage.redis.addr is required")
		}
	case BackendMongo:
		if c.Storage.Mongo.URI == "" || c.Storage.Mongo.Database == "" || c.Storage.Mongo.Collection == "" {
			return errors.New("storage.mongo needs uri, database and collection")
		}
	default:
		return errors.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}
