package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 1024, cfg.Processor.SpliceBatchSize)
	assert.Equal(t, 0, cfg.History.MaxDepth)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
log:
  level: debug
  show_caller: true
processor:
  splice_batch_size: 16
history:
  max_depth: 50
storage:
  backend: redis
  redis:
    addr: redis:6379
    db: 2
`))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.ShowCaller)
	assert.Equal(t, 16, cfg.Processor.SpliceBatchSize)
	assert.Equal(t, 50, cfg.History.MaxDepth)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "redis:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, 2, cfg.Storage.Redis.DB)
	// Unset keys keep their defaults.
	assert.Equal(t, "linmodel", cfg.Storage.Redis.KeyPrefix)
	assert.Equal(t, "snapshots", cfg.Storage.Mongo.Collection)
}

func TestParseErrors(t *testing.T) {
	for name, input := range map[string]string{
		"syntax":          "log: [",
		"unknown backend": "storage: {backend: sqlite}",
		"negative batch":  "processor: {splice_batch_size: -1}",
		"negative depth":  "history: {max_depth: -3}",
		"badger path":     "storage: {backend: badger, badger: {path: ''}}",
		"redis addr":      "storage: {backend: redis, redis: {addr: ''}}",
		"mongo database":  "storage: {backend: mongo, mongo: {database: ''}}",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(input))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linmodel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: badger\n  badger:\n    in_memory: true\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendBadger, cfg.Storage.Backend)
	assert.True(t, cfg.Storage.Badger.InMemory)
	assert.Equal(t, "./linmodel-data", cfg.Storage.Badger.Path)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
