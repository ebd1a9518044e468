package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigLoader_Load(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	configContent := `environment: "production"

node:
  id: "aa11"
  listen: "0.0.0.0:7946"

kademlia:
  k: 20
  alpha: 3

storage:
  ttl: 1h
  capacity: 5000

cert_dir: "/var/lib/dht/certs"

logging:
  level: "info"
  format: "json"
  output: "stdout"`

	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	loader := NewConfigLoader()
	cfg, err := loader.Load(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "aa11", cfg.Node.ID)
	assert.Equal(t, "0.0.0.0:7946", cfg.Node.Listen)
	assert.Equal(t, 20, cfg.Kademlia.K)
	assert.Equal(t, 3, cfg.Kademlia.Alpha)
	assert.Equal(t, 5000, cfg.Storage.Capacity)
	assert.Equal(t, "/var/lib/dht/certs", cfg.CertDir)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestConfigLoader_LoadAppliesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "minimal.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("environment: \"development\"\n"), 0644))

	loader := NewConfigLoader()
	cfg, err := loader.Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Kademlia.K)
	assert.Equal(t, 3, cfg.Kademlia.Alpha)
	assert.Equal(t, "0.0.0.0:7946", cfg.Node.Listen)
	assert.NotZero(t, cfg.Storage.TTL)
}

func TestLoadFromFile_JSONFallback(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	jsonContent := `{"environment":"staging","node":{"listen":"127.0.0.1:9000"}}`
	require.NoError(t, os.WriteFile(configPath, []byte(jsonContent), 0644))

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "127.0.0.1:9000", cfg.Node.Listen)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "roundtrip.yaml")

	cfg := &Config{}
	setDefaults(cfg)
	cfg.Node.ID = "deadbeef"

	require.NoError(t, SaveToFile(cfg, yamlPath))

	loaded, err := LoadFromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", loaded.Node.ID)
	assert.Equal(t, cfg.Kademlia, loaded.Kademlia)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
