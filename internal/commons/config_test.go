package commons

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/config"
)

func TestLoadConfig_OverridesBase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte(`
server:
  port: 9090
catalog:
  publishBackProductWhenCancellingOrders: true
inventory:
  maxRetryAttempts: 5
  txTimeout: 3s
`), 0o600)
	require.NoError(t, err)

	base := &config.Config{
		Log:      config.LogConfig{Level: "debug"},
		Server:   config.ServerConfig{Port: 8080},
		Database: config.DatabaseConfig{Host: "db"},
	}

	cfg, err := LoadConfig(path, base)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.True(t, cfg.Catalog.PublishBackProductWhenCancellingOrders)
	assert.Equal(t, 5, cfg.Inventory.MaxRetryAttempts)
	assert.Equal(t, 3*time.Second, cfg.Inventory.TxTimeout)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := LoadConfig(path, nil)
	assert.Error(t, err)
}
