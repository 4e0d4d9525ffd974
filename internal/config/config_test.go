package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	t.Setenv("ROBOT_TOKEN", "secret-token")
	path := writeConfig(t, `
federation:
  network: testnet
  active: 1
transport:
  socks_proxy: 127.0.0.1:9050
  timeout: 45s
platform:
  onion: true
sync:
  backoff_max: 2m
robot:
  token: ${ROBOT_TOKEN}
  order_id: 1234
runtime:
  log:
    level: debug
    format: json
  metrics_addr: ":9101"
  client_version: v0.6.0
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "testnet", cfg.Federation.Network)
	assert.Equal(t, 1, cfg.Federation.Active)
	assert.Equal(t, "127.0.0.1:9050", cfg.Transport.SocksProxy)
	assert.Equal(t, 45*time.Second, cfg.Transport.Timeout)
	assert.True(t, cfg.Platform.Onion)
	assert.True(t, cfg.Platform.Native)
	assert.Equal(t, "robosync.json", cfg.Platform.StorePath)
	assert.Equal(t, 60*time.Second, cfg.Sync.DefaultInterval)
	assert.Equal(t, time.Second, cfg.Sync.BackoffMin)
	assert.Equal(t, 2*time.Minute, cfg.Sync.BackoffMax)
	assert.Equal(t, "secret-token", cfg.Robot.Token)
	assert.Equal(t, int64(1234), cfg.Robot.OrderID)
	assert.Equal(t, "debug", cfg.Runtime.Log.Level)
	assert.Equal(t, "json", cfg.Runtime.Log.Format)
	assert.Equal(t, 100, cfg.Runtime.Log.MaxSize)
	assert.Equal(t, ":9101", cfg.Runtime.MetricsAddr)
	assert.Equal(t, "v0.6.0", cfg.Runtime.ClientVersion)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("ROBOSYNC_FEDERATION_NETWORK", "mainnet")
	t.Setenv("ROBOSYNC_RUNTIME_LOG_LEVEL", "warn")
	path := writeConfig(t, "federation:\n  network: testnet\n")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mainnet", cfg.Federation.Network)
	assert.Equal(t, "warn", cfg.Runtime.Log.Level)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "platform:\n  onion: true\n"))
	assert.ErrorContains(t, err, "socks_proxy")

	_, err = LoadFile(writeConfig(t, "sync:\n  backoff_min: 10s\n  backoff_max: 5s\n"))
	assert.ErrorContains(t, err, "backoff_max")

	_, err = LoadFile(writeConfig(t, "federation:\n  active: -1\n"))
	assert.Error(t, err)
}

func TestEnvSubUnsetVariable(t *testing.T) {
	path := writeConfig(t, "robot:\n  pub_key: ${ROBOSYNC_TEST_UNSET_KEY}\n")
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Robot.PubKey)
}
