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
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  log_level: debug
backfill:
  whitelist: ["BTC-PERP"]
exchanges:
  deribit:
    rest_base_url: https://www.deribit.com
    driver: binance
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, []string{"1m"}, cfg.Backfill.Resolutions)
	assert.Equal(t, 1000, cfg.Backfill.TargetCandles)
	assert.Equal(t, 4, cfg.Backfill.Workers)
	assert.Equal(t, 5*time.Second, cfg.Backfill.IdleBackoff())
	assert.Equal(t, 200*time.Millisecond, cfg.Backfill.Pacing())
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2*time.Second, cfg.Redis.DequeueWait())
	assert.Equal(t, 15*time.Second, cfg.Exchanges["deribit"].HTTPTimeout())
	assert.Equal(t, "binance", cfg.Exchanges["deribit"].Driver)
}

func TestLoadDriverDefaultsToExchangeName(t *testing.T) {
	path := writeConfig(t, `
exchanges:
  binance: {}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "binance", cfg.Exchanges["binance"].Driver)
}

func TestLoadRejectsBadResolution(t *testing.T) {
	path := writeConfig(t, `
backfill:
  resolutions: ["1m", "nope"]
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsIncompleteSeed(t *testing.T) {
	path := writeConfig(t, `
backfill:
  seed:
    - exchange: binance
      instrument: BTCUSDT
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
