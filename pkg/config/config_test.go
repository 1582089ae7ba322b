package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		configContent := `
server:
  listen: ":9090"
  timeout: 45s
  api_key: secret123

feed:
  url: https://example.medium.com/feed
  scan_limit: 50
  timeout: 10s

schedule:
  interval: 30m

lock:
  ttl: 5m
`
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "test-config.yml")
		err := os.WriteFile(configPath, []byte(configContent), 0o644)
		require.NoError(t, err)

		cfg, err := Load(configPath)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, ":9090", cfg.Server.Listen)
		assert.Equal(t, 45*time.Second, cfg.Server.Timeout)
		assert.Equal(t, "secret123", cfg.Server.APIKey)
		assert.Equal(t, "https://example.medium.com/feed", cfg.Feed.URL)
		assert.Equal(t, 50, cfg.Feed.ScanLimit)
		assert.Equal(t, 10*time.Second, cfg.Feed.Timeout)
		assert.Equal(t, 30*time.Minute, cfg.Schedule.Interval)
		assert.Equal(t, 5*time.Minute, cfg.Lock.TTL)
	})

	t.Run("defaults", func(t *testing.T) {
		configContent := `
server:
  listen: ":8081"
`
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "test-config.yml")
		err := os.WriteFile(configPath, []byte(configContent), 0o644)
		require.NoError(t, err)

		cfg, err := Load(configPath)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, ":8081", cfg.Server.Listen)
		assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
		assert.Equal(t, "https://chieac.medium.com/feed", cfg.Feed.URL)
		assert.Equal(t, 100, cfg.Feed.ScanLimit)
		assert.Equal(t, "ChiEAC-CMS/1.0", cfg.Feed.UserAgent)
		assert.Equal(t, time.Hour, cfg.Schedule.Interval)
		assert.Equal(t, 10*time.Minute, cfg.Lock.TTL)
		assert.Empty(t, cfg.Server.APIKey)
	})

	t.Run("env expansion", func(t *testing.T) {
		t.Setenv("TEST_API_KEY", "from-env")
		configContent := `
server:
  api_key: ${TEST_API_KEY}
`
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "test-config.yml")
		err := os.WriteFile(configPath, []byte(configContent), 0o644)
		require.NoError(t, err)

		cfg, err := Load(configPath)
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.Server.APIKey)
	})

	t.Run("file not found", func(t *testing.T) {
		cfg, err := Load("/non/existent/file.yml")
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "read config file")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "bad.yml")
		err := os.WriteFile(configPath, []byte("server: [not a map"), 0o644)
		require.NoError(t, err)

		cfg, err := Load(configPath)
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "parse config")
	})

	t.Run("invalid feed url", func(t *testing.T) {
		configContent := `
feed:
  url: ftp://example.com/feed
`
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "test-config.yml")
		err := os.WriteFile(configPath, []byte(configContent), 0o644)
		require.NoError(t, err)

		cfg, err := Load(configPath)
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "feed.url")
	})
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, "https://chieac.medium.com/feed", cfg.Feed.URL)
	assert.Equal(t, 100, cfg.Feed.ScanLimit)
	assert.Equal(t, 10*time.Minute, cfg.Lock.TTL)
	require.NoError(t, validate(cfg))
}

func TestVerifyAgainstEmbeddedSchema(t *testing.T) {
	cfg := Default()
	require.NoError(t, VerifyAgainstEmbeddedSchema(cfg))

	cfg.Feed.URL = ""
	err := VerifyAgainstEmbeddedSchema(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed.url")
}

func TestGetServerConfig(t *testing.T) {
	cfg := Default()
	listen, timeout := cfg.GetServerConfig()
	assert.Equal(t, ":8080", listen)
	assert.Equal(t, 30*time.Second, timeout)
}
