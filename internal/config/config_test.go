package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.Client.ServerURL)
	assert.Equal(t, 30*time.Second, cfg.Client.SyncInterval)
	assert.Equal(t, 100*time.Millisecond, cfg.Client.ItemDelay)
	assert.Equal(t, 3, cfg.Client.MaxRetries)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "offlinedesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
client:
  server_url: http://api.example.test
  sync_interval: 1m
  db_path: ${OFFLINEDESK_TEST_HOME}/cache.db
logging:
  level: debug
`), 0o600))

	t.Setenv("OFFLINEDESK_TEST_HOME", "/var/lib/offlinedesk")
	t.Setenv("OFFLINEDESK_MAX_RETRIES", "5")
	t.Setenv("OFFLINEDESK_SERVER_URL", "http://override.test")
	t.Setenv("OFFLINEDESK_REDIS_URL", "redis://cache:6379/0")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://override.test", cfg.Client.ServerURL)
	assert.Equal(t, time.Minute, cfg.Client.SyncInterval)
	assert.Equal(t, "/var/lib/offlinedesk/cache.db", cfg.Client.DBPath)
	assert.Equal(t, 5, cfg.Client.MaxRetries)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// REDIS_URL задает redis и клиенту, и серверу
	assert.Equal(t, "redis://cache:6379/0", cfg.Client.RedisURL)
	assert.Equal(t, "redis://cache:6379/0", cfg.Server.RedisURL)
	assert.Equal(t, "offlinedesk:sync", cfg.Server.WakeChannel)
	// значения, которых нет в файле, берутся по умолчанию
	assert.Equal(t, 100*time.Millisecond, cfg.Client.ItemDelay)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OFFLINEDESK_JWT_SECRET=from-dotenv\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("OFFLINEDESK_JWT_SECRET") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Server.JWTSecret)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("client: ["), 0o600))
	_, err := Load(bad)
	assert.Error(t, err)

	t.Setenv("OFFLINEDESK_SYNC_INTERVAL", "soon")
	_, err = Load("")
	assert.ErrorContains(t, err, "OFFLINEDESK_SYNC_INTERVAL")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		mutate  func(c *Config)
		name    string
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "empty server url", mutate: func(c *Config) { c.Client.ServerURL = "" }, wantErr: true},
		{name: "zero interval", mutate: func(c *Config) { c.Client.SyncInterval = 0 }, wantErr: true},
		{name: "zero retries", mutate: func(c *Config) { c.Client.MaxRetries = 0 }, wantErr: true},
		{name: "file without path", mutate: func(c *Config) { c.Logging.Output = "file" }, wantErr: true},
		{name: "unknown output", mutate: func(c *Config) { c.Logging.Output = "syslog" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
