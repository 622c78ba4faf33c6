package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_ADDRESS", "ENVIRONMENT", "STORAGE_BACKEND", "DATA_DIR", "TABLE_NAME",
		"DYNAMODB_TABLE", "INDEX_NAME", "EVENT_BUS_NAME", "LOG_LEVEL", "REFERENCE_HOST",
		"CACHE_TTL", "ENABLE_METRICS", "ENABLE_TRACING", "ENABLE_EVENTS", "ENABLE_CORS",
		"CORS_ORIGINS", "STRICT_INVARIANTS", "CONFIG_FILE",
	} {
		t.Setenv(key, "")
	}
}

func writeConfigFile(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "methodable.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, StorageMemory, cfg.StorageBackend)
	assert.True(t, cfg.IsDevelopment())
	assert.True(t, cfg.DomainConfig().StrictInvariants)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoadConfig_EnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, t.TempDir(), `
environment: production
storage_backend: file
data_dir: /var/lib/methodable
log_level: debug
strict_invariants: true
editor:
  max_text_length: 512
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, StorageFile, cfg.StorageBackend)
	assert.Equal(t, "/var/lib/methodable", cfg.DataDir)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.True(t, cfg.IsProduction())

	dc := cfg.DomainConfig()
	assert.True(t, dc.StrictInvariants, "file override beats the production default")
	assert.Equal(t, 512, dc.MaxTextLength)
	assert.Equal(t, 500, dc.MaxPasteLines)
}

func TestLoadConfig_StrictFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("STRICT_INVARIANTS", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.DomainConfig().StrictInvariants)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{
			name:    "dynamodb needs a table",
			mutate:  func(c *Config) { c.StorageBackend = StorageDynamoDB; c.DynamoDBTable = "" },
			wantErr: "TABLE_NAME",
		},
		{
			name:    "file needs a directory",
			mutate:  func(c *Config) { c.StorageBackend = StorageFile; c.DataDir = "" },
			wantErr: "DATA_DIR",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.StorageBackend = "postgres" },
			wantErr: "unknown storage backend",
		},
		{
			name:    "events need a bus",
			mutate:  func(c *Config) { c.EnableEvents = true; c.EventBusName = "" },
			wantErr: "EVENT_BUS_NAME",
		},
		{
			name:    "negative cache ttl",
			mutate:  func(c *Config) { c.CacheTTL = -1 },
			wantErr: "cache TTL",
		},
		{
			name:    "negative rate limit",
			mutate:  func(c *Config) { c.RateLimitPerMinute = -5 },
			wantErr: "rate limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, t.TempDir(), "storage_backend: [not, a, string]\n")

	_, err := LoadConfigFile(path)
	assert.Error(t, err)

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfigWatcher_ReloadsOnWrite(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, t.TempDir(), "environment: development\nstrict_invariants: true\n")
	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	watcher, err := newConfigWatcher(cfg, zap.NewNop(), 10*time.Millisecond)
	require.NoError(t, err)
	defer watcher.Stop()

	changed := make(chan bool, 4)
	watcher.OnChange(func(c *Config) {
		changed <- c.DomainConfig().StrictInvariants
	})

	require.NoError(t, os.WriteFile(path, []byte("environment: development\nstrict_invariants: false\n"), 0o644))

	select {
	case strict := <-changed:
		assert.False(t, strict)
	case <-time.After(5 * time.Second):
		t.Fatal("config change was not observed")
	}
	assert.False(t, watcher.GetConfig().DomainConfig().StrictInvariants)
}

func TestConfigWatcher_DisabledOutsideDevelopment(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, t.TempDir(), "environment: production\n")
	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	watcher, err := NewConfigWatcher(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, watcher.watcher)
	watcher.Stop()
	watcher.Stop()
}
