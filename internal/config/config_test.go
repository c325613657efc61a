package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, []string{"csv", "xlsx"}, cfg.Upload.AllowedExtensions)
	assert.Equal(t, time.Hour, cfg.Upload.RetentionTTL)
	assert.Zero(t, cfg.Validation.Workers)
	require.NoError(t, cfg.validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Port, cfg.Server.Port)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
logging:
  level: debug
validation:
  workers: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 2, cfg.Validation.Workers)
	// Untouched sections keep their defaults.
	assert.Equal(t, int64(50<<20), cfg.Upload.MaxFileSize)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o644))

	t.Setenv("CSVCERT_SERVER_PORT", "7070")
	t.Setenv("CSVCERT_LOGGING_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults valid",
			mutate: func(*Config) {},
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "invalid server port",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "invalid log format",
		},
		{
			name:    "zero max file size",
			mutate:  func(c *Config) { c.Upload.MaxFileSize = 0 },
			wantErr: "max file size must be positive",
		},
		{
			name:    "no extensions",
			mutate:  func(c *Config) { c.Upload.AllowedExtensions = nil },
			wantErr: "allowed extension",
		},
		{
			name:    "negative workers",
			mutate:  func(c *Config) { c.Validation.Workers = -1 },
			wantErr: "workers cannot be negative",
		},
		{
			name:    "rate limit without rps",
			mutate:  func(c *Config) { c.Security.RateLimit.RPS = 0 },
			wantErr: "rate limit rps",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAllowsExtension(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.Upload.AllowsExtension("csv"))
	assert.True(t, cfg.Upload.AllowsExtension("xlsx"))
	assert.False(t, cfg.Upload.AllowsExtension("exe"))
}
