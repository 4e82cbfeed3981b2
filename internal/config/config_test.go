package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, int64(64<<10), cfg.Server.MaxBodyBytes)
	assert.Equal(t, CodecBase64, cfg.Codec.Mode)
	assert.Equal(t, 10000, cfg.Codec.MaxContentChars)
	assert.Equal(t, 50, cfg.Policy.FlagThreshold)
	assert.Equal(t, 90, cfg.Policy.AutoFreezeThreshold)
	assert.Equal(t, "./logs", cfg.Audit.Dir)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	t.Run("expands environment secrets", func(t *testing.T) {
		t.Setenv("TEST_PAYLOAD_KEY", "a2V5")
		t.Setenv("TEST_SIGNING_SECRET", "s3cret")

		path := writeConfig(t, `
environment: production
server:
  port: "8080"
codec:
  mode: aesgcm
  key: "${TEST_PAYLOAD_KEY}"
  signing_secret: "${TEST_SIGNING_SECRET}"
  require_signature: true
audit:
  dir: /var/log/vigilance
`)
		cfg, err := LoadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, EnvProduction, cfg.Environment)
		assert.True(t, cfg.IsProduction())
		assert.False(t, cfg.IsDevelopment())
		assert.Equal(t, "8080", cfg.Server.Port)
		assert.Equal(t, "a2V5", cfg.Codec.Key)
		assert.Equal(t, "s3cret", cfg.Codec.SigningSecret)
		assert.True(t, cfg.Codec.RequireSignature)
		assert.Equal(t, "/var/log/vigilance", cfg.Audit.Dir)
		// untouched sections still get defaults
		assert.Equal(t, 90, cfg.Policy.AutoFreezeThreshold)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open config file")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "server: [unclosed"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode config file")
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "codec:\n  mode: rot13\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "codec.mode")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"unknown environment", func(c *Config) { c.Environment = "staging" }, "environment must be one of"},
		{"aesgcm without key", func(c *Config) { c.Codec.Mode = CodecAESGCM }, "codec.key is required"},
		{"signature required without secret", func(c *Config) { c.Codec.RequireSignature = true }, "codec.require_signature"},
		{"negative content bound", func(c *Config) { c.Codec.MaxContentChars = -1 }, "max_content_chars"},
		{"flag threshold out of range", func(c *Config) { c.Policy.FlagThreshold = 101 }, "flag_threshold"},
		{"auto-freeze threshold out of range", func(c *Config) { c.Policy.AutoFreezeThreshold = -5 }, "auto_freeze_threshold"},
		{"empty audit dir", func(c *Config) { c.Audit.Dir = "" }, "audit.dir"},
		{"negative rate", func(c *Config) { c.Server.RateLimitRPS = -1 }, "rate_limit_rps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
