package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	CodecBase64 = "base64"
	CodecAESGCM = "aesgcm"
)

// Config holds the application's configuration.
type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port                   string  `yaml:"port"`
		ShutdownTimeoutSeconds int64   `yaml:"shutdown_timeout_seconds"`
		MaxBodyBytes           int64   `yaml:"max_body_bytes"`
		RateLimitRPS           float64 `yaml:"rate_limit_rps"`
		RateLimitBurst         int     `yaml:"rate_limit_burst"`
	} `yaml:"server"`
	Codec struct {
		Mode             string `yaml:"mode"`
		Key              string `yaml:"key"`
		SigningSecret    string `yaml:"signing_secret"`
		RequireSignature bool   `yaml:"require_signature"`
		MaxContentChars  int    `yaml:"max_content_chars"`
	} `yaml:"codec"`
	Policy struct {
		FlagThreshold       int `yaml:"flag_threshold"`
		AutoFreezeThreshold int `yaml:"auto_freeze_threshold"`
	} `yaml:"policy"`
	Audit struct {
		Dir string `yaml:"dir"`
	} `yaml:"audit"`
	Logger LoggerConfig `yaml:"logger"`
}

// LoggerConfig configures the zap logger and its optional rotating file sink.
type LoggerConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	config := &Config{}
	config.applyDefaults()
	return config
}

// LoadConfig reads configuration from the specified YAML file.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	// Secrets are usually injected through the environment
	config.Codec.Key = os.ExpandEnv(config.Codec.Key)
	config.Codec.SigningSecret = os.ExpandEnv(config.Codec.SigningSecret)
	config.Audit.Dir = os.ExpandEnv(config.Audit.Dir)

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = EnvDevelopment
	}

	if c.Server.Port == "" {
		c.Server.Port = "3000"
	}
	if c.Server.ShutdownTimeoutSeconds == 0 {
		c.Server.ShutdownTimeoutSeconds = 5
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 64 << 10
	}
	if c.Server.RateLimitBurst == 0 {
		c.Server.RateLimitBurst = 20
	}

	if c.Codec.Mode == "" {
		c.Codec.Mode = CodecBase64
	}
	if c.Codec.MaxContentChars == 0 {
		c.Codec.MaxContentChars = 10000
	}

	if c.Policy.FlagThreshold == 0 {
		c.Policy.FlagThreshold = 50
	}
	if c.Policy.AutoFreezeThreshold == 0 {
		c.Policy.AutoFreezeThreshold = 90
	}

	if c.Audit.Dir == "" {
		c.Audit.Dir = "./logs"
	}

	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "console"
	}
	if c.Logger.MaxSizeMB == 0 {
		c.Logger.MaxSizeMB = 50
	}
	if c.Logger.MaxBackups == 0 {
		c.Logger.MaxBackups = 3
	}
	if c.Logger.MaxAgeDays == 0 {
		c.Logger.MaxAgeDays = 28
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return fmt.Errorf("environment must be one of development, production, test; got %q", c.Environment)
	}

	switch c.Codec.Mode {
	case CodecBase64:
	case CodecAESGCM:
		if c.Codec.Key == "" {
			return errors.New("codec.key is required when codec.mode is aesgcm")
		}
	default:
		return fmt.Errorf("codec.mode must be base64 or aesgcm; got %q", c.Codec.Mode)
	}

	if c.Codec.RequireSignature && c.Codec.SigningSecret == "" {
		return errors.New("codec.require_signature needs codec.signing_secret")
	}
	if c.Codec.MaxContentChars <= 0 {
		return errors.New("codec.max_content_chars must be a positive integer")
	}

	if c.Policy.FlagThreshold < 0 || c.Policy.FlagThreshold > 100 {
		return errors.New("policy.flag_threshold must be within 0..100")
	}
	if c.Policy.AutoFreezeThreshold < 0 || c.Policy.AutoFreezeThreshold > 100 {
		return errors.New("policy.auto_freeze_threshold must be within 0..100")
	}

	if c.Audit.Dir == "" {
		return errors.New("audit.dir must not be empty")
	}
	if c.Server.MaxBodyBytes < 0 {
		return errors.New("server.max_body_bytes must not be negative")
	}
	if c.Server.RateLimitRPS < 0 {
		return errors.New("server.rate_limit_rps must not be negative")
	}

	return nil
}

// IsDevelopment reports whether error details may be exposed to callers.
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// IsProduction reports whether verbose pipeline logging should be suppressed.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}
