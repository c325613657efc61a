// Package config loads service configuration from defaults, an optional
// YAML file, and environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// envPrefix namespaces the service's environment variables, e.g.
// CSVCERT_SERVER_PORT.
const envPrefix = "CSVCERT"

// Config is the root configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Security   SecurityConfig   `yaml:"security" envconfig:"SECURITY"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Upload     UploadConfig     `yaml:"upload" envconfig:"UPLOAD"`
	Validation ValidationConfig `yaml:"validation" envconfig:"VALIDATION"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig bounds per-client request rates.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// UploadConfig bounds uploaded datasets and their temporary storage.
type UploadConfig struct {
	MaxFileSize       int64         `yaml:"max_file_size" envconfig:"MAX_FILE_SIZE"`
	TempDir           string        `yaml:"temp_dir" envconfig:"TEMP_DIR"`
	AllowedExtensions []string      `yaml:"allowed_extensions" envconfig:"ALLOWED_EXTENSIONS"`
	RetentionTTL      time.Duration `yaml:"retention_ttl" envconfig:"RETENTION_TTL"`
	SweepInterval     time.Duration `yaml:"sweep_interval" envconfig:"SWEEP_INTERVAL"`
	PreviewRows       int           `yaml:"preview_rows" envconfig:"PREVIEW_ROWS"`
}

// ValidationConfig tunes the validation engine.
type ValidationConfig struct {
	Workers             int `yaml:"workers" envconfig:"WORKERS"`
	SequentialThreshold int `yaml:"sequential_threshold" envconfig:"SEQUENTIAL_THRESHOLD"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  2 * time.Minute,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/csvcert.log",
		},
		Upload: UploadConfig{
			MaxFileSize:       50 << 20,
			TempDir:           filepath.Join(os.TempDir(), "csvcert-uploads"),
			AllowedExtensions: []string{"csv", "xlsx"},
			RetentionTTL:      time.Hour,
			SweepInterval:     10 * time.Minute,
			PreviewRows:       10,
		},
		Validation: ValidationConfig{
			Workers:             0, // derived from CPU count
			SequentialThreshold: 200,
		},
	}
}

// Load builds the effective configuration: defaults, overlaid by the YAML
// file at path (skipped when path is empty or the file does not exist),
// overlaid by CSVCERT_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := loadFromFile(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
		}
	}

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %q", c.Logging.Format)
	}

	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("max file size must be positive, got %d", c.Upload.MaxFileSize)
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		return fmt.Errorf("at least one allowed extension is required")
	}
	if c.Upload.RetentionTTL <= 0 {
		return fmt.Errorf("retention ttl must be positive, got %s", c.Upload.RetentionTTL)
	}

	if c.Validation.Workers < 0 {
		return fmt.Errorf("workers cannot be negative, got %d", c.Validation.Workers)
	}
	if c.Validation.SequentialThreshold < 0 {
		return fmt.Errorf("sequential threshold cannot be negative, got %d", c.Validation.SequentialThreshold)
	}

	if c.Security.RateLimit.Enabled {
		if c.Security.RateLimit.RPS <= 0 {
			return fmt.Errorf("rate limit rps must be positive, got %v", c.Security.RateLimit.RPS)
		}
		if c.Security.RateLimit.Burst <= 0 {
			return fmt.Errorf("rate limit burst must be positive, got %d", c.Security.RateLimit.Burst)
		}
	}

	return nil
}

// AllowsExtension reports whether an upload filename extension (without the
// dot) is accepted.
func (c *UploadConfig) AllowsExtension(ext string) bool {
	for _, allowed := range c.AllowedExtensions {
		if allowed == ext {
			return true
		}
	}
	return false
}
