package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"33554432"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"stdout"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/shelfsense.log"`
}

// AnalysisConfig contains the movement thresholds applied to every upload.
// Values are expressed in units sold per day unless noted otherwise.
type AnalysisConfig struct {
	SlowMovingMaxVelocity float64 `yaml:"slow_moving_max_velocity" envconfig:"SLOW_MOVING_MAX_VELOCITY" default:"1.0"`
	FastMovingMinVelocity float64 `yaml:"fast_moving_min_velocity" envconfig:"FAST_MOVING_MIN_VELOCITY" default:"5.0"`
	BestSellingPercentile float64 `yaml:"best_selling_percentile" envconfig:"BEST_SELLING_PERCENTILE" default:"0.90"`
	LowStockBufferPct     float64 `yaml:"low_stock_buffer_pct" envconfig:"LOW_STOCK_BUFFER_PCT" default:"0.20"`
	SafetyStockDays       float64 `yaml:"safety_stock_days" envconfig:"SAFETY_STOCK_DAYS" default:"7"`
	DefaultLeadTimeDays   float64 `yaml:"default_lead_time_days" envconfig:"DEFAULT_LEAD_TIME_DAYS" default:"14"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	ExportsDir string `yaml:"exports_dir" envconfig:"EXPORTS_DIR" default:"exports"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// Load loads configuration from environment variables and an optional
// config file. Environment variables take precedence over the file.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("SHELFSENSE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := getConfigFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileCfg, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs applies file values over the envconfig defaults, except where
// the corresponding environment variable was set explicitly. Precedence is
// env var > file > built-in default.
func mergeConfigs(fileConfig, envConfig Config) Config {
	if !envSet("SERVER_PORT") && fileConfig.Server.Port != 0 {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if !envSet("SERVER_READ_TIMEOUT") && fileConfig.Server.ReadTimeout != 0 {
		envConfig.Server.ReadTimeout = fileConfig.Server.ReadTimeout
	}
	if !envSet("SERVER_WRITE_TIMEOUT") && fileConfig.Server.WriteTimeout != 0 {
		envConfig.Server.WriteTimeout = fileConfig.Server.WriteTimeout
	}
	if !envSet("SERVER_MAX_UPLOAD_BYTES") && fileConfig.Server.MaxUploadBytes != 0 {
		envConfig.Server.MaxUploadBytes = fileConfig.Server.MaxUploadBytes
	}
	if !envSet("LOGGING_LEVEL") && fileConfig.Logging.Level != "" {
		envConfig.Logging.Level = fileConfig.Logging.Level
	}
	if !envSet("LOGGING_OUTPUT") && fileConfig.Logging.Output != "" {
		envConfig.Logging.Output = fileConfig.Logging.Output
	}
	if !envSet("ANALYSIS_SLOW_MOVING_MAX_VELOCITY") && fileConfig.Analysis.SlowMovingMaxVelocity != 0 {
		envConfig.Analysis.SlowMovingMaxVelocity = fileConfig.Analysis.SlowMovingMaxVelocity
	}
	if !envSet("ANALYSIS_FAST_MOVING_MIN_VELOCITY") && fileConfig.Analysis.FastMovingMinVelocity != 0 {
		envConfig.Analysis.FastMovingMinVelocity = fileConfig.Analysis.FastMovingMinVelocity
	}
	if !envSet("ANALYSIS_BEST_SELLING_PERCENTILE") && fileConfig.Analysis.BestSellingPercentile != 0 {
		envConfig.Analysis.BestSellingPercentile = fileConfig.Analysis.BestSellingPercentile
	}
	if !envSet("ANALYSIS_DEFAULT_LEAD_TIME_DAYS") && fileConfig.Analysis.DefaultLeadTimeDays != 0 {
		envConfig.Analysis.DefaultLeadTimeDays = fileConfig.Analysis.DefaultLeadTimeDays
	}

	return envConfig
}

// envSet reports whether the prefixed environment variable is present
func envSet(suffix string) bool {
	_, ok := os.LookupEnv("SHELFSENSE_" + suffix)
	return ok
}

// getConfigFilePath returns the config file path, honoring an override env var
func getConfigFilePath() string {
	if path := os.Getenv("SHELFSENSE_CONFIG_FILE"); path != "" {
		return path
	}
	return "config.yaml"
}

// validate checks configuration values for consistency
func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if err := c.Analysis.Validate(); err != nil {
		return err
	}

	return nil
}

// Validate checks threshold values for internal consistency. It is exported
// because the same rules apply to threshold updates arriving over HTTP.
func (a AnalysisConfig) Validate() error {
	if a.SlowMovingMaxVelocity < 0 {
		return fmt.Errorf("slow_moving_max_velocity must be non-negative, got %g", a.SlowMovingMaxVelocity)
	}
	if a.FastMovingMinVelocity < a.SlowMovingMaxVelocity {
		return fmt.Errorf("fast_moving_min_velocity (%g) must be >= slow_moving_max_velocity (%g)",
			a.FastMovingMinVelocity, a.SlowMovingMaxVelocity)
	}
	if a.BestSellingPercentile <= 0 || a.BestSellingPercentile >= 1 {
		return fmt.Errorf("best_selling_percentile must be in (0, 1), got %g", a.BestSellingPercentile)
	}
	if a.LowStockBufferPct < 0 {
		return fmt.Errorf("low_stock_buffer_pct must be non-negative, got %g", a.LowStockBufferPct)
	}
	if a.SafetyStockDays < 0 {
		return fmt.Errorf("safety_stock_days must be non-negative, got %g", a.SafetyStockDays)
	}
	if a.DefaultLeadTimeDays < 0 {
		return fmt.Errorf("default_lead_time_days must be non-negative, got %g", a.DefaultLeadTimeDays)
	}
	return nil
}

// EnsureDirectories creates all required directories if they don't exist
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.ExportsDir, c.Paths.LogsDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ExportPath returns the full path for an export file
func (c *Config) ExportPath(filename string) string {
	return filepath.Join(c.Paths.ExportsDir, filename)
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
