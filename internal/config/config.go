package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// ProviderConfig represents upstream market-data provider configuration
type ProviderConfig struct {
	BaseURL        string        `yaml:"base_url"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	MaxAttempts    int           `yaml:"max_attempts"`
	BackoffSeconds int           `yaml:"backoff_seconds"`
	CacheTTL       time.Duration `yaml:"-"`
	CacheTTLSecs   int           `yaml:"cache_ttl_seconds"`
}

// ScanConfig represents cross-expiration scan configuration
type ScanConfig struct {
	ExpirationLimit int `yaml:"expiration_limit"` // 0 or less scans every expiration
	PacingMillis    int `yaml:"pacing_millis"`
}

// CSVConfig represents CSV export configuration
type CSVConfig struct {
	FilenameFormat string `yaml:"filename_format"`
}

type Config struct {
	// Server settings
	Port string

	// Default analysis settings
	DefaultTicker     string
	DefaultOptionType string
	DefaultMinVolume  int
	MinVolumeFloor    int

	Provider ProviderConfig `yaml:"provider"`
	Scan     ScanConfig     `yaml:"scan"`
	Logging  LoggingConfig  `yaml:"logging"`
	CSV      CSVConfig      `yaml:"csv"`
}

// YAMLConfig mirrors config.yaml
type YAMLConfig struct {
	Port     string         `yaml:"port"`
	Provider ProviderConfig `yaml:"provider"`
	Scan     ScanConfig     `yaml:"scan"`
	Logging  LoggingConfig  `yaml:"logging"`
	CSV      CSVConfig      `yaml:"csv"`

	Analysis struct {
		DefaultTicker     string `yaml:"default_ticker"`
		DefaultOptionType string `yaml:"default_option_type"`
		DefaultMinVolume  int    `yaml:"default_min_volume"`
		MinVolumeFloor    int    `yaml:"min_volume_floor"`
	} `yaml:"analysis"`
}

func Load() *Config {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		DefaultTicker:     getEnv("DEFAULT_TICKER", "AAPL"),
		DefaultOptionType: getEnv("DEFAULT_OPTION_TYPE", "calls"),
		DefaultMinVolume:  getEnvInt("DEFAULT_MIN_VOLUME", 100),
		MinVolumeFloor:    getEnvInt("MIN_VOLUME_FLOOR", 10),

		Provider: ProviderConfig{
			BaseURL:        getEnv("PROVIDER_BASE_URL", "https://query1.finance.yahoo.com"),
			TimeoutSeconds: getEnvInt("PROVIDER_TIMEOUT_SECONDS", 30),
			MaxAttempts:    getEnvInt("PROVIDER_MAX_ATTEMPTS", 3),
			BackoffSeconds: getEnvInt("PROVIDER_BACKOFF_SECONDS", 2),
			CacheTTLSecs:   getEnvInt("PROVIDER_CACHE_TTL_SECONDS", 300),
		},

		Scan: ScanConfig{
			ExpirationLimit: getEnvInt("SCAN_EXPIRATION_LIMIT", 5),
			PacingMillis:    getEnvInt("SCAN_PACING_MILLIS", 800),
		},

		Logging: LoggingConfig{
			LogLevel: getEnv("LOG_LEVEL", "info"),
			LogFile:  getEnv("LOG_FILE", "scanner.log"),
		},
	}

	// Overlay from config.yaml when present
	if yamlCfg := loadYAMLConfig(); yamlCfg != nil {
		if yamlCfg.Port != "" {
			cfg.Port = yamlCfg.Port
		}
		if yamlCfg.Provider.BaseURL != "" {
			cfg.Provider.BaseURL = yamlCfg.Provider.BaseURL
		}
		if yamlCfg.Provider.TimeoutSeconds > 0 {
			cfg.Provider.TimeoutSeconds = yamlCfg.Provider.TimeoutSeconds
		}
		if yamlCfg.Provider.MaxAttempts > 0 {
			cfg.Provider.MaxAttempts = yamlCfg.Provider.MaxAttempts
		}
		if yamlCfg.Provider.BackoffSeconds > 0 {
			cfg.Provider.BackoffSeconds = yamlCfg.Provider.BackoffSeconds
		}
		if yamlCfg.Provider.CacheTTLSecs > 0 {
			cfg.Provider.CacheTTLSecs = yamlCfg.Provider.CacheTTLSecs
		}
		if yamlCfg.Scan.ExpirationLimit != 0 {
			cfg.Scan.ExpirationLimit = yamlCfg.Scan.ExpirationLimit
		}
		if yamlCfg.Scan.PacingMillis > 0 {
			cfg.Scan.PacingMillis = yamlCfg.Scan.PacingMillis
		}
		if yamlCfg.Analysis.DefaultTicker != "" {
			cfg.DefaultTicker = yamlCfg.Analysis.DefaultTicker
		}
		if yamlCfg.Analysis.DefaultOptionType != "" {
			cfg.DefaultOptionType = yamlCfg.Analysis.DefaultOptionType
		}
		if yamlCfg.Analysis.DefaultMinVolume > 0 {
			cfg.DefaultMinVolume = yamlCfg.Analysis.DefaultMinVolume
		}
		if yamlCfg.Analysis.MinVolumeFloor > 0 {
			cfg.MinVolumeFloor = yamlCfg.Analysis.MinVolumeFloor
		}
		if yamlCfg.Logging.LogLevel != "" {
			cfg.Logging.LogLevel = yamlCfg.Logging.LogLevel
		}
		if yamlCfg.Logging.LogFile != "" {
			cfg.Logging.LogFile = yamlCfg.Logging.LogFile
		}
		cfg.CSV = yamlCfg.CSV
	}

	if cfg.CSV.FilenameFormat == "" {
		cfg.CSV.FilenameFormat = "{ticker}_{option_type}_unusual.csv"
	}
	cfg.Provider.CacheTTL = time.Duration(cfg.Provider.CacheTTLSecs) * time.Second

	return cfg
}

func loadYAMLConfig() *YAMLConfig {
	data, err := os.ReadFile("config.yaml")
	if err != nil {
		// Could not read config.yaml - silently return nil
		return nil
	}

	var yamlCfg YAMLConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		// Could not parse config.yaml - silently return nil
		return nil
	}

	return &yamlCfg
}

// Backoff returns the retry backoff as a duration
func (p ProviderConfig) Backoff() time.Duration {
	return time.Duration(p.BackoffSeconds) * time.Second
}

// Timeout returns the HTTP client timeout as a duration
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// Pacing returns the inter-expiration scan delay as a duration
func (s ScanConfig) Pacing() time.Duration {
	return time.Duration(s.PacingMillis) * time.Millisecond
}

// FormatExportFilename fills the configured CSV filename template
func FormatExportFilename(format, ticker, optionType string) string {
	result := strings.ReplaceAll(format, "{ticker}", ticker)
	result = strings.ReplaceAll(result, "{option_type}", optionType)
	return result
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
