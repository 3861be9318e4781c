// Package config loads server configuration from a YAML file,
// environment variables and defaults, in that order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Data    DataConfig    `mapstructure:"data"`
	Limits  LimitsConfig  `mapstructure:"limits"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	RateLimit    float64       `mapstructure:"rate_limit"`
	RateBurst    int           `mapstructure:"rate_burst"`
}

// DataConfig points at the catalog files and the rule set document.
type DataConfig struct {
	Dir       string `mapstructure:"dir"`
	RulesFile string `mapstructure:"rules_file"`
}

// LimitsConfig bounds request sizes.
type LimitsConfig struct {
	MaxStackSize int `mapstructure:"max_stack_size"`
	SearchLimit  int `mapstructure:"search_limit"`
}

// CacheConfig controls the in-process score cache and the optional
// Redis response cache.
type CacheConfig struct {
	ScoreCacheSize int           `mapstructure:"score_cache_size"`
	RedisEnabled   bool          `mapstructure:"redis_enabled"`
	RedisURL       string        `mapstructure:"redis_url"`
	ResponseTTL    time.Duration `mapstructure:"response_ttl"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Manager loads and holds the configuration using Viper.
type Manager struct {
	config *Config
}

// NewManager creates a configuration manager and loads configuration
// from file, environment and defaults.
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

func (m *Manager) loadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/supptracker/")

	viper.SetEnvPrefix("SUPPTRACKER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	m.setDefaults()

	// Config file is optional; defaults and env vars carry otherwise.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}
	m.config = config
	return nil
}

func (m *Manager) setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.rate_limit", 25.0)
	viper.SetDefault("server.rate_burst", 50)

	viper.SetDefault("data.dir", "./data")
	viper.SetDefault("data.rules_file", "risk_rules.yaml")

	viper.SetDefault("limits.max_stack_size", 20)
	viper.SetDefault("limits.search_limit", 10)

	viper.SetDefault("cache.score_cache_size", 4096)
	viper.SetDefault("cache.redis_enabled", false)
	viper.SetDefault("cache.redis_url", "redis://localhost:6379")
	viper.SetDefault("cache.response_ttl", "5m")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// GetConfig returns the complete configuration.
func (m *Manager) GetConfig() *Config {
	return m.config
}

// Validate validates the configuration.
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	if config.Data.Dir == "" {
		return fmt.Errorf("data directory is required")
	}
	if config.Data.RulesFile == "" {
		return fmt.Errorf("rules file is required")
	}
	if config.Limits.MaxStackSize <= 0 {
		return fmt.Errorf("max stack size must be positive: %d", config.Limits.MaxStackSize)
	}
	if config.Limits.SearchLimit <= 0 {
		return fmt.Errorf("search limit must be positive: %d", config.Limits.SearchLimit)
	}
	if config.Cache.RedisEnabled && config.Cache.RedisURL == "" {
		return fmt.Errorf("redis URL is required when the response cache is enabled")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}
	return nil
}

// ListenAddr returns the host:port the server should bind.
func (m *Manager) ListenAddr() string {
	return fmt.Sprintf("%s:%d", m.config.Server.Host, m.config.Server.Port)
}
