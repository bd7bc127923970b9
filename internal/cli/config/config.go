package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the typesys configuration
type Config struct {
	Manifests []string      `mapstructure:"manifests"`
	Catalog   CatalogConfig `mapstructure:"catalog"`
	Cache     CacheConfig   `mapstructure:"cache"`
	Server    ServerConfig  `mapstructure:"server"`
	Log       LogConfig     `mapstructure:"log"`
	Watch     WatchConfig   `mapstructure:"watch"`
}

// CatalogConfig selects where imported manifests are persisted
type CatalogConfig struct {
	Driver    string `mapstructure:"driver"`
	DSN       string `mapstructure:"dsn"`
	RedisAddr string `mapstructure:"redis_addr"`
}

// CacheConfig sizes the definition lookup cache
type CacheConfig struct {
	Size int `mapstructure:"size"`
}

// ServerConfig represents query server configuration. An empty TokenSecret
// leaves the query API open.
type ServerConfig struct {
	Port        int           `mapstructure:"port"`
	Host        string        `mapstructure:"host"`
	TokenSecret string        `mapstructure:"token_secret"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// WatchConfig represents manifest watching configuration
type WatchConfig struct {
	DebounceMS int `mapstructure:"debounce_ms"`
}

// Addr returns host:port for the query server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

var configNames = []string{"typesys.yml", "typesys.yaml"}

var drivers = map[string]bool{
	"sqlite3":  true,
	"pgx":      true,
	"postgres": true,
	"redis":    true,
}

// Load loads the configuration from typesys.yml or typesys.yaml
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("manifests", []string{})
	v.SetDefault("catalog.driver", "sqlite3")
	v.SetDefault("catalog.dsn", "typesys.db")
	v.SetDefault("catalog.redis_addr", "localhost:6379")
	v.SetDefault("cache.size", 1024)
	v.SetDefault("server.port", 7070)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.token_secret", "")
	v.SetDefault("server.token_ttl", "24h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("watch.debounce_ms", 100)

	// Set config name and paths
	v.SetConfigName("typesys")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if root, err := GetProjectRoot(); err == nil {
		v.AddConfigPath(root)
	}

	// TYPESYS_CATALOG_DSN overrides catalog.dsn
	v.SetEnvPrefix("TYPESYS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Manifest paths in the file are relative to the file's directory
	if used := v.ConfigFileUsed(); used != "" {
		base := filepath.Dir(used)
		for i, m := range config.Manifests {
			if !filepath.IsAbs(m) {
				config.Manifests[i] = filepath.Join(base, m)
			}
		}
	}

	// Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// GetProjectRoot tries to find the project root by looking for typesys.yml
func GetProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		for _, name := range configNames {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir, nil
			}
		}

		// Move up one directory
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a typesys project (no typesys.yml found)")
		}
		dir = parent
	}
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if !drivers[cfg.Catalog.Driver] {
		return fmt.Errorf("catalog.driver must be one of sqlite3, pgx, postgres or redis, got: %s", cfg.Catalog.Driver)
	}
	if cfg.Cache.Size <= 0 {
		return fmt.Errorf("cache.size must be positive, got: %d", cfg.Cache.Size)
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got: %d", cfg.Server.Port)
	}
	if cfg.Server.TokenTTL <= 0 {
		return fmt.Errorf("server.token_ttl must be positive, got: %s", cfg.Server.TokenTTL)
	}
	if cfg.Watch.DebounceMS < 0 {
		return fmt.Errorf("watch.debounce_ms must not be negative, got: %d", cfg.Watch.DebounceMS)
	}
	return nil
}
