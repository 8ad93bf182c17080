// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Storage StorageConfig
	Catalog CatalogConfig
	Cache   CacheConfig
	Server  ServerConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StorageConfig selects the persistence driver for the wishlist and booking stores.
type StorageConfig struct {
	Driver   string // badger, sqlite, redis or memory (default: badger)
	DataPath string // Base directory for badger and sqlite (default: ~/Kellerblick/data)
	RedisURL string // Required when Driver is redis
}

// CatalogConfig selects where wines and events come from.
type CatalogConfig struct {
	Source  string        // file or http (default: file)
	Path    string        // JSON catalog for the file source
	URL     string        // Upstream base URL for the http source
	Latency time.Duration // Artificial delay for the file source (default: 0)
	Watch   bool          // Reload the file source on change (default: true)
}

// CacheConfig holds query cache windows.
type CacheConfig struct {
	ProductsStaleTime time.Duration // default: 60s
	FacetsStaleTime   time.Duration // default: 5m
	EventsStaleTime   time.Duration // default: 60s
	GCTime            time.Duration // default: 5m
	PageSize          int           // default: 12
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	CORSOrigins  []string      // Allowed origins (default: *)
}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load builds a Config from args with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("storefront", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base path for persisted state")
	storageDriver := fs.String("storage", "", "Storage driver (badger, sqlite, redis, memory)")
	redisURL := fs.String("redis-url", "", "Redis URL for the redis storage driver")

	catalogSource := fs.String("catalog-source", "", "Catalog source (file, http)")
	catalogPath := fs.String("catalog-path", "", "Path to the catalog JSON file")
	catalogURL := fs.String("catalog-url", "", "Base URL of the upstream commerce API")
	catalogLatency := fs.String("catalog-latency", "", "Artificial latency for the file catalog (e.g., 300ms)")
	catalogWatch := fs.String("catalog-watch", "", "Reload the catalog file on change (default: true)")

	productsStale := fs.String("products-stale-time", "", "Product list stale window (default: 60s)")
	facetsStale := fs.String("facets-stale-time", "", "Facet stale window (default: 5m)")
	eventsStale := fs.String("events-stale-time", "", "Event list stale window (default: 60s)")
	gcTime := fs.String("cache-gc-time", "", "Unused cache entry lifetime (default: 5m)")
	pageSize := fs.String("page-size", "", "Default product page size (default: 12)")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma separated allowed origins (default: *)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// godotenv never overrides variables that are already set.
	_ = godotenv.Load(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			Driver:   strings.ToLower(getConfigValue(*storageDriver, "STORAGE_DRIVER", "badger")),
			DataPath: getConfigValue(*dataPath, "DATA_PATH", ""),
			RedisURL: getConfigValue(*redisURL, "REDIS_URL", ""),
		},
		Catalog: CatalogConfig{
			Source: strings.ToLower(getConfigValue(*catalogSource, "CATALOG_SOURCE", "file")),
			Path:   getConfigValue(*catalogPath, "CATALOG_PATH", "data/catalog.json"),
			URL:    getConfigValue(*catalogURL, "CATALOG_URL", ""),
			Watch:  getBoolConfigValue(*catalogWatch, "CATALOG_WATCH", true),
		},
		Cache: CacheConfig{
			PageSize: getIntConfigValue(*pageSize, "PAGE_SIZE", 12),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*serverPort, "PORT", "8080"),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "*")),
		},
	}

	durations := []struct {
		flagValue string
		envKey    string
		def       string
		dst       *time.Duration
	}{
		{*catalogLatency, "CATALOG_LATENCY", "0s", &cfg.Catalog.Latency},
		{*productsStale, "PRODUCTS_STALE_TIME", "60s", &cfg.Cache.ProductsStaleTime},
		{*facetsStale, "FACETS_STALE_TIME", "5m", &cfg.Cache.FacetsStaleTime},
		{*eventsStale, "EVENTS_STALE_TIME", "60s", &cfg.Cache.EventsStaleTime},
		{*gcTime, "CACHE_GC_TIME", "5m", &cfg.Cache.GCTime},
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
	}
	for _, d := range durations {
		value, err := getDurationConfigValue(d.flagValue, d.envKey, d.def)
		if err != nil {
			return nil, err
		}
		*d.dst = value
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if cfg.Catalog.Source == "file" {
		expanded, err := expandPath(cfg.Catalog.Path, "")
		if err != nil {
			return nil, fmt.Errorf("invalid catalog path: %w", err)
		}
		cfg.Catalog.Path = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Storage.Driver {
	case "badger", "sqlite":
		if c.Storage.DataPath == "" {
			return errors.New("data path cannot be empty after expansion")
		}
	case "redis":
		if c.Storage.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis storage driver")
		}
	case "memory":
	default:
		return fmt.Errorf("invalid storage driver: %s (must be badger, sqlite, redis, or memory)", c.Storage.Driver)
	}

	switch c.Catalog.Source {
	case "file":
		if c.Catalog.Path == "" {
			return errors.New("CATALOG_PATH is required for the file catalog")
		}
	case "http":
		if c.Catalog.URL == "" {
			return errors.New("CATALOG_URL is required for the http catalog")
		}
	default:
		return fmt.Errorf("invalid catalog source: %s (must be file or http)", c.Catalog.Source)
	}

	if c.Cache.PageSize < 1 || c.Cache.PageSize > 100 {
		return fmt.Errorf("invalid page size: %d (must be between 1 and 100)", c.Cache.PageSize)
	}

	if c.Cache.FacetsStaleTime < c.Cache.ProductsStaleTime {
		return errors.New("FACETS_STALE_TIME must not be shorter than PRODUCTS_STALE_TIME")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath defaults the data directory to ~/Kellerblick/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Kellerblick", "data")

	expanded, err := expandPath(c.Storage.DataPath, defaultPath)
	if err != nil {
		return err
	}
	c.Storage.DataPath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getDurationConfigValue parses a duration from flag, env var, or default.
func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", strings.ToLower(envKey), strValue, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", strings.ToLower(envKey), strValue)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
