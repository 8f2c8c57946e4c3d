// pkg/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix    = "DAYPLANNER_"
	configEnvVar = "CONFIG_PATH"
)

// Loader loads configuration from layered sources.
type Loader struct {
	k           *koanf.Koanf
	configPaths []string
	envPrefix   string
}

// NewLoader creates a new configuration loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		k: koanf.New("."),
		configPaths: []string{
			"config.yaml",
			"config/config.yaml",
			"/etc/dayplanner/config.yaml",
		},
		envPrefix: envPrefix,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithConfigPaths sets the list of config file paths to search.
func WithConfigPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.configPaths = paths
	}
}

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// Load loads configuration with priority:
// 1. Defaults (lowest)
// 2. Config file (yaml)
// 3. Environment variables (highest)
func (l *Loader) Load() (*Config, error) {
	if err := l.loadDefaults(); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := l.loadConfigFile(); err != nil {
		// The file is optional; log and continue on defaults/env.
		fmt.Printf("Warning: %v\n", err)
	}

	if err := l.loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadDefaults loads the built-in default values.
func (l *Loader) loadDefaults() error {
	defaults := map[string]any{
		// App
		"app.name":        "dayplanner",
		"app.version":     "1.0.0",
		"app.environment": "development",
		"app.debug":       false,

		// HTTP
		"http.port":             8080,
		"http.read_timeout":     30 * time.Second,
		"http.write_timeout":    30 * time.Second,
		"http.shutdown_timeout": 10 * time.Second,

		// Log
		"log.level":       "info",
		"log.format":      "json",
		"log.output":      "stdout",
		"log.max_size":    100,
		"log.max_backups": 3,
		"log.max_age":     7,
		"log.compress":    true,

		// Metrics
		"metrics.enabled":   true,
		"metrics.port":      9090,
		"metrics.path":      "/metrics",
		"metrics.namespace": "dayplanner",
		"metrics.subsystem": "",

		// Tracing
		"tracing.enabled":      false,
		"tracing.endpoint":     "localhost:4317",
		"tracing.service_name": "planner-svc",
		"tracing.sample_rate":  0.1,

		// Database
		"database.host":               "localhost",
		"database.port":               5432,
		"database.database":           "dayplanner",
		"database.username":           "postgres",
		"database.password":           "",
		"database.ssl_mode":           "disable",
		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  5 * time.Minute,
		"database.conn_max_idle_time": 5 * time.Minute,
		"database.migrations_path":    "internal/persistence/postgres/migrations",
		"database.auto_migrate":       true,

		// Cache
		"cache.enabled":     true,
		"cache.driver":      "memory",
		"cache.host":        "localhost",
		"cache.port":        6379,
		"cache.db":          0,
		"cache.ttl_days":    7,
		"cache.default_ttl": 7 * 24 * time.Hour,
		"cache.max_entries": 10000,

		// Primary geocoder (Nominatim-style)
		"primary_geocoder.base_url":           "https://nominatim.openstreetmap.org",
		"primary_geocoder.user_agent":         "dayplanner/1.0",
		"primary_geocoder.rate_limit":         time.Second,
		"primary_geocoder.search_radius_mi":   10.0,
		"primary_geocoder.expanded_radius_mi": 25.0,
		"primary_geocoder.timeout":            10 * time.Second,

		// Routing
		"routing.base_url":           "https://maps.googleapis.com",
		"routing.api_key":            "",
		"routing.timeout":            10 * time.Second,
		"routing.fallback_speed_kmh": 40.0,

		// Resolver
		"resolver.simple_mode":              false,
		"resolver.default_search_radius_km": 16.0,
		"resolver.places_enabled":           true,
		"resolver.web_search_enabled":       true,
		"resolver.llm_enabled":              false,
		"resolver.llm_model":                "gpt-4o-mini",
		"resolver.fuzzy_match_threshold":    0.72,
		"resolver.max_concurrent_resolves":  4,

		// Report
		"report.default_theme":         "light",
		"report.max_items_in_table":    50,
		"report.default_company_name":  "",
		"report.pdf.page_size":         "A4",
		"report.pdf.orientation":       "portrait",
		"report.pdf.margin_top":        15.0,
		"report.pdf.margin_bottom":     15.0,
		"report.pdf.margin_left":       15.0,
		"report.pdf.margin_right":      15.0,
		"report.pdf.font_family":       "Arial",
		"report.pdf.font_size":         10.0,
		"report.pdf.enable_page_numbers": true,
	}

	return l.k.Load(confmap.Provider(defaults, "."), nil)
}

// loadConfigFile loads configuration from a YAML file, if one can be found.
func (l *Loader) loadConfigFile() error {
	if configPath := os.Getenv(configEnvVar); configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return l.k.Load(file.Provider(configPath), yaml.Parser())
		}
	}

	for _, path := range l.configPaths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			continue
		}

		if _, err := os.Stat(absPath); err == nil {
			return l.k.Load(file.Provider(absPath), yaml.Parser())
		}
	}

	return fmt.Errorf("config file not found in paths: %v", l.configPaths)
}

// loadEnv loads configuration from environment variables, which take
// precedence over both defaults and the config file.
func (l *Loader) loadEnv() error {
	return l.k.Load(env.Provider(l.envPrefix, ".", func(s string) string {
		// DAYPLANNER_HTTP_PORT -> http.port
		return strings.ReplaceAll(
			strings.ToLower(
				strings.TrimPrefix(s, l.envPrefix),
			),
			"_", ".",
		)
	}), nil)
}

// MustLoad loads configuration or panics.
func MustLoad(opts ...LoaderOption) *Config {
	cfg, err := NewLoader(opts...).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Load is a convenience function that loads configuration with defaults.
func Load() (*Config, error) {
	return NewLoader().Load()
}
