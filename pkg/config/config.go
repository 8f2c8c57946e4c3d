// pkg/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the top-level configuration structure.
type Config struct {
	App             AppConfig             `koanf:"app"`
	HTTP            HTTPConfig            `koanf:"http"`
	Log             LogConfig             `koanf:"log"`
	Metrics         MetricsConfig         `koanf:"metrics"`
	Tracing         TracingConfig         `koanf:"tracing"`
	Database        DatabaseConfig        `koanf:"database"`
	Cache           CacheConfig           `koanf:"cache"`
	PrimaryGeocoder PrimaryGeocoderConfig `koanf:"primary_geocoder"`
	Routing         RoutingConfig         `koanf:"routing"`
	Resolver        ResolverConfig        `koanf:"resolver"`
	Report          ReportConfig          `koanf:"report"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
	Debug       bool   `koanf:"debug"`
}

// HTTPConfig configures the demo front door (cmd/planner-svc).
type HTTPConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level      string `koanf:"level"`       // debug, info, warn, error
	Format     string `koanf:"format"`      // json, text
	Output     string `koanf:"output"`      // stdout, stderr, file
	FilePath   string `koanf:"file_path"`   // only used when output == "file"
	MaxSize    int    `koanf:"max_size"`    // MB, lumberjack rotation threshold
	MaxBackups int    `koanf:"max_backups"` // lumberjack retained rotations
	MaxAge     int    `koanf:"max_age"`     // days
	Compress   bool   `koanf:"compress"`
}

// MetricsConfig configures the Prometheus exporter.
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Port      int    `koanf:"port"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
}

// TracingConfig configures the OpenTelemetry exporter.
type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// DatabaseConfig configures the Postgres persistence port.
type DatabaseConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Database        string        `koanf:"database"`
	Username        string        `koanf:"username"`
	Password        string        `koanf:"password"`
	SSLMode         string        `koanf:"ssl_mode"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	MigrationsPath  string        `koanf:"migrations_path"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

// DSN returns the libpq connection string for the configured database.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.Username, d.Password, d.Database, d.SSLMode,
	)
}

// CacheConfig configures the provider/routing response cache.
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Driver     string        `koanf:"driver"` // redis, memory
	Host       string        `koanf:"host"`
	Port       int           `koanf:"port"`
	Password   string        `koanf:"password"`
	DB         int           `koanf:"db"`
	TTLDays    int           `koanf:"ttl_days"`
	MaxEntries int           `koanf:"max_entries"` // in-memory driver only
	DefaultTTL time.Duration `koanf:"default_ttl"`
}

// Address returns the host:port of the cache backend.
func (c CacheConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TTL returns the configured TTL as a time.Duration, derived from TTLDays
// when set (spec §6: "cache_ttl_days"), falling back to DefaultTTL.
func (c CacheConfig) TTL() time.Duration {
	if c.TTLDays > 0 {
		return time.Duration(c.TTLDays) * 24 * time.Hour
	}
	return c.DefaultTTL
}

// PrimaryGeocoderConfig configures the primary (OSM-style) geocoding adapter
// and its fallback search radii (spec §4.3, §6).
type PrimaryGeocoderConfig struct {
	BaseURL          string        `koanf:"base_url"`
	UserAgent        string        `koanf:"user_agent"`
	RateLimit        time.Duration `koanf:"rate_limit"` // minimum gap between requests
	SearchRadiusMi   float64       `koanf:"search_radius_mi"`
	ExpandedRadiusMi float64       `koanf:"expanded_radius_mi"`
	Timeout          time.Duration `koanf:"timeout"`
}

// RoutingConfig configures the travel-time/distance segmenter (spec §4.2).
type RoutingConfig struct {
	BaseURL          string        `koanf:"base_url"`
	APIKey           string        `koanf:"api_key"`
	Timeout          time.Duration `koanf:"timeout"`
	FallbackSpeedKmh float64       `koanf:"fallback_speed_kmh"`
}

// ResolverConfig configures the tiered place-resolution cascade (spec §4.4).
type ResolverConfig struct {
	SimpleMode            bool    `koanf:"simple_mode"` // Google-only, single-tier variant
	DefaultSearchRadiusKm float64 `koanf:"default_search_radius_km"`
	PlacesEnabled         bool    `koanf:"places_enabled"`
	WebSearchEnabled      bool    `koanf:"web_search_enabled"`
	LLMEnabled            bool    `koanf:"llm_enabled"`
	LLMModel              string  `koanf:"llm_model"`
	FuzzyMatchThreshold   float64 `koanf:"fuzzy_match_threshold"`
	MaxConcurrentResolves int     `koanf:"max_concurrent_resolves"`
}

// ReportConfig configures PDF/XLSX export of a finished plan.
type ReportConfig struct {
	DefaultTheme       string    `koanf:"default_theme"` // light, dark, corporate
	MaxItemsInTable    int       `koanf:"max_items_in_table"`
	DefaultCompanyName string    `koanf:"default_company_name"`
	PDF                PDFConfig `koanf:"pdf"`
}

// PDFConfig configures the maroto/v2-backed PDF exporter.
type PDFConfig struct {
	PageSize          string  `koanf:"page_size"`   // A4, Letter, Legal
	Orientation       string  `koanf:"orientation"` // portrait, landscape
	MarginTop         float64 `koanf:"margin_top"`
	MarginBottom      float64 `koanf:"margin_bottom"`
	MarginLeft        float64 `koanf:"margin_left"`
	MarginRight       float64 `koanf:"margin_right"`
	FontFamily        string  `koanf:"font_family"`
	FontSize          float64 `koanf:"font_size"`
	EnablePageNumbers bool    `koanf:"enable_page_numbers"`
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	var errs []string

	if c.App.Name == "" {
		errs = append(errs, "app.name is required")
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Sprintf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	if c.Resolver.DefaultSearchRadiusKm < 0 {
		errs = append(errs, "resolver.default_search_radius_km must be non-negative")
	}

	if c.PrimaryGeocoder.SearchRadiusMi <= 0 {
		errs = append(errs, "primary_geocoder.search_radius_mi must be positive")
	}

	if c.Routing.FallbackSpeedKmh <= 0 {
		errs = append(errs, "routing.fallback_speed_kmh must be positive")
	}

	validThemes := map[string]bool{"light": true, "dark": true, "corporate": true}
	if c.Report.DefaultTheme != "" && !validThemes[c.Report.DefaultTheme] {
		errs = append(errs, fmt.Sprintf("report.default_theme must be one of: light, dark, corporate, got %s", c.Report.DefaultTheme))
	}

	validPageSizes := map[string]bool{"A4": true, "Letter": true, "Legal": true}
	if c.Report.PDF.PageSize != "" && !validPageSizes[c.Report.PDF.PageSize] {
		errs = append(errs, fmt.Sprintf("report.pdf.page_size must be one of: A4, Letter, Legal, got %s", c.Report.PDF.PageSize))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsDevelopment reports whether the app is running in a development environment.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "dev"
}

// IsProduction reports whether the app is running in a production environment.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production" || c.App.Environment == "prod"
}
