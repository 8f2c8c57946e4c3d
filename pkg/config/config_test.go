package config

import (
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				App:             AppConfig{Name: "test-service"},
				HTTP:            HTTPConfig{Port: 8080},
				Log:             LogConfig{Level: "info"},
				PrimaryGeocoder: PrimaryGeocoderConfig{SearchRadiusMi: 5},
				Routing:         RoutingConfig{FallbackSpeedKmh: 40},
			},
			wantErr: false,
		},
		{
			name: "missing app name",
			cfg: Config{
				HTTP:            HTTPConfig{Port: 8080},
				Log:             LogConfig{Level: "info"},
				PrimaryGeocoder: PrimaryGeocoderConfig{SearchRadiusMi: 5},
				Routing:         RoutingConfig{FallbackSpeedKmh: 40},
			},
			wantErr: true,
		},
		{
			name: "invalid port - zero",
			cfg: Config{
				App:             AppConfig{Name: "test"},
				HTTP:            HTTPConfig{Port: 0},
				PrimaryGeocoder: PrimaryGeocoderConfig{SearchRadiusMi: 5},
				Routing:         RoutingConfig{FallbackSpeedKmh: 40},
			},
			wantErr: true,
		},
		{
			name: "invalid port - too high",
			cfg: Config{
				App:             AppConfig{Name: "test"},
				HTTP:            HTTPConfig{Port: 70000},
				PrimaryGeocoder: PrimaryGeocoderConfig{SearchRadiusMi: 5},
				Routing:         RoutingConfig{FallbackSpeedKmh: 40},
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			cfg: Config{
				App:             AppConfig{Name: "test"},
				HTTP:            HTTPConfig{Port: 8080},
				Log:             LogConfig{Level: "invalid"},
				PrimaryGeocoder: PrimaryGeocoderConfig{SearchRadiusMi: 5},
				Routing:         RoutingConfig{FallbackSpeedKmh: 40},
			},
			wantErr: true,
		},
		{
			name: "valid debug level",
			cfg: Config{
				App:             AppConfig{Name: "test"},
				HTTP:            HTTPConfig{Port: 8080},
				Log:             LogConfig{Level: "debug"},
				PrimaryGeocoder: PrimaryGeocoderConfig{SearchRadiusMi: 5},
				Routing:         RoutingConfig{FallbackSpeedKmh: 40},
			},
			wantErr: false,
		},
		{
			name: "missing search radius",
			cfg: Config{
				App:     AppConfig{Name: "test"},
				HTTP:    HTTPConfig{Port: 8080},
				Log:     LogConfig{Level: "info"},
				Routing: RoutingConfig{FallbackSpeedKmh: 40},
			},
			wantErr: true,
		},
		{
			name: "invalid report theme",
			cfg: Config{
				App:             AppConfig{Name: "test"},
				HTTP:            HTTPConfig{Port: 8080},
				Log:             LogConfig{Level: "info"},
				PrimaryGeocoder: PrimaryGeocoderConfig{SearchRadiusMi: 5},
				Routing:         RoutingConfig{FallbackSpeedKmh: 40},
				Report:          ReportConfig{DefaultTheme: "invalid-theme"},
			},
			wantErr: true,
		},
		{
			name: "valid report config",
			cfg: Config{
				App:             AppConfig{Name: "test"},
				HTTP:            HTTPConfig{Port: 8080},
				Log:             LogConfig{Level: "info"},
				PrimaryGeocoder: PrimaryGeocoderConfig{SearchRadiusMi: 5},
				Routing:         RoutingConfig{FallbackSpeedKmh: 40},
				Report: ReportConfig{
					DefaultTheme: "dark",
					PDF:          PDFConfig{PageSize: "A4", Orientation: "landscape"},
				},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"development", true},
		{"dev", true},
		{"production", false},
		{"staging", false},
	}

	for _, tt := range tests {
		cfg := &Config{App: AppConfig{Environment: tt.env}}
		if got := cfg.IsDevelopment(); got != tt.want {
			t.Errorf("IsDevelopment() for %s = %v, want %v", tt.env, got, tt.want)
		}
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"production", true},
		{"prod", true},
		{"development", false},
		{"staging", false},
	}

	for _, tt := range tests {
		cfg := &Config{App: AppConfig{Environment: tt.env}}
		if got := cfg.IsProduction(); got != tt.want {
			t.Errorf("IsProduction() for %s = %v, want %v", tt.env, got, tt.want)
		}
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		Database: "testdb",
		Username: "user",
		Password: "pass",
		SSLMode:  "disable",
	}

	want := "host=localhost port=5432 user=user password=pass dbname=testdb sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("expected DSN %s, got %s", want, got)
	}
}

func TestCacheConfig_Address(t *testing.T) {
	cfg := CacheConfig{
		Host: "redis.local",
		Port: 6379,
	}

	addr := cfg.Address()
	if addr != "redis.local:6379" {
		t.Errorf("expected 'redis.local:6379', got %s", addr)
	}
}

func TestCacheConfig_TTL(t *testing.T) {
	withDays := CacheConfig{TTLDays: 7, DefaultTTL: time.Hour}
	if got := withDays.TTL(); got != 7*24*time.Hour {
		t.Errorf("expected TTLDays to take priority, got %v", got)
	}

	withoutDays := CacheConfig{DefaultTTL: 30 * time.Minute}
	if got := withoutDays.TTL(); got != 30*time.Minute {
		t.Errorf("expected fallback to DefaultTTL, got %v", got)
	}
}

func TestPDFConfig_Defaults(t *testing.T) {
	cfg := PDFConfig{
		PageSize:          "A4",
		Orientation:       "portrait",
		MarginTop:         15.0,
		MarginBottom:      15.0,
		MarginLeft:        15.0,
		MarginRight:       15.0,
		FontFamily:        "Arial",
		FontSize:          10.0,
		EnablePageNumbers: true,
	}

	if cfg.PageSize != "A4" {
		t.Errorf("expected page size A4, got %s", cfg.PageSize)
	}
	if cfg.MarginTop != 15.0 {
		t.Errorf("expected margin 15.0, got %f", cfg.MarginTop)
	}
}
