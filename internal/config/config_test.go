package config

import (
	"errors"
	"reflect"
	"testing"

	"github.com/TimurManjosov/goprofiles/internal/profile"
)

var configKeys = []string{
	"APP_ENV", "APP_HTTP_ADDR", "METRICS_ADDR", "STORE_TYPE", "DB_DSN", "DB_MIGRATE",
	"ADMIN_API_KEY", "ENABLED_EXPERIMENTAL_PROFILES", "PROFILE_PRECEDENCE",
	"LOGS_EXTRA_FAMILIES", "LOG_LEVEL", "LOG_FORMAT", "REDIS_URL",
	"OTEL_EXPORTER_OTLP_ENDPOINT", "RATE_LIMIT_PER_IP",
	"WEBHOOK_URLS", "WEBHOOK_SECRET", "WEBHOOK_EVENTS", "WEBHOOK_MAX_RETRIES",
}

// clearEnv blanks every config key for the duration of the test. Empty values
// are treated as unset by viper, so defaults apply.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.AppEnv != "dev" {
		t.Errorf("Expected AppEnv='dev', got '%s'", cfg.AppEnv)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("Expected HTTPAddr=':8080', got '%s'", cfg.HTTPAddr)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("Expected MetricsAddr=':9090', got '%s'", cfg.MetricsAddr)
	}
	if cfg.StoreType != "memory" {
		t.Errorf("Expected StoreType='memory', got '%s'", cfg.StoreType)
	}
	if cfg.AdminAPIKey != "admin-123" {
		t.Errorf("Expected AdminAPIKey='admin-123', got '%s'", cfg.AdminAPIKey)
	}
	if cfg.Precedence != profile.PrecedenceRegistration {
		t.Errorf("Expected Precedence='registration', got '%s'", cfg.Precedence)
	}
	if cfg.EnabledExperimentalProfiles != nil {
		t.Errorf("Expected no experimental profiles, got %v", cfg.EnabledExperimentalProfiles)
	}
	if cfg.LogFormat != "json" || cfg.LogLevel != "info" {
		t.Errorf("Expected json/info logging, got %s/%s", cfg.LogFormat, cfg.LogLevel)
	}
	if cfg.RateLimitPerIP != 600 {
		t.Errorf("Expected RateLimitPerIP=600, got %d", cfg.RateLimitPerIP)
	}
	if cfg.WebhookURLs != nil || cfg.WebhookMaxRetries != 3 {
		t.Errorf("Expected no webhooks with 3 retries, got %v/%d", cfg.WebhookURLs, cfg.WebhookMaxRetries)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "staging")
	t.Setenv("APP_HTTP_ADDR", ":9999")
	t.Setenv("STORE_TYPE", "postgres")
	t.Setenv("DB_MIGRATE", "true")
	t.Setenv("ENABLED_EXPERIMENTAL_PROFILES", "example-root-profile, example-data-source-profile,,")
	t.Setenv("PROFILE_PRECEDENCE", "Priority")
	t.Setenv("LOGS_EXTRA_FAMILIES", "applogs")
	t.Setenv("RATE_LIMIT_PER_IP", "200")
	t.Setenv("WEBHOOK_URLS", "http://a/hook, http://b/hook")
	t.Setenv("WEBHOOK_EVENTS", "definition.deleted")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.AppEnv != "staging" || cfg.HTTPAddr != ":9999" || cfg.StoreType != "postgres" {
		t.Errorf("unexpected overrides: %+v", cfg)
	}
	if !cfg.DBMigrate {
		t.Error("Expected DBMigrate=true")
	}
	wantExp := []string{"example-root-profile", "example-data-source-profile"}
	if !reflect.DeepEqual(cfg.EnabledExperimentalProfiles, wantExp) {
		t.Errorf("EnabledExperimentalProfiles = %v, want %v", cfg.EnabledExperimentalProfiles, wantExp)
	}
	if cfg.Precedence != profile.PrecedencePriority {
		t.Errorf("Expected Precedence='priority', got '%s'", cfg.Precedence)
	}
	if !reflect.DeepEqual(cfg.LogsExtraFamilies, []string{"applogs"}) {
		t.Errorf("LogsExtraFamilies = %v", cfg.LogsExtraFamilies)
	}
	if cfg.RateLimitPerIP != 200 {
		t.Errorf("Expected RateLimitPerIP=200, got %d", cfg.RateLimitPerIP)
	}
	if !reflect.DeepEqual(cfg.WebhookURLs, []string{"http://a/hook", "http://b/hook"}) {
		t.Errorf("WebhookURLs = %v", cfg.WebhookURLs)
	}
	if !reflect.DeepEqual(cfg.WebhookEvents, []string{"definition.deleted"}) {
		t.Errorf("WebhookEvents = %v", cfg.WebhookEvents)
	}
}

func validConfig() *Config {
	return &Config{
		AppEnv:         "dev",
		HTTPAddr:       ":8080",
		MetricsAddr:    ":9090",
		StoreType:      "memory",
		AdminAPIKey:    "admin-123",
		Precedence:     profile.PrecedenceRegistration,
		LogLevel:       "info",
		LogFormat:      "json",
		RateLimitPerIP: 100,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantField string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown store", func(c *Config) { c.StoreType = "redis" }, "STORE_TYPE"},
		{"postgres without dsn", func(c *Config) { c.StoreType = "postgres" }, "DB_DSN"},
		{"postgres with dsn", func(c *Config) { c.StoreType = "postgres"; c.DatabaseDSN = "postgres://x" }, ""},
		{"empty http addr", func(c *Config) { c.HTTPAddr = "" }, "APP_HTTP_ADDR"},
		{"empty metrics addr", func(c *Config) { c.MetricsAddr = "" }, "METRICS_ADDR"},
		{"bad precedence", func(c *Config) { c.Precedence = "random" }, "PROFILE_PRECEDENCE"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
		{"zero rate limit", func(c *Config) { c.RateLimitPerIP = 0 }, "RATE_LIMIT_PER_IP"},
		{"webhooks without secret", func(c *Config) { c.WebhookURLs = []string{"http://hook"} }, "WEBHOOK_SECRET"},
		{"webhooks with secret", func(c *Config) { c.WebhookURLs = []string{"http://hook"}; c.WebhookSecret = "s" }, ""},
		{"negative webhook retries", func(c *Config) { c.WebhookMaxRetries = -1 }, "WEBHOOK_MAX_RETRIES"},
		{"empty admin key", func(c *Config) { c.AdminAPIKey = "" }, "ADMIN_API_KEY"},
		{"default key in prod", func(c *Config) { c.AppEnv = "prod" }, "ADMIN_API_KEY"},
		{"custom key in prod", func(c *Config) { c.AppEnv = "production"; c.AdminAPIKey = "s3cret" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() = %v, want ValidationError", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Field = %s, want %s", ve.Field, tt.wantField)
			}
		})
	}
}
