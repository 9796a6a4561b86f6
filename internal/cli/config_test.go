package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func useTempConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "goprofiles", "config.yaml")
	prev := ConfigPathFunc
	ConfigPathFunc = func() (string, error) { return path, nil }
	t.Cleanup(func() { ConfigPathFunc = prev })
	t.Setenv(EnvBaseURL, "")
	t.Setenv(EnvAPIKey, "")
	return path
}

func TestLoadConfig_MissingFile(t *testing.T) {
	useTempConfig(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DefaultEnv != "dev" || len(cfg.Environments) != 0 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestInitConfig(t *testing.T) {
	path := useTempConfig(t)

	got, err := InitConfig(false)
	if err != nil {
		t.Fatalf("InitConfig: %v", err)
	}
	if got != path {
		t.Errorf("path = %q, want %q", got, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}

	if _, err := InitConfig(false); err == nil || !strings.Contains(err.Error(), "--force") {
		t.Errorf("second init without force: err = %v", err)
	}
	if _, err := InitConfig(true); err != nil {
		t.Errorf("init with force: %v", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Environments["dev"].BaseURL != "http://localhost:8080" {
		t.Errorf("dev env = %+v", cfg.Environments["dev"])
	}
}

func TestGetEnvConfig(t *testing.T) {
	useTempConfig(t)
	if err := SaveConfig(&Config{
		DefaultEnv: "dev",
		Environments: map[string]EnvConfig{
			"dev":  {BaseURL: "http://dev:8080", APIKey: "dev-key"},
			"prod": {BaseURL: "https://prod"},
		},
	}); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	t.Run("default env from file", func(t *testing.T) {
		got, err := GetEnvConfig("", "", "")
		if err != nil {
			t.Fatal(err)
		}
		if got.BaseURL != "http://dev:8080" || got.APIKey != "dev-key" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("named env without key", func(t *testing.T) {
		got, err := GetEnvConfig("prod", "", "")
		if err != nil {
			t.Fatal(err)
		}
		if got.BaseURL != "https://prod" || got.APIKey != "" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("flags win", func(t *testing.T) {
		got, err := GetEnvConfig("dev", "http://flag", "flag-key")
		if err != nil {
			t.Fatal(err)
		}
		if got.BaseURL != "http://flag" || got.APIKey != "flag-key" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("environment variables beat file", func(t *testing.T) {
		t.Setenv(EnvBaseURL, "http://from-env")
		t.Setenv(EnvAPIKey, "env-key")
		got, err := GetEnvConfig("", "", "")
		if err != nil {
			t.Fatal(err)
		}
		if got.BaseURL != "http://from-env" || got.APIKey != "env-key" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("unknown env", func(t *testing.T) {
		if _, err := GetEnvConfig("staging", "", ""); err == nil {
			t.Error("expected error for unknown environment")
		}
	})
}
