package shared

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.API.BaseURL != "http://127.0.0.1:8000/api/" {
			t.Errorf("expected base URL http://127.0.0.1:8000/api/, got %s", config.API.BaseURL)
		}

		if config.API.RefreshPath != "auth/token/refresh/" {
			t.Errorf("expected refresh path auth/token/refresh/, got %s", config.API.RefreshPath)
		}

		if config.Session.Path != "./ilas-session.db" {
			t.Errorf("expected session path ./ilas-session.db, got %s", config.Session.Path)
		}

		if config.Session.PollIntervalMS != 250 {
			t.Errorf("expected poll interval 250, got %d", config.Session.PollIntervalMS)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Session.Path != defaultConfig.Session.Path {
			t.Errorf("created config session path doesn't match default")
		}

		err = CreateConfigFile(configPath)
		if err == nil {
			t.Fatal("creating config file again should fail")
		}
		if !strings.Contains(err.Error(), "already exists") {
			t.Errorf("unexpected error message: %v", err)
		}
		if strings.Contains(err.Error(), "%!w") {
			t.Errorf("error message carries a bad verb: %v", err)
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[api]
base_url = "https://library.example.org/api/"
login_path = "auth/login/"
register_path = "auth/register/"
me_path = "auth/me/"
refresh_path = "auth/refresh/"
timeout_seconds = 10
rate_limit = 5.0

[session]
path = "/custom/session.db"
poll_interval_ms = 100
max_open_conns = 2
max_idle_conns = 1
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.API.BaseURL != "https://library.example.org/api/" {
			t.Errorf("expected base URL https://library.example.org/api/, got %s", config.API.BaseURL)
		}

		if config.API.RateLimit != 5.0 {
			t.Errorf("expected rate limit 5.0, got %f", config.API.RateLimit)
		}

		if config.Session.Path != "/custom/session.db" {
			t.Errorf("expected session path /custom/session.db, got %s", config.Session.Path)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("ILAS_API_BASE", "https://override.example.org/api/")
		t.Setenv("ILAS_SESSION_PATH", "/tmp/override.db")

		config := DefaultConfig()
		ApplyEnv(config)

		if config.API.BaseURL != "https://override.example.org/api/" {
			t.Errorf("expected env override for base URL, got %s", config.API.BaseURL)
		}
		if config.Session.Path != "/tmp/override.db" {
			t.Errorf("expected env override for session path, got %s", config.Session.Path)
		}
	})
}
