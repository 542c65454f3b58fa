package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./brutaldon.db" {
			t.Errorf("expected database path ./brutaldon.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Mastodon.AppName != "brutaldon" {
			t.Errorf("expected app name brutaldon, got %s", config.Mastodon.AppName)
		}

		if len(config.Mastodon.Scopes) != 3 {
			t.Errorf("expected 3 default scopes, got %v", config.Mastodon.Scopes)
		}

		if config.Session.Name != "brutaldon" {
			t.Errorf("expected session name brutaldon, got %s", config.Session.Name)
		}

		if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected the example session secret to be rejected, got %v", err)
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
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if config.Session.Secret == defaultConfig.Session.Secret {
			t.Error("expected a generated session secret")
		}

		if err := config.Validate(); err != nil {
			t.Errorf("created config should validate, got %v", err)
		}

		other := filepath.Join(tmpDir, "other.toml")
		if err := CreateConfigFile(other); err != nil {
			t.Fatalf("failed to create second config file: %v", err)
		}
		if second, _ := LoadConfig(other); second.Session.Secret == config.Session.Secret {
			t.Error("expected each config file to get its own secret")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 8080

[session]
secret = "0123456789abcdef0123456789abcdef"
secure = true

[mastodon]
app_name = "brutaldon-test"
rate_limit = 1.5

[log]
level = "debug"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Database.MaxOpenConns != 10 {
			t.Errorf("expected max_open_conns to keep default 10, got %d", config.Database.MaxOpenConns)
		}

		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}

		if !config.Session.Secure {
			t.Error("expected secure session cookies")
		}

		if config.Mastodon.RateLimit != 1.5 {
			t.Errorf("expected rate limit 1.5, got %v", config.Mastodon.RateLimit)
		}

		if config.Log.ParseLevel() != log.DebugLevel {
			t.Errorf("expected debug level, got %v", config.Log.ParseLevel())
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name   string
			mutate func(*Config)
		}{
			{"empty database path", func(c *Config) { c.Database.Path = "" }},
			{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
			{"short secret", func(c *Config) { c.Session.Secret = "short" }},
			{"example secret", func(c *Config) { c.Session.Secret = DefaultConfig().Session.Secret }},
			{"empty app name", func(c *Config) { c.Mastodon.AppName = "" }},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				config := DefaultConfig()
				config.Session.Secret = "0123456789abcdef0123456789abcdef"
				if err := config.Validate(); err != nil {
					t.Fatalf("expected base config to validate, got %v", err)
				}

				tt.mutate(config)
				if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})

	t.Run("ParseLevel Fallback", func(t *testing.T) {
		if lvl := (LogConfig{Level: "nonsense"}).ParseLevel(); lvl != log.InfoLevel {
			t.Errorf("expected info level fallback, got %v", lvl)
		}
	})
}
