package shared

import (
	"bytes"
	_ "embed"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/gorilla/securecookie"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Session  SessionConfig  `toml:"session"`
	Mastodon MastodonConfig `toml:"mastodon"`
	Log      LogConfig      `toml:"log"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr joins host and port into a listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SessionConfig contains browser session cookie settings.
type SessionConfig struct {
	Name   string `toml:"name"`
	Secret string `toml:"secret"`
	Secure bool   `toml:"secure"`
	MaxAge int    `toml:"max_age"`
}

// MastodonConfig controls how this front-end registers itself with instances and how
// hard it is allowed to hit them.
type MastodonConfig struct {
	AppName   string   `toml:"app_name"`
	Website   string   `toml:"website"`
	Scopes    []string `toml:"scopes"`
	UserAgent string   `toml:"user_agent"`
	RateLimit float64  `toml:"rate_limit"` // requests per second before the instance tells us otherwise
	Burst     int      `toml:"burst"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// ParseLevel returns the configured [log.Level], falling back to info.
func (l LogConfig) ParseLevel() log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(l.Level))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Validate reports configuration that would make the server unusable.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is empty", ErrInvalidConfig)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if len(c.Session.Secret) < 32 {
		return fmt.Errorf("%w: session.secret must be at least 32 bytes", ErrInvalidConfig)
	}
	if c.Session.Secret == DefaultConfig().Session.Secret {
		return fmt.Errorf("%w: session.secret is the published example; run 'brutaldon setup config' or set your own", ErrInvalidConfig)
	}
	if c.Mastodon.AppName == "" {
		return fmt.Errorf("%w: mastodon.app_name is empty", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config,
// with a freshly generated session secret.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	key := securecookie.GenerateRandomKey(32)
	if key == nil {
		return fmt.Errorf("failed to generate session secret")
	}

	example := []byte(strconv.Quote(DefaultConfig().Session.Secret))
	content := bytes.Replace(exampleConf, example, []byte(strconv.Quote(hex.EncodeToString(key))), 1)

	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
