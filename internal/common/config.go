package common

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Logging LoggingConfig `toml:"logging"`
	Storage StorageConfig `toml:"storage"`
	Jira    JiraAppConfig `toml:"jira"`
	Billing BillingConfig `toml:"billing"`
	Tokens  TokensConfig  `toml:"tokens"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`
	Output []string `toml:"output"` // "console", "file"
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`
	ResetOnStartup bool   `toml:"reset_on_startup"`
}

// JiraAppConfig holds the OAuth application registered with Atlassian.
// Per-tenant tokens live in storage; this is the app-level client identity.
type JiraAppConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	TokenURL     string `toml:"token_url"`
	APIBaseURL   string `toml:"api_base_url"`
}

// BillingConfig holds the webhook shared secret and signature tolerances.
type BillingConfig struct {
	WebhookSecret    string `toml:"webhook_secret"`
	ToleranceSeconds int64  `toml:"tolerance_seconds"`
	EventRetention   string `toml:"event_retention"` // duration, e.g. "720h"
}

// TokensConfig tunes the proactive refresh sweep.
type TokensConfig struct {
	SweepSchedule string `toml:"sweep_schedule"` // cron expression
	SweepWindow   string `toml:"sweep_window"`   // refresh tokens expiring within this duration
}

// NewDefaultConfig creates a configuration with default values.
// Only user-facing settings are exposed in portico.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8180,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"console", "file"},
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:           "./data/portico",
				ResetOnStartup: false,
			},
		},
		Jira: JiraAppConfig{
			TokenURL:   "https://auth.atlassian.com/oauth/token",
			APIBaseURL: "https://api.atlassian.com",
		},
		Billing: BillingConfig{
			ToleranceSeconds: 300,
			EventRetention:   "720h",
		},
		Tokens: TokensConfig{
			SweepSchedule: "*/10 * * * *",
			SweepWindow:   "15m",
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2
// -> ... -> env. Later files override earlier ones; PORTICO_* environment
// variables override everything except CLI flags.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("PORTICO_SERVER_HOST"); v != "" {
		config.Server.Host = v
	}
	if v := os.Getenv("PORTICO_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("PORTICO_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("PORTICO_STORAGE_PATH"); v != "" {
		config.Storage.Badger.Path = v
	}
	if v := os.Getenv("PORTICO_JIRA_CLIENT_ID"); v != "" {
		config.Jira.ClientID = v
	}
	if v := os.Getenv("PORTICO_JIRA_CLIENT_SECRET"); v != "" {
		config.Jira.ClientSecret = v
	}
	if v := os.Getenv("PORTICO_BILLING_WEBHOOK_SECRET"); v != "" {
		config.Billing.WebhookSecret = v
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
