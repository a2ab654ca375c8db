// Package config loads and exposes application configuration (TOML).
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath           = "config.toml"
	DefaultHTTPAddr             = ":8080"
	DefaultBotName              = "arnold"
	DefaultStateTTLMinutes      = 15
	DefaultStoreTimeoutSeconds  = 10
	DefaultEngineTimeoutSeconds = 10
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log    LogConfig    `toml:"log"`
	Server ServerConfig `toml:"server"`
	Slack  SlackConfig  `toml:"slack"`
	Google GoogleConfig `toml:"google"`
	Store  StoreConfig  `toml:"store"`
	Engine EngineConfig `toml:"engine"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the HTTP server listen address.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// SlackConfig holds the bot token, the request signing secret, and the name
// the bot answers to in plain channel messages.
type SlackConfig struct {
	BotToken      string `toml:"bot_token"`
	SigningSecret string `toml:"signing_secret"`
	BotName       string `toml:"bot_name"`
}

// GoogleConfig holds the OAuth client and the secret used to sign the
// correlation state carried through the authorization redirect.
type GoogleConfig struct {
	ClientID        string `toml:"client_id"`
	ClientSecret    string `toml:"client_secret"`
	RedirectURL     string `toml:"redirect_url"`
	StateSecret     string `toml:"state_secret"`
	StateTTLMinutes int    `toml:"state_ttl_minutes"`
}

// StoreConfig holds the credential store base URL and API key.
type StoreConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// EngineConfig holds the automation engine webhook target.
type EngineConfig struct {
	WebhookURL     string `toml:"webhook_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// StateTTL returns the correlation state lifetime.
func (c GoogleConfig) StateTTL() time.Duration {
	minutes := c.StateTTLMinutes
	if minutes <= 0 {
		minutes = DefaultStateTTLMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// Timeout returns the credential store request timeout.
func (c StoreConfig) Timeout() time.Duration {
	seconds := c.TimeoutSeconds
	if seconds <= 0 {
		seconds = DefaultStoreTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}

// Timeout returns the engine webhook request timeout.
func (c EngineConfig) Timeout() time.Duration {
	seconds := c.TimeoutSeconds
	if seconds <= 0 {
		seconds = DefaultEngineTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}

// Load reads and parses the TOML config file at path and applies default
// values for missing fields. A missing file is not an error; defaults apply.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Slack: SlackConfig{
			BotName: DefaultBotName,
		},
		Google: GoogleConfig{
			StateTTLMinutes: DefaultStateTTLMinutes,
		},
		Store: StoreConfig{
			TimeoutSeconds: DefaultStoreTimeoutSeconds,
		},
		Engine: EngineConfig{
			TimeoutSeconds: DefaultEngineTimeoutSeconds,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
