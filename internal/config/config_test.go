package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != DefaultHTTPAddr {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Slack.BotName != DefaultBotName {
		t.Errorf("BotName = %q", cfg.Slack.BotName)
	}
	if cfg.Google.StateTTL() != time.Duration(DefaultStateTTLMinutes)*time.Minute {
		t.Errorf("StateTTL = %v", cfg.Google.StateTTL())
	}
	if cfg.Store.Timeout() != time.Duration(DefaultStoreTimeoutSeconds)*time.Second {
		t.Errorf("store Timeout = %v", cfg.Store.Timeout())
	}
}

func TestLoad_ParsesTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[log]
level = "debug"
format = "json"

[server]
addr = ":9090"

[slack]
bot_token = "xoxb-test"
signing_secret = "sig"
bot_name = "Arnold"

[google]
client_id = "cid"
client_secret = "cs"
redirect_url = "https://example.com/oauth/google/callback"
state_secret = "state-secret"
state_ttl_minutes = 5

[store]
base_url = "https://store.example.com"
api_key = "key"
timeout_seconds = 3

[engine]
webhook_url = "https://n8n.example.com/webhook/arnold"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Slack.BotToken != "xoxb-test" || cfg.Slack.BotName != "Arnold" {
		t.Errorf("Slack = %+v", cfg.Slack)
	}
	if cfg.Google.StateTTL() != 5*time.Minute {
		t.Errorf("StateTTL = %v", cfg.Google.StateTTL())
	}
	if cfg.Store.Timeout() != 3*time.Second {
		t.Errorf("store Timeout = %v", cfg.Store.Timeout())
	}
	if cfg.Engine.Timeout() != time.Duration(DefaultEngineTimeoutSeconds)*time.Second {
		t.Errorf("engine Timeout = %v (default expected)", cfg.Engine.Timeout())
	}
}
