package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cineref/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
[telegram]
bot_token = "123:abc"
destination_chat_id = -1001234567890

[tmdb]
api_key = "tmdbkey"
`

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.MediaURL.CacheTTLMinutes != 360 {
		t.Fatalf("cache ttl default = %d, want 360", cfg.MediaURL.CacheTTLMinutes)
	}
	if cfg.Media.FrameOffsetFraction != 0.3 {
		t.Fatalf("frame offset default = %v, want 0.3", cfg.Media.FrameOffsetFraction)
	}
	if cfg.VisualSearch.MaxCandidates != 10 {
		t.Fatalf("max candidates default = %d, want 10", cfg.VisualSearch.MaxCandidates)
	}
	if cfg.Telegram.APIBaseURL != "https://api.telegram.org" {
		t.Fatalf("unexpected telegram base url %q", cfg.Telegram.APIBaseURL)
	}
}

func TestLoadRequiresBotToken(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	path := writeConfig(t, `
[telegram]
destination_chat_id = -100123

[tmdb]
api_key = "tmdbkey"
`)
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "bot_token") {
		t.Fatalf("expected bot_token error, got %v", err)
	}
}

func TestLoadBotTokenFromEnv(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "999:env")
	path := writeConfig(t, `
[telegram]
destination_chat_id = -100123

[tmdb]
api_key = "tmdbkey"
`)
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Telegram.BotToken != "999:env" {
		t.Fatalf("bot token = %q, want env value", cfg.Telegram.BotToken)
	}
}

func TestLoadRejectsBadOffsetFraction(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[media]
frame_offset_fraction = 1.5
`)
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "frame_offset_fraction") {
		t.Fatalf("expected frame_offset_fraction error, got %v", err)
	}
}

func TestLoadRejectsNonPositiveTTL(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[media_url]
cache_ttl_minutes = -5
`)
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "cache_ttl_minutes") {
		t.Fatalf("expected cache_ttl_minutes error, got %v", err)
	}
}

func TestLoadRequiresVisualEndpointWhenEnabled(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[visual_search]
enabled = true
`)
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "visual_search.endpoint") {
		t.Fatalf("expected visual_search.endpoint error, got %v", err)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := writeConfig(t, "# existing\n")
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when sample target already exists")
	}
}
