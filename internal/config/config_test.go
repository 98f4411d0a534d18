package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.PermissionSettle() != 2*time.Second {
		t.Errorf("PermissionSettle = %s, want 2s", cfg.PermissionSettle())
	}
	if cfg.StreamReconnect() != 5*time.Second {
		t.Errorf("StreamReconnect = %s, want 5s", cfg.StreamReconnect())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.toml")
	body := `api_url = "https://backend.example.com"
livekit_url = "wss://livekit.example.com"
permission_settle_seconds = 3
viewer = true
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "https://backend.example.com" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.LiveKitURL != "wss://livekit.example.com" {
		t.Errorf("LiveKitURL = %q", cfg.LiveKitURL)
	}
	if cfg.PermissionSettleSeconds != 3 {
		t.Errorf("PermissionSettleSeconds = %d", cfg.PermissionSettleSeconds)
	}
	if !cfg.Viewer {
		t.Error("viewer flag not loaded")
	}
	// unset keys keep their defaults
	if cfg.StreamReconnectSeconds != 5 {
		t.Errorf("StreamReconnectSeconds = %d, want default 5", cfg.StreamReconnectSeconds)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("APIURL = %q, want default", cfg.APIURL)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MIRROR_API_URL", "https://env.example.com")
	t.Setenv("MIRROR_FEED_LISTEN_ADDR", ":9999")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "https://env.example.com" {
		t.Errorf("APIURL = %q, env must win", cfg.APIURL)
	}
	if cfg.FeedListenAddr != ":9999" {
		t.Errorf("FeedListenAddr = %q", cfg.FeedListenAddr)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty api url", func(c *Config) { c.APIURL = "" }},
		{"zero settle", func(c *Config) { c.PermissionSettleSeconds = 0 }},
		{"negative reconnect", func(c *Config) { c.StreamReconnectSeconds = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("err = %v, want ErrInvalid", err)
			}
		})
	}
}
