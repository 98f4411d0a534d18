package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultAPIURL         = "http://localhost:8000"
	DefaultFeedListenAddr = ":8090"

	defaultPermissionSettleSeconds = 2
	defaultStreamReconnectSeconds  = 5

	defaultSoundCommand = "aplay"
	defaultSoundFile    = "/usr/share/mirror/mirror.wav"
)

var (
	ErrInvalid = errors.New("invalid configuration")
)

// Config is process-wide and immutable after Load.
type Config struct {
	APIURL         string `toml:"api_url"`
	LiveKitURL     string `toml:"livekit_url"`
	FeedListenAddr string `toml:"feed_listen_addr"`

	// PermissionSettleSeconds is the debounce between the device
	// permission request settling and the connection attempt. The
	// platform offers no permission-change notification, so the gate
	// state is re-read after this delay.
	PermissionSettleSeconds int `toml:"permission_settle_seconds"`
	StreamReconnectSeconds  int `toml:"stream_reconnect_seconds"`

	SoundCommand string `toml:"sound_command"`
	SoundFile    string `toml:"sound_file"`

	// Viewer joins sessions with a subscribe-only credential.
	Viewer bool `toml:"viewer"`

	LogLevel string `toml:"log_level"`
}

func Default() Config {
	return Config{
		APIURL:                  DefaultAPIURL,
		FeedListenAddr:          DefaultFeedListenAddr,
		PermissionSettleSeconds: defaultPermissionSettleSeconds,
		StreamReconnectSeconds:  defaultStreamReconnectSeconds,
		SoundCommand:            defaultSoundCommand,
		SoundFile:               defaultSoundFile,
		LogLevel:                "info",
	}
}

// Load reads the optional config file on top of defaults, then applies
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("MIRROR_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("MIRROR_LIVEKIT_URL"); v != "" {
		c.LiveKitURL = v
	}
	if v := os.Getenv("MIRROR_FEED_LISTEN_ADDR"); v != "" {
		c.FeedListenAddr = v
	}
}

func (c Config) Validate() error {
	if c.APIURL == "" {
		return errors.Join(ErrInvalid, errors.New("api_url must be set"))
	}
	if c.PermissionSettleSeconds <= 0 {
		return errors.Join(ErrInvalid, errors.New("permission_settle_seconds must be positive"))
	}
	if c.StreamReconnectSeconds <= 0 {
		return errors.Join(ErrInvalid, errors.New("stream_reconnect_seconds must be positive"))
	}
	return nil
}

func (c Config) PermissionSettle() time.Duration {
	return time.Duration(c.PermissionSettleSeconds) * time.Second
}

func (c Config) StreamReconnect() time.Duration {
	return time.Duration(c.StreamReconnectSeconds) * time.Second
}
