package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/docker/go-units"

	"github.com/flemzord/sealdrop/internal/gateway"
	"github.com/flemzord/sealdrop/internal/telegram"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills zero values with sensible defaults.
func (c *Config) applyDefaults() {
	if c.Version == "" {
		c.Version = "1"
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	transport := telegram.DefaultTransportConfig()
	if c.Telegram.APIURL == "" {
		c.Telegram.APIURL = telegram.DefaultBaseURL
	}
	if c.Telegram.ConnectTimeout <= 0 {
		c.Telegram.ConnectTimeout = transport.ConnectTimeout
	}
	if c.Telegram.WriteTimeout <= 0 {
		c.Telegram.WriteTimeout = transport.WriteTimeout
	}
	if c.Telegram.ReadTimeout <= 0 {
		c.Telegram.ReadTimeout = transport.ReadTimeout
	}
	if c.Telegram.MaxFileSize <= 0 {
		c.Telegram.MaxFileSize = 50 * units.MiB
	}

	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(c.DataDir, "sealdrop.db")
	}

	if c.Store.WatchInterval <= 0 {
		c.Store.WatchInterval = 5 * time.Second
	}

	c.Gateway = gateway.WithDefaults(c.Gateway)

	if c.Probe.Schedule == "" {
		c.Probe.Schedule = "@every 30m"
	}
	if c.History.Retention <= 0 {
		c.History.Retention = 30 * 24 * time.Hour
	}
	if c.History.PruneSchedule == "" {
		c.History.PruneSchedule = "@daily"
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "sealdrop"
	}
	if c.Tracing.SampleRatio == 0 {
		c.Tracing.SampleRatio = 1
	}
}

// DefaultDataDir returns the default persistent data directory.
// Uses $XDG_DATA_HOME/sealdrop if set, otherwise ~/.local/share/sealdrop.
func DefaultDataDir() string {
	if dir, ok := os.LookupEnv("XDG_DATA_HOME"); ok {
		return filepath.Join(dir, "sealdrop")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "sealdrop")
}
