// Package config handles YAML configuration loading, environment variable
// expansion, defaults and validation for sealdrop.
package config

import (
	"fmt"
	"time"

	"github.com/docker/go-units"
	"gopkg.in/yaml.v3"

	"github.com/flemzord/sealdrop/internal/gateway"
	"github.com/flemzord/sealdrop/internal/telemetry"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// DataDir holds the database. Defaults to DefaultDataDir().
	DataDir string `yaml:"data_dir"`

	Log      LogConfig         `yaml:"log"`
	Telegram TelegramConfig    `yaml:"telegram"`
	Store    StoreConfig       `yaml:"store"`
	Gateway  gateway.Config    `yaml:"gateway"`
	Probe    ProbeConfig       `yaml:"probe"`
	History  HistoryConfig     `yaml:"history"`
	Tracing  telemetry.Config  `yaml:"tracing"`
	Messages map[string]string `yaml:"messages,omitempty"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// TelegramConfig configures the Bot API transport.
type TelegramConfig struct {
	APIURL         string        `yaml:"api_url"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	MaxFileSize    ByteSize      `yaml:"max_file_size"`
}

// StoreConfig configures the SQLite database.
type StoreConfig struct {
	// Path defaults to <data_dir>/sealdrop.db.
	Path        string `yaml:"path"`
	BusyTimeout int    `yaml:"busy_timeout"`
	// WatchInterval is how often serve checks for preference changes made
	// by other processes.
	WatchInterval time.Duration `yaml:"watch_interval"`
}

// ProbeConfig schedules periodic connectivity probes.
type ProbeConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
}

// HistoryConfig controls delivery history retention.
type HistoryConfig struct {
	Retention     time.Duration `yaml:"retention"`
	PruneSchedule string        `yaml:"prune_schedule"`
}

// ByteSize is a size in bytes written as a human string such as "50MiB"
// or "20MB" in YAML.
type ByteSize int64

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *ByteSize) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	n, err := units.RAMInBytes(s)
	if err != nil {
		return fmt.Errorf("invalid size %q: %w", s, err)
	}
	*b = ByteSize(n)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (b ByteSize) MarshalYAML() (any, error) {
	return units.BytesSize(float64(b)), nil
}

// String returns the human-readable size.
func (b ByteSize) String() string {
	return units.BytesSize(float64(b))
}
