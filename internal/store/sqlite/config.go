package sqlite

import "errors"

const defaultBusyTimeout = 5000

// Config configures the SQLite database.
type Config struct {
	// Path is the database file. ":memory:" keeps everything in memory.
	Path string `yaml:"path"`
	// BusyTimeout is the SQLite busy timeout in milliseconds.
	BusyTimeout int `yaml:"busy_timeout"`
}

func (c *Config) defaults() {
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = defaultBusyTimeout
	}
}

func (c *Config) validate() error {
	if c.Path == "" {
		return errors.New("sqlite: path is required")
	}
	return nil
}
