package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/flemzord/sealdrop/internal/cron"
	"github.com/flemzord/sealdrop/internal/delivery"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Validate checks the semantic validity of a Config with defaults applied.
// Every problem found is reported.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if !slices.Contains(logLevels, cfg.Log.Level) {
		errs = append(errs, fmt.Errorf("config: log.level %q must be one of %v", cfg.Log.Level, logLevels))
	}
	if !slices.Contains(logFormats, cfg.Log.Format) {
		errs = append(errs, fmt.Errorf("config: log.format %q must be one of %v", cfg.Log.Format, logFormats))
	}

	errs = append(errs, validateTelegram(cfg.Telegram)...)

	if err := cfg.Gateway.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}

	if cfg.Probe.Enabled {
		if _, err := cron.ParseSchedule(cfg.Probe.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("config: probe.schedule: %w", err))
		}
	}
	if _, err := cron.ParseSchedule(cfg.History.PruneSchedule); err != nil {
		errs = append(errs, fmt.Errorf("config: history.prune_schedule: %w", err))
	}
	if cfg.History.Retention < time.Hour {
		errs = append(errs, errors.New("config: history.retention must be at least 1h"))
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, errors.New("config: tracing.endpoint is required when tracing is enabled"))
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, errors.New("config: tracing.sample_ratio must be between 0 and 1"))
	}

	for key := range cfg.Messages {
		if !delivery.IsMessageKey(key) {
			errs = append(errs, fmt.Errorf("config: messages: unknown key %q", key))
		}
	}

	return errors.Join(errs...)
}

func validateTelegram(t TelegramConfig) []error {
	var errs []error

	u, err := url.Parse(t.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("config: telegram.api_url %q must be an http(s) URL", t.APIURL))
	}

	timeouts := []struct {
		name string
		d    time.Duration
	}{
		{"connect_timeout", t.ConnectTimeout},
		{"write_timeout", t.WriteTimeout},
		{"read_timeout", t.ReadTimeout},
	}
	for _, tt := range timeouts {
		if tt.d <= 0 {
			errs = append(errs, fmt.Errorf("config: telegram.%s must be positive", tt.name))
		}
	}

	if t.MaxFileSize <= 0 {
		errs = append(errs, errors.New("config: telegram.max_file_size must be positive"))
	}
	return errs
}
