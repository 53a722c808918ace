package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/flemzord/sealdrop/internal/config"
	"github.com/flemzord/sealdrop/internal/delivery"
	"github.com/flemzord/sealdrop/internal/security"
	"github.com/flemzord/sealdrop/internal/store/sqlite"
	"github.com/flemzord/sealdrop/internal/telegram"
	"github.com/flemzord/sealdrop/internal/telemetry"
)

const tracerName = "github.com/flemzord/sealdrop/internal/delivery"

// BuildParams configures Build.
type BuildParams struct {
	// ConfigPath is an explicit path to the YAML configuration file. If
	// empty the standard locations are searched and defaults are used when
	// nothing is found.
	ConfigPath string

	Version string

	// LogLevel overrides log.level from the configuration when non-empty.
	LogLevel string

	// LogOutput defaults to os.Stderr.
	LogOutput io.Writer
}

// Runtime holds the components shared by every command.
type Runtime struct {
	Config     *config.Config
	ConfigPath string
	Version    string
	Logger     *slog.Logger
	Redactor   *security.Redactor
	Audit      *security.AuditLogger
	Registry   *prometheus.Registry
	DB         *sqlite.DB
	Prefs      *sqlite.PreferenceStore
	History    *sqlite.HistoryStore
	Delivery   *delivery.Service

	shutdownTracing telemetry.ShutdownFunc
}

// Build loads and validates the configuration, then opens the database and
// creates the delivery service. The caller must Close the runtime.
func Build(ctx context.Context, params BuildParams) (*Runtime, error) {
	cfg, cfgPath, err := config.LoadOrDefault(params.ConfigPath)
	if err != nil {
		return nil, err
	}
	if params.LogLevel != "" {
		cfg.Log.Level = params.LogLevel
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	rt := &Runtime{
		Config:     cfg,
		ConfigPath: cfgPath,
		Version:    params.Version,
		Redactor:   security.NewRedactor(),
		Registry:   prometheus.NewRegistry(),
	}

	out := params.LogOutput
	if out == nil {
		out = os.Stderr
	}
	rt.Logger = newLogger(out, cfg.Log, rt.Redactor)
	rt.Audit = security.NewAuditLogger(security.AuditLoggerConfig{
		Redactor: rt.Redactor,
		OnEvent: func(ev security.AuditEvent) {
			rt.Logger.Info("audit", "type", ev.Type, "remote", ev.Remote, "path", ev.Path, "detail", ev.Detail)
		},
	})

	rt.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	rt.DB, err = sqlite.Open(ctx, sqlite.Config{Path: cfg.Store.Path, BusyTimeout: cfg.Store.BusyTimeout})
	if err != nil {
		return nil, err
	}
	rt.Prefs, err = rt.DB.Preferences(ctx)
	if err != nil {
		_ = rt.DB.Close()
		return nil, err
	}
	rt.History = rt.DB.History()
	rt.SyncSecrets()

	tp, shutdown, err := telemetry.Setup(ctx, cfg.Tracing, params.Version, rt.Logger)
	if err != nil {
		_ = rt.DB.Close()
		return nil, err
	}
	rt.shutdownTracing = shutdown

	rt.Delivery, err = delivery.NewService(delivery.Options{
		Prefs: rt.Prefs,
		HTTP: telegram.NewHTTPClient(telegram.TransportConfig{
			ConnectTimeout: cfg.Telegram.ConnectTimeout,
			WriteTimeout:   cfg.Telegram.WriteTimeout,
			ReadTimeout:    cfg.Telegram.ReadTimeout,
		}),
		BaseURL:     cfg.Telegram.APIURL,
		MaxFileSize: int64(cfg.Telegram.MaxFileSize),
		Messages:    delivery.NewCatalog(cfg.Messages),
		Logger:      rt.Logger.With("component", "delivery"),
		Tracer:      tp.Tracer(tracerName),
		Metrics:     delivery.NewMetrics(rt.Registry),
		History:     rt.History,
	})
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	return rt, nil
}

// SyncSecrets refreshes the redactor with the stored bot token and the
// gateway credentials.
func (rt *Runtime) SyncSecrets() {
	extra := rt.Config.Gateway.Auth.Secrets()
	for _, wh := range rt.Config.Gateway.Webhooks {
		extra = append(extra, wh.Secret)
	}
	rt.Redactor.SyncPreferences(rt.Prefs, extra...)
}

// ReloadPreferences re-reads the preferences from the database, picking up
// changes made by other processes.
func (rt *Runtime) ReloadPreferences(ctx context.Context) error {
	if err := rt.Prefs.Reload(ctx); err != nil {
		return err
	}
	rt.SyncSecrets()
	return nil
}

// Close flushes traces and closes the database.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.shutdownTracing != nil {
		if err := rt.shutdownTracing(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracing shutdown: %w", err))
		}
	}
	if rt.DB != nil {
		if err := rt.DB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// newLogger builds the process logger. Every record passes through the
// redactor before it is written.
func newLogger(w io.Writer, cfg config.LogConfig, redactor *security.Redactor) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var inner slog.Handler
	if cfg.Format == "json" {
		inner = slog.NewJSONHandler(w, opts)
	} else {
		inner = slog.NewTextHandler(w, opts)
	}
	return slog.New(security.NewRedactingHandler(inner, redactor))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}
