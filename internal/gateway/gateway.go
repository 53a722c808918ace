// Package gateway exposes the delivery service over HTTP: file deliveries,
// connectivity probes, preferences, history, health, Prometheus metrics and
// a WebSocket stream of upload progress.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/flemzord/sealdrop/internal/delivery"
	"github.com/flemzord/sealdrop/internal/history"
	"github.com/flemzord/sealdrop/internal/prefs"
	"github.com/flemzord/sealdrop/internal/security"
)

// Deliverer is the delivery service as seen by the gateway.
type Deliverer interface {
	Deliver(ctx context.Context, target delivery.UploadTarget, onProgress delivery.ProgressFunc) error
	AutoDeliver(ctx context.Context, target delivery.UploadTarget, onProgress delivery.ProgressFunc) (bool, error)
	TestConnection(ctx context.Context, token, chatID string) error
	TestConfigured(ctx context.Context) error
	LastProbe() (delivery.ProbeResult, bool)
	MaxFileSize() int64
}

// Options carries the gateway's dependencies.
type Options struct {
	Delivery Deliverer
	Prefs    prefs.Store
	History  history.Store
	Gatherer prometheus.Gatherer
	Audit    *security.AuditLogger
	Redactor *security.Redactor
	Logger   *slog.Logger

	// ConfigView returns the effective configuration for GET /api/config.
	ConfigView func() any

	// OnPreferencesChanged is called after a successful preferences update.
	OnPreferencesChanged func()

	NewID func() string
}

// Gateway is the HTTP front of the delivery service.
type Gateway struct {
	config    Config
	opts      Options
	logger    *slog.Logger
	settings  *prefs.Settings
	limiter   *security.RateLimiter
	validate  *validator.Validate
	hub       *ProgressHub
	metrics   *Metrics
	webhooks  *WebhookDispatcher
	server    *http.Server
	startedAt time.Time
}

// New creates a gateway. cfg is completed with defaults and validated.
func New(cfg Config, opts Options) (*Gateway, error) {
	cfg = WithDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Delivery == nil || opts.Prefs == nil || opts.History == nil {
		return nil, errors.New("gateway: delivery, prefs and history are required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Redactor == nil {
		opts.Redactor = security.NewRedactor()
	}

	g := &Gateway{
		config:    cfg,
		opts:      opts,
		logger:    opts.Logger,
		settings:  prefs.NewSettings(opts.Prefs),
		limiter:   security.NewRateLimiter(*cfg.RateLimit),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		hub:       NewProgressHub(),
		metrics:   &Metrics{},
		webhooks:  NewWebhookDispatcher(opts.Logger),
		startedAt: time.Now(),
	}
	for source, wh := range cfg.Webhooks {
		g.webhooks.Register(source, downloadWebhook{g: g}, wh.Secret)
		g.logger.Info("webhook source configured", "source", source, "signed", wh.Secret != "")
	}
	if !cfg.Auth.IsConfigured() {
		g.logger.Warn("gateway API is unauthenticated; it is only reachable on loopback", "bind", cfg.Bind)
	}
	return g, nil
}

// Handler returns the gateway's HTTP handler.
func (g *Gateway) Handler() http.Handler {
	return g.buildRouter()
}

// Progress returns the hub that broadcasts upload progress.
func (g *Gateway) Progress() *ProgressHub {
	return g.hub
}

// Start listens on the configured address and serves in the background.
func (g *Gateway) Start(ctx context.Context) error {
	g.startedAt = time.Now()
	g.server = &http.Server{
		Addr:              g.config.Bind,
		Handler:           g.Handler(),
		ReadHeaderTimeout: g.config.ReadTimeout,
		ReadTimeout:       g.config.ReadTimeout,
		WriteTimeout:      g.config.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", g.config.Bind)
	if err != nil {
		return fmt.Errorf("gateway: listen failed: %w", err)
	}

	go func() {
		g.logger.Info("gateway listening", "addr", ln.Addr().String())
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()
	return nil
}

// Stop shuts the server down within the configured timeout and closes
// progress subscribers.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	g.hub.Close()
	return g.server.Shutdown(shutdownCtx)
}

func (g *Gateway) newID() string {
	if g.opts.NewID != nil {
		return g.opts.NewID()
	}
	return newDeliveryID()
}
