// Package app provides the shared entry point used by the sealdrop
// commands: building the runtime and running the long-lived service.
package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flemzord/sealdrop/internal/cron"
	"github.com/flemzord/sealdrop/internal/gateway"
	"github.com/flemzord/sealdrop/internal/reload"
)

const shutdownGrace = 15 * time.Second

// RunParams configures the service loop.
type RunParams struct {
	BuildParams

	// Commit and Date are injected at build time via ldflags.
	Commit string
	Date   string
}

// Run builds the runtime, starts the gateway and the scheduler, and blocks
// until a shutdown signal is received or ctx is cancelled. SIGHUP and
// commits from other processes reload the stored preferences.
func Run(ctx context.Context, params RunParams) error {
	rt, err := Build(ctx, params.BuildParams)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := rt.Close(closeCtx); err != nil {
			rt.Logger.Error("runtime close failed", "error", err)
		}
	}()

	rt.Logger.Info("starting sealdrop",
		"version", params.Version,
		"commit", params.Commit,
		"config", rt.ConfigPath,
		"database", rt.Config.Store.Path,
	)

	svc, err := NewService(rt)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := svc.Start(runCtx); err != nil {
		return err
	}

	watcher := reload.NewWatcher(reload.WatcherConfig{
		Version:      rt.DB.DataVersion,
		PollInterval: rt.Config.Store.WatchInterval,
	})
	watcher.Start(runCtx)
	defer watcher.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return svc.Stop(context.Background())
		case <-watcher.Events():
			rt.Logger.Info("preferences changed by another process, reloading")
			if err := rt.ReloadPreferences(runCtx); err != nil {
				rt.Logger.Error("preference reload failed", "error", err)
			}
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				rt.Logger.Info("SIGHUP received, reloading preferences")
				if err := rt.ReloadPreferences(runCtx); err != nil {
					rt.Logger.Error("preference reload failed", "error", err)
				}
				continue
			}
			rt.Logger.Info("shutdown signal received", "signal", sig.String())
			return svc.Stop(context.Background())
		}
	}
}

// Service is the long-running part of sealdrop: the HTTP gateway plus the
// background jobs.
type Service struct {
	rt        *Runtime
	gateway   *gateway.Gateway
	scheduler *cron.Scheduler
}

// NewService wires the gateway and the scheduled jobs to rt.
func NewService(rt *Runtime) (*Service, error) {
	cfg := rt.Config

	gw, err := gateway.New(cfg.Gateway, gateway.Options{
		Delivery:             rt.Delivery,
		Prefs:                rt.Prefs,
		History:              rt.History,
		Gatherer:             rt.Registry,
		Audit:                rt.Audit,
		Redactor:             rt.Redactor,
		Logger:               rt.Logger.With("component", "gateway"),
		ConfigView:           func() any { return rt.Config },
		OnPreferencesChanged: rt.SyncSecrets,
	})
	if err != nil {
		return nil, err
	}

	sched := cron.NewScheduler(rt.Logger.With("component", "cron"))
	if err := sched.RegisterJob(&cron.PruneJob{
		Store:        rt.History,
		Retention:    cfg.History.Retention,
		Logger:       rt.Logger,
		ScheduleExpr: cfg.History.PruneSchedule,
	}); err != nil {
		return nil, err
	}
	if cfg.Probe.Enabled {
		if err := sched.RegisterJob(&cron.ProbeJob{
			Prober:       rt.Delivery,
			Prefs:        rt.Prefs,
			Logger:       rt.Logger,
			ScheduleExpr: cfg.Probe.Schedule,
		}); err != nil {
			return nil, err
		}
	}

	return &Service{rt: rt, gateway: gw, scheduler: sched}, nil
}

// Start starts the scheduler and the gateway.
func (s *Service) Start(ctx context.Context) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return err
	}
	if err := s.gateway.Start(ctx); err != nil {
		_ = s.scheduler.Stop(ctx)
		return err
	}
	return nil
}

// Stop stops the gateway, then the scheduler.
func (s *Service) Stop(ctx context.Context) error {
	err := s.gateway.Stop(ctx)
	if serr := s.scheduler.Stop(ctx); err == nil {
		err = serr
	}
	s.rt.Logger.Info("shutdown complete")
	return err
}
