package main

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/flemzord/sealdrop/pkg/app"
)

var serviceActions = []string{"install", "uninstall", "start", "stop", "restart"}

// program adapts app.Run to the service manager's start/stop callbacks.
type program struct {
	params app.RunParams

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan error
}

func (p *program) Start(_ service.Service) error {
	ctx, cancel := context.WithCancel(context.Background())
	p.mu.Lock()
	p.cancel = cancel
	p.done = make(chan error, 1)
	p.mu.Unlock()

	go func() { p.done <- app.Run(ctx, p.params) }()
	return nil
}

func (p *program) Stop(_ service.Service) error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	return <-done
}

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "service <install|uninstall|start|stop|restart|status|run>",
		Short:     "Manage sealdrop as a system service",
		Args:      cobra.ExactArgs(1),
		ValidArgs: append(slices.Clone(serviceActions), "status", "run"),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := app.RunParams{BuildParams: buildParams(cmd, ""), Commit: commit, Date: date}
			svc, err := newSystemService(params)
			if err != nil {
				return err
			}

			action := args[0]
			switch {
			case action == "run":
				return svc.Run()
			case action == "status":
				status, err := svc.Status()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), statusText(status))
				return nil
			case slices.Contains(serviceActions, action):
				if err := service.Control(svc, action); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "service %s: ok\n", action)
				return nil
			default:
				return fmt.Errorf("unknown service action %q", action)
			}
		},
	}
	return cmd
}

func newSystemService(params app.RunParams) (service.Service, error) {
	args := []string{"service", "run"}
	if params.ConfigPath != "" {
		abs, err := filepath.Abs(params.ConfigPath)
		if err != nil {
			return nil, err
		}
		params.ConfigPath = abs
		args = append(args, "--config", abs)
	}

	return service.New(&program{params: params}, &service.Config{
		Name:        "sealdrop",
		DisplayName: "sealdrop",
		Description: "Delivers finished downloads to a Telegram chat.",
		Arguments:   args,
	})
}

func statusText(s service.Status) string {
	switch s {
	case service.StatusRunning:
		return "running"
	case service.StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
