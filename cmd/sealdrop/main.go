// Package main is the entry point for the sealdrop CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/flemzord/sealdrop/pkg/app"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.Red.Sprintf("❌ %v", err))
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sealdrop",
		Short:         "Deliver finished downloads to a Telegram chat",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	root.PersistentFlags().String("log-level", "", "Override the configured log level (debug, info, warn, error)")

	root.AddCommand(
		versionCmd(),
		serveCmd(),
		sendCmd(),
		testCmd(),
		setupCmd(),
		prefsCmd(),
		historyCmd(),
		configCmd(),
		serviceCmd(),
		mcpCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sealdrop %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway and the scheduled jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), app.RunParams{
				BuildParams: buildParams(cmd, ""),
				Commit:      commit,
				Date:        date,
			})
		},
	}
}

// buildParams reads the persistent flags. One-shot commands pass a quieter
// default log level that --log-level still overrides.
func buildParams(cmd *cobra.Command, defaultLevel string) app.BuildParams {
	cfgPath, _ := cmd.Flags().GetString("config")
	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		level = defaultLevel
	}
	return app.BuildParams{ConfigPath: cfgPath, Version: version, LogLevel: level}
}

// withRuntime builds the runtime, runs fn with a context cancelled on
// interrupt, and closes the runtime.
func withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *app.Runtime) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Build(ctx, buildParams(cmd, "warn"))
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close(context.Background()) }()
	return fn(ctx, rt)
}
