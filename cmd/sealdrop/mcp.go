package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/flemzord/sealdrop/internal/mcptools"
	"github.com/flemzord/sealdrop/pkg/app"
)

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve deliver_file and test_connection as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
				tools := mcptools.New(rt.Delivery, rt.History, rt.Logger.With("component", "mcp"))
				return tools.ServeStdio(ctx, version, os.Stdin, os.Stdout)
			})
		},
	}
}
