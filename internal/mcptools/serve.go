package mcptools

import (
	"context"
	"io"

	"github.com/mark3labs/mcp-go/server"
)

// ServeStdio serves the tools over in and out until ctx is cancelled or in
// is closed.
func (t *Tools) ServeStdio(ctx context.Context, version string, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(t.NewServer(version)).Listen(ctx, in, out)
}
