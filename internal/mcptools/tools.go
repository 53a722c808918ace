// Package mcptools exposes the delivery service as Model Context Protocol
// tools so assistants can send files to the configured Telegram chat.
package mcptools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/docker/go-units"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/flemzord/sealdrop/internal/delivery"
	"github.com/flemzord/sealdrop/internal/history"
)

// Tool names.
const (
	ToolDeliverFile      = "deliver_file"
	ToolTestConnection   = "test_connection"
	ToolRecentDeliveries = "recent_deliveries"
)

const maxRecent = 100

// Deliverer is the subset of the delivery service the tools call.
type Deliverer interface {
	Deliver(ctx context.Context, target delivery.UploadTarget, onProgress delivery.ProgressFunc) error
	TestConnection(ctx context.Context, token, chatID string) error
	TestConfigured(ctx context.Context) error
	MaxFileSize() int64
}

// Tools holds the tool handlers.
type Tools struct {
	delivery Deliverer
	history  history.Store
	logger   *slog.Logger
}

// New creates the tool handlers. history may be nil, in which case
// recent_deliveries is not registered.
func New(d Deliverer, h history.Store, logger *slog.Logger) *Tools {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Tools{delivery: d, history: h, logger: logger}
}

// NewServer returns an MCP server with every tool registered.
func (t *Tools) NewServer(version string) *server.MCPServer {
	s := server.NewMCPServer("sealdrop", version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.AddTool(mcp.NewTool(ToolDeliverFile,
		mcp.WithDescription(fmt.Sprintf(
			"Upload a local file to the configured Telegram chat. Videos and audio are sent as media, anything else as a document. Files above %s are refused.",
			units.BytesSize(float64(t.delivery.MaxFileSize())))),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute path of the file to send")),
		mcp.WithString("title", mcp.Description("Display title used in logs and history")),
		mcp.WithNumber("notification_id", mcp.Description("Caller-side notification identifier")),
	), t.DeliverFile)

	s.AddTool(mcp.NewTool(ToolTestConnection,
		mcp.WithDescription("Check the bot token and send a test message to the chat. Without arguments the stored credentials are checked."),
		mcp.WithString("bot_token", mcp.Description("Bot token to test instead of the stored one")),
		mcp.WithString("chat_id", mcp.Description("Chat id to test instead of the stored one")),
	), t.TestConnection)

	if t.history != nil {
		s.AddTool(mcp.NewTool(ToolRecentDeliveries,
			mcp.WithDescription("List the most recent delivery attempts, newest first."),
			mcp.WithNumber("limit", mcp.Description("Maximum number of records (default 10)")),
		), t.RecentDeliveries)
	}
	return s
}

// DeliverFile handles the deliver_file tool.
func (t *Tools) DeliverFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target := delivery.UploadTarget{
		Path:           path,
		Title:          req.GetString("title", ""),
		NotificationID: req.GetInt("notification_id", 0),
	}

	err = t.delivery.Deliver(ctx, target, progressNotifier(ctx, req))
	if err != nil {
		t.logger.Info("mcp delivery failed", "path", path, "error", err)
		return toolError(err), nil
	}
	return mcp.NewToolResultText("Delivered " + path), nil
}

// TestConnection handles the test_connection tool.
func (t *Tools) TestConnection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token := strings.TrimSpace(req.GetString("bot_token", ""))
	chatID := strings.TrimSpace(req.GetString("chat_id", ""))

	var err error
	switch {
	case token == "" && chatID == "":
		err = t.delivery.TestConfigured(ctx)
	case token == "" || chatID == "":
		return mcp.NewToolResultError("bot_token and chat_id must be given together"), nil
	default:
		err = t.delivery.TestConnection(ctx, token, chatID)
	}
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText("Connected: the test message was sent"), nil
}

// RecentDeliveries handles the recent_deliveries tool.
func (t *Tools) RecentDeliveries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 10)
	if limit <= 0 {
		return mcp.NewToolResultError("limit must be positive"), nil
	}
	recs, err := t.history.Recent(ctx, min(limit, maxRecent))
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	if len(recs) == 0 {
		return mcp.NewToolResultText("No deliveries yet"), nil
	}

	var b strings.Builder
	for _, r := range recs {
		fmt.Fprintf(&b, "%s  %-9s  %s", r.FinishedAt.Format("2006-01-02 15:04:05"), r.Outcome, r.Path)
		if r.Error != "" {
			fmt.Fprintf(&b, "  (%s)", r.Error)
		}
		b.WriteByte('\n')
	}
	return mcp.NewToolResultText(b.String()), nil
}

func toolError(err error) *mcp.CallToolResult {
	var derr *delivery.Error
	if errors.As(err, &derr) {
		return mcp.NewToolResultError(fmt.Sprintf("%s [%s]", derr.Message, derr.Kind))
	}
	return mcp.NewToolResultError(err.Error())
}

// progressNotifier forwards upload progress to the client when the request
// carries a progress token.
func progressNotifier(ctx context.Context, req mcp.CallToolRequest) delivery.ProgressFunc {
	if req.Params.Meta == nil || req.Params.Meta.ProgressToken == nil {
		return nil
	}
	srv := server.ServerFromContext(ctx)
	if srv == nil {
		return nil
	}
	token := req.Params.Meta.ProgressToken
	return func(percent int) {
		_ = srv.SendNotificationToClient(ctx, "notifications/progress", map[string]any{
			"progressToken": token,
			"progress":      percent,
			"total":         100,
		})
	}
}
