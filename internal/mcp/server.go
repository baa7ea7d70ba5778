// Package mcp exposes the wallboard settings operations as MCP tools over
// stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/wallboard/internal/settings"
)

const (
	ServerName    = "wallboard"
	ServerVersion = "0.1.0"
)

// Server is the MCP server for wallboard control.
type Server struct {
	mcpServer *mcpsdk.Server
	ops       settings.Operations
}

// NewServer creates an MCP server driving ops, usually an IPC client talking
// to the running daemon.
func NewServer(ops settings.Operations) *Server {
	s := &Server{ops: ops}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_config",
		Description: "Return the active wallboard config: monitor selector and the four views (top-left, top-right, bottom-left, bottom-right) with their URLs and storage profiles.",
	}, s.handleGetConfig)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "save_config",
		Description: "Replace the wallboard config with a full JSON document, persist it and apply it. Every view URL must start with http:// or https://. A rejected config changes nothing.",
	}, s.handleSaveConfig)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_view",
		Description: "Change the URL (and optionally the storage profile) of one view by id, then save and apply the config.",
	}, s.handleSetView)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_monitor",
		Description: "Choose the target monitor: mode primary, index (value is a zero-based index in host order) or name_contains (value is a case-insensitive substring). Saves and applies the config.",
	}, s.handleSetMonitor)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_monitors",
		Description: "List monitors in host enumeration order with index, name, primary flag, position and size.",
	}, s.handleListMonitors)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "plan_layout",
		Description: "Show which monitor and tile rectangles the active config resolves to, without touching any window.",
	}, s.handlePlanLayout)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "apply_config",
		Description: "Reconcile the view windows with the active config now. Existing windows are moved and navigated in place; missing ones are created.",
	}, s.handleApply)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "rebuild_views",
		Description: "Close every view window and recreate all four from the active config.",
	}, s.handleRebuild)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toggle_visibility",
		Description: "Hide all view windows, or show them again if they are hidden. Returns the new concealed state.",
	}, s.handleToggle)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report daemon uptime, the last reconcile result, the concealed flag and the live view windows.",
	}, s.handleStatus)
}

func jsonResult(v any) (*mcpsdk.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return textResult(string(data)), nil
}

func textResult(text string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: text},
		},
	}
}
