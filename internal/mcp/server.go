package mcp

import (
	"context"
	"fmt"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/quack/internal/ipc"
)

const (
	ServerName    = "quack"
	ServerVersion = "0.1.0"
)

// Daemon is the subset of the IPC client the tools forward to.
type Daemon interface {
	Follow() error
	Pin() error
	StartWatch() error
	CloseOnboarding() error
	GetStatus() (*ipc.StatusData, error)
}

var _ Daemon = (*ipc.Client)(nil)

// Server is the MCP server exposing the widget operations as tools.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
	logger    *slog.Logger
}

// NewServer creates a new MCP server that forwards to daemon.
func NewServer(daemon Daemon, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{daemon: daemon, logger: logger}

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
		Name:        "follow_magic_dot",
		Description: "Shrink the quack widget into a small dot that follows the mouse cursor. Follow mode ends when the cursor reaches the dot; the widget then expands and emits exit_follow_mode and onboarding_done.",
	}, s.handleFollow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "pin_magic_dot",
		Description: "Dock the quack widget at the top-center of its current monitor.",
	}, s.handlePin)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "start_window_watch",
		Description: "Start polling the foreground application once per second and emit active_window_changed whenever it changes. Every call starts another watcher.",
	}, s.handleStartWatch)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_onboarding_window",
		Description: "Close the onboarding host window.",
	}, s.handleCloseOnboarding)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "dot_status",
		Description: "Report the widget's follow state, whether an animation holds the widget, the number of running window watchers and the daemon uptime.",
	}, s.handleStatus)
}

func (s *Server) forward(name string, call func() error) (*mcpsdk.CallToolResult, CommandOutput, error) {
	if err := call(); err != nil {
		s.logger.Warn("MCP tool failed", "tool", name, "error", err)
		return nil, CommandOutput{Command: name}, fmt.Errorf("%s: %w", name, err)
	}
	s.logger.Debug("MCP tool forwarded", "tool", name)
	return nil, CommandOutput{Command: name, Sent: true}, nil
}

func (s *Server) handleFollow(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, CommandOutput, error) {
	return s.forward("follow_magic_dot", s.daemon.Follow)
}

func (s *Server) handlePin(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, CommandOutput, error) {
	return s.forward("pin_magic_dot", s.daemon.Pin)
}

func (s *Server) handleStartWatch(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, CommandOutput, error) {
	return s.forward("start_window_watch", s.daemon.StartWatch)
}

func (s *Server) handleCloseOnboarding(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, CommandOutput, error) {
	return s.forward("close_onboarding_window", s.daemon.CloseOnboarding)
}

func (s *Server) handleStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	st, err := s.daemon.GetStatus()
	if err != nil {
		return nil, StatusOutput{}, fmt.Errorf("dot_status: %w", err)
	}
	return nil, StatusOutput{
		FollowState:   st.FollowState,
		Busy:          st.Busy,
		Watchers:      st.Watchers,
		Subscribers:   st.Subscribers,
		UptimeSeconds: st.UptimeSeconds,
	}, nil
}
