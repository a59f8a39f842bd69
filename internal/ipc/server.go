package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/quack/internal/dot"
	"github.com/1broseidon/quack/internal/platform"
	"github.com/1broseidon/quack/internal/runtimepath"
	"github.com/1broseidon/quack/internal/signals"
)

// requestTimeout bounds how long a client may take to send its request line.
const requestTimeout = 5 * time.Second

// Controller is the widget surface exposed over IPC.
type Controller interface {
	Follow(ctx context.Context) error
	Pin(ctx context.Context) error
	StartWatch() error
	CloseOnboarding() error
	Status() dot.Status
	Displays() ([]platform.Display, error)
}

// Subscriber hands out signal streams.
type Subscriber interface {
	Subscribe() (<-chan signals.Signal, func())
	Subscribers() int
}

// Server handles IPC requests from clients
type Server struct {
	socketPath string
	listener   net.Listener
	ctrl       Controller
	bus        Subscriber
	logger     *slog.Logger
	startTime  time.Time
	missing    func() []string

	ctx    context.Context
	cancel context.CancelFunc
	conns  sync.WaitGroup

	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server. An empty socketPath uses the default
// runtime location.
func NewServer(socketPath string, ctrl Controller, bus Subscriber, logger *slog.Logger) (*Server, error) {
	if socketPath == "" {
		p, err := runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
		socketPath = p
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		socketPath: socketPath,
		ctrl:       ctrl,
		bus:        bus,
		logger:     logger,
		startTime:  time.Now(),
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// SetMissingWindows installs the source of GET_STATUS missing_windows.
// It must be called before Start.
func (s *Server) SetMissingWindows(fn func() []string) {
	s.missing = fn
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	go s.acceptLoop()

	return nil
}

func (s *Server) stopping() bool {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()
	return s.shuttingDown
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.stopping() {
				return
			}
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		s.shutdownMu.Lock()
		if s.shuttingDown {
			s.shutdownMu.Unlock()
			conn.Close()
			return
		}
		s.conns.Add(1)
		s.shutdownMu.Unlock()

		go func() {
			defer s.conns.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(requestTimeout))
	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}
	conn.SetReadDeadline(time.Time{})

	req, err := ParseRequest(data)
	if err != nil {
		s.writeResponse(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	if req.Command == CommandSubscribe {
		s.streamSignals(conn, reader)
		return
	}

	s.writeResponse(conn, s.handleCommand(req))
}

func (s *Server) writeResponse(conn net.Conn, resp *Response) bool {
	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err)
		return false
	}
	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn("failed to send response", "error", err)
		return false
	}
	return true
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandFollow:
		return s.fireAndForget(req.Command, func() error { return s.ctrl.Follow(s.ctx) })
	case CommandPin:
		return s.fireAndForget(req.Command, func() error { return s.ctrl.Pin(s.ctx) })
	case CommandStartWatch:
		return s.fireAndForget(req.Command, s.ctrl.StartWatch)
	case CommandCloseOnboarding:
		return s.fireAndForget(req.Command, s.ctrl.CloseOnboarding)
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandGetMonitors:
		return s.handleGetMonitors()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// fireAndForget runs a boundary operation. The client always gets OK; a
// failure is only logged.
func (s *Server) fireAndForget(cmd CommandType, op func() error) *Response {
	s.logger.Debug("IPC command received", "command", cmd)
	if err := op(); err != nil {
		s.logger.Warn("IPC command failed", "command", cmd, "error", err)
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

// handleGetStatus returns current daemon status
func (s *Server) handleGetStatus() *Response {
	st := s.ctrl.Status()
	status := StatusData{
		FollowState:   st.FollowState,
		Busy:          st.Busy,
		Watchers:      st.Watchers,
		Subscribers:   s.bus.Subscribers(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
		ActiveWindow:  st.ActiveWindow,
	}
	if s.missing != nil {
		status.MissingWindows = s.missing()
	}

	resp, _ := NewOKResponse(status)
	return resp
}

// handleGetMonitors returns information about all monitors
func (s *Server) handleGetMonitors() *Response {
	displays, err := s.ctrl.Displays()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get monitors: %v", err))
	}

	monitorInfos := make([]MonitorInfo, len(displays))
	for i, d := range displays {
		monitorInfos[i] = MonitorInfo{
			ID:     d.ID,
			Name:   d.Name,
			X:      d.Bounds.X,
			Y:      d.Bounds.Y,
			Width:  d.Bounds.Width,
			Height: d.Bounds.Height,
		}
	}

	resp, _ := NewOKResponse(MonitorsData{Monitors: monitorInfos})
	return resp
}

// streamSignals subscribes before acknowledging so no signal emitted after
// the OK is missed, then writes signals until the client hangs up or the
// server stops.
func (s *Server) streamSignals(conn net.Conn, reader *bufio.Reader) {
	ch, unsubscribe := s.bus.Subscribe()
	defer unsubscribe()

	resp, _ := NewOKResponse(nil)
	if !s.writeResponse(conn, resp) {
		return
	}
	s.logger.Debug("signal subscriber attached")

	gone := make(chan struct{})
	go func() {
		io.Copy(io.Discard, reader)
		close(gone)
	}()

	enc := json.NewEncoder(conn)
	for {
		select {
		case sig, ok := <-ch:
			if !ok {
				return
			}
			if err := enc.Encode(sig); err != nil {
				s.logger.Debug("signal subscriber write failed", "error", err)
				return
			}
		case <-gone:
			s.logger.Debug("signal subscriber detached")
			return
		case <-s.ctx.Done():
			return
		}
	}
}

// Stop gracefully shuts down the IPC server and waits for open connections.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	s.cancel()
	if s.listener != nil {
		s.listener.Close()
	}
	s.conns.Wait()
	os.Remove(s.socketPath)
}
