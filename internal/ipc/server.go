package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/wallboard/internal/config"
	"github.com/1broseidon/wallboard/internal/settings"
)

// requestTimeout bounds a single command on the server. Apply and rebuild
// may launch four browser windows.
const requestTimeout = 2 * time.Minute

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	ops          settings.Operations
	logger       *slog.Logger
	shuttingDown bool
	shutdownMu   sync.Mutex
	wg           sync.WaitGroup
}

// NewServer creates a server for socketPath. A stale socket file is removed.
func NewServer(socketPath string, ops settings.Operations, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	os.Remove(socketPath)
	return &Server{socketPath: socketPath, ops: ops, logger: logger}
}

// SocketPath returns the listening socket path.
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

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			stopping := s.shuttingDown
			s.shutdownMu.Unlock()
			if stopping || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection serves one JSON-line request on conn.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	data, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.write(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	s.write(conn, s.handleCommand(ctx, req))
}

func (s *Server) write(conn net.Conn, resp *Response) {
	data, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err)
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		s.logger.Warn("failed to send response", "error", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	s.logger.Debug("IPC request", "command", req.Command)

	switch req.Command {
	case CommandGetConfig:
		cfg, err := s.ops.GetConfig(ctx)
		return respond(cfg, err)

	case CommandSaveConfig:
		cfg, err := decodeConfig(req.Payload)
		if err != nil {
			return NewErrorResponse(err.Error())
		}
		return respond(nil, s.ops.SaveConfig(ctx, cfg))

	case CommandListMonitors:
		monitors, err := s.ops.ListMonitors(ctx)
		return respond(monitors, err)

	case CommandApply:
		return respond(nil, s.ops.Apply(ctx))

	case CommandRebuild:
		return respond(nil, s.ops.Rebuild(ctx))

	case CommandToggle:
		concealed, err := s.ops.ToggleVisibility(ctx)
		return respond(ToggleData{Concealed: concealed}, err)

	case CommandStatus:
		st, err := s.ops.Status(ctx)
		return respond(st, err)

	case CommandPlan:
		var cfg *config.Config
		if len(req.Payload) > 0 && string(req.Payload) != "null" {
			c, err := decodeConfig(req.Payload)
			if err != nil {
				return NewErrorResponse(err.Error())
			}
			cfg = c
		}
		plan, err := s.ops.PlanConfig(ctx, cfg)
		return respond(plan, err)

	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func decodeConfig(payload json.RawMessage) (*config.Config, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("config payload is required")
	}
	var cfg config.Config
	if err := json.Unmarshal(payload, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func respond(data any, err error) *Response {
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, merr := NewOKResponse(data)
	if merr != nil {
		return NewErrorResponse(merr.Error())
	}
	return resp
}

// Stop closes the listener, waits for in-flight requests and removes the
// socket file.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
}
