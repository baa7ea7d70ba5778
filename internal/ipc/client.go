package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/wallboard/internal/config"
	"github.com/1broseidon/wallboard/internal/runtimepath"
	"github.com/1broseidon/wallboard/internal/settings"
)

// ErrDaemon wraps error responses returned by the daemon.
var ErrDaemon = errors.New("daemon error")

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
	// longTimeout applies to commands that reconcile windows.
	longTimeout time.Duration
}

var _ settings.Operations = (*Client)(nil)

// NewClient creates a client for the default socket path.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientWithSocket(socketPath)
}

// NewClientWithSocket creates a client for socketPath.
func NewClientWithSocket(socketPath string) *Client {
	return &Client{
		socketPath:  socketPath,
		timeout:     5 * time.Second,
		longTimeout: requestTimeout,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(ctx context.Context, req *Request, timeout time.Duration) (*Response, error) {
	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetDeadline(deadline)

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	respData, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Status == StatusError {
		return nil, fmt.Errorf("%w: %s", ErrDaemon, resp.Error)
	}
	return &resp, nil
}

func (c *Client) call(ctx context.Context, cmd CommandType, payload any, timeout time.Duration, out any) error {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		req.Payload = data
	}

	resp, err := c.sendRequest(ctx, req, timeout)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// GetConfig fetches the active config.
func (c *Client) GetConfig(ctx context.Context) (*config.Config, error) {
	var cfg config.Config
	if err := c.call(ctx, CommandGetConfig, nil, c.timeout, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig validates, persists and applies cfg in the daemon.
func (c *Client) SaveConfig(ctx context.Context, cfg *config.Config) error {
	return c.call(ctx, CommandSaveConfig, cfg, c.longTimeout, nil)
}

// ListMonitors lists displays in host enumeration order.
func (c *Client) ListMonitors(ctx context.Context) ([]settings.MonitorInfo, error) {
	var monitors []settings.MonitorInfo
	err := c.call(ctx, CommandListMonitors, nil, c.timeout, &monitors)
	return monitors, err
}

// Apply reconciles the active config.
func (c *Client) Apply(ctx context.Context) error {
	return c.call(ctx, CommandApply, nil, c.longTimeout, nil)
}

// Rebuild closes and recreates every view window.
func (c *Client) Rebuild(ctx context.Context) error {
	return c.call(ctx, CommandRebuild, nil, c.longTimeout, nil)
}

// ToggleVisibility conceals or restores the view windows.
func (c *Client) ToggleVisibility(ctx context.Context) (bool, error) {
	var data ToggleData
	err := c.call(ctx, CommandToggle, nil, c.timeout, &data)
	return data.Concealed, err
}

// PlanConfig resolves display and tiles for cfg, or the active config when
// cfg is nil.
func (c *Client) PlanConfig(ctx context.Context, cfg *config.Config) (settings.Plan, error) {
	var plan settings.Plan
	var payload any
	if cfg != nil {
		payload = cfg
	}
	err := c.call(ctx, CommandPlan, payload, c.timeout, &plan)
	return plan, err
}

// Status retrieves daemon status.
func (c *Client) Status(ctx context.Context) (settings.Status, error) {
	var st settings.Status
	err := c.call(ctx, CommandStatus, nil, c.timeout, &st)
	return st, err
}
