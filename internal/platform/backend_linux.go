//go:build linux

package platform

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/1broseidon/wallboard/internal/browser"
	"github.com/1broseidon/wallboard/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// X11 properties the host stores on every view window it adopts.
const (
	propLabel   = "_WALLBOARD_LABEL"
	propProfile = "_WALLBOARD_PROFILE"
	propURL     = "_WALLBOARD_URL"
	propTarget  = "_WALLBOARD_TARGET"
)

// targetTimeout bounds how long adoption waits for the DevTools page of a
// new window.
const targetTimeout = 5 * time.Second

// X11Host renders views as app-mode browser windows on an X11 display.
// All X requests go through mu.
type X11Host struct {
	mu       sync.Mutex
	conn     *x11.Connection
	launcher *browser.Launcher
	logger   *slog.Logger
}

var _ Host = (*X11Host)(nil)

// NewX11Host wraps an existing X11 connection.
func NewX11Host(conn *x11.Connection, launcher *browser.Launcher, logger *slog.Logger) *X11Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &X11Host{conn: conn, launcher: launcher, logger: logger}
}

// OpenHost connects to $DISPLAY and returns the native host.
func OpenHost(launcher *browser.Launcher, logger *slog.Logger) (NativeHost, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return NewX11Host(conn, launcher, logger), nil
}

// Disconnect closes the underlying X11 connection.
func (h *X11Host) Disconnect() {
	if h != nil && h.conn != nil {
		h.conn.Close()
	}
}

// EventLoop runs the X11 event loop (blocking) until Quit.
func (h *X11Host) EventLoop() {
	h.conn.EventLoop()
}

// Quit stops EventLoop.
func (h *X11Host) Quit() {
	h.conn.Quit()
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (h *X11Host) XUtil() *xgbutil.XUtil {
	if h == nil || h.conn == nil {
		return nil
	}
	return h.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (h *X11Host) RootWindow() xproto.Window {
	if h == nil || h.conn == nil {
		return 0
	}
	return h.conn.Root
}

func (h *X11Host) Displays() ([]Display, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	monitors, err := h.conn.GetMonitors()
	if err != nil {
		return nil, err
	}
	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, displayFromMonitor(m))
	}
	return displays, nil
}

func (h *X11Host) PrimaryDisplay() (*Display, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	monitors, err := h.conn.GetMonitors()
	if err != nil {
		return nil, err
	}
	m := x11.PrimaryMonitor(monitors)
	if m == nil {
		return nil, nil
	}
	d := displayFromMonitor(*m)
	return &d, nil
}

func (h *X11Host) LookupView(label string) (View, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, err := h.conn.ClientWindows()
	if err != nil {
		return nil, false, err
	}
	for _, win := range clients {
		if got, err := h.conn.StringProperty(win, propLabel); err == nil && got == label {
			return h.viewLocked(win, label), true, nil
		}
	}
	return nil, false, nil
}

func (h *X11Host) Views() ([]View, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, err := h.conn.ClientWindows()
	if err != nil {
		return nil, err
	}
	var views []View
	for _, win := range clients {
		label, err := h.conn.StringProperty(win, propLabel)
		if err != nil || label == "" {
			continue
		}
		views = append(views, h.viewLocked(win, label))
	}
	return views, nil
}

func (h *X11Host) viewLocked(win xproto.Window, label string) *x11View {
	profile, _ := h.conn.StringProperty(win, propProfile)
	target, _ := h.conn.StringProperty(win, propTarget)
	return &x11View{host: h, win: win, label: label, profile: profile, target: target}
}

// CreateView launches a browser for opts and adopts the first new client
// window it maps.
func (h *X11Host) CreateView(opts WindowOptions) (View, error) {
	if h.launcher == nil {
		return nil, fmt.Errorf("no browser configured")
	}
	if opts.URL == nil {
		return nil, fmt.Errorf("view %s has no url", opts.Label)
	}

	existing, err := h.clientSet()
	if err != nil {
		return nil, err
	}
	owners, claimed, err := h.profileOwners(opts.StoragePath)
	if err != nil {
		return nil, err
	}

	proc, err := h.launcher.Launch(browser.LaunchOptions{
		URL:        opts.URL.String(),
		ProfileDir: opts.StoragePath,
		Class:      opts.Label,
		X:          opts.Bounds.X,
		Y:          opts.Bounds.Y,
		Width:      int(opts.Bounds.Width),
		Height:     int(opts.Bounds.Height),
	})
	if err != nil {
		return nil, err
	}

	a := newAdoption(existing, proc.PID, owners, opts.Label)
	win, err := a.wait(h.conn, &h.mu, proc.Done(), h.launcher.Timeout())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), targetTimeout)
	page, err := browser.AwaitTarget(ctx, opts.StoragePath, opts.URL.String(), claimed)
	cancel()
	if err != nil {
		h.logger.Warn("no devtools page for view", "label", opts.Label, "error", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for name, value := range map[string]string{
		propLabel:   opts.Label,
		propProfile: opts.StoragePath,
		propURL:     opts.URL.String(),
		propTarget:  page.ID,
	} {
		if err := h.conn.SetStringProperty(win, name, value); err != nil {
			return nil, err
		}
	}
	if opts.Title != "" {
		if err := h.conn.SetTitle(win, opts.Title); err != nil {
			h.logger.Debug("failed to set title", "label", opts.Label, "error", err)
		}
	}
	if !opts.Decorated {
		if err := h.conn.RemoveDecorations(win); err != nil {
			h.logger.Warn("failed to remove decorations", "label", opts.Label, "error", err)
		}
	}
	if !opts.Resizable {
		if err := h.conn.PinSize(win, int(opts.Bounds.Width), int(opts.Bounds.Height)); err != nil {
			h.logger.Warn("failed to pin size", "label", opts.Label, "error", err)
		}
	}
	if opts.AlwaysOnTop {
		if err := h.conn.KeepAbove(win); err != nil {
			h.logger.Warn("failed to keep window above", "label", opts.Label, "error", err)
		}
	}

	h.logger.Debug("view window adopted", "label", opts.Label, "window", uint32(win), "pid", proc.PID, "target", page.ID, "shared", len(owners) > 0)
	return &x11View{host: h, win: win, label: opts.Label, profile: opts.StoragePath, target: page.ID, resizable: opts.Resizable}, nil
}

func (h *X11Host) clientSet() (map[xproto.Window]bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, err := h.conn.ClientWindows()
	if err != nil {
		return nil, err
	}
	set := make(map[xproto.Window]bool, len(clients))
	for _, w := range clients {
		set[w] = true
	}
	return set, nil
}

// profileOwners returns the browser pids and DevTools page ids of the live
// views stored under profile.
func (h *X11Host) profileOwners(profile string) (map[int]bool, map[string]bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, err := h.conn.ClientWindows()
	if err != nil {
		return nil, nil, err
	}
	pids := make(map[int]bool)
	targets := make(map[string]bool)
	for _, win := range clients {
		if got, err := h.conn.StringProperty(win, propProfile); err != nil || got != profile {
			continue
		}
		if pid := h.conn.WindowPID(win); pid != 0 {
			pids[pid] = true
		}
		if id, err := h.conn.StringProperty(win, propTarget); err == nil && id != "" {
			targets[id] = true
		}
	}
	return pids, targets, nil
}

func displayFromMonitor(m x11.Monitor) Display {
	return Display{
		Name: m.Name,
		Bounds: Rect{
			X:      m.X,
			Y:      m.Y,
			Width:  uint(m.Width),
			Height: uint(m.Height),
		},
	}
}

// x11View is a browser window tagged with propLabel.
type x11View struct {
	host      *X11Host
	win       xproto.Window
	label     string
	profile   string
	target    string // DevTools page id; several views may share one browser
	resizable bool
}

func (v *x11View) Label() string { return v.label }

func (v *x11View) URL() *url.URL {
	v.host.mu.Lock()
	raw, err := v.host.conn.StringProperty(v.win, propURL)
	v.host.mu.Unlock()
	if err != nil || raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	return u
}

func (v *x11View) Navigate(u *url.URL) error {
	if v.profile == "" {
		return fmt.Errorf("window %s has no profile", v.label)
	}
	ref := browser.PageRef{ID: v.target}
	if current := v.URL(); current != nil {
		ref.URL = current.String()
	}

	ctx, cancel := context.WithTimeout(context.Background(), v.host.navigateTimeout())
	defer cancel()
	id, err := browser.Navigate(ctx, v.profile, ref, u.String())
	if err != nil {
		return fmt.Errorf("window %s: %w", v.label, err)
	}

	v.host.mu.Lock()
	defer v.host.mu.Unlock()
	if id != v.target {
		if err := v.host.conn.SetStringProperty(v.win, propTarget, id); err != nil {
			return err
		}
		v.target = id
	}
	return v.host.conn.SetStringProperty(v.win, propURL, u.String())
}

func (v *x11View) SetPosition(x, y int) error {
	v.host.mu.Lock()
	defer v.host.mu.Unlock()
	return v.host.conn.MoveWindow(v.win, x, y)
}

func (v *x11View) SetSize(width, height uint) error {
	v.host.mu.Lock()
	defer v.host.mu.Unlock()
	if !v.resizable {
		// Size hints pin the window; widen them to the new tile first.
		if err := v.host.conn.PinSize(v.win, int(width), int(height)); err != nil {
			return err
		}
	}
	return v.host.conn.ResizeWindow(v.win, int(width), int(height))
}

func (v *x11View) Show() error {
	v.host.mu.Lock()
	defer v.host.mu.Unlock()
	if err := v.host.conn.MapWindow(v.win); err != nil {
		return err
	}
	return v.host.conn.FocusWindow(v.win)
}

func (v *x11View) Minimize() error {
	v.host.mu.Lock()
	defer v.host.mu.Unlock()
	return v.host.conn.MinimizeWindow(v.win)
}

func (v *x11View) Hide() error {
	v.host.mu.Lock()
	defer v.host.mu.Unlock()
	return v.host.conn.UnmapWindow(v.win)
}

// Close requests a graceful close and waits for the window to leave the
// client list.
func (v *x11View) Close() error {
	v.host.mu.Lock()
	err := v.host.conn.RequestClose(v.win)
	v.host.mu.Unlock()
	if err != nil {
		return err
	}

	timeout := v.host.navigateTimeout()
	deadline := time.Now().Add(timeout)
	for {
		v.host.mu.Lock()
		present, err := v.host.conn.HasClient(v.win)
		v.host.mu.Unlock()
		if err != nil {
			return err
		}
		if !present {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("window %s still open after %s", v.label, timeout)
		}
		time.Sleep(pollInterval)
	}
}

func (h *X11Host) navigateTimeout() time.Duration {
	if h.launcher == nil {
		return 10 * time.Second
	}
	return h.launcher.Timeout()
}
