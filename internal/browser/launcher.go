// Package browser launches the app-mode browser windows that render each view
// and drives them over the DevTools protocol.
package browser

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/1broseidon/wallboard/internal/config"
)

// ErrNoBrowser is returned when no configured or default browser is on PATH.
var ErrNoBrowser = errors.New("no supported browser found on PATH")

// LaunchOptions describes one view window to open.
type LaunchOptions struct {
	URL        string
	ProfileDir string
	// Class becomes the window's WM_CLASS so the new window can be matched.
	Class  string
	X, Y   int
	Width  int
	Height int
}

// Process is a launched browser process.
type Process struct {
	PID  int
	done chan struct{}
}

// Done is closed once the process has exited. Chromium hands a launch off to
// an already running instance on the same profile and exits immediately.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Launcher starts browser processes.
type Launcher struct {
	command   string
	extraArgs []string
	timeout   time.Duration
	logger    *slog.Logger
}

// NewLauncher resolves the browser command from settings.
func NewLauncher(settings config.BrowserSettings, logger *slog.Logger) (*Launcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	command, err := resolveCommand(settings.Command, config.DefaultBrowserCandidates)
	if err != nil {
		return nil, err
	}
	timeout := settings.LaunchTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Launcher{
		command:   command,
		extraArgs: settings.ExtraArgs,
		timeout:   timeout,
		logger:    logger,
	}, nil
}

func resolveCommand(configured string, candidates []string) (string, error) {
	if configured != "" {
		path, err := exec.LookPath(configured)
		if err != nil {
			return "", fmt.Errorf("browser %q: %w", configured, err)
		}
		return path, nil
	}
	for _, c := range candidates {
		if path, err := exec.LookPath(c); err == nil {
			return path, nil
		}
	}
	return "", ErrNoBrowser
}

// Command returns the resolved browser executable.
func (l *Launcher) Command() string {
	return l.command
}

// Timeout bounds how long callers wait for a launched window to appear.
func (l *Launcher) Timeout() time.Duration {
	return l.timeout
}

// Args builds the browser command line for opts.
func (l *Launcher) Args(opts LaunchOptions) []string {
	args := []string{
		"--app=" + opts.URL,
		"--user-data-dir=" + opts.ProfileDir,
		"--class=" + opts.Class,
		"--remote-debugging-port=0",
		"--no-first-run",
		"--no-default-browser-check",
	}
	if opts.Width > 0 && opts.Height > 0 {
		args = append(args,
			"--window-position="+strconv.Itoa(opts.X)+","+strconv.Itoa(opts.Y),
			"--window-size="+strconv.Itoa(opts.Width)+","+strconv.Itoa(opts.Height),
		)
	}
	return append(args, l.extraArgs...)
}

// Launch starts a browser process for opts. The profile directory is created
// if missing.
func (l *Launcher) Launch(opts LaunchOptions) (*Process, error) {
	if err := os.MkdirAll(opts.ProfileDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create profile dir: %w", err)
	}

	cmd := exec.Command(l.command, l.Args(opts)...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", l.command, err)
	}

	p := &Process{PID: cmd.Process.Pid, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		l.logger.Debug("browser process exited", "pid", p.PID, "class", opts.Class, "error", err)
		close(p.done)
	}()

	l.logger.Debug("browser launched", "pid", p.PID, "class", opts.Class, "profile", opts.ProfileDir)
	return p, nil
}
