package tiling

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/1broseidon/wallboard/internal/config"
	"github.com/1broseidon/wallboard/internal/metrics"
	"github.com/1broseidon/wallboard/internal/platform"
)

const (
	OpApply   = "apply"
	OpRebuild = "rebuild"
	OpToggle  = "toggle"
)

// Report describes the most recent reconciliation attempt.
type Report struct {
	Operation string           `json:"operation"`
	At        time.Time        `json:"at"`
	Elapsed   time.Duration    `json:"elapsed"`
	Display   platform.Display `json:"display"`
	Tiles     Tiles            `json:"tiles"`
	Summary   Summary          `json:"summary"`
	Error     string           `json:"error,omitempty"`
}

// Tiler is the reconciliation entry point. At most one apply, rebuild or
// visibility toggle runs at a time.
type Tiler struct {
	mu         sync.Mutex
	host       platform.Host
	state      *State
	reconciler *Reconciler
	conceal    platform.ConcealMode
	logger     *slog.Logger

	reportMu sync.RWMutex
	last     *Report
}

// NewTiler wires the monitor resolver, layout planner and view reconciler
// around state.
func NewTiler(host platform.Host, state *State, storageRoot string, conceal platform.ConcealMode, logger *slog.Logger) *Tiler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tiler{
		host:       host,
		state:      state,
		reconciler: NewReconciler(host, storageRoot, logger),
		conceal:    conceal,
		logger:     logger,
	}
}

// State returns the state cell the tiler reads from.
func (t *Tiler) State() *State {
	return t.state
}

// Plan resolves the target display and tile geometry for cfg without touching
// any window.
func (t *Tiler) Plan(cfg *config.Config) (platform.Display, Tiles, error) {
	displays, err := t.host.Displays()
	if err != nil {
		return platform.Display{}, Tiles{}, windowOpFailed("monitors", "enumerate", err)
	}
	var primary *platform.Display
	if cfg.Monitor.Mode == config.MonitorPrimary {
		primary, err = t.host.PrimaryDisplay()
		if err != nil {
			return platform.Display{}, Tiles{}, windowOpFailed("monitors", "primary", err)
		}
	}
	display, err := SelectMonitor(cfg.Monitor, displays, primary)
	if err != nil {
		return platform.Display{}, Tiles{}, err
	}
	return display, ComputeTiles(display), nil
}

// Reconcile applies the current config snapshot: monitor selection, tile
// layout, then per-view update or create. Calling it again with an unchanged
// config creates no windows.
func (t *Tiler) Reconcile() error {
	return t.run(OpApply, t.reconciler.Apply)
}

// Rebuild closes all view windows and reconciles from scratch.
func (t *Tiler) Rebuild() error {
	return t.run(OpRebuild, t.reconciler.Rebuild)
}

func (t *Tiler) run(op string, apply func(*config.Config, Tiles) (Summary, error)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	start := time.Now()
	cfg := t.state.Config()
	report := &Report{Operation: op, At: start}

	err := func() error {
		display, tiles, err := t.Plan(cfg)
		if err != nil {
			return err
		}
		report.Display = display
		report.Tiles = tiles
		t.logger.Info("reconciling",
			"operation", op,
			"monitor", display.Name,
			"bounds", display.Bounds.String())

		sum, err := apply(cfg, tiles)
		report.Summary = sum
		return err
	}()

	report.Elapsed = time.Since(start)
	metrics.ObserveReconcile(op, err, report.Elapsed)
	if err != nil {
		report.Error = err.Error()
	} else {
		t.state.setConcealed(false)
		metrics.SetConcealed(false)
		t.logger.Info("reconcile complete",
			"operation", op,
			"created", len(report.Summary.Created),
			"updated", len(report.Summary.Updated),
			"navigated", len(report.Summary.Navigated),
			"elapsed", report.Elapsed)
	}
	t.setReport(report)
	return err
}

// ToggleVisibility conceals every view window, or restores them when they are
// already concealed. It returns the new concealed state.
func (t *Tiler) ToggleVisibility() (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	views, err := t.host.Views()
	if err != nil {
		return t.state.Concealed(), windowOpFailed(config.ViewLabelPrefix+"*", "list", err)
	}

	conceal := !t.state.Concealed()
	var errs []error
	for _, v := range views {
		label := v.Label()
		if !strings.HasPrefix(label, config.ViewLabelPrefix) {
			continue
		}
		if conceal {
			if err := platform.Conceal(v, t.conceal); err != nil {
				errs = append(errs, windowOpFailed(label, string(t.conceal), err))
			}
			continue
		}
		if err := v.Show(); err != nil {
			errs = append(errs, windowOpFailed(label, "show", err))
		}
	}

	t.state.setConcealed(conceal)
	metrics.SetConcealed(conceal)
	t.logger.Info("visibility toggled", "concealed", conceal, "mode", string(t.conceal))
	return conceal, errors.Join(errs...)
}

// LastReport returns the most recent apply or rebuild report, or nil.
func (t *Tiler) LastReport() *Report {
	t.reportMu.RLock()
	defer t.reportMu.RUnlock()
	if t.last == nil {
		return nil
	}
	r := *t.last
	return &r
}

func (t *Tiler) setReport(r *Report) {
	t.reportMu.Lock()
	defer t.reportMu.Unlock()
	t.last = r
}

// LiveLabels returns the labels of live view windows.
func (t *Tiler) LiveLabels() ([]string, error) {
	views, err := t.host.Views()
	if err != nil {
		return nil, fmt.Errorf("failed to list views: %w", err)
	}
	var labels []string
	for _, v := range views {
		if strings.HasPrefix(v.Label(), config.ViewLabelPrefix) {
			labels = append(labels, v.Label())
		}
	}
	return labels, nil
}
