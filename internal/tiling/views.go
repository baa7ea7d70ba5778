package tiling

import (
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/1broseidon/wallboard/internal/config"
	"github.com/1broseidon/wallboard/internal/metrics"
	"github.com/1broseidon/wallboard/internal/platform"
)

// Summary lists what one apply did, by window label.
type Summary struct {
	Created   []string `json:"created,omitempty"`
	Updated   []string `json:"updated,omitempty"`
	Navigated []string `json:"navigated,omitempty"`
	Closed    []string `json:"closed,omitempty"`
}

// Reconciler converges live view windows onto a config and tile set.
type Reconciler struct {
	host        platform.Host
	storageRoot string
	logger      *slog.Logger
}

// NewReconciler creates a reconciler whose view profiles live under
// storageRoot/profiles.
func NewReconciler(host platform.Host, storageRoot string, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{host: host, storageRoot: storageRoot, logger: logger}
}

// StoragePath returns the persistent profile directory for v. Views without
// an explicit profile get a directory named after their own label.
func (r *Reconciler) StoragePath(v config.ViewConfig) string {
	return filepath.Join(r.storageRoot, "profiles", v.ProfileName())
}

// Apply walks the views in order. An existing window is updated in place and
// is never recreated; a missing one is created. The first failure aborts the
// walk and views already handled are left as they are.
func (r *Reconciler) Apply(cfg *config.Config, tiles Tiles) (Summary, error) {
	var sum Summary
	for i, view := range cfg.Views {
		tile := tiles[i]
		label := view.Label()

		target, err := parseViewURL(view)
		if err != nil {
			return sum, err
		}

		live, ok, err := r.host.LookupView(label)
		if err != nil {
			return sum, windowOpFailed(label, "lookup", err)
		}

		if ok {
			navigated, err := r.update(live, target, tile)
			if err != nil {
				return sum, err
			}
			sum.Updated = append(sum.Updated, label)
			if navigated {
				sum.Navigated = append(sum.Navigated, label)
			}
			metrics.IncViewAction("update")
			r.logger.Debug("view updated", "label", label, "tile", tile.String(), "navigated", navigated)
			continue
		}

		if err := r.create(view, label, target, tile); err != nil {
			return sum, err
		}
		sum.Created = append(sum.Created, label)
		metrics.IncViewAction("create")
		r.logger.Debug("view created", "label", label, "tile", tile.String(), "profile", view.ProfileName())
	}
	return sum, nil
}

func (r *Reconciler) update(live platform.View, target *url.URL, tile platform.Rect) (bool, error) {
	label := live.Label()
	navigated := false
	if current := live.URL(); current == nil || current.String() != target.String() {
		if err := live.Navigate(target); err != nil {
			return false, windowOpFailed(label, "navigate", err)
		}
		navigated = true
		metrics.IncViewAction("navigate")
	}
	if err := live.SetPosition(tile.X, tile.Y); err != nil {
		return navigated, windowOpFailed(label, "set position", err)
	}
	if err := live.SetSize(tile.Width, tile.Height); err != nil {
		return navigated, windowOpFailed(label, "set size", err)
	}
	if err := live.Show(); err != nil {
		return navigated, windowOpFailed(label, "show", err)
	}
	return navigated, nil
}

func (r *Reconciler) create(view config.ViewConfig, label string, target *url.URL, tile platform.Rect) error {
	win, err := r.host.CreateView(platform.WindowOptions{
		Label:       label,
		URL:         target,
		StoragePath: r.StoragePath(view),
		Title:       "Wallboard",
		Decorated:   false,
		Resizable:   false,
		AlwaysOnTop: true,
		Bounds:      tile,
	})
	if err != nil {
		return windowOpFailed(label, "create", err)
	}
	if err := win.SetPosition(tile.X, tile.Y); err != nil {
		return windowOpFailed(label, "set position", err)
	}
	if err := win.SetSize(tile.Width, tile.Height); err != nil {
		return windowOpFailed(label, "set size", err)
	}
	return nil
}

// Rebuild closes every live view window and applies cfg from scratch. Close
// failures are logged and do not stop the rebuild.
func (r *Reconciler) Rebuild(cfg *config.Config, tiles Tiles) (Summary, error) {
	views, err := r.host.Views()
	if err != nil {
		return Summary{}, windowOpFailed(config.ViewLabelPrefix+"*", "list", err)
	}

	var closed []string
	for _, v := range views {
		label := v.Label()
		if !strings.HasPrefix(label, config.ViewLabelPrefix) {
			continue
		}
		if err := v.Close(); err != nil {
			r.logger.Warn("failed to close view", "label", label, "error", err)
			continue
		}
		closed = append(closed, label)
		metrics.IncViewAction("close")
	}

	sum, err := r.Apply(cfg, tiles)
	sum.Closed = closed
	return sum, err
}

func parseViewURL(view config.ViewConfig) (*url.URL, error) {
	u, err := url.Parse(view.URL)
	if err != nil {
		return nil, &ReconcileError{Kind: KindInvalidViewURL, ViewID: view.ID, Value: view.URL, Err: err}
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, &ReconcileError{
			Kind:   KindInvalidViewURL,
			ViewID: view.ID,
			Value:  view.URL,
			Err:    fmt.Errorf("not an absolute URL"),
		}
	}
	return u, nil
}
