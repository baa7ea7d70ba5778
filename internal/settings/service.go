// Package settings is the facade every outer surface (IPC, HTTP, MCP,
// hotkeys) uses to read and change the wallboard.
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/wallboard/internal/config"
	"github.com/1broseidon/wallboard/internal/daemon"
	"github.com/1broseidon/wallboard/internal/platform"
	"github.com/1broseidon/wallboard/internal/tiling"
)

// MonitorInfo describes one display as shown to settings clients.
type MonitorInfo struct {
	Index     int     `json:"index"`
	Name      string  `json:"name"`
	IsPrimary bool    `json:"is_primary"`
	Position  [2]int  `json:"position"`
	Size      [2]uint `json:"size"`
}

// Status summarizes the running daemon.
type Status struct {
	StartedAt  time.Time      `json:"started_at"`
	Uptime     string         `json:"uptime"`
	ConfigPath string         `json:"config_path"`
	Concealed  bool           `json:"concealed"`
	LiveViews  []string       `json:"live_views"`
	LastReport *tiling.Report `json:"last_report,omitempty"`
}

// Plan is the display and tile geometry a config would be applied to.
type Plan struct {
	Display platform.Display `json:"display"`
	Tiles   tiling.Tiles     `json:"tiles"`
}

// Operations is the settings surface shared by the in-process service and
// the IPC client.
type Operations interface {
	GetConfig(ctx context.Context) (*config.Config, error)
	SaveConfig(ctx context.Context, cfg *config.Config) error
	ListMonitors(ctx context.Context) ([]MonitorInfo, error)
	Apply(ctx context.Context) error
	Rebuild(ctx context.Context) error
	ToggleVisibility(ctx context.Context) (bool, error)
	PlanConfig(ctx context.Context, cfg *config.Config) (Plan, error)
	Status(ctx context.Context) (Status, error)
}

var _ Operations = (*Service)(nil)

// Service exposes the settings operations. Window work runs on the worker.
type Service struct {
	store     *config.Store
	host      platform.Host
	tiler     *tiling.Tiler
	worker    *daemon.Worker
	startedAt time.Time
	logger    *slog.Logger

	// saveMu keeps the file and the active config written in the same order.
	saveMu sync.Mutex
}

// NewService wires the settings operations around an existing tiler.
func NewService(store *config.Store, host platform.Host, tiler *tiling.Tiler, worker *daemon.Worker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		host:      host,
		tiler:     tiler,
		worker:    worker,
		startedAt: time.Now(),
		logger:    logger,
	}
}

// GetConfig returns a copy of the active config.
func (s *Service) GetConfig(ctx context.Context) (*config.Config, error) {
	return s.tiler.State().Config(), nil
}

// SaveConfig validates and persists cfg, makes it the active config and
// applies it. A rejected config changes nothing. An apply failure after a
// successful save is reported but the new config stays active.
func (s *Service) SaveConfig(ctx context.Context, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := s.commit(cfg); err != nil {
		return err
	}
	s.logger.Info("config saved", "path", s.store.Path())

	if err := s.Apply(ctx); err != nil {
		return fmt.Errorf("config saved but apply failed: %w", err)
	}
	return nil
}

func (s *Service) commit(cfg *config.Config) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if err := s.store.Save(cfg); err != nil {
		return err
	}
	s.tiler.State().SetConfig(cfg)
	return nil
}

// ListMonitors returns every display in host enumeration order.
func (s *Service) ListMonitors(ctx context.Context) ([]MonitorInfo, error) {
	var out []MonitorInfo
	err := s.worker.Do(ctx, "list_monitors", func() error {
		displays, err := s.host.Displays()
		if err != nil {
			return fmt.Errorf("failed to list monitors: %w", err)
		}
		primary, err := s.host.PrimaryDisplay()
		if err != nil {
			return fmt.Errorf("failed to get primary monitor: %w", err)
		}
		out = describeMonitors(displays, primary)
		return nil
	})
	return out, err
}

func describeMonitors(displays []platform.Display, primary *platform.Display) []MonitorInfo {
	out := make([]MonitorInfo, 0, len(displays))
	for i, d := range displays {
		name := d.Name
		if name == "" {
			name = fmt.Sprintf("Monitor %d", i)
		}
		out = append(out, MonitorInfo{
			Index:     i,
			Name:      name,
			IsPrimary: primary != nil && primary.SameAs(d),
			Position:  [2]int{d.Bounds.X, d.Bounds.Y},
			Size:      [2]uint{d.Bounds.Width, d.Bounds.Height},
		})
	}
	return out
}

// Apply reconciles the active config.
func (s *Service) Apply(ctx context.Context) error {
	return s.worker.Do(ctx, tiling.OpApply, s.tiler.Reconcile)
}

// Rebuild closes every view window and reconciles from scratch.
func (s *Service) Rebuild(ctx context.Context) error {
	return s.worker.Do(ctx, tiling.OpRebuild, s.tiler.Rebuild)
}

// ToggleVisibility conceals or restores every view window and returns the
// new concealed state.
func (s *Service) ToggleVisibility(ctx context.Context) (bool, error) {
	var concealed bool
	err := s.worker.Do(ctx, tiling.OpToggle, func() error {
		var err error
		concealed, err = s.tiler.ToggleVisibility()
		return err
	})
	return concealed, err
}

// PlanConfig resolves the display and tiles cfg would use, or the active
// config when cfg is nil. No window is touched.
func (s *Service) PlanConfig(ctx context.Context, cfg *config.Config) (Plan, error) {
	if cfg == nil {
		cfg = s.tiler.State().Config()
	} else if err := cfg.ValidateStructure(); err != nil {
		return Plan{}, err
	}
	var plan Plan
	err := s.worker.Do(ctx, "plan", func() error {
		display, tiles, err := s.tiler.Plan(cfg)
		if err != nil {
			return err
		}
		plan = Plan{Display: display, Tiles: tiles}
		return nil
	})
	return plan, err
}

// Status reports uptime, the last reconcile and the live view windows.
func (s *Service) Status(ctx context.Context) (Status, error) {
	st := Status{
		StartedAt:  s.startedAt,
		Uptime:     time.Since(s.startedAt).Round(time.Second).String(),
		ConfigPath: s.store.Path(),
		Concealed:  s.tiler.State().Concealed(),
		LastReport: s.tiler.LastReport(),
	}
	err := s.worker.Do(ctx, "status", func() error {
		labels, err := s.tiler.LiveLabels()
		st.LiveViews = labels
		return err
	})
	return st, err
}
