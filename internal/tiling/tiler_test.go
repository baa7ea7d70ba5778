package tiling

import (
	"errors"
	"sync"
	"testing"

	"github.com/1broseidon/wallboard/internal/config"
	"github.com/1broseidon/wallboard/internal/platform"
	"github.com/1broseidon/wallboard/internal/platform/platformtest"
)

func newTestTiler(t *testing.T, h *platformtest.Host, cfg *config.Config, mode platform.ConcealMode) *Tiler {
	t.Helper()
	return NewTiler(h, NewState(cfg), t.TempDir(), mode, nil)
}

func TestTiler_ReconcilePrimary(t *testing.T) {
	side := platform.Display{Name: "HDMI-1", Bounds: platform.Rect{X: 1920, Width: 1280, Height: 1024}}
	h := platformtest.NewHost(dell(), side)
	tiler := newTestTiler(t, h, config.DefaultConfig(), platform.ConcealMinimize)

	if err := tiler.Reconcile(); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	want := platform.Rect{X: 960, Y: 540, Width: 960, Height: 540}
	if got := h.View("view-bottomRight").Bounds(); got != want {
		t.Fatalf("bottom-right bounds = %v, want %v", got, want)
	}

	report := tiler.LastReport()
	if report == nil || report.Operation != OpApply || report.Error != "" {
		t.Fatalf("report = %+v", report)
	}
	if report.Display.Name != "Dell U2720Q" {
		t.Fatalf("report display = %q", report.Display.Name)
	}
}

func TestTiler_ReconcileNoPrimary(t *testing.T) {
	h := platformtest.NewHost(dell())
	h.Primary = nil
	tiler := newTestTiler(t, h, config.DefaultConfig(), platform.ConcealMinimize)

	err := tiler.Reconcile()
	if !errors.Is(err, ErrNoPrimaryDisplay) {
		t.Fatalf("expected ErrNoPrimaryDisplay, got %v", err)
	}
	if len(h.Calls()) != 0 {
		t.Fatalf("no window should be touched, got %v", h.Calls())
	}
	if r := tiler.LastReport(); r == nil || r.Error == "" {
		t.Fatalf("failed reconcile should be reported, got %+v", r)
	}
}

func TestTiler_ReconcileByNameAndIndex(t *testing.T) {
	laptop := platform.Display{Name: "eDP-1", Bounds: platform.Rect{Width: 1920, Height: 1200}}
	h := platformtest.NewHost(laptop, dell())

	tests := []struct {
		name string
		sel  config.MonitorSelector
		want string
	}{
		{"name", config.MonitorSelector{Mode: config.MonitorNameContains, Value: strPtr("dell")}, "Dell U2720Q"},
		{"index", config.MonitorSelector{Mode: config.MonitorIndex, Value: strPtr("0")}, "eDP-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Monitor = tt.sel
			tiler := newTestTiler(t, h, cfg, platform.ConcealMinimize)
			display, _, err := tiler.Plan(cfg)
			if err != nil {
				t.Fatalf("Plan() error = %v", err)
			}
			if display.Name != tt.want {
				t.Fatalf("display = %q, want %q", display.Name, tt.want)
			}
		})
	}
}

func TestTiler_ReadsLatestConfig(t *testing.T) {
	h := platformtest.NewHost(dell())
	state := NewState(config.DefaultConfig())
	tiler := NewTiler(h, state, t.TempDir(), platform.ConcealMinimize, nil)
	if err := tiler.Reconcile(); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	h.ResetCalls()

	cfg := config.DefaultConfig()
	cfg.Views[0].URL = "https://grafana.example.com"
	state.SetConfig(cfg)
	if err := tiler.Reconcile(); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	navs := h.CallsFor("navigate")
	if len(navs) != 1 || navs[0].Label != "view-topLeft" {
		t.Fatalf("navigate calls = %v", navs)
	}
}

func TestTiler_ToggleVisibility(t *testing.T) {
	tests := []struct {
		mode platform.ConcealMode
		op   string
	}{
		{platform.ConcealMinimize, "minimize"},
		{platform.ConcealHide, "hide"},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			h := platformtest.NewHost(dell())
			tiler := newTestTiler(t, h, config.DefaultConfig(), tt.mode)
			if err := tiler.Reconcile(); err != nil {
				t.Fatalf("Reconcile() error = %v", err)
			}
			h.ResetCalls()

			concealed, err := tiler.ToggleVisibility()
			if err != nil || !concealed {
				t.Fatalf("first toggle = %v, %v; want concealed", concealed, err)
			}
			if n := len(h.CallsFor(tt.op)); n != 4 {
				t.Fatalf("%s calls = %d, want 4", tt.op, n)
			}
			if h.View("view-topLeft").Visible() {
				t.Fatal("view should be concealed")
			}
			if !tiler.State().Concealed() {
				t.Fatal("state should record concealed")
			}

			concealed, err = tiler.ToggleVisibility()
			if err != nil || concealed {
				t.Fatalf("second toggle = %v, %v; want shown", concealed, err)
			}
			if !h.View("view-topLeft").Visible() {
				t.Fatal("view should be shown again")
			}
		})
	}
}

func TestTiler_ReconcileClearsConcealed(t *testing.T) {
	h := platformtest.NewHost(dell())
	tiler := newTestTiler(t, h, config.DefaultConfig(), platform.ConcealHide)
	if err := tiler.Reconcile(); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if _, err := tiler.ToggleVisibility(); err != nil {
		t.Fatalf("ToggleVisibility() error = %v", err)
	}
	if err := tiler.Reconcile(); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if tiler.State().Concealed() {
		t.Fatal("a successful reconcile should clear the concealed flag")
	}
	if !h.View("view-bottomLeft").Visible() {
		t.Fatal("reconcile should show the view")
	}
}

func TestTiler_ToggleReportsPartialFailure(t *testing.T) {
	h := platformtest.NewHost(dell())
	tiler := newTestTiler(t, h, config.DefaultConfig(), platform.ConcealMinimize)
	if err := tiler.Reconcile(); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	h.FailOn = map[string]string{"minimize": "view-topRight"}

	concealed, err := tiler.ToggleVisibility()
	if !concealed {
		t.Fatal("toggle should still flip the state")
	}
	if !errors.Is(err, ErrWindowOperationFailed) {
		t.Fatalf("expected ErrWindowOperationFailed, got %v", err)
	}
	if h.View("view-topLeft").Visible() {
		t.Fatal("other views should still be concealed")
	}
}

func TestTiler_Rebuild(t *testing.T) {
	h := platformtest.NewHost(dell())
	tiler := newTestTiler(t, h, config.DefaultConfig(), platform.ConcealMinimize)
	if err := tiler.Reconcile(); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	h.ResetCalls()

	if err := tiler.Rebuild(); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if n := len(h.CallsFor("close")); n != 4 {
		t.Fatalf("close calls = %d, want 4", n)
	}
	if n := len(h.CallsFor("create")); n != 4 {
		t.Fatalf("create calls = %d, want 4", n)
	}
	if r := tiler.LastReport(); r.Operation != OpRebuild || len(r.Summary.Closed) != 4 {
		t.Fatalf("report = %+v", r)
	}

	labels, err := tiler.LiveLabels()
	if err != nil || len(labels) != 4 {
		t.Fatalf("LiveLabels() = %v, %v", labels, err)
	}
}

func TestTiler_ConcurrentReconcilesCreateOnce(t *testing.T) {
	h := platformtest.NewHost(dell())
	tiler := newTestTiler(t, h, config.DefaultConfig(), platform.ConcealMinimize)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- tiler.Reconcile()
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Reconcile() error = %v", err)
		}
	}
	if n := len(h.CallsFor("create")); n != 4 {
		t.Fatalf("create calls = %d, want 4", n)
	}
}

func TestState_ConfigIsSnapshot(t *testing.T) {
	state := NewState(config.DefaultConfig())
	snap := state.Config()
	snap.Views[0].URL = "https://mutated.example"
	*snap.Views[1].Profile = "mutated"
	if got := state.Config(); got.Views[0].URL == snap.Views[0].URL || *got.Views[1].Profile == "mutated" {
		t.Fatal("mutating a snapshot must not affect the state cell")
	}
}
