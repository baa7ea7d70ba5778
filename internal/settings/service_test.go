package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/1broseidon/wallboard/internal/config"
	"github.com/1broseidon/wallboard/internal/daemon"
	"github.com/1broseidon/wallboard/internal/platform"
	"github.com/1broseidon/wallboard/internal/platform/platformtest"
	"github.com/1broseidon/wallboard/internal/tiling"
)

type fixture struct {
	svc   *Service
	host  *platformtest.Host
	store *config.Store
}

func newFixture(t *testing.T, displays ...platform.Display) *fixture {
	t.Helper()
	store, err := config.NewStore(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := store.LoadOrInit()
	if err != nil {
		t.Fatal(err)
	}

	host := platformtest.NewHost(displays...)
	tiler := tiling.NewTiler(host, tiling.NewState(cfg), t.TempDir(), platform.ConcealMinimize, nil)
	worker := daemon.NewWorker(8, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return &fixture{
		svc:   NewService(store, host, tiler, worker, nil),
		host:  host,
		store: store,
	}
}

func (f *fixture) active() *config.Config {
	return f.svc.tiler.State().Config()
}

func dell() platform.Display {
	return platform.Display{Name: "Dell U2720Q", Bounds: platform.Rect{Width: 1920, Height: 1080}}
}

func TestSaveConfig_PersistsAndApplies(t *testing.T) {
	f := newFixture(t, dell())
	ctx := context.Background()

	cfg := f.active()
	cfg.Views[1].URL = "https://grafana.example.com"
	if err := f.svc.SaveConfig(ctx, cfg); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	loaded, err := f.store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Views[1].URL != "https://grafana.example.com" {
		t.Fatalf("persisted url = %q", loaded.Views[1].URL)
	}
	if got := f.active().Views[1].URL; got != "https://grafana.example.com" {
		t.Fatalf("active url = %q", got)
	}
	if n := len(f.host.CallsFor("create")); n != 4 {
		t.Fatalf("save should apply, create calls = %d", n)
	}
	if v := f.host.View("view-topRight"); v == nil || v.Options().URL.String() != "https://grafana.example.com" {
		t.Fatal("top-right view should show the saved url")
	}
}

func TestSaveConfig_ConcurrentSavesLeaveFileAndStateInStep(t *testing.T) {
	f := newFixture(t, dell())
	ctx := context.Background()

	const writers = 16
	for round := 0; round < 5; round++ {
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			cfg := f.active()
			cfg.Views[0].URL = fmt.Sprintf("https://board.example.com/%d/%d", round, i)
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := f.svc.SaveConfig(ctx, cfg); err != nil {
					t.Errorf("SaveConfig() error = %v", err)
				}
			}()
		}
		wg.Wait()

		loaded, err := f.store.Load()
		if err != nil {
			t.Fatal(err)
		}
		if got, want := loaded.Views[0].URL, f.active().Views[0].URL; got != want {
			t.Fatalf("round %d: persisted url %q, active url %q", round, got, want)
		}
	}
}

func TestSaveConfig_RejectsBadURL(t *testing.T) {
	f := newFixture(t, dell())
	before, err := os.ReadFile(f.store.Path())
	if err != nil {
		t.Fatal(err)
	}

	cfg := f.active()
	cfg.Views[3].URL = "ftp://files.example.com"
	err = f.svc.SaveConfig(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "URL for 'bottomRight' must start with http:// or https://") {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	after, err := os.ReadFile(f.store.Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Fatal("rejected save must leave the file untouched")
	}
	if f.active().Views[3].URL == "ftp://files.example.com" {
		t.Fatal("rejected save must not change the active config")
	}
	if len(f.host.Calls()) != 0 {
		t.Fatal("rejected save must not touch windows")
	}
}

func TestSaveConfig_ApplyFailureKeepsConfig(t *testing.T) {
	f := newFixture(t, dell())
	f.host.Primary = nil

	cfg := f.active()
	cfg.Views[0].URL = "https://new.example.com"
	err := f.svc.SaveConfig(context.Background(), cfg)
	if !errors.Is(err, tiling.ErrNoPrimaryDisplay) {
		t.Fatalf("SaveConfig() error = %v, want wrapped ErrNoPrimaryDisplay", err)
	}
	if !strings.HasPrefix(err.Error(), "config saved but apply failed") {
		t.Fatalf("error = %q", err)
	}
	if f.active().Views[0].URL != "https://new.example.com" {
		t.Fatal("saved config should stay active after a failed apply")
	}
}

func TestListMonitors(t *testing.T) {
	unnamed := platform.Display{Bounds: platform.Rect{X: 1920, Width: 1280, Height: 1024}}
	f := newFixture(t, dell(), unnamed)

	got, err := f.svc.ListMonitors(context.Background())
	if err != nil {
		t.Fatalf("ListMonitors() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d monitors", len(got))
	}
	want0 := MonitorInfo{Index: 0, Name: "Dell U2720Q", IsPrimary: true, Position: [2]int{0, 0}, Size: [2]uint{1920, 1080}}
	if got[0] != want0 {
		t.Fatalf("monitor 0 = %+v, want %+v", got[0], want0)
	}
	want1 := MonitorInfo{Index: 1, Name: "Monitor 1", Position: [2]int{1920, 0}, Size: [2]uint{1280, 1024}}
	if got[1] != want1 {
		t.Fatalf("monitor 1 = %+v, want %+v", got[1], want1)
	}
}

func TestToggleAndStatus(t *testing.T) {
	f := newFixture(t, dell())
	ctx := context.Background()
	if err := f.svc.Apply(ctx); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	concealed, err := f.svc.ToggleVisibility(ctx)
	if err != nil || !concealed {
		t.Fatalf("ToggleVisibility() = %v, %v", concealed, err)
	}

	st, err := f.svc.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if !st.Concealed || len(st.LiveViews) != 4 || st.ConfigPath != f.store.Path() {
		t.Fatalf("status = %+v", st)
	}
	if st.LastReport == nil || st.LastReport.Operation != tiling.OpApply {
		t.Fatalf("last report = %+v", st.LastReport)
	}
}

func TestRebuild(t *testing.T) {
	f := newFixture(t, dell())
	ctx := context.Background()
	if err := f.svc.Apply(ctx); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if n := len(f.host.CallsFor("close")); n != 4 {
		t.Fatalf("close calls = %d", n)
	}
	if n := len(f.host.CallsFor("create")); n != 8 {
		t.Fatalf("create calls = %d, want 8", n)
	}
}

func TestPlanConfig(t *testing.T) {
	side := platform.Display{Name: "HDMI-1", Bounds: platform.Rect{X: 1920, Width: 1280, Height: 1024}}
	f := newFixture(t, dell(), side)

	cfg := f.active()
	one := "1"
	cfg.Monitor = config.MonitorSelector{Mode: config.MonitorIndex, Value: &one}
	plan, err := f.svc.PlanConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("PlanConfig() error = %v", err)
	}
	if plan.Display.Name != "HDMI-1" {
		t.Fatalf("display = %q", plan.Display.Name)
	}
	if plan.Tiles[1] != (platform.Rect{X: 2560, Y: 0, Width: 640, Height: 512}) {
		t.Fatalf("top-right tile = %v", plan.Tiles[1])
	}
	if len(f.host.Calls()) != 0 {
		t.Fatal("plan must not touch windows")
	}
}
