package ipc

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/1broseidon/wallboard/internal/config"
	"github.com/1broseidon/wallboard/internal/daemon"
	"github.com/1broseidon/wallboard/internal/platform"
	"github.com/1broseidon/wallboard/internal/platform/platformtest"
	"github.com/1broseidon/wallboard/internal/settings"
	"github.com/1broseidon/wallboard/internal/tiling"
)

func startServer(t *testing.T) (*Client, *platformtest.Host) {
	t.Helper()

	// Unix socket paths are length limited; keep this one short.
	dir, err := os.MkdirTemp("", "wb")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	store, err := config.NewStore(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := store.LoadOrInit()
	if err != nil {
		t.Fatal(err)
	}

	host := platformtest.NewHost(platform.Display{Name: "Dell U2720Q", Bounds: platform.Rect{Width: 1920, Height: 1080}})
	tiler := tiling.NewTiler(host, tiling.NewState(cfg), dir, platform.ConcealMinimize, nil)
	worker := daemon.NewWorker(8, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go worker.Run(ctx)

	srv := NewServer(filepath.Join(dir, "s.sock"), settings.NewService(store, host, tiler, worker, nil), nil)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		srv.Stop()
		cancel()
	})
	return NewClientWithSocket(srv.SocketPath()), host
}

func TestClientServer_ApplyAndStatus(t *testing.T) {
	client, host := startServer(t)
	ctx := context.Background()

	if err := client.Apply(ctx); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if n := len(host.CallsFor("create")); n != 4 {
		t.Fatalf("create calls = %d", n)
	}

	st, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if len(st.LiveViews) != 4 || st.LastReport == nil || st.LastReport.Summary.Created == nil {
		t.Fatalf("status = %+v", st)
	}

	concealed, err := client.ToggleVisibility(ctx)
	if err != nil || !concealed {
		t.Fatalf("ToggleVisibility() = %v, %v", concealed, err)
	}
}

func TestClientServer_Config(t *testing.T) {
	client, host := startServer(t)
	ctx := context.Background()

	cfg, err := client.GetConfig(ctx)
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	if cfg.Views[0].ID != "topLeft" {
		t.Fatalf("views[0].id = %q", cfg.Views[0].ID)
	}

	cfg.Views[0].URL = "https://status.example.com"
	if err := client.SaveConfig(ctx, cfg); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}
	if v := host.View("view-topLeft"); v == nil || v.Options().URL.String() != "https://status.example.com" {
		t.Fatal("saved config should be applied")
	}

	cfg.Views[0].URL = "status.example.com"
	err = client.SaveConfig(ctx, cfg)
	if !errors.Is(err, ErrDaemon) || !strings.Contains(err.Error(), "must start with http:// or https://") {
		t.Fatalf("SaveConfig() error = %v", err)
	}
}

func TestClientServer_MonitorsAndPlan(t *testing.T) {
	client, _ := startServer(t)
	ctx := context.Background()

	monitors, err := client.ListMonitors(ctx)
	if err != nil {
		t.Fatalf("ListMonitors() error = %v", err)
	}
	if len(monitors) != 1 || !monitors[0].IsPrimary || monitors[0].Size != [2]uint{1920, 1080} {
		t.Fatalf("monitors = %+v", monitors)
	}

	plan, err := client.PlanConfig(ctx, nil)
	if err != nil {
		t.Fatalf("PlanConfig() error = %v", err)
	}
	if plan.Tiles[3] != (platform.Rect{X: 960, Y: 540, Width: 960, Height: 540}) {
		t.Fatalf("bottom-right tile = %v", plan.Tiles[3])
	}

	cfg := config.DefaultConfig()
	cfg.Monitor = config.MonitorSelector{Mode: config.MonitorNameContains, Value: strPtr("lg")}
	if _, err := client.PlanConfig(ctx, cfg); err == nil || !strings.Contains(err.Error(), "no monitor name contains 'lg'") {
		t.Fatalf("PlanConfig() error = %v", err)
	}
}

func TestServer_RejectsBadRequests(t *testing.T) {
	client, _ := startServer(t)

	conn, err := net.Dial("unix", client.socketPath)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte("not json\n")); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 256)
	n, _ := conn.Read(buf)
	if !strings.Contains(string(buf[:n]), `"status":"ERROR"`) {
		t.Fatalf("response = %s", buf[:n])
	}

	if err := client.call(context.Background(), "NOPE", nil, client.timeout, nil); err == nil || !strings.Contains(err.Error(), "Unknown command") {
		t.Fatalf("unknown command error = %v", err)
	}
}

func TestClient_NoDaemon(t *testing.T) {
	client := NewClientWithSocket(filepath.Join(t.TempDir(), "missing.sock"))
	if err := client.Apply(context.Background()); err == nil || !strings.Contains(err.Error(), "is the daemon running?") {
		t.Fatalf("Apply() error = %v", err)
	}
}

func strPtr(s string) *string { return &s }
