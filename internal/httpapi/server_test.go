package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/1broseidon/wallboard/internal/config"
	"github.com/1broseidon/wallboard/internal/daemon"
	"github.com/1broseidon/wallboard/internal/platform"
	"github.com/1broseidon/wallboard/internal/platform/platformtest"
	"github.com/1broseidon/wallboard/internal/settings"
	"github.com/1broseidon/wallboard/internal/tiling"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestAPI(t *testing.T) (http.Handler, *platformtest.Host) {
	t.Helper()
	dir := t.TempDir()
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
	t.Cleanup(cancel)

	svc := settings.NewService(store, host, tiler, worker, nil)
	return NewServer("127.0.0.1:0", svc, nil).Handler(), host
}

func do(t *testing.T, h http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthzAndMetrics(t *testing.T) {
	h, _ := newTestAPI(t)

	if w := do(t, h, http.MethodGet, "/healthz", nil); w.Code != http.StatusOK {
		t.Fatalf("/healthz = %d", w.Code)
	}
	do(t, h, http.MethodPost, "/api/v1/apply", nil)

	w := do(t, h, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("/metrics = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "wallboard_reconcile_total") {
		t.Fatal("metrics output missing reconcile counter")
	}
}

func TestConfigRoundTrip(t *testing.T) {
	h, host := newTestAPI(t)

	w := do(t, h, http.MethodGet, "/api/v1/config", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET config = %d", w.Code)
	}
	var cfg config.Config
	if err := json.Unmarshal(w.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}

	cfg.Views[2].URL = "https://ci.example.com"
	body, _ := json.Marshal(&cfg)
	if w := do(t, h, http.MethodPut, "/api/v1/config", body); w.Code != http.StatusOK {
		t.Fatalf("PUT config = %d: %s", w.Code, w.Body)
	}
	if v := host.View("view-bottomLeft"); v == nil || v.Options().URL.String() != "https://ci.example.com" {
		t.Fatal("saved config should be applied")
	}
}

func TestSaveConfigErrors(t *testing.T) {
	h, _ := newTestAPI(t)

	tests := []struct {
		name string
		body string
		code int
		want string
	}{
		{"malformed", `{"version":`, http.StatusBadRequest, "request.invalid"},
		{"three views", `{"version":1,"monitor":{"mode":"primary"},"views":[{"id":"a","url":"https://a"},{"id":"b","url":"https://b"},{"id":"c","url":"https://c"}]}`, http.StatusUnprocessableEntity, "config.invalid"},
		{"bad url", `{"version":1,"monitor":{"mode":"primary"},"views":[{"id":"a","url":"https://a"},{"id":"b","url":"file:///etc"},{"id":"c","url":"https://c"},{"id":"d","url":"https://d"}]}`, http.StatusUnprocessableEntity, "config.invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPut, "/api/v1/config", []byte(tt.body))
			if w.Code != tt.code {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.code, w.Body)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Code != tt.want {
				t.Fatalf("body = %s", w.Body)
			}
		})
	}
}

func TestReconcileErrorMapsToConflict(t *testing.T) {
	h, host := newTestAPI(t)
	host.Primary = nil

	w := do(t, h, http.MethodPost, "/api/v1/apply", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("apply = %d, want 409", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != "reconcile.NoPrimaryDisplay" {
		t.Fatalf("code = %q", resp.Code)
	}
}

func TestMonitorsToggleStatusPlan(t *testing.T) {
	h, _ := newTestAPI(t)

	w := do(t, h, http.MethodGet, "/api/v1/monitors", nil)
	var monitors []settings.MonitorInfo
	if err := json.Unmarshal(w.Body.Bytes(), &monitors); err != nil || len(monitors) != 1 || !monitors[0].IsPrimary {
		t.Fatalf("monitors = %s", w.Body)
	}

	if w := do(t, h, http.MethodPost, "/api/v1/apply", nil); w.Code != http.StatusOK {
		t.Fatalf("apply = %d", w.Code)
	}
	w = do(t, h, http.MethodPost, "/api/v1/toggle", nil)
	if !strings.Contains(w.Body.String(), `"concealed":true`) {
		t.Fatalf("toggle = %s", w.Body)
	}

	w = do(t, h, http.MethodGet, "/api/v1/status", nil)
	var st settings.Status
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil || !st.Concealed || len(st.LiveViews) != 4 {
		t.Fatalf("status = %s", w.Body)
	}

	w = do(t, h, http.MethodPost, "/api/v1/plan", nil)
	var plan settings.Plan
	if err := json.Unmarshal(w.Body.Bytes(), &plan); err != nil {
		t.Fatalf("plan = %s", w.Body)
	}
	if plan.Tiles[1] != (platform.Rect{X: 960, Width: 960, Height: 540}) {
		t.Fatalf("top-right tile = %v", plan.Tiles[1])
	}

	if w := do(t, h, http.MethodPost, "/api/v1/rebuild", nil); w.Code != http.StatusOK {
		t.Fatalf("rebuild = %d", w.Code)
	}
}
