package platform_test

import (
	"testing"

	"github.com/1broseidon/wallboard/internal/platform"
	"github.com/1broseidon/wallboard/internal/platform/platformtest"
)

func TestRectString(t *testing.T) {
	r := platform.Rect{X: -1920, Y: 40, Width: 960, Height: 540}
	if got := r.String(); got != "960x540+-1920+40" {
		t.Fatalf("String() = %q", got)
	}
}

func TestDisplaySameAs(t *testing.T) {
	a := platform.Display{Name: "DP-1", Bounds: platform.Rect{Width: 1920, Height: 1080}}
	b := platform.Display{Name: "HDMI-1", Bounds: platform.Rect{Width: 1920, Height: 1080}}
	c := platform.Display{Name: "DP-1", Bounds: platform.Rect{X: 1920, Width: 1920, Height: 1080}}
	if !a.SameAs(b) {
		t.Fatal("displays with equal bounds are the same display")
	}
	if a.SameAs(c) {
		t.Fatal("displays with different origins differ")
	}
}

func TestConceal(t *testing.T) {
	tests := []struct {
		mode platform.ConcealMode
		op   string
	}{
		{platform.ConcealMinimize, "minimize"},
		{platform.ConcealHide, "hide"},
	}
	for _, tt := range tests {
		h := platformtest.NewHost()
		v := h.AddView("view-a", nil, platform.Rect{})
		if err := platform.Conceal(v, tt.mode); err != nil {
			t.Fatalf("Conceal(%s) error = %v", tt.mode, err)
		}
		calls := h.Calls()
		if len(calls) != 1 || calls[0].Op != tt.op {
			t.Fatalf("Conceal(%s) calls = %v, want one %s", tt.mode, calls, tt.op)
		}
		if v.Visible() {
			t.Fatalf("Conceal(%s) left view visible", tt.mode)
		}
	}
}
