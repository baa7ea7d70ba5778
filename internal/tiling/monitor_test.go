package tiling

import (
	"errors"
	"testing"

	"github.com/1broseidon/wallboard/internal/config"
	"github.com/1broseidon/wallboard/internal/platform"
)

func strPtr(s string) *string { return &s }

func named(name string, x int) platform.Display {
	return platform.Display{Name: name, Bounds: platform.Rect{X: x, Width: 1920, Height: 1080}}
}

func TestSelectMonitor_Primary(t *testing.T) {
	primary := named("DP-1", 1920)
	got, err := SelectMonitor(config.MonitorSelector{Mode: config.MonitorPrimary}, []platform.Display{named("HDMI-1", 0), primary}, &primary)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.SameAs(primary) {
		t.Fatalf("got %v, want primary %v", got, primary)
	}

	_, err = SelectMonitor(config.MonitorSelector{Mode: config.MonitorPrimary}, []platform.Display{primary}, nil)
	if !errors.Is(err, ErrNoPrimaryDisplay) {
		t.Fatalf("expected ErrNoPrimaryDisplay, got %v", err)
	}
}

func TestSelectMonitor_Index(t *testing.T) {
	sel := config.MonitorSelector{Mode: config.MonitorIndex, Value: strPtr("0")}

	_, err := SelectMonitor(sel, nil, nil)
	var rerr *ReconcileError
	if !errors.As(err, &rerr) || rerr.Kind != KindMonitorIndexOutOfRange || rerr.Index != 0 {
		t.Fatalf("expected MonitorIndexOutOfRange(0), got %v", err)
	}

	only := named("eDP-1", 0)
	got, err := SelectMonitor(sel, []platform.Display{only}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != only {
		t.Fatalf("got %v, want %v", got, only)
	}

	second := named("DP-2", 1920)
	got, err = SelectMonitor(config.MonitorSelector{Mode: config.MonitorIndex, Value: strPtr("1")}, []platform.Display{only, second}, nil)
	if err != nil || got != second {
		t.Fatalf("index 1 = %v, %v; want %v", got, err, second)
	}
}

func TestSelectMonitor_IndexOutOfRangeKeepsValue(t *testing.T) {
	displays := []platform.Display{named("a", 0), named("b", 1920)}
	cases := []struct {
		value string
		want  uint64
		msg   string
	}{
		{"2", 2, "no monitor at index 2"},
		{"4294967296", 4294967296, "no monitor at index 4294967296"},
		{"9223372036854775808", 9223372036854775808, "no monitor at index 9223372036854775808"},
		{"18446744073709551615", 18446744073709551615, "no monitor at index 18446744073709551615"},
	}
	for _, tc := range cases {
		_, err := SelectMonitor(config.MonitorSelector{Mode: config.MonitorIndex, Value: strPtr(tc.value)}, displays, nil)
		var rerr *ReconcileError
		if !errors.As(err, &rerr) || rerr.Kind != KindMonitorIndexOutOfRange {
			t.Fatalf("value %s: expected MonitorIndexOutOfRange, got %v", tc.value, err)
		}
		if rerr.Index != tc.want || rerr.Error() != tc.msg {
			t.Fatalf("value %s: got index %d %q, want %d %q", tc.value, rerr.Index, rerr.Error(), tc.want, tc.msg)
		}
	}

	_, err := SelectMonitor(config.MonitorSelector{Mode: config.MonitorIndex, Value: strPtr("18446744073709551616")}, displays, nil)
	if !errors.Is(err, ErrInvalidIndexValue) {
		t.Fatalf("value past uint64: expected ErrInvalidIndexValue, got %v", err)
	}
}

func TestSelectMonitor_InvalidIndexValue(t *testing.T) {
	for _, v := range []*string{nil, strPtr(""), strPtr("-1"), strPtr("one"), strPtr(" 1")} {
		_, err := SelectMonitor(config.MonitorSelector{Mode: config.MonitorIndex, Value: v}, []platform.Display{named("a", 0)}, nil)
		if !errors.Is(err, ErrInvalidIndexValue) {
			t.Fatalf("value %v: expected ErrInvalidIndexValue, got %v", v, err)
		}
	}
}

func TestSelectMonitor_NameContains(t *testing.T) {
	displays := []platform.Display{named("HDMI-1 Samsung", 0), named("Dell U2720Q", 1920), named("DELL P2419H", 3840)}

	got, err := SelectMonitor(config.MonitorSelector{Mode: config.MonitorNameContains, Value: strPtr("DELL")}, displays, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Dell U2720Q" {
		t.Fatalf("got %q, want first match Dell U2720Q", got.Name)
	}

	got, err = SelectMonitor(config.MonitorSelector{Mode: config.MonitorNameContains}, displays, nil)
	if err != nil || got.Name != "HDMI-1 Samsung" {
		t.Fatalf("absent needle should match first display, got %v, %v", got, err)
	}

	_, err = SelectMonitor(config.MonitorSelector{Mode: config.MonitorNameContains, Value: strPtr("LG")}, displays, nil)
	var rerr *ReconcileError
	if !errors.As(err, &rerr) || rerr.Kind != KindNoMatchingMonitorName || rerr.Needle != "lg" {
		t.Fatalf("expected NoMatchingMonitorName(lg), got %v", err)
	}
}
