package tiling

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/1broseidon/wallboard/internal/config"
	"github.com/1broseidon/wallboard/internal/platform"
)

// SelectMonitor picks the target display for sel.
//
// Index selection uses the host enumeration order of available as-is; that
// order is a host contract and is not re-sorted here. Name matching is a
// case-insensitive substring test and the first match in enumeration order
// wins.
func SelectMonitor(sel config.MonitorSelector, available []platform.Display, primary *platform.Display) (platform.Display, error) {
	switch sel.Mode {
	case config.MonitorPrimary:
		if primary == nil {
			return platform.Display{}, &ReconcileError{Kind: KindNoPrimaryDisplay}
		}
		return *primary, nil

	case config.MonitorIndex:
		if sel.Value == nil {
			return platform.Display{}, &ReconcileError{Kind: KindInvalidIndexValue}
		}
		idx, err := strconv.ParseUint(*sel.Value, 10, 64)
		if err != nil {
			return platform.Display{}, &ReconcileError{Kind: KindInvalidIndexValue, Value: *sel.Value, Err: err}
		}
		if idx >= uint64(len(available)) {
			return platform.Display{}, &ReconcileError{Kind: KindMonitorIndexOutOfRange, Index: idx}
		}
		return available[idx], nil

	case config.MonitorNameContains:
		needle := strings.ToLower(sel.ValueOrEmpty())
		for _, d := range available {
			if strings.Contains(strings.ToLower(d.Name), needle) {
				return d, nil
			}
		}
		return platform.Display{}, &ReconcileError{Kind: KindNoMatchingMonitorName, Needle: needle}

	default:
		return platform.Display{}, fmt.Errorf("unsupported monitor mode %q", sel.Mode)
	}
}
