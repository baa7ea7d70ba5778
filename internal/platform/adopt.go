package platform

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/BurntSushi/xgb/xproto"
)

const pollInterval = 100 * time.Millisecond

// ErrBrowserExited is returned when the launched browser exits without a
// window appearing and no other browser owns the profile.
var ErrBrowserExited = errors.New("browser exited before opening a window")

// clientQuery reads the client window facts adoption needs.
type clientQuery interface {
	ClientWindows() ([]xproto.Window, error)
	WindowPID(win xproto.Window) int
	WindowClass(win xproto.Window) (instance, class string)
}

// adoption describes the window one launch is expected to map.
//
// A launch on a profile that a running browser already owns is handed off to
// that browser: the launched process exits and the window is mapped with the
// running browser's _NET_WM_PID. pids therefore holds the launched pid and
// the pids of every live view on the same profile.
type adoption struct {
	existing map[xproto.Window]bool
	pids     map[int]bool
	class    string
	handoff  bool
}

func newAdoption(existing map[xproto.Window]bool, launched int, owners map[int]bool, class string) adoption {
	pids := make(map[int]bool, len(owners)+1)
	for pid := range owners {
		if pid != 0 {
			pids[pid] = true
		}
	}
	handoff := len(pids) > 0
	if launched != 0 {
		pids[launched] = true
	}
	return adoption{existing: existing, pids: pids, class: class, handoff: handoff}
}

// match returns the first client window that is new and belongs to one of
// the pids or carries class as its WM_CLASS.
func (a adoption) match(q clientQuery) (xproto.Window, bool) {
	clients, err := q.ClientWindows()
	if err != nil {
		return 0, false
	}
	for _, win := range clients {
		if a.existing[win] {
			continue
		}
		if pid := q.WindowPID(win); pid != 0 && a.pids[pid] {
			return win, true
		}
		instance, cls := q.WindowClass(win)
		if instance == a.class || cls == a.class {
			return win, true
		}
	}
	return 0, false
}

// wait polls match until it succeeds or timeout passes. When exited closes
// and no other browser owns the profile the launch has failed and wait
// returns ErrBrowserExited after one final check.
func (a adoption) wait(q clientQuery, lock sync.Locker, exited <-chan struct{}, timeout time.Duration) (xproto.Window, error) {
	try := func() (xproto.Window, bool) {
		if lock != nil {
			lock.Lock()
			defer lock.Unlock()
		}
		return a.match(q)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if win, ok := try(); ok {
			return win, nil
		}
		select {
		case <-exited:
			if a.handoff {
				exited = nil
				continue
			}
			if win, ok := try(); ok {
				return win, nil
			}
			return 0, fmt.Errorf("window %s: %w", a.class, ErrBrowserExited)
		case <-timer.C:
			return 0, fmt.Errorf("timed out after %s waiting for window %s", timeout, a.class)
		case <-ticker.C:
		}
	}
}
