// Package hotkeys binds global X11 key sequences to wallboard actions.
package hotkeys

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/wallboard/internal/config"
	"github.com/1broseidon/wallboard/internal/settings"
)

// ErrNoX11 is returned when the host does not expose an X11 connection.
var ErrNoX11 = errors.New("host has no X11 connection for hotkeys")

const actionTimeout = 2 * time.Minute

// Action is run when a bound key sequence is pressed.
type Action func(ctx context.Context) error

// x11Accessor is an optional interface for hosts that expose X11 internals.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// Handler manages global keyboard shortcuts.
type Handler struct {
	xu     *xgbutil.XUtil
	root   xproto.Window
	logger *slog.Logger

	mu      sync.Mutex
	running map[string]bool
}

var ignoreModsOnce sync.Once

// NewHandler creates a hotkey handler on host's X11 connection.
func NewHandler(host any, logger *slog.Logger) (*Handler, error) {
	accessor, ok := host.(x11Accessor)
	if !ok || accessor.XUtil() == nil {
		return nil, ErrNoX11
	}
	if logger == nil {
		logger = slog.Default()
	}
	xu := accessor.XUtil()

	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	return &Handler{
		xu:      xu,
		root:    accessor.RootWindow(),
		logger:  logger,
		running: make(map[string]bool),
	}, nil
}

// Bind runs action whenever keySequence is pressed. Key presses arrive on
// the X event loop, so the action runs on its own goroutine; a press while
// the same action is still running is dropped.
func (h *Handler) Bind(keySequence, name string, action Action) error {
	err := keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		h.trigger(name, action)
	}).Connect(h.xu, h.root, keySequence, true)
	if err != nil {
		return fmt.Errorf("failed to bind %s to %q: %w", name, keySequence, err)
	}
	h.logger.Info("hotkey registered", "action", name, "keys", keySequence)
	return nil
}

func (h *Handler) trigger(name string, action Action) {
	h.mu.Lock()
	if h.running[name] {
		h.mu.Unlock()
		h.logger.Debug("hotkey ignored, action still running", "action", name)
		return
	}
	h.running[name] = true
	h.mu.Unlock()

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.running, name)
			h.mu.Unlock()
		}()
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()

		h.logger.Info("hotkey triggered", "action", name)
		if err := action(ctx); err != nil {
			h.logger.Error("hotkey action failed", "action", name, "error", err)
		}
	}()
}

// BindDefaults binds the configured toggle and apply sequences. Empty
// sequences are skipped.
func BindDefaults(h *Handler, keys config.HotkeySettings, ops settings.Operations) error {
	if keys.Toggle != "" {
		err := h.Bind(keys.Toggle, "toggle_visibility", func(ctx context.Context) error {
			_, err := ops.ToggleVisibility(ctx)
			return err
		})
		if err != nil {
			return err
		}
	}
	if keys.Apply != "" {
		if err := h.Bind(keys.Apply, "apply_config", ops.Apply); err != nil {
			return err
		}
	}
	return nil
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")
	xevent.IgnoreMods = ignoreMasks(uint16(xproto.ModMaskLock), numLock, scrollLock)
}

// ignoreMasks returns every combination of the lock modifiers, including no
// modifier, so bindings fire regardless of CapsLock/NumLock state.
func ignoreMasks(caps, numLock, scrollLock uint16) []uint16 {
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	unique := map[uint16]struct{}{0: {}}
	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		unique[mask] = struct{}{}
	}

	out := make([]uint16, 0, len(unique))
	for mask := range unique {
		out = append(out, mask)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
