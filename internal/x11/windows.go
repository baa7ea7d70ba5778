package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/motif"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// ClientWindows returns the EWMH client list.
func (c *Connection) ClientWindows() ([]xproto.Window, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}
	return clients, nil
}

// HasClient reports whether windowID is still in the client list.
func (c *Connection) HasClient(windowID xproto.Window) (bool, error) {
	clients, err := c.ClientWindows()
	if err != nil {
		return false, err
	}
	for _, w := range clients {
		if w == windowID {
			return true, nil
		}
	}
	return false, nil
}

// WindowPID returns _NET_WM_PID, or 0 when the client does not set it.
func (c *Connection) WindowPID(windowID xproto.Window) int {
	pid, err := ewmh.WmPidGet(c.XUtil, windowID)
	if err != nil {
		return 0
	}
	return int(pid)
}

// WindowClass returns the WM_CLASS instance and class names.
func (c *Connection) WindowClass(windowID xproto.Window) (instance, class string) {
	wmClass, err := icccm.WmClassGet(c.XUtil, windowID)
	if err != nil {
		return "", ""
	}
	return wmClass.Instance, wmClass.Class
}

// SetStringProperty stores value in a UTF8_STRING property named name.
func (c *Connection) SetStringProperty(windowID xproto.Window, name, value string) error {
	if err := xprop.ChangeProp(c.XUtil, windowID, 8, name, "UTF8_STRING", []byte(value)); err != nil {
		return fmt.Errorf("failed to set %s: %w", name, err)
	}
	return nil
}

// StringProperty reads a string property. A missing property is an error.
func (c *Connection) StringProperty(windowID xproto.Window, name string) (string, error) {
	return xprop.PropValStr(xprop.GetProperty(c.XUtil, windowID, name))
}

// SetTitle sets _NET_WM_NAME.
func (c *Connection) SetTitle(windowID xproto.Window, title string) error {
	return ewmh.WmNameSet(c.XUtil, windowID, title)
}

// RemoveDecorations asks the window manager to drop the frame via Motif hints.
func (c *Connection) RemoveDecorations(windowID xproto.Window) error {
	return motif.WmHintsSet(c.XUtil, windowID, &motif.Hints{
		Flags:      motif.HintDecorations,
		Decoration: motif.DecorationNone,
	})
}

// PinSize sets equal minimum and maximum size hints so the window manager
// does not offer interactive resizing.
func (c *Connection) PinSize(windowID xproto.Window, width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	return icccm.WmNormalHintsSet(c.XUtil, windowID, &icccm.NormalHints{
		Flags:     icccm.SizeHintPMinSize | icccm.SizeHintPMaxSize,
		MinWidth:  uint(width),
		MinHeight: uint(height),
		MaxWidth:  uint(width),
		MaxHeight: uint(height),
	})
}

// KeepAbove adds _NET_WM_STATE_ABOVE.
func (c *Connection) KeepAbove(windowID xproto.Window) error {
	return ewmh.WmStateReq(c.XUtil, windowID, ewmh.StateAdd, "_NET_WM_STATE_ABOVE")
}

// MoveWindow moves a window, falling back to a direct configure request when
// the window manager rejects the EWMH message.
func (c *Connection) MoveWindow(windowID xproto.Window, x, y int) error {
	c.unmaximizeWindow(windowID)
	if err := ewmh.MoveWindow(c.XUtil, windowID, x, y); err != nil {
		xwindow.New(c.XUtil, windowID).Move(x, y)
	}
	return nil
}

// ResizeWindow resizes a window, falling back to a direct configure request
// when the window manager rejects the EWMH message.
func (c *Connection) ResizeWindow(windowID xproto.Window, width, height int) error {
	c.unmaximizeWindow(windowID)
	if err := ewmh.ResizeWindow(c.XUtil, windowID, width, height); err != nil {
		xwindow.New(c.XUtil, windowID).Resize(width, height)
	}
	return nil
}

// unmaximizeWindow removes maximized state from a window
func (c *Connection) unmaximizeWindow(windowID xproto.Window) {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return
	}
	for _, state := range states {
		switch state {
		case "_NET_WM_STATE_MAXIMIZED_HORZ", "_NET_WM_STATE_MAXIMIZED_VERT":
			ewmh.WmStateReq(c.XUtil, windowID, ewmh.StateRemove, state)
		}
	}
}

// MapWindow maps a window.
func (c *Connection) MapWindow(windowID xproto.Window) error {
	return xproto.MapWindowChecked(c.XUtil.Conn(), windowID).Check()
}

// UnmapWindow withdraws a window from the screen without iconifying it.
func (c *Connection) UnmapWindow(windowID xproto.Window) error {
	return xproto.UnmapWindowChecked(c.XUtil.Conn(), windowID).Check()
}

// MinimizeWindow iconifies a window via WM_CHANGE_STATE.
func (c *Connection) MinimizeWindow(windowID xproto.Window) error {
	atom, err := c.internAtom("WM_CHANGE_STATE")
	if err != nil {
		return err
	}

	const iconicState = 3
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: windowID,
		Type:   atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{iconicState, 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

// FocusWindow activates and raises a window using _NET_ACTIVE_WINDOW.
// The message is built by hand because the xgbutil ewmh helper panics on
// this library version.
func (c *Connection) FocusWindow(windowID xproto.Window) error {
	atom, err := c.internAtom("_NET_ACTIVE_WINDOW")
	if err != nil {
		return err
	}

	const sourceIndication = 2 // pager/direct action
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: windowID,
		Type:   atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{sourceIndication, 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

// RequestClose asks the client to close gracefully via WM_DELETE_WINDOW.
func (c *Connection) RequestClose(windowID xproto.Window) error {
	deleteAtom, err := c.internAtom("WM_DELETE_WINDOW")
	if err != nil {
		return err
	}
	protocolsAtom, err := c.internAtom("WM_PROTOCOLS")
	if err != nil {
		return err
	}

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: windowID,
		Type:   protocolsAtom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{uint32(deleteAtom), 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		windowID,
		xproto.EventMaskNoEvent,
		string(ev.Bytes()),
	).Check()
}
