package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
)

// Monitor represents a physical display
type Monitor struct {
	ID      int
	Name    string
	X       int
	Y       int
	Width   int
	Height  int
	Primary bool
}

// GetMonitors retrieves all active monitors using XRandR, in CRTC order.
// Name is the RandR output name and is empty when the output cannot be
// queried.
func (c *Connection) GetMonitors() ([]Monitor, error) {
	conn := c.XUtil.Conn()

	resources, err := randr.GetScreenResources(conn, c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var primaryOutput randr.Output
	if reply, err := randr.GetOutputPrimary(conn, c.Root).Reply(); err == nil {
		primaryOutput = reply.Output
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(conn, crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if len(crtcInfo.Outputs) == 0 {
			continue
		}

		name := ""
		outputInfo, err := randr.GetOutputInfo(conn, crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			name = string(outputInfo.Name)
		}

		primary := false
		for _, out := range crtcInfo.Outputs {
			if primaryOutput != 0 && out == primaryOutput {
				primary = true
				break
			}
		}

		monitors = append(monitors, Monitor{
			ID:      i,
			Name:    name,
			X:       int(crtcInfo.X),
			Y:       int(crtcInfo.Y),
			Width:   int(crtcInfo.Width),
			Height:  int(crtcInfo.Height),
			Primary: primary,
		})
	}

	return monitors, nil
}

// PrimaryMonitor returns the monitor flagged primary by RandR. When no output
// is flagged it falls back to the monitor at the root origin, and returns nil
// when there is none.
func PrimaryMonitor(monitors []Monitor) *Monitor {
	for i := range monitors {
		if monitors[i].Primary {
			return &monitors[i]
		}
	}
	for i := range monitors {
		if monitors[i].X == 0 && monitors[i].Y == 0 {
			return &monitors[i]
		}
	}
	return nil
}
