package platform

import (
	"fmt"
	"net/url"
)

// Rect describes a rectangular region in physical screen coordinates.
type Rect struct {
	X      int  `json:"x"`
	Y      int  `json:"y"`
	Width  uint `json:"width"`
	Height uint `json:"height"`
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Display describes a physical display as reported by the host.
//
// Displays carry no stable hardware id. Two descriptors refer to the same
// physical display iff their bounds are equal.
type Display struct {
	Name   string `json:"name"`
	Bounds Rect   `json:"bounds"`
}

// SameAs reports whether d and other describe the same physical display.
// Identical monitors in a mirrored setup are indistinguishable.
func (d Display) SameAs(other Display) bool {
	return d.Bounds == other.Bounds
}

// WindowOptions describes a view window to create.
type WindowOptions struct {
	Label       string
	URL         *url.URL
	StoragePath string
	Title       string
	Decorated   bool
	Resizable   bool
	AlwaysOnTop bool
	// Bounds is a placement hint for hosts that accept one at creation time.
	// Callers still position and size the window after creation.
	Bounds Rect
}

// View is a live view window owned by the host.
type View interface {
	Label() string
	// URL returns the location the view was last navigated to, or nil when
	// the host cannot tell.
	URL() *url.URL
	Navigate(u *url.URL) error
	SetPosition(x, y int) error
	SetSize(width, height uint) error
	Show() error
	Minimize() error
	Hide() error
	Close() error
}

// Host abstracts the windowing operations the wallboard needs.
//
// Displays returns monitors in host enumeration order. That order is the
// index space used by index-based monitor selection and is not sorted.
type Host interface {
	Displays() ([]Display, error)
	// PrimaryDisplay returns nil with a nil error when the host reports no
	// primary display.
	PrimaryDisplay() (*Display, error)
	LookupView(label string) (View, bool, error)
	Views() ([]View, error)
	CreateView(opts WindowOptions) (View, error)
}
