// Package platformtest provides an in-memory platform.Host that records every
// window operation, for tests of code that drives view windows.
package platformtest

import (
	"fmt"
	"net/url"
	"sort"
	"sync"

	"github.com/1broseidon/wallboard/internal/platform"
)

// Call is one recorded host or view operation.
type Call struct {
	Op    string // create, navigate, position, size, show, minimize, hide, close
	Label string
	Arg   string
}

// Host is a fake platform.Host. The zero value has no displays and no
// primary display.
type Host struct {
	mu sync.Mutex

	DisplayList []platform.Display
	Primary     *platform.Display

	// FailOn makes the named operation fail for the given label ("" matches
	// every label).
	FailOn map[string]string
	// DisplaysErr is returned by Displays and PrimaryDisplay when set.
	DisplaysErr error

	views   map[string]*View
	calls   []Call
	created []platform.WindowOptions
}

var _ platform.Host = (*Host)(nil)

// NewHost returns a fake host with the given displays; the first one is
// reported as primary.
func NewHost(displays ...platform.Display) *Host {
	h := &Host{DisplayList: displays}
	if len(displays) > 0 {
		p := displays[0]
		h.Primary = &p
	}
	return h
}

// View is a fake live view.
type View struct {
	host    *Host
	label   string
	url     *url.URL
	bounds  platform.Rect
	visible bool
	hidden  bool
	closed  bool
	opts    platform.WindowOptions
}

var _ platform.View = (*View)(nil)

func (h *Host) Displays() ([]platform.Display, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.DisplaysErr != nil {
		return nil, h.DisplaysErr
	}
	out := make([]platform.Display, len(h.DisplayList))
	copy(out, h.DisplayList)
	return out, nil
}

func (h *Host) PrimaryDisplay() (*platform.Display, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.DisplaysErr != nil {
		return nil, h.DisplaysErr
	}
	if h.Primary == nil {
		return nil, nil
	}
	p := *h.Primary
	return &p, nil
}

func (h *Host) LookupView(label string) (platform.View, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.views[label]
	if !ok {
		return nil, false, nil
	}
	return v, true, nil
}

func (h *Host) Views() ([]platform.View, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	labels := make([]string, 0, len(h.views))
	for label := range h.views {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	out := make([]platform.View, 0, len(labels))
	for _, label := range labels {
		out = append(out, h.views[label])
	}
	return out, nil
}

func (h *Host) CreateView(opts platform.WindowOptions) (platform.View, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.failLocked("create", opts.Label); err != nil {
		return nil, err
	}
	if _, exists := h.views[opts.Label]; exists {
		return nil, fmt.Errorf("window label %q already exists", opts.Label)
	}
	if h.views == nil {
		h.views = make(map[string]*View)
	}
	v := &View{host: h, label: opts.Label, url: opts.URL, visible: true, opts: opts}
	h.views[opts.Label] = v
	h.created = append(h.created, opts)
	h.recordLocked("create", opts.Label, urlString(opts.URL))
	return v, nil
}

// AddView registers a pre-existing live view, as if created outside the code
// under test.
func (h *Host) AddView(label string, u *url.URL, bounds platform.Rect) *View {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.views == nil {
		h.views = make(map[string]*View)
	}
	v := &View{host: h, label: label, url: u, bounds: bounds, visible: true}
	h.views[label] = v
	return v
}

// RemoveView drops a view without recording a call, simulating a window
// closed from outside.
func (h *Host) RemoveView(label string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.views, label)
}

// Calls returns a copy of every recorded call in order.
func (h *Host) Calls() []Call {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Call, len(h.calls))
	copy(out, h.calls)
	return out
}

// CallsFor returns the recorded calls with the given op.
func (h *Host) CallsFor(op string) []Call {
	var out []Call
	for _, c := range h.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Created returns the options of every CreateView call that succeeded.
func (h *Host) Created() []platform.WindowOptions {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]platform.WindowOptions, len(h.created))
	copy(out, h.created)
	return out
}

// ResetCalls clears the call log.
func (h *Host) ResetCalls() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = nil
	h.created = nil
}

// View returns the fake view with label, or nil.
func (h *Host) View(label string) *View {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.views[label]
}

func (h *Host) recordLocked(op, label, arg string) {
	h.calls = append(h.calls, Call{Op: op, Label: label, Arg: arg})
}

func (h *Host) failLocked(op, label string) error {
	want, ok := h.FailOn[op]
	if !ok {
		return nil
	}
	if want == "" || want == label {
		return fmt.Errorf("fake %s failure for %s", op, label)
	}
	return nil
}

func (v *View) do(op, arg string, apply func()) error {
	v.host.mu.Lock()
	defer v.host.mu.Unlock()
	if v.closed {
		return fmt.Errorf("view %s is closed", v.label)
	}
	if err := v.host.failLocked(op, v.label); err != nil {
		return err
	}
	apply()
	v.host.recordLocked(op, v.label, arg)
	return nil
}

func (v *View) Label() string { return v.label }

func (v *View) URL() *url.URL {
	v.host.mu.Lock()
	defer v.host.mu.Unlock()
	return v.url
}

func (v *View) Navigate(u *url.URL) error {
	return v.do("navigate", urlString(u), func() { v.url = u })
}

func (v *View) SetPosition(x, y int) error {
	return v.do("position", fmt.Sprintf("%d,%d", x, y), func() {
		v.bounds.X = x
		v.bounds.Y = y
	})
}

func (v *View) SetSize(width, height uint) error {
	return v.do("size", fmt.Sprintf("%dx%d", width, height), func() {
		v.bounds.Width = width
		v.bounds.Height = height
	})
}

func (v *View) Show() error {
	return v.do("show", "", func() {
		v.visible = true
		v.hidden = false
	})
}

func (v *View) Minimize() error {
	return v.do("minimize", "", func() { v.visible = false })
}

func (v *View) Hide() error {
	return v.do("hide", "", func() {
		v.visible = false
		v.hidden = true
	})
}

func (v *View) Close() error {
	if err := v.do("close", "", func() { v.closed = true }); err != nil {
		return err
	}
	v.host.mu.Lock()
	delete(v.host.views, v.label)
	v.host.mu.Unlock()
	return nil
}

// Bounds returns the view's current geometry.
func (v *View) Bounds() platform.Rect {
	v.host.mu.Lock()
	defer v.host.mu.Unlock()
	return v.bounds
}

// Visible reports whether the view is currently shown.
func (v *View) Visible() bool {
	v.host.mu.Lock()
	defer v.host.mu.Unlock()
	return v.visible
}

// Options returns the creation options, zero for views added via AddView.
func (v *View) Options() platform.WindowOptions {
	return v.opts
}

func urlString(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.String()
}
