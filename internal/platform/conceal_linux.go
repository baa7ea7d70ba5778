//go:build linux

package platform

// DefaultConcealMode is the conceal strategy used on X11.
const DefaultConcealMode = ConcealMinimize
