//go:build !linux

package platform

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/1broseidon/wallboard/internal/browser"
)

// OpenHost reports that no native host exists for this platform.
func OpenHost(launcher *browser.Launcher, logger *slog.Logger) (NativeHost, error) {
	return nil, fmt.Errorf("no native window host for %s", runtime.GOOS)
}
