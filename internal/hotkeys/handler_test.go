package hotkeys

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

func TestIgnoreMasks(t *testing.T) {
	tests := []struct {
		name              string
		caps, num, scroll uint16
		want              []uint16
	}{
		{"caps only", 2, 0, 0, []uint16{0, 2}},
		{"caps and numlock", 2, 16, 0, []uint16{0, 2, 16, 18}},
		{"all three", 2, 16, 128, []uint16{0, 2, 16, 18, 128, 130, 144, 146}},
		{"numlock same as caps", 2, 2, 0, []uint16{0, 2}},
		{"scroll same as num", 2, 16, 16, []uint16{0, 2, 16, 18}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ignoreMasks(tt.caps, tt.num, tt.scroll); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ignoreMasks() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewHandler_RequiresX11(t *testing.T) {
	if _, err := NewHandler(struct{}{}, nil); !errors.Is(err, ErrNoX11) {
		t.Fatalf("NewHandler() error = %v, want ErrNoX11", err)
	}
}

func TestTrigger_DropsOverlappingPresses(t *testing.T) {
	h := &Handler{running: make(map[string]bool)}
	h.logger = discardLogger()

	release := make(chan struct{})
	var calls int32
	started := make(chan struct{}, 2)
	action := func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		started <- struct{}{}
		<-release
		return nil
	}

	h.trigger("toggle", action)
	<-started
	h.trigger("toggle", action)
	close(release)

	deadline := time.After(2 * time.Second)
	for {
		h.mu.Lock()
		busy := h.running["toggle"]
		h.mu.Unlock()
		if !busy {
			break
		}
		select {
		case <-deadline:
			t.Fatal("action did not finish")
		case <-time.After(time.Millisecond):
		}
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("action ran %d times, want 1", n)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
