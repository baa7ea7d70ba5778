// Package daemon runs reconciliation jobs on a single dedicated goroutine.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrStopped is returned for jobs submitted after the worker stopped.
var ErrStopped = errors.New("worker stopped")

type job struct {
	name string
	fn   func() error
	done chan error
}

// Worker executes jobs one at a time in submission order. Every window
// mutation in the daemon goes through it, whatever goroutine asked for it.
type Worker struct {
	jobs    chan job
	stopped chan struct{}
	logger  *slog.Logger
}

// NewWorker creates a worker with room for queue pending jobs.
func NewWorker(queue int, logger *slog.Logger) *Worker {
	if queue < 1 {
		queue = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		jobs:    make(chan job, queue),
		stopped: make(chan struct{}),
		logger:  logger,
	}
}

// Run processes jobs until ctx is cancelled. Jobs still queued at that point
// fail with ErrStopped.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("worker started")
	defer func() {
		close(w.stopped)
		for {
			select {
			case j := <-w.jobs:
				j.done <- ErrStopped
			default:
				w.logger.Info("worker stopped")
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case j := <-w.jobs:
			j.done <- w.execute(j)
		}
	}
}

func (w *Worker) execute(j job) (err error) {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("job panic recovered", "job", j.name, "panic", r)
			err = fmt.Errorf("%s: panic: %v", j.name, r)
		}
	}()

	start := time.Now()
	err = j.fn()
	if err != nil {
		w.logger.Error("job failed", "job", j.name, "error", err, "elapsed", time.Since(start))
		return err
	}
	w.logger.Debug("job done", "job", j.name, "elapsed", time.Since(start))
	return nil
}

// Do runs fn on the worker and waits for its result. If ctx ends first the
// job may still run later; only the wait is abandoned.
func (w *Worker) Do(ctx context.Context, name string, fn func() error) error {
	j := job{name: name, fn: fn, done: make(chan error, 1)}
	select {
	case <-w.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	case w.jobs <- j:
	}

	select {
	case err := <-j.done:
		return err
	case <-w.stopped:
		select {
		case err := <-j.done:
			return err
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit queues fn without waiting. Failures are logged by the worker. It
// returns false when the queue is full or the worker has stopped.
func (w *Worker) Submit(name string, fn func() error) bool {
	j := job{name: name, fn: fn, done: make(chan error, 1)}
	select {
	case <-w.stopped:
		return false
	default:
	}
	select {
	case w.jobs <- j:
		return true
	default:
		w.logger.Warn("worker queue full, dropping job", "job", name)
		return false
	}
}
