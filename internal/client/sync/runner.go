package sync

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/iudanet/offlinedesk/internal/client/wake"
)

// Drainer runs one pass over the queue
type Drainer interface {
	ProcessQueue(ctx context.Context) (*Result, error)
}

// Runner guarantees that at most one drain pass runs at a time and
// schedules passes on a timer and on wake signals.
type Runner struct {
	drainer  Drainer
	listener wake.Listener
	logger   *slog.Logger
	interval time.Duration
	running  atomic.Bool
}

// NewRunner creates a runner. listener may be nil; interval <= 0 disables
// the periodic pass.
func NewRunner(drainer Drainer, listener wake.Listener, interval time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		drainer:  drainer,
		listener: listener,
		interval: interval,
		logger:   logger,
	}
}

// Trigger runs a pass unless one is already in flight. ok is false when
// the call was skipped.
func (r *Runner) Trigger(ctx context.Context) (result *Result, ok bool, err error) {
	if !r.running.CompareAndSwap(false, true) {
		r.logger.Debug("Sync already in progress, skipping")
		return nil, false, nil
	}
	defer r.running.Store(false)

	result, err = r.drainer.ProcessQueue(ctx)
	return result, true, err
}

// Running reports whether a pass is in flight
func (r *Runner) Running() bool {
	return r.running.Load()
}

// Run drains once immediately, then on every tick and wake signal until
// ctx is done. Pass errors are logged, not returned.
func (r *Runner) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if r.interval > 0 {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var wakeC <-chan struct{}
	if r.listener != nil {
		wakeC = r.listener.C()
	}

	r.drain(ctx, "startup")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			r.drain(ctx, "interval")
		case <-wakeC:
			r.drain(ctx, "wake")
		}
	}
}

func (r *Runner) drain(ctx context.Context, reason string) {
	result, ok, err := r.Trigger(ctx)
	if !ok {
		return
	}
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Error("Sync pass failed", "reason", reason, "error", err)
		}
		return
	}
	if result.Success > 0 || result.Failed > 0 {
		r.logger.Info("Sync pass finished", "reason", reason, "success", result.Success, "failed", result.Failed)
	}
}
