package main

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/presence/core"
	"github.com/trezcool/presence/core/reconcile"
)

type autoAbsentRunner interface {
	RunAutoAbsent(ctx context.Context, date time.Time) (reconcile.Report, error)
}

// runner runs the auto-absent job on a fixed interval and keeps the outcome of the last run.
type runner struct {
	svc      autoAbsentRunner
	interval time.Duration
	logger   core.Logger

	mu      sync.Mutex
	last    *reconcile.Report
	lastErr error
}

func newRunner(svc autoAbsentRunner, interval time.Duration, logger core.Logger) *runner {
	return &runner{svc: svc, interval: interval, logger: logger}
}

// runOnce reconciles date, today when zero.
func (r *runner) runOnce(ctx context.Context, date time.Time) (reconcile.Report, error) {
	rep, err := r.svc.RunAutoAbsent(ctx, date)

	r.mu.Lock()
	r.last, r.lastErr = &rep, err
	r.mu.Unlock()

	if err != nil {
		fields := map[string]interface{}{"date": core.DateKey(rep.Date), "inserted": rep.NewlyAbsent}
		if _, ok := core.AsBatchError(err); ok {
			r.logger.Warn("auto-absent run partially failed", err, fields)
		} else {
			r.logger.Error("auto-absent run failed", err, fields)
		}
	}
	return rep, err
}

// lastRun returns nil until the first run.
func (r *runner) lastRun() (*reconcile.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.lastErr
}

// start blocks, running the job on every tick until ctx is done.
func (r *runner) start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = r.runOnce(ctx, time.Time{})
		}
	}
}
