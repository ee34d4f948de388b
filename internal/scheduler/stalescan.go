package scheduler

import (
	"context"
	"time"

	"github.com/cronhub/scheduler/internal/metrics"
)

// RunStaleScan periodically counts RUNNING executions whose updated_time is
// older than cfg.StaleAfter — a worker that died mid-flight without ever
// writing a terminal state — and publishes the count on
// scheduler_stale_running_executions. It never transitions a row itself;
// spec forbids automatic retry or resolution of a stuck firing, so this is
// observability only. Returns when ctx is cancelled. A zero
// StaleScanInterval disables the loop entirely.
func (e *Engine) RunStaleScan(ctx context.Context) {
	if e.cfg.StaleScanInterval <= 0 {
		return
	}
	ticker := time.NewTicker(e.cfg.StaleScanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.scanStale(ctx)
		}
	}
}

func (e *Engine) scanStale(ctx context.Context) {
	count, err := e.store.CountStaleRunningExecutions(ctx, e.clockNow().Add(-e.cfg.StaleAfter))
	if err != nil {
		e.logger.Error("stale execution scan", "error", err)
		return
	}
	metrics.StaleRunningExecutions.Set(float64(count))
}
