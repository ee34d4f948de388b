package scheduler

import (
	"context"
	"encoding/json"
	"os"
	"strconv"

	"github.com/cronhub/scheduler/internal/domain"
	"github.com/cronhub/scheduler/internal/metrics"
	"github.com/cronhub/scheduler/internal/registry"
)

// RunWorkers spawns n goroutines consuming firingTasks from e.tasks. It
// returns immediately; call Wait to block until every worker has drained
// and exited after ctx is cancelled.
func (e *Engine) RunWorkers(ctx context.Context, n int) {
	for i := 0; i < n; i++ {
		e.wg.Add(1)
		go e.workerLoop(ctx)
	}
}

// Wait blocks until every worker goroutine started by RunWorkers has
// returned. Call after cancelling ctx.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) workerLoop(ctx context.Context) {
	defer e.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-e.tasks:
			e.runFiring(ctx, task)
		}
	}
}

// runFiring is the full per-firing lifecycle: claim (RUNNING), PreRun hook,
// Run, terminal state write (SUCCEEDED/FAILED), PostRun hook, bookkeeping.
// Errors from the job body never escape this call; only store failures are
// logged. A misbehaving job body must never take down the scheduler thread.
func (e *Engine) runFiring(ctx context.Context, task firingTask) {
	defer e.finishFiring(task.jobID)

	claimedAt := e.clockNow()
	exec, err := e.store.GetExecution(ctx, task.executionID)
	if err != nil {
		e.logger.Error("load execution before claiming", "execution_id", task.executionID, "error", err)
		return
	}
	metrics.JobPickupLatency.Observe(claimedAt.Sub(exec.UpdatedTime).Seconds())

	exec.State = domain.ExecutionRunning
	exec.Hostname = e.cfg.Hostname
	exec.PID = os.Getpid()
	exec.UpdatedTime = claimedAt
	if err := e.store.UpdateExecution(ctx, exec); err != nil {
		e.logger.Error("claim execution as running", "execution_id", task.executionID, "error", err)
		return
	}

	body, err := registry.Resolve(task.jobClassString)
	if err != nil {
		// Should not happen: dispatchFiring already resolved this class
		// before enqueuing the task. Handle defensively anyway.
		e.finishAsFailed(ctx, exec, task, err, err.Error(), err.Error())
		return
	}

	hooks, hasHooks := body.(registry.Hooks)
	if hasHooks {
		hooks.PreRun(ctx, task.jobID, task.executionID)
	}

	start := e.clockNow()
	result, runErr := body.Run(ctx, task.jobID, task.executionID, task.pubArgs)
	duration := e.clockNow().Sub(start)

	if runErr != nil {
		e.finishAsFailed(ctx, exec, task, runErr, body.FailedDescription(runErr), body.FailedResult(runErr))
		if hasHooks {
			hooks.PostRun(ctx, task.jobID, task.executionID, result, runErr)
		}
		metrics.JobExecutionDuration.WithLabelValues(string(domain.ExecutionFailed)).Observe(duration.Seconds())
		metrics.JobsCompletedTotal.WithLabelValues(string(domain.ExecutionFailed)).Inc()
		return
	}

	resultJSON, marshalErr := canonicalJSON(result)
	if marshalErr != nil {
		e.logger.Error("marshal job result", "job_id", task.jobID, "error", marshalErr)
		resultJSON = strconv.Quote(marshalErr.Error())
	}

	exec.State = domain.ExecutionSucceeded
	exec.Description = body.SucceededDescription(result)
	exec.Result = resultJSON
	exec.UpdatedTime = e.clockNow()
	if err := e.store.UpdateExecution(ctx, exec); err != nil {
		e.logger.Error("write succeeded execution", "execution_id", task.executionID, "error", err)
	}
	if hasHooks {
		hooks.PostRun(ctx, task.jobID, task.executionID, result, nil)
	}

	metrics.JobExecutionDuration.WithLabelValues(string(domain.ExecutionSucceeded)).Observe(duration.Seconds())
	metrics.JobsCompletedTotal.WithLabelValues(string(domain.ExecutionSucceeded)).Inc()
}

func (e *Engine) finishAsFailed(ctx context.Context, exec *domain.Execution, task firingTask, runErr error, description, result string) {
	exec.State = domain.ExecutionFailed
	exec.Description = description
	exec.Result = result
	exec.UpdatedTime = e.clockNow()
	if err := e.store.UpdateExecution(ctx, exec); err != nil {
		e.logger.Error("write failed execution", "execution_id", task.executionID, "error", err)
	}
	if e.notifier != nil {
		if err := e.notifier.Notify(ctx, task.jobName, description); err != nil {
			e.logger.Warn("notify failed execution", "job_id", task.jobID, "error", err)
		}
	}
}

func (e *Engine) finishFiring(jobID string) {
	e.mu.Lock()
	if js, ok := e.jobs[jobID]; ok && js.runningCount > 0 {
		js.runningCount--
	}
	e.mu.Unlock()
	metrics.JobsInFlight.Dec()
}

// canonicalJSON encodes v with sorted keys and two-space indentation, so
// that two runs of the same deterministic job body produce byte-identical
// execution results.
func canonicalJSON(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
