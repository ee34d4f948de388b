package scheduler

import (
	"container/heap"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cronhub/scheduler/internal/domain"
	"github.com/cronhub/scheduler/internal/metrics"
	"github.com/cronhub/scheduler/internal/registry"
)

// ErrMaxInstances is returned by ManualRun when the job already has
// job_max_instances firings in flight.
var ErrMaxInstances = errors.New("scheduler: job max instances reached")

// firingTask is everything a worker needs to run one firing, copied out of
// jobState so workers never touch Engine's mutex-guarded maps.
type firingTask struct {
	executionID    string
	jobID          string
	jobName        string
	jobClassString string
	pubArgs        []json.RawMessage
	categoryID     int
	scheduledTime  time.Time
}

// RunLoop is the scheduler thread: peek the earliest trigger, sleep until
// it's due or a wakeup signal arrives, then dispatch everything that's due.
// Returns when ctx is cancelled.
func (e *Engine) RunLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		if !e.okayToRun(ctx, e.store) {
			e.logger.Warn("okayToRun returned false, standing down", "wait_seconds", DefaultWaitSeconds)
			select {
			case <-ctx.Done():
				return
			case <-time.After(DefaultWaitSeconds * time.Second):
				continue
			}
		}

		sleepFor := e.sleepDuration()
		timer := time.NewTimer(sleepFor)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		case <-e.wake:
			timer.Stop()
		}

		e.Tick(ctx)
	}
}

func (e *Engine) sleepDuration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.heap.Len() == 0 {
		return time.Hour
	}
	d := e.heap[0].runTime.Sub(e.clockNow())
	if d < 0 {
		return 0
	}
	return d
}

// Tick runs one full dispatch cycle: every trigger due at the current
// instant is processed, and because processing may reinsert a trigger that
// is immediately due again (the non-coalesce catch-up path), it loops until
// nothing is left due.
func (e *Engine) Tick(ctx context.Context) {
	for {
		due := e.popDue()
		if len(due) == 0 {
			return
		}
		for _, t := range due {
			e.process(ctx, t)
		}
	}
}

func (e *Engine) popDue() []*trigger {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clockNow()
	var due []*trigger
	for e.heap.Len() > 0 && !e.heap[0].runTime.After(now) {
		due = append(due, heap.Pop(&e.heap).(*trigger))
	}
	return due
}

// process applies the misfire and coalesce policy to one due trigger, then
// either dispatches a firing or records a SCHEDULED_ERROR skip, and always
// reinserts the job's next occurrence.
func (e *Engine) process(ctx context.Context, t *trigger) {
	e.mu.Lock()
	js, ok := e.jobs[t.jobID]
	if !ok || js.trig != t {
		// Job was deleted, replaced, or paused since this trigger was
		// popped; this heap entry is stale, drop it.
		e.mu.Unlock()
		return
	}
	job := js.job
	runningCount := js.runningCount
	e.mu.Unlock()

	now := e.clockNow()
	elapsed := now.Sub(t.runTime)

	var nextBase time.Time
	switch {
	case elapsed > e.cfg.MisfireGrace:
		e.writeScheduledError(ctx, job, t.runTime, "misfire: exceeded misfire_grace_sec")
		metrics.MisfiresTotal.WithLabelValues("misfire_grace").Inc()
		nextBase = now

	case runningCount >= e.cfg.JobMaxInstances:
		e.writeScheduledError(ctx, job, t.runTime, "max instances reached")
		metrics.MisfiresTotal.WithLabelValues("max_instances").Inc()
		nextBase = now

	default:
		e.dispatchFiring(ctx, job, t.runTime)
		if e.cfg.Coalesce {
			nextBase = now
		} else {
			nextBase = t.runTime
		}
	}

	e.mu.Lock()
	if js, ok := e.jobs[t.jobID]; ok && !js.job.Paused {
		e.scheduleLocked(js, nextBase)
	}
	e.mu.Unlock()

	if err := e.store.UpdateJob(ctx, job); err != nil {
		e.logger.Error("persist next_run_time", "job_id", job.ID, "error", err)
	}
}

// writeScheduledError records a firing that was abandoned before Run was
// called. Category is the job's currently linked category, resolved at
// write time so a concurrent SetJobCategory is reflected.
func (e *Engine) writeScheduledError(ctx context.Context, job *domain.Job, scheduledTime time.Time, reason string) {
	categoryID, err := e.store.GetJobCategoryID(ctx, job.ID)
	if err != nil {
		e.logger.Error("resolve job category for scheduled_error", "job_id", job.ID, "error", err)
	}
	now := e.clockNow()
	exec := &domain.Execution{
		ID:            uuid.NewString(),
		JobID:         job.ID,
		State:         domain.ExecutionScheduledError,
		ScheduledTime: scheduledTime,
		UpdatedTime:   now,
		Description:   reason,
		CategoryID:    nullableCategory(categoryID),
	}
	if err := e.store.AddExecution(ctx, exec); err != nil {
		e.logger.Error("write scheduled_error execution", "job_id", job.ID, "error", err)
	}
	if e.notifier != nil {
		if err := e.notifier.Notify(ctx, job.Name, reason); err != nil {
			e.logger.Warn("notify scheduled_error", "job_id", job.ID, "error", err)
		}
	}
}

// nullableCategory stores the unscoped sentinel category (0) as NULL,
// never as a literal zero, so joins against a real category id stay clean.
func nullableCategory(categoryID int) *int {
	if categoryID == domain.CategoryAll {
		return nil
	}
	c := categoryID
	return &c
}

// dispatchFiring writes the initial SCHEDULED row, increments the job's
// running count, and hands the firing to the worker pool.
func (e *Engine) dispatchFiring(ctx context.Context, job *domain.Job, scheduledTime time.Time) string {
	categoryID, err := e.store.GetJobCategoryID(ctx, job.ID)
	if err != nil {
		e.logger.Error("resolve job category for dispatch", "job_id", job.ID, "error", err)
	}

	body, resolveErr := registry.Resolve(job.JobClassString)
	description := ""
	if resolveErr == nil {
		description = body.ScheduledDescription(job.PubArgs)
	}

	exec := &domain.Execution{
		ID:            uuid.NewString(),
		JobID:         job.ID,
		State:         domain.ExecutionScheduled,
		ScheduledTime: scheduledTime,
		UpdatedTime:   e.clockNow(),
		Description:   description,
		CategoryID:    nullableCategory(categoryID),
	}
	if err := e.store.AddExecution(ctx, exec); err != nil {
		e.logger.Error("write scheduled execution", "job_id", job.ID, "error", err)
		return ""
	}

	if resolveErr != nil {
		e.logger.Error("job class unresolvable at firing time", "job_id", job.ID, "job_class_string", job.JobClassString)
		exec.State = domain.ExecutionScheduledError
		exec.Description = resolveErr.Error()
		exec.UpdatedTime = e.clockNow()
		if err := e.store.UpdateExecution(ctx, exec); err != nil {
			e.logger.Error("write scheduled_error execution", "job_id", job.ID, "error", err)
		}
		if e.notifier != nil {
			_ = e.notifier.Notify(ctx, job.Name, "job class unresolvable: "+job.JobClassString)
		}
		return exec.ID
	}

	e.mu.Lock()
	if js, ok := e.jobs[job.ID]; ok {
		js.runningCount++
	}
	e.mu.Unlock()
	metrics.JobsInFlight.Inc()

	task := firingTask{
		executionID:    exec.ID,
		jobID:          job.ID,
		jobName:        job.Name,
		jobClassString: job.JobClassString,
		pubArgs:        job.PubArgs,
		categoryID:     categoryID,
		scheduledTime:  scheduledTime,
	}

	select {
	case e.tasks <- task:
	case <-ctx.Done():
	}
	return exec.ID
}

// ManualRun dispatches job immediately, bypassing the cron trigger. Unlike
// a cron firing, it does not touch the job's next_run_time. The
// max_instances policy still applies.
func (e *Engine) ManualRun(ctx context.Context, jobID string) (executionID string, err error) {
	e.mu.Lock()
	js, ok := e.jobs[jobID]
	if !ok {
		e.mu.Unlock()
		return "", domain.ErrJobNotFound
	}
	job := js.job
	running := js.runningCount
	e.mu.Unlock()

	if running >= e.cfg.JobMaxInstances {
		e.writeScheduledError(ctx, job, e.clockNow(), "max instances reached")
		metrics.MisfiresTotal.WithLabelValues("max_instances").Inc()
		return "", ErrMaxInstances
	}

	now := e.clockNow()
	return e.dispatchFiring(ctx, job, now), nil
}
