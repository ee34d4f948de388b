// Package scheduler holds the in-memory trigger model and wake loop that
// drives job firings, plus the bounded worker pool that runs them: a single
// mutex-guarded structure plus a buffered wakeup channel, fed by a bounded
// pool of worker goroutines, with triggers held in an in-process
// container/heap min-heap.
package scheduler

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cronhub/scheduler/internal/cronexpr"
	"github.com/cronhub/scheduler/internal/domain"
	"github.com/cronhub/scheduler/internal/registry"
	"github.com/cronhub/scheduler/internal/store"
)

// DefaultWaitSeconds is how long the engine sleeps before retrying
// OkayToRun when it returns false, matching DEFAULT_WAIT_SECONDS.
const DefaultWaitSeconds = 60

// Notifier is called, best-effort, whenever a firing resolves to FAILED or
// SCHEDULED_ERROR. Errors are logged, never propagated.
type Notifier interface {
	Notify(ctx context.Context, jobName, reason string) error
}

// OkayToRunFunc gates whether the engine should dispatch this cycle, the
// warm-standby hook for active/passive deployments. The default always
// returns true.
type OkayToRunFunc func(ctx context.Context, st store.Store) bool

// Engine owns every in-memory Trigger and drives the wake loop. Construct
// with New, load persisted jobs with LoadAll, then run the wake loop with
// RunLoop and the worker pool with RunWorkers.
type Engine struct {
	cfg      Config
	store    store.Store
	logger   *slog.Logger
	notifier Notifier
	okayToRun OkayToRunFunc

	mu     sync.Mutex
	jobs   map[string]*jobState
	heap   triggerHeap
	wake   chan struct{}

	tasks chan firingTask
	wg    sync.WaitGroup

	clockNow func() time.Time
}

// New constructs an Engine. notifier may be nil (no-op). okayToRun may be
// nil, in which case the engine always proceeds.
func New(cfg Config, st store.Store, logger *slog.Logger, notifier Notifier, okayToRun OkayToRunFunc) *Engine {
	if okayToRun == nil {
		okayToRun = func(context.Context, store.Store) bool { return true }
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{
		cfg:       cfg,
		store:     st,
		logger:    logger.With("component", "scheduler"),
		notifier:  notifier,
		okayToRun: okayToRun,
		jobs:      make(map[string]*jobState),
		wake:      make(chan struct{}, 1),
		tasks:     make(chan firingTask, 256),
		clockNow:  func() time.Time { return time.Now().In(loc) },
	}
}

// LoadAll populates the engine's in-memory triggers from every persisted,
// resolvable, non-paused job. Jobs whose job_class_string doesn't resolve
// are kept out of the heap but still show up in listings via the store
// directly — unrunnable, not deleted.
func (e *Engine) LoadAll(ctx context.Context) error {
	jobs, err := e.store.ListJobs(ctx, domain.CategoryAll)
	if err != nil {
		return fmt.Errorf("scheduler: load jobs: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, job := range jobs {
		expr, err := cronexpr.Parse(job.Trigger.Minute, job.Trigger.Hour, job.Trigger.Day, job.Trigger.Month, job.Trigger.DayOfWeek)
		if err != nil {
			e.logger.Error("skipping job with invalid trigger at load", "job_id", job.ID, "error", err)
			continue
		}
		js := newJobState(job, expr)
		e.jobs[job.ID] = js
		if !job.Paused {
			if _, err := registry.Resolve(job.JobClassString); err != nil {
				e.logger.Warn("job class unresolvable at load, leaving unscheduled", "job_id", job.ID, "job_class_string", job.JobClassString)
				continue
			}
			e.scheduleLocked(js, e.clockNow())
		}
	}
	return nil
}

// scheduleLocked computes js's next occurrence strictly after `after` and,
// if one exists, pushes a trigger onto the heap. Must hold e.mu.
func (e *Engine) scheduleLocked(js *jobState, after time.Time) {
	next, ok := js.expr.Next(after)
	if !ok {
		js.trig = nil
		js.job.NextRunTime = nil
		return
	}
	t := &trigger{jobID: js.job.ID, runTime: next}
	js.trig = t
	js.job.NextRunTime = &next
	heap.Push(&e.heap, t)
}

// signal wakes the wake loop without blocking if it is already pending.
func (e *Engine) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// AddJob registers a freshly persisted job with the engine and wakes the
// loop so it can be picked up immediately if due soon.
func (e *Engine) AddJob(job *domain.Job) error {
	expr, err := cronexpr.Parse(job.Trigger.Minute, job.Trigger.Hour, job.Trigger.Day, job.Trigger.Month, job.Trigger.DayOfWeek)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidTrigger, err)
	}

	e.mu.Lock()
	js := newJobState(job, expr)
	e.jobs[job.ID] = js
	if !job.Paused {
		e.scheduleLocked(js, e.clockNow())
	}
	e.mu.Unlock()

	e.signal()
	return nil
}

// RemoveJob drops a job's in-memory state entirely. Its heap entry, if any,
// is left in place and discarded lazily when popped (its jobID won't be
// found in e.jobs anymore).
func (e *Engine) RemoveJob(jobID string) {
	e.mu.Lock()
	delete(e.jobs, jobID)
	e.mu.Unlock()
	e.signal()
}

// ReplaceJob is used by PUT /jobs/{id} when job_class_string or pub_args
// changed: the job is deleted and recreated under the same id.
func (e *Engine) ReplaceJob(job *domain.Job) error {
	e.RemoveJob(job.ID)
	return e.AddJob(job)
}

// SetPaused pauses or resumes a job's trigger in memory.
func (e *Engine) SetPaused(jobID string, paused bool) error {
	e.mu.Lock()
	js, ok := e.jobs[jobID]
	if !ok {
		e.mu.Unlock()
		return domain.ErrJobNotFound
	}
	js.job.Paused = paused
	if paused {
		js.trig = nil
		js.job.NextRunTime = nil
	} else {
		e.scheduleLocked(js, e.clockNow())
	}
	e.mu.Unlock()

	e.signal()
	return nil
}

// RunningCount reports how many firings are currently in flight for jobID.
func (e *Engine) RunningCount(jobID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if js, ok := e.jobs[jobID]; ok {
		return js.runningCount
	}
	return 0
}
