package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cronhub/scheduler/internal/cronexpr"
	"github.com/cronhub/scheduler/internal/domain"

	_ "github.com/cronhub/scheduler/jobs/echo"
)

// ---- fake store ----

type fakeStore struct {
	executions map[string]*domain.Execution
	categories map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{executions: map[string]*domain.Execution{}, categories: map[string]int{}}
}

func (f *fakeStore) CreateJob(context.Context, *domain.Job) error { return nil }
func (f *fakeStore) GetJob(context.Context, string) (*domain.Job, error) {
	return nil, domain.ErrJobNotFound
}
func (f *fakeStore) ListJobs(context.Context, int) ([]*domain.Job, error) { return nil, nil }
func (f *fakeStore) UpdateJob(context.Context, *domain.Job) error         { return nil }
func (f *fakeStore) DeleteJob(context.Context, string) error              { return nil }
func (f *fakeStore) SetPaused(context.Context, string, bool) error        { return nil }

func (f *fakeStore) AddExecution(_ context.Context, e *domain.Execution) error {
	f.executions[e.ID] = e
	return nil
}
func (f *fakeStore) UpdateExecution(_ context.Context, e *domain.Execution) error {
	f.executions[e.ID] = e
	return nil
}
func (f *fakeStore) GetExecution(_ context.Context, id string) (*domain.Execution, error) {
	e, ok := f.executions[id]
	if !ok {
		return nil, domain.ErrExecutionNotFound
	}
	return e, nil
}
func (f *fakeStore) GetExecutionsInRange(context.Context, time.Time, time.Time, int) ([]*domain.Execution, error) {
	return nil, nil
}
func (f *fakeStore) CountStaleRunningExecutions(context.Context, time.Time) (int, error) { return 0, nil }

func (f *fakeStore) AddAuditLog(context.Context, *domain.AuditLog) error { return nil }
func (f *fakeStore) GetAuditLogsInRange(context.Context, time.Time, time.Time, int) ([]*domain.AuditLog, error) {
	return nil, nil
}

func (f *fakeStore) AddUser(context.Context, *domain.User, string) error { return nil }
func (f *fakeStore) GetUser(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}
func (f *fakeStore) GetUserByID(context.Context, int) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}
func (f *fakeStore) ListUsers(context.Context) ([]*domain.User, error)      { return nil, nil }
func (f *fakeStore) UpdateUser(context.Context, *domain.User, string) error { return nil }
func (f *fakeStore) DeleteUser(context.Context, int) error                 { return nil }
func (f *fakeStore) VerifyPassword(context.Context, string, string) (bool, error) {
	return false, nil
}
func (f *fakeStore) CheckUserExists(context.Context, string) (bool, error) { return true, nil }

func (f *fakeStore) AddCategory(context.Context, *domain.Category) error { return nil }
func (f *fakeStore) GetCategory(context.Context, int) (*domain.Category, error) {
	return nil, domain.ErrCategoryNotFound
}
func (f *fakeStore) ListCategories(context.Context) ([]*domain.Category, error) { return nil, nil }
func (f *fakeStore) UpdateCategory(context.Context, *domain.Category) error     { return nil }
func (f *fakeStore) DeleteCategory(context.Context, int) error                 { return nil }
func (f *fakeStore) SetJobCategory(_ context.Context, jobID string, categoryID int) error {
	f.categories[jobID] = categoryID
	return nil
}
func (f *fakeStore) GetJobCategoryID(_ context.Context, jobID string) (int, error) {
	return f.categories[jobID], nil
}

func (f *fakeStore) Ping(context.Context) error { return nil }

// ---- helpers ----

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func testJob(id string) *domain.Job {
	return &domain.Job{
		ID:             id,
		Name:           "test-job",
		JobClassString: "echo",
		PubArgs:        []json.RawMessage{json.RawMessage(`"hello"`)},
		Trigger:        domain.Trigger{Minute: "*"},
	}
}

// ---- dispatch + worker lifecycle (spec S1) ----

func TestDispatchFiring_RunsToSucceeded(t *testing.T) {
	st := newFakeStore()
	e := New(DefaultConfig(), st, testLogger(), nil, nil)
	job := testJob("job-1")

	execID := e.dispatchFiring(context.Background(), job, e.clockNow())
	if execID == "" {
		t.Fatal("want a non-empty execution id")
	}
	if st.executions[execID].State != domain.ExecutionScheduled {
		t.Fatalf("want SCHEDULED immediately after dispatch, got %s", st.executions[execID].State)
	}

	select {
	case task := <-e.tasks:
		e.runFiring(context.Background(), task)
	default:
		t.Fatal("want a firing task queued on e.tasks")
	}

	if st.executions[execID].State != domain.ExecutionSucceeded {
		t.Errorf("want SUCCEEDED after runFiring, got %s", st.executions[execID].State)
	}
}

// ---- misfire / coalesce / max_instances (spec S6) ----

func TestProcess_MisfireBeyondGrace_WritesScheduledErrorAndSkipsDispatch(t *testing.T) {
	st := newFakeStore()
	cfg := DefaultConfig()
	cfg.MisfireGrace = time.Minute
	e := New(cfg, st, testLogger(), nil, nil)

	now := time.Now()
	e.clockNow = func() time.Time { return now }

	job := testJob("job-2")
	expr := mustParseExpr(t, job)
	js := newJobState(job, expr)
	e.jobs[job.ID] = js

	trig := &trigger{jobID: job.ID, runTime: now.Add(-2 * time.Hour)}
	js.trig = trig

	e.process(context.Background(), trig)

	select {
	case <-e.tasks:
		t.Fatal("want no firing dispatched for a misfired trigger")
	default:
	}

	var found bool
	for _, exec := range st.executions {
		if exec.JobID == job.ID && exec.State == domain.ExecutionScheduledError {
			found = true
		}
	}
	if !found {
		t.Error("want a SCHEDULED_ERROR execution recorded for the misfire")
	}
}

func TestProcess_WithinGrace_Dispatches(t *testing.T) {
	st := newFakeStore()
	e := New(DefaultConfig(), st, testLogger(), nil, nil)

	now := time.Now()
	e.clockNow = func() time.Time { return now }

	job := testJob("job-3")
	expr := mustParseExpr(t, job)
	js := newJobState(job, expr)
	e.jobs[job.ID] = js

	trig := &trigger{jobID: job.ID, runTime: now.Add(-5 * time.Second)}
	js.trig = trig

	e.process(context.Background(), trig)

	select {
	case <-e.tasks:
	default:
		t.Fatal("want a firing dispatched for a trigger within misfire grace")
	}
}

func TestProcess_MaxInstancesReached_SkipsDispatch(t *testing.T) {
	st := newFakeStore()
	cfg := DefaultConfig()
	cfg.JobMaxInstances = 1
	e := New(cfg, st, testLogger(), nil, nil)

	now := time.Now()
	e.clockNow = func() time.Time { return now }

	job := testJob("job-4")
	expr := mustParseExpr(t, job)
	js := newJobState(job, expr)
	js.runningCount = 1
	e.jobs[job.ID] = js

	trig := &trigger{jobID: job.ID, runTime: now.Add(-time.Second)}
	js.trig = trig

	e.process(context.Background(), trig)

	select {
	case <-e.tasks:
		t.Fatal("want no firing dispatched when max_instances is already reached")
	default:
	}

	var found bool
	for _, exec := range st.executions {
		if exec.JobID == job.ID && exec.State == domain.ExecutionScheduledError {
			found = true
		}
	}
	if !found {
		t.Error("want a SCHEDULED_ERROR execution recorded for the max_instances skip")
	}
}

func TestManualRun_MaxInstancesReached_ReturnsErrMaxInstances(t *testing.T) {
	st := newFakeStore()
	cfg := DefaultConfig()
	cfg.JobMaxInstances = 1
	e := New(cfg, st, testLogger(), nil, nil)

	job := testJob("job-5")
	expr := mustParseExpr(t, job)
	js := newJobState(job, expr)
	js.runningCount = 1
	e.jobs[job.ID] = js

	_, err := e.ManualRun(context.Background(), job.ID)
	if !errors.Is(err, ErrMaxInstances) {
		t.Errorf("want ErrMaxInstances, got %v", err)
	}
}

// ---- pause (spec S2) ----

func TestSetPaused_ClearsTrigger(t *testing.T) {
	st := newFakeStore()
	e := New(DefaultConfig(), st, testLogger(), nil, nil)

	job := testJob("job-6")
	if err := e.AddJob(job); err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	if e.heap.Len() != 1 {
		t.Fatalf("want job scheduled in heap, len=%d", e.heap.Len())
	}

	if err := e.SetPaused(job.ID, true); err != nil {
		t.Fatalf("SetPaused: %v", err)
	}

	e.mu.Lock()
	trig := e.jobs[job.ID].trig
	e.mu.Unlock()
	if trig != nil {
		t.Error("want a paused job's trigger cleared")
	}
}

func mustParseExpr(t *testing.T, job *domain.Job) *cronexpr.Expr {
	t.Helper()
	expr, err := cronexpr.Parse(job.Trigger.Minute, job.Trigger.Hour, job.Trigger.Day, job.Trigger.Month, job.Trigger.DayOfWeek)
	if err != nil {
		t.Fatalf("parse trigger: %v", err)
	}
	return expr
}
