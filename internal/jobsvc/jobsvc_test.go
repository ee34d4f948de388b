package jobsvc_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cronhub/scheduler/internal/domain"
	"github.com/cronhub/scheduler/internal/jobsvc"
	"github.com/cronhub/scheduler/internal/scheduler"
	"github.com/cronhub/scheduler/internal/store"

	_ "github.com/cronhub/scheduler/jobs/echo"
)

// ---- fake store ----

type fakeStore struct {
	jobs       map[string]*domain.Job
	categories map[string]int
	audits     []*domain.AuditLog
	executions []*domain.Execution

	failAuditWrites bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{jobs: map[string]*domain.Job{}, categories: map[string]int{}}
}

func (f *fakeStore) CreateJob(_ context.Context, job *domain.Job) error {
	f.jobs[job.ID] = job
	return nil
}
func (f *fakeStore) GetJob(_ context.Context, jobID string) (*domain.Job, error) {
	j, ok := f.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return j, nil
}
func (f *fakeStore) ListJobs(_ context.Context, categoryID int) ([]*domain.Job, error) {
	var out []*domain.Job
	for _, j := range f.jobs {
		if categoryID == domain.CategoryAll || f.categories[j.ID] == categoryID {
			out = append(out, j)
		}
	}
	return out, nil
}
func (f *fakeStore) UpdateJob(_ context.Context, job *domain.Job) error {
	f.jobs[job.ID] = job
	return nil
}
func (f *fakeStore) DeleteJob(_ context.Context, jobID string) error {
	delete(f.jobs, jobID)
	return nil
}
func (f *fakeStore) SetPaused(_ context.Context, jobID string, paused bool) error {
	j, ok := f.jobs[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}
	j.Paused = paused
	return nil
}

func (f *fakeStore) AddExecution(_ context.Context, e *domain.Execution) error {
	f.executions = append(f.executions, e)
	return nil
}
func (f *fakeStore) UpdateExecution(context.Context, *domain.Execution) error { return nil }
func (f *fakeStore) GetExecution(context.Context, string) (*domain.Execution, error) {
	return nil, domain.ErrExecutionNotFound
}
func (f *fakeStore) GetExecutionsInRange(context.Context, time.Time, time.Time, int) ([]*domain.Execution, error) {
	return f.executions, nil
}
func (f *fakeStore) CountStaleRunningExecutions(context.Context, time.Time) (int, error) { return 0, nil }

func (f *fakeStore) AddAuditLog(_ context.Context, log *domain.AuditLog) error {
	if f.failAuditWrites {
		return errors.New("audit store unavailable")
	}
	f.audits = append(f.audits, log)
	return nil
}
func (f *fakeStore) GetAuditLogsInRange(context.Context, time.Time, time.Time, int) ([]*domain.AuditLog, error) {
	return f.audits, nil
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

var _ store.Store = (*fakeStore)(nil)

// ---- helpers ----

func newTestService(st *fakeStore) (*jobsvc.Service, *scheduler.Engine) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := scheduler.New(scheduler.DefaultConfig(), st, logger, nil, nil)
	return jobsvc.New(st, engine, logger), engine
}

var unscopedActor = domain.Claims{UserID: 1, Username: "root", IsAdmin: true, CategoryID: domain.CategoryAll}

func validTrigger() domain.Trigger { return domain.Trigger{Minute: "*"} }

func rawArgs(vals ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(vals))
	for i, v := range vals {
		out[i] = json.RawMessage(v)
	}
	return out
}

// ---- CreateJob ----

func TestCreateJob_RejectsEmptyTrigger(t *testing.T) {
	svc, _ := newTestService(newFakeStore())

	_, err := svc.CreateJob(context.Background(), jobsvc.CreateJobInput{
		Name: "no-trigger", JobClassString: "echo",
	}, unscopedActor)
	if err == nil {
		t.Fatal("want error for empty trigger, got nil")
	}
}

func TestCreateJob_LinksCategoryForScopedActor(t *testing.T) {
	st := newFakeStore()
	svc, _ := newTestService(st)

	actor := domain.Claims{UserID: 2, Username: "scoped", CategoryID: 7}
	job, err := svc.CreateJob(context.Background(), jobsvc.CreateJobInput{
		Name: "scoped-job", JobClassString: "echo", Trigger: validTrigger(),
	}, actor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := st.categories[job.ID]; got != 7 {
		t.Errorf("want job linked to category 7, got %d", got)
	}
}

func TestCreateJob_WritesAddedAuditRow(t *testing.T) {
	st := newFakeStore()
	svc, _ := newTestService(st)

	_, err := svc.CreateJob(context.Background(), jobsvc.CreateJobInput{
		Name: "audited-job", JobClassString: "echo", Trigger: validTrigger(),
	}, unscopedActor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(st.audits) != 1 || st.audits[0].Event != domain.AuditAdded {
		t.Fatalf("want one ADDED audit row, got %+v", st.audits)
	}
}

// ---- UpdateJob ----

func TestUpdateJob_RejectsEmptyTrigger(t *testing.T) {
	st := newFakeStore()
	svc, _ := newTestService(st)

	job, err := svc.CreateJob(context.Background(), jobsvc.CreateJobInput{
		Name: "j", JobClassString: "echo", Trigger: validTrigger(),
	}, unscopedActor)
	if err != nil {
		t.Fatalf("setup create: %v", err)
	}

	_, err = svc.UpdateJob(context.Background(), job.ID, jobsvc.UpdateJobInput{
		Name: "j", JobClassString: "echo",
	}, unscopedActor)
	if err == nil {
		t.Fatal("want error for empty trigger on update, got nil")
	}
}

func TestUpdateJob_WritesModifiedAuditWithOldAndNewArgs(t *testing.T) {
	st := newFakeStore()
	svc, _ := newTestService(st)

	job, err := svc.CreateJob(context.Background(), jobsvc.CreateJobInput{
		Name: "j", JobClassString: "echo", Trigger: validTrigger(),
		PubArgs: rawArgs(`"old"`),
	}, unscopedActor)
	if err != nil {
		t.Fatalf("setup create: %v", err)
	}

	_, err = svc.UpdateJob(context.Background(), job.ID, jobsvc.UpdateJobInput{
		Name: "j", JobClassString: "echo", Trigger: validTrigger(),
		PubArgs: rawArgs(`"new"`),
	}, unscopedActor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	last := st.audits[len(st.audits)-1]
	if last.Event != domain.AuditModified {
		t.Fatalf("want MODIFIED audit row, got %+v", last)
	}
	if want := `{"pub_args":{"old":["old"],"new":["new"]}}`; last.Description != want {
		t.Errorf("want description %s encoding old/new pub_args, got %s", want, last.Description)
	}
}

// ---- ManualRun ----

func TestManualRun_SucceedsEvenWhenAuditWriteFails(t *testing.T) {
	st := newFakeStore()
	svc, _ := newTestService(st)

	job, err := svc.CreateJob(context.Background(), jobsvc.CreateJobInput{
		Name: "j", JobClassString: "echo", Trigger: validTrigger(),
	}, unscopedActor)
	if err != nil {
		t.Fatalf("setup create: %v", err)
	}

	st.failAuditWrites = true
	executionID, err := svc.ManualRun(context.Background(), job.ID, unscopedActor)
	if err != nil {
		t.Fatalf("want ManualRun to succeed despite audit failure, got %v", err)
	}
	if executionID == "" {
		t.Error("want a non-empty execution id even when the audit write fails")
	}
}

func TestManualRun_UnknownJob(t *testing.T) {
	svc, _ := newTestService(newFakeStore())

	_, err := svc.ManualRun(context.Background(), "does-not-exist", unscopedActor)
	if !errors.Is(err, domain.ErrJobNotFound) {
		t.Errorf("want ErrJobNotFound, got %v", err)
	}
}

// ---- SetPaused ----

func TestSetPaused_WritesPausedAndResumedAudit(t *testing.T) {
	st := newFakeStore()
	svc, _ := newTestService(st)

	job, err := svc.CreateJob(context.Background(), jobsvc.CreateJobInput{
		Name: "j", JobClassString: "echo", Trigger: validTrigger(),
	}, unscopedActor)
	if err != nil {
		t.Fatalf("setup create: %v", err)
	}

	if _, err := svc.SetPaused(context.Background(), job.ID, true, unscopedActor); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := svc.SetPaused(context.Background(), job.ID, false, unscopedActor); err != nil {
		t.Fatalf("resume: %v", err)
	}

	if len(st.audits) != 3 { // ADDED, PAUSED, RESUMED
		t.Fatalf("want 3 audit rows, got %d: %+v", len(st.audits), st.audits)
	}
	if st.audits[1].Event != domain.AuditPaused {
		t.Errorf("want PAUSED as second audit event, got %s", st.audits[1].Event)
	}
	if st.audits[2].Event != domain.AuditResumed {
		t.Errorf("want RESUMED as third audit event, got %s", st.audits[2].Event)
	}
}
