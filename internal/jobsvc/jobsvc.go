// Package jobsvc is the service layer sitting between the REST handlers
// and the store/engine: every job mutation that must also append an audit
// row or update the in-memory scheduler goes through here, so handlers stay
// thin request/response translators.
package jobsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cronhub/scheduler/internal/domain"
	"github.com/cronhub/scheduler/internal/scheduler"
	"github.com/cronhub/scheduler/internal/store"
)

type Service struct {
	store  store.Store
	engine *scheduler.Engine
	logger *slog.Logger
	clock  func() time.Time
}

func New(st store.Store, engine *scheduler.Engine, logger *slog.Logger) *Service {
	return &Service{store: st, engine: engine, logger: logger.With("component", "jobsvc"), clock: time.Now}
}

// CreateJobInput is the caller-supplied half of a new job declaration.
type CreateJobInput struct {
	Name           string
	JobClassString string
	PubArgs        []json.RawMessage
	Trigger        domain.Trigger
	Paused         bool
}

// CreateJob persists a new job, links it to the acting user's category
// when that user is category-scoped, registers it with the engine, and
// appends an ADDED audit row.
func (s *Service) CreateJob(ctx context.Context, in CreateJobInput, actor domain.Claims) (*domain.Job, error) {
	if in.Trigger.IsZero() {
		return nil, fmt.Errorf("%w: at least one cron field is required", domain.ErrInvalidTrigger)
	}

	job := &domain.Job{
		ID:             strings.ReplaceAll(uuid.NewString(), "-", ""),
		Name:           in.Name,
		JobClassString: in.JobClassString,
		PubArgs:        in.PubArgs,
		Trigger:        in.Trigger,
		Paused:         in.Paused,
		CreatedAt:      s.clock(),
		UpdatedAt:      s.clock(),
	}

	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	if actor.CategoryID != domain.CategoryAll {
		if err := s.store.SetJobCategory(ctx, job.ID, actor.CategoryID); err != nil {
			return nil, fmt.Errorf("jobsvc: link job to category: %w", err)
		}
	}

	if err := s.engine.AddJob(job); err != nil {
		return nil, err
	}

	s.audit(ctx, job, domain.AuditAdded, actor, "")
	return job, nil
}

// UpdateJobInput mirrors CreateJobInput; zero-value Trigger is invalid and
// rejected by UpdateJob before anything is persisted.
type UpdateJobInput struct {
	Name           string
	JobClassString string
	PubArgs        []json.RawMessage
	Trigger        domain.Trigger
}

// UpdateJob rewrites a job's declaration. Because job_class_string and
// pub_args can only take effect via a fresh registration, the engine's
// ReplaceJob performs a delete-and-recreate under the same id rather than
// an in-place mutation.
func (s *Service) UpdateJob(ctx context.Context, jobID string, in UpdateJobInput, actor domain.Claims) (*domain.Job, error) {
	if in.Trigger.IsZero() {
		return nil, fmt.Errorf("%w: at least one cron field is required", domain.ErrInvalidTrigger)
	}

	existing, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	oldArgs := existing.PubArgs
	updated := &domain.Job{
		ID:             existing.ID,
		Name:           in.Name,
		JobClassString: in.JobClassString,
		PubArgs:        in.PubArgs,
		Trigger:        in.Trigger,
		Paused:         existing.Paused,
		CreatedAt:      existing.CreatedAt,
		UpdatedAt:      s.clock(),
	}

	if err := s.store.UpdateJob(ctx, updated); err != nil {
		return nil, err
	}
	if err := s.engine.ReplaceJob(updated); err != nil {
		return nil, err
	}

	desc, err := modifiedDescription(oldArgs, in.PubArgs)
	if err != nil {
		desc = "pub_args changed"
	}
	s.audit(ctx, updated, domain.AuditModified, actor, desc)
	return updated, nil
}

// modifiedDescription encodes the MODIFIED audit row's description as
// {"pub_args":{"old":...,"new":...}}.
func modifiedDescription(oldArgs, newArgs []json.RawMessage) (string, error) {
	payload := struct {
		PubArgs struct {
			Old []json.RawMessage `json:"old"`
			New []json.RawMessage `json:"new"`
		} `json:"pub_args"`
	}{}
	payload.PubArgs.Old = oldArgs
	payload.PubArgs.New = newArgs
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DeleteJob removes a job from both the store and the engine and appends a
// DELETED audit row.
func (s *Service) DeleteJob(ctx context.Context, jobID string, actor domain.Claims) error {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteJob(ctx, jobID); err != nil {
		return err
	}
	s.engine.RemoveJob(jobID)
	s.audit(ctx, job, domain.AuditDeleted, actor, "")
	return nil
}

// SetPaused pauses or resumes a job, writing the matching PAUSED/RESUMED
// audit event.
func (s *Service) SetPaused(ctx context.Context, jobID string, paused bool, actor domain.Claims) (*domain.Job, error) {
	if err := s.store.SetPaused(ctx, jobID, paused); err != nil {
		return nil, err
	}
	if err := s.engine.SetPaused(jobID, paused); err != nil {
		return nil, err
	}
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	event := domain.AuditResumed
	if paused {
		event = domain.AuditPaused
	}
	s.audit(ctx, job, event, actor, "")
	return job, nil
}

// ManualRun fires a job immediately outside its cron trigger. The audit
// row's category_id is the acting user's category, not the job's, so a
// scoped operator's manual run is visible in their own audit log even when
// the job itself belongs to a different category.
func (s *Service) ManualRun(ctx context.Context, jobID string, actor domain.Claims) (string, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return "", err
	}

	executionID, err := s.engine.ManualRun(ctx, jobID)
	if err != nil {
		return "", err
	}

	log := &domain.AuditLog{
		JobID:       job.ID,
		JobName:     job.Name,
		Event:       domain.AuditCustomRun,
		User:        actor.Username,
		CategoryID:  actor.CategoryID,
		CreatedTime: s.clock(),
	}
	if err := s.store.AddAuditLog(ctx, log); err != nil {
		// Audit failures are logged but never propagated to the caller —
		// the firing already happened and must not appear to have failed.
		s.logger.Error("write custom_run audit log", "job_id", job.ID, "error", err)
	}
	return executionID, nil
}

// ListJobs returns jobs visible to actor: every job for an unscoped
// (category 0) caller, or only jobs linked to actor's category otherwise.
func (s *Service) ListJobs(ctx context.Context, actor domain.Claims) ([]*domain.Job, error) {
	return s.store.ListJobs(ctx, actor.CategoryID)
}

func (s *Service) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	return s.store.GetJob(ctx, jobID)
}

// audit appends an audit row stamped with the job's currently linked
// category (the actor's category if that lookup fails), swallowing failures
// beyond logging them — an audit-trail write must
// never roll back a job mutation that already succeeded.
func (s *Service) audit(ctx context.Context, job *domain.Job, event domain.AuditEvent, actor domain.Claims, description string) {
	categoryID, err := s.store.GetJobCategoryID(ctx, job.ID)
	if err != nil {
		categoryID = actor.CategoryID
	}
	log := &domain.AuditLog{
		JobID:       job.ID,
		JobName:     job.Name,
		Event:       event,
		User:        actor.Username,
		CategoryID:  categoryID,
		Description: description,
		CreatedTime: s.clock(),
	}
	if err := s.store.AddAuditLog(ctx, log); err != nil {
		s.logger.Error("write audit log", "job_id", job.ID, "event", event, "error", err)
	}
}
