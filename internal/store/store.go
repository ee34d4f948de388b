// Package store defines the transactional persistence contract consumed by
// the scheduler engine and the REST handlers. The Postgres implementation
// lives in internal/store/postgres.
package store

import (
	"context"
	"time"

	"github.com/cronhub/scheduler/internal/domain"
)

// JobStore persists Job declarations. Implementations must make job_id
// unique and keep the jobs table idempotently creatable.
type JobStore interface {
	CreateJob(ctx context.Context, job *domain.Job) error
	GetJob(ctx context.Context, jobID string) (*domain.Job, error)
	// ListJobs returns jobs ordered case-insensitively by name, filtered to
	// categoryID when non-zero.
	ListJobs(ctx context.Context, categoryID int) ([]*domain.Job, error)
	UpdateJob(ctx context.Context, job *domain.Job) error
	DeleteJob(ctx context.Context, jobID string) error
	SetPaused(ctx context.Context, jobID string, paused bool) error
}

// ExecutionStore persists firing attempts.
type ExecutionStore interface {
	AddExecution(ctx context.Context, e *domain.Execution) error
	UpdateExecution(ctx context.Context, e *domain.Execution) error
	GetExecution(ctx context.Context, executionID string) (*domain.Execution, error)
	// GetExecutionsInRange returns executions with scheduled_time in
	// [start, end], ordered by updated_time descending, optionally
	// filtered to categoryID (0 means unscoped).
	GetExecutionsInRange(ctx context.Context, start, end time.Time, categoryID int) ([]*domain.Execution, error)
	// CountStaleRunningExecutions counts RUNNING rows whose updated_time is
	// older than olderThan — a worker that died mid-flight without ever
	// writing a terminal state. Observability only: nothing transitions
	// these rows automatically.
	CountStaleRunningExecutions(ctx context.Context, olderThan time.Time) (int, error)
}

// AuditStore persists the append-only audit trail.
type AuditStore interface {
	AddAuditLog(ctx context.Context, log *domain.AuditLog) error
	GetAuditLogsInRange(ctx context.Context, start, end time.Time, categoryID int) ([]*domain.AuditLog, error)
}

// UserStore persists operator accounts.
type UserStore interface {
	AddUser(ctx context.Context, u *domain.User, plaintextPassword string) error
	GetUser(ctx context.Context, username string) (*domain.User, error)
	GetUserByID(ctx context.Context, id int) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	UpdateUser(ctx context.Context, u *domain.User, newPlaintextPassword string) error
	DeleteUser(ctx context.Context, id int) error
	VerifyPassword(ctx context.Context, username, plaintext string) (bool, error)
	CheckUserExists(ctx context.Context, username string) (bool, error)
}

// CategoryStore persists categories and the job<->category mapping.
type CategoryStore interface {
	AddCategory(ctx context.Context, c *domain.Category) error
	GetCategory(ctx context.Context, id int) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	UpdateCategory(ctx context.Context, c *domain.Category) error
	DeleteCategory(ctx context.Context, id int) error

	// SetJobCategory replaces any existing job<->category link and, within
	// the same transaction, back-fills the job's latest ADDED audit row's
	// category_id to match.
	SetJobCategory(ctx context.Context, jobID string, categoryID int) error
	// GetJobCategoryID returns 0 if the job is unlinked.
	GetJobCategoryID(ctx context.Context, jobID string) (int, error)
}

// Store is the full persistence contract. Bootstrap (idempotent table
// creation, seeding category 0 and configured bootstrap users) happens once
// at construction of the concrete implementation, not through this
// interface.
type Store interface {
	JobStore
	ExecutionStore
	AuditStore
	UserStore
	CategoryStore

	Ping(ctx context.Context) error
}
