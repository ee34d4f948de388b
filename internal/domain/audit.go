package domain

import "time"

type AuditEvent string

const (
	AuditAdded     AuditEvent = "ADDED"
	AuditModified  AuditEvent = "MODIFIED"
	AuditDeleted   AuditEvent = "DELETED"
	AuditPaused    AuditEvent = "PAUSED"
	AuditResumed   AuditEvent = "RESUMED"
	AuditCustomRun AuditEvent = "CUSTOM_RUN"
)

// AuditLog is an append-only record of an administrative action on a job.
type AuditLog struct {
	JobID       string     `json:"job_id"`
	JobName     string     `json:"job_name"`
	Event       AuditEvent `json:"event"`
	User        string     `json:"user"`
	CategoryID  int        `json:"category_id"`
	Description string     `json:"description,omitempty"`
	CreatedTime time.Time  `json:"created_time"`
}
