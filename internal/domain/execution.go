package domain

import (
	"errors"
	"time"
)

var ErrExecutionNotFound = errors.New("execution not found")

type ExecutionState string

const (
	ExecutionScheduled      ExecutionState = "SCHEDULED"
	ExecutionRunning        ExecutionState = "RUNNING"
	ExecutionSucceeded      ExecutionState = "SUCCEEDED"
	ExecutionFailed         ExecutionState = "FAILED"
	ExecutionScheduledError ExecutionState = "SCHEDULED_ERROR"
)

// Execution is one row per firing attempt of a Job.
type Execution struct {
	ID            string         `json:"execution_id"`
	JobID         string         `json:"job_id"`
	State         ExecutionState `json:"state"`
	Hostname      string         `json:"hostname,omitempty"`
	PID           int            `json:"pid,omitempty"`
	ScheduledTime time.Time      `json:"scheduled_time"`
	UpdatedTime   time.Time      `json:"updated_time"`
	Description   string         `json:"description,omitempty"`
	Result        string         `json:"result,omitempty"`
	CategoryID    *int           `json:"category_id,omitempty"`
}
