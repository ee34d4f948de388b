package scheduler

import (
	"github.com/cronhub/scheduler/internal/cronexpr"
	"github.com/cronhub/scheduler/internal/domain"
)

// jobState is the engine's complete in-memory picture of one job: its
// parsed cron expression, a snapshot of the persisted row (kept current on
// every Add/Update), its heap entry when scheduled, and how many firings
// are currently in flight for it. Every field is read and written only
// while holding Engine.mu.
type jobState struct {
	job          *domain.Job
	expr         *cronexpr.Expr
	trig         *trigger // nil when paused or when Next() has no further occurrence
	runningCount int
}

func newJobState(job *domain.Job, expr *cronexpr.Expr) *jobState {
	return &jobState{job: job, expr: expr}
}
