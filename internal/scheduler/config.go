package scheduler

import "time"

// Config controls the engine's concurrency and misfire policy, sourced from
// the THREAD_POOL_SIZE, JOB_MAX_INSTANCES, JOB_COALESCE and
// JOB_MISFIRE_GRACE_SEC environment settings.
type Config struct {
	// ThreadPoolSize bounds concurrently-running job firings across the
	// whole engine.
	ThreadPoolSize int
	// JobMaxInstances bounds how many concurrent firings a single job may
	// have in flight before a new firing is skipped rather than queued.
	JobMaxInstances int
	// MisfireGrace is how long after a trigger's scheduled time it may still
	// run before being considered missed.
	MisfireGrace time.Duration
	// Coalesce, when true, collapses a run of missed firings into one: the
	// overdue trigger fires once and the next occurrence is computed from
	// now, so the other missed slots never fire. When false, each missed
	// slot fires in turn.
	Coalesce bool
	// Location is the timezone trigger fields are evaluated in.
	Location *time.Location
	Hostname string
	// StaleAfter is how old a RUNNING execution's updated_time must be
	// before RunStaleScan counts it as stuck. Observability only; nothing
	// transitions these rows automatically.
	StaleAfter time.Duration
	// StaleScanInterval is how often RunStaleScan polls the store. Zero
	// disables the scan.
	StaleScanInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		ThreadPoolSize:    4,
		JobMaxInstances:   3,
		MisfireGrace:      time.Hour,
		Coalesce:          true,
		Location:          time.UTC,
		StaleAfter:        2 * time.Hour,
		StaleScanInterval: 5 * time.Minute,
	}
}
