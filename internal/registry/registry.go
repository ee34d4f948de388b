// Package registry resolves job_class_string to a JobBody implementation.
// Job classes are registered at init() time via RegisterJob and looked up
// by name at firing time. Resolution failures are the caller's signal to
// mark an execution SCHEDULED_ERROR.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

var ErrNotRegistered = errors.New("job class not registered")

// JobBody is implemented by operator-supplied job classes.
type JobBody interface {
	// Run executes one firing and returns a JSON-serializable result.
	Run(ctx context.Context, jobID, executionID string, args []json.RawMessage) (any, error)

	// ScheduledDescription is written to the execution row before Run is called.
	ScheduledDescription(args []json.RawMessage) string
	// SucceededDescription is written to the execution row after a successful Run.
	SucceededDescription(result any) string
	// FailedDescription is written to the execution row when Run returns an error.
	FailedDescription(err error) string
	// FailedResult is the result text stored alongside a FAILED execution.
	FailedResult(err error) string
}

// MetaInfo is optional documentation a JobBody can expose about itself.
type MetaInfo struct {
	Name      string   `json:"name"`
	Notes     string   `json:"notes"`
	Arguments []string `json:"arguments,omitempty"`
	Example   string   `json:"example,omitempty"`
}

// Describable is implemented by job classes that expose MetaInfo.
type Describable interface {
	MetaInfo() MetaInfo
}

// Hooks are optional PreRun/PostRun callbacks. They run outside the
// scheduler engine's lock and must not block the critical section.
type Hooks interface {
	PreRun(ctx context.Context, jobID, executionID string)
	PostRun(ctx context.Context, jobID, executionID string, result any, runErr error)
}

// Factory constructs a fresh JobBody instance for one firing.
type Factory func() JobBody

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// RegisterJob makes a job class available under name. Intended to be called
// from an init() function in a jobs/* package.
func RegisterJob(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("registry: job class %q registered twice", name))
	}
	factories[name] = factory
}

// Resolve looks up a job class by name. Returns ErrNotRegistered if absent.
func Resolve(name string) (JobBody, error) {
	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	return factory(), nil
}

// Names returns every registered job class name, for registry introspection
// endpoints and startup logging.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	return names
}
