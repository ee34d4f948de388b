// Package echo is a minimal JobBody used for exercising the scheduler and
// its test scenarios: it returns its first positional argument verbatim.
package echo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cronhub/scheduler/internal/registry"
)

func init() {
	registry.RegisterJob("echo", func() registry.JobBody { return &Job{} })
}

type Job struct{}

func (j *Job) Run(_ context.Context, _, _ string, args []json.RawMessage) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("echo: requires at least one argument")
	}
	var value any
	if err := json.Unmarshal(args[0], &value); err != nil {
		return nil, fmt.Errorf("echo: unmarshal first argument: %w", err)
	}
	return value, nil
}

func (j *Job) ScheduledDescription(args []json.RawMessage) string {
	return fmt.Sprintf("echo scheduled with %d argument(s)", len(args))
}

func (j *Job) SucceededDescription(result any) string {
	return fmt.Sprintf("echo returned %v", result)
}

func (j *Job) FailedDescription(err error) string {
	return fmt.Sprintf("echo failed: %v", err)
}

func (j *Job) FailedResult(err error) string {
	return err.Error()
}

func (j *Job) MetaInfo() registry.MetaInfo {
	return registry.MetaInfo{
		Name:      "echo",
		Notes:     "Returns its first pub_args entry unchanged. Useful for smoke-testing the scheduler.",
		Arguments: []string{"value (any JSON value)"},
		Example:   `{"job_class_string":"echo","pub_args":["hi"]}`,
	}
}
