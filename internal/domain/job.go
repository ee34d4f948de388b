package domain

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrJobNotFound     = errors.New("job not found")
	ErrInvalidTrigger  = errors.New("invalid trigger fields")
	ErrJobUnresolvable = errors.New("job class does not resolve to a registered job body")
)

// Trigger is the cron schedule a Job fires on. Empty string means "any value"
// for that field (cron's "*"). At least one field must be non-empty.
type Trigger struct {
	Month     string `json:"month"`
	Day       string `json:"day"`
	DayOfWeek string `json:"day_of_week"`
	Hour      string `json:"hour"`
	Minute    string `json:"minute"`
}

// IsZero reports whether every field is empty, i.e. the caller supplied no
// cron restriction at all. Job creation requires at least one.
func (t Trigger) IsZero() bool {
	return t.Month == "" && t.Day == "" && t.DayOfWeek == "" && t.Hour == "" && t.Minute == ""
}

// Job is a persistent declaration binding a job class to a cron schedule.
type Job struct {
	ID             string            `json:"job_id"`
	Name           string            `json:"name"`
	JobClassString string            `json:"job_class_string"`
	PubArgs        []json.RawMessage `json:"pub_args"`
	Trigger        Trigger           `json:"-"`
	Paused         bool              `json:"paused"`
	NextRunTime    *time.Time        `json:"next_run_time"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// jobJSON mirrors Job but flattens Trigger's fields to the top level, the
// same shape the REST handlers accept on POST/PUT, so a job round-trips
// through the API without a nested "trigger" object.
type jobJSON struct {
	ID             string            `json:"job_id"`
	Name           string            `json:"name"`
	JobClassString string            `json:"job_class_string"`
	PubArgs        []json.RawMessage `json:"pub_args"`
	Month          string            `json:"month"`
	Day            string            `json:"day"`
	DayOfWeek      string            `json:"day_of_week"`
	Hour           string            `json:"hour"`
	Minute         string            `json:"minute"`
	Paused         bool              `json:"paused"`
	NextRunTime    *time.Time        `json:"next_run_time"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// MarshalJSON flattens Trigger's fields onto the job object so GET /jobs
// and GET /jobs/{id} report back the schedule a POST/PUT accepted.
func (j Job) MarshalJSON() ([]byte, error) {
	return json.Marshal(jobJSON{
		ID:             j.ID,
		Name:           j.Name,
		JobClassString: j.JobClassString,
		PubArgs:        j.PubArgs,
		Month:          j.Trigger.Month,
		Day:            j.Trigger.Day,
		DayOfWeek:      j.Trigger.DayOfWeek,
		Hour:           j.Trigger.Hour,
		Minute:         j.Trigger.Minute,
		Paused:         j.Paused,
		NextRunTime:    j.NextRunTime,
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      j.UpdatedAt,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON, accepting the same flattened
// shape.
func (j *Job) UnmarshalJSON(data []byte) error {
	var aux jobJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	j.ID = aux.ID
	j.Name = aux.Name
	j.JobClassString = aux.JobClassString
	j.PubArgs = aux.PubArgs
	j.Trigger = Trigger{Month: aux.Month, Day: aux.Day, DayOfWeek: aux.DayOfWeek, Hour: aux.Hour, Minute: aux.Minute}
	j.Paused = aux.Paused
	j.NextRunTime = aux.NextRunTime
	j.CreatedAt = aux.CreatedAt
	j.UpdatedAt = aux.UpdatedAt
	return nil
}
