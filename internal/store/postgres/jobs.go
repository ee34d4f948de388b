package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cronhub/scheduler/internal/domain"
)

func scanJob(row rowScanner) (*domain.Job, error) {
	var (
		j           domain.Job
		pubArgsRaw  []byte
		nextRunTime *time.Time
	)
	err := row.Scan(
		&j.ID, &j.Name, &j.JobClassString, &pubArgsRaw,
		&j.Trigger.Month, &j.Trigger.Day, &j.Trigger.DayOfWeek, &j.Trigger.Hour, &j.Trigger.Minute,
		&j.Paused, &nextRunTime, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(pubArgsRaw) > 0 {
		if err := json.Unmarshal(pubArgsRaw, &j.PubArgs); err != nil {
			return nil, fmt.Errorf("postgres: decode pub_args: %w", err)
		}
	}
	j.NextRunTime = nextRunTime
	return &j, nil
}

const jobColumns = `job_id, name, job_class_string, pub_args, month, day, day_of_week, hour, minute, paused, next_run_time, created_at, updated_at`

func (s *Store) CreateJob(ctx context.Context, job *domain.Job) error {
	pubArgs, err := json.Marshal(job.PubArgs)
	if err != nil {
		return fmt.Errorf("postgres: encode pub_args: %w", err)
	}
	_, err = s.pool.Exec(ctx, fmt.Sprintf(
		`INSERT INTO %s (job_id, name, job_class_string, pub_args, month, day, day_of_week, hour, minute, paused, next_run_time, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`, s.tables.Jobs),
		job.ID, job.Name, job.JobClassString, pubArgs,
		job.Trigger.Month, job.Trigger.Day, job.Trigger.DayOfWeek, job.Trigger.Hour, job.Trigger.Minute,
		job.Paused, job.NextRunTime, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create job: %w", err)
	}
	return nil
}

func (s *Store) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE job_id = $1`, jobColumns, s.tables.Jobs), jobID)
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get job: %w", err)
	}
	return job, nil
}

func (s *Store) ListJobs(ctx context.Context, categoryID int) ([]*domain.Job, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if categoryID == 0 {
		rows, err = s.pool.Query(ctx, fmt.Sprintf(
			`SELECT %s FROM %s ORDER BY lower(name)`, jobColumns, s.tables.Jobs))
	} else {
		rows, err = s.pool.Query(ctx, fmt.Sprintf(
			`SELECT j.job_id, j.name, j.job_class_string, j.pub_args, j.month, j.day, j.day_of_week, j.hour, j.minute, j.paused, j.next_run_time, j.created_at, j.updated_at
			 FROM %s j JOIN %s jc ON jc.job_id = j.job_id
			 WHERE jc.category_id = $1
			 ORDER BY lower(j.name)`, s.tables.Jobs, s.tables.JobCategories), categoryID)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list jobs: %w", err)
	}
	return jobs, nil
}

func (s *Store) UpdateJob(ctx context.Context, job *domain.Job) error {
	pubArgs, err := json.Marshal(job.PubArgs)
	if err != nil {
		return fmt.Errorf("postgres: encode pub_args: %w", err)
	}
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET name=$2, job_class_string=$3, pub_args=$4, month=$5, day=$6, day_of_week=$7, hour=$8, minute=$9,
		 paused=$10, next_run_time=$11, updated_at=$12 WHERE job_id=$1`, s.tables.Jobs),
		job.ID, job.Name, job.JobClassString, pubArgs,
		job.Trigger.Month, job.Trigger.Day, job.Trigger.DayOfWeek, job.Trigger.Hour, job.Trigger.Minute,
		job.Paused, job.NextRunTime, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

func (s *Store) DeleteJob(ctx context.Context, jobID string) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE job_id = $1`, s.tables.Jobs), jobID)
	if err != nil {
		return fmt.Errorf("postgres: delete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	_, err = s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE job_id = $1`, s.tables.JobCategories), jobID)
	if err != nil {
		return fmt.Errorf("postgres: delete job category link: %w", err)
	}
	return nil
}

func (s *Store) SetPaused(ctx context.Context, jobID string, paused bool) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET paused=$2, updated_at=now() WHERE job_id=$1`, s.tables.Jobs), jobID, paused)
	if err != nil {
		return fmt.Errorf("postgres: set paused: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}
