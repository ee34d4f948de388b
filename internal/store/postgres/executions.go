package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cronhub/scheduler/internal/domain"
)

const executionColumns = `execution_id, job_id, state, hostname, pid, scheduled_time, updated_time, description, result, category_id`

func scanExecution(row rowScanner) (*domain.Execution, error) {
	var e domain.Execution
	err := row.Scan(
		&e.ID, &e.JobID, &e.State, &e.Hostname, &e.PID,
		&e.ScheduledTime, &e.UpdatedTime, &e.Description, &e.Result, &e.CategoryID,
	)
	if err != nil {
		return nil, err
	}
	if e.CategoryID != nil && *e.CategoryID == domain.CategoryAll {
		// A stored 0 is read the same as NULL: unlinked.
		e.CategoryID = nil
	}
	return &e, nil
}

func (s *Store) AddExecution(ctx context.Context, e *domain.Execution) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(
		`INSERT INTO %s (execution_id, job_id, state, hostname, pid, scheduled_time, updated_time, description, result, category_id)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`, s.tables.Executions),
		e.ID, e.JobID, e.State, e.Hostname, e.PID, e.ScheduledTime, e.UpdatedTime, e.Description, e.Result, e.CategoryID,
	)
	if err != nil {
		return fmt.Errorf("postgres: add execution: %w", err)
	}
	return nil
}

func (s *Store) UpdateExecution(ctx context.Context, e *domain.Execution) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET state=$2, hostname=$3, pid=$4, updated_time=$5, description=$6, result=$7
		 WHERE execution_id=$1`, s.tables.Executions),
		e.ID, e.State, e.Hostname, e.PID, e.UpdatedTime, e.Description, e.Result,
	)
	if err != nil {
		return fmt.Errorf("postgres: update execution: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExecutionNotFound
	}
	return nil
}

func (s *Store) GetExecution(ctx context.Context, executionID string) (*domain.Execution, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE execution_id = $1`, executionColumns, s.tables.Executions), executionID)
	e, err := scanExecution(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrExecutionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get execution: %w", err)
	}
	return e, nil
}

func (s *Store) CountStaleRunningExecutions(ctx context.Context, olderThan time.Time) (int, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT count(*) FROM %s WHERE state = $1 AND updated_time < $2`, s.tables.Executions),
		domain.ExecutionRunning, olderThan)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count stale running executions: %w", err)
	}
	return count, nil
}

func (s *Store) GetExecutionsInRange(ctx context.Context, start, end time.Time, categoryID int) ([]*domain.Execution, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if categoryID == 0 {
		rows, err = s.pool.Query(ctx, fmt.Sprintf(
			`SELECT %s FROM %s WHERE scheduled_time BETWEEN $1 AND $2 ORDER BY updated_time DESC`,
			executionColumns, s.tables.Executions), start, end)
	} else {
		rows, err = s.pool.Query(ctx, fmt.Sprintf(
			`SELECT %s FROM %s WHERE scheduled_time BETWEEN $1 AND $2 AND category_id = $3 ORDER BY updated_time DESC`,
			executionColumns, s.tables.Executions), start, end, categoryID)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: list executions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Execution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan execution: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list executions: %w", err)
	}
	return out, nil
}
