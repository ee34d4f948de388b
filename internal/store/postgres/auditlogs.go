package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cronhub/scheduler/internal/domain"
)

const auditColumns = `job_id, job_name, event, username, category_id, description, created_time`

func scanAuditLog(row rowScanner) (*domain.AuditLog, error) {
	var a domain.AuditLog
	err := row.Scan(&a.JobID, &a.JobName, &a.Event, &a.User, &a.CategoryID, &a.Description, &a.CreatedTime)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) AddAuditLog(ctx context.Context, log *domain.AuditLog) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(
		`INSERT INTO %s (job_id, job_name, event, username, category_id, description, created_time)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`, s.tables.AuditLogs),
		log.JobID, log.JobName, log.Event, log.User, log.CategoryID, log.Description, log.CreatedTime,
	)
	if err != nil {
		return fmt.Errorf("postgres: add audit log: %w", err)
	}
	return nil
}

func (s *Store) GetAuditLogsInRange(ctx context.Context, start, end time.Time, categoryID int) ([]*domain.AuditLog, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if categoryID == 0 {
		rows, err = s.pool.Query(ctx, fmt.Sprintf(
			`SELECT %s FROM %s WHERE created_time BETWEEN $1 AND $2 ORDER BY created_time DESC`,
			auditColumns, s.tables.AuditLogs), start, end)
	} else {
		rows, err = s.pool.Query(ctx, fmt.Sprintf(
			`SELECT %s FROM %s WHERE created_time BETWEEN $1 AND $2 AND category_id = $3 ORDER BY created_time DESC`,
			auditColumns, s.tables.AuditLogs), start, end, categoryID)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: list audit logs: %w", err)
	}
	defer rows.Close()

	var out []*domain.AuditLog
	for rows.Next() {
		a, err := scanAuditLog(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan audit log: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list audit logs: %w", err)
	}
	return out, nil
}
