package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cronhub/scheduler/internal/domain"
)

const categoryColumns = `id, name, description, created_at, updated_at`

func scanCategory(row rowScanner) (*domain.Category, error) {
	var c domain.Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) AddCategory(ctx context.Context, c *domain.Category) error {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		`INSERT INTO %s (name, description) VALUES ($1,$2) RETURNING id`, s.tables.Categories),
		c.Name, c.Description)
	if err := row.Scan(&c.ID); err != nil {
		var pgErr interface{ SQLState() string }
		if errors.As(err, &pgErr) && pgErr.SQLState() == "23505" {
			return domain.ErrCategoryExists
		}
		return fmt.Errorf("postgres: add category: %w", err)
	}
	return nil
}

func (s *Store) GetCategory(ctx context.Context, id int) (*domain.Category, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE id = $1`, categoryColumns, s.tables.Categories), id)
	c, err := scanCategory(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get category: %w", err)
	}
	return c, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT %s FROM %s ORDER BY name`, categoryColumns, s.tables.Categories))
	if err != nil {
		return nil, fmt.Errorf("postgres: list categories: %w", err)
	}
	defer rows.Close()

	var out []*domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list categories: %w", err)
	}
	return out, nil
}

func (s *Store) UpdateCategory(ctx context.Context, c *domain.Category) error {
	if c.ID == domain.CategoryAll {
		return domain.ErrCategoryZeroImmutable
	}
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET name=$2, description=$3, updated_at=now() WHERE id=$1`, s.tables.Categories),
		c.ID, c.Name, c.Description)
	if err != nil {
		var pgErr interface{ SQLState() string }
		if errors.As(err, &pgErr) && pgErr.SQLState() == "23505" {
			return domain.ErrCategoryExists
		}
		return fmt.Errorf("postgres: update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, id int) error {
	if id == domain.CategoryAll {
		return domain.ErrCategoryZeroImmutable
	}
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.tables.Categories), id)
	if err != nil {
		return fmt.Errorf("postgres: delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	_, err = s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE category_id = $1`, s.tables.JobCategories), id)
	if err != nil {
		return fmt.Errorf("postgres: delete job category links: %w", err)
	}
	return nil
}

// SetJobCategory links jobID to categoryID and back-fills the category_id of
// that job's most recent ADDED audit row in a single transaction, matching
// the source scheduler's set_job_category(): the link and the historical
// record must never observably disagree.
func (s *Store) SetJobCategory(ctx context.Context, jobID string, categoryID int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: set job category: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, fmt.Sprintf(
		`INSERT INTO %s (job_id, category_id) VALUES ($1,$2)
		 ON CONFLICT (job_id) DO UPDATE SET category_id = EXCLUDED.category_id`, s.tables.JobCategories),
		jobID, categoryID)
	if err != nil {
		return fmt.Errorf("postgres: set job category: upsert link: %w", err)
	}

	_, err = tx.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET category_id = $2
		 WHERE id = (
			 SELECT id FROM %s WHERE job_id = $1 AND event = 'ADDED' ORDER BY created_time DESC LIMIT 1
		 )`, s.tables.AuditLogs, s.tables.AuditLogs),
		jobID, categoryID)
	if err != nil {
		return fmt.Errorf("postgres: set job category: backfill audit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: set job category: commit: %w", err)
	}
	return nil
}

func (s *Store) GetJobCategoryID(ctx context.Context, jobID string) (int, error) {
	var categoryID int
	err := s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT category_id FROM %s WHERE job_id = $1`, s.tables.JobCategories), jobID).Scan(&categoryID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CategoryAll, nil
	}
	if err != nil {
		return 0, fmt.Errorf("postgres: get job category: %w", err)
	}
	return categoryID, nil
}
