package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TableNames lets operators point the store at pre-existing tables with
// different names via the DATABASE_TABLENAMES setting, defaulting to the
// scheduler_* names below.
type TableNames struct {
	Jobs          string
	Executions    string
	AuditLogs     string
	Users         string
	Categories    string
	JobCategories string
}

func DefaultTableNames() TableNames {
	return TableNames{
		Jobs:          "scheduler_jobs",
		Executions:    "scheduler_execution",
		AuditLogs:     "scheduler_jobauditlog",
		Users:         "scheduler_users",
		Categories:    "scheduler_categories",
		JobCategories: "scheduler_job_categories",
	}
}

// BootstrapUser seeds an initial operator account at startup from the
// AUTH_CREDENTIALS config option. BcryptHash is stored verbatim — the
// source of this value (env config) already holds a bcrypt digest, never a
// plaintext password.
type BootstrapUser struct {
	Username   string
	BcryptHash string
}

// createTables issues idempotent CREATE TABLE IF NOT EXISTS statements. It
// does not attempt schema migration of existing, differently-shaped tables.
func createTables(ctx context.Context, pool *pgxpool.Pool, t TableNames) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			job_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			job_class_string TEXT NOT NULL,
			pub_args JSONB NOT NULL DEFAULT '[]',
			month TEXT NOT NULL DEFAULT '',
			day TEXT NOT NULL DEFAULT '',
			day_of_week TEXT NOT NULL DEFAULT '',
			hour TEXT NOT NULL DEFAULT '',
			minute TEXT NOT NULL DEFAULT '',
			paused BOOLEAN NOT NULL DEFAULT false,
			next_run_time TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, t.Jobs),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			execution_id TEXT PRIMARY KEY,
			job_id TEXT NOT NULL,
			state TEXT NOT NULL,
			hostname TEXT NOT NULL DEFAULT '',
			pid INTEGER NOT NULL DEFAULT 0,
			scheduled_time TIMESTAMPTZ NOT NULL,
			updated_time TIMESTAMPTZ NOT NULL DEFAULT now(),
			description TEXT NOT NULL DEFAULT '',
			result TEXT NOT NULL DEFAULT '',
			category_id INTEGER
		)`, t.Executions),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_scheduled_time_idx ON %s (scheduled_time)`, t.Executions, t.Executions),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			job_id TEXT NOT NULL,
			job_name TEXT NOT NULL,
			event TEXT NOT NULL,
			username TEXT NOT NULL,
			category_id INTEGER NOT NULL DEFAULT 0,
			description TEXT NOT NULL DEFAULT '',
			created_time TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, t.AuditLogs),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_created_time_idx ON %s (created_time)`, t.AuditLogs, t.AuditLogs),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id SERIAL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			is_admin BOOLEAN NOT NULL DEFAULT false,
			is_permission BOOLEAN NOT NULL DEFAULT false,
			category_id INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, t.Users),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, t.Categories),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			job_id TEXT PRIMARY KEY,
			category_id INTEGER NOT NULL
		)`, t.JobCategories),
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: create tables: %w", err)
		}
	}
	return nil
}

// seedCategoryAll makes sure category 0, the reserved "all" sentinel, has a
// row so foreign-key-less joins against it still resolve to a name.
func seedCategoryAll(ctx context.Context, pool *pgxpool.Pool, t TableNames) error {
	_, err := pool.Exec(ctx, fmt.Sprintf(
		`INSERT INTO %s (id, name, description) VALUES (0, 'all', 'unscoped, sees every job')
		 ON CONFLICT (id) DO NOTHING`, t.Categories))
	if err != nil {
		return fmt.Errorf("postgres: seed category 0: %w", err)
	}
	return nil
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, t TableNames, users []BootstrapUser) error {
	for _, u := range users {
		_, err := pool.Exec(ctx, fmt.Sprintf(
			`INSERT INTO %s (username, password_hash, is_admin, is_permission, category_id)
			 VALUES ($1, $2, true, true, 0)
			 ON CONFLICT (username) DO NOTHING`, t.Users),
			u.Username, u.BcryptHash)
		if err != nil {
			return fmt.Errorf("postgres: seed user %q: %w", u.Username, err)
		}
	}
	return nil
}
