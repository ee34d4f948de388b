package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/cronhub/scheduler/internal/domain"
)

const userColumns = `id, username, password_hash, is_admin, is_permission, category_id, created_at, updated_at`

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin, &u.IsPermission, &u.CategoryID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) AddUser(ctx context.Context, u *domain.User, plaintextPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintextPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("postgres: hash password: %w", err)
	}
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		`INSERT INTO %s (username, password_hash, is_admin, is_permission, category_id)
		 VALUES ($1,$2,$3,$4,$5) RETURNING id`, s.tables.Users),
		u.Username, string(hash), u.IsAdmin, u.IsPermission, u.CategoryID)
	if err := row.Scan(&u.ID); err != nil {
		var pgErr interface{ SQLState() string }
		if errors.As(err, &pgErr) && pgErr.SQLState() == "23505" {
			return domain.ErrUserExists
		}
		return fmt.Errorf("postgres: add user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, username string) (*domain.User, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE username = $1`, userColumns, s.tables.Users), username)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get user: %w", err)
	}
	return u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int) (*domain.User, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE id = $1`, userColumns, s.tables.Users), id)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get user by id: %w", err)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT %s FROM %s ORDER BY username`, userColumns, s.tables.Users))
	if err != nil {
		return nil, fmt.Errorf("postgres: list users: %w", err)
	}
	defer rows.Close()

	var out []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list users: %w", err)
	}
	return out, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *domain.User, newPlaintextPassword string) error {
	if newPlaintextPassword == "" {
		tag, err := s.pool.Exec(ctx, fmt.Sprintf(
			`UPDATE %s SET is_admin=$2, is_permission=$3, category_id=$4, updated_at=now() WHERE id=$1`, s.tables.Users),
			u.ID, u.IsAdmin, u.IsPermission, u.CategoryID)
		if err != nil {
			return fmt.Errorf("postgres: update user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrUserNotFound
		}
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPlaintextPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("postgres: hash password: %w", err)
	}
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET is_admin=$2, is_permission=$3, category_id=$4, password_hash=$5, updated_at=now() WHERE id=$1`, s.tables.Users),
		u.ID, u.IsAdmin, u.IsPermission, u.CategoryID, string(hash))
	if err != nil {
		return fmt.Errorf("postgres: update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.tables.Users), id)
	if err != nil {
		return fmt.Errorf("postgres: delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *Store) VerifyPassword(ctx context.Context, username, plaintext string) (bool, error) {
	u, err := s.GetUser(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		return false, domain.ErrInvalidCredentials
	}
	if err != nil {
		return false, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plaintext)); err != nil {
		return false, domain.ErrInvalidCredentials
	}
	return true, nil
}

func (s *Store) CheckUserExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT EXISTS(SELECT 1 FROM %s WHERE username = $1)`, s.tables.Users), username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: check user exists: %w", err)
	}
	return exists, nil
}
