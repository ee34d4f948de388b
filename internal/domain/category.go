package domain

import (
	"errors"
	"time"
)

var (
	ErrCategoryNotFound     = errors.New("category not found")
	ErrCategoryExists       = errors.New("category name already exists")
	ErrCategoryZeroImmutable = errors.New("category 0 is a reserved sentinel and cannot be modified or deleted")
)

// CategoryAll is the reserved sentinel category id meaning "unscoped".
const CategoryAll = 0

type Category struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
