package domain

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists        = errors.New("username already exists")
	ErrTokenInvalid      = errors.New("token is invalid or expired")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrForbidden         = errors.New("forbidden")
)

// User is an operator account. Category 0 means unscoped ("all").
type User struct {
	ID            int       `json:"id"`
	Username      string    `json:"username"`
	PasswordHash  string    `json:"-"`
	IsAdmin       bool      `json:"is_admin"`
	IsPermission  bool      `json:"is_permission"`
	CategoryID    int       `json:"category_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Claims is the decoded payload of an issued bearer token.
type Claims struct {
	UserID       int    `json:"user_id"`
	Username     string `json:"username"`
	IsAdmin      bool   `json:"is_admin"`
	IsPermission bool   `json:"is_permission"`
	CategoryID   int    `json:"category_id"`
}
