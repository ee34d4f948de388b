package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cronhub/scheduler/internal/auth"
	"github.com/cronhub/scheduler/internal/domain"
)

// ---- fakes ----

type fakeUserStore struct {
	addUser          func(ctx context.Context, u *domain.User, plaintext string) error
	getUser          func(ctx context.Context, username string) (*domain.User, error)
	getUserByID      func(ctx context.Context, id int) (*domain.User, error)
	listUsers        func(ctx context.Context) ([]*domain.User, error)
	updateUser       func(ctx context.Context, u *domain.User, newPlaintext string) error
	deleteUser       func(ctx context.Context, id int) error
	verifyPassword   func(ctx context.Context, username, plaintext string) (bool, error)
	checkUserExists  func(ctx context.Context, username string) (bool, error)
}

func (f *fakeUserStore) AddUser(ctx context.Context, u *domain.User, plaintext string) error {
	return f.addUser(ctx, u, plaintext)
}
func (f *fakeUserStore) GetUser(ctx context.Context, username string) (*domain.User, error) {
	return f.getUser(ctx, username)
}
func (f *fakeUserStore) GetUserByID(ctx context.Context, id int) (*domain.User, error) {
	return f.getUserByID(ctx, id)
}
func (f *fakeUserStore) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return f.listUsers(ctx)
}
func (f *fakeUserStore) UpdateUser(ctx context.Context, u *domain.User, newPlaintext string) error {
	return f.updateUser(ctx, u, newPlaintext)
}
func (f *fakeUserStore) DeleteUser(ctx context.Context, id int) error {
	return f.deleteUser(ctx, id)
}
func (f *fakeUserStore) VerifyPassword(ctx context.Context, username, plaintext string) (bool, error) {
	return f.verifyPassword(ctx, username, plaintext)
}
func (f *fakeUserStore) CheckUserExists(ctx context.Context, username string) (bool, error) {
	return f.checkUserExists(ctx, username)
}

const testKey = "test-jwt-secret-at-least-32-chars!!"

var testUser = &domain.User{ID: 1, Username: "alice", IsAdmin: true, CategoryID: 0}

func newService(st *fakeUserStore) *auth.Service {
	return auth.New(st, []byte(testKey), time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestLogin_Success(t *testing.T) {
	st := &fakeUserStore{
		verifyPassword: func(context.Context, string, string) (bool, error) { return true, nil },
		getUser:        func(context.Context, string) (*domain.User, error) { return testUser, nil },
	}

	token, err := newService(st).Login(context.Background(), "alice", "correct-password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) { return []byte(testKey), nil })
	if err != nil || !parsed.Valid {
		t.Fatalf("returned token is invalid: %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	st := &fakeUserStore{
		verifyPassword: func(context.Context, string, string) (bool, error) { return false, nil },
	}

	_, err := newService(st).Login(context.Background(), "alice", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("want ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_StoreError_NotCredentialsError(t *testing.T) {
	st := &fakeUserStore{
		verifyPassword: func(context.Context, string, string) (bool, error) {
			return false, errors.New("db unreachable")
		},
	}

	_, err := newService(st).Login(context.Background(), "alice", "whatever")
	if err == nil || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("want a wrapped store error distinct from ErrInvalidCredentials, got %v", err)
	}
}

func TestVerify_RejectsMalformedToken(t *testing.T) {
	st := &fakeUserStore{}
	_, err := newService(st).Verify(context.Background(), "not-a-real-token")
	if !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("want ErrTokenInvalid, got %v", err)
	}
}

func TestVerify_RejectsTokenForDeletedUser(t *testing.T) {
	st := &fakeUserStore{
		verifyPassword: func(context.Context, string, string) (bool, error) { return true, nil },
		getUser:        func(context.Context, string) (*domain.User, error) { return testUser, nil },
		checkUserExists: func(context.Context, string) (bool, error) { return false, nil },
	}
	svc := newService(st)

	token, err := svc.Login(context.Background(), "alice", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	_, err = svc.Verify(context.Background(), token)
	if !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("want ErrTokenInvalid for a since-deleted user, got %v", err)
	}
}

func TestVerify_TrustsTokenWhenStoreTransientlyUnavailable(t *testing.T) {
	st := &fakeUserStore{
		verifyPassword:  func(context.Context, string, string) (bool, error) { return true, nil },
		getUser:         func(context.Context, string) (*domain.User, error) { return testUser, nil },
		checkUserExists: func(context.Context, string) (bool, error) { return false, errors.New("connection reset") },
	}
	svc := newService(st)

	token, err := svc.Login(context.Background(), "alice", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := svc.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("want degraded trust rather than an error, got %v", err)
	}
	if claims.Username != "alice" {
		t.Errorf("want claims for alice, got %+v", claims)
	}
}
