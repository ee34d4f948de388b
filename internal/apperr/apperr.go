// Package apperr maps domain and store errors onto HTTP status codes and
// a small set of stable wire reasons, using one typed Kind instead of a
// string constant per handler.
package apperr

import (
	"errors"
	"net/http"

	"github.com/cronhub/scheduler/internal/domain"
)

type Kind string

const (
	KindValidation     Kind = "validation"
	KindAuth           Kind = "auth"
	KindAuthorization  Kind = "authorization"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindStoreFailure   Kind = "store_failure"
	KindRegistryFailure Kind = "registry_failure"
	KindJobBodyFailure Kind = "job_body_failure"
	KindAuditFailure   Kind = "audit_failure"
	KindInternal       Kind = "internal"
)

// Error is a classified application error carrying a stable Kind plus a
// human-readable message safe to return to callers.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// Status maps a Kind to the HTTP status code the transport layer writes.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusBadRequest
	case KindStoreFailure, KindRegistryFailure, KindJobBodyFailure, KindAuditFailure, KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// FromDomain classifies a domain-level sentinel error, falling back to
// KindInternal for anything it doesn't recognize.
func FromDomain(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, domain.ErrJobNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrCategoryNotFound),
		errors.Is(err, domain.ErrExecutionNotFound):
		return Wrap(KindNotFound, "not found", err)

	case errors.Is(err, domain.ErrUserExists),
		errors.Is(err, domain.ErrCategoryExists),
		errors.Is(err, domain.ErrCategoryZeroImmutable):
		return Wrap(KindConflict, "conflict", err)

	case errors.Is(err, domain.ErrInvalidTrigger):
		return Wrap(KindValidation, "invalid trigger", err)

	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrTokenInvalid):
		return Wrap(KindAuth, "unauthorized", err)

	case errors.Is(err, domain.ErrForbidden):
		return Wrap(KindAuthorization, "forbidden", err)

	case errors.Is(err, domain.ErrJobUnresolvable):
		return Wrap(KindRegistryFailure, "job class not registered", err)

	default:
		return Wrap(KindInternal, "internal server error", err)
	}
}
