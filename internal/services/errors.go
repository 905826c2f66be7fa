// internal/services/errors.go
package services

import (
	"errors"
	"fmt"

	"github.com/javajoker/marketplace-backend/internal/repository"
)

// Error kinds returned by the services. Handlers map them to HTTP statuses
// with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidState      = errors.New("invalid state")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrConflict          = errors.New("conflict")
)

// Error is a domain failure with a message safe to show to clients.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func notFound(what string) *Error {
	return newError(ErrNotFound, "%s not found", what)
}

func forbidden(format string, args ...interface{}) *Error {
	return newError(ErrForbidden, format, args...)
}

func invalidState(format string, args ...interface{}) *Error {
	return newError(ErrInvalidState, format, args...)
}

func insufficientStock(productName string) *Error {
	return newError(ErrInsufficientStock, "insufficient stock for %s", productName)
}

// lookupErr turns a repository miss into a NotFound for what and wraps any
// other failure.
func lookupErr(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(what)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}
